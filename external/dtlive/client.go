package dtlive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/footycharts/footycharts/internal/platform/logging"
	"github.com/footycharts/footycharts/internal/platform/resilience"
	"github.com/footycharts/footycharts/internal/usecase"
)

const defaultBaseURL = "https://dtlive.com.au/afl/xml"

const maxDocumentBytes = 2 << 20

var errFeedTransient = crerr.New("dtlive transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches per-match XML documents from the live stats feed. Documents
// are addressed by bare match id; the feed has no listing endpoint, so absence
// of an id is meaningful and reported as usecase.ErrNotFound.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

var _ usecase.MatchFeed = (*Client)(nil)

// FetchMatch retrieves and parses the document for one match id. Concurrent
// calls for the same id share a single upstream request.
func (c *Client) FetchMatch(ctx context.Context, matchID int) (usecase.FeedBundle, error) {
	if matchID <= 0 {
		return usecase.FeedBundle{}, fmt.Errorf("%w: match id must be greater than zero", usecase.ErrInvalidInput)
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "state", c.breaker.State())
			return usecase.FeedBundle{}, fmt.Errorf("%w: feed temporarily unavailable", usecase.ErrTransientFetch)
		}
	}

	fullURL := c.baseURL + "/" + strconv.Itoa(matchID) + ".xml"
	out, err, _ := c.flight.Do(strconv.Itoa(matchID), func() (any, error) {
		bundle, fetchErr := c.fetchAndParse(ctx, fullURL, matchID)
		if c.circuitEnabled {
			if fetchErr != nil && crerr.Is(fetchErr, errFeedTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		return bundle, fetchErr
	})
	if err != nil {
		if crerr.Is(err, errFeedTransient) {
			return usecase.FeedBundle{}, fmt.Errorf("%w: %v", usecase.ErrTransientFetch, err)
		}
		return usecase.FeedBundle{}, err
	}

	bundle, ok := out.(usecase.FeedBundle)
	if !ok {
		return usecase.FeedBundle{}, fmt.Errorf("unexpected response payload type %T", out)
	}
	return bundle, nil
}

func (c *Client) fetchAndParse(ctx context.Context, fullURL string, matchID int) (usecase.FeedBundle, error) {
	raw, err := c.executeRequest(ctx, fullURL)
	if err != nil {
		return usecase.FeedBundle{}, err
	}
	// a malformed body reads as an upstream fault like a 5xx does
	doc, err := parseDocument(raw)
	if err != nil {
		return usecase.FeedBundle{}, fmt.Errorf("%w: parse match %d document: %v", errFeedTransient, matchID, err)
	}
	return mapDocument(doc, matchID), nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/xml, text/xml")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %v", errFeedTransient, err)
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errFeedTransient, readErr)
			case resp.StatusCode == http.StatusNotFound:
				return nil, usecase.ErrNotFound
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d", errFeedTransient, resp.StatusCode)
			default:
				return nil, fmt.Errorf("feed status=%d", resp.StatusCode)
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("%w: feed request failed", errFeedTransient)
	}
	c.logger.WarnContext(ctx, "feed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
