package broadcast

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/footycharts/footycharts/internal/platform/logging"
	"github.com/footycharts/footycharts/internal/platform/resilience"
	"github.com/footycharts/footycharts/internal/usecase"
)

var errBroadcastTransient = crerr.New("broadcast transient failure")

type PublisherConfig struct {
	// IngressURL is the websocket server's HTTP ingress endpoint. Events
	// POSTed there fan out to connected subscribers.
	IngressURL string

	Token          string
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Publisher pushes match events to the broadcast ingress. Delivery is fire
// and forget; callers treat a lost event as acceptable because the next poll
// publishes a fresh snapshot.
type Publisher struct {
	client         *http.Client
	ingressURL     string
	token          string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewPublisher(cfg PublisherConfig, logger *logging.Logger) *Publisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Publisher{
		client:         &http.Client{Timeout: timeout},
		ingressURL:     strings.TrimRight(strings.TrimSpace(cfg.IngressURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

var _ usecase.EventPublisher = (*Publisher)(nil)

func (p *Publisher) Publish(ctx context.Context, event usecase.MatchEvent) error {
	if p.circuitEnabled {
		if err := p.breaker.Allow(); err != nil {
			p.logger.WarnContext(ctx, "broadcast circuit breaker rejected publish", "state", p.breaker.State())
			return fmt.Errorf("broadcast ingress is temporarily unavailable: %w", err)
		}
	}

	ingressURL, err := validateHTTPBaseURL(p.ingressURL)
	if err != nil {
		return crerr.Wrap(err, "invalid BROADCAST_INGRESS_URL")
	}

	body, err := sonic.Marshal(event)
	if err != nil {
		return crerr.Wrap(err, "marshal match event")
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("broadcast.ingress_url", ingressURL),
			attribute.Int("broadcast.match_id", event.MatchID),
			attribute.Bool("broadcast.live", event.Live),
			attribute.String("broadcast.request_body", bodyPreview(body)),
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ingressURL, bytes.NewReader(body))
	if err != nil {
		return crerr.Wrap(err, "create broadcast request")
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: post match event match_id=%d: %v", errBroadcastTransient, event.MatchID, err)
		p.recordCircuitResult(callErr)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		callErr := fmt.Errorf(
			"%w: post match event status=%d match_id=%d body=%s",
			errBroadcastTransient,
			resp.StatusCode,
			event.MatchID,
			strings.TrimSpace(string(raw)),
		)
		p.recordCircuitResult(callErr)
		return callErr
	}

	p.logger.DebugContext(ctx, "match event published", "match_id", event.MatchID, "live", event.Live)
	p.recordCircuitResult(nil)
	return nil
}

func bodyPreview(body []byte) string {
	const max = 2048
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if len(body) <= max {
		_, _ = buf.Write(body)
	} else {
		_, _ = buf.Write(body[:max])
		_, _ = buf.WriteString("...(truncated)")
	}
	return buf.String()
}

func (p *Publisher) recordCircuitResult(err error) {
	if !p.circuitEnabled || p.breaker == nil {
		return
	}
	if err == nil {
		p.breaker.RecordSuccess()
		return
	}
	if stderrors.Is(err, errBroadcastTransient) {
		p.breaker.RecordFailure()
		return
	}
	p.breaker.RecordSuccess()
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}
