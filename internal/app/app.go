package app

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/footycharts/footycharts/external/broadcast"
	"github.com/footycharts/footycharts/external/dtlive"
	"github.com/footycharts/footycharts/internal/config"
	"github.com/footycharts/footycharts/internal/infrastructure/repository/postgres"
	"github.com/footycharts/footycharts/internal/platform/logging"
	"github.com/footycharts/footycharts/internal/platform/resilience"
	"github.com/footycharts/footycharts/internal/usecase"
)

// ConnectDB opens the traced database handle shared by all repositories.
func ConnectDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)

	attrs := []otelsql.Option{
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
	}
	if name := dbNameFromURL(cfg.DBURL); name != "" {
		attrs = append(attrs, otelsql.WithDBName(name))
	}

	db, err := otelsqlx.Open("postgres", dsn, attrs...)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Services bundles the wired use cases for the command entrypoints.
type Services struct {
	Scheduler *usecase.LiveScheduler
	Backfill  *usecase.BackfillService
	Ladder    *usecase.LadderService
}

func NewServices(cfg config.Config, db *sqlx.DB, logger *logging.Logger) *Services {
	matchRepo := postgres.NewMatchRepository(db)
	teamRepo := postgres.NewTeamRepository(db)
	playerRepo := postgres.NewPlayerSeasonRepository(db)
	statsRepo := postgres.NewPlayerStatRepository(db)
	ladderRepo := postgres.NewLadderRepository(db)

	feed := dtlive.NewClient(dtlive.ClientConfig{
		HTTPClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.FeedTimeout,
		},
		BaseURL:    cfg.FeedBaseURL,
		Timeout:    cfg.FeedTimeout,
		MaxRetries: cfg.FeedMaxRetries,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.FeedCircuitEnabled,
			FailureThreshold: cfg.FeedCircuitFailureCount,
			OpenTimeout:      cfg.FeedCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.FeedCircuitHalfOpenMaxReq,
		},
	})

	var publisher usecase.EventPublisher = usecase.NewNoopPublisher()
	if cfg.BroadcastEnabled {
		publisher = broadcast.NewPublisher(broadcast.PublisherConfig{
			IngressURL: cfg.BroadcastIngressURL,
			Token:      cfg.BroadcastToken,
			Timeout:    cfg.BroadcastTimeout,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.BroadcastCircuitEnabled,
				FailureThreshold: cfg.BroadcastCircuitFailureCount,
				OpenTimeout:      cfg.BroadcastCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.BroadcastCircuitHalfOpenMaxReq,
			},
		}, logger)
	}

	ingest := usecase.NewIngestionService(matchRepo, playerRepo, statsRepo)
	ladderSvc := usecase.NewLadderService(teamRepo, matchRepo, ladderRepo)

	scheduler := usecase.NewLiveScheduler(
		feed,
		ingest,
		ladderSvc,
		matchRepo,
		statsRepo,
		publisher,
		usecase.LiveSchedulerConfig{
			InactiveProbeDivisor: cfg.InactiveProbeDivisor,
			InactiveHourStart:    cfg.InactiveHourStart,
			Location:             cfg.Timezone,
			LastHomeAwayRound:    cfg.LastHomeAwayRound,
		},
		logger,
	)

	backfill := usecase.NewBackfillService(feed, ingest, ladderSvc, statsRepo, cfg.LastHomeAwayRound, logger)

	return &Services{
		Scheduler: scheduler,
		Backfill:  backfill,
		Ladder:    ladderSvc,
	}
}

func normalizeDBURL(raw string, disablePreparedBinaryResult bool) string {
	if !disablePreparedBinaryResult {
		return raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil {
		return raw
	}

	query := parsed.Query()
	if query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
		parsed.RawQuery = query.Encode()
	}

	return parsed.String()
}

func dbNameFromURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err == nil && parsed != nil && parsed.Scheme != "" {
		name := strings.TrimSpace(strings.TrimPrefix(parsed.Path, "/"))
		if name != "" {
			return name
		}
	}

	for _, token := range strings.Fields(trimmed) {
		if !strings.HasPrefix(token, "dbname=") {
			continue
		}
		name := strings.TrimSpace(strings.TrimPrefix(token, "dbname="))
		name = strings.Trim(name, `"'`)
		if name != "" {
			return name
		}
	}

	return ""
}
