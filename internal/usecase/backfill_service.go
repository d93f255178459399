package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/footycharts/footycharts/internal/domain/playerstat"
	"github.com/footycharts/footycharts/internal/platform/logging"
)

const defaultBackfillWorkers = 8

// BackfillSeasonInput names one season's contiguous feed id range. Ranges are
// operator-supplied; the feed has no season index endpoint.
type BackfillSeasonInput struct {
	Season  int
	StartID int
	EndID   int
	Workers int
}

type BackfillResult struct {
	Season     int
	Ingested   int
	Missing    int
	Failed     int
	DurationMs int64
}

// taskPool is the slice of the ants pool API the backfill uses.
type taskPool interface {
	Submit(task func()) error
	Release()
}

// BackfillService replays a season's worth of historical feed documents into
// storage, then rebuilds the derived data the replay invalidated.
type BackfillService struct {
	feed      MatchFeed
	ingest    *IngestionService
	ladder    *LadderService
	statsRepo playerstat.Repository
	logger    *logging.Logger

	lastHomeAwayRound int
	newPool           func(workers int) (taskPool, error)
}

func NewBackfillService(
	feed MatchFeed,
	ingest *IngestionService,
	ladderSvc *LadderService,
	statsRepo playerstat.Repository,
	lastHomeAwayRound int,
	logger *logging.Logger,
) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}
	return &BackfillService{
		feed:              feed,
		ingest:            ingest,
		ladder:            ladderSvc,
		statsRepo:         statsRepo,
		logger:            logger,
		lastHomeAwayRound: lastHomeAwayRound,
		newPool: func(workers int) (taskPool, error) {
			return ants.NewPool(workers)
		},
	}
}

// BackfillSeason fetches every id in [StartID, EndID], persists what exists
// upstream and recomputes the season ladder and stats view once at the end.
// Individual fetch or persist failures are counted, logged and skipped; only
// an unusable input or a derived-data rebuild failure fails the run.
func (s *BackfillService) BackfillSeason(ctx context.Context, input BackfillSeasonInput) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.BackfillSeason")
	defer span.End()

	if input.Season <= 0 {
		return BackfillResult{}, fmt.Errorf("%w: season must be greater than zero", ErrInvalidInput)
	}
	if input.StartID <= 0 || input.EndID < input.StartID {
		return BackfillResult{}, fmt.Errorf("%w: invalid id range %d..%d", ErrInvalidInput, input.StartID, input.EndID)
	}
	workers := input.Workers
	if workers <= 0 {
		workers = defaultBackfillWorkers
	}

	start := time.Now()
	var ingested, missing, failed atomic.Int32

	pool, err := s.newPool(workers)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var submitErr error
	for id := input.StartID; id <= input.EndID; id++ {
		id := id
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			switch s.backfillOne(ctx, input.Season, id) {
			case backfillIngested:
				ingested.Add(1)
			case backfillMissing:
				missing.Add(1)
			default:
				failed.Add(1)
			}
		}); err != nil {
			wg.Done()
			submitErr = fmt.Errorf("submit backfill task: %w", err)
			break
		}
	}
	// in-flight tasks must land before the function returns, even when a
	// submit failed partway through the range
	wg.Wait()
	if submitErr != nil {
		return BackfillResult{}, submitErr
	}

	if err := s.statsRepo.RefreshSeasonView(ctx); err != nil {
		return BackfillResult{}, fmt.Errorf("refresh season stats view: %w", err)
	}
	if err := s.ladder.Recompute(ctx, input.Season, s.lastHomeAwayRound); err != nil {
		return BackfillResult{}, fmt.Errorf("recompute season %d ladder: %w", input.Season, err)
	}

	result := BackfillResult{
		Season:     input.Season,
		Ingested:   int(ingested.Load()),
		Missing:    int(missing.Load()),
		Failed:     int(failed.Load()),
		DurationMs: time.Since(start).Milliseconds(),
	}
	s.logger.Info("season backfill complete",
		"season", result.Season,
		"ingested", result.Ingested,
		"missing", result.Missing,
		"failed", result.Failed,
		"duration_ms", result.DurationMs,
	)
	return result, nil
}

type backfillOutcome int

const (
	backfillIngested backfillOutcome = iota
	backfillMissing
	backfillFailed
)

func (s *BackfillService) backfillOne(ctx context.Context, season, matchID int) backfillOutcome {
	bundle, err := s.feed.FetchMatch(ctx, matchID)
	if errors.Is(err, ErrNotFound) {
		return backfillMissing
	}
	if err != nil {
		s.logger.WarnContext(ctx, "backfill fetch failed", "match_id", matchID, "error", err)
		return backfillFailed
	}

	// historical documents can predate the season field; the operator's
	// range mapping is authoritative
	if bundle.Match.Season == 0 {
		bundle.Match.Season = season
	}
	bundle.Match.Live = false

	if err := s.ingest.IngestBundle(ctx, bundle); err != nil {
		s.logger.ErrorContext(ctx, "backfill persist failed", "match_id", matchID, "error", err)
		return backfillFailed
	}
	return backfillIngested
}
