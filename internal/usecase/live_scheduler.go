package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/playerstat"
	"github.com/footycharts/footycharts/internal/platform/logging"
)

// liveWindowSize bounds the contiguous id block probed while active. League
// scheduling never has more than three matches in progress at once.
const liveWindowSize = 3

const percentCompleteThreshold = 100

type LiveSchedulerConfig struct {
	// InactiveProbeDivisor probes upstream on only 1 in N ticks while no
	// match is believed live.
	InactiveProbeDivisor int

	// InactiveHourStart restricts inactive probing to local hours at or
	// after this value. Matches never start in the morning.
	InactiveHourStart int

	// Location is the league's local timezone for the hour gate.
	Location *time.Location

	// LastHomeAwayRound gates ladder recomputation; finals results never
	// move the ladder.
	LastHomeAwayRound int
}

// LiveScheduler decides each tick whether the league has matches in progress,
// re-polls them, detects completion and fans results out to storage and
// subscribers. It is driven by a single caller; ticks never overlap.
type LiveScheduler struct {
	feed      MatchFeed
	ingest    *IngestionService
	ladder    *LadderService
	matchRepo match.Repository
	statsRepo playerstat.Repository
	publisher EventPublisher
	cfg       LiveSchedulerConfig
	logger    *logging.Logger
	now       func() time.Time

	active         bool
	earliestLiveID int
	lastQ4Clock    string
	inactiveTicks  int
}

func NewLiveScheduler(
	feed MatchFeed,
	ingest *IngestionService,
	ladderSvc *LadderService,
	matchRepo match.Repository,
	statsRepo playerstat.Repository,
	publisher EventPublisher,
	cfg LiveSchedulerConfig,
	logger *logging.Logger,
) *LiveScheduler {
	if publisher == nil {
		publisher = NewNoopPublisher()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.InactiveProbeDivisor < 1 {
		cfg.InactiveProbeDivisor = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &LiveScheduler{
		feed:      feed,
		ingest:    ingest,
		ladder:    ladderSvc,
		matchRepo: matchRepo,
		statsRepo: statsRepo,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Bootstrap derives the initial state from storage: any match still flagged
// live means a previous run stopped mid-game and polling resumes from the
// smallest such id.
func (s *LiveScheduler) Bootstrap(ctx context.Context) error {
	live, err := s.matchRepo.ListLive(ctx)
	if err != nil {
		return fmt.Errorf("list live matches: %w", err)
	}
	if len(live) == 0 {
		s.active = false
		s.earliestLiveID = 0
		s.logger.Info("scheduler starting inactive")
		return nil
	}

	s.active = true
	s.earliestLiveID = live[0].ID
	s.logger.Info("scheduler resuming active", "earliest_live_id", s.earliestLiveID, "live_count", len(live))
	return nil
}

// Active reports whether the scheduler currently tracks live matches, and the
// earliest tracked id when it does.
func (s *LiveScheduler) Active() (bool, int) {
	return s.active, s.earliestLiveID
}

// Tick runs one scheduling cycle. It never returns an error: every failure
// mode inside a tick is logged and healed on a later tick.
func (s *LiveScheduler) Tick(ctx context.Context) {
	ctx, span := startUsecaseSpan(ctx, "usecase.LiveScheduler.Tick")
	defer span.End()

	if s.active {
		s.inactiveTicks = 0
		s.activeCycle(ctx)
		return
	}

	s.inactiveTicks++
	if s.cfg.InactiveProbeDivisor > 1 && s.inactiveTicks%s.cfg.InactiveProbeDivisor != 1 {
		return
	}
	if s.now().In(s.cfg.Location).Hour() < s.cfg.InactiveHourStart {
		return
	}
	s.inactiveCycle(ctx)
}

// inactiveCycle probes the id after the highest persisted match. NotFound
// means the next match has not started; anything found is live by definition,
// provided history has been backfilled first.
func (s *LiveScheduler) inactiveCycle(ctx context.Context) {
	maxID, err := s.matchRepo.MaxID(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "query max match id", "error", err)
		return
	}
	if maxID == 0 {
		s.logger.Warn("no matches in storage; backfill must run before live ingestion")
		return
	}

	probeID := maxID + 1
	bundle, err := s.feed.FetchMatch(ctx, probeID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Debug("no new match upstream", "probe_id", probeID)
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "probe fetch failed", "probe_id", probeID, "error", err)
		return
	}

	bundle.Match.Live = true
	if err := s.ingest.IngestBundle(ctx, bundle); err != nil {
		s.logger.ErrorContext(ctx, "persist new live match", "match_id", probeID, "error", err)
		return
	}
	s.publish(ctx, bundle.Match)

	s.active = true
	s.earliestLiveID = probeID
	s.lastQ4Clock = ""
	s.logger.Info("match started; switching to active mode", "match_id", probeID)
}

type fetchOutcome struct {
	matchID  int
	bundle   FeedBundle
	notFound bool
	err      error
}

// activeCycle re-polls the tracked id window. All fetches land before any
// persistence so a cycle's writes reflect one snapshot.
func (s *LiveScheduler) activeCycle(ctx context.Context) {
	outcomes := make([]fetchOutcome, liveWindowSize)
	var wg conc.WaitGroup
	for i := 0; i < liveWindowSize; i++ {
		i := i
		id := s.earliestLiveID + i
		wg.Go(func() {
			outcomes[i] = s.fetchOne(ctx, id)
		})
	}
	wg.Wait()

	notFoundCount := 0
	completed := false
	var completedMatch match.Match

	for _, outcome := range outcomes {
		if outcome.notFound {
			notFoundCount++
			continue
		}
		if outcome.err != nil {
			s.logger.WarnContext(ctx, "live fetch failed; retrying next tick", "match_id", outcome.matchID, "error", outcome.err)
			continue
		}

		bundle := outcome.bundle
		bundle.Match.Live = true
		if outcome.matchID == s.earliestLiveID && s.matchComplete(bundle.Match) {
			bundle.Match.Live = false
			completed = true
			completedMatch = bundle.Match
			s.earliestLiveID++
			s.lastQ4Clock = ""
			s.logger.Info("match complete", "match_id", bundle.Match.ID, "round", bundle.Match.Round)
		}

		if err := s.ingest.IngestBundle(ctx, bundle); err != nil {
			s.logger.ErrorContext(ctx, "persist live match", "match_id", outcome.matchID, "error", err)
			continue
		}
		s.publish(ctx, bundle.Match)
	}

	if notFoundCount == liveWindowSize {
		s.active = false
		s.earliestLiveID = 0
		s.lastQ4Clock = ""
		s.logger.Info("no live matches found; switching to inactive mode")
		return
	}

	if completed {
		s.onMatchCompleted(ctx, completedMatch)
	}
}

func (s *LiveScheduler) fetchOne(ctx context.Context, matchID int) fetchOutcome {
	bundle, err := s.feed.FetchMatch(ctx, matchID)
	if errors.Is(err, ErrNotFound) {
		return fetchOutcome{matchID: matchID, notFound: true}
	}
	if err != nil {
		return fetchOutcome{matchID: matchID, err: err}
	}
	return fetchOutcome{matchID: matchID, bundle: bundle}
}

// matchComplete applies the dual completion signal. Feed eras with a percent
// field report 100 at the siren; older documents only carry the quarter clock,
// where an unchanged fourth-quarter value between consecutive polls marks the
// end. The clock heuristic assumes polling is frequent enough that a running
// clock always moves between ticks; it tolerates duplicate polls but is an
// approximation, not a guarantee.
func (s *LiveScheduler) matchComplete(m match.Match) bool {
	if m.PercentComplete != nil {
		return *m.PercentComplete >= percentCompleteThreshold
	}
	if m.Quarter != "4" || m.Clock == "" {
		return false
	}
	if s.lastQ4Clock != "" && s.lastQ4Clock == m.Clock {
		return true
	}
	s.lastQ4Clock = m.Clock
	return false
}

// onMatchCompleted refreshes the season aggregate view and, for home-and-away
// rounds only, recomputes the ladder. Both are best-effort: a failure here
// leaves storage consistent and the next completion repairs derived data.
func (s *LiveScheduler) onMatchCompleted(ctx context.Context, m match.Match) {
	if err := s.statsRepo.RefreshSeasonView(ctx); err != nil {
		s.logger.ErrorContext(ctx, "refresh season stats view", "error", err)
	}

	if m.Round > s.cfg.LastHomeAwayRound {
		s.logger.Debug("finals match; ladder unchanged", "match_id", m.ID, "round", m.Round)
		return
	}
	if err := s.ladder.Recompute(ctx, m.Season, m.Round); err != nil {
		s.logger.ErrorContext(ctx, "recompute ladder", "season", m.Season, "round", m.Round, "error", err)
	}
}

func (s *LiveScheduler) publish(ctx context.Context, m match.Match) {
	if err := s.publisher.Publish(ctx, eventFromMatch(m)); err != nil {
		s.logger.WarnContext(ctx, "publish match event", "match_id", m.ID, "error", err)
	}
}
