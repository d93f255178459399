package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footycharts/footycharts/internal/domain/ladder"
	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/playerseason"
	"github.com/footycharts/footycharts/internal/domain/playerstat"
	"github.com/footycharts/footycharts/internal/domain/team"
	"github.com/footycharts/footycharts/internal/platform/logging"
)

type stubMatchRepo struct {
	mu       sync.Mutex
	matches  map[int]match.Match
	upserted []match.Match
}

func newStubMatchRepo() *stubMatchRepo {
	return &stubMatchRepo{matches: map[int]match.Match{}}
}

func (r *stubMatchRepo) Upsert(_ context.Context, m match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.matches[m.ID] = m
	r.upserted = append(r.upserted, m)
	return nil
}

func (r *stubMatchRepo) MaxID(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	maxID := 0
	for id := range r.matches {
		if id > maxID {
			maxID = id
		}
	}
	return maxID, nil
}

func (r *stubMatchRepo) ListLive(_ context.Context) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var live []match.Match
	for _, m := range r.matches {
		if m.Live {
			live = append(live, m)
		}
	}
	for i := 0; i < len(live); i++ {
		for j := i + 1; j < len(live); j++ {
			if live[j].ID < live[i].ID {
				live[i], live[j] = live[j], live[i]
			}
		}
	}
	return live, nil
}

func (r *stubMatchRepo) ListSeasonThroughRound(_ context.Context, season, throughRound int) ([]match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []match.Match
	for _, m := range r.matches {
		if m.Season == season && m.Round <= throughRound && !m.Live {
			out = append(out, m)
		}
	}
	return out, nil
}

type stubPlayerSeasonRepo struct {
	mu       sync.Mutex
	inserted []playerseason.PlayerSeason
}

func (r *stubPlayerSeasonRepo) InsertMissing(_ context.Context, players []playerseason.PlayerSeason) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, players...)
	return nil
}

type stubStatsRepo struct {
	mu        sync.Mutex
	upserted  []playerstat.MatchStat
	refreshes int
}

func (r *stubStatsRepo) UpsertStats(_ context.Context, stats []playerstat.MatchStat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserted = append(r.upserted, stats...)
	return nil
}

func (r *stubStatsRepo) RefreshSeasonView(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	return nil
}

type stubLadderRepo struct {
	mu      sync.Mutex
	entries []ladder.Entry
}

func (r *stubLadderRepo) Upsert(_ context.Context, entries []ladder.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entries...)
	return nil
}

type stubTeamRepoNames struct {
	names []string
}

func (r *stubTeamRepoNames) List(_ context.Context) ([]team.Team, error) {
	teams := make([]team.Team, 0, len(r.names))
	for _, name := range r.names {
		teams = append(teams, team.Team{Name: name})
	}
	return teams, nil
}

func (r *stubTeamRepoNames) ListNames(_ context.Context) ([]string, error) {
	return r.names, nil
}

type stubFeed struct {
	mu      sync.Mutex
	bundles map[int]FeedBundle
	errs    map[int]error
	fetched []int
}

func newStubFeed() *stubFeed {
	return &stubFeed{bundles: map[int]FeedBundle{}, errs: map[int]error{}}
}

func (f *stubFeed) FetchMatch(_ context.Context, matchID int) (FeedBundle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, matchID)
	if err, ok := f.errs[matchID]; ok {
		return FeedBundle{}, err
	}
	if bundle, ok := f.bundles[matchID]; ok {
		return bundle, nil
	}
	return FeedBundle{}, ErrNotFound
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []MatchEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event MatchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func liveBundle(id, season, round, percent int) FeedBundle {
	p := percent
	return FeedBundle{
		Match: match.Match{
			ID:              id,
			Season:          season,
			Round:           round,
			Location:        "MCG",
			HomeTeam:        "Carlton",
			AwayTeam:        "Essendon",
			HomeGoals:       10,
			HomeBehinds:     8,
			AwayGoals:       7,
			AwayBehinds:     5,
			PercentComplete: &p,
		},
	}
}

func newTestScheduler(feed MatchFeed, matches *stubMatchRepo, cfg LiveSchedulerConfig) (*LiveScheduler, *stubStatsRepo, *stubLadderRepo, *recordingPublisher) {
	players := &stubPlayerSeasonRepo{}
	stats := &stubStatsRepo{}
	ladderRepo := &stubLadderRepo{}
	teams := &stubTeamRepoNames{names: []string{"Carlton", "Essendon"}}
	publisher := &recordingPublisher{}

	ingest := NewIngestionService(matches, players, stats)
	ladderSvc := NewLadderService(teams, matches, ladderRepo)
	sched := NewLiveScheduler(feed, ingest, ladderSvc, matches, stats, publisher, cfg, logging.NewNop())
	return sched, stats, ladderRepo, publisher
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2025, 6, 14, hour, 30, 0, 0, time.UTC)
	}
}

func TestLiveSchedulerBootstrap(t *testing.T) {
	t.Run("inactive when nothing live", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[100] = match.Match{ID: 100, Season: 2025, Round: 9}

		sched, _, _, _ := newTestScheduler(newStubFeed(), matches, LiveSchedulerConfig{})
		require.NoError(t, sched.Bootstrap(context.Background()))

		active, _ := sched.Active()
		assert.False(t, active)
	})

	t.Run("resumes from smallest live id", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[200] = match.Match{ID: 200, Season: 2025, Round: 10, Live: true}
		matches.matches[201] = match.Match{ID: 201, Season: 2025, Round: 10, Live: true}

		sched, _, _, _ := newTestScheduler(newStubFeed(), matches, LiveSchedulerConfig{})
		require.NoError(t, sched.Bootstrap(context.Background()))

		active, earliest := sched.Active()
		assert.True(t, active)
		assert.Equal(t, 200, earliest)
	})
}

func TestLiveSchedulerInactiveGating(t *testing.T) {
	t.Run("skips ticks off the probe cadence", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[100] = match.Match{ID: 100, Season: 2025, Round: 9}
		feed := newStubFeed()

		sched, _, _, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{
			InactiveProbeDivisor: 3,
			InactiveHourStart:    12,
		})
		sched.now = fixedClock(15)

		for i := 0; i < 6; i++ {
			sched.Tick(context.Background())
		}
		// ticks 1 and 4 probe; the rest are skipped
		assert.Len(t, feed.fetched, 2)
	})

	t.Run("skips outside plausible hours", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[100] = match.Match{ID: 100, Season: 2025, Round: 9}
		feed := newStubFeed()

		sched, _, _, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{
			InactiveProbeDivisor: 1,
			InactiveHourStart:    12,
		})
		sched.now = fixedClock(9)

		sched.Tick(context.Background())
		assert.Empty(t, feed.fetched)
	})

	t.Run("never probes with empty storage", func(t *testing.T) {
		feed := newStubFeed()
		sched, _, _, _ := newTestScheduler(feed, newStubMatchRepo(), LiveSchedulerConfig{
			InactiveProbeDivisor: 1,
		})
		sched.now = fixedClock(15)

		sched.Tick(context.Background())
		assert.Empty(t, feed.fetched)
	})
}

func TestLiveSchedulerActivation(t *testing.T) {
	matches := newStubMatchRepo()
	matches.matches[100] = match.Match{ID: 100, Season: 2025, Round: 9}
	feed := newStubFeed()
	feed.bundles[101] = liveBundle(101, 2025, 10, 40)

	sched, _, _, publisher := newTestScheduler(feed, matches, LiveSchedulerConfig{
		InactiveProbeDivisor: 1,
		InactiveHourStart:    12,
	})
	sched.now = fixedClock(15)

	sched.Tick(context.Background())

	active, earliest := sched.Active()
	assert.True(t, active)
	assert.Equal(t, 101, earliest)

	stored := matches.matches[101]
	assert.True(t, stored.Live)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, 101, publisher.events[0].MatchID)
	assert.True(t, publisher.events[0].Live)
}

func TestLiveSchedulerActiveCycle(t *testing.T) {
	t.Run("repolls window and publishes updates", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		feed.bundles[300] = liveBundle(300, 2025, 12, 55)
		feed.bundles[301] = liveBundle(301, 2025, 12, 20)

		sched, _, _, publisher := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		assert.ElementsMatch(t, []int{300, 301, 302}, feed.fetched)
		assert.Len(t, publisher.events, 2)
		assert.True(t, matches.matches[300].Live)
		assert.True(t, matches.matches[301].Live)
	})

	t.Run("transient fetch failure retries without losing state", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		feed.errs[300] = ErrTransientFetch
		feed.bundles[301] = liveBundle(301, 2025, 12, 20)

		sched, _, _, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		active, earliest := sched.Active()
		assert.True(t, active)
		assert.Equal(t, 300, earliest)
		_, written := matches.matches[300]
		assert.False(t, written)
	})

	t.Run("deactivates when the whole window is missing", func(t *testing.T) {
		matches := newStubMatchRepo()
		sched, _, _, _ := newTestScheduler(newStubFeed(), matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		active, _ := sched.Active()
		assert.False(t, active)
	})
}

func TestLiveSchedulerCompletion(t *testing.T) {
	t.Run("percent complete finishes the earliest match", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		feed.bundles[300] = liveBundle(300, 2025, 12, 100)
		feed.bundles[301] = liveBundle(301, 2025, 12, 30)

		sched, stats, ladderRepo, publisher := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		active, earliest := sched.Active()
		assert.True(t, active)
		assert.Equal(t, 301, earliest)
		assert.False(t, matches.matches[300].Live)
		assert.True(t, matches.matches[301].Live)
		assert.Equal(t, 1, stats.refreshes)
		assert.NotEmpty(t, ladderRepo.entries)

		var final *MatchEvent
		for i := range publisher.events {
			if publisher.events[i].MatchID == 300 {
				final = &publisher.events[i]
			}
		}
		require.NotNil(t, final)
		assert.False(t, final.Live)
	})

	t.Run("finals completion skips the ladder", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		feed.bundles[300] = liveBundle(300, 2025, 27, 100)

		sched, stats, ladderRepo, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		assert.Equal(t, 1, stats.refreshes)
		assert.Empty(t, ladderRepo.entries)
	})

	t.Run("stalled fourth quarter clock finishes clock-only feeds", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		bundle := liveBundle(300, 2025, 12, 0)
		bundle.Match.PercentComplete = nil
		bundle.Match.Quarter = "4"
		bundle.Match.Clock = "29:45"
		feed.bundles[300] = bundle

		sched, stats, _, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		// first sighting of the clock arms the heuristic
		sched.Tick(context.Background())
		active, earliest := sched.Active()
		assert.True(t, active)
		assert.Equal(t, 300, earliest)
		assert.True(t, matches.matches[300].Live)

		// identical clock on the next poll means the siren has gone
		sched.Tick(context.Background())
		_, earliest = sched.Active()
		assert.Equal(t, 301, earliest)
		assert.False(t, matches.matches[300].Live)
		assert.Equal(t, 1, stats.refreshes)
	})

	t.Run("moving fourth quarter clock keeps the match live", func(t *testing.T) {
		matches := newStubMatchRepo()
		feed := newStubFeed()
		bundle := liveBundle(300, 2025, 12, 0)
		bundle.Match.PercentComplete = nil
		bundle.Match.Quarter = "4"
		bundle.Match.Clock = "25:10"
		feed.bundles[300] = bundle

		sched, _, _, _ := newTestScheduler(feed, matches, LiveSchedulerConfig{LastHomeAwayRound: 24})
		sched.active = true
		sched.earliestLiveID = 300

		sched.Tick(context.Background())

		moved := bundle
		moved.Match.Clock = "27:02"
		feed.mu.Lock()
		feed.bundles[300] = moved
		feed.mu.Unlock()

		sched.Tick(context.Background())

		_, earliest := sched.Active()
		assert.Equal(t, 300, earliest)
		assert.True(t, matches.matches[300].Live)
	})
}
