package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footycharts/footycharts/internal/domain/ladder"
	"github.com/footycharts/footycharts/internal/domain/match"
)

func completedMatch(id, season, round int, home, away string, homeGoals, homeBehinds, awayGoals, awayBehinds int) match.Match {
	return match.Match{
		ID:          id,
		Season:      season,
		Round:       round,
		HomeTeam:    home,
		AwayTeam:    away,
		HomeGoals:   homeGoals,
		HomeBehinds: homeBehinds,
		AwayGoals:   awayGoals,
		AwayBehinds: awayBehinds,
	}
}

func entryFor(t *testing.T, entries []ladder.Entry, teamName string, round int) ladder.Entry {
	t.Helper()
	for _, e := range entries {
		if e.Team == teamName && e.Round == round {
			return e
		}
	}
	t.Fatalf("no ladder entry for %s round %d", teamName, round)
	return ladder.Entry{}
}

func TestLadderServiceRecompute(t *testing.T) {
	ctx := context.Background()

	t.Run("single win and loss", func(t *testing.T) {
		matches := newStubMatchRepo()
		// 100 points to 50
		matches.matches[1] = completedMatch(1, 2025, 1, "Carlton", "Essendon", 16, 4, 8, 2)
		ladderRepo := &stubLadderRepo{}
		teams := &stubTeamRepoNames{names: []string{"Carlton", "Essendon"}}

		svc := NewLadderService(teams, matches, ladderRepo)
		require.NoError(t, svc.Recompute(ctx, 2025, 1))

		winner := entryFor(t, ladderRepo.entries, "Carlton", 1)
		assert.Equal(t, 1, winner.Wins)
		assert.Equal(t, 0, winner.Losses)
		assert.Equal(t, 4, winner.Points())
		assert.Equal(t, 100, winner.PointsFor)
		assert.Equal(t, 50, winner.PointsAgainst)
		assert.InDelta(t, 200.0, winner.Percent(), 0.001)

		loser := entryFor(t, ladderRepo.entries, "Essendon", 1)
		assert.Equal(t, 0, loser.Wins)
		assert.Equal(t, 1, loser.Losses)
		assert.Equal(t, 0, loser.Points())
		assert.InDelta(t, 50.0, loser.Percent(), 0.001)
	})

	t.Run("draw credits both sides", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[1] = completedMatch(1, 2025, 1, "Carlton", "Essendon", 10, 10, 11, 4)
		ladderRepo := &stubLadderRepo{}
		teams := &stubTeamRepoNames{names: []string{"Carlton", "Essendon"}}

		svc := NewLadderService(teams, matches, ladderRepo)
		require.NoError(t, svc.Recompute(ctx, 2025, 1))

		for _, name := range []string{"Carlton", "Essendon"} {
			e := entryFor(t, ladderRepo.entries, name, 1)
			assert.Equal(t, 1, e.Draws, name)
			assert.Equal(t, 2, e.Points(), name)
			assert.InDelta(t, 100.0, e.Percent(), 0.001, name)
		}
	})

	t.Run("cumulative totals across rounds", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[1] = completedMatch(1, 2025, 1, "Carlton", "Essendon", 15, 10, 10, 10) // 100-70
		matches.matches[2] = completedMatch(2, 2025, 2, "Richmond", "Carlton", 12, 8, 13, 7)   // 80-85
		ladderRepo := &stubLadderRepo{}
		teams := &stubTeamRepoNames{names: []string{"Carlton", "Essendon", "Richmond"}}

		svc := NewLadderService(teams, matches, ladderRepo)
		require.NoError(t, svc.Recompute(ctx, 2025, 2))

		// one entry per team per round
		assert.Len(t, ladderRepo.entries, 6)

		r2 := entryFor(t, ladderRepo.entries, "Carlton", 2)
		assert.Equal(t, 2, r2.Wins)
		assert.Equal(t, 8, r2.Points())
		assert.Equal(t, 185, r2.PointsFor)
		assert.Equal(t, 150, r2.PointsAgainst)

		// a team with a bye carries its totals forward
		essendon := entryFor(t, ladderRepo.entries, "Essendon", 2)
		assert.Equal(t, 1, essendon.Losses)
		assert.Equal(t, 70, essendon.PointsFor)

		// a team yet to play has a zero entry with percent 0
		richmondR1 := entryFor(t, ladderRepo.entries, "Richmond", 1)
		assert.Equal(t, 0, richmondR1.Wins+richmondR1.Losses+richmondR1.Draws)
		assert.InDelta(t, 0.0, richmondR1.Percent(), 0.001)
	})

	t.Run("score correction reshapes recomputed rounds", func(t *testing.T) {
		matches := newStubMatchRepo()
		matches.matches[1] = completedMatch(1, 2025, 1, "Carlton", "Essendon", 16, 4, 8, 2)
		teams := &stubTeamRepoNames{names: []string{"Carlton", "Essendon"}}

		before := &stubLadderRepo{}
		svc := NewLadderService(teams, matches, before)
		require.NoError(t, svc.Recompute(ctx, 2025, 1))
		assert.Equal(t, 1, entryFor(t, before.entries, "Carlton", 1).Wins)

		// corrected result flips the winner
		matches.matches[1] = completedMatch(1, 2025, 1, "Carlton", "Essendon", 8, 2, 16, 4)
		after := &stubLadderRepo{}
		svc = NewLadderService(teams, matches, after)
		require.NoError(t, svc.Recompute(ctx, 2025, 1))

		assert.Equal(t, 0, entryFor(t, after.entries, "Carlton", 1).Wins)
		assert.Equal(t, 1, entryFor(t, after.entries, "Essendon", 1).Wins)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := NewLadderService(&stubTeamRepoNames{}, newStubMatchRepo(), &stubLadderRepo{})
		assert.ErrorIs(t, svc.Recompute(ctx, 0, 1), ErrInvalidInput)
		assert.ErrorIs(t, svc.Recompute(ctx, 2025, 0), ErrInvalidInput)
	})
}
