package usecase

import (
	"context"
	"fmt"

	"github.com/footycharts/footycharts/internal/domain/ladder"
	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/team"
)

// LadderService recomputes league standings from completed-match history.
// Every trigger rebuilds the full (team, round) grid from round 1; the
// incremental alternative was rejected because late score corrections must
// always be reflected.
type LadderService struct {
	teamRepo   team.Repository
	matchRepo  match.Repository
	ladderRepo ladder.Repository
}

func NewLadderService(
	teamRepo team.Repository,
	matchRepo match.Repository,
	ladderRepo ladder.Repository,
) *LadderService {
	return &LadderService{
		teamRepo:   teamRepo,
		matchRepo:  matchRepo,
		ladderRepo: ladderRepo,
	}
}

// Recompute rebuilds cumulative standings for every team through every round
// 1..throughRound of the season and replaces any existing entries.
func (s *LadderService) Recompute(ctx context.Context, season, throughRound int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.LadderService.Recompute")
	defer span.End()

	if season <= 0 {
		return fmt.Errorf("%w: season must be greater than zero", ErrInvalidInput)
	}
	if throughRound < 1 {
		return fmt.Errorf("%w: through round must be at least 1", ErrInvalidInput)
	}

	teams, err := s.teamRepo.ListNames(ctx)
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}

	matches, err := s.matchRepo.ListSeasonThroughRound(ctx, season, throughRound)
	if err != nil {
		return fmt.Errorf("list matches season=%d through_round=%d: %w", season, throughRound, err)
	}

	entries := make([]ladder.Entry, 0, len(teams)*throughRound)
	for _, name := range teams {
		for round := 1; round <= throughRound; round++ {
			entries = append(entries, cumulativeEntry(name, season, round, matches))
		}
	}

	if err := s.ladderRepo.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("upsert ladder season=%d: %w", season, err)
	}
	return nil
}

func cumulativeEntry(teamName string, season, round int, matches []match.Match) ladder.Entry {
	entry := ladder.Entry{Team: teamName, Season: season, Round: round}
	for _, m := range matches {
		if m.Round > round {
			continue
		}
		home := m.HomeTeam == teamName
		away := m.AwayTeam == teamName
		if !home && !away {
			continue
		}

		forScore, againstScore := m.HomeScore(), m.AwayScore()
		if away {
			forScore, againstScore = againstScore, forScore
		}
		entry.PointsFor += forScore
		entry.PointsAgainst += againstScore

		switch {
		case forScore == againstScore:
			entry.Draws++
		case forScore > againstScore:
			entry.Wins++
		default:
			entry.Losses++
		}
	}
	return entry
}
