package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/playerseason"
	"github.com/footycharts/footycharts/internal/domain/playerstat"
)

// IngestionService is the single write path for feed records. Player season
// identities are written before player match stats because the latter
// reference the former by (player id, season); matches are independent of
// both. Writes for one bundle are not wrapped in a cross-table transaction.
type IngestionService struct {
	matchRepo  match.Repository
	playerRepo playerseason.Repository
	statsRepo  playerstat.Repository
}

func NewIngestionService(
	matchRepo match.Repository,
	playerRepo playerseason.Repository,
	statsRepo playerstat.Repository,
) *IngestionService {
	return &IngestionService{
		matchRepo:  matchRepo,
		playerRepo: playerRepo,
		statsRepo:  statsRepo,
	}
}

// IngestBundle persists one fetched match and its player records. A storage
// failure aborts the remaining writes for this bundle only.
func (s *IngestionService) IngestBundle(ctx context.Context, bundle FeedBundle) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.IngestionService.IngestBundle")
	defer span.End()

	if err := validateMatch(bundle.Match); err != nil {
		return err
	}

	players := make([]playerseason.PlayerSeason, 0, len(bundle.Players))
	for _, p := range bundle.Players {
		p.Name = strings.TrimSpace(p.Name)
		p.Team = strings.TrimSpace(p.Team)
		if p.PlayerID <= 0 {
			return fmt.Errorf("%w: player id must be greater than zero", ErrInvalidInput)
		}
		p.Season = bundle.Match.Season
		players = append(players, p)
	}

	stats := make([]playerstat.MatchStat, 0, len(bundle.PlayerStats))
	for _, st := range bundle.PlayerStats {
		if st.PlayerID <= 0 {
			return fmt.Errorf("%w: stat player id must be greater than zero", ErrInvalidInput)
		}
		st.MatchID = bundle.Match.ID
		st.Season = bundle.Match.Season
		stats = append(stats, st)
	}

	if err := s.matchRepo.Upsert(ctx, bundle.Match); err != nil {
		return fmt.Errorf("upsert match id=%d: %w", bundle.Match.ID, err)
	}
	if len(players) > 0 {
		if err := s.playerRepo.InsertMissing(ctx, players); err != nil {
			return fmt.Errorf("insert players by season match_id=%d: %w", bundle.Match.ID, err)
		}
	}
	if len(stats) > 0 {
		if err := s.statsRepo.UpsertStats(ctx, stats); err != nil {
			return fmt.Errorf("upsert player stats match_id=%d: %w", bundle.Match.ID, err)
		}
	}

	return nil
}

func validateMatch(m match.Match) error {
	if m.ID <= 0 {
		return fmt.Errorf("%w: match id must be greater than zero", ErrInvalidInput)
	}
	if m.Season <= 0 {
		return fmt.Errorf("%w: match season must be greater than zero", ErrInvalidInput)
	}
	if m.Round <= 0 {
		return fmt.Errorf("%w: match round must be greater than zero", ErrInvalidInput)
	}
	if strings.TrimSpace(m.HomeTeam) == "" || strings.TrimSpace(m.AwayTeam) == "" {
		return fmt.Errorf("%w: match team names are required", ErrInvalidInput)
	}
	return nil
}
