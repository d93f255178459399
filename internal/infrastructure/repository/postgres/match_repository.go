package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/match"
	qb "github.com/footycharts/footycharts/internal/platform/querybuilder"
)

const matchUpsertSuffix = `ON CONFLICT (id)
DO UPDATE SET
    season = EXCLUDED.season,
    round = EXCLUDED.round,
    location = EXCLUDED.location,
    home_team = EXCLUDED.home_team,
    away_team = EXCLUDED.away_team,
    home_goals = EXCLUDED.home_goals,
    home_behinds = EXCLUDED.home_behinds,
    away_goals = EXCLUDED.away_goals,
    away_behinds = EXCLUDED.away_behinds,
    live = EXCLUDED.live,
    quarter = EXCLUDED.quarter,
    clock = EXCLUDED.clock,
    percent_complete = EXCLUDED.percent_complete`

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

var _ match.Repository = (*MatchRepository)(nil)

// Upsert writes the latest snapshot of one match. Re-polled matches overwrite
// every column so late corrections always land.
func (r *MatchRepository) Upsert(ctx context.Context, m match.Match) error {
	query, args, err := qb.InsertModel("matches", matchToInsertModel(m), matchUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match id=%d: %w", m.ID, err)
	}
	return nil
}

// MaxID returns the highest persisted match id, or 0 when no matches exist.
func (r *MatchRepository) MaxID(ctx context.Context) (int, error) {
	query, args, err := qb.Select("id").From("matches").OrderBy("id DESC").Limit(1).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build max match id query: %w", err)
	}

	var id int
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("query max match id: %w", err)
	}
	return id, nil
}

func (r *MatchRepository) ListLive(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(qb.Eq("live", true)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list live matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list live matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

// ListSeasonThroughRound returns completed matches of one season up to and
// including the given round.
func (r *MatchRepository) ListSeasonThroughRound(ctx context.Context, season, throughRound int) ([]match.Match, error) {
	query, args, err := qb.Select("*").From("matches").
		Where(
			qb.Eq("season", season),
			qb.Lte("round", throughRound),
			qb.Eq("live", false),
		).
		OrderBy("round", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list season matches query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list season=%d matches through round=%d: %w", season, throughRound, err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
