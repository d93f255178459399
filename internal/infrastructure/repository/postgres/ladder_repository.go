package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/ladder"
	qb "github.com/footycharts/footycharts/internal/platform/querybuilder"
)

type ladderInsertModel struct {
	Team          string `db:"team"`
	Season        int    `db:"season"`
	Round         int    `db:"round"`
	Wins          int    `db:"wins"`
	Losses        int    `db:"losses"`
	Draws         int    `db:"draws"`
	PointsFor     int    `db:"points_for"`
	PointsAgainst int    `db:"points_against"`
}

const ladderUpsertSuffix = `ON CONFLICT (team, season, round)
DO UPDATE SET
    wins = EXCLUDED.wins,
    losses = EXCLUDED.losses,
    draws = EXCLUDED.draws,
    points_for = EXCLUDED.points_for,
    points_against = EXCLUDED.points_against`

type LadderRepository struct {
	db *sqlx.DB
}

func NewLadderRepository(db *sqlx.DB) *LadderRepository {
	return &LadderRepository{db: db}
}

var _ ladder.Repository = (*LadderRepository)(nil)

// Upsert replaces standings cells. Recomputation always writes the full
// (team, round) grid, so the whole batch goes through one transaction.
func (r *LadderRepository) Upsert(ctx context.Context, entries []ladder.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert ladder: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, e := range entries {
		insertModel := ladderInsertModel{
			Team:          e.Team,
			Season:        e.Season,
			Round:         e.Round,
			Wins:          e.Wins,
			Losses:        e.Losses,
			Draws:         e.Draws,
			PointsFor:     e.PointsFor,
			PointsAgainst: e.PointsAgainst,
		}
		query, args, err := qb.InsertModel("ladder", insertModel, ladderUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert ladder entry query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert ladder entry team=%s season=%d round=%d: %w", e.Team, e.Season, e.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert ladder tx: %w", err)
	}
	return nil
}
