package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/playerseason"
	qb "github.com/footycharts/footycharts/internal/platform/querybuilder"
)

type playerSeasonInsertModel struct {
	PlayerID     int    `db:"player_id"`
	Season       int    `db:"season"`
	Name         string `db:"name"`
	Team         string `db:"team"`
	JumperNumber int    `db:"jumper_number"`
}

type PlayerSeasonRepository struct {
	db *sqlx.DB
}

func NewPlayerSeasonRepository(db *sqlx.DB) *PlayerSeasonRepository {
	return &PlayerSeasonRepository{db: db}
}

var _ playerseason.Repository = (*PlayerSeasonRepository)(nil)

// InsertMissing writes any player season identities not seen before. A player
// identity is immutable within a season, so conflicts are skipped instead of
// overwritten; mid-season trades keep the team they debuted with.
func (r *PlayerSeasonRepository) InsertMissing(ctx context.Context, players []playerseason.PlayerSeason) error {
	if len(players) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx insert players by season: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range players {
		insertModel := playerSeasonInsertModel{
			PlayerID:     p.PlayerID,
			Season:       p.Season,
			Name:         p.Name,
			Team:         p.Team,
			JumperNumber: p.JumperNumber,
		}
		query, args, err := qb.InsertModel("players_by_season", insertModel, "ON CONFLICT (player_id, season) DO NOTHING")
		if err != nil {
			return fmt.Errorf("build insert player by season query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert player_id=%d season=%d: %w", p.PlayerID, p.Season, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert players by season tx: %w", err)
	}
	return nil
}
