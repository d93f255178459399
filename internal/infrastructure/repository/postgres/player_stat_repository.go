package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/playerstat"
	qb "github.com/footycharts/footycharts/internal/platform/querybuilder"
)

type playerStatInsertModel struct {
	MatchID      int    `db:"match_id"`
	PlayerID     int    `db:"player_id"`
	Season       int    `db:"season"`
	Position     string `db:"position"`
	Kicks        int    `db:"kicks"`
	Handballs    int    `db:"handballs"`
	Marks        int    `db:"marks"`
	Goals        int    `db:"goals"`
	Behinds      int    `db:"behinds"`
	Tackles      int    `db:"tackles"`
	Hitouts      int    `db:"hitouts"`
	FreesFor     int    `db:"frees_for"`
	FreesAgainst int    `db:"frees_against"`
	SubbedOn     bool   `db:"subbed_on"`
	SubbedOff    bool   `db:"subbed_off"`
}

const playerStatUpsertSuffix = `ON CONFLICT (match_id, player_id)
DO UPDATE SET
    season = EXCLUDED.season,
    position = EXCLUDED.position,
    kicks = EXCLUDED.kicks,
    handballs = EXCLUDED.handballs,
    marks = EXCLUDED.marks,
    goals = EXCLUDED.goals,
    behinds = EXCLUDED.behinds,
    tackles = EXCLUDED.tackles,
    hitouts = EXCLUDED.hitouts,
    frees_for = EXCLUDED.frees_for,
    frees_against = EXCLUDED.frees_against,
    subbed_on = EXCLUDED.subbed_on,
    subbed_off = EXCLUDED.subbed_off`

type PlayerStatRepository struct {
	db *sqlx.DB
}

func NewPlayerStatRepository(db *sqlx.DB) *PlayerStatRepository {
	return &PlayerStatRepository{db: db}
}

var _ playerstat.Repository = (*PlayerStatRepository)(nil)

// UpsertStats writes the latest per-player lines for one match. Counting
// stats only ever grow during a match, but the whole row is replaced so
// upstream corrections are honoured.
func (r *PlayerStatRepository) UpsertStats(ctx context.Context, stats []playerstat.MatchStat) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert player stats: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, st := range stats {
		insertModel := playerStatInsertModel{
			MatchID:      st.MatchID,
			PlayerID:     st.PlayerID,
			Season:       st.Season,
			Position:     st.Position,
			Kicks:        st.Kicks,
			Handballs:    st.Handballs,
			Marks:        st.Marks,
			Goals:        st.Goals,
			Behinds:      st.Behinds,
			Tackles:      st.Tackles,
			Hitouts:      st.Hitouts,
			FreesFor:     st.FreesFor,
			FreesAgainst: st.FreesAgainst,
			SubbedOn:     st.SubbedOn,
			SubbedOff:    st.SubbedOff,
		}
		query, args, err := qb.InsertModel("player_stats", insertModel, playerStatUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build upsert player stat query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert player stat match_id=%d player_id=%d: %w", st.MatchID, st.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert player stats tx: %w", err)
	}
	return nil
}

// RefreshSeasonView rebuilds the season aggregate materialized view. The view
// sums per-match lines into season totals for chart queries.
func (r *PlayerStatRepository) RefreshSeasonView(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "REFRESH MATERIALIZED VIEW player_season_stats"); err != nil {
		return fmt.Errorf("refresh player_season_stats view: %w", err)
	}
	return nil
}
