package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/team"
)

// The league's clubs change rarely enough that a static seed beats an admin
// surface. Names match the long form the feed parser canonicalises to.
var seedTeams = []team.Team{
	{Name: "Adelaide", Nickname: "Crows"},
	{Name: "Brisbane", Nickname: "Lions"},
	{Name: "Carlton", Nickname: "Blues"},
	{Name: "Collingwood", Nickname: "Magpies"},
	{Name: "Essendon", Nickname: "Bombers"},
	{Name: "Fremantle", Nickname: "Dockers"},
	{Name: "Geelong", Nickname: "Cats"},
	{Name: "Gold Coast", Nickname: "Suns"},
	{Name: "Greater Western Sydney", Nickname: "Giants"},
	{Name: "Hawthorn", Nickname: "Hawks"},
	{Name: "Melbourne", Nickname: "Demons"},
	{Name: "North Melbourne", Nickname: "Kangaroos"},
	{Name: "Port Adelaide", Nickname: "Power"},
	{Name: "Richmond", Nickname: "Tigers"},
	{Name: "St Kilda", Nickname: "Saints"},
	{Name: "Sydney", Nickname: "Swans"},
	{Name: "West Coast", Nickname: "Eagles"},
	{Name: "Western Bulldogs", Nickname: "Bulldogs"},
}

// BootstrapSeed inserts the league's clubs on first run.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams`); err != nil {
		return fmt.Errorf("count teams for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range seedTeams {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (name, nickname)
VALUES (:name, :nickname)
ON CONFLICT (name) DO NOTHING`, map[string]any{
			"name":     item.Name,
			"nickname": item.Nickname,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", item.Name, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", item.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
