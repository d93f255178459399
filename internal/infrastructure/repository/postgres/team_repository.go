package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/footycharts/footycharts/internal/domain/team"
	qb "github.com/footycharts/footycharts/internal/platform/querybuilder"
)

type teamTableModel struct {
	Name     string `db:"name"`
	Nickname string `db:"nickname"`
}

type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

var _ team.Repository = (*TeamRepository)(nil)

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select("name", "nickname").From("teams").OrderBy("name").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{Name: row.Name, Nickname: row.Nickname})
	}
	return out, nil
}

func (r *TeamRepository) ListNames(ctx context.Context) ([]string, error) {
	query, args, err := qb.Select("name").From("teams").OrderBy("name").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team names query: %w", err)
	}

	var names []string
	if err := r.db.SelectContext(ctx, &names, query, args...); err != nil {
		return nil, fmt.Errorf("list team names: %w", err)
	}
	return names, nil
}
