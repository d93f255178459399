package postgres

import (
	"database/sql"

	"github.com/footycharts/footycharts/internal/domain/match"
)

type matchTableModel struct {
	ID              int           `db:"id"`
	Season          int           `db:"season"`
	Round           int           `db:"round"`
	Location        string        `db:"location"`
	HomeTeam        string        `db:"home_team"`
	AwayTeam        string        `db:"away_team"`
	HomeGoals       int           `db:"home_goals"`
	HomeBehinds     int           `db:"home_behinds"`
	AwayGoals       int           `db:"away_goals"`
	AwayBehinds     int           `db:"away_behinds"`
	Live            bool          `db:"live"`
	Quarter         string        `db:"quarter"`
	Clock           string        `db:"clock"`
	PercentComplete sql.NullInt64 `db:"percent_complete"`
}

type matchInsertModel struct {
	ID              int    `db:"id"`
	Season          int    `db:"season"`
	Round           int    `db:"round"`
	Location        string `db:"location"`
	HomeTeam        string `db:"home_team"`
	AwayTeam        string `db:"away_team"`
	HomeGoals       int    `db:"home_goals"`
	HomeBehinds     int    `db:"home_behinds"`
	AwayGoals       int    `db:"away_goals"`
	AwayBehinds     int    `db:"away_behinds"`
	Live            bool   `db:"live"`
	Quarter         string `db:"quarter"`
	Clock           string `db:"clock"`
	PercentComplete *int   `db:"percent_complete"`
}

func (m matchTableModel) toDomain() match.Match {
	out := match.Match{
		ID:          m.ID,
		Season:      m.Season,
		Round:       m.Round,
		Location:    m.Location,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeGoals:   m.HomeGoals,
		HomeBehinds: m.HomeBehinds,
		AwayGoals:   m.AwayGoals,
		AwayBehinds: m.AwayBehinds,
		Live:        m.Live,
		Quarter:     m.Quarter,
		Clock:       m.Clock,
	}
	if m.PercentComplete.Valid {
		percent := int(m.PercentComplete.Int64)
		out.PercentComplete = &percent
	}
	return out
}

func matchToInsertModel(m match.Match) matchInsertModel {
	return matchInsertModel{
		ID:              m.ID,
		Season:          m.Season,
		Round:           m.Round,
		Location:        m.Location,
		HomeTeam:        m.HomeTeam,
		AwayTeam:        m.AwayTeam,
		HomeGoals:       m.HomeGoals,
		HomeBehinds:     m.HomeBehinds,
		AwayGoals:       m.AwayGoals,
		AwayBehinds:     m.AwayBehinds,
		Live:            m.Live,
		Quarter:         m.Quarter,
		Clock:           m.Clock,
		PercentComplete: m.PercentComplete,
	}
}
