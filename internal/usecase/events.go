package usecase

import (
	"context"

	"github.com/footycharts/footycharts/internal/domain/match"
)

// MatchEvent is the state pushed to subscribers after every poll of a match.
type MatchEvent struct {
	MatchID     int    `json:"match_id"`
	Season      int    `json:"season"`
	Round       int    `json:"round"`
	HomeTeam    string `json:"home_team"`
	AwayTeam    string `json:"away_team"`
	HomeGoals   int    `json:"home_goals"`
	HomeBehinds int    `json:"home_behinds"`
	AwayGoals   int    `json:"away_goals"`
	AwayBehinds int    `json:"away_behinds"`
	HomeScore   int    `json:"home_score"`
	AwayScore   int    `json:"away_score"`
	Live        bool   `json:"live"`
}

// EventPublisher delivers match state to the broadcast transport.
// Fire-and-forget: failures never block or fail an ingestion tick.
type EventPublisher interface {
	Publish(ctx context.Context, event MatchEvent) error
}

type noopPublisher struct{}

func (noopPublisher) Publish(_ context.Context, _ MatchEvent) error {
	return nil
}

func NewNoopPublisher() EventPublisher {
	return noopPublisher{}
}

func eventFromMatch(m match.Match) MatchEvent {
	return MatchEvent{
		MatchID:     m.ID,
		Season:      m.Season,
		Round:       m.Round,
		HomeTeam:    m.HomeTeam,
		AwayTeam:    m.AwayTeam,
		HomeGoals:   m.HomeGoals,
		HomeBehinds: m.HomeBehinds,
		AwayGoals:   m.AwayGoals,
		AwayBehinds: m.AwayBehinds,
		HomeScore:   m.HomeScore(),
		AwayScore:   m.AwayScore(),
		Live:        m.Live,
	}
}
