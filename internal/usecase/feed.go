package usecase

import (
	"context"

	"github.com/footycharts/footycharts/internal/domain/match"
	"github.com/footycharts/footycharts/internal/domain/playerseason"
	"github.com/footycharts/footycharts/internal/domain/playerstat"
)

// FeedBundle is everything one feed document yields for a single match.
type FeedBundle struct {
	Match       match.Match
	Players     []playerseason.PlayerSeason
	PlayerStats []playerstat.MatchStat
}

// MatchFeed fetches and normalizes one match document by numeric id.
// Implementations return ErrNotFound when the id is not allocated upstream
// and ErrTransientFetch for failures worth retrying next tick.
type MatchFeed interface {
	FetchMatch(ctx context.Context, matchID int) (FeedBundle, error)
}
