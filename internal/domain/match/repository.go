package match

import "context"

type Repository interface {
	// Upsert overwrites every column on conflict; each poll carries the
	// authoritative latest values for the row.
	Upsert(ctx context.Context, m Match) error

	// MaxID returns the highest persisted match id, or zero when the table
	// is empty.
	MaxID(ctx context.Context) (int, error)

	// ListLive returns matches flagged live, ordered by id ascending.
	ListLive(ctx context.Context) ([]Match, error)

	// ListSeasonThroughRound returns every match of a season with
	// round <= through, ordered by id.
	ListSeasonThroughRound(ctx context.Context, season, through int) ([]Match, error)
}
