package ladder

import "context"

type Repository interface {
	// Upsert replaces any existing entry for the same (team, season, round).
	Upsert(ctx context.Context, entries []Entry) error
}
