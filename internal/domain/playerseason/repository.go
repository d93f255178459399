package playerseason

import "context"

type Repository interface {
	// InsertMissing writes rows that do not exist yet and leaves existing
	// rows untouched. Identity data must not regress once set.
	InsertMissing(ctx context.Context, players []PlayerSeason) error
}
