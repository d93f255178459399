package playerstat

import "context"

type Repository interface {
	// UpsertStats overwrites every column on conflict.
	UpsertStats(ctx context.Context, stats []MatchStat) error

	// RefreshSeasonView rebuilds the per-season aggregate materialization
	// consumed by season-stat queries.
	RefreshSeasonView(ctx context.Context) error
}
