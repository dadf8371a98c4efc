package productview

import (
	"context"
	"time"
)

// Repository defines persistence for view facts and the three aggregation
// shapes behind the dashboard charts. All aggregations are scoped to a
// single owning user (and optionally one product) and never return rows
// for products the user does not own.
type Repository interface {
	// Create inserts one view fact.
	Create(ctx context.Context, view *ProductView) error

	// CountSince returns the user's total views since the given instant.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)

	// ViewsByCountry returns per-country counts ordered by views
	// descending, capped to the top 25. Exact ties keep whatever stable
	// secondary order the storage engine provides; not deterministic.
	ViewsByCountry(ctx context.Context, scope AggregateScope) ([]*ViewsByCountryRow, error)

	// ViewsByDealGroup returns per-group counts ordered by group name,
	// including zero-view groups.
	ViewsByDealGroup(ctx context.Context, scope AggregateScope) ([]*ViewsByDealGroupRow, error)

	// CountsByBucket returns view counts grouped by the scope interval's
	// calendar bucket in the viewer's timezone. Empty buckets are absent;
	// the caller zero-fills against the interval series.
	CountsByBucket(ctx context.Context, scope AggregateScope) ([]*BucketCount, error)
}
