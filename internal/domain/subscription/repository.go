package subscription

import "context"

// UpdatedRow identifies the row an update touched; the caller needs the
// owning user id to invalidate the right cache tags.
type UpdatedRow struct {
	ID          string
	ClerkUserID string
}

// Repository defines persistence for user subscriptions.
type Repository interface {
	// Create inserts the subscription, ignoring the insert when a row for
	// the user already exists (unique clerk_user_id). Returns nil on
	// conflict — duplicate creation is a no-op, not an error.
	Create(ctx context.Context, sub *Subscription) (*UpdatedRow, error)

	// GetByUserID returns the user's subscription row.
	GetByUserID(ctx context.Context, userID string) (*Subscription, error)

	// UpdateByUserID applies the update to the row owned by userID.
	// Returns nil when no row matched.
	UpdateByUserID(ctx context.Context, userID string, update *Update) (*UpdatedRow, error)

	// UpdateByCustomerID applies the update to the row matching the
	// stripe customer id. Returns nil when no row matched.
	UpdateByCustomerID(ctx context.Context, customerID string, update *Update) (*UpdatedRow, error)

	// DeleteByUser removes the user's subscription rows, returning the
	// deleted ids for cache invalidation.
	DeleteByUser(ctx context.Context, userID string) ([]string, error)
}
