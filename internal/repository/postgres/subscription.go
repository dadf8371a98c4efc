package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/getsentry/sentry-go"
	domainSub "github.com/localedeals/localedeals/internal/domain/subscription"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
)

type subscriptionRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewSubscriptionRepository creates a repository over user subscriptions.
func NewSubscriptionRepository(client postgres.IClient, logger *logger.Logger) domainSub.Repository {
	return &subscriptionRepository{client: client, logger: logger}
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *domainSub.Subscription) (*domainSub.UpdatedRow, error) {
	r.logger.Debugw("creating subscription", "user_id", sub.ClerkUserID, "tier", sub.Tier)

	span := StartRepositorySpan(ctx, "subscription", "create", map[string]interface{}{
		"user_id": sub.ClerkUserID,
	})
	defer FinishSpan(span)

	// Duplicate signups race through here; the unique clerk_user_id key
	// absorbs the conflict and the replay becomes a no-op.
	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		INSERT INTO user_subscriptions
			(id, clerk_user_id, tier, stripe_customer_id, stripe_subscription_id, stripe_subscription_item_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (clerk_user_id) DO NOTHING
		RETURNING id, clerk_user_id
	`, sub.ID, sub.ClerkUserID, sub.Tier, sub.StripeCustomerID, sub.StripeSubscriptionID, sub.StripeSubscriptionItemID, sub.CreatedAt, sub.UpdatedAt)

	var updated domainSub.UpdatedRow
	if err := row.Scan(&updated.ID, &updated.ClerkUserID); err != nil {
		if err == sql.ErrNoRows {
			SetSpanSuccess(span)
			return nil, nil
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to create subscription").
			WithReportableDetails(map[string]interface{}{
				"user_id": sub.ClerkUserID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &updated, nil
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*domainSub.Subscription, error) {
	span := StartRepositorySpan(ctx, "subscription", "get_by_user_id", nil)
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT id, clerk_user_id, tier, stripe_customer_id, stripe_subscription_id, stripe_subscription_item_id, created_at, updated_at
		FROM user_subscriptions
		WHERE clerk_user_id = $1
	`, userID)

	var sub domainSub.Subscription
	err := row.Scan(&sub.ID, &sub.ClerkUserID, &sub.Tier, &sub.StripeCustomerID,
		&sub.StripeSubscriptionID, &sub.StripeSubscriptionItemID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("subscription not found").
				WithHint("User has no subscription").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get subscription").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &sub, nil
}

// buildUpdate renders the SET clause for a partial update. Clear flags
// take precedence over their pointer counterparts.
func buildUpdate(update *domainSub.Update) (string, []interface{}) {
	set := "updated_at = now()"
	var args []interface{}

	add := func(column string, value interface{}) {
		args = append(args, value)
		set += fmt.Sprintf(", %s = $%d", column, len(args))
	}

	if update.Tier != nil {
		add("tier", string(*update.Tier))
	}
	if update.ClearStripeCustomerID {
		set += ", stripe_customer_id = NULL"
	} else if update.StripeCustomerID != nil {
		add("stripe_customer_id", *update.StripeCustomerID)
	}
	if update.StripeSubscriptionID != nil {
		add("stripe_subscription_id", *update.StripeSubscriptionID)
	}
	if update.ClearSubscriptionItemID {
		set += ", stripe_subscription_item_id = NULL"
	} else if update.StripeSubscriptionItemID != nil {
		add("stripe_subscription_item_id", *update.StripeSubscriptionItemID)
	}

	return set, args
}

func (r *subscriptionRepository) UpdateByUserID(ctx context.Context, userID string, update *domainSub.Update) (*domainSub.UpdatedRow, error) {
	span := StartRepositorySpan(ctx, "subscription", "update_by_user_id", nil)
	defer FinishSpan(span)

	set, args := buildUpdate(update)
	args = append(args, userID)
	query := fmt.Sprintf(`
		UPDATE user_subscriptions SET %s
		WHERE clerk_user_id = $%d
		RETURNING id, clerk_user_id
	`, set, len(args))

	return r.execUpdate(ctx, span, query, args)
}

func (r *subscriptionRepository) UpdateByCustomerID(ctx context.Context, customerID string, update *domainSub.Update) (*domainSub.UpdatedRow, error) {
	span := StartRepositorySpan(ctx, "subscription", "update_by_customer_id", nil)
	defer FinishSpan(span)

	set, args := buildUpdate(update)
	args = append(args, customerID)
	query := fmt.Sprintf(`
		UPDATE user_subscriptions SET %s
		WHERE stripe_customer_id = $%d
		RETURNING id, clerk_user_id
	`, set, len(args))

	return r.execUpdate(ctx, span, query, args)
}

func (r *subscriptionRepository) execUpdate(ctx context.Context, span *sentry.Span, query string, args []interface{}) (*domainSub.UpdatedRow, error) {
	row := r.client.Querier(ctx).QueryRowContext(ctx, query, args...)

	var updated domainSub.UpdatedRow
	if err := row.Scan(&updated.ID, &updated.ClerkUserID); err != nil {
		if err == sql.ErrNoRows {
			// Zero rows matched: unowned or unknown target. Not an error.
			SetSpanSuccess(span)
			return nil, nil
		}
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to update subscription").
			Mark(ierr.ErrDatabase)
	}
	SetSpanSuccess(span)
	return &updated, nil
}

func (r *subscriptionRepository) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	span := StartRepositorySpan(ctx, "subscription", "delete_by_user", nil)
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		DELETE FROM user_subscriptions WHERE clerk_user_id = $1 RETURNING id
	`, userID)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to delete subscription").
				Mark(ierr.ErrDatabase)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to delete subscription").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return ids, nil
}
