package subscription

import (
	"time"

	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// Subscription is the single per-user tier record. Created on first
// signup, mutated by the billing reconciler, hard-deleted only on full
// account deletion.
type Subscription struct {
	ID                       string                 `json:"id"`
	ClerkUserID              string                 `json:"clerk_user_id"`
	Tier                     types.SubscriptionTier `json:"tier"`
	StripeCustomerID         *string                `json:"stripe_customer_id,omitempty"`
	StripeSubscriptionID     *string                `json:"stripe_subscription_id,omitempty"`
	StripeSubscriptionItemID *string                `json:"stripe_subscription_item_id,omitempty"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
}

func (s *Subscription) Validate() error {
	if s.ClerkUserID == "" {
		return ierr.NewError("clerk_user_id is required").
			WithHint("Subscription must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if !s.Tier.Validate() {
		return ierr.NewErrorf("unknown tier %q", s.Tier).
			WithHint("Unknown subscription tier").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Update describes a partial mutation. Nil pointer fields are untouched;
// the Clear flags set their columns to NULL (used by the deleted-event
// downgrade, which wipes the customer and item linkage).
type Update struct {
	Tier                     *types.SubscriptionTier
	StripeCustomerID         *string
	StripeSubscriptionID     *string
	StripeSubscriptionItemID *string
	ClearStripeCustomerID    bool
	ClearSubscriptionItemID  bool
}
