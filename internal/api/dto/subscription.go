package dto

import (
	"github.com/localedeals/localedeals/internal/domain/subscription"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// CreateCheckoutSessionRequest starts a paid-tier checkout.
type CreateCheckoutSessionRequest struct {
	Tier       string `json:"tier" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required,url"`
	CancelURL  string `json:"cancel_url" validate:"required,url"`

	UserID    string `json:"-"`
	UserEmail string `json:"-"`
}

func (r *CreateCheckoutSessionRequest) Validate() error {
	tier := types.SubscriptionTier(r.Tier)
	if !tier.Validate() {
		return ierr.NewErrorf("unknown tier %q", r.Tier).
			WithHint("Tier must be one of Basic, Standard, Premium").
			Mark(ierr.ErrValidation)
	}
	if tier == types.SubscriptionTierFree {
		return ierr.NewError("cannot check out the free tier").
			WithHint("Pick a paid tier to upgrade").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreatePortalSessionRequest opens the Stripe billing portal.
type CreatePortalSessionRequest struct {
	ReturnURL string `json:"return_url" validate:"required,url"`

	UserID string `json:"-"`
}

// SessionResponse carries a Stripe-hosted redirect URL.
type SessionResponse struct {
	URL string `json:"url"`
}

// SubscriptionResponse is the wire shape of a user's subscription plus
// the capabilities of its tier.
type SubscriptionResponse struct {
	*subscription.Subscription
	Capabilities types.TierConfig `json:"capabilities"`
}
