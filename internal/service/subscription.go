package service

import (
	"context"
	"time"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/domain/subscription"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/integration/stripe"
	"github.com/localedeals/localedeals/internal/types"
)

// SubscriptionEvent is the provider-neutral shape of a billing
// subscription lifecycle event. The webhook layer extracts it from the
// raw Stripe payload before handing it to the reconciler.
type SubscriptionEvent struct {
	ClerkUserID              string
	StripeCustomerID         string
	StripeSubscriptionID     string
	StripeSubscriptionItemID string
	PriceID                  string
}

// SubscriptionService manages the per-user tier record: reads for
// feature gating, checkout and portal sessions, and the webhook-driven
// reconciler that keeps the record in sync with Stripe.
type SubscriptionService interface {
	GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error)
	GetUserTier(ctx context.Context, userID string) (types.TierConfig, error)
	EnsureSubscription(ctx context.Context, userID string) (*subscription.Subscription, error)

	CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.SessionResponse, error)
	CreatePortalSession(ctx context.Context, req *dto.CreatePortalSessionRequest) (*dto.SessionResponse, error)

	// Reconciler entry points, one per Stripe subscription lifecycle
	// event. All three are idempotent: replaying an event converges on
	// the same row state.
	HandleSubscriptionCreated(ctx context.Context, ev *SubscriptionEvent) error
	HandleSubscriptionUpdated(ctx context.Context, ev *SubscriptionEvent) error
	HandleSubscriptionDeleted(ctx context.Context, ev *SubscriptionEvent) error
}

type subscriptionArgs struct {
	UserID string `json:"user_id"`
}

type subscriptionService struct {
	ServiceParams

	getByUser *cache.Memoized[subscriptionArgs, *subscription.Subscription]
}

func NewSubscriptionService(params ServiceParams) SubscriptionService {
	s := &subscriptionService{ServiceParams: params}

	s.getByUser = cache.Memoize(params.Cache, "subscription.getByUser",
		func(ctx context.Context, args subscriptionArgs) (*subscription.Subscription, error) {
			return params.SubscriptionRepo.GetByUserID(ctx, args.UserID)
		},
		func(args subscriptionArgs) []string {
			return []string{cache.UserTag(cache.TagSubscriptions, args.UserID)}
		},
	)
	return s
}

// NewDefaultSubscription returns the record a user starts on.
func NewDefaultSubscription(userID string) *subscription.Subscription {
	now := time.Now().UTC()
	return &subscription.Subscription{
		ID:          types.GenerateULIDWithPrefix(types.IDPrefixSubscription),
		ClerkUserID: userID,
		Tier:        types.SubscriptionTierFree,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *subscriptionService) GetSubscription(ctx context.Context, userID string) (*dto.SubscriptionResponse, error) {
	sub, err := s.getByUser.Call(ctx, subscriptionArgs{UserID: userID})
	if err != nil {
		return nil, err
	}

	capabilities, ok := s.Tiers.Get(sub.Tier)
	if !ok {
		capabilities = s.Tiers.Free()
	}
	return &dto.SubscriptionResponse{Subscription: sub, Capabilities: capabilities}, nil
}

// GetUserTier resolves the capabilities gating a user's actions. Users
// without a subscription row are on the free tier.
func (s *subscriptionService) GetUserTier(ctx context.Context, userID string) (types.TierConfig, error) {
	sub, err := s.getByUser.Call(ctx, subscriptionArgs{UserID: userID})
	if err != nil {
		if ierr.IsNotFound(err) {
			return s.Tiers.Free(), nil
		}
		return types.TierConfig{}, err
	}

	cfg, ok := s.Tiers.Get(sub.Tier)
	if !ok {
		s.Logger.Warnw("subscription has unknown tier, treating as free",
			"user_id", userID, "tier", sub.Tier)
		return s.Tiers.Free(), nil
	}
	return cfg, nil
}

// EnsureSubscription returns the user's subscription, creating the
// default free record on first touch. Concurrent first touches race
// through the insert; the unique user key makes the loser a no-op.
func (s *subscriptionService) EnsureSubscription(ctx context.Context, userID string) (*subscription.Subscription, error) {
	sub, err := s.getByUser.Call(ctx, subscriptionArgs{UserID: userID})
	if err == nil {
		return sub, nil
	}
	if !ierr.IsNotFound(err) {
		return nil, err
	}

	created := NewDefaultSubscription(userID)
	row, err := s.SubscriptionRepo.Create(ctx, created)
	if err != nil {
		return nil, err
	}
	if row != nil {
		cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
			Tag:    cache.TagSubscriptions,
			UserID: userID,
			ID:     row.ID,
		})
		return created, nil
	}

	// Lost the race; the winner's row is authoritative.
	return s.SubscriptionRepo.GetByUserID(ctx, userID)
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.SessionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cfg, ok := s.Tiers.Get(types.SubscriptionTier(req.Tier))
	if !ok || cfg.StripePriceID == "" {
		return nil, ierr.NewErrorf("tier %s is not purchasable", req.Tier).
			WithHint("This tier cannot be purchased").
			Mark(ierr.ErrInvalidOperation)
	}

	sub, err := s.EnsureSubscription(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	customerID, err := s.ensureStripeCustomer(ctx, sub, req.UserEmail)
	if err != nil {
		return nil, err
	}

	url, err := s.StripeClient.CreateCheckoutSession(ctx, stripe.CheckoutParams{
		CustomerID: customerID,
		PriceID:    cfg.StripePriceID,
		UserID:     req.UserID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{URL: url}, nil
}

func (s *subscriptionService) CreatePortalSession(ctx context.Context, req *dto.CreatePortalSessionRequest) (*dto.SessionResponse, error) {
	sub, err := s.getByUser.Call(ctx, subscriptionArgs{UserID: req.UserID})
	if err != nil || sub.StripeCustomerID == nil || *sub.StripeCustomerID == "" {
		if err != nil && !ierr.IsNotFound(err) {
			return nil, err
		}
		return nil, ierr.NewError("no billing account").
			WithHint("Subscribe to a paid tier first").
			Mark(ierr.ErrInvalidOperation)
	}

	url, err := s.StripeClient.CreatePortalSession(ctx, *sub.StripeCustomerID, req.ReturnURL)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{URL: url}, nil
}

// ensureStripeCustomer returns the linked Stripe customer id, creating
// and persisting one on first checkout.
func (s *subscriptionService) ensureStripeCustomer(ctx context.Context, sub *subscription.Subscription, email string) (string, error) {
	if sub.StripeCustomerID != nil && *sub.StripeCustomerID != "" {
		return *sub.StripeCustomerID, nil
	}

	customerID, err := s.StripeClient.CreateCustomer(ctx, email, sub.ClerkUserID)
	if err != nil {
		return "", err
	}

	row, err := s.SubscriptionRepo.UpdateByUserID(ctx, sub.ClerkUserID, &subscription.Update{
		StripeCustomerID: &customerID,
	})
	if err != nil {
		return "", err
	}
	if row != nil {
		s.revalidate(ctx, row)
	}
	return customerID, nil
}

// tierFor maps a Stripe price id to a tier. An unknown price means the
// catalog and Stripe disagree; the webhook fails with 500 so Stripe
// retries once the catalog is fixed, instead of silently downgrading.
func (s *subscriptionService) tierFor(priceID string) (types.SubscriptionTier, error) {
	cfg, ok := s.Tiers.GetByPriceID(priceID)
	if !ok {
		return "", ierr.NewErrorf("no tier mapped to stripe price %q", priceID).
			WithHint("Subscription price is not in the tier catalog").
			WithReportableDetails(map[string]interface{}{"price_id": priceID}).
			Mark(ierr.ErrInternal)
	}
	return cfg.Name, nil
}

func (s *subscriptionService) revalidate(ctx context.Context, row *subscription.UpdatedRow) {
	cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
		Tag:    cache.TagSubscriptions,
		UserID: row.ClerkUserID,
		ID:     row.ID,
	})
}

func (s *subscriptionService) HandleSubscriptionCreated(ctx context.Context, ev *SubscriptionEvent) error {
	// A verified event missing required fields is a processing fault,
	// not a client error; Stripe retries on the 500.
	if ev.ClerkUserID == "" {
		return ierr.NewError("subscription event has no user id").
			WithHint("Checkout sessions must carry the user id in metadata").
			Mark(ierr.ErrInternal)
	}

	tier, err := s.tierFor(ev.PriceID)
	if err != nil {
		return err
	}
	sub := NewDefaultSubscription(ev.ClerkUserID)
	sub.Tier = tier
	sub.StripeCustomerID = &ev.StripeCustomerID
	sub.StripeSubscriptionID = &ev.StripeSubscriptionID
	sub.StripeSubscriptionItemID = &ev.StripeSubscriptionItemID

	row, err := s.SubscriptionRepo.Create(ctx, sub)
	if err != nil {
		return err
	}
	if row == nil {
		// Row already exists (normal path: created at signup); apply the
		// billing linkage and tier to it instead.
		row, err = s.SubscriptionRepo.UpdateByUserID(ctx, ev.ClerkUserID, &subscription.Update{
			Tier:                     &tier,
			StripeCustomerID:         &ev.StripeCustomerID,
			StripeSubscriptionID:     &ev.StripeSubscriptionID,
			StripeSubscriptionItemID: &ev.StripeSubscriptionItemID,
		})
		if err != nil {
			return err
		}
	}
	if row != nil {
		s.Logger.Infow("subscription activated",
			"user_id", row.ClerkUserID, "tier", tier)
		s.revalidate(ctx, row)
	}
	return nil
}

func (s *subscriptionService) HandleSubscriptionUpdated(ctx context.Context, ev *SubscriptionEvent) error {
	tier, err := s.tierFor(ev.PriceID)
	if err != nil {
		return err
	}

	row, err := s.SubscriptionRepo.UpdateByCustomerID(ctx, ev.StripeCustomerID, &subscription.Update{
		Tier: &tier,
	})
	if err != nil {
		return err
	}
	if row == nil {
		s.Logger.Infow("subscription update for unknown customer, ignoring",
			"customer_id", ev.StripeCustomerID)
		return nil
	}

	s.Logger.Infow("subscription tier updated",
		"user_id", row.ClerkUserID, "tier", tier)
	s.revalidate(ctx, row)
	return nil
}

func (s *subscriptionService) HandleSubscriptionDeleted(ctx context.Context, ev *SubscriptionEvent) error {
	free := types.SubscriptionTierFree

	row, err := s.SubscriptionRepo.UpdateByCustomerID(ctx, ev.StripeCustomerID, &subscription.Update{
		Tier:                    &free,
		ClearStripeCustomerID:   true,
		ClearSubscriptionItemID: true,
	})
	if err != nil {
		return err
	}
	if row == nil {
		s.Logger.Infow("subscription deletion for unknown customer, ignoring",
			"customer_id", ev.StripeCustomerID)
		return nil
	}

	s.Logger.Infow("subscription cancelled, downgraded to free",
		"user_id", row.ClerkUserID)
	s.revalidate(ctx, row)
	return nil
}
