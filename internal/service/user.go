package service

import (
	"context"

	"github.com/localedeals/localedeals/internal/cache"
)

// UserService handles account-level operations that span domains.
type UserService interface {
	// DeleteUser removes everything a user owns: products (views and
	// discounts cascade) and the subscription record, atomically.
	DeleteUser(ctx context.Context, userID string) error
}

type userService struct {
	ServiceParams
}

func NewUserService(params ServiceParams) UserService {
	return &userService{ServiceParams: params}
}

func (s *userService) DeleteUser(ctx context.Context, userID string) error {
	var productIDs, subscriptionIDs []string

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		productIDs, err = s.ProductRepo.DeleteByUser(ctx, userID)
		if err != nil {
			return err
		}
		subscriptionIDs, err = s.SubscriptionRepo.DeleteByUser(ctx, userID)
		return err
	})
	if err != nil {
		return err
	}

	// Invalidate only after the transaction commits; evicting earlier
	// would let a concurrent read re-cache the doomed rows.
	for _, id := range productIDs {
		cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
			Tag: cache.TagProducts, UserID: userID, ID: id,
		})
	}
	for _, id := range subscriptionIDs {
		cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
			Tag: cache.TagSubscriptions, UserID: userID, ID: id,
		})
	}
	cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
		Tag: cache.TagProductViews, UserID: userID,
	})
	if len(productIDs) == 0 {
		cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
			Tag: cache.TagProducts, UserID: userID,
		})
	}
	if len(subscriptionIDs) == 0 {
		cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
			Tag: cache.TagSubscriptions, UserID: userID,
		})
	}

	s.Logger.Infow("user data deleted",
		"user_id", userID,
		"products", len(productIDs),
		"subscriptions", len(subscriptionIDs))
	return nil
}
