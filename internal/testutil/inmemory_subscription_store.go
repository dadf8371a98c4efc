package testutil

import (
	"context"
	"sync"

	"github.com/localedeals/localedeals/internal/domain/subscription"
	ierr "github.com/localedeals/localedeals/internal/errors"
)

// InMemorySubscriptionStore implements subscription.Repository with the
// SQL repository's conflict semantics: Create is insert-or-ignore on
// the user key, updates against unknown targets return nil rows.
type InMemorySubscriptionStore struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription.Subscription // by clerk user id
}

func NewInMemorySubscriptionStore() *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		subscriptions: make(map[string]*subscription.Subscription),
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) (*subscription.UpdatedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[sub.ClerkUserID]; exists {
		return nil, nil
	}
	s.subscriptions[sub.ClerkUserID] = sub
	return &subscription.UpdatedRow{ID: sub.ID, ClerkUserID: sub.ClerkUserID}, nil
}

func (s *InMemorySubscriptionStore) GetByUserID(ctx context.Context, userID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[userID]
	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHint("User has no subscription").
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func applyUpdate(sub *subscription.Subscription, update *subscription.Update) {
	if update.Tier != nil {
		sub.Tier = *update.Tier
	}
	if update.ClearStripeCustomerID {
		sub.StripeCustomerID = nil
	} else if update.StripeCustomerID != nil {
		sub.StripeCustomerID = update.StripeCustomerID
	}
	if update.StripeSubscriptionID != nil {
		sub.StripeSubscriptionID = update.StripeSubscriptionID
	}
	if update.ClearSubscriptionItemID {
		sub.StripeSubscriptionItemID = nil
	} else if update.StripeSubscriptionItemID != nil {
		sub.StripeSubscriptionItemID = update.StripeSubscriptionItemID
	}
}

func (s *InMemorySubscriptionStore) UpdateByUserID(ctx context.Context, userID string, update *subscription.Update) (*subscription.UpdatedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[userID]
	if !ok {
		return nil, nil
	}
	applyUpdate(sub, update)
	return &subscription.UpdatedRow{ID: sub.ID, ClerkUserID: sub.ClerkUserID}, nil
}

func (s *InMemorySubscriptionStore) UpdateByCustomerID(ctx context.Context, customerID string, update *subscription.Update) (*subscription.UpdatedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sub := range s.subscriptions {
		if sub.StripeCustomerID != nil && *sub.StripeCustomerID == customerID {
			applyUpdate(sub, update)
			return &subscription.UpdatedRow{ID: sub.ID, ClerkUserID: sub.ClerkUserID}, nil
		}
	}
	return nil, nil
}

func (s *InMemorySubscriptionStore) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[userID]
	if !ok {
		return nil, nil
	}
	delete(s.subscriptions, userID)
	return []string{sub.ID}, nil
}
