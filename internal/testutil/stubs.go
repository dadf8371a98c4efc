package testutil

import (
	"context"
	"sync"

	"github.com/localedeals/localedeals/internal/integration/stripe"
	"github.com/localedeals/localedeals/internal/postgres"
	"github.com/localedeals/localedeals/internal/types"
)

// StubDB satisfies postgres.IClient for service tests that run against
// the in-memory stores. Transactions degrade to plain function calls;
// Querier must never be reached because the stores bypass SQL.
type StubDB struct{}

func NewStubDB() *StubDB { return &StubDB{} }

func (s *StubDB) Querier(ctx context.Context) postgres.Querier {
	panic("testutil: StubDB has no querier; use the in-memory stores")
}

func (s *StubDB) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// FakeStripeClient records billing calls and returns canned session
// URLs.
type FakeStripeClient struct {
	mu sync.Mutex

	CreatedCustomers []string // user ids
	CheckoutCalls    []string // price ids
	PortalCalls      []string // customer ids

	CustomerID  string
	CheckoutURL string
	PortalURL   string
	Err         error
}

func NewFakeStripeClient() *FakeStripeClient {
	return &FakeStripeClient{
		CustomerID:  "cus_" + types.GenerateULID(),
		CheckoutURL: "https://checkout.stripe.test/session",
		PortalURL:   "https://billing.stripe.test/portal",
	}
}

func (f *FakeStripeClient) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.CreatedCustomers = append(f.CreatedCustomers, userID)
	return f.CustomerID, nil
}

func (f *FakeStripeClient) CreateCheckoutSession(ctx context.Context, params stripe.CheckoutParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.CheckoutCalls = append(f.CheckoutCalls, params.PriceID)
	return f.CheckoutURL, nil
}

func (f *FakeStripeClient) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return "", f.Err
	}
	f.PortalCalls = append(f.PortalCalls, customerID)
	return f.PortalURL, nil
}
