// Package stripe wraps the Stripe API surface the billing flows need:
// customer creation, hosted checkout, and the billing portal. Webhook
// verification lives in the webhook subpackage.
package stripe

import (
	"context"

	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	stripe "github.com/stripe/stripe-go/v82"
	billingportalsession "github.com/stripe/stripe-go/v82/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
)

// MetadataUserIDKey carries the clerk user id through Stripe objects so
// webhook events can be mapped back to a user.
const MetadataUserIDKey = "clerk_user_id"

// CheckoutParams describes one subscription checkout.
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	UserID     string
	SuccessURL string
	CancelURL  string
}

// Client defines the Stripe operations used by the subscription service.
type Client interface {
	// CreateCustomer creates a Stripe customer tagged with the user id
	// and returns its id.
	CreateCustomer(ctx context.Context, email, userID string) (string, error)

	// CreateCheckoutSession starts a hosted subscription checkout and
	// returns the redirect URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// CreatePortalSession opens the hosted billing portal for a customer
	// and returns the redirect URL.
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

type client struct {
	logger *logger.Logger
}

// NewClient configures the Stripe SDK with the secret key and returns
// the client.
func NewClient(secretKey string, logger *logger.Logger) Client {
	stripe.Key = secretKey
	return &client{logger: logger}
}

func (c *client) CreateCustomer(ctx context.Context, email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			MetadataUserIDKey: userID,
		},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		c.logger.Errorw("failed to create stripe customer", "error", err, "user_id", userID)
		return "", ierr.WithError(err).
			WithHint("Failed to create billing customer").
			Mark(ierr.ErrInternal)
	}
	return cust.ID, nil
}

func (c *client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(p.CustomerID),
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				MetadataUserIDKey: p.UserID,
			},
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		c.logger.Errorw("failed to create checkout session", "error", err, "user_id", p.UserID)
		return "", ierr.WithError(err).
			WithHint("Failed to start checkout").
			Mark(ierr.ErrInternal)
	}
	return sess.URL, nil
}

func (c *client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := billingportalsession.New(params)
	if err != nil {
		c.logger.Errorw("failed to create portal session", "error", err, "customer_id", customerID)
		return "", ierr.WithError(err).
			WithHint("Failed to open the billing portal").
			Mark(ierr.ErrInternal)
	}
	return sess.URL, nil
}
