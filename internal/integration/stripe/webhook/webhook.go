// Package webhook verifies and dispatches Stripe webhook events to the
// subscription reconciler.
package webhook

import (
	"context"
	"encoding/json"

	ierr "github.com/localedeals/localedeals/internal/errors"
	integration "github.com/localedeals/localedeals/internal/integration/stripe"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/service"
	stripe "github.com/stripe/stripe-go/v82"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// Handler verifies incoming Stripe payloads and routes subscription
// lifecycle events. Every other event type is acknowledged and ignored.
type Handler struct {
	secret        string
	subscriptions service.SubscriptionService
	logger        *logger.Logger
}

func NewHandler(secret string, subscriptions service.SubscriptionService, logger *logger.Logger) *Handler {
	return &Handler{secret: secret, subscriptions: subscriptions, logger: logger}
}

// Process verifies the signature and dispatches the event. Signature
// failures reject the payload before anything is parsed.
func (h *Handler) Process(ctx context.Context, payload []byte, signature string) error {
	event, err := stripewebhook.ConstructEvent(payload, signature, h.secret)
	if err != nil {
		h.logger.Warnw("webhook signature verification failed", "error", err)
		return ierr.WithError(err).
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrValidation)
	}

	switch event.Type {
	case "customer.subscription.created":
		ev, err := h.parseSubscription(event)
		if err != nil {
			return err
		}
		return h.subscriptions.HandleSubscriptionCreated(ctx, ev)
	case "customer.subscription.updated":
		ev, err := h.parseSubscription(event)
		if err != nil {
			return err
		}
		return h.subscriptions.HandleSubscriptionUpdated(ctx, ev)
	case "customer.subscription.deleted":
		ev, err := h.parseSubscription(event)
		if err != nil {
			return err
		}
		return h.subscriptions.HandleSubscriptionDeleted(ctx, ev)
	default:
		h.logger.Debugw("ignoring webhook event", "type", event.Type)
		return nil
	}
}

// parseSubscription extracts the reconciler's event shape from the raw
// payload. A verified event that fails to parse is a processing fault,
// not a client error; Stripe should retry it.
func (h *Handler) parseSubscription(event stripe.Event) (*service.SubscriptionEvent, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Malformed webhook payload").
			WithReportableDetails(map[string]interface{}{"event_type": string(event.Type)}).
			Mark(ierr.ErrInternal)
	}

	ev := &service.SubscriptionEvent{
		ClerkUserID:          sub.Metadata[integration.MetadataUserIDKey],
		StripeSubscriptionID: sub.ID,
	}
	if sub.Customer != nil {
		ev.StripeCustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		ev.StripeSubscriptionItemID = item.ID
		if item.Price != nil {
			ev.PriceID = item.Price.ID
		}
	}
	return ev, nil
}
