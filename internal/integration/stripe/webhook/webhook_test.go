package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"testing"
	"time"

	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/service"
	"github.com/localedeals/localedeals/internal/testutil"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/samber/lo"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stretchr/testify/suite"
)

const testSecret = "whsec_test_secret"

type WebhookHandlerTestSuite struct {
	testutil.BaseServiceTestSuite
	handler *Handler
}

func TestWebhookHandler(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	subscriptions := service.NewSubscriptionService(service.ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		Cache:            s.GetCache(),
		DB:               s.GetDB(),
		Tiers:            s.GetTiers(),
		StripeClient:     testutil.NewFakeStripeClient(),
		ProductRepo:      stores.Products,
		ProductViewRepo:  stores.ProductViews,
		CountryRepo:      stores.Countries,
		SubscriptionRepo: stores.Subscriptions,
	})
	s.handler = NewHandler(testSecret, subscriptions, s.GetLogger())
}

// sign produces a Stripe-Signature header for the payload, HMAC-SHA256
// over "<timestamp>.<payload>".
func sign(payload []byte, secret string, at time.Time) string {
	signed := fmt.Sprintf("%d.%s", at.Unix(), payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEventPayload(eventType, userID, priceID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {
			"object": {
				"id": "sub_123",
				"object": "subscription",
				"customer": "cus_123",
				"metadata": {"clerk_user_id": %q},
				"items": {
					"object": "list",
					"data": [
						{
							"id": "si_123",
							"object": "subscription_item",
							"price": {"id": %q, "object": "price"}
						}
					]
				}
			}
		}
	}`, stripe.APIVersion, eventType, userID, priceID))
}

func (s *WebhookHandlerTestSuite) TestRejectsBadSignature() {
	payload := subscriptionEventPayload("customer.subscription.created", "user_1", "price_basic")

	err := s.handler.Process(s.GetContext(), payload, "t=123,v1=deadbeef")
	s.Error(err)
	s.True(ierr.IsValidation(err))
	s.Equal(http.StatusBadRequest, ierr.HTTPStatus(err))

	// Nothing was reconciled.
	_, err = s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.True(ierr.IsNotFound(err))
}

func (s *WebhookHandlerTestSuite) TestRejectsStaleTimestamp() {
	payload := subscriptionEventPayload("customer.subscription.created", "user_1", "price_basic")
	signature := sign(payload, testSecret, time.Now().Add(-time.Hour))

	err := s.handler.Process(s.GetContext(), payload, signature)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *WebhookHandlerTestSuite) TestCreatedEventActivatesSubscription() {
	payload := subscriptionEventPayload("customer.subscription.created", "user_1", "price_standard")
	signature := sign(payload, testSecret, time.Now())

	s.NoError(s.handler.Process(s.GetContext(), payload, signature))

	sub, err := s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionTierStandard, sub.Tier)
	s.Equal("cus_123", lo.FromPtr(sub.StripeCustomerID))
	s.Equal("sub_123", lo.FromPtr(sub.StripeSubscriptionID))
	s.Equal("si_123", lo.FromPtr(sub.StripeSubscriptionItemID))
}

func (s *WebhookHandlerTestSuite) TestUpdatedEventChangesTier() {
	created := subscriptionEventPayload("customer.subscription.created", "user_1", "price_basic")
	s.Require().NoError(s.handler.Process(s.GetContext(), created, sign(created, testSecret, time.Now())))

	updated := subscriptionEventPayload("customer.subscription.updated", "user_1", "price_premium")
	s.NoError(s.handler.Process(s.GetContext(), updated, sign(updated, testSecret, time.Now())))

	sub, err := s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionTierPremium, sub.Tier)
}

func (s *WebhookHandlerTestSuite) TestDeletedEventDowngrades() {
	created := subscriptionEventPayload("customer.subscription.created", "user_1", "price_premium")
	s.Require().NoError(s.handler.Process(s.GetContext(), created, sign(created, testSecret, time.Now())))

	deleted := subscriptionEventPayload("customer.subscription.deleted", "user_1", "price_premium")
	s.NoError(s.handler.Process(s.GetContext(), deleted, sign(deleted, testSecret, time.Now())))

	sub, err := s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.Require().NoError(err)
	s.Equal(types.SubscriptionTierFree, sub.Tier)
	s.Nil(sub.StripeCustomerID)
}

func (s *WebhookHandlerTestSuite) TestUnknownPriceFailsSoStripeRetries() {
	payload := subscriptionEventPayload("customer.subscription.created", "user_1", "price_unmapped")
	signature := sign(payload, testSecret, time.Now())

	err := s.handler.Process(s.GetContext(), payload, signature)
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrInternal))
	s.Equal(http.StatusInternalServerError, ierr.HTTPStatus(err))

	_, err = s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.True(ierr.IsNotFound(err))
}

func (s *WebhookHandlerTestSuite) TestIgnoresUnrelatedEvents() {
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"api_version": %q,
		"type": "invoice.paid",
		"data": {"object": {"id": "in_123", "object": "invoice"}}
	}`, stripe.APIVersion))

	s.NoError(s.handler.Process(s.GetContext(), payload, sign(payload, testSecret, time.Now())))
}
