package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/integration/stripe/webhook"
	"github.com/localedeals/localedeals/internal/logger"
)

type WebhookHandler struct {
	webhook *webhook.Handler
	logger  *logger.Logger
}

func NewWebhookHandler(webhook *webhook.Handler, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{webhook: webhook, logger: logger}
}

// HandleStripeWebhook receives Stripe events. 2xx acknowledges the
// event; anything else makes Stripe retry with backoff.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Failed to read webhook payload").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if err := h.webhook.Process(c.Request.Context(), payload, signature); err != nil {
		h.logger.Errorw("webhook processing failed", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
