package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localedeals/localedeals/internal/api/dto"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/service"
	"github.com/localedeals/localedeals/internal/types"
)

type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	logger              *logger.Logger
}

func NewSubscriptionHandler(
	subscriptionService service.SubscriptionService,
	logger *logger.Logger,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		logger:              logger,
	}
}

func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	userID := types.GetUserID(c.Request.Context())
	response, err := h.subscriptionService.GetSubscription(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *SubscriptionHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserID = types.GetUserID(c.Request.Context())
	req.UserEmail = c.GetHeader(types.HeaderUserEmail)

	response, err := h.subscriptionService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to create checkout session", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *SubscriptionHandler) CreatePortalSession(c *gin.Context) {
	var req dto.CreatePortalSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	req.UserID = types.GetUserID(c.Request.Context())

	response, err := h.subscriptionService.CreatePortalSession(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to create portal session", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}
