package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/service"
)

type BannerHandler struct {
	bannerService    service.BannerService
	analyticsService service.AnalyticsService
	logger           *logger.Logger
}

func NewBannerHandler(
	bannerService service.BannerService,
	analyticsService service.AnalyticsService,
	logger *logger.Logger,
) *BannerHandler {
	return &BannerHandler{
		bannerService:    bannerService,
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// GetBannerScript serves the embeddable banner snippet. Every fetch is
// an impression and is recorded whether or not a banner renders; 204
// means the visitor's country has no discount.
func (h *BannerHandler) GetBannerScript(c *gin.Context) {
	productID := c.Param("id")
	country := c.Query("country")
	if country == "" {
		country = visitorCountry(c)
	}

	script, ok, err := h.bannerService.GetBannerScript(c.Request.Context(), productID, country)
	if err != nil {
		c.Error(err)
		return
	}

	// Impression tracking must never break the embed.
	if trackErr := h.analyticsService.CreateProductView(c.Request.Context(), &dto.CreateProductViewRequest{
		ProductID:   productID,
		CountryCode: country,
	}); trackErr != nil {
		h.logger.Warnw("failed to record banner impression",
			"error", trackErr, "product_id", productID)
	}

	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(script))
}
