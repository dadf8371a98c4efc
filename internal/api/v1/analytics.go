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

type AnalyticsHandler struct {
	analyticsService service.AnalyticsService
	logger           *logger.Logger
}

func NewAnalyticsHandler(
	analyticsService service.AnalyticsService,
	logger *logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (h *AnalyticsHandler) bindChartQuery(c *gin.Context) (*dto.ChartQueryRequest, bool) {
	var req dto.ChartQueryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid query parameters").
			Mark(ierr.ErrValidation))
		return nil, false
	}
	req.UserID = types.GetUserID(c.Request.Context())
	return &req, true
}

func (h *AnalyticsHandler) GetViewsByCountry(c *gin.Context) {
	req, ok := h.bindChartQuery(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.GetViewsByCountry(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to get views by country", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AnalyticsHandler) GetViewsByDealGroup(c *gin.Context) {
	req, ok := h.bindChartQuery(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.GetViewsByDealGroup(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to get views by deal group", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AnalyticsHandler) GetViewsByDay(c *gin.Context) {
	req, ok := h.bindChartQuery(c)
	if !ok {
		return
	}

	rows, err := h.analyticsService.GetViewsByDay(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to get views by day", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *AnalyticsHandler) GetTotalViews(c *gin.Context) {
	req, ok := h.bindChartQuery(c)
	if !ok {
		return
	}

	response, err := h.analyticsService.GetTotalViews(c.Request.Context(), req)
	if err != nil {
		h.logger.Errorw("failed to get total views", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

// TrackView records one banner impression. Public endpoint; the country
// falls back to the CDN geolocation header when the body omits it.
func (h *AnalyticsHandler) TrackView(c *gin.Context) {
	var req dto.CreateProductViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request body").
			Mark(ierr.ErrValidation))
		return
	}
	if req.CountryCode == "" {
		req.CountryCode = visitorCountry(c)
	}

	if err := h.analyticsService.CreateProductView(c.Request.Context(), &req); err != nil {
		h.logger.Errorw("failed to record product view", "error", err, "product_id", req.ProductID)
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// visitorCountry reads the edge-provided geolocation headers.
func visitorCountry(c *gin.Context) string {
	if country := c.GetHeader("CF-IPCountry"); country != "" {
		return country
	}
	return c.GetHeader("X-Vercel-IP-Country")
}
