package dto

import (
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// ChartQueryRequest is the shared query shape of the three dashboard
// charts. UserID comes from the session, never from the request.
type ChartQueryRequest struct {
	ProductID *string `form:"product_id" json:"product_id,omitempty"`
	Timezone  string  `form:"timezone" json:"timezone"`
	Interval  string  `form:"interval" json:"interval"`

	UserID string `form:"-" json:"-"`
}

// Validate resolves the interval and checks the timezone up front.
func (r *ChartQueryRequest) Validate() (types.ChartInterval, error) {
	interval, ok := types.GetChartInterval(r.Interval)
	if !ok {
		return types.ChartInterval{}, ierr.NewErrorf("unknown interval %q", r.Interval).
			WithHint("Interval must be one of last7Days, last30Days, last365Days").
			Mark(ierr.ErrValidation)
	}
	if err := types.ValidateTimezone(r.Timezone); err != nil {
		return types.ChartInterval{}, ierr.WithError(err).
			WithHint("Invalid timezone").
			WithReportableDetails(map[string]interface{}{"timezone": r.Timezone}).
			Mark(ierr.ErrValidation)
	}
	return interval, nil
}

// ViewsByDayRow is one zero-filled chart bucket with its display label.
type ViewsByDayRow struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// TotalViewsResponse reports the view count for the interval.
type TotalViewsResponse struct {
	Views int `json:"views"`
}

// CreateProductViewRequest records one banner impression.
type CreateProductViewRequest struct {
	ProductID   string `json:"product_id" validate:"required"`
	CountryCode string `json:"country_code,omitempty"`

	UserID string `json:"-"`
}
