package productview

import (
	"time"

	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// ProductView is the immutable fact recorded once per page visit.
// visited_at is stored UTC; all bucketing happens in the viewer's
// timezone at query time.
type ProductView struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	CountryID *string   `json:"country_id,omitempty"`
	VisitedAt time.Time `json:"visited_at"`
}

func (v *ProductView) Validate() error {
	if v.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("A view must reference a product").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// AggregateScope bounds an aggregation query: one owning user, optionally
// one product, a resolved viewer timezone, and a lookback interval.
type AggregateScope struct {
	UserID    string
	ProductID *string
	Timezone  string // resolved IANA name
	Interval  types.ChartInterval
	Now       time.Time
}

// ViewsByCountryRow is one country's view count within the scope.
type ViewsByCountryRow struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	Views       int    `json:"views"`
}

// ViewsByDealGroupRow is one deal group's view count; groups with no
// views still appear with zero.
type ViewsByDealGroupRow struct {
	GroupName string `json:"group_name"`
	Views     int    `json:"views"`
}

// BucketCount is an aggregated view count for one calendar bucket. Buckets
// are the normalized keys produced by ChartInterval.BucketKey.
type BucketCount struct {
	Bucket time.Time `json:"bucket"`
	Views  int       `json:"views"`
}
