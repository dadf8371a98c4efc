package country

import (
	"github.com/shopspring/decimal"
)

// Country is shared reference data mapping an ISO code to its deal group.
// Not user-owned.
type Country struct {
	ID             string `json:"id"`
	Code           string `json:"code"`
	Name           string `json:"name"`
	CountryGroupID string `json:"country_group_id"`
}

// CountryGroup clusters countries into a pricing tier with a recommended
// discount.
type CountryGroup struct {
	ID                            string          `json:"id"`
	Name                          string          `json:"name"`
	RecommendedDiscountPercentage decimal.Decimal `json:"recommended_discount_percentage"`
}
