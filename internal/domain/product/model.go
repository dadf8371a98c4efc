package product

import (
	"time"

	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/shopspring/decimal"
)

// Product is the root for all analytics scoping: every dashboard query
// filters by the owning user through the product.
type Product struct {
	ID          string    `json:"id"`
	ClerkUserID string    `json:"clerk_user_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks the fields a create/update must carry.
func (p *Product) Validate() error {
	if p.ClerkUserID == "" {
		return ierr.NewError("clerk_user_id is required").
			WithHint("Product must belong to a user").
			Mark(ierr.ErrValidation)
	}
	if p.Name == "" {
		return ierr.NewError("name is required").
			WithHint("Product name is required").
			Mark(ierr.ErrValidation)
	}
	if p.URL == "" {
		return ierr.NewError("url is required").
			WithHint("Product URL is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Customization holds the per-product banner theme. One row per product,
// created alongside it with defaults.
type Customization struct {
	ID              string  `json:"id"`
	ProductID       string  `json:"product_id"`
	LocationMessage string  `json:"location_message"`
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
	FontSize        string  `json:"font_size"`
	BannerContainer string  `json:"banner_container"`
	IsSticky        bool    `json:"is_sticky"`
	ClassPrefix     *string `json:"class_prefix,omitempty"`
}

// DefaultCustomization returns the banner theme a new product starts with.
func DefaultCustomization(productID string) *Customization {
	return &Customization{
		ProductID:       productID,
		LocationMessage: "Hey! It looks like you are from <b>{country}</b>. We support Parity Purchasing Power, so if you need it, use code <b>“{coupon}”</b> to get <b>{discount}%</b> off.",
		BackgroundColor: "hsl(193, 82%, 31%)",
		TextColor:       "hsl(0, 0%, 100%)",
		FontSize:        "1rem",
		BannerContainer: "body",
		IsSticky:        true,
	}
}

// CountryGroupDiscount assigns a coupon and discount to one country group
// for one product. Rows are replaced wholesale by the discounts update.
type CountryGroupDiscount struct {
	ProductID          string          `json:"product_id"`
	CountryGroupID     string          `json:"country_group_id"`
	Coupon             string          `json:"coupon"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// BannerData is everything the public banner endpoint needs for one
// (product, country) pair.
type BannerData struct {
	Product       *Product              `json:"product"`
	Customization *Customization        `json:"customization"`
	Discount      *CountryGroupDiscount `json:"discount,omitempty"`
	CountryName   string                `json:"country_name"`
}
