package dto

import (
	"github.com/localedeals/localedeals/internal/domain/product"
	"github.com/shopspring/decimal"
)

// ActionResponse is the user-facing result of a mutating dashboard
// action. Message is always display-safe.
type ActionResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// CreateProductRequest carries the product details form.
type CreateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	URL         string  `json:"url" validate:"required,url"`
	Description *string `json:"description,omitempty"`
}

// UpdateProductRequest mirrors CreateProductRequest for edits.
type UpdateProductRequest struct {
	Name        string  `json:"name" validate:"required"`
	URL         string  `json:"url" validate:"required,url"`
	Description *string `json:"description,omitempty"`
}

// CountryGroupDiscountInput is one row of the discounts form. An empty
// coupon or zero discount removes the assignment for that group.
type CountryGroupDiscountInput struct {
	CountryGroupID     string          `json:"country_group_id" validate:"required"`
	Coupon             string          `json:"coupon"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
}

// UpdateCountryDiscountsRequest replaces a product's group discounts.
type UpdateCountryDiscountsRequest struct {
	Groups []CountryGroupDiscountInput `json:"groups" validate:"required,dive"`
}

// UpdateCustomizationRequest carries the banner theme form.
type UpdateCustomizationRequest struct {
	LocationMessage string  `json:"location_message" validate:"required"`
	BackgroundColor string  `json:"background_color" validate:"required"`
	TextColor       string  `json:"text_color" validate:"required"`
	FontSize        string  `json:"font_size" validate:"required"`
	BannerContainer string  `json:"banner_container" validate:"required"`
	IsSticky        bool    `json:"is_sticky"`
	ClassPrefix     *string `json:"class_prefix,omitempty"`
}

// ProductResponse is the wire shape of a product.
type ProductResponse struct {
	*product.Product
}

// CreateProductResponse returns the new product id alongside the action
// result so the dashboard can redirect to the edit page.
type CreateProductResponse struct {
	ActionResponse
	ID string `json:"id,omitempty"`
}
