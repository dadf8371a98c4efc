package product

import (
	"context"

	"github.com/localedeals/localedeals/internal/domain/country"
)

// CustomizationUpdate carries the banner theme fields a user may change.
type CustomizationUpdate struct {
	LocationMessage string  `json:"location_message"`
	BackgroundColor string  `json:"background_color"`
	TextColor       string  `json:"text_color"`
	FontSize        string  `json:"font_size"`
	BannerContainer string  `json:"banner_container"`
	IsSticky        bool    `json:"is_sticky"`
	ClassPrefix     *string `json:"class_prefix,omitempty"`
}

// GroupWithDiscount pairs a country group with the product's current
// discount assignment for it, if any.
type GroupWithDiscount struct {
	Group    *country.CountryGroup `json:"group"`
	Discount *CountryGroupDiscount `json:"discount,omitempty"`
}

// Repository defines persistence for products and their banner settings.
//
// Mutations scoped by (id, userID) report whether a row was affected; an
// update targeting a product the user does not own affects zero rows and
// returns false rather than an error.
type Repository interface {
	// Create inserts the product and its default customization together.
	Create(ctx context.Context, p *Product, c *Customization) error

	// GetByID returns the product if owned by userID.
	GetByID(ctx context.Context, id, userID string) (*Product, error)

	// GetOwner returns the owning user id. Unscoped: the public view
	// ingestion path resolves the owner for cache invalidation.
	GetOwner(ctx context.Context, id string) (string, error)

	// List returns all products owned by userID, newest first.
	List(ctx context.Context, userID string) ([]*Product, error)

	// CountByUser returns how many products userID owns.
	CountByUser(ctx context.Context, userID string) (int, error)

	// Update applies name/url/description changes scoped by owner.
	Update(ctx context.Context, p *Product) (bool, error)

	// Delete removes the product scoped by owner. Views and discounts
	// cascade at the storage layer.
	Delete(ctx context.Context, id, userID string) (bool, error)

	// DeleteByUser removes all of a user's products, returning the
	// deleted ids for cache invalidation.
	DeleteByUser(ctx context.Context, userID string) ([]string, error)

	// GetCustomization returns the banner theme, owner-scoped.
	GetCustomization(ctx context.Context, productID, userID string) (*Customization, error)

	// UpdateCustomization applies theme changes, owner-scoped.
	UpdateCustomization(ctx context.Context, productID, userID string, update *CustomizationUpdate) (bool, error)

	// GetGroupsWithDiscounts returns every country group with the
	// product's current discount, owner-scoped.
	GetGroupsWithDiscounts(ctx context.Context, productID, userID string) ([]*GroupWithDiscount, error)

	// ReplaceCountryGroupDiscounts deletes and upserts group discount
	// assignments in one transaction, owner-scoped.
	ReplaceCountryGroupDiscounts(ctx context.Context, productID, userID string, deleteGroupIDs []string, upserts []*CountryGroupDiscount) (bool, error)

	// GetBannerData loads the product, theme, owner, and the discount for
	// the visitor's country. Unscoped: the banner endpoint is public.
	GetBannerData(ctx context.Context, productID, countryCode string) (*BannerData, error)
}
