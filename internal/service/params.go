package service

import (
	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/config"
	"github.com/localedeals/localedeals/internal/domain/country"
	"github.com/localedeals/localedeals/internal/domain/product"
	"github.com/localedeals/localedeals/internal/domain/productview"
	"github.com/localedeals/localedeals/internal/domain/subscription"
	"github.com/localedeals/localedeals/internal/integration/stripe"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
	"github.com/localedeals/localedeals/internal/types"
)

// ServiceParams bundles the dependencies every service draws from.
// Services embed it and pass it on when composing other services.
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	Cache  cache.Cache
	DB     postgres.IClient
	Tiers  *types.SubscriptionTiers

	StripeClient stripe.Client

	ProductRepo      product.Repository
	ProductViewRepo  productview.Repository
	CountryRepo      country.Repository
	SubscriptionRepo subscription.Repository
}
