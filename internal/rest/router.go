// Package rest assembles the HTTP surface: middleware chain, route
// groups, and their handlers.
package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	v1 "github.com/localedeals/localedeals/internal/api/v1"
	"github.com/localedeals/localedeals/internal/config"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/rest/middleware"
)

// Handlers carries every route handler the router mounts.
type Handlers struct {
	Analytics    *v1.AnalyticsHandler
	Product      *v1.ProductHandler
	Subscription *v1.SubscriptionHandler
	Banner       *v1.BannerHandler
	Webhook      *v1.WebhookHandler
	User         *v1.UserHandler
}

// NewRouter builds the gin engine with three route classes: public
// embed endpoints (rate limited), the webhook endpoint (signature
// verified, no session), and authenticated dashboard endpoints.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandlerMiddleware,
		middleware.UserContextMiddleware,
		middleware.SentryUserContextMiddleware,
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Public embed surface: unauthenticated traffic from every site
	// carrying the banner, so it gets its own rate limit bucket.
	publicLimiter := middleware.NewRateLimiter(20, 40)
	public := router.Group("/v1", publicLimiter.Middleware)
	{
		public.GET("/banner/:id/script.js", handlers.Banner.GetBannerScript)
		public.POST("/track", handlers.Analytics.TrackView)
	}

	router.POST("/v1/webhooks/stripe", handlers.Webhook.HandleStripeWebhook)

	private := router.Group("/v1", middleware.RequireAuthMiddleware)
	{
		private.POST("/products", handlers.Product.CreateProduct)
		private.GET("/products", handlers.Product.ListProducts)
		private.GET("/products/:id", handlers.Product.GetProduct)
		private.PUT("/products/:id", handlers.Product.UpdateProduct)
		private.DELETE("/products/:id", handlers.Product.DeleteProduct)
		private.GET("/products/:id/customization", handlers.Product.GetCustomization)
		private.PUT("/products/:id/customization", handlers.Product.UpdateCustomization)
		private.GET("/products/:id/country-discounts", handlers.Product.GetCountryDiscounts)
		private.PUT("/products/:id/country-discounts", handlers.Product.UpdateCountryDiscounts)

		private.GET("/analytics/views-by-country", handlers.Analytics.GetViewsByCountry)
		private.GET("/analytics/views-by-deal-group", handlers.Analytics.GetViewsByDealGroup)
		private.GET("/analytics/views-by-day", handlers.Analytics.GetViewsByDay)
		private.GET("/analytics/total-views", handlers.Analytics.GetTotalViews)

		private.GET("/subscription", handlers.Subscription.GetSubscription)
		private.POST("/subscription/checkout", handlers.Subscription.CreateCheckoutSession)
		private.POST("/subscription/portal", handlers.Subscription.CreatePortalSession)

		private.DELETE("/users/me", handlers.User.DeleteMe)
	}

	return router
}
