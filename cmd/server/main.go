package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	v1 "github.com/localedeals/localedeals/internal/api/v1"
	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/config"
	stripeclient "github.com/localedeals/localedeals/internal/integration/stripe"
	stripewebhook "github.com/localedeals/localedeals/internal/integration/stripe/webhook"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
	repo "github.com/localedeals/localedeals/internal/repository/postgres"
	"github.com/localedeals/localedeals/internal/rest"
	"github.com/localedeals/localedeals/internal/service"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg, err := logger.NewLogger(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Level == "debug",
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	if cfg.Sentry.Enabled {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			TracesSampleRate: cfg.Sentry.SampleRate,
		})
		if err != nil {
			logg.Errorw("failed to initialize sentry", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	db, err := postgres.NewClient(cfg.Postgres, logg)
	if err != nil {
		logg.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	params := service.ServiceParams{
		Logger:       logg,
		Config:       cfg,
		Cache:        cache.NewInMemoryCache(),
		DB:           db,
		Tiers:        cfg.SubscriptionTiers(),
		StripeClient: stripeclient.NewClient(cfg.Stripe.SecretKey, logg),

		ProductRepo:      repo.NewProductRepository(db, logg),
		ProductViewRepo:  repo.NewProductViewRepository(db, logg),
		CountryRepo:      repo.NewCountryRepository(db, logg),
		SubscriptionRepo: repo.NewSubscriptionRepository(db, logg),
	}

	analyticsService := service.NewAnalyticsService(params)
	productService := service.NewProductService(params)
	subscriptionService := service.NewSubscriptionService(params)
	bannerService := service.NewBannerService(params)
	userService := service.NewUserService(params)

	webhookHandler := stripewebhook.NewHandler(cfg.Stripe.WebhookSecret, subscriptionService, logg)

	router := rest.NewRouter(rest.Handlers{
		Analytics:    v1.NewAnalyticsHandler(analyticsService, logg),
		Product:      v1.NewProductHandler(productService, logg),
		Subscription: v1.NewSubscriptionHandler(subscriptionService, logg),
		Banner:       v1.NewBannerHandler(bannerService, analyticsService, logg),
		Webhook:      v1.NewWebhookHandler(webhookHandler, logg),
		User:         v1.NewUserHandler(userService, logg),
	}, cfg, logg)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		logg.Infow("starting server", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logg.Errorw("forced shutdown", "error", err)
	}
}
