package config

import (
	"strings"

	"github.com/joho/godotenv"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/spf13/viper"
)

// Configuration is the full application configuration, loaded once at
// startup from config files and environment variables.
type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment"`
	Server     ServerConfig     `mapstructure:"server"`
	Postgres   PostgresConfig   `mapstructure:"postgres"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Stripe     StripeConfig     `mapstructure:"stripe"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tiers      TiersConfig      `mapstructure:"tiers"`
}

type DeploymentConfig struct {
	Mode      string `mapstructure:"mode"`
	ServerURL string `mapstructure:"server_url"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// TiersConfig carries the stripe price id assigned to each paid tier in
// this environment. The rest of the tier catalog is static.
type TiersConfig struct {
	BasicPriceID    string `mapstructure:"basic_price_id"`
	StandardPriceID string `mapstructure:"standard_price_id"`
	PremiumPriceID  string `mapstructure:"premium_price_id"`
}

// NewConfig loads configuration from ./config files and LOCALEDEALS_*
// environment variables. A missing config file is fine; env vars alone can
// carry a full configuration.
func NewConfig() (*Configuration, error) {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("localedeals")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, ierr.WithError(err).
				WithHint("Failed to read configuration file").
				Mark(ierr.ErrValidation)
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to parse configuration").
			Mark(ierr.ErrValidation)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", "api")
	v.SetDefault("deployment.server_url", "http://localhost:8080")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "localedeals")
	v.SetDefault("postgres.dbname", "localedeals")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open", 10)
	v.SetDefault("postgres.max_idle", 5)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("sentry.sample_rate", 0.1)
	v.SetDefault("logging.level", "info")
}

// Validate checks the parts of the configuration that would otherwise fail
// at first use.
func (c *Configuration) Validate() error {
	if c.Server.Address == "" {
		return ierr.NewError("server address is required").
			WithHint("Set server.address or LOCALEDEALS_SERVER_ADDRESS").
			Mark(ierr.ErrValidation)
	}
	if c.Postgres.Host == "" || c.Postgres.DBName == "" {
		return ierr.NewError("postgres host and dbname are required").
			WithHint("Set the postgres connection settings").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// SubscriptionTiers builds the tier catalog with the configured price ids
// applied.
func (c *Configuration) SubscriptionTiers() *types.SubscriptionTiers {
	configs := types.DefaultTierConfigs()
	for i := range configs {
		switch configs[i].Name {
		case types.SubscriptionTierBasic:
			configs[i].StripePriceID = c.Tiers.BasicPriceID
		case types.SubscriptionTierStandard:
			configs[i].StripePriceID = c.Tiers.StandardPriceID
		case types.SubscriptionTierPremium:
			configs[i].StripePriceID = c.Tiers.PremiumPriceID
		}
	}
	return types.NewSubscriptionTiers(configs)
}

// GetDefaultConfig returns a minimal configuration for scripts and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: "test", ServerURL: "http://localhost:8080"},
		Server:     ServerConfig{Address: ":8080"},
		Postgres:   PostgresConfig{Host: "localhost", Port: 5432, DBName: "localedeals", SSLMode: "disable"},
		Cache:      CacheConfig{Enabled: true},
		Logging:    LoggingConfig{Level: "debug"},
	}
}
