package testutil

import (
	"context"

	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/config"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/stretchr/testify/suite"
)

// Stores bundles the in-memory repositories a service test runs on.
type Stores struct {
	Products      *InMemoryProductStore
	ProductViews  *InMemoryProductViewStore
	Countries     *InMemoryCountryStore
	Subscriptions *InMemorySubscriptionStore
}

// BaseServiceTestSuite wires fresh in-memory infrastructure for each
// test: stores, a tagged cache, a nop logger, and the default tier
// catalog with test price ids.
type BaseServiceTestSuite struct {
	suite.Suite

	ctx    context.Context
	logger *logger.Logger
	cfg    *config.Configuration
	db     *StubDB
	cache  cache.Cache
	stores Stores
	tiers  *types.SubscriptionTiers
}

func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logger = logger.NewNopLogger()
	s.db = NewStubDB()
	s.cache = cache.NewInMemoryCache()

	s.cfg = config.GetDefaultConfig()
	s.cfg.Tiers = config.TiersConfig{
		BasicPriceID:    "price_basic",
		StandardPriceID: "price_standard",
		PremiumPriceID:  "price_premium",
	}
	s.tiers = s.cfg.SubscriptionTiers()

	countries := NewInMemoryCountryStore()
	products := NewInMemoryProductStore(countries)
	s.stores = Stores{
		Products:      products,
		ProductViews:  NewInMemoryProductViewStore(products, countries),
		Countries:     countries,
		Subscriptions: NewInMemorySubscriptionStore(),
	}
}

func (s *BaseServiceTestSuite) GetContext() context.Context        { return s.ctx }
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger          { return s.logger }
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration   { return s.cfg }
func (s *BaseServiceTestSuite) GetDB() *StubDB                     { return s.db }
func (s *BaseServiceTestSuite) GetCache() cache.Cache              { return s.cache }
func (s *BaseServiceTestSuite) GetStores() Stores                  { return s.stores }
func (s *BaseServiceTestSuite) GetTiers() *types.SubscriptionTiers { return s.tiers }
