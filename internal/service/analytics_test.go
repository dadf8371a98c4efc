package service

import (
	"testing"
	"time"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/domain/country"
	"github.com/localedeals/localedeals/internal/domain/product"
	"github.com/localedeals/localedeals/internal/domain/productview"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/testutil"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type AnalyticsServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service AnalyticsService
}

func TestAnalyticsService(t *testing.T) {
	suite.Run(t, new(AnalyticsServiceTestSuite))
}

func (s *AnalyticsServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = NewAnalyticsService(ServiceParams{
		Logger:           s.GetLogger(),
		Config:           s.GetConfig(),
		Cache:            s.GetCache(),
		DB:               s.GetDB(),
		Tiers:            s.GetTiers(),
		StripeClient:     testutil.NewFakeStripeClient(),
		ProductRepo:      stores.Products,
		ProductViewRepo:  stores.ProductViews,
		CountryRepo:      stores.Countries,
		SubscriptionRepo: stores.Subscriptions,
	})

	s.seedReferenceData()
}

func (s *AnalyticsServiceTestSuite) seedReferenceData() {
	countries := s.GetStores().Countries
	countries.AddGroup(&country.CountryGroup{
		ID: "grp_a", Name: "Group A",
		RecommendedDiscountPercentage: decimal.NewFromInt(20),
	})
	countries.AddGroup(&country.CountryGroup{
		ID: "grp_b", Name: "Group B",
		RecommendedDiscountPercentage: decimal.NewFromInt(50),
	})
	countries.AddCountry(&country.Country{ID: "ctry_us", Code: "US", Name: "United States", CountryGroupID: "grp_a"})
	countries.AddCountry(&country.Country{ID: "ctry_in", Code: "IN", Name: "India", CountryGroupID: "grp_b"})
}

// subscribe puts a user on a paid tier so the analytics gate opens.
func (s *AnalyticsServiceTestSuite) subscribe(userID string, tier types.SubscriptionTier) {
	sub := NewDefaultSubscription(userID)
	sub.Tier = tier
	_, err := s.GetStores().Subscriptions.Create(s.GetContext(), sub)
	s.Require().NoError(err)
}

func (s *AnalyticsServiceTestSuite) seedProduct(id, userID string) {
	now := time.Now().UTC()
	err := s.GetStores().Products.Create(s.GetContext(), &product.Product{
		ID: id, ClerkUserID: userID, Name: "Test Product", URL: "https://example.com",
		CreatedAt: now, UpdatedAt: now,
	}, product.DefaultCustomization(id))
	s.Require().NoError(err)
}

func (s *AnalyticsServiceTestSuite) seedView(productID, countryID string, at time.Time) {
	view := &productview.ProductView{
		ID:        types.GenerateULIDWithPrefix(types.IDPrefixProductView),
		ProductID: productID,
		VisitedAt: at,
	}
	if countryID != "" {
		view.CountryID = &countryID
	}
	s.Require().NoError(s.GetStores().ProductViews.Create(s.GetContext(), view))
}

func (s *AnalyticsServiceTestSuite) query(userID string) *dto.ChartQueryRequest {
	return &dto.ChartQueryRequest{Interval: "last7Days", Timezone: "UTC", UserID: userID}
}

func (s *AnalyticsServiceTestSuite) TestViewsByCountrySortedAndScoped() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")
	s.seedProduct("prod_other", "user_2")

	now := time.Now().UTC()
	s.seedView("prod_1", "ctry_us", now)
	s.seedView("prod_1", "ctry_us", now)
	s.seedView("prod_1", "ctry_in", now)
	// Another user's traffic never leaks into the chart.
	s.seedView("prod_other", "ctry_us", now)

	rows, err := s.service.GetViewsByCountry(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("US", rows[0].CountryCode)
	s.Equal("United States", rows[0].CountryName)
	s.Equal(2, rows[0].Views)
	s.Equal("IN", rows[1].CountryCode)
	s.Equal(1, rows[1].Views)
}

func (s *AnalyticsServiceTestSuite) TestViewsByDealGroupZeroFillsEmptyGroups() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")
	s.seedView("prod_1", "ctry_us", time.Now().UTC())

	rows, err := s.service.GetViewsByDealGroup(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Require().Len(rows, 2)
	s.Equal("Group A", rows[0].GroupName)
	s.Equal(1, rows[0].Views)
	s.Equal("Group B", rows[1].GroupName)
	s.Equal(0, rows[1].Views)
}

func (s *AnalyticsServiceTestSuite) TestViewsByDayZeroFillsWindow() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")

	now := time.Now().UTC()
	s.seedView("prod_1", "ctry_us", now)
	s.seedView("prod_1", "", now)
	// Outside the window; must not appear anywhere.
	s.seedView("prod_1", "ctry_us", now.AddDate(0, 0, -10))

	rows, err := s.service.GetViewsByDay(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Require().Len(rows, 8)

	total := 0
	for _, row := range rows {
		total += row.Views
	}
	s.Equal(2, total)
	s.Equal(2, rows[len(rows)-1].Views)
}

func (s *AnalyticsServiceTestSuite) TestMonthlyChartFirstBucketCountsWholeMonth() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")

	// A visit just after the first monthly bucket opens. When the window
	// start falls mid-month this is earlier than day -365, but it still
	// belongs to the first bucket of the chart.
	interval, ok := types.GetChartInterval("last365Days")
	s.Require().True(ok)
	now := time.Now().UTC()
	s.seedView("prod_1", "ctry_us", interval.SeriesStart(now, time.UTC).Add(time.Minute))

	rows, err := s.service.GetViewsByDay(s.GetContext(), &dto.ChartQueryRequest{
		Interval: "last365Days", Timezone: "UTC", UserID: "user_1",
	})
	s.NoError(err)
	s.Require().Len(rows, 13)
	s.Equal(1, rows[0].Views)
}

func (s *AnalyticsServiceTestSuite) TestTotalViewsRespectsWindow() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")

	now := time.Now().UTC()
	s.seedView("prod_1", "ctry_us", now)
	s.seedView("prod_1", "", now.Add(-time.Hour))
	s.seedView("prod_1", "ctry_in", now.AddDate(0, 0, -10))

	response, err := s.service.GetTotalViews(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Equal(2, response.Views)
}

func (s *AnalyticsServiceTestSuite) TestChartsScopedToOneProduct() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")
	s.seedProduct("prod_2", "user_1")

	now := time.Now().UTC()
	s.seedView("prod_1", "ctry_us", now)
	s.seedView("prod_2", "ctry_us", now)
	s.seedView("prod_2", "ctry_in", now)

	req := s.query("user_1")
	productID := "prod_2"
	req.ProductID = &productID

	rows, err := s.service.GetViewsByCountry(s.GetContext(), req)
	s.NoError(err)
	s.Require().Len(rows, 2)
	s.Equal(1, rows[0].Views)
	s.Equal(1, rows[1].Views)
}

func (s *AnalyticsServiceTestSuite) TestAnalyticsDeniedOnFreeTier() {
	s.seedProduct("prod_1", "user_free")

	_, err := s.service.GetViewsByCountry(s.GetContext(), s.query("user_free"))
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))

	_, err = s.service.GetTotalViews(s.GetContext(), s.query("user_free"))
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))
}

func (s *AnalyticsServiceTestSuite) TestUnknownIntervalRejected() {
	s.subscribe("user_1", types.SubscriptionTierBasic)

	_, err := s.service.GetViewsByDay(s.GetContext(), &dto.ChartQueryRequest{
		Interval: "lastCentury", Timezone: "UTC", UserID: "user_1",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *AnalyticsServiceTestSuite) TestCreateProductViewInvalidatesCharts() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")

	// Prime the cached total at zero.
	response, err := s.service.GetTotalViews(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Equal(0, response.Views)

	err = s.service.CreateProductView(s.GetContext(), &dto.CreateProductViewRequest{
		ProductID: "prod_1", CountryCode: "US",
	})
	s.NoError(err)

	response, err = s.service.GetTotalViews(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Equal(1, response.Views)
}

func (s *AnalyticsServiceTestSuite) TestCreateProductViewUnknownCountryStillCounts() {
	s.subscribe("user_1", types.SubscriptionTierBasic)
	s.seedProduct("prod_1", "user_1")

	err := s.service.CreateProductView(s.GetContext(), &dto.CreateProductViewRequest{
		ProductID: "prod_1", CountryCode: "ZZ",
	})
	s.NoError(err)

	// Counts toward totals but has no country dimension.
	total, err := s.service.GetTotalViews(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Equal(1, total.Views)

	rows, err := s.service.GetViewsByCountry(s.GetContext(), s.query("user_1"))
	s.NoError(err)
	s.Empty(rows)
}

func (s *AnalyticsServiceTestSuite) TestCreateProductViewUnknownProduct() {
	err := s.service.CreateProductView(s.GetContext(), &dto.CreateProductViewRequest{
		ProductID: "prod_ghost",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
