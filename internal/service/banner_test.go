package service

import (
	"testing"
	"time"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/domain/country"
	"github.com/localedeals/localedeals/internal/domain/product"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/testutil"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BannerServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service  BannerService
	products ProductService
}

func TestBannerService(t *testing.T) {
	suite.Run(t, new(BannerServiceTestSuite))
}

func (s *BannerServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	params := ServiceParams{
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
	}
	s.service = NewBannerService(params)
	s.products = NewProductService(params)

	stores.Countries.AddGroup(&country.CountryGroup{
		ID: "grp_a", Name: "Group A",
		RecommendedDiscountPercentage: decimal.NewFromInt(40),
	})
	stores.Countries.AddCountry(&country.Country{
		ID: "ctry_br", Code: "BR", Name: "Brazil", CountryGroupID: "grp_a",
	})
}

func (s *BannerServiceTestSuite) seedProduct(userID string) string {
	now := time.Now().UTC()
	id := types.GenerateULIDWithPrefix(types.IDPrefixProduct)
	err := s.GetStores().Products.Create(s.GetContext(), &product.Product{
		ID: id, ClerkUserID: userID, Name: "Widget", URL: "https://example.com",
		CreatedAt: now, UpdatedAt: now,
	}, product.DefaultCustomization(id))
	s.Require().NoError(err)
	return id
}

func (s *BannerServiceTestSuite) seedDiscount(productID, userID, coupon string, pct int64) {
	owned, err := s.GetStores().Products.ReplaceCountryGroupDiscounts(
		s.GetContext(), productID, userID, nil,
		[]*product.CountryGroupDiscount{{
			ProductID:          productID,
			CountryGroupID:     "grp_a",
			Coupon:             coupon,
			DiscountPercentage: decimal.NewFromInt(pct),
		}})
	s.Require().NoError(err)
	s.Require().True(owned)
}

func (s *BannerServiceTestSuite) TestScriptSubstitutesPlaceholders() {
	id := s.seedProduct("user_1")
	s.seedDiscount(id, "user_1", "BRAZIL40", 40)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "br")
	s.NoError(err)
	s.Require().True(ok)

	s.Contains(script, "Brazil")
	s.Contains(script, "BRAZIL40")
	s.Contains(script, "40")
	s.NotContains(script, "{country}")
	s.NotContains(script, "{coupon}")
	s.NotContains(script, "{discount}")
}

func (s *BannerServiceTestSuite) TestMessageQuotesAreEntityEscaped() {
	id := s.seedProduct("user_1")
	s.seedDiscount(id, "user_1", "SAVE", 10)

	update := &product.CustomizationUpdate{
		LocationMessage: "You're from {country}! Use '{coupon}'",
		BackgroundColor: "#000",
		TextColor:       "#fff",
		FontSize:        "1rem",
		BannerContainer: "body",
	}
	_, err := s.GetStores().Products.UpdateCustomization(s.GetContext(), id, "user_1", update)
	s.Require().NoError(err)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Require().True(ok)
	s.Contains(script, "You&#39;re from Brazil")
	s.Contains(script, "&#39;SAVE&#39;")
}

func (s *BannerServiceTestSuite) TestNoDiscountNoBanner() {
	id := s.seedProduct("user_1")

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.False(ok)
	s.Empty(script)
}

func (s *BannerServiceTestSuite) TestUnknownCountryReportsNotFound() {
	id := s.seedProduct("user_1")

	_, _, err := s.service.GetBannerScript(s.GetContext(), id, "ZZ")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *BannerServiceTestSuite) TestBrandingShownOnFreeTier() {
	id := s.seedProduct("user_free")
	s.seedDiscount(id, "user_free", "SAVE", 10)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Require().True(ok)
	s.Contains(script, "Powered by LocaleDeals")
}

func (s *BannerServiceTestSuite) TestBrandingRemovedOnPremium() {
	id := s.seedProduct("user_1")
	s.seedDiscount(id, "user_1", "SAVE", 10)

	sub := NewDefaultSubscription("user_1")
	sub.Tier = types.SubscriptionTierPremium
	_, err := s.GetStores().Subscriptions.Create(s.GetContext(), sub)
	s.Require().NoError(err)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Require().True(ok)
	s.NotContains(script, "Powered by LocaleDeals")
}

func (s *BannerServiceTestSuite) TestClassPrefixAndPosition() {
	id := s.seedProduct("user_1")
	s.seedDiscount(id, "user_1", "SAVE", 10)

	update := &product.CustomizationUpdate{
		LocationMessage: "Use {coupon}",
		BackgroundColor: "#000",
		TextColor:       "#fff",
		FontSize:        "1rem",
		BannerContainer: "#top",
		IsSticky:        false,
		ClassPrefix:     lo.ToPtr("promo"),
	}
	_, err := s.GetStores().Products.UpdateCustomization(s.GetContext(), id, "user_1", update)
	s.Require().NoError(err)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Require().True(ok)
	s.Contains(script, "promo-container")
	s.Contains(script, "position:static")
	s.Contains(script, "#top")
	s.NotContains(script, "deals-banner")
}

func (s *BannerServiceTestSuite) TestCustomizationUpdateInvalidatesCachedScript() {
	sub := NewDefaultSubscription("user_1")
	sub.Tier = types.SubscriptionTierStandard
	_, err := s.GetStores().Subscriptions.Create(s.GetContext(), sub)
	s.Require().NoError(err)

	id := s.seedProduct("user_1")
	s.seedDiscount(id, "user_1", "SAVE", 10)

	script, ok, err := s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Require().True(ok)
	s.Contains(script, "hsl(193, 82%, 31%)")

	// Updating through the product service evicts the memoized banner
	// data via the product id tag.
	err = s.products.UpdateCustomization(s.GetContext(), id, "user_1", &dto.UpdateCustomizationRequest{
		LocationMessage: "Use {coupon}",
		BackgroundColor: "#123456",
		TextColor:       "#fff",
		FontSize:        "1rem",
		BannerContainer: "body",
		IsSticky:        true,
	})
	s.Require().NoError(err)

	script, _, err = s.service.GetBannerScript(s.GetContext(), id, "BR")
	s.NoError(err)
	s.Contains(script, "#123456")
}
