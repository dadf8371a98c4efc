package service

import (
	"testing"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/domain/country"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/testutil"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ProductServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service ProductService
}

func TestProductService(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	s.service = NewProductService(ServiceParams{
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

	s.GetStores().Countries.AddGroup(&country.CountryGroup{
		ID: "grp_a", Name: "Group A",
		RecommendedDiscountPercentage: decimal.NewFromInt(20),
	})
	s.GetStores().Countries.AddGroup(&country.CountryGroup{
		ID: "grp_b", Name: "Group B",
		RecommendedDiscountPercentage: decimal.NewFromInt(50),
	})
}

func (s *ProductServiceTestSuite) subscribe(userID string, tier types.SubscriptionTier) {
	sub := NewDefaultSubscription(userID)
	sub.Tier = tier
	_, err := s.GetStores().Subscriptions.Create(s.GetContext(), sub)
	s.Require().NoError(err)
}

func (s *ProductServiceTestSuite) createProduct(userID, name string) string {
	response, err := s.service.CreateProduct(s.GetContext(), userID, &dto.CreateProductRequest{
		Name: name,
		URL:  "https://example.com",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(response.ID)
	return response.ID
}

func (s *ProductServiceTestSuite) TestCreateProductFreeTierLimit() {
	s.createProduct("user_free", "First")

	_, err := s.service.CreateProduct(s.GetContext(), "user_free", &dto.CreateProductRequest{
		Name: "Second",
		URL:  "https://example.com/2",
	})
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))
}

func (s *ProductServiceTestSuite) TestCreateProductPaidTierRaisesLimit() {
	s.subscribe("user_1", types.SubscriptionTierBasic)

	s.createProduct("user_1", "First")
	s.createProduct("user_1", "Second")

	products, err := s.service.ListProducts(s.GetContext(), "user_1")
	s.NoError(err)
	s.Len(products, 2)
}

func (s *ProductServiceTestSuite) TestCreateProductSeedsDefaultCustomization() {
	id := s.createProduct("user_1", "Widget")

	c, err := s.service.GetCustomization(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Contains(c.LocationMessage, "{country}")
	s.Contains(c.LocationMessage, "{coupon}")
	s.True(c.IsSticky)
	s.Equal("body", c.BannerContainer)
}

func (s *ProductServiceTestSuite) TestCreateProductValidation() {
	_, err := s.service.CreateProduct(s.GetContext(), "user_1", &dto.CreateProductRequest{
		Name: "", URL: "https://example.com",
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ProductServiceTestSuite) TestListInvalidatedOnCreate() {
	s.subscribe("user_1", types.SubscriptionTierBasic)

	products, err := s.service.ListProducts(s.GetContext(), "user_1")
	s.NoError(err)
	s.Empty(products)

	id := s.createProduct("user_1", "Widget")

	products, err = s.service.ListProducts(s.GetContext(), "user_1")
	s.NoError(err)
	s.Require().Len(products, 1)
	s.Equal(id, products[0].ID)
}

func (s *ProductServiceTestSuite) TestUpdateProduct() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateProduct(s.GetContext(), id, "user_1", &dto.UpdateProductRequest{
		Name:        "Widget Pro",
		URL:         "https://example.com/pro",
		Description: lo.ToPtr("now with more widget"),
	})
	s.NoError(err)

	p, err := s.service.GetProduct(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Equal("Widget Pro", p.Name)
	s.Equal("now with more widget", lo.FromPtr(p.Description))
}

func (s *ProductServiceTestSuite) TestUpdateUnownedProductReportsNotFound() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateProduct(s.GetContext(), id, "user_2", &dto.UpdateProductRequest{
		Name: "Hijacked",
		URL:  "https://evil.example.com",
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	// The owner's copy is untouched.
	p, err := s.service.GetProduct(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Equal("Widget", p.Name)
}

func (s *ProductServiceTestSuite) TestDeleteProduct() {
	id := s.createProduct("user_1", "Widget")

	s.NoError(s.service.DeleteProduct(s.GetContext(), id, "user_1"))

	_, err := s.service.GetProduct(s.GetContext(), id, "user_1")
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	// Deleting again reports not found.
	err = s.service.DeleteProduct(s.GetContext(), id, "user_1")
	s.True(ierr.IsNotFound(err))
}

func (s *ProductServiceTestSuite) TestUpdateCustomizationRequiresTier() {
	id := s.createProduct("user_free", "Widget")

	err := s.service.UpdateCustomization(s.GetContext(), id, "user_free", &dto.UpdateCustomizationRequest{
		LocationMessage: "Hello {country}",
		BackgroundColor: "#000",
		TextColor:       "#fff",
		FontSize:        "1rem",
		BannerContainer: "body",
	})
	s.Error(err)
	s.True(ierr.Is(err, ierr.ErrPermissionDenied))
}

func (s *ProductServiceTestSuite) TestUpdateCustomization() {
	s.subscribe("user_1", types.SubscriptionTierStandard)
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateCustomization(s.GetContext(), id, "user_1", &dto.UpdateCustomizationRequest{
		LocationMessage: "Hello {country}, take {discount}% off with {coupon}",
		BackgroundColor: "#112233",
		TextColor:       "#ffffff",
		FontSize:        "14px",
		BannerContainer: "#header",
		IsSticky:        false,
		ClassPrefix:     lo.ToPtr("promo"),
	})
	s.NoError(err)

	c, err := s.service.GetCustomization(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Equal("#112233", c.BackgroundColor)
	s.Equal("#header", c.BannerContainer)
	s.False(c.IsSticky)
	s.Equal("promo", lo.FromPtr(c.ClassPrefix))
}

func (s *ProductServiceTestSuite) TestUpdateCountryDiscounts() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateCountryDiscounts(s.GetContext(), id, "user_1", &dto.UpdateCountryDiscountsRequest{
		Groups: []dto.CountryGroupDiscountInput{
			{CountryGroupID: "grp_a", Coupon: "SAVE20", DiscountPercentage: decimal.NewFromInt(20)},
			{CountryGroupID: "grp_b", Coupon: "SAVE50", DiscountPercentage: decimal.NewFromInt(50)},
		},
	})
	s.NoError(err)

	groups, err := s.service.GetCountryDiscounts(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Require().Len(groups, 2)
	s.Require().NotNil(groups[0].Discount)
	s.Equal("SAVE20", groups[0].Discount.Coupon)
	s.Require().NotNil(groups[1].Discount)
	s.Equal("SAVE50", groups[1].Discount.Coupon)
}

func (s *ProductServiceTestSuite) TestEmptyCouponClearsAssignment() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateCountryDiscounts(s.GetContext(), id, "user_1", &dto.UpdateCountryDiscountsRequest{
		Groups: []dto.CountryGroupDiscountInput{
			{CountryGroupID: "grp_a", Coupon: "SAVE20", DiscountPercentage: decimal.NewFromInt(20)},
		},
	})
	s.NoError(err)

	err = s.service.UpdateCountryDiscounts(s.GetContext(), id, "user_1", &dto.UpdateCountryDiscountsRequest{
		Groups: []dto.CountryGroupDiscountInput{
			{CountryGroupID: "grp_a", Coupon: "", DiscountPercentage: decimal.NewFromInt(20)},
		},
	})
	s.NoError(err)

	groups, err := s.service.GetCountryDiscounts(s.GetContext(), id, "user_1")
	s.NoError(err)
	s.Require().Len(groups, 2)
	s.Nil(groups[0].Discount)
}

func (s *ProductServiceTestSuite) TestDiscountOverHundredRejected() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateCountryDiscounts(s.GetContext(), id, "user_1", &dto.UpdateCountryDiscountsRequest{
		Groups: []dto.CountryGroupDiscountInput{
			{CountryGroupID: "grp_a", Coupon: "FREE", DiscountPercentage: decimal.NewFromInt(101)},
		},
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *ProductServiceTestSuite) TestDiscountsOnUnownedProductReportNotFound() {
	id := s.createProduct("user_1", "Widget")

	err := s.service.UpdateCountryDiscounts(s.GetContext(), id, "user_2", &dto.UpdateCountryDiscountsRequest{
		Groups: []dto.CountryGroupDiscountInput{
			{CountryGroupID: "grp_a", Coupon: "SAVE20", DiscountPercentage: decimal.NewFromInt(20)},
		},
	})
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
