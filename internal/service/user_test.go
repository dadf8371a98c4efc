package service

import (
	"testing"

	"github.com/localedeals/localedeals/internal/api/dto"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/testutil"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/stretchr/testify/suite"
)

type UserServiceTestSuite struct {
	testutil.BaseServiceTestSuite
	service       UserService
	products      ProductService
	subscriptions SubscriptionService
}

func TestUserService(t *testing.T) {
	suite.Run(t, new(UserServiceTestSuite))
}

func (s *UserServiceTestSuite) SetupTest() {
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
	s.service = NewUserService(params)
	s.products = NewProductService(params)
	s.subscriptions = NewSubscriptionService(params)
}

func (s *UserServiceTestSuite) TestDeleteUserRemovesEverything() {
	sub := NewDefaultSubscription("user_1")
	sub.Tier = types.SubscriptionTierBasic
	_, err := s.GetStores().Subscriptions.Create(s.GetContext(), sub)
	s.Require().NoError(err)

	created, err := s.products.CreateProduct(s.GetContext(), "user_1", &dto.CreateProductRequest{
		Name: "Widget", URL: "https://example.com",
	})
	s.Require().NoError(err)

	// Prime the caches that must be evicted by the deletion.
	list, err := s.products.ListProducts(s.GetContext(), "user_1")
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	_, err = s.subscriptions.GetSubscription(s.GetContext(), "user_1")
	s.Require().NoError(err)

	s.NoError(s.service.DeleteUser(s.GetContext(), "user_1"))

	list, err = s.products.ListProducts(s.GetContext(), "user_1")
	s.NoError(err)
	s.Empty(list)

	_, err = s.products.GetProduct(s.GetContext(), created.ID, "user_1")
	s.True(ierr.IsNotFound(err))

	_, err = s.GetStores().Subscriptions.GetByUserID(s.GetContext(), "user_1")
	s.True(ierr.IsNotFound(err))

	// The user is back on the free tier.
	tier, err := s.subscriptions.GetUserTier(s.GetContext(), "user_1")
	s.NoError(err)
	s.Equal(types.SubscriptionTierFree, tier.Name)
}

func (s *UserServiceTestSuite) TestDeleteUserWithNoDataIsNoop() {
	s.NoError(s.service.DeleteUser(s.GetContext(), "user_ghost"))
}

func (s *UserServiceTestSuite) TestDeleteUserLeavesOtherUsersAlone() {
	_, err := s.products.CreateProduct(s.GetContext(), "user_1", &dto.CreateProductRequest{
		Name: "Mine", URL: "https://example.com/mine",
	})
	s.Require().NoError(err)
	other, err := s.products.CreateProduct(s.GetContext(), "user_2", &dto.CreateProductRequest{
		Name: "Theirs", URL: "https://example.com/theirs",
	})
	s.Require().NoError(err)

	s.NoError(s.service.DeleteUser(s.GetContext(), "user_1"))

	p, err := s.products.GetProduct(s.GetContext(), other.ID, "user_2")
	s.NoError(err)
	s.Equal("Theirs", p.Name)
}
