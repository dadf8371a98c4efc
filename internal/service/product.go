package service

import (
	"context"
	"time"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/domain/product"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
	"github.com/shopspring/decimal"
)

// ProductService manages products, their banner themes, and their
// country group discount assignments. All operations are scoped to the
// owning user; a mutation against a product the user does not own
// reports not found.
type ProductService interface {
	CreateProduct(ctx context.Context, userID string, req *dto.CreateProductRequest) (*dto.CreateProductResponse, error)
	GetProduct(ctx context.Context, id, userID string) (*product.Product, error)
	ListProducts(ctx context.Context, userID string) ([]*product.Product, error)
	UpdateProduct(ctx context.Context, id, userID string, req *dto.UpdateProductRequest) error
	DeleteProduct(ctx context.Context, id, userID string) error

	GetCustomization(ctx context.Context, productID, userID string) (*product.Customization, error)
	UpdateCustomization(ctx context.Context, productID, userID string, req *dto.UpdateCustomizationRequest) error

	GetCountryDiscounts(ctx context.Context, productID, userID string) ([]*product.GroupWithDiscount, error)
	UpdateCountryDiscounts(ctx context.Context, productID, userID string, req *dto.UpdateCountryDiscountsRequest) error
}

type productArgs struct {
	ProductID string `json:"product_id"`
	UserID    string `json:"user_id"`
}

type productListArgs struct {
	UserID string `json:"user_id"`
}

type productService struct {
	ServiceParams

	subscriptions SubscriptionService

	getByID       *cache.Memoized[productArgs, *product.Product]
	list          *cache.Memoized[productListArgs, []*product.Product]
	customization *cache.Memoized[productArgs, *product.Customization]
	discounts     *cache.Memoized[productArgs, []*product.GroupWithDiscount]
}

func NewProductService(params ServiceParams) ProductService {
	s := &productService{
		ServiceParams: params,
		subscriptions: NewSubscriptionService(params),
	}

	productTags := func(args productArgs) []string {
		return []string{
			cache.UserTag(cache.TagProducts, args.UserID),
			cache.IDTag(cache.TagProducts, args.ProductID),
		}
	}

	s.getByID = cache.Memoize(params.Cache, "product.getByID",
		func(ctx context.Context, args productArgs) (*product.Product, error) {
			return params.ProductRepo.GetByID(ctx, args.ProductID, args.UserID)
		}, productTags)

	s.list = cache.Memoize(params.Cache, "product.list",
		func(ctx context.Context, args productListArgs) ([]*product.Product, error) {
			return params.ProductRepo.List(ctx, args.UserID)
		},
		func(args productListArgs) []string {
			return []string{cache.UserTag(cache.TagProducts, args.UserID)}
		})

	s.customization = cache.Memoize(params.Cache, "product.customization",
		func(ctx context.Context, args productArgs) (*product.Customization, error) {
			return params.ProductRepo.GetCustomization(ctx, args.ProductID, args.UserID)
		}, productTags)

	s.discounts = cache.Memoize(params.Cache, "product.countryDiscounts",
		func(ctx context.Context, args productArgs) ([]*product.GroupWithDiscount, error) {
			return params.ProductRepo.GetGroupsWithDiscounts(ctx, args.ProductID, args.UserID)
		},
		func(args productArgs) []string {
			return append(productTags(args), cache.GlobalTag(cache.TagCountryGroups))
		})

	return s
}

func (s *productService) revalidate(ctx context.Context, userID, productID string) {
	cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
		Tag:    cache.TagProducts,
		UserID: userID,
		ID:     productID,
	})
}

func (s *productService) CreateProduct(ctx context.Context, userID string, req *dto.CreateProductRequest) (*dto.CreateProductResponse, error) {
	tier, err := s.subscriptions.GetUserTier(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.ProductRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if count >= tier.MaxProducts {
		return nil, ierr.NewErrorf("product limit of %d reached", tier.MaxProducts).
			WithHint("Upgrade your plan to add more products").
			Mark(ierr.ErrPermissionDenied)
	}

	now := time.Now().UTC()
	p := &product.Product{
		ID:          types.GenerateULIDWithPrefix(types.IDPrefixProduct),
		ClerkUserID: userID,
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	c := product.DefaultCustomization(p.ID)
	c.ID = types.GenerateULIDWithPrefix(types.IDPrefixCustomization)

	if err := s.ProductRepo.Create(ctx, p, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("product created", "product_id", p.ID, "user_id", userID)
	s.revalidate(ctx, userID, p.ID)

	return &dto.CreateProductResponse{
		ActionResponse: dto.ActionResponse{Message: "Product created"},
		ID:             p.ID,
	}, nil
}

func (s *productService) GetProduct(ctx context.Context, id, userID string) (*product.Product, error) {
	return s.getByID.Call(ctx, productArgs{ProductID: id, UserID: userID})
}

func (s *productService) ListProducts(ctx context.Context, userID string) ([]*product.Product, error) {
	return s.list.Call(ctx, productListArgs{UserID: userID})
}

func (s *productService) UpdateProduct(ctx context.Context, id, userID string, req *dto.UpdateProductRequest) error {
	p := &product.Product{
		ID:          id,
		ClerkUserID: userID,
		Name:        req.Name,
		URL:         req.URL,
		Description: req.Description,
	}
	if err := p.Validate(); err != nil {
		return err
	}

	updated, err := s.ProductRepo.Update(ctx, p)
	if err != nil {
		return err
	}
	if !updated {
		return ierr.NewError("product not found").
			WithHint("Product not found").
			Mark(ierr.ErrNotFound)
	}

	s.revalidate(ctx, userID, id)
	return nil
}

func (s *productService) DeleteProduct(ctx context.Context, id, userID string) error {
	deleted, err := s.ProductRepo.Delete(ctx, id, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ierr.NewError("product not found").
			WithHint("Product not found").
			Mark(ierr.ErrNotFound)
	}

	s.Logger.Infow("product deleted", "product_id", id, "user_id", userID)
	s.revalidate(ctx, userID, id)
	// Views cascade with the product.
	cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
		Tag:    cache.TagProductViews,
		UserID: userID,
	})
	return nil
}

func (s *productService) GetCustomization(ctx context.Context, productID, userID string) (*product.Customization, error) {
	return s.customization.Call(ctx, productArgs{ProductID: productID, UserID: userID})
}

func (s *productService) UpdateCustomization(ctx context.Context, productID, userID string, req *dto.UpdateCustomizationRequest) error {
	tier, err := s.subscriptions.GetUserTier(ctx, userID)
	if err != nil {
		return err
	}
	if !tier.CanCustomizeBanner {
		return ierr.NewError("banner customization not available on this tier").
			WithHint("Upgrade your plan to customize the banner").
			Mark(ierr.ErrPermissionDenied)
	}

	updated, err := s.ProductRepo.UpdateCustomization(ctx, productID, userID, &product.CustomizationUpdate{
		LocationMessage: req.LocationMessage,
		BackgroundColor: req.BackgroundColor,
		TextColor:       req.TextColor,
		FontSize:        req.FontSize,
		BannerContainer: req.BannerContainer,
		IsSticky:        req.IsSticky,
		ClassPrefix:     req.ClassPrefix,
	})
	if err != nil {
		return err
	}
	if !updated {
		return ierr.NewError("product not found").
			WithHint("Product not found").
			Mark(ierr.ErrNotFound)
	}

	s.revalidate(ctx, userID, productID)
	return nil
}

func (s *productService) GetCountryDiscounts(ctx context.Context, productID, userID string) ([]*product.GroupWithDiscount, error) {
	return s.discounts.Call(ctx, productArgs{ProductID: productID, UserID: userID})
}

var maxDiscount = decimal.NewFromInt(100)

func (s *productService) UpdateCountryDiscounts(ctx context.Context, productID, userID string, req *dto.UpdateCountryDiscountsRequest) error {
	// A row with no coupon or no positive discount clears the group's
	// assignment; everything else is upserted.
	var deletes []string
	var upserts []*product.CountryGroupDiscount
	for _, g := range req.Groups {
		if g.CountryGroupID == "" {
			return ierr.NewError("country_group_id is required").
				WithHint("Each row must reference a country group").
				Mark(ierr.ErrValidation)
		}
		if g.Coupon == "" || !g.DiscountPercentage.IsPositive() {
			deletes = append(deletes, g.CountryGroupID)
			continue
		}
		if g.DiscountPercentage.GreaterThan(maxDiscount) {
			return ierr.NewErrorf("discount %s%% exceeds 100%%", g.DiscountPercentage).
				WithHint("Discount must be between 0 and 100").
				Mark(ierr.ErrValidation)
		}
		upserts = append(upserts, &product.CountryGroupDiscount{
			ProductID:          productID,
			CountryGroupID:     g.CountryGroupID,
			Coupon:             g.Coupon,
			DiscountPercentage: g.DiscountPercentage,
		})
	}

	owned, err := s.ProductRepo.ReplaceCountryGroupDiscounts(ctx, productID, userID, deletes, upserts)
	if err != nil {
		return err
	}
	if !owned {
		return ierr.NewError("product not found").
			WithHint("Product not found").
			Mark(ierr.ErrNotFound)
	}

	s.revalidate(ctx, userID, productID)
	return nil
}
