package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/localedeals/localedeals/internal/domain/product"
	ierr "github.com/localedeals/localedeals/internal/errors"
)

// InMemoryProductStore implements product.Repository with the same
// owner-scoping semantics as the SQL repository: mutations against
// unowned products affect nothing and report false.
type InMemoryProductStore struct {
	mu             sync.RWMutex
	products       map[string]*product.Product
	customizations map[string]*product.Customization                  // by product id
	discounts      map[string]map[string]*product.CountryGroupDiscount // product id -> group id

	countries *InMemoryCountryStore
}

func NewInMemoryProductStore(countries *InMemoryCountryStore) *InMemoryProductStore {
	return &InMemoryProductStore{
		products:       make(map[string]*product.Product),
		customizations: make(map[string]*product.Customization),
		discounts:      make(map[string]map[string]*product.CountryGroupDiscount),
		countries:      countries,
	}
}

func productNotFound(id string) error {
	return ierr.NewError("product not found").
		WithHint("Product not found").
		WithReportableDetails(map[string]interface{}{"product_id": id}).
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryProductStore) Create(ctx context.Context, p *product.Product, c *product.Customization) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID]; exists {
		return ierr.NewError("product already exists").
			WithHint("Product already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	s.products[p.ID] = p
	s.customizations[p.ID] = c
	s.discounts[p.ID] = make(map[string]*product.CountryGroupDiscount)
	return nil
}

func (s *InMemoryProductStore) GetByID(ctx context.Context, id, userID string) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok || p.ClerkUserID != userID {
		return nil, productNotFound(id)
	}
	return p, nil
}

func (s *InMemoryProductStore) GetOwner(ctx context.Context, id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return "", productNotFound(id)
	}
	return p.ClerkUserID, nil
}

func (s *InMemoryProductStore) List(ctx context.Context, userID string) ([]*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var products []*product.Product
	for _, p := range s.products {
		if p.ClerkUserID == userID {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (s *InMemoryProductStore) CountByUser(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.products {
		if p.ClerkUserID == userID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryProductStore) Update(ctx context.Context, p *product.Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.products[p.ID]
	if !ok || existing.ClerkUserID != p.ClerkUserID {
		return false, nil
	}
	existing.Name = p.Name
	existing.URL = p.URL
	existing.Description = p.Description
	return true, nil
}

func (s *InMemoryProductStore) Delete(ctx context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok || p.ClerkUserID != userID {
		return false, nil
	}
	delete(s.products, id)
	delete(s.customizations, id)
	delete(s.discounts, id)
	return true, nil
}

func (s *InMemoryProductStore) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, p := range s.products {
		if p.ClerkUserID == userID {
			ids = append(ids, id)
			delete(s.products, id)
			delete(s.customizations, id)
			delete(s.discounts, id)
		}
	}
	return ids, nil
}

func (s *InMemoryProductStore) GetCustomization(ctx context.Context, productID, userID string) (*product.Customization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok || p.ClerkUserID != userID {
		return nil, productNotFound(productID)
	}
	return s.customizations[productID], nil
}

func (s *InMemoryProductStore) UpdateCustomization(ctx context.Context, productID, userID string, update *product.CustomizationUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || p.ClerkUserID != userID {
		return false, nil
	}
	c := s.customizations[productID]
	c.LocationMessage = update.LocationMessage
	c.BackgroundColor = update.BackgroundColor
	c.TextColor = update.TextColor
	c.FontSize = update.FontSize
	c.BannerContainer = update.BannerContainer
	c.IsSticky = update.IsSticky
	c.ClassPrefix = update.ClassPrefix
	return true, nil
}

func (s *InMemoryProductStore) GetGroupsWithDiscounts(ctx context.Context, productID, userID string) ([]*product.GroupWithDiscount, error) {
	groups, err := s.countries.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, owned := s.products[productID]
	owned = owned && p.ClerkUserID == userID

	var result []*product.GroupWithDiscount
	for _, g := range groups {
		item := &product.GroupWithDiscount{Group: g}
		if owned {
			if d, ok := s.discounts[productID][g.ID]; ok {
				item.Discount = d
			}
		}
		result = append(result, item)
	}
	return result, nil
}

func (s *InMemoryProductStore) ReplaceCountryGroupDiscounts(ctx context.Context, productID, userID string, deleteGroupIDs []string, upserts []*product.CountryGroupDiscount) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok || p.ClerkUserID != userID {
		return false, nil
	}

	for _, groupID := range deleteGroupIDs {
		delete(s.discounts[productID], groupID)
	}
	for _, d := range upserts {
		s.discounts[productID][d.CountryGroupID] = d
	}
	return true, nil
}

func (s *InMemoryProductStore) GetBannerData(ctx context.Context, productID, countryCode string) (*product.BannerData, error) {
	c, err := s.countries.GetByCode(ctx, countryCode)
	if err != nil {
		return nil, ierr.NewError("banner data not found").
			WithHint("Product or country not found").
			Mark(ierr.ErrNotFound)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, productNotFound(productID)
	}

	data := &product.BannerData{
		Product:       p,
		Customization: s.customizations[productID],
		CountryName:   c.Name,
	}
	if d, ok := s.discounts[productID][c.CountryGroupID]; ok {
		data.Discount = d
	}
	return data, nil
}
