package testutil

import (
	"context"
	"sort"
	"sync"

	"github.com/localedeals/localedeals/internal/domain/country"
	ierr "github.com/localedeals/localedeals/internal/errors"
)

// InMemoryCountryStore implements country.Repository over seeded
// reference data.
type InMemoryCountryStore struct {
	mu        sync.RWMutex
	countries map[string]*country.Country      // by ISO code
	groups    map[string]*country.CountryGroup // by id
}

func NewInMemoryCountryStore() *InMemoryCountryStore {
	return &InMemoryCountryStore{
		countries: make(map[string]*country.Country),
		groups:    make(map[string]*country.CountryGroup),
	}
}

func (s *InMemoryCountryStore) AddGroup(g *country.CountryGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[g.ID] = g
}

func (s *InMemoryCountryStore) AddCountry(c *country.Country) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countries[c.Code] = c
}

func (s *InMemoryCountryStore) GetByCode(ctx context.Context, code string) (*country.Country, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.countries[code]
	if !ok {
		return nil, ierr.NewError("country not found").
			WithHint("Country not found").
			WithReportableDetails(map[string]interface{}{"code": code}).
			Mark(ierr.ErrNotFound)
	}
	return c, nil
}

func (s *InMemoryCountryStore) ListGroups(ctx context.Context) ([]*country.CountryGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*country.CountryGroup, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups, nil
}

// getByID resolves a country by id for the view store's aggregations.
func (s *InMemoryCountryStore) getByID(id string) (*country.Country, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.countries {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

func (s *InMemoryCountryStore) getGroup(id string) (*country.CountryGroup, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[id]
	return g, ok
}
