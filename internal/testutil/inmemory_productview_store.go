package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/localedeals/localedeals/internal/domain/productview"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// InMemoryProductViewStore implements productview.Repository. The
// aggregations bucket through types.ChartInterval.BucketKey, the same
// function the series generator uses, so tests exercise the exact
// alignment contract the SQL repository implements with date_trunc.
type InMemoryProductViewStore struct {
	mu    sync.RWMutex
	views []*productview.ProductView

	products  *InMemoryProductStore
	countries *InMemoryCountryStore
}

func NewInMemoryProductViewStore(products *InMemoryProductStore, countries *InMemoryCountryStore) *InMemoryProductViewStore {
	return &InMemoryProductViewStore{products: products, countries: countries}
}

func (s *InMemoryProductViewStore) Create(ctx context.Context, view *productview.ProductView) error {
	if err := view.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.views = append(s.views, view)
	return nil
}

func (s *InMemoryProductViewStore) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, v := range s.views {
		owner, err := s.products.GetOwner(ctx, v.ProductID)
		if err != nil || owner != userID {
			continue
		}
		if !v.VisitedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// scoped returns the views matching the aggregation scope, visited at or
// after start.
func (s *InMemoryProductViewStore) scoped(ctx context.Context, scope productview.AggregateScope, start time.Time) []*productview.ProductView {
	var matched []*productview.ProductView
	for _, v := range s.views {
		owner, err := s.products.GetOwner(ctx, v.ProductID)
		if err != nil || owner != scope.UserID {
			continue
		}
		if scope.ProductID != nil && v.ProductID != *scope.ProductID {
			continue
		}
		if v.VisitedAt.Before(start) {
			continue
		}
		matched = append(matched, v)
	}
	return matched
}

func (s *InMemoryProductViewStore) loadLocation(scope productview.AggregateScope) (*time.Location, error) {
	loc, err := types.LoadTimezone(scope.Timezone)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid timezone").
			Mark(ierr.ErrValidation)
	}
	return loc, nil
}

func (s *InMemoryProductViewStore) ViewsByCountry(ctx context.Context, scope productview.AggregateScope) ([]*productview.ViewsByCountryRow, error) {
	loc, err := s.loadLocation(scope)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	byCode := map[string]*productview.ViewsByCountryRow{}
	for _, v := range s.scoped(ctx, scope, scope.Interval.StartDate(scope.Now, loc)) {
		if v.CountryID == nil {
			continue
		}
		c, ok := s.countries.getByID(*v.CountryID)
		if !ok {
			continue
		}
		row, ok := byCode[c.Code]
		if !ok {
			row = &productview.ViewsByCountryRow{CountryCode: c.Code, CountryName: c.Name}
			byCode[c.Code] = row
		}
		row.Views++
	}

	result := []*productview.ViewsByCountryRow{}
	for _, row := range byCode {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Views > result[j].Views })
	if len(result) > 25 {
		result = result[:25]
	}
	return result, nil
}

func (s *InMemoryProductViewStore) ViewsByDealGroup(ctx context.Context, scope productview.AggregateScope) ([]*productview.ViewsByDealGroupRow, error) {
	loc, err := s.loadLocation(scope)
	if err != nil {
		return nil, err
	}

	groups, err := s.countries.ListGroups(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]int{}
	for _, v := range s.scoped(ctx, scope, scope.Interval.StartDate(scope.Now, loc)) {
		if v.CountryID == nil {
			continue
		}
		c, ok := s.countries.getByID(*v.CountryID)
		if !ok {
			continue
		}
		counts[c.CountryGroupID]++
	}

	result := []*productview.ViewsByDealGroupRow{}
	for _, g := range groups {
		result = append(result, &productview.ViewsByDealGroupRow{
			GroupName: g.Name,
			Views:     counts[g.ID],
		})
	}
	return result, nil
}

func (s *InMemoryProductViewStore) CountsByBucket(ctx context.Context, scope productview.AggregateScope) ([]*productview.BucketCount, error) {
	loc, err := s.loadLocation(scope)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Filter from the first series bucket so a monthly chart's first
	// bucket counts its whole month, matching the SQL aggregation.
	counts := map[time.Time]int{}
	for _, v := range s.scoped(ctx, scope, scope.Interval.SeriesStart(scope.Now, loc)) {
		counts[scope.Interval.BucketKey(v.VisitedAt, loc)]++
	}

	result := []*productview.BucketCount{}
	for bucket, views := range counts {
		result = append(result, &productview.BucketCount{Bucket: bucket, Views: views})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Bucket.Before(result[j].Bucket) })
	return result, nil
}
