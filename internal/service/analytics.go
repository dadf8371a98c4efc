package service

import (
	"context"
	"time"

	"github.com/localedeals/localedeals/internal/api/dto"
	"github.com/localedeals/localedeals/internal/cache"
	"github.com/localedeals/localedeals/internal/domain/productview"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/types"
)

// AnalyticsService serves the dashboard charts and ingests banner view
// facts. Chart reads are memoized per (user, product, timezone,
// interval, civil day); view writes invalidate them by tag.
type AnalyticsService interface {
	GetViewsByCountry(ctx context.Context, req *dto.ChartQueryRequest) ([]*productview.ViewsByCountryRow, error)
	GetViewsByDealGroup(ctx context.Context, req *dto.ChartQueryRequest) ([]*productview.ViewsByDealGroupRow, error)
	GetViewsByDay(ctx context.Context, req *dto.ChartQueryRequest) ([]*dto.ViewsByDayRow, error)
	GetTotalViews(ctx context.Context, req *dto.ChartQueryRequest) (*dto.TotalViewsResponse, error)

	// CreateProductView records one banner impression. Public path: no
	// session, the owner is resolved from the product.
	CreateProductView(ctx context.Context, req *dto.CreateProductViewRequest) error
}

// chartArgs is the memoization key for chart queries. Day is the
// current civil day in the viewer's timezone; including it rolls every
// "today"-relative window over at local midnight without explicit
// time-based eviction.
type chartArgs struct {
	UserID    string                 `json:"user_id"`
	ProductID *string                `json:"product_id,omitempty"`
	Timezone  string                 `json:"timezone"`
	Interval  types.ChartIntervalKey `json:"interval"`
	Day       string                 `json:"day"`
}

type analyticsService struct {
	ServiceParams

	subscriptions SubscriptionService

	viewsByCountry *cache.Memoized[chartArgs, []*productview.ViewsByCountryRow]
	viewsByDeals   *cache.Memoized[chartArgs, []*productview.ViewsByDealGroupRow]
	viewsByDay     *cache.Memoized[chartArgs, []*dto.ViewsByDayRow]
	totalViews     *cache.Memoized[chartArgs, int]
}

func NewAnalyticsService(params ServiceParams) AnalyticsService {
	s := &analyticsService{
		ServiceParams: params,
		subscriptions: NewSubscriptionService(params),
	}

	// Each chart is tagged with exactly the entity scopes its rows are
	// derived from, so any write to those scopes evicts it.
	s.viewsByCountry = cache.Memoize(params.Cache, "analytics.viewsByCountry",
		s.fetchViewsByCountry,
		func(args chartArgs) []string {
			return append(viewTags(args), cache.GlobalTag(cache.TagCountries))
		},
	)
	s.viewsByDeals = cache.Memoize(params.Cache, "analytics.viewsByDealGroup",
		s.fetchViewsByDealGroup,
		func(args chartArgs) []string {
			return append(viewTags(args),
				cache.GlobalTag(cache.TagCountries),
				cache.GlobalTag(cache.TagCountryGroups))
		},
	)
	s.viewsByDay = cache.Memoize(params.Cache, "analytics.viewsByDay",
		s.fetchViewsByDay, viewTags,
	)
	s.totalViews = cache.Memoize(params.Cache, "analytics.totalViews",
		s.fetchTotalViews,
		func(args chartArgs) []string {
			return []string{cache.UserTag(cache.TagProductViews, args.UserID)}
		},
	)
	return s
}

// viewTags is the shared tag set of product-scoped charts: the user's
// view facts plus the product scope the chart is filtered to.
func viewTags(args chartArgs) []string {
	tags := []string{cache.UserTag(cache.TagProductViews, args.UserID)}
	if args.ProductID != nil {
		tags = append(tags, cache.IDTag(cache.TagProducts, *args.ProductID))
	} else {
		tags = append(tags, cache.UserTag(cache.TagProducts, args.UserID))
	}
	return tags
}

// newChartArgs validates the request and pins the memoization key to
// the current civil day in the viewer's timezone.
func (s *analyticsService) newChartArgs(req *dto.ChartQueryRequest) (chartArgs, error) {
	interval, err := req.Validate()
	if err != nil {
		return chartArgs{}, err
	}

	loc, err := types.LoadTimezone(req.Timezone)
	if err != nil {
		return chartArgs{}, err
	}

	return chartArgs{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Timezone:  types.ResolveTimezone(req.Timezone),
		Interval:  interval.Key,
		Day:       time.Now().In(loc).Format("2006-01-02"),
	}, nil
}

// requireAnalytics gates chart access on the user's tier.
func (s *analyticsService) requireAnalytics(ctx context.Context, userID string) error {
	tier, err := s.subscriptions.GetUserTier(ctx, userID)
	if err != nil {
		return err
	}
	if !tier.CanAccessAnalytics {
		return ierr.NewError("analytics not available on this tier").
			WithHint("Upgrade your plan to access analytics").
			Mark(ierr.ErrPermissionDenied)
	}
	return nil
}

func (s *analyticsService) scopeOf(args chartArgs) productview.AggregateScope {
	interval, _ := types.GetChartInterval(string(args.Interval))
	return productview.AggregateScope{
		UserID:    args.UserID,
		ProductID: args.ProductID,
		Timezone:  args.Timezone,
		Interval:  interval,
		Now:       time.Now().UTC(),
	}
}

func (s *analyticsService) fetchViewsByCountry(ctx context.Context, args chartArgs) ([]*productview.ViewsByCountryRow, error) {
	return s.ProductViewRepo.ViewsByCountry(ctx, s.scopeOf(args))
}

func (s *analyticsService) fetchViewsByDealGroup(ctx context.Context, args chartArgs) ([]*productview.ViewsByDealGroupRow, error) {
	return s.ProductViewRepo.ViewsByDealGroup(ctx, s.scopeOf(args))
}

// fetchViewsByDay left-merges aggregated bucket counts onto the
// interval's zero-filled series: one row per calendar bucket.
func (s *analyticsService) fetchViewsByDay(ctx context.Context, args chartArgs) ([]*dto.ViewsByDayRow, error) {
	scope := s.scopeOf(args)
	counts, err := s.ProductViewRepo.CountsByBucket(ctx, scope)
	if err != nil {
		return nil, err
	}

	byBucket := make(map[time.Time]int, len(counts))
	for _, c := range counts {
		byBucket[c.Bucket] = c.Views
	}

	loc, err := types.LoadTimezone(args.Timezone)
	if err != nil {
		return nil, err
	}

	series := scope.Interval.Series(scope.Now, loc)
	rows := make([]*dto.ViewsByDayRow, 0, len(series))
	for _, bucket := range series {
		rows = append(rows, &dto.ViewsByDayRow{
			Date:  scope.Interval.FormatBucket(bucket),
			Views: byBucket[bucket],
		})
	}
	return rows, nil
}

func (s *analyticsService) fetchTotalViews(ctx context.Context, args chartArgs) (int, error) {
	scope := s.scopeOf(args)
	loc, err := types.LoadTimezone(args.Timezone)
	if err != nil {
		return 0, err
	}
	return s.ProductViewRepo.CountSince(ctx, args.UserID, scope.Interval.StartDate(scope.Now, loc))
}

func (s *analyticsService) GetViewsByCountry(ctx context.Context, req *dto.ChartQueryRequest) ([]*productview.ViewsByCountryRow, error) {
	if err := s.requireAnalytics(ctx, req.UserID); err != nil {
		return nil, err
	}
	args, err := s.newChartArgs(req)
	if err != nil {
		return nil, err
	}
	return s.viewsByCountry.Call(ctx, args)
}

func (s *analyticsService) GetViewsByDealGroup(ctx context.Context, req *dto.ChartQueryRequest) ([]*productview.ViewsByDealGroupRow, error) {
	if err := s.requireAnalytics(ctx, req.UserID); err != nil {
		return nil, err
	}
	args, err := s.newChartArgs(req)
	if err != nil {
		return nil, err
	}
	return s.viewsByDeals.Call(ctx, args)
}

func (s *analyticsService) GetViewsByDay(ctx context.Context, req *dto.ChartQueryRequest) ([]*dto.ViewsByDayRow, error) {
	if err := s.requireAnalytics(ctx, req.UserID); err != nil {
		return nil, err
	}
	args, err := s.newChartArgs(req)
	if err != nil {
		return nil, err
	}
	return s.viewsByDay.Call(ctx, args)
}

func (s *analyticsService) GetTotalViews(ctx context.Context, req *dto.ChartQueryRequest) (*dto.TotalViewsResponse, error) {
	if err := s.requireAnalytics(ctx, req.UserID); err != nil {
		return nil, err
	}
	args, err := s.newChartArgs(req)
	if err != nil {
		return nil, err
	}
	views, err := s.totalViews.Call(ctx, args)
	if err != nil {
		return nil, err
	}
	return &dto.TotalViewsResponse{Views: views}, nil
}

func (s *analyticsService) CreateProductView(ctx context.Context, req *dto.CreateProductViewRequest) error {
	if req.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("A view must reference a product").
			Mark(ierr.ErrValidation)
	}

	ownerID, err := s.ProductRepo.GetOwner(ctx, req.ProductID)
	if err != nil {
		return err
	}

	// Views from countries the reference data does not know still count
	// toward totals; they just have no country dimension.
	var countryID *string
	if req.CountryCode != "" {
		country, err := s.CountryRepo.GetByCode(ctx, req.CountryCode)
		if err != nil && !ierr.IsNotFound(err) {
			return err
		}
		if err == nil {
			countryID = &country.ID
		}
	}

	view := &productview.ProductView{
		ID:        types.GenerateULIDWithPrefix(types.IDPrefixProductView),
		ProductID: req.ProductID,
		CountryID: countryID,
		VisitedAt: time.Now().UTC(),
	}
	if err := s.ProductViewRepo.Create(ctx, view); err != nil {
		return err
	}

	cache.Revalidate(ctx, s.Cache, cache.RevalidateOptions{
		Tag:    cache.TagProductViews,
		UserID: ownerID,
		ID:     view.ID,
	})
	return nil
}
