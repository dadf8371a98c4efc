package postgres

import (
	"context"
	"fmt"
	"time"

	domainView "github.com/localedeals/localedeals/internal/domain/productview"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
	"github.com/localedeals/localedeals/internal/types"
)

// topCountriesLimit caps the by-country chart.
const topCountriesLimit = 25

type productViewRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewProductViewRepository creates a repository over the view fact table.
func NewProductViewRepository(client postgres.IClient, logger *logger.Logger) domainView.Repository {
	return &productViewRepository{client: client, logger: logger}
}

func (r *productViewRepository) Create(ctx context.Context, view *domainView.ProductView) error {
	span := StartRepositorySpan(ctx, "product_view", "create", map[string]interface{}{
		"product_id": view.ProductID,
	})
	defer FinishSpan(span)

	_, err := r.client.Querier(ctx).ExecContext(ctx, `
		INSERT INTO product_views (id, product_id, country_id, visited_at)
		VALUES ($1, $2, $3, $4)
	`, view.ID, view.ProductID, view.CountryID, view.VisitedAt)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to record product view").
			WithReportableDetails(map[string]interface{}{
				"product_id": view.ProductID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *productViewRepository) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	span := StartRepositorySpan(ctx, "product_view", "count_since", nil)
	defer FinishSpan(span)

	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM product_views pv
		JOIN products p ON p.id = pv.product_id
		WHERE p.clerk_user_id = $1 AND pv.visited_at >= $2
	`, userID, since).Scan(&count)
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count product views").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return count, nil
}

// scopeFilter builds the shared WHERE fragment: views of products owned by
// the scope user, optionally a single product, visited at or after start.
// Start is an instant in the viewer's timezone, compared against the
// stored UTC timestamps.
func scopeFilter(scope domainView.AggregateScope, start time.Time, args []interface{}) (string, []interface{}) {
	args = append(args, scope.UserID)
	filter := fmt.Sprintf("p.clerk_user_id = $%d", len(args))

	if scope.ProductID != nil {
		args = append(args, *scope.ProductID)
		filter += fmt.Sprintf(" AND p.id = $%d", len(args))
	}

	args = append(args, start)
	filter += fmt.Sprintf(" AND pv.visited_at >= $%d", len(args))

	return filter, args
}

func (r *productViewRepository) ViewsByCountry(ctx context.Context, scope domainView.AggregateScope) ([]*domainView.ViewsByCountryRow, error) {
	span := StartRepositorySpan(ctx, "product_view", "views_by_country", map[string]interface{}{
		"interval": string(scope.Interval.Key),
	})
	defer FinishSpan(span)

	loc, err := types.LoadTimezone(scope.Timezone)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid timezone").
			Mark(ierr.ErrValidation)
	}

	filter, args := scopeFilter(scope, scope.Interval.StartDate(scope.Now, loc), nil)
	query := `
		SELECT c.code, c.name, COUNT(pv.id) AS views
		FROM product_views pv
		JOIN products p ON p.id = pv.product_id
		JOIN countries c ON c.id = pv.country_id
		WHERE ` + filter + `
		GROUP BY c.code, c.name
		ORDER BY views DESC
		LIMIT ` + fmt.Sprint(topCountriesLimit)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by country").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	result := []*domainView.ViewsByCountryRow{}
	for rows.Next() {
		var row domainView.ViewsByCountryRow
		if err := rows.Scan(&row.CountryCode, &row.CountryName, &row.Views); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan views by country").
				Mark(ierr.ErrDatabase)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by country").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return result, nil
}

func (r *productViewRepository) ViewsByDealGroup(ctx context.Context, scope domainView.AggregateScope) ([]*domainView.ViewsByDealGroupRow, error) {
	span := StartRepositorySpan(ctx, "product_view", "views_by_deal_group", map[string]interface{}{
		"interval": string(scope.Interval.Key),
	})
	defer FinishSpan(span)

	loc, err := types.LoadTimezone(scope.Timezone)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid timezone").
			Mark(ierr.ErrValidation)
	}

	// Groups come from the LEFT side so zero-view groups still appear.
	filter, args := scopeFilter(scope, scope.Interval.StartDate(scope.Now, loc), nil)
	query := `
		SELECT cg.name, COUNT(scoped.view_id) AS views
		FROM country_groups cg
		LEFT JOIN (
			SELECT pv.id AS view_id, c.country_group_id
			FROM product_views pv
			JOIN products p ON p.id = pv.product_id
			JOIN countries c ON c.id = pv.country_id
			WHERE ` + filter + `
		) scoped ON scoped.country_group_id = cg.id
		GROUP BY cg.name
		ORDER BY cg.name ASC`

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by deal group").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	result := []*domainView.ViewsByDealGroupRow{}
	for rows.Next() {
		var row domainView.ViewsByDealGroupRow
		if err := rows.Scan(&row.GroupName, &row.Views); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan views by deal group").
				Mark(ierr.ErrDatabase)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by deal group").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return result, nil
}

func (r *productViewRepository) CountsByBucket(ctx context.Context, scope domainView.AggregateScope) ([]*domainView.BucketCount, error) {
	span := StartRepositorySpan(ctx, "product_view", "counts_by_bucket", map[string]interface{}{
		"interval":    string(scope.Interval.Key),
		"granularity": string(scope.Interval.Granularity),
	})
	defer FinishSpan(span)

	loc, err := types.LoadTimezone(scope.Timezone)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid timezone").
			Mark(ierr.ErrValidation)
	}

	// The timezone shift happens BEFORE date_trunc so a visit at 23:30
	// UTC lands in the viewer's next (or previous) civil day, matching
	// ChartInterval.BucketKey exactly. The filter opens at the first
	// series bucket, not the raw lookback day, so a monthly chart's
	// first bucket counts its whole month.
	args := []interface{}{string(scope.Interval.Granularity), types.ResolveTimezone(scope.Timezone)}
	filter, args := scopeFilter(scope, scope.Interval.SeriesStart(scope.Now, loc), args)
	query := `
		SELECT date_trunc($1, pv.visited_at AT TIME ZONE $2) AS bucket, COUNT(pv.id) AS views
		FROM product_views pv
		JOIN products p ON p.id = pv.product_id
		WHERE ` + filter + `
		GROUP BY bucket
		ORDER BY bucket ASC`

	rows, err := r.client.Querier(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by day").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	result := []*domainView.BucketCount{}
	for rows.Next() {
		var row domainView.BucketCount
		if err := rows.Scan(&row.Bucket, &row.Views); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan views by day").
				Mark(ierr.ErrDatabase)
		}
		// date_trunc over a shifted timestamp yields a naive local time;
		// normalize to the UTC-midnight bucket keys the series uses.
		row.Bucket = time.Date(row.Bucket.Year(), row.Bucket.Month(), row.Bucket.Day(), 0, 0, 0, 0, time.UTC)
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to aggregate views by day").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return result, nil
}
