package postgres

import (
	"context"
	"database/sql"

	domainCountry "github.com/localedeals/localedeals/internal/domain/country"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
)

type countryRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewCountryRepository creates a repository over the country reference data.
func NewCountryRepository(client postgres.IClient, logger *logger.Logger) domainCountry.Repository {
	return &countryRepository{client: client, logger: logger}
}

func (r *countryRepository) GetByCode(ctx context.Context, code string) (*domainCountry.Country, error) {
	span := StartRepositorySpan(ctx, "country", "get_by_code", map[string]interface{}{
		"code": code,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT id, code, name, country_group_id
		FROM countries
		WHERE code = $1
	`, code)

	var c domainCountry.Country
	if err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CountryGroupID); err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return nil, ierr.NewErrorf("country %q not found", code).
				WithHint("Unknown country code").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to look up country").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &c, nil
}

func (r *countryRepository) ListGroups(ctx context.Context) ([]*domainCountry.CountryGroup, error) {
	span := StartRepositorySpan(ctx, "country", "list_groups", nil)
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT id, name, recommended_discount_percentage
		FROM country_groups
		ORDER BY name ASC
	`)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list country groups").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var groups []*domainCountry.CountryGroup
	for rows.Next() {
		var g domainCountry.CountryGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.RecommendedDiscountPercentage); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan country group").
				Mark(ierr.ErrDatabase)
		}
		groups = append(groups, &g)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list country groups").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return groups, nil
}
