package postgres

import (
	"context"
	"database/sql"

	domainCountry "github.com/localedeals/localedeals/internal/domain/country"
	domainProduct "github.com/localedeals/localedeals/internal/domain/product"
	ierr "github.com/localedeals/localedeals/internal/errors"
	"github.com/localedeals/localedeals/internal/logger"
	"github.com/localedeals/localedeals/internal/postgres"
	"github.com/shopspring/decimal"
)

// scanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(s scanner) (*domainProduct.Product, error) {
	var p domainProduct.Product
	err := s.Scan(&p.ID, &p.ClerkUserID, &p.Name, &p.URL, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type productRepository struct {
	client postgres.IClient
	logger *logger.Logger
}

// NewProductRepository creates a new product repository.
func NewProductRepository(client postgres.IClient, logger *logger.Logger) domainProduct.Repository {
	return &productRepository{client: client, logger: logger}
}

func (r *productRepository) Create(ctx context.Context, p *domainProduct.Product, c *domainProduct.Customization) error {
	r.logger.Debugw("creating product", "product_id", p.ID, "user_id", p.ClerkUserID)

	span := StartRepositorySpan(ctx, "product", "create", map[string]interface{}{
		"product_id": p.ID,
	})
	defer FinishSpan(span)

	// Product and its default customization land together or not at all.
	err := r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)
		_, err := q.ExecContext(ctx, `
			INSERT INTO products (id, clerk_user_id, name, url, description, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, p.ID, p.ClerkUserID, p.Name, p.URL, p.Description, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return err
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO product_customizations
				(id, product_id, location_message, background_color, text_color, font_size, banner_container, is_sticky, class_prefix)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, c.ID, c.ProductID, c.LocationMessage, c.BackgroundColor, c.TextColor, c.FontSize, c.BannerContainer, c.IsSticky, c.ClassPrefix)
		return err
	})
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to create product").
			WithReportableDetails(map[string]interface{}{
				"product_id": p.ID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, id, userID string) (*domainProduct.Product, error) {
	span := StartRepositorySpan(ctx, "product", "get_by_id", map[string]interface{}{
		"product_id": id,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT id, clerk_user_id, name, url, description, created_at, updated_at
		FROM products
		WHERE id = $1 AND clerk_user_id = $2
	`, id, userID)

	p, err := scanProduct(row)
	if err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("product not found").
				WithHint("Product not found").
				WithReportableDetails(map[string]interface{}{"product_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get product").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return p, nil
}

func (r *productRepository) GetOwner(ctx context.Context, id string) (string, error) {
	span := StartRepositorySpan(ctx, "product", "get_owner", map[string]interface{}{
		"product_id": id,
	})
	defer FinishSpan(span)

	var ownerID string
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT clerk_user_id FROM products WHERE id = $1
	`, id).Scan(&ownerID)
	if err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return "", ierr.NewError("product not found").
				WithHint("Product not found").
				WithReportableDetails(map[string]interface{}{"product_id": id}).
				Mark(ierr.ErrNotFound)
		}
		return "", ierr.WithError(err).
			WithHint("Failed to get product").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return ownerID, nil
}

func (r *productRepository) List(ctx context.Context, userID string) ([]*domainProduct.Product, error) {
	span := StartRepositorySpan(ctx, "product", "list", nil)
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT id, clerk_user_id, name, url, description, created_at, updated_at
		FROM products
		WHERE clerk_user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list products").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var products []*domainProduct.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan product").
				Mark(ierr.ErrDatabase)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list products").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return products, nil
}

func (r *productRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	span := StartRepositorySpan(ctx, "product", "count_by_user", nil)
	defer FinishSpan(span)

	var count int
	err := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*) FROM products WHERE clerk_user_id = $1
	`, userID).Scan(&count)
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to count products").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return count, nil
}

func (r *productRepository) Update(ctx context.Context, p *domainProduct.Product) (bool, error) {
	span := StartRepositorySpan(ctx, "product", "update", map[string]interface{}{
		"product_id": p.ID,
	})
	defer FinishSpan(span)

	result, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE products
		SET name = $1, url = $2, description = $3, updated_at = now()
		WHERE id = $4 AND clerk_user_id = $5
	`, p.Name, p.URL, p.Description, p.ID, p.ClerkUserID)
	if err != nil {
		SetSpanError(span, err)
		return false, ierr.WithError(err).
			WithHint("Failed to update product").
			Mark(ierr.ErrDatabase)
	}

	affected, _ := result.RowsAffected()
	SetSpanSuccess(span)
	return affected > 0, nil
}

func (r *productRepository) Delete(ctx context.Context, id, userID string) (bool, error) {
	span := StartRepositorySpan(ctx, "product", "delete", map[string]interface{}{
		"product_id": id,
	})
	defer FinishSpan(span)

	result, err := r.client.Querier(ctx).ExecContext(ctx, `
		DELETE FROM products WHERE id = $1 AND clerk_user_id = $2
	`, id, userID)
	if err != nil {
		SetSpanError(span, err)
		return false, ierr.WithError(err).
			WithHint("Failed to delete product").
			Mark(ierr.ErrDatabase)
	}

	affected, _ := result.RowsAffected()
	SetSpanSuccess(span)
	return affected > 0, nil
}

func (r *productRepository) DeleteByUser(ctx context.Context, userID string) ([]string, error) {
	span := StartRepositorySpan(ctx, "product", "delete_by_user", nil)
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		DELETE FROM products WHERE clerk_user_id = $1 RETURNING id
	`, userID)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to delete products").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to delete products").
				Mark(ierr.ErrDatabase)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to delete products").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return ids, nil
}

func (r *productRepository) GetCustomization(ctx context.Context, productID, userID string) (*domainProduct.Customization, error) {
	span := StartRepositorySpan(ctx, "product", "get_customization", map[string]interface{}{
		"product_id": productID,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT pc.id, pc.product_id, pc.location_message, pc.background_color, pc.text_color,
		       pc.font_size, pc.banner_container, pc.is_sticky, pc.class_prefix
		FROM product_customizations pc
		JOIN products p ON p.id = pc.product_id
		WHERE pc.product_id = $1 AND p.clerk_user_id = $2
	`, productID, userID)

	var c domainProduct.Customization
	err := row.Scan(&c.ID, &c.ProductID, &c.LocationMessage, &c.BackgroundColor, &c.TextColor,
		&c.FontSize, &c.BannerContainer, &c.IsSticky, &c.ClassPrefix)
	if err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("banner customization not found").
				WithHint("Product not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to get banner customization").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return &c, nil
}

func (r *productRepository) UpdateCustomization(ctx context.Context, productID, userID string, update *domainProduct.CustomizationUpdate) (bool, error) {
	span := StartRepositorySpan(ctx, "product", "update_customization", map[string]interface{}{
		"product_id": productID,
	})
	defer FinishSpan(span)

	result, err := r.client.Querier(ctx).ExecContext(ctx, `
		UPDATE product_customizations pc
		SET location_message = $1, background_color = $2, text_color = $3,
		    font_size = $4, banner_container = $5, is_sticky = $6, class_prefix = $7
		FROM products p
		WHERE p.id = pc.product_id AND pc.product_id = $8 AND p.clerk_user_id = $9
	`, update.LocationMessage, update.BackgroundColor, update.TextColor,
		update.FontSize, update.BannerContainer, update.IsSticky, update.ClassPrefix,
		productID, userID)
	if err != nil {
		SetSpanError(span, err)
		return false, ierr.WithError(err).
			WithHint("Failed to update banner customization").
			Mark(ierr.ErrDatabase)
	}

	affected, _ := result.RowsAffected()
	SetSpanSuccess(span)
	return affected > 0, nil
}

func (r *productRepository) GetGroupsWithDiscounts(ctx context.Context, productID, userID string) ([]*domainProduct.GroupWithDiscount, error) {
	span := StartRepositorySpan(ctx, "product", "get_groups_with_discounts", map[string]interface{}{
		"product_id": productID,
	})
	defer FinishSpan(span)

	rows, err := r.client.Querier(ctx).QueryContext(ctx, `
		SELECT cg.id, cg.name, cg.recommended_discount_percentage,
		       d.coupon, d.discount_percentage
		FROM country_groups cg
		LEFT JOIN country_group_discounts d
		       ON d.country_group_id = cg.id
		      AND d.product_id = $1
		      AND EXISTS (
		          SELECT 1 FROM products p
		          WHERE p.id = d.product_id AND p.clerk_user_id = $2
		      )
		ORDER BY cg.name ASC
	`, productID, userID)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to load country group discounts").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	var result []*domainProduct.GroupWithDiscount
	for rows.Next() {
		var item domainProduct.GroupWithDiscount
		var group domainCountry.CountryGroup
		var coupon sql.NullString
		var percentage decimal.NullDecimal

		if err := rows.Scan(&group.ID, &group.Name, &group.RecommendedDiscountPercentage, &coupon, &percentage); err != nil {
			SetSpanError(span, err)
			return nil, ierr.WithError(err).
				WithHint("Failed to scan country group discount").
				Mark(ierr.ErrDatabase)
		}

		item.Group = &group
		if coupon.Valid {
			item.Discount = &domainProduct.CountryGroupDiscount{
				ProductID:          productID,
				CountryGroupID:     group.ID,
				Coupon:             coupon.String,
				DiscountPercentage: percentage.Decimal,
			}
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to load country group discounts").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return result, nil
}

func (r *productRepository) ReplaceCountryGroupDiscounts(ctx context.Context, productID, userID string, deleteGroupIDs []string, upserts []*domainProduct.CountryGroupDiscount) (bool, error) {
	span := StartRepositorySpan(ctx, "product", "replace_country_group_discounts", map[string]interface{}{
		"product_id": productID,
	})
	defer FinishSpan(span)

	owned := false
	err := r.client.WithTx(ctx, func(ctx context.Context) error {
		q := r.client.Querier(ctx)

		// Ownership gate: everything below is scoped by this check.
		var id string
		err := q.QueryRowContext(ctx, `
			SELECT id FROM products WHERE id = $1 AND clerk_user_id = $2
		`, productID, userID).Scan(&id)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}
		owned = true

		for _, groupID := range deleteGroupIDs {
			if _, err := q.ExecContext(ctx, `
				DELETE FROM country_group_discounts
				WHERE product_id = $1 AND country_group_id = $2
			`, productID, groupID); err != nil {
				return err
			}
		}

		for _, d := range upserts {
			if _, err := q.ExecContext(ctx, `
				INSERT INTO country_group_discounts (product_id, country_group_id, coupon, discount_percentage)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (product_id, country_group_id)
				DO UPDATE SET coupon = excluded.coupon, discount_percentage = excluded.discount_percentage
			`, productID, d.CountryGroupID, d.Coupon, d.DiscountPercentage); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		SetSpanError(span, err)
		return false, ierr.WithError(err).
			WithHint("Failed to update country discounts").
			WithReportableDetails(map[string]interface{}{"product_id": productID}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return owned, nil
}

func (r *productRepository) GetBannerData(ctx context.Context, productID, countryCode string) (*domainProduct.BannerData, error) {
	span := StartRepositorySpan(ctx, "product", "get_banner_data", map[string]interface{}{
		"product_id":   productID,
		"country_code": countryCode,
	})
	defer FinishSpan(span)

	row := r.client.Querier(ctx).QueryRowContext(ctx, `
		SELECT p.id, p.clerk_user_id, p.name, p.url, p.description, p.created_at, p.updated_at,
		       pc.id, pc.location_message, pc.background_color, pc.text_color,
		       pc.font_size, pc.banner_container, pc.is_sticky, pc.class_prefix,
		       c.name, c.country_group_id,
		       d.coupon, d.discount_percentage
		FROM products p
		JOIN product_customizations pc ON pc.product_id = p.id
		JOIN countries c ON c.code = $2
		LEFT JOIN country_group_discounts d
		       ON d.product_id = p.id AND d.country_group_id = c.country_group_id
		WHERE p.id = $1
	`, productID, countryCode)

	var (
		p          domainProduct.Product
		c          domainProduct.Customization
		groupID    string
		coupon     sql.NullString
		percentage decimal.NullDecimal
		data       domainProduct.BannerData
	)
	err := row.Scan(
		&p.ID, &p.ClerkUserID, &p.Name, &p.URL, &p.Description, &p.CreatedAt, &p.UpdatedAt,
		&c.ID, &c.LocationMessage, &c.BackgroundColor, &c.TextColor,
		&c.FontSize, &c.BannerContainer, &c.IsSticky, &c.ClassPrefix,
		&data.CountryName, &groupID,
		&coupon, &percentage,
	)
	if err != nil {
		SetSpanError(span, err)
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("banner data not found").
				WithHint("Product or country not found").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to load banner data").
			Mark(ierr.ErrDatabase)
	}

	c.ProductID = p.ID
	data.Product = &p
	data.Customization = &c
	if coupon.Valid {
		data.Discount = &domainProduct.CountryGroupDiscount{
			ProductID:          p.ID,
			CountryGroupID:     groupID,
			Coupon:             coupon.String,
			DiscountPercentage: percentage.Decimal,
		}
	}

	SetSpanSuccess(span)
	return &data, nil
}
