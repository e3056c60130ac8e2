package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/sbilibin2017/gw-catalog/internal/logger"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

const productColumns = `id, brand_name, colors, images, fabric, sizes, description, created_at`

// ProductReadRepository handles catalog reads
type ProductReadRepository struct {
	db *sqlx.DB
}

func NewProductReadRepository(db *sqlx.DB) *ProductReadRepository {
	return &ProductReadRepository{db: db}
}

// List returns every product, newest first.
func (r *ProductReadRepository) List(ctx context.Context) ([]models.ProductDB, error) {
	const query = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id DESC`
	return r.selectProducts(ctx, query)
}

// ListByBrand returns the products whose brand_name equals brand, newest first.
func (r *ProductReadRepository) ListByBrand(ctx context.Context, brand string) ([]models.ProductDB, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE brand_name = $1 ORDER BY created_at DESC, id DESC`
	return r.selectProducts(ctx, query, brand)
}

// GetByID returns the product, or nil if there is none.
func (r *ProductReadRepository) GetByID(ctx context.Context, id int64) (*models.ProductDB, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, id)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"result", product.ID,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductReadRepository) selectProducts(ctx context.Context, query string, args ...any) ([]models.ProductDB, error) {
	products := []models.ProductDB{}
	err := r.db.SelectContext(ctx, &products, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", len(products),
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return products, nil
}

// ProductWriteRepository handles catalog mutations
type ProductWriteRepository struct {
	db *sqlx.DB
}

func NewProductWriteRepository(db *sqlx.DB) *ProductWriteRepository {
	return &ProductWriteRepository{db: db}
}

// Create inserts a product and returns the stored row.
func (r *ProductWriteRepository) Create(ctx context.Context, in models.ProductInput, images models.ImageList) (*models.ProductDB, error) {
	const query = `
		INSERT INTO products (brand_name, colors, images, fabric, sizes, description)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns

	args := []any{deref(in.BrandName), in.Colors, images, in.Fabric, in.Sizes, in.Description}

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", product.ID,
		"error", err,
	)

	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update overwrites the supplied fields and the image list and returns the stored row,
// or nil if the product no longer exists. Nil input fields keep their stored value.
func (r *ProductWriteRepository) Update(ctx context.Context, id int64, in models.ProductInput, images models.ImageList) (*models.ProductDB, error) {
	const query = `
		UPDATE products SET
			brand_name  = COALESCE($1, brand_name),
			colors      = COALESCE($2, colors),
			images      = $3,
			fabric      = COALESCE($4, fabric),
			sizes       = COALESCE($5, sizes),
			description = COALESCE($6, description)
		WHERE id = $7
		RETURNING ` + productColumns

	args := []any{in.BrandName, in.Colors, images, in.Fabric, in.Sizes, in.Description, id}

	var product models.ProductDB
	err := r.db.GetContext(ctx, &product, query, args...)

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", args,
		"result", product.ID,
		"error", err,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Delete removes the product row and reports whether it existed.
func (r *ProductWriteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM products WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	logger.Log.Infow(
		"query", strings.Join(strings.Fields(query), " "),
		"args", []any{id},
		"result", rowsAffected,
		"error", err,
	)

	if err != nil {
		return false, err
	}
	return rowsAffected > 0, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
