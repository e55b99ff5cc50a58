package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/product"
)

const productColumns = `id, store_id, name, category, price, description, sizes, colors, tags, brand,
	stock, availability, thumbnail_url, image_urls, sheet_row_index, last_updated_source,
	created_at, updated_at`

const (
	createProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE store_id = $1 AND id = $2`

	getProductsByIDsSQL = `SELECT ` + productColumns + ` FROM products
		WHERE store_id = $1 AND id = ANY($2)`

	getProductBySheetRowSQL = `SELECT ` + productColumns + ` FROM products
		WHERE store_id = $1 AND sheet_row_index = $2`

	countProductsSQL = `SELECT count(*) FROM products WHERE store_id = $1`

	listCategoriesSQL = `SELECT DISTINCT category FROM products
		WHERE store_id = $1 AND availability = 'show' AND category <> ''
		ORDER BY category`

	deleteProductSQL = `DELETE FROM products WHERE store_id = $1 AND id = $2`

	// decrementStockSQL never lets a finite stock go below zero. Unlimited
	// stock is matched but left unchanged.
	decrementStockSQL = `UPDATE products
		SET stock = CASE WHEN stock = -1 THEN stock ELSE stock - $2 END, updated_at = now()
		WHERE id = $1 AND (stock = -1 OR stock >= $2)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// Create inserts a product.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createProductSQL,
		p.ID, p.StoreID, p.Name, p.Category, p.Price, p.Description, p.Sizes, p.Colors, p.Tags, p.Brand,
		p.Stock, p.Availability, p.ThumbnailURL, p.ImageURLs, p.SheetRowIndex, p.LastUpdatedSource,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Get returns a single product of a store.
func (r *ProductRepository) Get(ctx context.Context, storeID, id string) (*product.Product, error) {
	return r.one(ctx, getProductSQL, storeID, id)
}

// FindBySheetRow returns the product imported from the given sheet row.
func (r *ProductRepository) FindBySheetRow(ctx context.Context, storeID string, row int) (*product.Product, error) {
	return r.one(ctx, getProductBySheetRowSQL, storeID, row)
}

func (r *ProductRepository) one(ctx context.Context, sql string, args ...any) (*product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return &p, nil
}

// GetByIDs returns the products of storeID matching any of ids.
func (r *ProductRepository) GetByIDs(ctx context.Context, storeID string, ids []string) ([]product.Product, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, getProductsByIDsSQL, storeID, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// List returns a filtered page of products, newest first, and the total
// number of matches.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) ([]product.Product, int, error) {
	var (
		where = []string{"store_id = $1"}
		args  = []any{f.StoreID}
	)
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		where = append(where, "name ILIKE $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}
	if f.Availability != "" {
		args = append(args, f.Availability)
		where = append(where, "availability = $"+strconv.Itoa(len(args)))
	}
	cond := strings.Join(where, " AND ")

	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, "SELECT count(*) FROM products WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting products: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	sql := "SELECT " + productColumns + " FROM products WHERE " + cond +
		" ORDER BY created_at DESC, id DESC" +
		" LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	products, err := pgx.CollectRows(rows, scanProduct)
	if err != nil {
		return nil, 0, fmt.Errorf("listing products: %w", err)
	}
	return products, total, nil
}

// Count returns the number of products in a store.
func (r *ProductRepository) Count(ctx context.Context, storeID string) (int, error) {
	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, countProductsSQL, storeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting products of %q: %w", storeID, err)
	}
	return n, nil
}

// Categories returns the distinct non-empty categories of visible products.
func (r *ProductRepository) Categories(ctx context.Context, storeID string) ([]string, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listCategoriesSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing categories of %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Update writes the non-nil fields of u and returns the updated product.
func (r *ProductRepository) Update(ctx context.Context, storeID, id string, u product.Update) (*product.Product, error) {
	var set assignments
	assign(&set, "name", u.Name)
	assign(&set, "category", u.Category)
	assign(&set, "price", u.Price)
	assign(&set, "description", u.Description)
	assign(&set, "sizes", u.Sizes)
	assign(&set, "colors", u.Colors)
	assign(&set, "tags", u.Tags)
	assign(&set, "brand", u.Brand)
	assign(&set, "stock", u.Stock)
	assign(&set, "availability", u.Availability)
	assign(&set, "thumbnail_url", u.ThumbnailURL)
	assign(&set, "image_urls", u.ImageURLs)
	assign(&set, "last_updated_source", u.LastUpdatedSource)
	if set.empty() {
		return r.Get(ctx, storeID, id)
	}

	sql, args := set.update("products", storeID, id, productColumns)
	return r.one(ctx, sql, args...)
}

// Delete removes a product of a store.
func (r *ProductRepository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteProductSQL, storeID, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// DecrementStock subtracts qty from a finite stock while it stays
// non-negative. It reports false when the row is missing or the stock is
// too low.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, decrementStockSQL, id, qty)
	if err != nil {
		return false, fmt.Errorf("decrementing stock of %q: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.StoreID, &p.Name, &p.Category, &p.Price, &p.Description, &p.Sizes, &p.Colors, &p.Tags, &p.Brand,
		&p.Stock, &p.Availability, &p.ThumbnailURL, &p.ImageURLs, &p.SheetRowIndex, &p.LastUpdatedSource,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
