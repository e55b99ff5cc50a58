package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/page"
)

const pageColumns = `id, store_id, title, slug, content, status, created_at, updated_at`

const (
	createPageSQL = `INSERT INTO pages (` + pageColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	getPageSQL = `SELECT ` + pageColumns + ` FROM pages WHERE store_id = $1 AND id = $2`

	getPageBySlugSQL = `SELECT ` + pageColumns + ` FROM pages WHERE store_id = $1 AND slug = $2`

	listPagesSQL = `SELECT ` + pageColumns + ` FROM pages WHERE store_id = $1 ORDER BY created_at, id`

	deletePageSQL = `DELETE FROM pages WHERE store_id = $1 AND id = $2`
)

const pagesStoreSlugKey = "pages_store_slug_key"

var _ page.Repository = (*PageRepository)(nil)

// PageRepository implements page.Repository backed by PostgreSQL.
type PageRepository struct {
	pool *pgxpool.Pool
}

// NewPageRepository returns a PageRepository that uses the given pool.
func NewPageRepository(pool *pgxpool.Pool) *PageRepository {
	return &PageRepository{pool: pool}
}

// Create inserts a page.
func (r *PageRepository) Create(ctx context.Context, p *page.Page) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createPageSQL,
		p.ID, p.StoreID, p.Title, p.Slug, p.Content, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, pagesStoreSlugKey) {
			return page.ErrSlugTaken
		}
		return fmt.Errorf("creating page %q: %w", p.Slug, err)
	}
	return nil
}

// Get returns a page of a store by id.
func (r *PageRepository) Get(ctx context.Context, storeID, id string) (*page.Page, error) {
	return r.one(ctx, getPageSQL, storeID, id)
}

// GetBySlug returns a page of a store by slug.
func (r *PageRepository) GetBySlug(ctx context.Context, storeID, slug string) (*page.Page, error) {
	return r.one(ctx, getPageBySlugSQL, storeID, slug)
}

func (r *PageRepository) one(ctx context.Context, sql string, args ...any) (*page.Page, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err == nil {
		var p page.Page
		p, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[page.Page])
		if err == nil {
			return &p, nil
		}
	}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, page.ErrNotFound
	case isUniqueViolation(err, pagesStoreSlugKey):
		return nil, page.ErrSlugTaken
	default:
		return nil, fmt.Errorf("getting page: %w", err)
	}
}

// List returns the pages of a store in creation order.
func (r *PageRepository) List(ctx context.Context, storeID string) ([]page.Page, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listPagesSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing pages of %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[page.Page])
}

// Update writes the set fields of u and returns the updated page.
func (r *PageRepository) Update(ctx context.Context, storeID, id string, u page.Update) (*page.Page, error) {
	var set assignments
	assign(&set, "title", u.Title)
	assign(&set, "slug", u.Slug)
	assign(&set, "content", u.Content)
	assign(&set, "status", u.Status)
	if set.empty() {
		return r.Get(ctx, storeID, id)
	}
	sql, args := set.update("pages", storeID, id, pageColumns)
	return r.one(ctx, sql, args...)
}

// Delete removes a page of a store.
func (r *PageRepository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deletePageSQL, storeID, id)
	if err != nil {
		return fmt.Errorf("deleting page %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return page.ErrNotFound
	}
	return nil
}
