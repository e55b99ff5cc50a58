package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/store"
)

const storeColumns = `id, owner_id, name, slug, whatsapp_number, language, template, theme, currency,
	branding, sections, shipping, payments,
	plan, coupons_enabled, pages_enabled, branding_removal, product_limit,
	sheet_url, sheet_id, last_synced_at, sync_status, sync_error,
	created_at, updated_at`

const (
	createStoreSQL = `INSERT INTO stores (` + storeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`

	getStoreSQL = `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	getStoreBySlugSQL = `SELECT ` + storeColumns + ` FROM stores WHERE slug = $1`

	listStoresByOwnerSQL = `SELECT ` + storeColumns + ` FROM stores
		WHERE owner_id = $1 ORDER BY created_at, id`

	saveStoreSQL = `UPDATE stores SET
		name = $2, whatsapp_number = $3, language = $4, template = $5, theme = $6, currency = $7,
		branding = $8, sections = $9, shipping = $10, payments = $11,
		sheet_url = $12, sheet_id = $13, updated_at = $14
		WHERE id = $1`

	deleteStoreSQL = `DELETE FROM stores WHERE id = $1`

	setSyncStateSQL = `UPDATE stores SET
		sync_status = $2, sync_error = $3,
		last_synced_at = COALESCE($4, last_synced_at), updated_at = now()
		WHERE id = $1`
)

const storesSlugKey = "stores_slug_key"

var _ store.Repository = (*StoreRepository)(nil)

// StoreRepository implements store.Repository backed by PostgreSQL.
type StoreRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository returns a StoreRepository that uses the given pool.
func NewStoreRepository(pool *pgxpool.Pool) *StoreRepository {
	return &StoreRepository{pool: pool}
}

// Create inserts a new store. Nested settings are stored as JSONB.
func (r *StoreRepository) Create(ctx context.Context, s *store.Store) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createStoreSQL,
		s.ID, s.OwnerID, s.Name, s.Slug, s.WhatsAppNumber, s.Language, s.Template, s.Theme, s.Currency,
		s.Branding, s.Sections, s.Shipping, s.Payments,
		s.Premium.Plan, s.Premium.CouponsEnabled, s.Premium.CustomPagesEnabled,
		s.Premium.BrandingRemoval, s.Premium.ProductLimit,
		s.Sheets.SheetURL, s.Sheets.SheetID, s.Sheets.LastSyncedAt, s.Sheets.SyncStatus, s.Sheets.SyncError,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, storesSlugKey) {
			return store.ErrSlugTaken
		}
		return fmt.Errorf("creating store %q: %w", s.ID, err)
	}
	return nil
}

// Get returns a store by id.
func (r *StoreRepository) Get(ctx context.Context, id string) (*store.Store, error) {
	return r.one(ctx, getStoreSQL, id)
}

// GetBySlug returns a store by its public slug.
func (r *StoreRepository) GetBySlug(ctx context.Context, slug string) (*store.Store, error) {
	return r.one(ctx, getStoreBySlugSQL, slug)
}

func (r *StoreRepository) one(ctx context.Context, sql string, arg string) (*store.Store, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("getting store %q: %w", arg, err)
	}
	s, err := pgx.CollectExactlyOneRow(rows, scanStore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting store %q: %w", arg, err)
	}
	return &s, nil
}

// ListByOwner returns the stores of ownerID, oldest first.
func (r *StoreRepository) ListByOwner(ctx context.Context, ownerID string) ([]store.Store, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listStoresByOwnerSQL, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing stores of %q: %w", ownerID, err)
	}
	return pgx.CollectRows(rows, scanStore)
}

// Save writes the merchant-editable columns. Plan and sync columns are left
// to their own writers.
func (r *StoreRepository) Save(ctx context.Context, s *store.Store) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, saveStoreSQL,
		s.ID, s.Name, s.WhatsAppNumber, s.Language, s.Template, s.Theme, s.Currency,
		s.Branding, s.Sections, s.Shipping, s.Payments,
		s.Sheets.SheetURL, s.Sheets.SheetID, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("saving store %q: %w", s.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes a store. Products, coupons, orders, pages and visit stats
// go with it through ON DELETE CASCADE.
func (r *StoreRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteStoreSQL, id)
	if err != nil {
		return fmt.Errorf("deleting store %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetSyncState records sync progress. A nil LastSyncedAt keeps the previous
// value.
func (r *StoreRepository) SetSyncState(ctx context.Context, id string, st store.SyncState) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, setSyncStateSQL, id, st.Status, st.Error, st.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("setting sync state of %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanStore(row pgx.CollectableRow) (store.Store, error) {
	var s store.Store
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.Name, &s.Slug, &s.WhatsAppNumber, &s.Language, &s.Template, &s.Theme, &s.Currency,
		&s.Branding, &s.Sections, &s.Shipping, &s.Payments,
		&s.Premium.Plan, &s.Premium.CouponsEnabled, &s.Premium.CustomPagesEnabled,
		&s.Premium.BrandingRemoval, &s.Premium.ProductLimit,
		&s.Sheets.SheetURL, &s.Sheets.SheetID, &s.Sheets.LastSyncedAt, &s.Sheets.SyncStatus, &s.Sheets.SyncError,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if s.Shipping.DeliveryZones == nil {
		s.Shipping.DeliveryZones = []string{}
	}
	return s, err
}
