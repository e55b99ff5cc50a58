package sheet

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/store"
)

// Stores resolves stores and records their sync state.
type Stores interface {
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
	SetSyncState(ctx context.Context, storeID string, st store.SyncState) error
}

// Catalog writes products on behalf of the sync.
type Catalog interface {
	CreateFor(ctx context.Context, st *store.Store, d product.Draft) (*product.Product, error)
	UpdateFromSheet(ctx context.Context, storeID, id string, u product.Update) (*product.Product, error)
}

// RowFinder finds the product imported from a sheet row.
type RowFinder interface {
	FindBySheetRow(ctx context.Context, storeID string, row int) (*product.Product, error)
}

// ErrNoSheet is returned when a store has no linked sheet.
var ErrNoSheet = apperr.InvalidInput("Store has no Google Sheet linked")

// Result summarizes one sync run.
type Result struct {
	Success bool
	Synced  int
	Skipped int
	Errors  []string
}

// Syncer imports a store's sheet into its catalog.
type Syncer struct {
	stores  Stores
	catalog Catalog
	rows    RowFinder
	source  Source
	now     func() time.Time
}

// NewSyncer creates a Syncer reading from source.
func NewSyncer(stores Stores, catalog Catalog, rows RowFinder, source Source) *Syncer {
	return &Syncer{
		stores:  stores,
		catalog: catalog,
		rows:    rows,
		source:  source,
		now:     time.Now,
	}
}

// SyncOwned syncs a store owned by ownerID from its linked sheet.
func (s *Syncer) SyncOwned(ctx context.Context, ownerID, storeID string) (*Result, error) {
	st, err := s.stores.Owned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if st.Sheets.SheetID == "" {
		return nil, ErrNoSheet
	}
	return s.Sync(ctx, st)
}

// Sync imports every row of the store's sheet. Source failures are recorded
// on the store and reported in the result. Only failures to record the sync
// state are returned as errors.
func (s *Syncer) Sync(ctx context.Context, st *store.Store) (*Result, error) {
	lg := zctx.From(ctx).With(zap.String("store_id", st.ID))

	if err := s.stores.SetSyncState(ctx, st.ID, store.SyncState{Status: store.SyncSyncing}); err != nil {
		return nil, errors.Wrap(err, "mark syncing")
	}

	res, err := s.run(ctx, st)
	if err != nil {
		lg.Warn("Sheet sync failed", zap.Error(err))
		if serr := s.stores.SetSyncState(ctx, st.ID, store.SyncState{
			Status: store.SyncError,
			Error:  err.Error(),
		}); serr != nil {
			return nil, errors.Wrap(serr, "mark sync error")
		}
		return &Result{Errors: []string{err.Error()}}, nil
	}

	now := s.now().UTC()
	if err := s.stores.SetSyncState(ctx, st.ID, store.SyncState{
		Status:       store.SyncIdle,
		Error:        strings.Join(res.Errors, "; "),
		LastSyncedAt: &now,
	}); err != nil {
		return nil, errors.Wrap(err, "mark synced")
	}
	lg.Info("Sheet synced",
		zap.Int("synced", res.Synced),
		zap.Int("skipped", res.Skipped),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func (s *Syncer) run(ctx context.Context, st *store.Store) (*Result, error) {
	records, err := s.source.Fetch(ctx, st.Sheets.SheetID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch sheet")
	}
	rows, rowErrs := ParseRecords(records)
	if len(rows) == 0 && len(rowErrs) == 0 {
		return nil, errors.New("no data rows found in sheet")
	}

	res := &Result{Success: true}
	for _, e := range rowErrs {
		res.Errors = append(res.Errors, e.Error())
	}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		synced, err := s.upsert(ctx, st, row)
		switch {
		case err != nil:
			res.Skipped++
			res.Errors = append(res.Errors, (&RowError{Index: row.Index, Reason: apperr.Message(err)}).Error())
			if apperr.KindOf(err) == apperr.KindInternal {
				zctx.From(ctx).Warn("Sheet row failed", zap.Int("row", row.Index), zap.Error(err))
			}
		case synced:
			res.Synced++
		default:
			res.Skipped++
		}
	}
	return res, nil
}

// upsert writes one row. It reports false for rows whose product was last
// edited in the dashboard.
func (s *Syncer) upsert(ctx context.Context, st *store.Store, row Row) (bool, error) {
	existing, err := s.rows.FindBySheetRow(ctx, st.ID, row.Index)
	switch {
	case errors.Is(err, product.ErrNotFound):
		if _, err := s.catalog.CreateFor(ctx, st, row.Draft); err != nil {
			return false, err
		}
		return true, nil
	case err != nil:
		return false, errors.Wrap(err, "find product")
	}

	if existing.LastUpdatedSource != product.SourceSheet {
		return false, nil
	}
	d := row.Draft
	imageURLs := nonNil(d.ImageURLs)
	if _, err := s.catalog.UpdateFromSheet(ctx, st.ID, existing.ID, product.Update{
		Name:         &d.Name,
		Category:     &d.Category,
		Price:        &d.Price,
		Description:  &d.Description,
		Sizes:        &d.Sizes,
		Colors:       &d.Colors,
		Tags:         &d.Tags,
		Brand:        &d.Brand,
		Stock:        &d.Stock,
		Availability: &d.Availability,
		ThumbnailURL: &d.ThumbnailURL,
		ImageURLs:    &imageURLs,
	}); err != nil {
		return false, err
	}
	return true, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
