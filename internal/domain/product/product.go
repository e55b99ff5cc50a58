package product

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// UnlimitedStock marks a product whose inventory is never decremented.
const UnlimitedStock = -1

// Availability controls storefront visibility.
type Availability string

const (
	AvailabilityShow Availability = "show"
	AvailabilityHide Availability = "hide"
)

// Source records which channel last edited a product.
type Source string

const (
	SourceSheet     Source = "sheet"
	SourceDashboard Source = "dashboard"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = apperr.NotFound("Product not found")

// Product is a catalog item owned by a store.
type Product struct {
	ID                string
	StoreID           string
	Name              string
	Category          string
	Price             decimal.Decimal
	Description       string
	Sizes             []string
	Colors            []string
	Tags              []string
	Brand             string
	Stock             int
	Availability      Availability
	ThumbnailURL      string
	ImageURLs         []string
	SheetRowIndex     *int
	LastUpdatedSource Source
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Visible reports whether the product can be shown and ordered.
func (p *Product) Visible() bool {
	return p.Availability == AvailabilityShow
}

// Unlimited reports whether the product has unlimited stock.
func (p *Product) Unlimited() bool {
	return p.Stock == UnlimitedStock
}

// Update lists every editable product field. A nil field is left unchanged.
type Update struct {
	Name              *string
	Category          *string
	Price             *decimal.Decimal
	Description       *string
	Sizes             *[]string
	Colors            *[]string
	Tags              *[]string
	Brand             *string
	Stock             *int
	Availability      *Availability
	ThumbnailURL      *string
	ImageURLs         *[]string
	LastUpdatedSource *Source
}

// Empty reports whether u changes nothing.
func (u Update) Empty() bool {
	return u == Update{}
}

// Filter narrows product listings.
type Filter struct {
	StoreID      string
	Search       string
	Category     string
	Availability Availability
	Offset       int
	Limit        int
}

// Repository provides persistence for products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Get(ctx context.Context, storeID, id string) (*Product, error)
	// GetByIDs returns the products of storeID among ids. Missing ids are
	// simply absent from the result.
	GetByIDs(ctx context.Context, storeID string, ids []string) ([]Product, error)
	List(ctx context.Context, f Filter) ([]Product, int, error)
	Count(ctx context.Context, storeID string) (int, error)
	Categories(ctx context.Context, storeID string) ([]string, error)
	Update(ctx context.Context, storeID, id string, u Update) (*Product, error)
	Delete(ctx context.Context, storeID, id string) error
	// DecrementStock subtracts qty from a finite stock only while the result
	// stays non-negative. It reports false when the floor would be crossed.
	// Unlimited products are left untouched and report true.
	DecrementStock(ctx context.Context, id string, qty int) (bool, error)
	FindBySheetRow(ctx context.Context, storeID string, row int) (*Product, error)
}
