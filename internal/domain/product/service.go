package product

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/store"
)

// MaxPageSize caps list page sizes.
const MaxPageSize = 100

// StoreOwner resolves a store owned by the calling merchant.
type StoreOwner interface {
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
}

// Draft holds the fields of a product being created.
type Draft struct {
	Name          string
	Category      string
	Price         decimal.Decimal
	Description   string
	Sizes         []string
	Colors        []string
	Tags          []string
	Brand         string
	Stock         int
	Availability  Availability
	ThumbnailURL  string
	ImageURLs     []string
	SheetRowIndex *int
	Source        Source
}

// Validate checks the invariants shared by create and update.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Name) == "" || len(d.Name) > 200 {
		return apperr.InvalidInput("Product name must be between 1 and 200 characters")
	}
	return validateFields(d.Price, d.Stock, d.Availability)
}

func validateFields(price decimal.Decimal, stock int, av Availability) error {
	if price.IsNegative() {
		return apperr.InvalidInput("Price must not be negative")
	}
	if stock < UnlimitedStock {
		return apperr.InvalidInput("Stock must be -1 (unlimited) or a non-negative number")
	}
	if av != AvailabilityShow && av != AvailabilityHide {
		return apperr.InvalidInput("Availability must be show or hide")
	}
	return nil
}

// Page is one page of a product listing.
type Page struct {
	Products []Product
	Total    int
	Page     int
	Limit    int
}

// Service implements merchant catalog management and the public catalog.
type Service struct {
	repo   Repository
	stores StoreOwner
	now    func() time.Time
	newID  func() string
}

// NewService creates a product Service.
func NewService(repo Repository, stores StoreOwner) *Service {
	return &Service{
		repo:   repo,
		stores: stores,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Create adds a product to an owned store, enforcing the plan's product limit.
func (s *Service) Create(ctx context.Context, ownerID, storeID string, d Draft) (*Product, error) {
	st, err := s.stores.Owned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	return s.CreateFor(ctx, st, d)
}

// CreateFor adds a product to st without an ownership check.
func (s *Service) CreateFor(ctx context.Context, st *store.Store, d Draft) (*Product, error) {
	if d.Availability == "" {
		d.Availability = AvailabilityShow
	}
	if d.Source == "" {
		d.Source = SourceDashboard
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	count, err := s.repo.Count(ctx, st.ID)
	if err != nil {
		return nil, errors.Wrap(err, "count products")
	}
	if limit := st.Premium.Limit(); count >= limit {
		return nil, apperr.Unavailable("Product limit reached (%d). Upgrade to add more products.", limit)
	}

	now := s.now().UTC()
	p := &Product{
		ID:                s.newID(),
		StoreID:           st.ID,
		Name:              strings.TrimSpace(d.Name),
		Category:          d.Category,
		Price:             d.Price,
		Description:       d.Description,
		Sizes:             nonNil(d.Sizes),
		Colors:            nonNil(d.Colors),
		Tags:              nonNil(d.Tags),
		Brand:             d.Brand,
		Stock:             d.Stock,
		Availability:      d.Availability,
		ThumbnailURL:      d.ThumbnailURL,
		ImageURLs:         nonNil(d.ImageURLs),
		SheetRowIndex:     d.SheetRowIndex,
		LastUpdatedSource: d.Source,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// List returns a filtered page of an owned store's products.
func (s *Service) List(ctx context.Context, ownerID string, f Filter, page int) (*Page, error) {
	if _, err := s.stores.Owned(ctx, ownerID, f.StoreID); err != nil {
		return nil, err
	}
	return s.list(ctx, f, page)
}

func (s *Service) list(ctx context.Context, f Filter, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if f.Limit <= 0 || f.Limit > MaxPageSize {
		f.Limit = 20
	}
	f.Offset = (page - 1) * f.Limit

	products, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	return &Page{Products: products, Total: total, Page: page, Limit: f.Limit}, nil
}

// Get returns a product of an owned store.
func (s *Service) Get(ctx context.Context, ownerID, storeID, id string) (*Product, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, storeID, id)
}

// Update applies u to a product of an owned store. Dashboard edits mark the
// product so spreadsheet syncs no longer overwrite it.
func (s *Service) Update(ctx context.Context, ownerID, storeID, id string, u Update) (*Product, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	src := SourceDashboard
	u.LastUpdatedSource = &src
	return s.apply(ctx, storeID, id, u)
}

// UpdateFromSheet applies u on behalf of a spreadsheet sync.
func (s *Service) UpdateFromSheet(ctx context.Context, storeID, id string, u Update) (*Product, error) {
	src := SourceSheet
	u.LastUpdatedSource = &src
	return s.apply(ctx, storeID, id, u)
}

func (s *Service) apply(ctx context.Context, storeID, id string, u Update) (*Product, error) {
	if u.Name != nil && (strings.TrimSpace(*u.Name) == "" || len(*u.Name) > 200) {
		return nil, apperr.InvalidInput("Product name must be between 1 and 200 characters")
	}
	if u.Price != nil && u.Price.IsNegative() {
		return nil, apperr.InvalidInput("Price must not be negative")
	}
	if u.Stock != nil && *u.Stock < UnlimitedStock {
		return nil, apperr.InvalidInput("Stock must be -1 (unlimited) or a non-negative number")
	}
	if u.Availability != nil && *u.Availability != AvailabilityShow && *u.Availability != AvailabilityHide {
		return nil, apperr.InvalidInput("Availability must be show or hide")
	}

	p, err := s.repo.Update(ctx, storeID, id, u)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update product")
	}
	return p, nil
}

// Delete removes a product of an owned store.
func (s *Service) Delete(ctx context.Context, ownerID, storeID, id string) error {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, storeID, id)
}

// Catalog is the public view of a store's visible products.
type Catalog struct {
	Page
	Categories []string
}

// PublicList returns visible products, optionally narrowed to a category.
func (s *Service) PublicList(ctx context.Context, storeID, category string, page, limit int) (*Catalog, error) {
	p, err := s.list(ctx, Filter{
		StoreID:      storeID,
		Category:     category,
		Availability: AvailabilityShow,
		Limit:        limit,
	}, page)
	if err != nil {
		return nil, err
	}
	categories, err := s.repo.Categories(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return &Catalog{Page: *p, Categories: categories}, nil
}

// PublicGet returns a visible product. Hidden products are reported as
// not found.
func (s *Service) PublicGet(ctx context.Context, storeID, id string) (*Product, error) {
	p, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if !p.Visible() {
		return nil, ErrNotFound
	}
	return p, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
