package store

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// maxSlugAttempts bounds the retry loop on slug collisions.
const maxSlugAttempts = 5

// CreateParams holds the input for creating a store.
type CreateParams struct {
	Name           string
	WhatsAppNumber string
	Language       Language
	Template       string
	Theme          string
	Currency       string
}

// Service implements store management for merchants and slug lookup for
// the public storefront.
type Service struct {
	repo   Repository
	now    func() time.Time
	newID  func() string
	suffix func() string
}

// NewService creates a store Service.
func NewService(repo Repository) *Service {
	return &Service{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
		suffix: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Create validates p and inserts a new store owned by ownerID. Slug
// collisions are retried with a fresh suffix.
func (s *Service) Create(ctx context.Context, ownerID string, p CreateParams) (*Store, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || len(name) > 100 {
		return nil, apperr.InvalidInput("Store name must be between 1 and 100 characters")
	}
	if !ValidPhone(p.WhatsAppNumber) {
		return nil, apperr.InvalidInput("Invalid WhatsApp number")
	}

	now := s.now().UTC()
	st := &Store{
		ID:             s.newID(),
		OwnerID:        ownerID,
		Name:           name,
		WhatsAppNumber: p.WhatsAppNumber,
		Language:       LanguageEnglish,
		Template:       DefaultTemplate,
		Theme:          DefaultTheme,
		Currency:       DefaultCurrency,
		Branding:       Branding{BrandColor: DefaultBrandColor},
		Sections:       Sections{Header: true, Products: true, Footer: true},
		Premium:        Premium{Plan: PlanStarter, ProductLimit: DefaultProductLimit},
		Shipping: Shipping{
			PickupEnabled:   true,
			DeliveryEnabled: true,
			DeliveryFee:     decimal.Zero,
			DeliveryZones:   []string{},
		},
		Payments:  Payments{CODEnabled: true},
		Sheets:    Sheets{SyncStatus: SyncIdle},
		CreatedAt: now,
		UpdatedAt: now,
	}

	// Optional profile fields go through the same validation as updates.
	u := Update{}
	if p.Language != "" {
		u.Language = &p.Language
	}
	if p.Template != "" {
		u.Template = &p.Template
	}
	if p.Theme != "" {
		u.Theme = &p.Theme
	}
	if p.Currency != "" {
		u.Currency = &p.Currency
	}
	if err := u.Apply(st); err != nil {
		return nil, err
	}

	for range maxSlugAttempts {
		st.Slug = SlugWithSuffix(name, s.suffix())
		err := s.repo.Create(ctx, st)
		if err == nil {
			return st, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, errors.Wrap(err, "create store")
		}
	}
	return nil, apperr.Conflict("Could not allocate a unique store slug")
}

// List returns all stores owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID string) ([]Store, error) {
	stores, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, errors.Wrap(err, "list stores")
	}
	return stores, nil
}

// Owned returns the store when it exists and belongs to ownerID. A store
// owned by someone else is reported as ErrNotFound.
func (s *Service) Owned(ctx context.Context, ownerID, storeID string) (*Store, error) {
	st, err := s.repo.Get(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if st.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return st, nil
}

// Get returns a store by id without an ownership check.
func (s *Service) Get(ctx context.Context, storeID string) (*Store, error) {
	return s.repo.Get(ctx, storeID)
}

// BySlug returns a store by its public slug.
func (s *Service) BySlug(ctx context.Context, slug string) (*Store, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// Update applies u to the owned store and saves it.
func (s *Service) Update(ctx context.Context, ownerID, storeID string, u Update) (*Store, error) {
	st, err := s.Owned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if err := u.Apply(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, st); err != nil {
		return nil, errors.Wrap(err, "save store")
	}
	return st, nil
}

// Delete removes the owned store together with its products, coupons,
// orders and pages.
func (s *Service) Delete(ctx context.Context, ownerID, storeID string) error {
	if _, err := s.Owned(ctx, ownerID, storeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storeID); err != nil {
		return errors.Wrap(err, "delete store")
	}
	return nil
}

// SetSyncState records the progress of a catalog sync.
func (s *Service) SetSyncState(ctx context.Context, storeID string, st SyncState) error {
	if err := s.repo.SetSyncState(ctx, storeID, st); err != nil {
		return errors.Wrap(err, "set sync state")
	}
	return nil
}
