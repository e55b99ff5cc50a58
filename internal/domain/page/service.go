package page

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/store"
)

const maxTitleLen = 200

// Stores resolves the stores pages belong to.
type Stores interface {
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
	BySlug(ctx context.Context, slug string) (*store.Store, error)
}

// Draft holds the input for creating a page.
type Draft struct {
	Title   string
	Slug    string
	Content string
	Status  Status
}

// Service implements page management and public page reads.
type Service struct {
	repo   Repository
	stores Stores
	now    func() time.Time
	newID  func() string
}

// NewService creates a page Service.
func NewService(repo Repository, stores Stores) *Service {
	return &Service{
		repo:   repo,
		stores: stores,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service) premiumStore(ctx context.Context, ownerID, storeID string) error {
	st, err := s.stores.Owned(ctx, ownerID, storeID)
	if err != nil {
		return err
	}
	if !st.Premium.AllowsPages() {
		return store.ErrPagesLocked
	}
	return nil
}

// Create adds a page to a premium store.
func (s *Service) Create(ctx context.Context, ownerID, storeID string, d Draft) (*Page, error) {
	if err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = StatusDraft
	}
	p := &Page{
		ID:      s.newID(),
		StoreID: storeID,
		Title:   d.Title,
		Slug:    SanitizeSlug(d.Slug),
		Content: d.Content,
		Status:  d.Status,
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create page")
	}
	return p, nil
}

// List returns every page of a store. Listing is allowed on any plan so
// merchants who downgrade still see their pages.
func (s *Service) List(ctx context.Context, ownerID, storeID string) ([]Page, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	pages, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "list pages")
	}
	return pages, nil
}

// Get returns one page of a store owned by ownerID.
func (s *Service) Get(ctx context.Context, ownerID, storeID, id string) (*Page, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, storeID, id)
}

// Update applies u to a page of a premium store.
func (s *Service) Update(ctx context.Context, ownerID, storeID, id string, u Update) (*Page, error) {
	if err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}

	if u.Slug != nil {
		slug := SanitizeSlug(*u.Slug)
		u.Slug = &slug
	}
	merged := *current
	if u.Title != nil {
		merged.Title = *u.Title
	}
	if u.Slug != nil {
		merged.Slug = *u.Slug
	}
	if u.Content != nil {
		merged.Content = *u.Content
	}
	if u.Status != nil {
		merged.Status = *u.Status
	}
	if err := validate(&merged); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, storeID, id, u)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update page")
	}
	return p, nil
}

// Delete removes a page of a premium store.
func (s *Service) Delete(ctx context.Context, ownerID, storeID, id string) error {
	if err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, storeID, id)
}

// Published returns a published page of the store with the given slug.
// Drafts are reported as missing.
func (s *Service) Published(ctx context.Context, storeSlug, pageSlug string) (*store.Store, *Page, error) {
	st, err := s.stores.BySlug(ctx, storeSlug)
	if err != nil {
		return nil, nil, err
	}
	p, err := s.repo.GetBySlug(ctx, st.ID, SanitizeSlug(pageSlug))
	if err != nil {
		return nil, nil, err
	}
	if p.Status != StatusPublished {
		return nil, nil, ErrNotFound
	}
	return st, p, nil
}

func validate(p *Page) error {
	if p.Title == "" || utf8.RuneCountInString(p.Title) > maxTitleLen {
		return apperr.InvalidInput("Page title must be between 1 and %d characters", maxTitleLen)
	}
	if p.Slug == "" {
		return apperr.InvalidInput("Page slug must contain at least one letter or digit")
	}
	if !p.Status.Valid() {
		return apperr.InvalidInput("Page status must be draft or published")
	}
	return nil
}
