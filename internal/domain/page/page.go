// Package page manages merchant-authored content pages.
package page

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Status controls whether a page is publicly visible.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

var (
	ErrNotFound  = apperr.NotFound("Page not found")
	ErrSlugTaken = apperr.Conflict("A page with this slug already exists for this store")
)

// Page is a custom content page of a store.
type Page struct {
	ID        string
	StoreID   string
	Title     string
	Slug      string
	Content   string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Update is a partial change to a page. Nil fields are left untouched.
type Update struct {
	Title   *string
	Slug    *string
	Content *string
	Status  *Status
}

// Repository defines persistence operations for pages.
type Repository interface {
	// Create inserts p. It returns ErrSlugTaken when the store already has
	// a page with the same slug.
	Create(ctx context.Context, p *Page) error
	Get(ctx context.Context, storeID, id string) (*Page, error)
	GetBySlug(ctx context.Context, storeID, slug string) (*Page, error)
	List(ctx context.Context, storeID string) ([]Page, error)
	Update(ctx context.Context, storeID, id string, u Update) (*Page, error)
	Delete(ctx context.Context, storeID, id string) error
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// SanitizeSlug lowercases s and collapses every run of characters outside
// [a-z0-9] into a single dash.
func SanitizeSlug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(nonSlug.ReplaceAllString(s, "-"), "-")
}
