package store

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Language is one of the supported storefront languages.
type Language string

const (
	LanguageEnglish  Language = "en"
	LanguageHindi    Language = "hi"
	LanguagePunjabi  Language = "pa"
	LanguageCroatian Language = "hr"
	LanguageGujarati Language = "gu"
)

// Valid reports whether l is a supported language.
func (l Language) Valid() bool {
	switch l {
	case LanguageEnglish, LanguageHindi, LanguagePunjabi, LanguageCroatian, LanguageGujarati:
		return true
	}
	return false
}

// Plan is the premium tier of a store.
type Plan string

const (
	PlanStarter Plan = "starter"
	PlanGrowth  Plan = "growth"
	PlanPro     Plan = "pro"
)

// SyncStatus is the state of the spreadsheet sync for a store.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncError   SyncStatus = "error"
)

// Defaults applied to new stores.
const (
	DefaultBrandColor   = "#22C55E"
	DefaultTemplate     = "multi-purpose"
	DefaultTheme        = "minimal"
	DefaultCurrency     = "INR"
	DefaultProductLimit = 50
)

var templates = map[string]struct{}{
	"multi-purpose":    {},
	"quick-order":      {},
	"wholesale":        {},
	"digital-download": {},
	"service-booking":  {},
	"links-list":       {},
	"blank":            {},
}

var themes = map[string]struct{}{
	"minimal": {},
	"bold":    {},
	"dark":    {},
}

// ValidTemplate reports whether t names a known storefront template.
func ValidTemplate(t string) bool {
	_, ok := templates[t]
	return ok
}

// ValidTheme reports whether t names a known theme.
func ValidTheme(t string) bool {
	_, ok := themes[t]
	return ok
}

var (
	// ErrNotFound is returned when a store is absent or owned by someone else.
	ErrNotFound = apperr.NotFound("Store not found")
	// ErrSlugTaken is returned by Repository.Create when the slug is already used.
	ErrSlugTaken = errors.New("store slug already taken")
	// ErrCouponsLocked is returned when the plan does not include coupons.
	ErrCouponsLocked = apperr.Unavailable("Coupons are a premium feature. Please upgrade your plan.")
	// ErrPagesLocked is returned when the plan does not include custom pages.
	ErrPagesLocked = apperr.Unavailable("Custom pages are a premium feature. Please upgrade your plan.")
)

// Branding holds visual identity settings.
type Branding struct {
	LogoURL    string `json:"logo_url,omitempty"`
	BrandColor string `json:"brand_color"`
	BannerURL  string `json:"banner_url,omitempty"`
	BannerText string `json:"banner_text,omitempty"`
}

// Sections toggles storefront page sections.
type Sections struct {
	Header   bool `json:"header"`
	Banner   bool `json:"banner"`
	Products bool `json:"products"`
	Footer   bool `json:"footer"`
}

// Premium describes the plan tier and the features it unlocks.
type Premium struct {
	Plan               Plan
	CouponsEnabled     bool
	CustomPagesEnabled bool
	BrandingRemoval    bool
	ProductLimit       int
}

// AllowsCoupons reports whether the store may manage coupons.
func (p Premium) AllowsCoupons() bool {
	return p.CouponsEnabled || (p.Plan != "" && p.Plan != PlanStarter)
}

// AllowsPages reports whether the store may manage custom pages.
func (p Premium) AllowsPages() bool {
	return p.CustomPagesEnabled || (p.Plan != "" && p.Plan != PlanStarter)
}

// Limit returns the maximum number of products, falling back to the default.
func (p Premium) Limit() int {
	if p.ProductLimit <= 0 {
		return DefaultProductLimit
	}
	return p.ProductLimit
}

// Shipping configures fulfilment options.
type Shipping struct {
	PickupEnabled   bool            `json:"pickup_enabled"`
	PickupAddress   string          `json:"pickup_address,omitempty"`
	DeliveryEnabled bool            `json:"delivery_enabled"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	DeliveryZones   []string        `json:"delivery_zones"`
}

// Payments configures accepted payment methods.
type Payments struct {
	CODEnabled     bool   `json:"cod_enabled"`
	PayPalEnabled  bool   `json:"paypal_enabled"`
	PayPalClientID string `json:"paypal_client_id,omitempty"`
}

// Sheets tracks the linked spreadsheet and its last sync.
type Sheets struct {
	SheetID      string
	SheetURL     string
	LastSyncedAt *time.Time
	SyncStatus   SyncStatus
	SyncError    string
}

// Store is a merchant's storefront.
type Store struct {
	ID             string
	OwnerID        string
	Name           string
	Slug           string
	WhatsAppNumber string
	Language       Language
	Template       string
	Theme          string
	Currency       string
	Branding       Branding
	Sections       Sections
	Premium        Premium
	Shipping       Shipping
	Payments       Payments
	Sheets         Sheets
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SyncState is written by the spreadsheet sync as it progresses.
type SyncState struct {
	Status       SyncStatus
	Error        string
	LastSyncedAt *time.Time
}

// Repository persists stores.
type Repository interface {
	// Create inserts a store. It returns ErrSlugTaken on a slug collision.
	Create(ctx context.Context, s *Store) error
	Get(ctx context.Context, id string) (*Store, error)
	GetBySlug(ctx context.Context, slug string) (*Store, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Store, error)
	// Save writes the merchant-editable profile columns of s.
	Save(ctx context.Context, s *Store) error
	Delete(ctx context.Context, id string) error
	SetSyncState(ctx context.Context, id string, st SyncState) error
}
