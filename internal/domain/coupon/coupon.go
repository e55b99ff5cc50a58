package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypeFlat subtracts a fixed amount, capped at the subtotal.
	TypeFlat Type = "flat"
	// TypePercent subtracts a percentage of the subtotal.
	TypePercent Type = "percent"
)

// Status is the merchant-controlled state of a coupon.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusDisabled Status = "disabled"
)

// UnlimitedUsage marks a coupon without a usage cap.
const UnlimitedUsage = -1

var (
	// ErrNotFound is returned when a coupon does not exist in the store.
	ErrNotFound = apperr.NotFound("Coupon not found")
	// ErrCodeTaken is returned when the code is already used in the store.
	ErrCodeTaken = apperr.Conflict("Coupon code already exists for this store")
	// ErrUsageExhausted is returned by ClaimUsage when the cap was reached
	// between evaluation and claim.
	ErrUsageExhausted = errors.New("coupon usage exhausted")
)

// Coupon is a merchant-defined discount code.
type Coupon struct {
	ID             string
	StoreID        string
	Code           string
	Type           Type
	Value          decimal.Decimal
	Status         Status
	StartAt        *time.Time
	EndAt          *time.Time
	UsageLimit     int
	UsedCount      int
	MinOrderAmount decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Update lists every editable coupon field. A nil field is left unchanged.
// ClearStartAt and ClearEndAt remove the corresponding bound.
type Update struct {
	Code           *string
	Type           *Type
	Value          *decimal.Decimal
	Status         *Status
	StartAt        *time.Time
	ClearStartAt   bool
	EndAt          *time.Time
	ClearEndAt     bool
	UsageLimit     *int
	MinOrderAmount *decimal.Decimal
}

// Repository provides persistence for coupons.
type Repository interface {
	// Create inserts a coupon. It returns ErrCodeTaken on a duplicate code.
	Create(ctx context.Context, c *Coupon) error
	Get(ctx context.Context, storeID, id string) (*Coupon, error)
	// FindByCode looks up a coupon by its normalized code.
	FindByCode(ctx context.Context, storeID, code string) (*Coupon, error)
	List(ctx context.Context, storeID string) ([]Coupon, error)
	Update(ctx context.Context, storeID, id string, u Update) (*Coupon, error)
	Delete(ctx context.Context, storeID, id string) error
	// ClaimUsage increments used_count only while it stays within the
	// usage limit. It returns ErrUsageExhausted otherwise.
	ClaimUsage(ctx context.Context, id string) error
}
