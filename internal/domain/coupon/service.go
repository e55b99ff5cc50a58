package coupon

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

// Stores resolves the stores coupons belong to.
type Stores interface {
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
	Get(ctx context.Context, storeID string) (*store.Store, error)
}

// Draft holds the input for creating a coupon.
type Draft struct {
	Code           string
	Type           Type
	Value          decimal.Decimal
	Status         Status
	StartAt        *time.Time
	EndAt          *time.Time
	UsageLimit     int
	MinOrderAmount decimal.Decimal
}

// NormalizeCode trims and uppercases a coupon code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Service implements merchant coupon management and public validation.
type Service struct {
	repo   Repository
	stores Stores
	now    func() time.Time
	newID  func() string
}

// NewService creates a coupon Service.
func NewService(repo Repository, stores Stores) *Service {
	return &Service{
		repo:   repo,
		stores: stores,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service) premiumStore(ctx context.Context, ownerID, storeID string) (*store.Store, error) {
	st, err := s.stores.Owned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	if !st.Premium.AllowsCoupons() {
		return nil, store.ErrCouponsLocked
	}
	return st, nil
}

// Create adds a coupon to a premium store.
func (s *Service) Create(ctx context.Context, ownerID, storeID string, d Draft) (*Coupon, error) {
	if _, err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	if d.Status == "" {
		d.Status = StatusActive
	}
	if d.UsageLimit == 0 {
		d.UsageLimit = UnlimitedUsage
	}
	c := &Coupon{
		ID:             s.newID(),
		StoreID:        storeID,
		Code:           NormalizeCode(d.Code),
		Type:           d.Type,
		Value:          d.Value,
		Status:         d.Status,
		StartAt:        d.StartAt,
		EndAt:          d.EndAt,
		UsageLimit:     d.UsageLimit,
		MinOrderAmount: d.MinOrderAmount,
	}
	if err := validate(c); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			return nil, err
		}
		return nil, errors.Wrap(err, "create coupon")
	}
	return c, nil
}

// List returns all coupons of a premium store.
func (s *Service) List(ctx context.Context, ownerID, storeID string) ([]Coupon, error) {
	if _, err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	coupons, err := s.repo.List(ctx, storeID)
	if err != nil {
		return nil, errors.Wrap(err, "list coupons")
	}
	return coupons, nil
}

// Update applies u to a coupon of a premium store. The merged coupon is
// validated before anything is written.
func (s *Service) Update(ctx context.Context, ownerID, storeID, id string, u Update) (*Coupon, error) {
	if _, err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return nil, err
	}
	current, err := s.repo.Get(ctx, storeID, id)
	if err != nil {
		return nil, err
	}
	if u.Code != nil {
		code := NormalizeCode(*u.Code)
		u.Code = &code
	}
	if err := validate(merge(*current, u)); err != nil {
		return nil, err
	}

	c, err := s.repo.Update(ctx, storeID, id, u)
	if err != nil {
		if errors.Is(err, ErrCodeTaken) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(err, "update coupon")
	}
	return c, nil
}

// Delete removes a coupon of a premium store.
func (s *Service) Delete(ctx context.Context, ownerID, storeID, id string) error {
	if _, err := s.premiumStore(ctx, ownerID, storeID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, storeID, id)
}

// Validate evaluates a code against a cart subtotal for a shopper. An unknown
// code is a verdict, not an error.
func (s *Service) Validate(ctx context.Context, storeID, code string, subtotal decimal.Decimal) (Result, error) {
	if _, err := s.stores.Get(ctx, storeID); err != nil {
		return Result{}, err
	}
	c, err := s.Lookup(ctx, storeID, code)
	if err != nil {
		return Result{}, err
	}
	return Evaluate(c, subtotal, s.now()), nil
}

// Lookup returns the coupon for code, or nil when the store has none.
func (s *Service) Lookup(ctx context.Context, storeID, code string) (*Coupon, error) {
	c, err := s.repo.FindByCode(ctx, storeID, NormalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find coupon")
	}
	return c, nil
}

func merge(c Coupon, u Update) *Coupon {
	if u.Code != nil {
		c.Code = *u.Code
	}
	if u.Type != nil {
		c.Type = *u.Type
	}
	if u.Value != nil {
		c.Value = *u.Value
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.ClearStartAt {
		c.StartAt = nil
	} else if u.StartAt != nil {
		c.StartAt = u.StartAt
	}
	if u.ClearEndAt {
		c.EndAt = nil
	} else if u.EndAt != nil {
		c.EndAt = u.EndAt
	}
	if u.UsageLimit != nil {
		c.UsageLimit = *u.UsageLimit
	}
	if u.MinOrderAmount != nil {
		c.MinOrderAmount = *u.MinOrderAmount
	}
	return &c
}

func validate(c *Coupon) error {
	if c.Code == "" || len(c.Code) > 50 {
		return apperr.InvalidInput("Coupon code must be between 1 and 50 characters")
	}
	switch c.Type {
	case TypeFlat:
		if !c.Value.IsPositive() {
			return apperr.InvalidInput("Flat coupon value must be greater than 0")
		}
	case TypePercent:
		if !c.Value.IsPositive() || c.Value.GreaterThan(hundred) {
			return apperr.InvalidInput("Percent coupon value must be greater than 0 and at most 100")
		}
	default:
		return apperr.InvalidInput("Coupon type must be flat or percent")
	}
	switch c.Status {
	case StatusActive, StatusExpired, StatusDisabled:
	default:
		return apperr.InvalidInput("Coupon status must be active, expired or disabled")
	}
	if c.UsageLimit != UnlimitedUsage && c.UsageLimit < 1 {
		return apperr.InvalidInput("Usage limit must be -1 (unlimited) or at least 1")
	}
	if c.MinOrderAmount.IsNegative() {
		return apperr.InvalidInput("Minimum order amount must not be negative")
	}
	if c.StartAt != nil && c.EndAt != nil && c.EndAt.Before(*c.StartAt) {
		return apperr.InvalidInput("Coupon end date must be after its start date")
	}
	return nil
}
