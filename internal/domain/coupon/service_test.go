package coupon

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/store"
)

type mockStores struct {
	st *store.Store
}

func (m *mockStores) Owned(_ context.Context, ownerID, storeID string) (*store.Store, error) {
	if m.st == nil || m.st.ID != storeID || m.st.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return m.st, nil
}

func (m *mockStores) Get(_ context.Context, storeID string) (*store.Store, error) {
	if m.st == nil || m.st.ID != storeID {
		return nil, store.ErrNotFound
	}
	return m.st, nil
}

type mockCouponRepo struct {
	byCode     map[string]*Coupon
	createErr  error
	created    *Coupon
	updated    *Update
	lookupCode string
}

func (m *mockCouponRepo) Create(_ context.Context, c *Coupon) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = c
	return nil
}

func (m *mockCouponRepo) Get(_ context.Context, _, id string) (*Coupon, error) {
	for _, c := range m.byCode {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockCouponRepo) FindByCode(_ context.Context, _, code string) (*Coupon, error) {
	m.lookupCode = code
	c, ok := m.byCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

func (m *mockCouponRepo) List(_ context.Context, _ string) ([]Coupon, error) {
	return nil, nil
}

func (m *mockCouponRepo) Update(_ context.Context, storeID, id string, u Update) (*Coupon, error) {
	m.updated = &u
	return m.Get(context.Background(), storeID, id)
}

func (m *mockCouponRepo) Delete(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockCouponRepo) ClaimUsage(_ context.Context, _ string) error {
	return nil
}

func newCouponService(repo *mockCouponRepo, plan store.Plan) *Service {
	svc := NewService(repo, &mockStores{st: &store.Store{
		ID:      "s1",
		OwnerID: "owner-1",
		Premium: store.Premium{Plan: plan},
	}})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "c-new" }
	return svc
}

func TestService_Create(t *testing.T) {
	repo := &mockCouponRepo{}
	svc := newCouponService(repo, store.PlanGrowth)

	c, err := svc.Create(context.Background(), "owner-1", "s1", Draft{
		Code:  "  save10 ",
		Type:  TypePercent,
		Value: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", c.Code)
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, UnlimitedUsage, c.UsageLimit)
	assert.Same(t, c, repo.created)
}

func TestService_Create_StarterPlanLocked(t *testing.T) {
	svc := newCouponService(&mockCouponRepo{}, store.PlanStarter)

	_, err := svc.Create(context.Background(), "owner-1", "s1", Draft{
		Code: "X", Type: TypeFlat, Value: decimal.NewFromInt(1),
	})
	require.ErrorIs(t, err, store.ErrCouponsLocked)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{name: "empty code", draft: Draft{Code: " ", Type: TypeFlat, Value: decimal.NewFromInt(1)}},
		{name: "unknown type", draft: Draft{Code: "X", Type: "bogus", Value: decimal.NewFromInt(1)}},
		{name: "percent over 100", draft: Draft{Code: "X", Type: TypePercent, Value: decimal.NewFromInt(101)}},
		{name: "zero flat value", draft: Draft{Code: "X", Type: TypeFlat, Value: decimal.Zero}},
		{name: "usage limit below sentinel", draft: Draft{Code: "X", Type: TypeFlat, Value: decimal.NewFromInt(1), UsageLimit: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockCouponRepo{}
			svc := newCouponService(repo, store.PlanPro)

			_, err := svc.Create(context.Background(), "owner-1", "s1", tt.draft)
			assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
			assert.Nil(t, repo.created)
		})
	}
}

func TestService_Create_DuplicateCode(t *testing.T) {
	svc := newCouponService(&mockCouponRepo{createErr: ErrCodeTaken}, store.PlanPro)

	_, err := svc.Create(context.Background(), "owner-1", "s1", Draft{
		Code: "DUP", Type: TypeFlat, Value: decimal.NewFromInt(5),
	})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestService_Update_ValidatesMerged(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*Coupon{
		"SAVE": {ID: "c1", Code: "SAVE", Type: TypeFlat, Value: decimal.NewFromInt(500), Status: StatusActive, UsageLimit: -1},
	}}
	svc := newCouponService(repo, store.PlanPro)

	// Switching to percent keeps the old value of 500, which is out of range.
	typ := TypePercent
	_, err := svc.Update(context.Background(), "owner-1", "s1", "c1", Update{Type: &typ})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Nil(t, repo.updated)

	code := "new code"
	_, err = svc.Update(context.Background(), "owner-1", "s1", "c1", Update{Code: &code})
	require.NoError(t, err)
	require.NotNil(t, repo.updated)
	assert.Equal(t, "NEW CODE", *repo.updated.Code)
}

func TestService_Validate(t *testing.T) {
	repo := &mockCouponRepo{byCode: map[string]*Coupon{
		"SAVE10": {ID: "c1", Code: "SAVE10", Type: TypePercent, Value: decimal.NewFromInt(10), Status: StatusActive, UsageLimit: -1},
	}}
	svc := newCouponService(repo, store.PlanStarter)

	res, err := svc.Validate(context.Background(), "s1", "save10", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", repo.lookupCode)
	assert.True(t, res.Valid)
	assert.True(t, decimal.NewFromInt(20).Equal(res.Discount))

	res, err = svc.Validate(context.Background(), "s1", "NOPE", decimal.NewFromInt(200))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, MsgInvalidCode, res.Message)

	_, err = svc.Validate(context.Background(), "other-store", "SAVE10", decimal.NewFromInt(200))
	require.ErrorIs(t, err, store.ErrNotFound)
}
