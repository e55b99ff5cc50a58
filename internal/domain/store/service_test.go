package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
)

type mockStoreRepo struct {
	byID      map[string]*Store
	takenLeft int
	creates   int
	saved     *Store
	deleted   string
}

func newMockStoreRepo(stores ...*Store) *mockStoreRepo {
	m := &mockStoreRepo{byID: map[string]*Store{}}
	for _, s := range stores {
		m.byID[s.ID] = s
	}
	return m
}

func (m *mockStoreRepo) Create(_ context.Context, s *Store) error {
	m.creates++
	if m.takenLeft > 0 {
		m.takenLeft--
		return ErrSlugTaken
	}
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockStoreRepo) Get(_ context.Context, id string) (*Store, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *mockStoreRepo) GetBySlug(_ context.Context, slug string) (*Store, error) {
	for _, s := range m.byID {
		if s.Slug == slug {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockStoreRepo) ListByOwner(_ context.Context, ownerID string) ([]Store, error) {
	var out []Store
	for _, s := range m.byID {
		if s.OwnerID == ownerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStoreRepo) Save(_ context.Context, s *Store) error {
	cp := *s
	m.saved = &cp
	m.byID[s.ID] = &cp
	return nil
}

func (m *mockStoreRepo) Delete(_ context.Context, id string) error {
	m.deleted = id
	delete(m.byID, id)
	return nil
}

func (m *mockStoreRepo) SetSyncState(_ context.Context, _ string, _ SyncState) error {
	return nil
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	svc.newID = func() string { return "store-1" }
	svc.suffix = func() string { return "abcd1234" }
	return svc
}

func TestService_Create_Defaults(t *testing.T) {
	svc := newTestService(newMockStoreRepo())

	st, err := svc.Create(context.Background(), "owner-1", CreateParams{
		Name:           "Ravi's Kurtas",
		WhatsAppNumber: "+91 98765 43210",
	})
	require.NoError(t, err)

	assert.Equal(t, "ravi-s-kurtas-abcd1234", st.Slug)
	assert.Equal(t, LanguageEnglish, st.Language)
	assert.Equal(t, DefaultTemplate, st.Template)
	assert.Equal(t, DefaultTheme, st.Theme)
	assert.Equal(t, "INR", st.Currency)
	assert.Equal(t, DefaultBrandColor, st.Branding.BrandColor)
	assert.Equal(t, Sections{Header: true, Banner: false, Products: true, Footer: true}, st.Sections)
	assert.Equal(t, PlanStarter, st.Premium.Plan)
	assert.Equal(t, 50, st.Premium.Limit())
	assert.False(t, st.Premium.AllowsCoupons())
	assert.Equal(t, SyncIdle, st.Sheets.SyncStatus)
}

func TestService_Create_Validation(t *testing.T) {
	svc := newTestService(newMockStoreRepo())

	_, err := svc.Create(context.Background(), "owner-1", CreateParams{Name: " ", WhatsAppNumber: "9876543210"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), "owner-1", CreateParams{Name: "Shop", WhatsAppNumber: "123"})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))

	_, err = svc.Create(context.Background(), "owner-1", CreateParams{
		Name: "Shop", WhatsAppNumber: "9876543210", Language: "fr",
	})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestService_Create_RetriesSlugCollision(t *testing.T) {
	repo := newMockStoreRepo()
	repo.takenLeft = 2
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "owner-1", CreateParams{Name: "Shop", WhatsAppNumber: "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, 3, repo.creates)
}

func TestService_Create_SlugAttemptsExhausted(t *testing.T) {
	repo := newMockStoreRepo()
	repo.takenLeft = maxSlugAttempts
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), "owner-1", CreateParams{Name: "Shop", WhatsAppNumber: "9876543210"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestService_Owned(t *testing.T) {
	repo := newMockStoreRepo(&Store{ID: "s1", OwnerID: "owner-1"})
	svc := newTestService(repo)

	st, err := svc.Owned(context.Background(), "owner-1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", st.ID)

	_, err = svc.Owned(context.Background(), "intruder", "s1")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Owned(context.Background(), "owner-1", "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_Update(t *testing.T) {
	repo := newMockStoreRepo(&Store{
		ID: "s1", OwnerID: "owner-1", Name: "Old", WhatsAppNumber: "9876543210",
		Shipping: Shipping{PickupEnabled: true, DeliveryEnabled: true, DeliveryFee: decimal.Zero},
	})
	svc := newTestService(repo)

	name := "New Name"
	fee := decimal.NewFromInt(40)
	sheetURL := "https://docs.google.com/spreadsheets/d/SHEET123/edit"
	st, err := svc.Update(context.Background(), "owner-1", "s1", Update{
		Name:     &name,
		Shipping: &ShippingUpdate{DeliveryFee: &fee},
		SheetURL: &sheetURL,
	})
	require.NoError(t, err)

	assert.Equal(t, "New Name", st.Name)
	assert.True(t, fee.Equal(st.Shipping.DeliveryFee))
	assert.True(t, st.Shipping.PickupEnabled, "unset nested fields keep their values")
	assert.Equal(t, "SHEET123", st.Sheets.SheetID)
	require.NotNil(t, repo.saved)
	assert.Equal(t, "New Name", repo.saved.Name)
}

func TestService_Update_InvalidLeavesStoreUntouched(t *testing.T) {
	repo := newMockStoreRepo(&Store{ID: "s1", OwnerID: "owner-1", Name: "Old"})
	svc := newTestService(repo)

	name := "New"
	bad := "not a sheet"
	_, err := svc.Update(context.Background(), "owner-1", "s1", Update{Name: &name, SheetURL: &bad})
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	assert.Nil(t, repo.saved)
}

func TestService_Delete(t *testing.T) {
	repo := newMockStoreRepo(&Store{ID: "s1", OwnerID: "owner-1"})
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "intruder", "s1")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, repo.deleted)

	require.NoError(t, svc.Delete(context.Background(), "owner-1", "s1"))
	assert.Equal(t, "s1", repo.deleted)
}

func TestPremium_Gates(t *testing.T) {
	assert.False(t, Premium{Plan: PlanStarter}.AllowsCoupons())
	assert.True(t, Premium{Plan: PlanStarter, CouponsEnabled: true}.AllowsCoupons())
	assert.True(t, Premium{Plan: PlanGrowth}.AllowsCoupons())
	assert.True(t, Premium{Plan: PlanPro}.AllowsPages())
	assert.False(t, Premium{Plan: PlanStarter}.AllowsPages())
	assert.Equal(t, 200, Premium{ProductLimit: 200}.Limit())
}
