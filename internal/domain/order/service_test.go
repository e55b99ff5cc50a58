package order

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/coupon"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/store"
)

// --- Mock implementations ---

type mockStores struct {
	st *store.Store
}

func (m *mockStores) Get(_ context.Context, storeID string) (*store.Store, error) {
	if m.st == nil || m.st.ID != storeID {
		return nil, store.ErrNotFound
	}
	return m.st, nil
}

func (m *mockStores) Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error) {
	st, err := m.Get(ctx, storeID)
	if err != nil || st.OwnerID != ownerID {
		return nil, store.ErrNotFound
	}
	return st, nil
}

type mockProducts struct {
	byID         map[string]*product.Product
	decremented  map[string]int
	decrementErr error
}

func (m *mockProducts) GetByIDs(_ context.Context, storeID string, ids []string) ([]product.Product, error) {
	var out []product.Product
	for _, id := range ids {
		if p, ok := m.byID[id]; ok && p.StoreID == storeID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProducts) DecrementStock(_ context.Context, id string, qty int) (bool, error) {
	if m.decrementErr != nil {
		return false, m.decrementErr
	}
	p := m.byID[id]
	if p.Unlimited() {
		return true, nil
	}
	if p.Stock < qty {
		return false, nil
	}
	if m.decremented == nil {
		m.decremented = map[string]int{}
	}
	m.decremented[id] += qty
	return true, nil
}

type mockCoupons struct {
	byCode   map[string]*coupon.Coupon
	claimErr error
	claimed  int
}

func (m *mockCoupons) FindByCode(_ context.Context, _, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

func (m *mockCoupons) ClaimUsage(_ context.Context, _ string) error {
	if m.claimErr != nil {
		return m.claimErr
	}
	m.claimed++
	return nil
}

type mockOrderRepo struct {
	latest      string
	createErrs  []error
	created     []*Order
	transitions []string
	byID        map[string]*Order
	paymentSet  *PaymentStatus
	transErr    error
}

func (m *mockOrderRepo) LatestNumber(_ context.Context, _ string) (string, error) {
	return m.latest, nil
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	if len(m.createErrs) > 0 {
		err := m.createErrs[0]
		m.createErrs = m.createErrs[1:]
		if err != nil {
			return err
		}
	}
	cp := *o
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockOrderRepo) Get(_ context.Context, storeID, id string) (*Order, error) {
	o, ok := m.byID[id]
	if !ok || o.StoreID != storeID {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) GetByToken(_ context.Context, token string) (*Order, error) {
	for _, o := range m.byID {
		if o.TrackToken == token {
			return o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockOrderRepo) List(_ context.Context, _ Filter) ([]Order, int, error) {
	return nil, 0, nil
}

func (m *mockOrderRepo) TransitionStatus(_ context.Context, id string, from, to Status) error {
	if m.transErr != nil {
		return m.transErr
	}
	m.transitions = append(m.transitions, fmt.Sprintf("%s:%s->%s", id, from, to))
	if o, ok := m.byID[id]; ok {
		o.Status = to
	}
	return nil
}

func (m *mockOrderRepo) SetPaymentStatus(_ context.Context, id string, ps PaymentStatus) error {
	m.paymentSet = &ps
	if o, ok := m.byID[id]; ok {
		o.PaymentStatus = ps
	}
	return nil
}

type mockTx struct {
	calls int
}

func (m *mockTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockRenderer struct{}

func (mockRenderer) Render(o *Order, st *store.Store) string {
	return fmt.Sprintf("order %s from %s total %s", o.OrderNumber, st.Slug, o.Total.StringFixed(2))
}

func (mockRenderer) DeepLink(phone, text string) string {
	return "https://wa.me/" + store.Digits(phone) + "?len=" + fmt.Sprint(len(text))
}

// --- Helpers ---

type fixture struct {
	svc      *Service
	products *mockProducts
	coupons  *mockCoupons
	orders   *mockOrderRepo
	tx       *mockTx
}

func testStore() *store.Store {
	return &store.Store{
		ID:             "s1",
		OwnerID:        "owner-1",
		Name:           "Chai Corner",
		Slug:           "chai-corner",
		WhatsAppNumber: "+91 98765 43210",
		Currency:       "INR",
		Shipping:       store.Shipping{DeliveryFee: decimal.NewFromInt(40)},
	}
}

func testProduct(id, price string, stock int) *product.Product {
	return &product.Product{
		ID:           id,
		StoreID:      "s1",
		Name:         "Product " + id,
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		Availability: product.AvailabilityShow,
	}
}

func newFixture(products ...*product.Product) *fixture {
	byID := make(map[string]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	f := &fixture{
		products: &mockProducts{byID: byID},
		coupons:  &mockCoupons{byCode: map[string]*coupon.Coupon{}},
		orders:   &mockOrderRepo{byID: map[string]*Order{}},
		tx:       &mockTx{},
	}
	f.svc = NewService(&mockStores{st: testStore()}, f.products, f.coupons, f.orders, f.tx, mockRenderer{})
	f.svc.now = func() time.Time { return time.Date(2025, 3, 9, 10, 30, 0, 0, time.UTC) }
	seq := 0
	f.svc.newID = func() string {
		seq++
		return fmt.Sprintf("o%d", seq)
	}
	f.svc.newToken = func() string {
		return fmt.Sprintf("00000000-0000-4000-8000-%012d", seq)
	}
	return f
}

func placeRequest(items ...ItemRequest) PlaceOrderRequest {
	return PlaceOrderRequest{
		StoreID:  "s1",
		Items:    items,
		Customer: Customer{Name: "Asha", Phone: "+91 91234 56789"},
	}
}

// --- Tests ---

func TestPlaceOrder_NoCoupon(t *testing.T) {
	f := newFixture(testProduct("p1", "10.00", -1), testProduct("p2", "20.00", 5))

	req := placeRequest(
		ItemRequest{ProductID: "p1", Quantity: 2, Size: "M"},
		ItemRequest{ProductID: "p2", Quantity: 1},
	)
	req.ShippingMethod = pricing.ShippingDelivery
	result, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	o := result.Order
	assert.Equal(t, "10001", o.OrderNumber)
	assert.Equal(t, StatusSentToWhatsApp, o.Status)
	assert.Equal(t, PaymentPending, o.PaymentStatus)
	assert.Equal(t, PaymentCash, o.PaymentMethod)
	assert.Equal(t, "INR", o.Currency)
	assert.True(t, decimal.RequireFromString("40.00").Equal(o.Subtotal))
	assert.True(t, decimal.NewFromInt(40).Equal(o.ShippingFee))
	assert.True(t, decimal.RequireFromString("80.00").Equal(o.Total))
	assert.True(t, o.DiscountAmount.IsZero())
	assert.Empty(t, o.CouponCode)
	assert.Nil(t, result.Coupon)

	require.Len(t, f.orders.created, 1)
	assert.Equal(t, StatusInitiated, f.orders.created[0].Status, "orders are inserted as initiated")
	assert.Equal(t, []string{"o1:initiated->sent_to_whatsapp"}, f.orders.transitions)
	assert.Equal(t, map[string]int{"p2": 1}, f.products.decremented, "unlimited stock is never decremented")
	assert.Equal(t, "order 10001 from chai-corner total 80.00", o.Message)
	assert.Equal(t, fmt.Sprintf("https://wa.me/919876543210?len=%d", len(o.Message)), result.WhatsAppURL)
}

func TestPlaceOrder_OrderNumberSequence(t *testing.T) {
	f := newFixture(testProduct("p1", "1", -1))
	f.orders.latest = "10041"

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest(ItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "10042", result.Order.OrderNumber)
}

func TestPlaceOrder_RetriesOnUniqueConflict(t *testing.T) {
	f := newFixture(testProduct("p1", "1", -1))
	f.orders.createErrs = []error{ErrNumberTaken, ErrTokenTaken, nil}

	result, err := f.svc.PlaceOrder(context.Background(), placeRequest(ItemRequest{ProductID: "p1", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, 3, f.tx.calls)
	assert.Equal(t, "o3", result.Order.ID)
	require.Len(t, f.orders.created, 1)
}

func TestPlaceOrder_RetriesExhausted(t *testing.T) {
	f := newFixture(testProduct("p1", "1", -1))
	for range maxPlaceAttempts {
		f.orders.createErrs = append(f.orders.createErrs, ErrNumberTaken)
	}

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest(ItemRequest{ProductID: "p1", Quantity: 1}))
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	assert.Equal(t, maxPlaceAttempts, f.tx.calls)
}

func TestPlaceOrder_ValidCoupon(t *testing.T) {
	f := newFixture(testProduct("p1", "100.00", -1))
	f.coupons.byCode["SAVE10"] = &coupon.Coupon{
		ID: "c1", Code: "SAVE10", Type: coupon.TypePercent,
		Value: decimal.NewFromInt(10), Status: coupon.StatusActive, UsageLimit: coupon.UnlimitedUsage,
	}

	req := placeRequest(ItemRequest{ProductID: "p1", Quantity: 2})
	req.CouponCode = " save10 "
	result, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	o := result.Order
	assert.True(t, decimal.NewFromInt(20).Equal(o.DiscountAmount))
	assert.True(t, decimal.NewFromInt(180).Equal(o.Total))
	assert.Equal(t, "SAVE10", o.CouponCode)
	assert.Equal(t, 1, f.coupons.claimed)
	require.NotNil(t, result.Coupon)
	assert.True(t, result.Coupon.Valid)
}

func TestPlaceOrder_PercentDiscountInCents(t *testing.T) {
	f := newFixture(testProduct("p1", "0.10", -1))
	f.coupons.byCode["TINY5"] = &coupon.Coupon{
		ID: "c1", Code: "TINY5", Type: coupon.TypePercent,
		Value: decimal.NewFromInt(5), Status: coupon.StatusActive, UsageLimit: coupon.UnlimitedUsage,
	}

	req := placeRequest(ItemRequest{ProductID: "p1", Quantity: 1})
	req.CouponCode = "TINY5"
	result, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	o := result.Order
	assert.True(t, decimal.RequireFromString("0.01").Equal(o.DiscountAmount))
	assert.True(t, decimal.RequireFromString("0.09").Equal(o.Total))
	assert.True(t, o.Subtotal.Add(o.ShippingFee).Sub(o.DiscountAmount).Equal(o.Total))
}

func TestPlaceOrder_InvalidCouponDegrades(t *testing.T) {
	tests := []struct {
		name    string
		coupon  *coupon.Coupon
		wantMsg string
	}{
		{name: "unknown code", wantMsg: coupon.MsgInvalidCode},
		{
			name: "disabled",
			coupon: &coupon.Coupon{
				ID: "c1", Code: "X", Type: coupon.TypeFlat, Value: decimal.NewFromInt(5),
				Status: coupon.StatusDisabled, UsageLimit: -1,
			},
			wantMsg: coupon.MsgNotActive,
		},
		{
			name: "below minimum",
			coupon: &coupon.Coupon{
				ID: "c1", Code: "X", Type: coupon.TypeFlat, Value: decimal.NewFromInt(5),
				Status: coupon.StatusActive, UsageLimit: -1, MinOrderAmount: decimal.NewFromInt(500),
			},
			wantMsg: "Minimum order amount is 500.00",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testProduct("p1", "50", -1))
			if tt.coupon != nil {
				f.coupons.byCode["X"] = tt.coupon
			}

			req := placeRequest(ItemRequest{ProductID: "p1", Quantity: 1})
			req.CouponCode = "X"
			result, err := f.svc.PlaceOrder(context.Background(), req)
			require.NoError(t, err)

			assert.True(t, result.Order.DiscountAmount.IsZero())
			assert.Empty(t, result.Order.CouponCode)
			assert.True(t, decimal.NewFromInt(50).Equal(result.Order.Total))
			assert.Zero(t, f.coupons.claimed)
			require.NotNil(t, result.Coupon)
			assert.False(t, result.Coupon.Valid)
			assert.Equal(t, tt.wantMsg, result.Coupon.Message)
		})
	}
}

func TestPlaceOrder_LostCouponClaim(t *testing.T) {
	f := newFixture(testProduct("p1", "50", -1))
	f.coupons.byCode["LAST"] = &coupon.Coupon{
		ID: "c1", Code: "LAST", Type: coupon.TypeFlat, Value: decimal.NewFromInt(5),
		Status: coupon.StatusActive, UsageLimit: 1,
	}
	f.coupons.claimErr = coupon.ErrUsageExhausted

	req := placeRequest(ItemRequest{ProductID: "p1", Quantity: 1})
	req.CouponCode = "LAST"
	result, err := f.svc.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, result.Order.DiscountAmount.IsZero())
	assert.True(t, decimal.NewFromInt(50).Equal(result.Order.Total))
	require.NotNil(t, result.Coupon)
	assert.False(t, result.Coupon.Valid)
	assert.Equal(t, coupon.MsgUsageExceeded, result.Coupon.Message)
}

func TestPlaceOrder_StockFloorAcrossLines(t *testing.T) {
	f := newFixture(testProduct("p1", "5", 3))

	// Each line fits the stock on its own, together they exceed it.
	_, err := f.svc.PlaceOrder(context.Background(), placeRequest(
		ItemRequest{ProductID: "p1", Quantity: 2, Size: "S"},
		ItemRequest{ProductID: "p1", Quantity: 2, Size: "L"},
	))

	var stockErr *pricing.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "p1", stockErr.ProductID)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
}

func TestPlaceOrder_RejectsBeforeWrites(t *testing.T) {
	hidden := testProduct("hidden", "5", -1)
	hidden.Availability = product.AvailabilityHide

	tests := []struct {
		name     string
		req      PlaceOrderRequest
		wantKind apperr.Kind
	}{
		{
			name:     "empty cart",
			req:      placeRequest(),
			wantKind: apperr.KindInvalidInput,
		},
		{
			name:     "unknown product",
			req:      placeRequest(ItemRequest{ProductID: "missing", Quantity: 1}),
			wantKind: apperr.KindUnavailable,
		},
		{
			name:     "hidden product",
			req:      placeRequest(ItemRequest{ProductID: "hidden", Quantity: 1}),
			wantKind: apperr.KindUnavailable,
		},
		{
			name:     "zero quantity",
			req:      placeRequest(ItemRequest{ProductID: "p1", Quantity: 0}),
			wantKind: apperr.KindInvalidInput,
		},
		{
			name:     "over stock",
			req:      placeRequest(ItemRequest{ProductID: "p1", Quantity: 9}),
			wantKind: apperr.KindInsufficientStock,
		},
		{
			name: "bad phone",
			req: PlaceOrderRequest{
				StoreID:  "s1",
				Items:    []ItemRequest{{ProductID: "p1", Quantity: 1}},
				Customer: Customer{Name: "Asha", Phone: "call me"},
			},
			wantKind: apperr.KindInvalidInput,
		},
		{
			name: "unknown store",
			req: PlaceOrderRequest{
				StoreID:  "nope",
				Items:    []ItemRequest{{ProductID: "p1", Quantity: 1}},
				Customer: Customer{Name: "Asha", Phone: "9123456789"},
			},
			wantKind: apperr.KindNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(testProduct("p1", "5", 2), hidden)

			_, err := f.svc.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			assert.Zero(t, f.tx.calls)
			assert.Empty(t, f.orders.created)
		})
	}
}

func TestPlaceOrder_StorageError(t *testing.T) {
	f := newFixture(testProduct("p1", "5", 2))
	f.products.decrementErr = errors.New("connection reset")

	_, err := f.svc.PlaceOrder(context.Background(), placeRequest(ItemRequest{ProductID: "p1", Quantity: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decrement stock")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestService_Update(t *testing.T) {
	tests := []struct {
		name     string
		from     Status
		to       Status
		transErr error
		wantKind apperr.Kind
		wantErr  bool
	}{
		{name: "forward", from: StatusSentToWhatsApp, to: StatusConfirmed},
		{name: "cancel", from: StatusShipped, to: StatusCancelled},
		{name: "skip ahead", from: StatusSentToWhatsApp, to: StatusDelivered, wantErr: true, wantKind: apperr.KindInvalidInput},
		{name: "from terminal", from: StatusDelivered, to: StatusCancelled, wantErr: true, wantKind: apperr.KindInvalidInput},
		{name: "lost race", from: StatusConfirmed, to: StatusShipped, transErr: ErrStatusChanged, wantErr: true, wantKind: apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.orders.byID["o1"] = &Order{ID: "o1", StoreID: "s1", Status: tt.from, PaymentStatus: PaymentPending}
			f.orders.transErr = tt.transErr

			to := tt.to
			o, err := f.svc.Update(context.Background(), "owner-1", "s1", "o1", Update{Status: &to})
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, o.Status)
		})
	}
}

func TestService_Update_PaymentStatus(t *testing.T) {
	f := newFixture()
	f.orders.byID["o1"] = &Order{ID: "o1", StoreID: "s1", Status: StatusDelivered, PaymentStatus: PaymentPending}

	paid := PaymentPaid
	o, err := f.svc.Update(context.Background(), "owner-1", "s1", "o1", Update{PaymentStatus: &paid})
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, o.PaymentStatus)
	assert.Empty(t, f.orders.transitions)

	_, err = f.svc.Update(context.Background(), "intruder", "s1", "o1", Update{PaymentStatus: &paid})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_Track(t *testing.T) {
	f := newFixture()
	token := "6f1c1f7e-2b5a-4c1e-9d0a-3f2e1b4c5d6e"
	f.orders.byID["o1"] = &Order{
		ID: "o1", StoreID: "s1", OrderNumber: "10007", Status: StatusShipped,
		TrackToken: token, Currency: "INR", Total: decimal.NewFromInt(99),
		Items: []Item{{ProductID: "p1", Name: "Tea", Quantity: 1}},
	}

	tr, err := f.svc.Track(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "10007", tr.OrderNumber)
	assert.Equal(t, "s1", tr.StoreID)
	assert.Equal(t, StatusShipped, tr.Status)
	assert.Equal(t, "Chai Corner", tr.StoreName)
	assert.Equal(t, "+91 98765 43210", tr.StoreWhatsApp)
	assert.Len(t, tr.Items, 1)

	_, err = f.svc.Track(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(StatusInitiated, StatusSentToWhatsApp))
	assert.True(t, CanTransition(StatusInitiated, StatusCancelled))
	assert.False(t, CanTransition(StatusConfirmed, StatusInitiated))
	assert.False(t, CanTransition(StatusCancelled, StatusConfirmed))
	for _, s := range []Status{StatusDelivered, StatusCancelled} {
		assert.True(t, s.Terminal())
	}
}

func TestNextNumber(t *testing.T) {
	tests := map[string]string{
		"":      "10001",
		"10001": "10002",
		"99":    "100",
		"ABC":   "10001",
		"-5":    "10001",
	}
	for prev, want := range tests {
		assert.Equal(t, want, NextNumber(prev), "prev %q", prev)
	}
}
