package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/product"
)

func newProduct(id string, price string, stock int) *product.Product {
	return &product.Product{
		ID:           id,
		StoreID:      "s1",
		Name:         "Item " + id,
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		Availability: product.AvailabilityShow,
	}
}

func TestPrice_Totals(t *testing.T) {
	p1 := newProduct("p1", "10.50", product.UnlimitedStock)
	p2 := newProduct("p2", "3.25", 4)

	q, err := Price("s1", []Request{
		{ProductID: "p1", Product: p1, Quantity: 2, Size: "M"},
		{ProductID: "p2", Product: p2, Quantity: 4, Color: "Red"},
	}, ShippingPickup, decimal.NewFromInt(40))
	require.NoError(t, err)

	require.Len(t, q.Lines, 2)
	assert.True(t, decimal.RequireFromString("21.00").Equal(q.Lines[0].LineTotal))
	assert.True(t, decimal.RequireFromString("13.00").Equal(q.Lines[1].LineTotal))
	assert.True(t, decimal.RequireFromString("34.00").Equal(q.Subtotal))
	assert.True(t, decimal.Zero.Equal(q.ShippingFee), "pickup never charges a fee")
	assert.Equal(t, "M", q.Lines[0].Size)
	assert.Equal(t, "Red", q.Lines[1].Color)
	assert.Equal(t, "Item p1", q.Lines[0].Name)
}

func TestPrice_SubtotalIsSumOfLines(t *testing.T) {
	products := []*product.Product{
		newProduct("a", "0.10", -1),
		newProduct("b", "19.99", -1),
		newProduct("c", "7", -1),
		newProduct("d", "1234.56", -1),
	}
	qty := []int{3, 7, 1, 2}

	reqs := make([]Request, len(products))
	want := decimal.Zero
	for i, p := range products {
		reqs[i] = Request{ProductID: p.ID, Product: p, Quantity: qty[i]}
		want = want.Add(p.Price.Mul(decimal.NewFromInt(int64(qty[i]))))
	}

	q, err := Price("s1", reqs, ShippingDelivery, decimal.NewFromInt(50))
	require.NoError(t, err)

	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.LineTotal)
	}
	assert.True(t, want.Equal(q.Subtotal))
	assert.True(t, sum.Equal(q.Subtotal))
	assert.True(t, decimal.NewFromInt(50).Equal(q.ShippingFee))
}

func TestPrice_Rejections(t *testing.T) {
	hidden := newProduct("hidden", "5", -1)
	hidden.Availability = product.AvailabilityHide
	foreign := newProduct("foreign", "5", -1)
	foreign.StoreID = "s2"
	low := newProduct("low", "5", 2)

	tests := []struct {
		name     string
		req      Request
		wantKind apperr.Kind
		wantMsg  string
	}{
		{
			name:     "absent product",
			req:      Request{ProductID: "missing", Quantity: 1},
			wantKind: apperr.KindUnavailable,
			wantMsg:  "Product missing not found or unavailable",
		},
		{
			name:     "hidden product",
			req:      Request{ProductID: "hidden", Product: hidden, Quantity: 1},
			wantKind: apperr.KindUnavailable,
			wantMsg:  "Product hidden not found or unavailable",
		},
		{
			name:     "other store",
			req:      Request{ProductID: "foreign", Product: foreign, Quantity: 1},
			wantKind: apperr.KindUnavailable,
			wantMsg:  "Product foreign not found or unavailable",
		},
		{
			name:     "quantity above finite stock",
			req:      Request{ProductID: "low", Product: low, Quantity: 3},
			wantKind: apperr.KindInsufficientStock,
			wantMsg:  "Insufficient stock for Item low",
		},
		{
			name:     "zero quantity",
			req:      Request{ProductID: "low", Product: low, Quantity: 0},
			wantKind: apperr.KindInvalidInput,
		},
		{
			name:     "quantity above limit",
			req:      Request{ProductID: "ok", Product: newProduct("ok", "1", -1), Quantity: MaxQuantity + 1},
			wantKind: apperr.KindInvalidInput,
			wantMsg:  "Quantity must be between 1 and 10000 for product ok",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok := newProduct("ok", "1", -1)
			_, err := Price("s1", []Request{
				{ProductID: "ok", Product: ok, Quantity: 1},
				tt.req,
			}, ShippingPickup, decimal.Zero)

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, err.Error())
			}
		})
	}
}

func TestPrice_InsufficientStockNamesProduct(t *testing.T) {
	low := newProduct("low", "5", 1)

	_, err := Price("s1", []Request{{ProductID: "low", Product: low, Quantity: 2}}, ShippingPickup, decimal.Zero)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "low", stockErr.ProductID)
}

func TestPrice_StockExactlyEnough(t *testing.T) {
	p := newProduct("p", "5", 3)

	q, err := Price("s1", []Request{{ProductID: "p", Product: p, Quantity: 3}}, ShippingPickup, decimal.Zero)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(15).Equal(q.Subtotal))
}

func TestPrice_Empty(t *testing.T) {
	_, err := Price("s1", nil, ShippingPickup, decimal.Zero)
	assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
}

func TestPrice_AmountLimit(t *testing.T) {
	pricey := newProduct("p", "999999999.99", product.UnlimitedStock)

	t.Run("Subtotal", func(t *testing.T) {
		_, err := Price("s1", []Request{{ProductID: "p", Product: pricey, Quantity: 11}}, ShippingPickup, decimal.Zero)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
		assert.Equal(t, "Order total exceeds the maximum of 9999999999.99", err.Error())
	})
	t.Run("WithShipping", func(t *testing.T) {
		_, err := Price("s1", []Request{{ProductID: "p", Product: pricey, Quantity: 10}}, ShippingDelivery, decimal.RequireFromString("0.10"))
		assert.Equal(t, apperr.KindInvalidInput, apperr.KindOf(err))
	})
	t.Run("AtLimit", func(t *testing.T) {
		q, err := Price("s1", []Request{{ProductID: "p", Product: pricey, Quantity: 10}}, ShippingPickup, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, MaxAmount.Sub(decimal.RequireFromString("0.09")).Equal(q.Subtotal))
	})
}
