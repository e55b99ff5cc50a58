package whatsapp

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/pricing"
	"github.com/xenking/storefront/internal/domain/store"
)

func testOrder() *order.Order {
	return &order.Order{
		OrderNumber: "10001",
		Customer: order.Customer{
			Name:    "Asha",
			Phone:   "+91 91234 56789",
			Email:   "asha@example.com",
			Address: "12 MG Road",
		},
		Items: []order.Item{
			{Name: "T-Shirt", Quantity: 2, Size: "M", Color: "Red"},
			{Name: "Mug", Quantity: 1, Size: "M"},
			{Name: "Sticker", Quantity: 3},
		},
		Currency:       "inr",
		Subtotal:       decimal.RequireFromString("250"),
		ShippingMethod: pricing.ShippingDelivery,
		ShippingFee:    decimal.NewFromInt(40),
		DiscountAmount: decimal.RequireFromString("25.5"),
		CouponCode:     "SAVE10",
		Total:          decimal.RequireFromString("264.5"),
		PaymentMethod:  order.PaymentCash,
		TrackToken:     "tok-123",
		CreatedAt:      time.Date(2025, 3, 9, 18, 0, 0, 0, time.UTC),
	}
}

func testStore(lang store.Language) *store.Store {
	return &store.Store{Slug: "chai-corner", Language: lang}
}

func TestRender_English(t *testing.T) {
	r := NewRenderer("", "")

	got := r.Render(testOrder(), testStore(store.LanguageEnglish))

	want := strings.Join([]string{
		"Order from chai-corner.mywabiz.in",
		"",
		"Order Number: 10001",
		"Date: 09/03/2025",
		"",
		"Name: Asha",
		"Email: asha@example.com",
		"Phone: +91 91234 56789",
		"",
		"Products:",
		"2 x T-Shirt ( Size - M, Color - Red )",
		"1 x Mug ( Size - M )",
		"3 x Sticker",
		"",
		"Shipping: Delivery",
		"Address: 12 MG Road",
		"",
		"Payment Method: Cash",
		"",
		"Subtotal: ₹250.00",
		"Shipping Fee: ₹40.00",
		"Discount: -₹25.50 (Coupon: SAVE10)",
		"Total: ₹264.50",
		"",
		"You can track your order at https://chai-corner.mywabiz.in/orders/tok-123",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestRender_OptionalLines(t *testing.T) {
	o := testOrder()
	o.Customer.Email = ""
	o.ShippingMethod = pricing.ShippingPickup
	o.ShippingFee = decimal.Zero
	o.DiscountAmount = decimal.Zero
	o.CouponCode = ""
	o.PaymentMethod = order.PaymentPayPal
	o.Currency = "XYZ"
	o.Total = o.Subtotal

	got := NewRenderer("shop.test", "").Render(o, testStore(store.LanguageEnglish))

	assert.NotContains(t, got, "Email:")
	assert.NotContains(t, got, "Address:")
	assert.NotContains(t, got, "Shipping Fee:")
	assert.NotContains(t, got, "Discount:")
	assert.Contains(t, got, "Shipping: Pickup")
	assert.Contains(t, got, "Payment Method: PayPal")
	assert.Contains(t, got, "Subtotal: XYZ250.00")
	assert.True(t, strings.HasPrefix(got, "Order from chai-corner.shop.test\n"))
}

func TestRender_Languages(t *testing.T) {
	tests := []struct {
		lang store.Language
		want string
	}{
		{lang: store.LanguageHindi, want: "ऑर्डर नंबर: 10001"},
		{lang: store.LanguagePunjabi, want: "ਆਰਡਰ ਨੰਬਰ: 10001"},
		{lang: store.LanguageCroatian, want: "Broj narudžbe: 10001"},
		{lang: store.LanguageGujarati, want: "ઓર્ડર નંબર: 10001"},
		{lang: "fr", want: "Order Number: 10001"},
		{lang: "", want: "Order Number: 10001"},
	}
	for _, tt := range tests {
		t.Run(string(tt.lang), func(t *testing.T) {
			got := NewRenderer("", "").Render(testOrder(), testStore(tt.lang))
			assert.Contains(t, got, tt.want)
		})
	}
}

func TestCurrencySymbol(t *testing.T) {
	assert.Equal(t, "₹", CurrencySymbol("INR"))
	assert.Equal(t, "$", CurrencySymbol("usd"))
	assert.Equal(t, "NZ$", CurrencySymbol("NZD"))
	assert.Equal(t, "BRL", CurrencySymbol("BRL"))
}

func TestDeepLink(t *testing.T) {
	r := NewRenderer("", "")

	link := r.DeepLink("+91 98765-43210", "Hi there & 50% off!\nline 2+3")

	require.True(t, strings.HasPrefix(link, "https://wa.me/919876543210?text="))
	encoded := strings.TrimPrefix(link, "https://wa.me/919876543210?text=")
	assert.NotContains(t, encoded, "+")
	assert.NotContains(t, encoded, " ")
	assert.Contains(t, encoded, "Hi%20there%20%26%2050%25%20off%21%0Aline%202%2B3")

	decoded, err := url.QueryUnescape(encoded)
	require.NoError(t, err)
	assert.Equal(t, "Hi there & 50% off!\nline 2+3", decoded)
}

func TestDeepLink_CustomBase(t *testing.T) {
	r := NewRenderer("", "https://api.whatsapp.test/")

	assert.Equal(t, "https://api.whatsapp.test/5550001111?text=hello", r.DeepLink("(555) 000-1111 ", "hello"))
}
