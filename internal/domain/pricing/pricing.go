// Package pricing turns requested items into priced order lines.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/product"
)

// ShippingMethod is how an order reaches the customer.
type ShippingMethod string

const (
	ShippingPickup   ShippingMethod = "pickup"
	ShippingDelivery ShippingMethod = "delivery"
)

// Valid reports whether m is a known shipping method.
func (m ShippingMethod) Valid() bool {
	return m == ShippingPickup || m == ShippingDelivery
}

// ProductUnavailableError indicates a product that is absent, belongs to
// another store, or is hidden.
type ProductUnavailableError struct {
	ProductID string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("Product %s not found or unavailable", e.ProductID)
}

// Kind implements apperr.Kinder.
func (e *ProductUnavailableError) Kind() apperr.Kind { return apperr.KindUnavailable }

// InsufficientStockError indicates finite stock below the requested quantity.
type InsufficientStockError struct {
	ProductID string
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s", e.Name)
}

// Kind implements apperr.Kinder.
func (e *InsufficientStockError) Kind() apperr.Kind { return apperr.KindInsufficientStock }

// MaxQuantity is the largest quantity of one line.
const MaxQuantity = 10000

// MaxAmount is the largest subtotal plus shipping fee an order may carry.
// Money columns are NUMERIC(12,2).
var MaxAmount = decimal.RequireFromString("9999999999.99")

// InvalidQuantityError indicates a quantity outside 1..MaxQuantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("Quantity must be between 1 and %d for product %s", MaxQuantity, e.ProductID)
}

// Kind implements apperr.Kinder.
func (e *InvalidQuantityError) Kind() apperr.Kind { return apperr.KindInvalidInput }

// Request is one requested item. Product is nil when the lookup found nothing.
type Request struct {
	ProductID string
	Product   *product.Product
	Quantity  int
	Size      string
	Color     string
}

// Line is a priced order line copied from the product at pricing time.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Size      string
	Color     string
	LineTotal decimal.Decimal
}

// Quote is the priced result for a list of requests.
type Quote struct {
	Lines       []Line
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
}

// Price validates every request against storeID and prices it. The first
// failing request aborts the whole quote.
func Price(storeID string, reqs []Request, method ShippingMethod, deliveryFee decimal.Decimal) (*Quote, error) {
	if len(reqs) == 0 {
		return nil, apperr.InvalidInput("Order must contain at least one item")
	}

	q := &Quote{
		Lines:       make([]Line, 0, len(reqs)),
		Subtotal:    decimal.Zero,
		ShippingFee: ShippingFee(method, deliveryFee),
	}
	for _, r := range reqs {
		if r.Quantity <= 0 || r.Quantity > MaxQuantity {
			return nil, &InvalidQuantityError{ProductID: r.ProductID}
		}
		p := r.Product
		if p == nil || p.StoreID != storeID || !p.Visible() {
			return nil, &ProductUnavailableError{ProductID: r.ProductID}
		}
		if !p.Unlimited() && p.Stock < r.Quantity {
			return nil, &InsufficientStockError{ProductID: p.ID, Name: p.Name}
		}

		total := p.Price.Mul(decimal.NewFromInt(int64(r.Quantity)))
		q.Lines = append(q.Lines, Line{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  r.Quantity,
			Size:      r.Size,
			Color:     r.Color,
			LineTotal: total,
		})
		q.Subtotal = q.Subtotal.Add(total)
	}
	if q.Subtotal.Add(q.ShippingFee).GreaterThan(MaxAmount) {
		return nil, apperr.InvalidInput("Order total exceeds the maximum of %s", MaxAmount.StringFixed(2))
	}
	return q, nil
}

// ShippingFee returns the configured delivery fee for delivery orders and
// zero for pickup.
func ShippingFee(method ShippingMethod, deliveryFee decimal.Decimal) decimal.Decimal {
	if method == ShippingDelivery {
		return deliveryFee
	}
	return decimal.Zero
}
