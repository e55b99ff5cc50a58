package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/pricing"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusInitiated      Status = "initiated"
	StatusSentToWhatsApp Status = "sent_to_whatsapp"
	StatusConfirmed      Status = "confirmed"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusInitiated:      {StatusSentToWhatsApp, StatusCancelled},
	StatusSentToWhatsApp: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusShipped, StatusCancelled},
	StatusShipped:        {StatusDelivered, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusInitiated, StatusSentToWhatsApp, StatusConfirmed,
		StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentPayPal PaymentMethod = "paypal"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentPayPal
}

// PaymentStatus tracks settlement of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s == PaymentPaid || s == PaymentFailed
}

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = apperr.NotFound("Order not found")
	// ErrNumberTaken is returned by Repository.Create when the order number
	// is already used in the store.
	ErrNumberTaken = errors.New("order number already taken")
	// ErrTokenTaken is returned by Repository.Create on a track token collision.
	ErrTokenTaken = errors.New("track token already taken")
	// ErrStatusChanged is returned by Repository.TransitionStatus when the
	// stored status no longer matches the expected one.
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// Customer is the buyer snapshot captured at checkout.
type Customer struct {
	Name         string            `json:"name"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email,omitempty"`
	Address      string            `json:"address,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
}

// Item is a denormalized order line. It never changes after creation.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Order is an immutable checkout snapshot. Only the status, payment status
// and timestamps change after creation.
type Order struct {
	ID             string
	StoreID        string
	OrderNumber    string
	Customer       Customer
	Items          []Item
	Currency       string
	Subtotal       decimal.Decimal
	ShippingMethod pricing.ShippingMethod
	ShippingFee    decimal.Decimal
	DiscountAmount decimal.Decimal
	CouponCode     string
	Total          decimal.Decimal
	PaymentMethod  PaymentMethod
	PaymentStatus  PaymentStatus
	Status         Status
	TrackToken     string
	Message        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Filter narrows order listings.
type Filter struct {
	StoreID string
	Status  Status
	Offset  int
	Limit   int
}

// Repository defines persistence operations for orders.
type Repository interface {
	// LatestNumber returns the order number of the store's most recently
	// created order, or "" when it has none.
	LatestNumber(ctx context.Context, storeID string) (string, error)
	// Create inserts o. It returns ErrNumberTaken or ErrTokenTaken on
	// uniqueness violations.
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, storeID, id string) (*Order, error)
	GetByToken(ctx context.Context, token string) (*Order, error)
	List(ctx context.Context, f Filter) ([]Order, int, error)
	// TransitionStatus moves the order from one status to another only if
	// it is still in from. It returns ErrStatusChanged otherwise.
	TransitionStatus(ctx context.Context, id string, from, to Status) error
	SetPaymentStatus(ctx context.Context, id string, ps PaymentStatus) error
}

// Transactor runs fn inside a storage transaction carried by ctx.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
