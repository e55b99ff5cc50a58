package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/order"
)

const orderColumns = `id, store_id, order_number, customer, items, currency, subtotal, shipping_method,
	shipping_fee, discount_amount, coupon_code, total, payment_method, payment_status, status,
	track_token, message, created_at, updated_at`

const (
	createOrderSQL = `INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	latestOrderNumberSQL = `SELECT order_number FROM orders
		WHERE store_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders WHERE store_id = $1 AND id = $2`

	getOrderByTokenSQL = `SELECT ` + orderColumns + ` FROM orders WHERE track_token = $1`

	transitionOrderSQL = `UPDATE orders SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`

	setPaymentStatusSQL = `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`
)

const (
	ordersStoreNumberKey = "orders_store_number_key"
	ordersTrackTokenKey  = "orders_track_token_key"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// LatestNumber returns the number of the store's newest order, or "".
func (r *OrderRepository) LatestNumber(ctx context.Context, storeID string) (string, error) {
	var n string
	err := conn(ctx, r.pool).QueryRow(ctx, latestOrderNumberSQL, storeID).Scan(&n)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("getting latest order number of %q: %w", storeID, err)
	}
	return n, nil
}

// Create persists a new order. Customer and items are stored as JSONB.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createOrderSQL,
		o.ID, o.StoreID, o.OrderNumber, o.Customer, o.Items, o.Currency, o.Subtotal, o.ShippingMethod,
		o.ShippingFee, o.DiscountAmount, o.CouponCode, o.Total, o.PaymentMethod, o.PaymentStatus, o.Status,
		o.TrackToken, o.Message, o.CreatedAt, o.UpdatedAt,
	)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err, ordersStoreNumberKey):
		return order.ErrNumberTaken
	case isUniqueViolation(err, ordersTrackTokenKey):
		return order.ErrTokenTaken
	default:
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
}

// Get returns an order of a store by id.
func (r *OrderRepository) Get(ctx context.Context, storeID, id string) (*order.Order, error) {
	return r.one(ctx, getOrderSQL, storeID, id)
}

// GetByToken returns the order with the given tracking token.
func (r *OrderRepository) GetByToken(ctx context.Context, token string) (*order.Order, error) {
	return r.one(ctx, getOrderByTokenSQL, token)
}

func (r *OrderRepository) one(ctx context.Context, sql string, args ...any) (*order.Order, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}
	return &o, nil
}

// List returns a page of orders, newest first, and the total match count.
func (r *OrderRepository) List(ctx context.Context, f order.Filter) ([]order.Order, int, error) {
	cond := "store_id = $1"
	args := []any{f.StoreID}
	if f.Status != "" {
		args = append(args, f.Status)
		cond += " AND status = $2"
	}

	db := conn(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, "SELECT count(*) FROM orders WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	args = append(args, f.Limit, f.Offset)
	sql := "SELECT " + orderColumns + " FROM orders WHERE " + cond +
		" ORDER BY created_at DESC, id DESC" +
		" LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	return orders, total, nil
}

// TransitionStatus is a compare-and-swap on the order status.
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from, to order.Status) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, transitionOrderSQL, id, from, to)
	if err != nil {
		return fmt.Errorf("transitioning order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrStatusChanged
	}
	return nil
}

// SetPaymentStatus records the payment status of an order.
func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id string, ps order.PaymentStatus) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, setPaymentStatusSQL, id, ps)
	if err != nil {
		return fmt.Errorf("setting payment status of %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.StoreID, &o.OrderNumber, &o.Customer, &o.Items, &o.Currency, &o.Subtotal, &o.ShippingMethod,
		&o.ShippingFee, &o.DiscountAmount, &o.CouponCode, &o.Total, &o.PaymentMethod, &o.PaymentStatus, &o.Status,
		&o.TrackToken, &o.Message, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}
