package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/coupon"
)

const couponColumns = `id, store_id, code, type, value, status, start_at, end_at,
	usage_limit, used_count, min_order_amount, created_at, updated_at`

const (
	createCouponSQL = `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	getCouponSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE store_id = $1 AND id = $2`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE store_id = $1 AND code = $2`

	listCouponsSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE store_id = $1 ORDER BY created_at DESC, id DESC`

	deleteCouponSQL = `DELETE FROM coupons WHERE store_id = $1 AND id = $2`

	claimCouponSQL = `UPDATE coupons SET used_count = used_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit = -1 OR used_count < usage_limit)`
)

const couponsStoreCodeKey = "coupons_store_code_key"

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Create inserts a coupon. Codes are unique per store.
func (r *CouponRepository) Create(ctx context.Context, c *coupon.Coupon) error {
	_, err := conn(ctx, r.pool).Exec(ctx, createCouponSQL,
		c.ID, c.StoreID, c.Code, c.Type, c.Value, c.Status, c.StartAt, c.EndAt,
		c.UsageLimit, c.UsedCount, c.MinOrderAmount, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, couponsStoreCodeKey) {
			return coupon.ErrCodeTaken
		}
		return fmt.Errorf("creating coupon %q: %w", c.Code, err)
	}
	return nil
}

// Get returns a coupon of a store by id.
func (r *CouponRepository) Get(ctx context.Context, storeID, id string) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponSQL, storeID, id)
}

// FindByCode looks up a coupon by its normalized code.
func (r *CouponRepository) FindByCode(ctx context.Context, storeID, code string) (*coupon.Coupon, error) {
	return r.one(ctx, getCouponByCodeSQL, storeID, code)
}

func (r *CouponRepository) one(ctx context.Context, sql string, args ...any) (*coupon.Coupon, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, sql, args...)
	if err == nil {
		var c coupon.Coupon
		c, err = pgx.CollectExactlyOneRow(rows, scanCoupon)
		if err == nil {
			return &c, nil
		}
	}
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, coupon.ErrNotFound
	case isUniqueViolation(err, couponsStoreCodeKey):
		// Update can rename a coupon onto an existing code.
		return nil, coupon.ErrCodeTaken
	default:
		return nil, fmt.Errorf("getting coupon: %w", err)
	}
}

// List returns the coupons of a store, newest first.
func (r *CouponRepository) List(ctx context.Context, storeID string) ([]coupon.Coupon, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, listCouponsSQL, storeID)
	if err != nil {
		return nil, fmt.Errorf("listing coupons of %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, scanCoupon)
}

// Update writes the set fields of u and returns the updated coupon.
func (r *CouponRepository) Update(ctx context.Context, storeID, id string, u coupon.Update) (*coupon.Coupon, error) {
	var set assignments
	assign(&set, "code", u.Code)
	assign(&set, "type", u.Type)
	assign(&set, "value", u.Value)
	assign(&set, "status", u.Status)
	if u.ClearStartAt {
		set.null("start_at")
	} else {
		assign(&set, "start_at", u.StartAt)
	}
	if u.ClearEndAt {
		set.null("end_at")
	} else {
		assign(&set, "end_at", u.EndAt)
	}
	assign(&set, "usage_limit", u.UsageLimit)
	assign(&set, "min_order_amount", u.MinOrderAmount)
	if set.empty() {
		return r.Get(ctx, storeID, id)
	}

	sql, args := set.update("coupons", storeID, id, couponColumns)
	return r.one(ctx, sql, args...)
}

// Delete removes a coupon of a store.
func (r *CouponRepository) Delete(ctx context.Context, storeID, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, deleteCouponSQL, storeID, id)
	if err != nil {
		return fmt.Errorf("deleting coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrNotFound
	}
	return nil
}

// ClaimUsage atomically counts one use of a coupon within its usage limit.
func (r *CouponRepository) ClaimUsage(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, claimCouponSQL, id)
	if err != nil {
		return fmt.Errorf("claiming coupon %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrUsageExhausted
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var c coupon.Coupon
	err := row.Scan(
		&c.ID, &c.StoreID, &c.Code, &c.Type, &c.Value, &c.Status, &c.StartAt, &c.EndAt,
		&c.UsageLimit, &c.UsedCount, &c.MinOrderAmount, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}
