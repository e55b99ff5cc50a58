package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/analytics"
)

const (
	orderSummarySQL = `SELECT count(*), COALESCE(sum(total), 0) FROM orders
		WHERE store_id = $1 AND created_at >= $2 AND created_at <= $3`

	countOrdersSQL = `SELECT count(*) FROM orders WHERE store_id = $1`

	countVisibleProductsSQL = `SELECT count(*) FROM products WHERE store_id = $1 AND availability = 'show'`

	topProductsSQL = `SELECT item->>'product_id', max(item->>'name'),
			sum((item->>'quantity')::int), sum((item->>'line_total')::numeric), count(DISTINCT o.id)
		FROM orders o, jsonb_array_elements(o.items) AS item
		WHERE o.store_id = $1 AND o.created_at >= $2 AND o.created_at <= $3
		GROUP BY item->>'product_id'
		ORDER BY sum((item->>'quantity')::int) DESC, item->>'product_id'
		LIMIT $4`

	revenueByDaySQL = `SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, sum(total), count(*)
		FROM orders
		WHERE store_id = $1 AND created_at >= $2 AND created_at <= $3
		GROUP BY day ORDER BY day`

	visitsSQL = `SELECT COALESCE(sum(visits), 0), COALESCE(sum(unique_visitors), 0) FROM visit_stats
		WHERE store_id = $1 AND day >= $2 AND day <= $3`

	recordVisitSQL = `INSERT INTO visit_stats (store_id, day, page_type, visits, unique_visitors)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (store_id, day, page_type) DO UPDATE SET
			visits = visit_stats.visits + 1,
			unique_visitors = visit_stats.unique_visitors + EXCLUDED.unique_visitors`
)

var _ analytics.Repository = (*AnalyticsRepository)(nil)

// AnalyticsRepository implements analytics.Repository backed by PostgreSQL.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

// NewAnalyticsRepository returns an AnalyticsRepository that uses the given pool.
func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// OrderSummary counts orders and sums their totals within [from, to].
func (r *AnalyticsRepository) OrderSummary(ctx context.Context, storeID string, from, to time.Time) (analytics.OrderSummary, error) {
	var s analytics.OrderSummary
	if err := conn(ctx, r.pool).QueryRow(ctx, orderSummarySQL, storeID, from, to).Scan(&s.Orders, &s.Sales); err != nil {
		return s, fmt.Errorf("summarizing orders of %q: %w", storeID, err)
	}
	return s, nil
}

// CountOrders returns the all-time order count of a store.
func (r *AnalyticsRepository) CountOrders(ctx context.Context, storeID string) (int, error) {
	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, countOrdersSQL, storeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting orders of %q: %w", storeID, err)
	}
	return n, nil
}

// CountVisibleProducts returns the number of products shown on the storefront.
func (r *AnalyticsRepository) CountVisibleProducts(ctx context.Context, storeID string) (int, error) {
	var n int
	if err := conn(ctx, r.pool).QueryRow(ctx, countVisibleProductsSQL, storeID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting visible products of %q: %w", storeID, err)
	}
	return n, nil
}

// TopProducts ranks ordered products by quantity within [from, to].
func (r *AnalyticsRepository) TopProducts(ctx context.Context, storeID string, from, to time.Time, limit int) ([]analytics.TopProduct, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, topProductsSQL, storeID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("ranking products of %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[analytics.TopProduct])
}

// RevenueByDay groups order totals by UTC day within [from, to].
func (r *AnalyticsRepository) RevenueByDay(ctx context.Context, storeID string, from, to time.Time) ([]analytics.DailyRevenue, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, revenueByDaySQL, storeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("grouping revenue of %q: %w", storeID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (analytics.DailyRevenue, error) {
		var d analytics.DailyRevenue
		err := row.Scan(&d.Day, &d.Revenue, &d.Orders)
		d.Day = time.Date(d.Day.Year(), d.Day.Month(), d.Day.Day(), 0, 0, 0, 0, time.UTC)
		return d, err
	})
}

// Visits sums the daily visit counters of days in [fromDay, toDay].
func (r *AnalyticsRepository) Visits(ctx context.Context, storeID string, fromDay, toDay time.Time) (analytics.VisitSummary, error) {
	var s analytics.VisitSummary
	if err := conn(ctx, r.pool).QueryRow(ctx, visitsSQL, storeID, fromDay, toDay).Scan(&s.Visits, &s.UniqueVisitors); err != nil {
		return s, fmt.Errorf("summing visits of %q: %w", storeID, err)
	}
	return s, nil
}

// RecordVisit increments the counter row of the visit's day and page type.
func (r *AnalyticsRepository) RecordVisit(ctx context.Context, v analytics.Visit) error {
	unique := 0
	if v.Unique {
		unique = 1
	}
	if _, err := conn(ctx, r.pool).Exec(ctx, recordVisitSQL, v.StoreID, v.Day, v.PageType, unique); err != nil {
		return fmt.Errorf("recording visit of %q: %w", v.StoreID, err)
	}
	return nil
}
