// Package analytics aggregates store sales and tracks storefront visits.
package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
)

// Timeframe is a trailing window for statistics.
type Timeframe string

const (
	Timeframe1d  Timeframe = "1d"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
	Timeframe90d Timeframe = "90d"

	DefaultTimeframe = Timeframe30d
)

var timeframeDays = map[Timeframe]int{
	Timeframe1d:  1,
	Timeframe7d:  7,
	Timeframe30d: 30,
	Timeframe90d: 90,
}

// ParseTimeframe validates s. An empty string selects DefaultTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	if s == "" {
		return DefaultTimeframe, nil
	}
	tf := Timeframe(s)
	if _, ok := timeframeDays[tf]; !ok {
		return "", apperr.InvalidInput("Timeframe must be one of 1d, 7d, 30d, 90d")
	}
	return tf, nil
}

// Days returns the window length in days.
func (t Timeframe) Days() int {
	if d, ok := timeframeDays[t]; ok {
		return d
	}
	return timeframeDays[DefaultTimeframe]
}

// PageType is the kind of storefront page a visit landed on.
type PageType string

const (
	PageStore         PageType = "store"
	PageProduct       PageType = "product"
	PageOrderTracking PageType = "order_tracking"
	PageCustom        PageType = "page"
)

// Valid reports whether p is a known page type.
func (p PageType) Valid() bool {
	switch p {
	case PageStore, PageProduct, PageOrderTracking, PageCustom:
		return true
	}
	return false
}

// OrderSummary aggregates orders inside a window.
type OrderSummary struct {
	Orders int
	Sales  decimal.Decimal
}

// VisitSummary aggregates daily visit counters.
type VisitSummary struct {
	Visits         int64
	UniqueVisitors int64
}

// TopProduct is a best seller inside a window, ranked by revenue.
type TopProduct struct {
	ProductID string
	Name      string
	Quantity  int
	Revenue   decimal.Decimal
	Orders    int
}

// DailyRevenue is the order revenue of one UTC day.
type DailyRevenue struct {
	Day     time.Time
	Revenue decimal.Decimal
	Orders  int
}

// Visit is one recorded page view.
type Visit struct {
	StoreID  string
	Day      time.Time
	PageType PageType
	// Unique is set for the first view of a visitor on that day.
	Unique bool
}

// Stats is the merchant dashboard summary for a timeframe.
type Stats struct {
	Timeframe      Timeframe
	From           time.Time
	To             time.Time
	OrdersCount    int
	SalesTotal     decimal.Decimal
	TotalOrders    int
	TotalProducts  int
	Visits         int64
	UniqueVisitors int64
	TopProducts    []TopProduct
	Revenue        []DailyRevenue
}

// Repository reads and writes analytics data.
type Repository interface {
	OrderSummary(ctx context.Context, storeID string, from, to time.Time) (OrderSummary, error)
	CountOrders(ctx context.Context, storeID string) (int, error)
	CountVisibleProducts(ctx context.Context, storeID string) (int, error)
	TopProducts(ctx context.Context, storeID string, from, to time.Time, limit int) ([]TopProduct, error)
	RevenueByDay(ctx context.Context, storeID string, from, to time.Time) ([]DailyRevenue, error)
	// Visits sums the daily counters of days in [fromDay, toDay].
	Visits(ctx context.Context, storeID string, fromDay, toDay time.Time) (VisitSummary, error)
	RecordVisit(ctx context.Context, v Visit) error
}

// Day truncates t to the start of its UTC day.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
