package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

// TrackerConfig sizes the daily unique-visitor filter.
type TrackerConfig struct {
	ExpectedVisitors uint
	FalsePositive    float64
}

// Tracker records storefront visits. Unique visitors are estimated with one
// bloom filter per UTC day, shared by all stores.
type Tracker struct {
	repo Repository
	cfg  TrackerConfig
	now  func() time.Time

	mu     sync.Mutex
	day    time.Time
	filter *bloom.BloomFilter

	visits metric.Int64Counter
}

// NewTracker creates a Tracker. Zero config fields select 100k visitors at
// a 1% false positive rate.
func NewTracker(repo Repository, cfg TrackerConfig, mp metric.MeterProvider) *Tracker {
	if cfg.ExpectedVisitors == 0 {
		cfg.ExpectedVisitors = 100_000
	}
	if cfg.FalsePositive <= 0 || cfg.FalsePositive >= 1 {
		cfg.FalsePositive = 0.01
	}
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	visits, err := mp.Meter("github.com/xenking/storefront/internal/domain/analytics").Int64Counter(
		"storefront.visits",
		metric.WithDescription("Storefront page visits"),
	)
	if err != nil {
		visits = noop.Int64Counter{}
	}
	return &Tracker{
		repo:   repo,
		cfg:    cfg,
		now:    time.Now,
		visits: visits,
	}
}

// firstSeen reports whether visitor has not been seen in storeID today.
func (t *Tracker) firstSeen(day time.Time, storeID, visitor string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.filter == nil || !day.Equal(t.day) {
		t.day = day
		t.filter = bloom.NewWithEstimates(t.cfg.ExpectedVisitors, t.cfg.FalsePositive)
	}
	return !t.filter.TestAndAddString(storeID + "|" + visitor)
}

// TrackVisit records a page view. Failures are logged and never returned,
// so a broken counter cannot fail a storefront request.
func (t *Tracker) TrackVisit(ctx context.Context, storeID string, pt PageType, visitor string) {
	if !pt.Valid() {
		pt = PageStore
	}
	day := Day(t.now())
	unique := visitor != "" && t.firstSeen(day, storeID, visitor)

	t.visits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("page_type", string(pt)),
		attribute.Bool("unique", unique),
	))
	if err := t.repo.RecordVisit(ctx, Visit{
		StoreID:  storeID,
		Day:      day,
		PageType: pt,
		Unique:   unique,
	}); err != nil {
		zctx.From(ctx).Warn("Track visit",
			zap.String("store_id", storeID),
			zap.String("page_type", string(pt)),
			zap.Error(err),
		)
	}
}
