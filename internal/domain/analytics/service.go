package analytics

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront/internal/domain/store"
)

const topProductsLimit = 10

// Stores resolves owned stores.
type Stores interface {
	Owned(ctx context.Context, ownerID, storeID string) (*store.Store, error)
}

// Service builds dashboard statistics.
type Service struct {
	repo   Repository
	stores Stores
	now    func() time.Time
}

// NewService creates an analytics Service.
func NewService(repo Repository, stores Stores) *Service {
	return &Service{repo: repo, stores: stores, now: time.Now}
}

// Stats returns the summary of a store over the trailing timeframe. The
// independent aggregates are queried concurrently.
func (s *Service) Stats(ctx context.Context, ownerID, storeID string, tf Timeframe) (*Stats, error) {
	if _, err := s.stores.Owned(ctx, ownerID, storeID); err != nil {
		return nil, err
	}

	to := s.now().UTC()
	from := to.AddDate(0, 0, -tf.Days())
	st := &Stats{Timeframe: tf, From: from, To: to}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sum, err := s.repo.OrderSummary(gctx, storeID, from, to)
		if err != nil {
			return errors.Wrap(err, "order summary")
		}
		st.OrdersCount, st.SalesTotal = sum.Orders, sum.Sales
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountOrders(gctx, storeID)
		if err != nil {
			return errors.Wrap(err, "count orders")
		}
		st.TotalOrders = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountVisibleProducts(gctx, storeID)
		if err != nil {
			return errors.Wrap(err, "count products")
		}
		st.TotalProducts = n
		return nil
	})
	g.Go(func() error {
		top, err := s.repo.TopProducts(gctx, storeID, from, to, topProductsLimit)
		if err != nil {
			return errors.Wrap(err, "top products")
		}
		st.TopProducts = top
		return nil
	})
	g.Go(func() error {
		rev, err := s.repo.RevenueByDay(gctx, storeID, from, to)
		if err != nil {
			return errors.Wrap(err, "revenue by day")
		}
		st.Revenue = rev
		return nil
	})
	g.Go(func() error {
		v, err := s.repo.Visits(gctx, storeID, Day(from), Day(to))
		if err != nil {
			return errors.Wrap(err, "visits")
		}
		st.Visits, st.UniqueVisitors = v.Visits, v.UniqueVisitors
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return st, nil
}
