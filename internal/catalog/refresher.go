package catalog

import (
	"context"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/poskit/billingd/internal/domain"
	"github.com/poskit/billingd/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// TopicRefreshed is published after the snapshot has been swapped for a
// freshly fetched catalog.
const TopicRefreshed = "catalog.refreshed"

// Fetcher is the read side of the catalog gateway.
type Fetcher interface {
	FetchProducts(ctx context.Context) ([]domain.Product, error)
	FetchCustomers(ctx context.Context) ([]domain.Customer, error)
}

// Refresher keeps the snapshot current: at startup, on a schedule, after
// every finalized sale and on operator demand.
type Refresher struct {
	fetcher Fetcher
	snap    *Snapshot
	cache   *Cache
	bus     EventBus.Bus
}

// NewRefresher wires a refresher; cache and bus may be nil.
func NewRefresher(fetcher Fetcher, snap *Snapshot, cache *Cache, bus EventBus.Bus) *Refresher {
	return &Refresher{fetcher: fetcher, snap: snap, cache: cache, bus: bus}
}

// Refresh fetches products and customers in parallel and swaps the
// snapshot. On failure the previous snapshot stays in place and the
// error degrades to a logged warning at call sites that can serve stale
// data.
func (r *Refresher) Refresh(ctx context.Context) error {
	var (
		products  []domain.Product
		customers []domain.Customer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.fetcher.FetchProducts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		customers, err = r.fetcher.FetchCustomers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		zap.L().Warn("catalog refresh failed, keeping stale snapshot",
			zap.Time("fetched_at", r.snap.FetchedAt()),
			zap.Error(err))
		return err
	}

	now := time.Now()
	r.snap.Replace(products, customers, now)
	metrics.SetGauge("catalog_products", int64(len(products)))
	metrics.SetGauge("catalog_customers", int64(len(customers)))

	if r.cache != nil {
		if err := r.cache.Save(products, customers, now); err != nil {
			zap.L().Warn("failed to persist snapshot cache", zap.Error(err))
		}
	}
	if r.bus != nil {
		r.bus.Publish(TopicRefreshed)
	}
	zap.L().Info("catalog snapshot refreshed",
		zap.Int("products", len(products)),
		zap.Int("customers", len(customers)))
	return nil
}

// WarmUp restores the cached snapshot, then tries a live refresh. Either
// source alone is enough to open the register.
func (r *Refresher) WarmUp(ctx context.Context) {
	if r.cache != nil {
		if products, customers, at, ok := r.cache.Load(); ok {
			r.snap.Replace(products, customers, at)
			zap.L().Info("loaded snapshot cache",
				zap.Int("products", len(products)),
				zap.Int("customers", len(customers)),
				zap.Time("fetched_at", at))
		}
	}
	if err := r.Refresh(ctx); err != nil && r.snap.FetchedAt().IsZero() {
		zap.L().Error("no catalog snapshot available yet, register starts empty", zap.Error(err))
	}
}
