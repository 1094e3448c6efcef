// Package catalog maintains in-process snapshots of the upstream product
// catalog with TTL-based refresh and stale-if-error fallback.
package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/metrics"
)

const (
	// AISearchTTL is the snapshot lifetime for the AI product matching path.
	AISearchTTL = 15 * time.Minute
	// BrowseTTL is the snapshot lifetime for the plain product-browse path.
	BrowseTTL = 5 * time.Minute
)

// Provider fetches the full normalized catalog from upstream.
type Provider interface {
	FetchAll(ctx context.Context) ([]domain.CatalogProduct, error)
}

// Snapshot is the result of a catalog lookup.
type Snapshot struct {
	Products  []domain.CatalogProduct
	Available bool
	// Error annotates a degraded (stale) or unavailable snapshot. Non-empty
	// with Available true means the data is stale but usable.
	Error     string
	FetchedAt time.Time
}

// Cache holds one catalog snapshot and refreshes it on expiry. Refreshes are
// not serialized against each other: a race costs at most one redundant
// upstream fetch, which overwrites the snapshot idempotently.
type Cache struct {
	provider Provider
	ttl      time.Duration
	now      func() time.Time

	mu          sync.RWMutex
	products    []domain.CatalogProduct
	lastRefresh time.Time
	lastError   string
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock injects a clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a Cache over the given provider with the given TTL.
func New(provider Provider, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the current snapshot, refreshing first if it has expired or was
// never populated. A failed refresh degrades to the previous snapshot when one
// exists; otherwise the snapshot is reported unavailable.
func (c *Cache) Get(ctx context.Context) Snapshot {
	c.mu.RLock()
	fresh := !c.lastRefresh.IsZero() && c.now().Sub(c.lastRefresh) < c.ttl
	c.mu.RUnlock()

	if !fresh {
		if err := c.Refresh(ctx); err != nil {
			log.Printf("catalog refresh failed: %v", err)
		}
	}

	return c.snapshot()
}

// Refresh fetches the catalog and replaces the snapshot wholesale. On error
// the previous snapshot (if any) is kept and the error is recorded.
func (c *Cache) Refresh(ctx context.Context) error {
	products, err := c.provider.FetchAll(ctx)
	if err != nil {
		metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
		c.mu.Lock()
		c.lastError = err.Error()
		c.mu.Unlock()
		return err
	}

	metrics.CatalogRefreshTotal.WithLabelValues("ok").Inc()
	metrics.CatalogProducts.Set(float64(len(products)))

	c.mu.Lock()
	c.products = products
	c.lastRefresh = c.now()
	c.lastError = ""
	c.mu.Unlock()
	return nil
}

// ForceRefresh bypasses the TTL, for operator-triggered cache busting.
func (c *Cache) ForceRefresh(ctx context.Context) error {
	return c.Refresh(ctx)
}

func (c *Cache) snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.lastRefresh.IsZero() {
		return Snapshot{Available: false, Error: c.lastError}
	}

	snap := Snapshot{
		Products:  c.products,
		Available: true,
		FetchedAt: c.lastRefresh,
	}
	if c.lastError != "" && c.now().Sub(c.lastRefresh) >= c.ttl {
		snap.Error = "stale data"
	}
	return snap
}

// Status reports cache internals for the status endpoint.
type Status struct {
	ProductCount int       `json:"productCount"`
	LastRefresh  time.Time `json:"lastRefresh"`
	LastError    string    `json:"lastError,omitempty"`
	TTLSeconds   int       `json:"ttlSeconds"`
}

// ProductCount returns the size of the current snapshot.
func (c *Cache) ProductCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Status returns current cache state without triggering a refresh.
func (c *Cache) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{
		ProductCount: len(c.products),
		LastRefresh:  c.lastRefresh,
		LastError:    c.lastError,
		TTLSeconds:   int(c.ttl.Seconds()),
	}
}
