package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/heritagepool/poolops/internal/metrics"
)

// RefreshableCache is the catalog cache surface used by the refresh worker.
type RefreshableCache interface {
	Refresh(ctx context.Context) error
	ProductCount() int
}

// CatalogRefreshWorker keeps catalog caches warm so interactive requests
// rarely pay the upstream fetch. Cache TTL still guards correctness; this
// worker only moves the refresh off the request path.
type CatalogRefreshWorker struct {
	caches map[string]RefreshableCache
}

// NewCatalogRefreshWorker creates a new CatalogRefreshWorker instance
func NewCatalogRefreshWorker(caches map[string]RefreshableCache) *CatalogRefreshWorker {
	return &CatalogRefreshWorker{caches: caches}
}

// ProcessJobs implements the JobProcessor interface
func (w *CatalogRefreshWorker) ProcessJobs(ctx context.Context) error {
	var firstErr error
	for name, cache := range w.caches {
		if err := cache.Refresh(ctx); err != nil {
			metrics.CatalogRefreshTotal.WithLabelValues("error").Inc()
			log.Printf("Catalog refresh for %s cache failed: %v", name, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("refresh %s cache: %w", name, err)
			}
			continue
		}
		metrics.CatalogRefreshTotal.WithLabelValues("ok").Inc()
		metrics.CatalogProducts.Set(float64(cache.ProductCount()))
	}
	return firstErr
}
