package service

import (
	"context"
	"log"
	"strings"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/telemetry"
)

const (
	// maxLearnedHints caps how many historical query mappings are blended
	// into an oracle request.
	maxLearnedHints = 5
	// maxRelatedProducts caps co-occurrence suggestions per search.
	maxRelatedProducts = 3
	// maxCoOccurrenceItems bounds pair generation on estimate completion.
	// Pattern writes grow quadratically with selection size, so only the
	// first items of very large estimates contribute.
	maxCoOccurrenceItems = 25
)

// QueryMappingRepositoryInterface defines the repository interface for
// query-to-product mapping persistence.
type QueryMappingRepositoryInterface interface {
	FindByQuery(ctx context.Context, userID, query string, limit int) ([]*domain.QueryMapping, error)
	RecordUse(ctx context.Context, userID, queryTerm, productSKU string) error
}

// ProductPatternRepositoryInterface defines the repository interface for
// co-occurrence pattern persistence.
type ProductPatternRepositoryInterface interface {
	FindRelated(ctx context.Context, userID string, skus []string, propertyType string, limit int) ([]*domain.RelatedProduct, error)
	IncrementPattern(ctx context.Context, p *domain.ProductPattern) error
}

// LearningService owns the self-learning loop: it surfaces historical
// query→product mappings as ranking hints and maintains co-occurrence
// patterns between products selected together.
//
// All lookups degrade to empty results on storage failure. Learning is an
// enhancement layer and must never take the search path down with it.
type LearningService struct {
	mappings QueryMappingRepositoryInterface
	patterns ProductPatternRepositoryInterface
}

// NewLearningService creates a new LearningService instance.
func NewLearningService(
	mappings QueryMappingRepositoryInterface,
	patterns ProductPatternRepositoryInterface,
) *LearningService {
	return &LearningService{
		mappings: mappings,
		patterns: patterns,
	}
}

// GetLearnedMappings returns up to five historical mappings whose query term
// is relevant to the given query, user-specific matches first. Errors are
// logged and reported as an empty result.
func (s *LearningService) GetLearnedMappings(ctx context.Context, userID, query string) []*domain.QueryMapping {
	ctx, span := telemetry.StartSpan(ctx, "LearningService.GetLearnedMappings", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "read",
	})
	defer span.End()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	mappings, err := s.mappings.FindByQuery(ctx, userID, q, maxLearnedHints)
	if err != nil {
		log.Printf("learning: query mapping lookup failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return nil
	}
	return mappings
}

// RecordSelection stores that the user picked productSKU for this query,
// incrementing the mapping's success and total counts. A failed write is
// logged and swallowed.
func (s *LearningService) RecordSelection(ctx context.Context, userID, query, productSKU string) {
	ctx, span := telemetry.StartSpan(ctx, "LearningService.RecordSelection", telemetry.SpanAttributes{
		UserID:    userID,
		SKU:       productSKU,
		Operation: "write",
	})
	defer span.End()

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" || productSKU == "" {
		return
	}

	if err := s.mappings.RecordUse(ctx, userID, q, productSKU); err != nil {
		log.Printf("learning: record selection failed: %v", err)
		telemetry.CaptureError(ctx, err)
	}
}

// GetRelatedProducts returns up to three SKUs historically selected together
// with any of the given skus, counts summed across rows, the user's own
// patterns preferred over global ones. Errors degrade to an empty result.
func (s *LearningService) GetRelatedProducts(ctx context.Context, userID string, skus []string, propertyType string) []*domain.RelatedProduct {
	ctx, span := telemetry.StartSpan(ctx, "LearningService.GetRelatedProducts", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "read",
	})
	defer span.End()

	if len(skus) == 0 {
		return nil
	}

	related, err := s.patterns.FindRelated(ctx, userID, skus, propertyType, maxRelatedProducts)
	if err != nil {
		log.Printf("learning: related product lookup failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return nil
	}
	return related
}

// RecordCoOccurrence updates pattern counts for every unordered pair in a
// completed selection. Both directed edges of a pair are incremented so
// related-product lookups work from either side. Selections beyond
// maxCoOccurrenceItems are ignored.
func (s *LearningService) RecordCoOccurrence(ctx context.Context, userID, propertyType string, selections []domain.SelectedProduct) {
	ctx, span := telemetry.StartSpan(ctx, "LearningService.RecordCoOccurrence", telemetry.SpanAttributes{
		UserID:    userID,
		Operation: "write",
	})
	defer span.End()

	if len(selections) > maxCoOccurrenceItems {
		selections = selections[:maxCoOccurrenceItems]
	}

	for i := 0; i < len(selections); i++ {
		for j := i + 1; j < len(selections); j++ {
			a, b := selections[i], selections[j]
			if a.SKU == "" || b.SKU == "" || a.SKU == b.SKU {
				continue
			}
			s.incrementPattern(ctx, userID, propertyType, a, b)
			s.incrementPattern(ctx, userID, propertyType, b, a)
		}
	}
}

func (s *LearningService) incrementPattern(ctx context.Context, userID, propertyType string, primary, related domain.SelectedProduct) {
	p := &domain.ProductPattern{
		UserID:            userID,
		PrimaryProductSKU: primary.SKU,
		RelatedProductSKU: related.SKU,
		PropertyType:      propertyType,
		CoOccurrenceCount: 1,
		AvgQuantityRatio:  quantityRatio(related.Quantity, primary.Quantity),
	}
	if err := s.patterns.IncrementPattern(ctx, p); err != nil {
		log.Printf("learning: pattern increment failed (%s -> %s): %v", primary.SKU, related.SKU, err)
		telemetry.CaptureError(ctx, err)
	}
}

// quantityRatio is related quantity over primary quantity, guarding against
// estimates that carry a zero quantity.
func quantityRatio(related, primary int) float64 {
	if primary <= 0 {
		primary = 1
	}
	if related <= 0 {
		related = 1
	}
	return float64(related) / float64(primary)
}
