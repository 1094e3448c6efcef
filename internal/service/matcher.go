package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/metrics"
	"github.com/heritagepool/poolops/internal/telemetry"
)

const (
	// suggestionBaseConfidence and suggestionConfidencePerUse derive a
	// suggestion's confidence from its co-occurrence count, capped at
	// suggestionMaxConfidence.
	suggestionBaseConfidence   = 50
	suggestionConfidencePerUse = 5
	suggestionMaxConfidence    = 90
)

// CatalogCache is the catalog snapshot surface the matcher reads from.
type CatalogCache interface {
	Get(ctx context.Context) catalog.Snapshot
}

// ProductRanker scores a bounded candidate list against a free-text query.
// Any implementation satisfying this contract is substitutable for the
// hosted model, which keeps the pipeline deterministic under test.
type ProductRanker interface {
	RankProducts(ctx context.Context, query string, candidates []domain.CatalogProduct, learnedHints []string) ([]domain.CandidateMatch, error)
}

// ConnectivityChecker reports whether the network is reachable. Consulted
// before any upstream call so an offline device gets a clear message instead
// of a timeout.
type ConnectivityChecker interface {
	Online(ctx context.Context) bool
}

// AlwaysOnline is the server-side default: the daemon itself has no notion
// of being offline.
type AlwaysOnline struct{}

// Online always returns true.
func (AlwaysOnline) Online(context.Context) bool { return true }

// SearchInput carries one product search request through the pipeline.
type SearchInput struct {
	Query        string
	UserID       string
	SessionID    string
	PropertyType string
	// ItemCount is the caller's running line-item total, echoed back on a
	// completion response.
	ItemCount int
}

// SearchResult is the unified response of one search call.
type SearchResult struct {
	Done               bool                    `json:"done"`
	ItemCount          int                     `json:"itemCount,omitempty"`
	Matches            []domain.CandidateMatch `json:"matches"`
	Suggestions        []domain.CandidateMatch `json:"suggestions"`
	ManualEntryItems   []domain.CandidateMatch `json:"manualEntryItems"`
	PlumbingMessage    string                  `json:"plumbingMessage,omitempty"`
	Message            string                  `json:"message,omitempty"`
	LearnedFromHistory bool                    `json:"learnedFromHistory"`
	InteractionID      string                  `json:"interactionId,omitempty"`
	CatalogStale       bool                    `json:"catalogStale,omitempty"`
}

// MatcherService orchestrates the search pipeline: done-intent check,
// connectivity check, catalog snapshot, keyword prefilter, learned-hint
// lookup, oracle ranking, related-product suggestions and the specialty
// fallback.
type MatcherService struct {
	cache        CatalogCache
	ranker       ProductRanker
	learning     *LearningService
	feedback     *FeedbackService
	intent       *IntentClassifier
	specialty    *SpecialtyDictionary
	connectivity ConnectivityChecker
}

// NewMatcherService creates a new MatcherService instance.
func NewMatcherService(
	cache CatalogCache,
	ranker ProductRanker,
	learning *LearningService,
	feedback *FeedbackService,
	intent *IntentClassifier,
	specialty *SpecialtyDictionary,
	connectivity ConnectivityChecker,
) *MatcherService {
	if connectivity == nil {
		connectivity = AlwaysOnline{}
	}
	return &MatcherService{
		cache:        cache,
		ranker:       ranker,
		learning:     learning,
		feedback:     feedback,
		intent:       intent,
		specialty:    specialty,
		connectivity: connectivity,
	}
}

// Search runs the full matching pipeline for one query. The read path is
// idempotent: repeated calls with the same query and an unchanged catalog
// and learning state produce the same matches. Oracle and catalog failures
// propagate as typed errors; learning-layer failures degrade silently.
func (s *MatcherService) Search(ctx context.Context, in SearchInput) (*SearchResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "MatcherService.Search", telemetry.SpanAttributes{
		UserID:    in.UserID,
		SessionID: in.SessionID,
		Operation: "search",
	})
	defer span.End()

	if in.Query == "" {
		return nil, domain.ErrEmptyQuery
	}

	if s.intent.IsDone(in.Query) {
		metrics.SearchTotal.WithLabelValues("done").Inc()
		return &SearchResult{
			Done:      true,
			ItemCount: in.ItemCount,
			Message:   fmt.Sprintf("Estimate complete with %d item(s).", in.ItemCount),
		}, nil
	}

	if !s.connectivity.Online(ctx) {
		metrics.SearchTotal.WithLabelValues("offline").Inc()
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeOffline,
			"no network connection, connect and try again", domain.ErrOffline)
	}

	snap := s.cache.Get(ctx)
	if !snap.Available {
		metrics.SearchTotal.WithLabelValues("catalog_unavailable").Inc()
		span.SetError(domain.ErrCatalogUnavailable)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeServiceUnavailable,
			"product catalog is temporarily unavailable", domain.ErrCatalogUnavailable)
	}

	candidates := Narrow(in.Query, snap.Products)
	metrics.PrefilterCandidates.Observe(float64(len(candidates)))

	mappings := s.learning.GetLearnedMappings(ctx, in.UserID, in.Query)
	hints := hintStrings(mappings)

	start := time.Now()
	matches, err := s.ranker.RankProducts(ctx, in.Query, candidates, hints)
	metrics.OracleLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.OracleErrors.WithLabelValues(oracleErrorCause(err)).Inc()
		metrics.SearchTotal.WithLabelValues("oracle_error").Inc()
		span.SetError(err)
		return nil, err
	}

	// The UI pre-selects every returned match.
	for i := range matches {
		matches[i].Selected = true
	}

	result := &SearchResult{
		Matches:            matches,
		LearnedFromHistory: len(mappings) > 0,
		CatalogStale:       snap.Error != "",
	}

	result.InteractionID = s.logInteraction(ctx, in, matches)

	matchedSKUs := make(map[string]bool, len(matches))
	for _, m := range matches {
		matchedSKUs[m.SKU] = true
	}

	result.Suggestions = s.suggestions(ctx, snap.Products, matches, matchedSKUs, in.UserID, in.PropertyType)
	result.ManualEntryItems, result.PlumbingMessage = s.specialty.Match(in.Query, matchedSKUs)

	if len(result.Matches) == 0 && len(result.ManualEntryItems) == 0 {
		result.Message = "No matching products found. Try describing the part differently."
		metrics.SearchTotal.WithLabelValues("no_match").Inc()
	} else {
		metrics.SearchTotal.WithLabelValues("ok").Inc()
	}
	return result, nil
}

// logInteraction records the search for the learning loop, including searches
// the oracle answered with zero matches; those are negative signal. A logging
// failure never fails the search.
func (s *MatcherService) logInteraction(ctx context.Context, in SearchInput, matches []domain.CandidateMatch) string {
	if s.feedback == nil || in.SessionID == "" {
		return ""
	}

	suggested := make([]domain.SuggestedProduct, 0, len(matches))
	for _, m := range matches {
		suggested = append(suggested, domain.SuggestedProduct{
			SKU:        m.SKU,
			Name:       m.Name,
			Confidence: m.Confidence,
		})
	}

	i := domain.NewInteraction("", in.UserID, in.SessionID, in.Query, suggested, in.PropertyType, time.Now().UTC())
	id, err := s.feedback.LogInteraction(ctx, i)
	if err != nil {
		log.Printf("matcher: interaction logging failed: %v", err)
		telemetry.CaptureError(ctx, err)
		return ""
	}
	return id
}

// suggestions collects related products for the full matched-sku set in one
// lookup. The store sums co-occurrence counts across rows and excludes the
// matched skus themselves; the filter here only guards non-store
// implementations. Confidence grows with the summed count and is capped
// below the weakest plausible direct match.
func (s *MatcherService) suggestions(ctx context.Context, products []domain.CatalogProduct, matches []domain.CandidateMatch, matchedSKUs map[string]bool, userID, propertyType string) []domain.CandidateMatch {
	if len(matches) == 0 {
		return nil
	}

	bySKU := make(map[string]domain.CatalogProduct, len(products))
	for _, p := range products {
		bySKU[p.SKU] = p
	}

	skus := make([]string, 0, len(matches))
	for _, m := range matches {
		skus = append(skus, m.SKU)
	}

	var out []domain.CandidateMatch
	for _, rel := range s.learning.GetRelatedProducts(ctx, userID, skus, propertyType) {
		if matchedSKUs[rel.SKU] {
			continue
		}

		m := domain.CandidateMatch{
			SKU:        rel.SKU,
			Confidence: suggestionConfidence(rel.Count),
			Reason:     fmt.Sprintf("Frequently used together (%d times)", rel.Count),
		}
		if p, ok := bySKU[rel.SKU]; ok {
			m.Name = p.Name
			m.Category = p.Category
			m.Subcategory = p.Subcategory
			m.Manufacturer = p.Manufacturer
			m.Price = p.Price
			m.Unit = p.Unit
		}
		out = append(out, m)
	}
	return out
}

func suggestionConfidence(count int) int {
	c := suggestionBaseConfidence + count*suggestionConfidencePerUse
	if c > suggestionMaxConfidence {
		return suggestionMaxConfidence
	}
	return c
}

// hintStrings renders learned mappings as plain-text hints for the oracle
// payload.
func hintStrings(mappings []*domain.QueryMapping) []string {
	if len(mappings) == 0 {
		return nil
	}
	hints := make([]string, 0, len(mappings))
	for _, m := range mappings {
		hints = append(hints, fmt.Sprintf("Technicians previously chose %s for %q (%d of %d times)",
			m.MappedProductSKU, m.QueryTerm, m.SuccessCount, m.TotalCount))
	}
	return hints
}

// oracleErrorCause maps a rank error onto a metrics label.
func oracleErrorCause(err error) string {
	var derr *domain.DomainError
	if errors.As(err, &derr) {
		switch derr.Code {
		case domain.ErrCodeOracleTimeout:
			return "timeout"
		case domain.ErrCodeOracleBusy:
			return "busy"
		case domain.ErrCodeOracleAuth:
			return "auth"
		}
	}
	return "failure"
}
