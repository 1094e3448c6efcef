package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/domain"
)

type stubCatalogCache struct {
	snap catalog.Snapshot
}

func (s *stubCatalogCache) Get(context.Context) catalog.Snapshot { return s.snap }

type mockRanker struct {
	mock.Mock
}

func (m *mockRanker) RankProducts(ctx context.Context, query string, candidates []domain.CatalogProduct, learnedHints []string) ([]domain.CandidateMatch, error) {
	args := m.Called(ctx, query, candidates, learnedHints)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CandidateMatch), args.Error(1)
}

type offlineChecker struct{}

func (offlineChecker) Online(context.Context) bool { return false }

type matcherFixture struct {
	svc          *MatcherService
	ranker       *mockRanker
	mappings     *mockQueryMappingRepo
	patterns     *mockProductPatternRepo
	interactions *mockInteractionRepo
}

func newMatcherFixture(t *testing.T, snap catalog.Snapshot, connectivity ConnectivityChecker) *matcherFixture {
	t.Helper()

	ranker := new(mockRanker)
	mappings := new(mockQueryMappingRepo)
	patterns := new(mockProductPatternRepo)
	interactions := new(mockInteractionRepo)
	feedbackRepo := new(mockFeedbackRepo)

	learning := NewLearningService(mappings, patterns)
	feedback := NewFeedbackServiceWithUUIDGen(interactions, feedbackRepo, learning, &fixedUUIDGen{id: "int-fixed"})

	svc := NewMatcherService(&stubCatalogCache{snap: snap}, ranker, learning, feedback,
		NewIntentClassifier(), NewSpecialtyDictionary(), connectivity)

	return &matcherFixture{
		svc:          svc,
		ranker:       ranker,
		mappings:     mappings,
		patterns:     patterns,
		interactions: interactions,
	}
}

func availableSnapshot(products ...domain.CatalogProduct) catalog.Snapshot {
	return catalog.Snapshot{Products: products, Available: true}
}

func pumpCatalog() []domain.CatalogProduct {
	return []domain.CatalogProduct{
		{SKU: "P1", Name: "Pump Shaft Seal", Category: "Pumps", Price: 24.99, Unit: "each"},
		{SKU: "P2", Name: "Variable Speed Pump 1.5HP", Category: "Pumps", Price: 899, Unit: "each"},
		{SKU: "P3", Name: "Pump Lid O-Ring", Category: "Pumps", Price: 8.99, Unit: "each"},
	}
}

func TestSearchDoneIntentShortCircuits(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(), nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "that's all", ItemCount: 4})

	require.NoError(t, err)
	assert.True(t, res.Done)
	assert.Equal(t, 4, res.ItemCount)
	assert.Contains(t, res.Message, "4 item(s)")
	f.ranker.AssertNotCalled(t, "RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(), nil)

	_, err := f.svc.Search(context.Background(), SearchInput{Query: ""})

	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestSearchOffline(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), offlineChecker{})

	_, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeOffline, derr.Code)
	f.ranker.AssertNotCalled(t, "RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchCatalogUnavailable(t *testing.T) {
	f := newMatcherFixture(t, catalog.Snapshot{Available: false, Error: "upstream down"}, nil)

	_, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeServiceUnavailable, derr.Code)
	f.ranker.AssertNotCalled(t, "RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSearchHappyPath(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, "tech-1", "pump leaking", maxLearnedHints).
		Return([]*domain.QueryMapping{
			{QueryTerm: "pump leaking", MappedProductSKU: "P1", SuccessCount: 3, TotalCount: 4},
		}, nil)
	f.ranker.On("RankProducts", mock.Anything, "pump leaking", mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{
			{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 92, Reason: "Shaft seal is the typical fix for a leaking pump"},
		}, nil)
	f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.patterns.On("FindRelated", mock.Anything, "tech-1", []string{"P1"}, "", maxRelatedProducts).
		Return([]*domain.RelatedProduct{{SKU: "P3", Count: 4}}, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{
		Query:     "pump leaking",
		UserID:    "tech-1",
		SessionID: "sess-1",
	})

	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].Selected)
	assert.True(t, res.LearnedFromHistory)
	assert.Equal(t, "int-fixed", res.InteractionID)

	require.Len(t, res.Suggestions, 1)
	assert.Equal(t, "P3", res.Suggestions[0].SKU)
	assert.Equal(t, 70, res.Suggestions[0].Confidence)
	assert.Equal(t, "Frequently used together (4 times)", res.Suggestions[0].Reason)
	assert.Equal(t, "Pump Lid O-Ring", res.Suggestions[0].Name)

	// Learned hints reach the oracle.
	hints := f.ranker.Calls[0].Arguments.Get(3).([]string)
	require.Len(t, hints, 1)
	assert.Contains(t, hints[0], "P1")

	// Prefilter narrowed to the pump products before ranking.
	candidates := f.ranker.Calls[0].Arguments.Get(2).([]domain.CatalogProduct)
	assert.Len(t, candidates, 3)
}

func TestSearchSuggestionsExcludeMatchedSKUs(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{
			{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 90},
			{SKU: "P3", Name: "Pump Lid O-Ring", Confidence: 80},
		}, nil)
	f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	// A store implementation that fails to exclude the primaries must still
	// not surface an already-matched sku as a suggestion.
	f.patterns.On("FindRelated", mock.Anything, "", []string{"P1", "P3"}, "", maxRelatedProducts).
		Return([]*domain.RelatedProduct{{SKU: "P3", Count: 9}}, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "pump", SessionID: "sess-1"})

	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
}

func TestSearchSuggestionsSingleAggregatedLookup(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{
			{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 92},
			{SKU: "P2", Name: "Variable Speed Pump 1.5HP", Confidence: 85},
		}, nil)
	f.interactions.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.patterns.On("FindRelated", mock.Anything, "tech-1", []string{"P1", "P2"}, "", maxRelatedProducts).
		Return([]*domain.RelatedProduct{
			{SKU: "P3", Count: 109},
			{SKU: "P4", Count: 12},
			{SKU: "P5", Count: 3},
		}, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{
		Query:     "pump leaking",
		UserID:    "tech-1",
		SessionID: "sess-1",
	})

	require.NoError(t, err)
	require.LessOrEqual(t, len(res.Suggestions), maxRelatedProducts)
	require.Len(t, res.Suggestions, 3)
	assert.Equal(t, "P3", res.Suggestions[0].SKU)
	assert.Equal(t, "Frequently used together (109 times)", res.Suggestions[0].Reason)
	assert.Equal(t, 90, res.Suggestions[0].Confidence)
	f.patterns.AssertNumberOfCalls(t, "FindRelated", 1)
}

func TestSearchSuggestionConfidenceCapped(t *testing.T) {
	assert.Equal(t, 55, suggestionConfidence(1))
	assert.Equal(t, 90, suggestionConfidence(8))
	assert.Equal(t, 90, suggestionConfidence(100))
}

func TestSearchOracleErrorPropagates(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrOracleTimeout)

	_, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})

	var derr *domain.DomainError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.ErrCodeOracleTimeout, derr.Code)
}

func TestSearchInteractionLoggingFailureIsNonFatal(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 90}}, nil)
	f.interactions.On("Create", mock.Anything, mock.Anything).Return(assert.AnError)
	f.patterns.On("FindRelated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking", SessionID: "sess-1"})

	require.NoError(t, err)
	assert.Empty(t, res.InteractionID)
	require.Len(t, res.Matches, 1)
}

func TestSearchSpecialtyFallback(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{}, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "need a fernco for the drain"})

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	require.Len(t, res.ManualEntryItems, 1)
	assert.Equal(t, "PLUMB-FERNCO-4", res.ManualEntryItems[0].SKU)
	assert.True(t, res.ManualEntryItems[0].IsManualEntry)
	assert.Contains(t, res.PlumbingMessage, "Found 1 specialty plumbing part(s)")
	assert.Empty(t, res.Message)
}

func TestSearchNoMatchesMessage(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{}, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "flux capacitor"})

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Contains(t, res.Message, "No matching products found")
}

func TestSearchZeroMatchesStillLogged(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{}, nil)

	var logged *domain.Interaction
	f.interactions.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		logged = args.Get(1).(*domain.Interaction)
	}).Return(nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "flux capacitor", SessionID: "sess-1"})

	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, "int-fixed", res.InteractionID)
	require.NotNil(t, logged)
	assert.Equal(t, "flux capacitor", logged.UserQuery)
	assert.Empty(t, logged.SuggestedProducts)
}

func TestSearchStaleCatalogAnnotated(t *testing.T) {
	snap := catalog.Snapshot{Products: pumpCatalog(), Available: true, Error: "stale data: refresh failed"}
	f := newMatcherFixture(t, snap, nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 90}}, nil)
	f.patterns.On("FindRelated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	res, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})

	require.NoError(t, err)
	assert.True(t, res.CatalogStale)
	require.Len(t, res.Matches, 1)
}

func TestSearchIdempotentReads(t *testing.T) {
	f := newMatcherFixture(t, availableSnapshot(pumpCatalog()...), nil)

	f.mappings.On("FindByQuery", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
	f.ranker.On("RankProducts", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]domain.CandidateMatch{{SKU: "P1", Name: "Pump Shaft Seal", Confidence: 90}}, nil)
	f.patterns.On("FindRelated", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	first, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})
	require.NoError(t, err)
	second, err := f.svc.Search(context.Background(), SearchInput{Query: "pump leaking"})
	require.NoError(t, err)

	assert.Equal(t, first.Matches, second.Matches)
	assert.Equal(t, first.Suggestions, second.Suggestions)
}
