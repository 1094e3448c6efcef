package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/api/handlers"
	"github.com/heritagepool/poolops/internal/api/middleware"
	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/service"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, in service.SearchInput) (*service.SearchResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchResult), args.Error(1)
}

type MockFeedbackService struct {
	mock.Mock
}

func (m *MockFeedbackService) LogInteraction(ctx context.Context, i *domain.Interaction) (string, error) {
	args := m.Called(ctx, i)
	return args.String(0), args.Error(1)
}

func (m *MockFeedbackService) LogFeedback(ctx context.Context, f *domain.FeedbackRecord) error {
	args := m.Called(ctx, f)
	return args.Error(0)
}

func (m *MockFeedbackService) LogEstimateCompletion(ctx context.Context, sessionID, propertyType string, selections []domain.SelectedProduct) error {
	args := m.Called(ctx, sessionID, propertyType, selections)
	return args.Error(0)
}

func (m *MockFeedbackService) ListInteractions(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*service.InteractionPageResult, error) {
	args := m.Called(ctx, userID, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InteractionPageResult), args.Error(1)
}

func (m *MockFeedbackService) Stats(ctx context.Context) (*service.LearningStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LearningStats), args.Error(1)
}

type MockLearningService struct {
	mock.Mock
}

func (m *MockLearningService) GetLearnedMappings(ctx context.Context, userID, query string) []*domain.QueryMapping {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.QueryMapping)
}

func (m *MockLearningService) GetRelatedProducts(ctx context.Context, userID string, skus []string, propertyType string) []*domain.RelatedProduct {
	args := m.Called(ctx, userID, skus, propertyType)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]*domain.RelatedProduct)
}

type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

type MockDescriber struct {
	mock.Mock
}

func (m *MockDescriber) DescribeQuote(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

type stubProvider struct {
	products []domain.CatalogProduct
	err      error
}

func (p *stubProvider) FetchAll(ctx context.Context) ([]domain.CatalogProduct, error) {
	return p.products, p.err
}

type routerFixture struct {
	router     http.Handler
	searcher   *MockSearcher
	feedback   *MockFeedbackService
	learning   *MockLearningService
	transcribe *MockTranscriber
	describe   *MockDescriber
}

func setupRouter(t *testing.T) *routerFixture {
	t.Helper()

	f := &routerFixture{
		searcher:   new(MockSearcher),
		feedback:   new(MockFeedbackService),
		learning:   new(MockLearningService),
		transcribe: new(MockTranscriber),
		describe:   new(MockDescriber),
	}

	cache := catalog.New(&stubProvider{products: []domain.CatalogProduct{
		{SKU: "PMP-100", Name: "1HP Pool Pump", Category: "Pumps"},
	}}, 5*time.Minute)

	cfg := RouterConfig{
		AuthValidator:     middleware.NewStaticKeyValidator([]string{"test-key:tech-app"}),
		SearchHandler:     handlers.NewSearchHandler(f.searcher),
		LearningHandler:   handlers.NewLearningHandler(f.feedback, f.learning),
		CatalogHandler:    handlers.NewCatalogHandler(cache),
		TranscribeHandler: handlers.NewTranscribeHandler(f.transcribe),
		DescribeHandler:   handlers.NewDescribeHandler(f.describe),
	}

	f.router = NewRouter(cfg)
	return f
}

func TestRouter_HealthEndpoint(t *testing.T) {
	f := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_MetricsEndpoint_NoAuthRequired(t *testing.T) {
	f := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	f := setupRouter(t)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/ai/search"},
		{http.MethodPost, "/api/ai/transcribe"},
		{http.MethodPost, "/api/ai/describe"},
		{http.MethodPost, "/api/ai/log-interaction"},
		{http.MethodPost, "/api/ai/log-feedback"},
		{http.MethodPost, "/api/ai/log-estimate-completion"},
		{http.MethodGet, "/api/ai/learned-patterns/PMP-100"},
		{http.MethodGet, "/api/ai/query-mappings/pump"},
		{http.MethodGet, "/api/ai/interactions"},
		{http.MethodGet, "/api/ai/stats"},
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/products/status"},
		{http.MethodPost, "/api/products/refresh"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			f.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestRouter_Search_WithValidAuth(t *testing.T) {
	f := setupRouter(t)

	f.searcher.On("Search", mock.Anything, mock.MatchedBy(func(in service.SearchInput) bool {
		return in.Query == "pump leaking"
	})).Return(&service.SearchResult{
		Matches:     []domain.CandidateMatch{{SKU: "PMP-100", Confidence: 90, Selected: true}},
		Suggestions: []domain.CandidateMatch{},
	}, nil)

	body := `{"description":"pump leaking","sessionId":"sess-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/search", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	f.searcher.AssertExpectations(t)
}

func TestRouter_InvalidKey_Rejected(t *testing.T) {
	f := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/products/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_Search_ErrorMapping(t *testing.T) {
	f := setupRouter(t)

	f.searcher.On("Search", mock.Anything, mock.Anything).Return(nil,
		domain.NewDomainErrorWithCause(domain.ErrCodeOracleTimeout, "ranking timed out", errors.New("context deadline exceeded")))

	body := `{"description":"pump leaking","sessionId":"sess-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/ai/search", bytes.NewReader([]byte(body)))
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()

	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}
