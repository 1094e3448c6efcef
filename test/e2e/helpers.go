//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heritagepool/poolops/internal/api/handlers"
	"github.com/heritagepool/poolops/internal/api/middleware"
	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/repository"
	"github.com/heritagepool/poolops/internal/server"
	"github.com/heritagepool/poolops/internal/service"
	"github.com/heritagepool/poolops/internal/testutil"
)

const testAPIKey = "e2e-test-key"

// E2ETestEnv holds all resources needed for E2E tests
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	Ranker       *scriptedRanker
	Provider     *fixedProvider
	HTTPClient   *http.Client
}

// fixedProvider serves a fixed catalog so tests are hermetic.
type fixedProvider struct {
	products []domain.CatalogProduct
}

func (p *fixedProvider) FetchAll(ctx context.Context) ([]domain.CatalogProduct, error) {
	return p.products, nil
}

// scriptedRanker returns a canned ranking keyed by query substring, standing
// in for the live language model.
type scriptedRanker struct {
	responses map[string][]domain.CandidateMatch
}

func (r *scriptedRanker) RankProducts(ctx context.Context, query string, candidates []domain.CatalogProduct, learnedHints []string) ([]domain.CandidateMatch, error) {
	for key, matches := range r.responses {
		if key == query {
			return matches, nil
		}
	}
	return nil, nil
}

func testCatalog() []domain.CatalogProduct {
	return []domain.CatalogProduct{
		{SKU: "PMP-100", Name: "1HP Pool Pump", Category: "Pumps", Price: 499.99, Unit: "each"},
		{SKU: "PMP-200", Name: "2HP Pool Pump", Category: "Pumps", Price: 699.99, Unit: "each"},
		{SKU: "FLT-300", Name: "Filter Cartridge", Category: "Filters", Price: 59.99, Unit: "each"},
		{SKU: "SEAL-10", Name: "Pump Shaft Seal Kit", Category: "Pumps", Price: 24.99, Unit: "each"},
	}
}

// SetupE2EEnv creates a full E2E test environment with a database container
// and a running HTTP server. The catalog provider and ranking oracle are
// in-memory stand-ins; everything else is the production wiring.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	provider := &fixedProvider{products: testCatalog()}
	ranker := &scriptedRanker{responses: map[string][]domain.CandidateMatch{}}

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, provider, ranker, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		Ranker:       ranker,
		Provider:     provider,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

// Get performs a GET request
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	url := e.ServerURL + path

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, apiResp.Error)
	}

	return &apiResp, nil
}

// startServer starts the HTTP server with the full production wiring
func startServer(t *testing.T, pool *pgxpool.Pool, provider catalog.Provider, ranker service.ProductRanker, port int) (string, func()) {
	interactionRepo := repository.NewInteractionRepository(pool)
	feedbackRepo := repository.NewFeedbackRepository(pool)
	mappingRepo := repository.NewQueryMappingRepository(pool)
	patternRepo := repository.NewProductPatternRepository(pool)

	searchCache := catalog.New(provider, 15*time.Minute)
	browseCache := catalog.New(provider, 5*time.Minute)

	learningSvc := service.NewLearningService(mappingRepo, patternRepo)
	feedbackSvc := service.NewFeedbackService(interactionRepo, feedbackRepo, learningSvc)
	matcherSvc := service.NewMatcherService(
		searchCache,
		ranker,
		learningSvc,
		feedbackSvc,
		service.NewIntentClassifier(),
		service.NewSpecialtyDictionary(),
		nil,
	)

	cfg := server.RouterConfig{
		AuthValidator:     middleware.NewStaticKeyValidator([]string{testAPIKey + ":e2e"}),
		SearchHandler:     handlers.NewSearchHandler(matcherSvc),
		LearningHandler:   handlers.NewLearningHandler(feedbackSvc, learningSvc),
		CatalogHandler:    handlers.NewCatalogHandler(browseCache),
		TranscribeHandler: handlers.NewTranscribeHandler(&noopTranscriber{}),
		DescribeHandler:   handlers.NewDescribeHandler(&noopDescriber{}),
	}

	router := server.NewRouter(cfg)
	addr := fmt.Sprintf(":%d", port)

	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

type noopTranscriber struct{}

func (noopTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "pump is leaking", nil
}

type noopDescriber struct{}

func (noopDescriber) DescribeQuote(ctx context.Context, text string) (string, error) {
	return "Replace the pump.", nil
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
