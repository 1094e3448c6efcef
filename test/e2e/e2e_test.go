//go:build e2e

package e2e

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/service"
)

// TestLearningLoop exercises the full learning cycle over HTTP: search,
// select feedback, estimate completion, then verifies the learned mappings
// and co-occurrence patterns influence subsequent lookups.
func TestLearningLoop(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	env.Ranker.responses["pump leaking"] = []domain.CandidateMatch{
		{SKU: "PMP-100", Name: "1HP Pool Pump", Price: 499.99, Confidence: 90, Reason: "matches pump failure"},
	}

	// 1. Search for a part
	searchResp, err := env.Post("/api/ai/search", map[string]interface{}{
		"description": "pump leaking",
		"userId":      "tech-1",
		"sessionId":   "sess-1",
	})
	require.NoError(t, err)

	var search service.SearchResult
	require.NoError(t, json.Unmarshal(searchResp.Data, &search))
	require.Len(t, search.Matches, 1)
	assert.Equal(t, "PMP-100", search.Matches[0].SKU)
	assert.True(t, search.Matches[0].Selected)
	require.NotEmpty(t, search.InteractionID)

	// 2. Technician accepts the suggestion
	_, err = env.Post("/api/ai/log-feedback", map[string]interface{}{
		"interactionId": search.InteractionID,
		"productSku":    "PMP-100",
		"productName":   "1HP Pool Pump",
		"feedbackType":  "selected",
	})
	require.NoError(t, err)

	// 3. The query term is now mapped to the selected product
	mappingsResp, err := env.Get("/api/ai/query-mappings/" + url.PathEscape("pump leaking") + "?userId=tech-1")
	require.NoError(t, err)

	var mappings []map[string]interface{}
	require.NoError(t, json.Unmarshal(mappingsResp.Data, &mappings))
	require.Len(t, mappings, 1)
	assert.Equal(t, "PMP-100", mappings[0]["mappedProductSku"])
	assert.Equal(t, float64(1), mappings[0]["successCount"])

	// 4. Estimate completion records co-occurrence for the final selection
	_, err = env.Post("/api/ai/log-estimate-completion", map[string]interface{}{
		"sessionId": "sess-1",
		"selectedProducts": []map[string]interface{}{
			{"sku": "PMP-100", "quantity": 1},
			{"sku": "SEAL-10", "quantity": 2},
		},
	})
	require.NoError(t, err)

	patternsResp, err := env.Get("/api/ai/learned-patterns/PMP-100")
	require.NoError(t, err)

	var patterns []map[string]interface{}
	require.NoError(t, json.Unmarshal(patternsResp.Data, &patterns))
	require.Len(t, patterns, 1)
	assert.Equal(t, "SEAL-10", patterns[0]["sku"])
	assert.Equal(t, float64(1), patterns[0]["coOccurrenceCount"])

	// 5. A repeat search now carries a related-product suggestion
	searchResp2, err := env.Post("/api/ai/search", map[string]interface{}{
		"description": "pump leaking",
		"userId":      "tech-1",
		"sessionId":   "sess-2",
	})
	require.NoError(t, err)

	var search2 service.SearchResult
	require.NoError(t, json.Unmarshal(searchResp2.Data, &search2))
	require.Len(t, search2.Matches, 1)
	require.Len(t, search2.Suggestions, 1)
	assert.Equal(t, "SEAL-10", search2.Suggestions[0].SKU)
	assert.Equal(t, 55, search2.Suggestions[0].Confidence)
	assert.True(t, search2.LearnedFromHistory)

	// 6. Stats reflect the recorded activity
	statsResp, err := env.Get("/api/ai/stats")
	require.NoError(t, err)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(statsResp.Data, &stats))
	assert.Equal(t, float64(2), stats["totalInteractions"])
}

func TestSearchDoneIntent(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	resp, err := env.Post("/api/ai/search", map[string]interface{}{
		"description": "that's all",
		"sessionId":   "sess-1",
		"itemCount":   3,
	})
	require.NoError(t, err)

	var result service.SearchResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.True(t, result.Done)
	assert.Equal(t, 3, result.ItemCount)
}

func TestSearchSpecialtyFallback(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	// No scripted ranker response: the oracle finds nothing, but the query
	// names a known specialty plumbing part.
	resp, err := env.Post("/api/ai/search", map[string]interface{}{
		"description": "need a fernco coupling for the backwash line",
		"sessionId":   "sess-1",
	})
	require.NoError(t, err)

	var result service.SearchResult
	require.NoError(t, json.Unmarshal(resp.Data, &result))
	assert.Empty(t, result.Matches)
	require.NotEmpty(t, result.ManualEntryItems)
	assert.True(t, result.ManualEntryItems[0].IsManualEntry)
	assert.NotEmpty(t, result.PlumbingMessage)
}

func TestCatalogEndpoints(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	listResp, err := env.Get("/api/products/?category=pumps")
	require.NoError(t, err)

	var list map[string]interface{}
	require.NoError(t, json.Unmarshal(listResp.Data, &list))
	assert.Equal(t, float64(3), list["total"])

	statusResp, err := env.Get("/api/products/status")
	require.NoError(t, err)

	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(statusResp.Data, &status))
	assert.Equal(t, true, status["serviceAvailable"])
	assert.Equal(t, float64(4), status["productCount"])
}

func TestUnauthorizedRequestRejected(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	req, err := env.HTTPClient.Get(env.ServerURL + "/api/products/status")
	require.NoError(t, err)
	defer req.Body.Close()
	assert.Equal(t, 401, req.StatusCode)
}
