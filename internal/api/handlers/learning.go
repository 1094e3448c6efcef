package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/heritagepool/poolops/internal/api"
	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/metrics"
	"github.com/heritagepool/poolops/internal/pagination"
	"github.com/heritagepool/poolops/internal/service"
)

// FeedbackService is the feedback-logging surface used by the handler.
type FeedbackService interface {
	LogInteraction(ctx context.Context, i *domain.Interaction) (string, error)
	LogFeedback(ctx context.Context, f *domain.FeedbackRecord) error
	LogEstimateCompletion(ctx context.Context, sessionID, propertyType string, selections []domain.SelectedProduct) error
	ListInteractions(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*service.InteractionPageResult, error)
	Stats(ctx context.Context) (*service.LearningStats, error)
}

// LearningService is the learned-mapping read surface used by the handler.
type LearningService interface {
	GetLearnedMappings(ctx context.Context, userID, query string) []*domain.QueryMapping
	GetRelatedProducts(ctx context.Context, userID string, skus []string, propertyType string) []*domain.RelatedProduct
}

type LearningHandler struct {
	feedback FeedbackService
	learning LearningService
}

func NewLearningHandler(feedback FeedbackService, learning LearningService) *LearningHandler {
	return &LearningHandler{feedback: feedback, learning: learning}
}

type LogInteractionRequest struct {
	UserID            string                    `json:"userId"`
	UserQuery         string                    `json:"userQuery"`
	SuggestedProducts []domain.SuggestedProduct `json:"suggestedProducts"`
	SessionID         string                    `json:"sessionId"`
	PropertyType      string                    `json:"propertyType"`
}

type LogInteractionResponse struct {
	InteractionID string `json:"interactionId"`
}

func (h *LearningHandler) LogInteraction(w http.ResponseWriter, r *http.Request) {
	var req LogInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserQuery == "" {
		api.Error(w, http.StatusBadRequest, "userQuery is required")
		return
	}
	if req.SessionID == "" {
		api.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	i := domain.NewInteraction("", req.UserID, req.SessionID, req.UserQuery,
		req.SuggestedProducts, req.PropertyType, time.Now().UTC())

	id, err := h.feedback.LogInteraction(r.Context(), i)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, LogInteractionResponse{InteractionID: id})
}

type LogFeedbackRequest struct {
	InteractionID    string   `json:"interactionId"`
	ProductSKU       string   `json:"productSku"`
	ProductName      string   `json:"productName"`
	FeedbackType     string   `json:"feedbackType"`
	QuantitySelected *int     `json:"quantitySelected"`
	ConfidenceScore  *float64 `json:"confidenceScore"`
}

func (h *LearningHandler) LogFeedback(w http.ResponseWriter, r *http.Request) {
	var req LogFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.InteractionID == "" {
		api.Error(w, http.StatusBadRequest, "interactionId is required")
		return
	}
	if req.ProductSKU == "" {
		api.Error(w, http.StatusBadRequest, "productSku is required")
		return
	}
	feedbackType := domain.FeedbackType(req.FeedbackType)
	if !feedbackType.IsValid() {
		api.Error(w, http.StatusBadRequest, "invalid feedback type")
		return
	}

	f := domain.NewFeedbackRecord("", req.InteractionID, req.ProductSKU, req.ProductName,
		feedbackType, req.QuantitySelected, req.ConfidenceScore, time.Now().UTC())

	if err := h.feedback.LogFeedback(r.Context(), f); err != nil {
		api.HandleError(w, err)
		return
	}
	metrics.FeedbackTotal.WithLabelValues(req.FeedbackType).Inc()

	api.Success(w, http.StatusOK, map[string]bool{"success": true})
}

type LogEstimateCompletionRequest struct {
	SessionID        string                   `json:"sessionId"`
	SelectedProducts []domain.SelectedProduct `json:"selectedProducts"`
	PropertyType     string                   `json:"propertyType"`
}

func (h *LearningHandler) LogEstimateCompletion(w http.ResponseWriter, r *http.Request) {
	var req LogEstimateCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionID == "" {
		api.Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	err := h.feedback.LogEstimateCompletion(r.Context(), req.SessionID, req.PropertyType, req.SelectedProducts)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, map[string]bool{"success": true})
}

type RelatedProductResponse struct {
	SKU   string `json:"sku"`
	Count int    `json:"coOccurrenceCount"`
}

func (h *LearningHandler) LearnedPatterns(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")
	if sku == "" {
		api.Error(w, http.StatusBadRequest, "sku is required")
		return
	}
	propertyType := r.URL.Query().Get("propertyType")
	userID := r.URL.Query().Get("userId")

	related := h.learning.GetRelatedProducts(r.Context(), userID, []string{sku}, propertyType)

	out := make([]RelatedProductResponse, 0, len(related))
	for _, rel := range related {
		out = append(out, RelatedProductResponse{SKU: rel.SKU, Count: rel.Count})
	}
	api.Success(w, http.StatusOK, out)
}

type QueryMappingResponse struct {
	QueryTerm        string  `json:"queryTerm"`
	MappedProductSKU string  `json:"mappedProductSku"`
	SuccessCount     int     `json:"successCount"`
	TotalCount       int     `json:"totalCount"`
	SuccessRate      float64 `json:"successRate"`
}

func (h *LearningHandler) QueryMappings(w http.ResponseWriter, r *http.Request) {
	query := chi.URLParam(r, "query")
	if query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	userID := r.URL.Query().Get("userId")

	mappings := h.learning.GetLearnedMappings(r.Context(), userID, query)

	out := make([]QueryMappingResponse, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, QueryMappingResponse{
			QueryTerm:        m.QueryTerm,
			MappedProductSKU: m.MappedProductSKU,
			SuccessCount:     m.SuccessCount,
			TotalCount:       m.TotalCount,
			SuccessRate:      m.SuccessRate(),
		})
	}
	api.Success(w, http.StatusOK, out)
}

func (h *LearningHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.feedback.Stats(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, stats)
}

type InteractionListResponse struct {
	Items      []InteractionResponse `json:"items"`
	NextCursor string                `json:"nextCursor,omitempty"`
	HasMore    bool                  `json:"hasMore"`
}

type InteractionResponse struct {
	ID                string                    `json:"id"`
	UserID            string                    `json:"userId,omitempty"`
	SessionID         string                    `json:"sessionId"`
	UserQuery         string                    `json:"userQuery"`
	SuggestedProducts []domain.SuggestedProduct `json:"suggestedProducts"`
	SelectedProducts  []domain.SelectedProduct  `json:"selectedProducts,omitempty"`
	PropertyType      string                    `json:"propertyType,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
}

func (h *LearningHandler) ListInteractions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	page, err := h.feedback.ListInteractions(r.Context(), userID, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := InteractionListResponse{
		Items:      make([]InteractionResponse, 0, len(page.Items)),
		NextCursor: page.NextCursor,
		HasMore:    page.HasMore,
	}
	for _, i := range page.Items {
		resp.Items = append(resp.Items, InteractionResponse{
			ID:                i.ID,
			UserID:            i.UserID,
			SessionID:         i.SessionID,
			UserQuery:         i.UserQuery,
			SuggestedProducts: i.SuggestedProducts,
			SelectedProducts:  i.SelectedProducts,
			PropertyType:      i.PropertyType,
			CreatedAt:         i.CreatedAt,
		})
	}
	api.Success(w, http.StatusOK, resp)
}
