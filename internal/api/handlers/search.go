package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/heritagepool/poolops/internal/api"
	"github.com/heritagepool/poolops/internal/domain"
	"github.com/heritagepool/poolops/internal/service"
)

// Searcher runs the product matching pipeline.
type Searcher interface {
	Search(ctx context.Context, in service.SearchInput) (*service.SearchResult, error)
}

type SearchHandler struct {
	svc Searcher
}

func NewSearchHandler(svc Searcher) *SearchHandler {
	return &SearchHandler{svc: svc}
}

type SearchRequest struct {
	Description  string `json:"description"`
	UserID       string `json:"userId"`
	SessionID    string `json:"sessionId"`
	PropertyType string `json:"propertyType"`
	ItemCount    int    `json:"itemCount"`
}

// ServiceUnavailableResponse is the catalog-down payload. The mobile client
// keys off serviceAvailable, not the status code alone.
type ServiceUnavailableResponse struct {
	ServiceAvailable bool   `json:"serviceAvailable"`
	Error            string `json:"error"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Description == "" {
		api.Error(w, http.StatusBadRequest, "description is required")
		return
	}

	result, err := h.svc.Search(r.Context(), service.SearchInput{
		Query:        req.Description,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		PropertyType: req.PropertyType,
		ItemCount:    req.ItemCount,
	})
	if err != nil {
		var derr *domain.DomainError
		if errors.As(err, &derr) && derr.Code == domain.ErrCodeServiceUnavailable {
			api.JSON(w, http.StatusServiceUnavailable, ServiceUnavailableResponse{
				ServiceAvailable: false,
				Error:            derr.Message,
			})
			return
		}
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, result)
}
