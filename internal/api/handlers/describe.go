package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/heritagepool/poolops/internal/api"
)

// QuoteDescriber expands terse technician notes into customer-facing
// estimate language.
type QuoteDescriber interface {
	DescribeQuote(ctx context.Context, text string) (string, error)
}

type DescribeHandler struct {
	describer QuoteDescriber
}

func NewDescribeHandler(describer QuoteDescriber) *DescribeHandler {
	return &DescribeHandler{describer: describer}
}

type DescribeRequest struct {
	Text string `json:"text"`
}

type DescribeResponse struct {
	Description string `json:"description"`
}

func (h *DescribeHandler) Describe(w http.ResponseWriter, r *http.Request) {
	var req DescribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		api.Error(w, http.StatusBadRequest, "text is required")
		return
	}

	description, err := h.describer.DescribeQuote(r.Context(), req.Text)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, DescribeResponse{Description: description})
}
