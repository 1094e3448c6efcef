package handlers

import (
	"net/http"
	"strings"

	"github.com/heritagepool/poolops/internal/api"
	"github.com/heritagepool/poolops/internal/catalog"
	"github.com/heritagepool/poolops/internal/domain"
)

type CatalogHandler struct {
	cache *catalog.Cache
}

func NewCatalogHandler(cache *catalog.Cache) *CatalogHandler {
	return &CatalogHandler{cache: cache}
}

type ProductListResponse struct {
	Products []domain.CatalogProduct `json:"products"`
	Total    int                     `json:"total"`
}

// ListProducts serves the plain catalog browse path. Filters are applied
// in-memory against the cached snapshot.
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	snap := h.cache.Get(r.Context())
	if !snap.Available {
		api.JSON(w, http.StatusServiceUnavailable, ServiceUnavailableResponse{
			ServiceAvailable: false,
			Error:            "product catalog is unavailable",
		})
		return
	}

	category := strings.ToLower(r.URL.Query().Get("category"))
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))

	products := make([]domain.CatalogProduct, 0, len(snap.Products))
	for _, p := range snap.Products {
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if search != "" && !strings.Contains(p.SearchText(), search) {
			continue
		}
		products = append(products, p)
	}

	api.Success(w, http.StatusOK, ProductListResponse{Products: products, Total: len(products)})
}

type CatalogStatusResponse struct {
	ServiceAvailable bool `json:"serviceAvailable"`
	catalog.Status
}

// Status reports cache state without forcing a refresh.
func (h *CatalogHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.cache.Status()
	api.Success(w, http.StatusOK, CatalogStatusResponse{
		ServiceAvailable: status.ProductCount > 0,
		Status:           status,
	})
}

// Refresh forces a cache refresh bypassing the TTL.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.cache.ForceRefresh(r.Context()); err != nil {
		api.Error(w, http.StatusBadGateway, "catalog refresh failed")
		return
	}
	api.Success(w, http.StatusOK, h.cache.Status())
}
