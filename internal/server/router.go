package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heritagepool/poolops/internal/api"
	"github.com/heritagepool/poolops/internal/api/handlers"
	"github.com/heritagepool/poolops/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator     middleware.AuthValidator
	SearchHandler     *handlers.SearchHandler
	LearningHandler   *handlers.LearningHandler
	CatalogHandler    *handlers.CatalogHandler
	TranscribeHandler *handlers.TranscribeHandler
	DescribeHandler   *handlers.DescribeHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Audio uploads from the transcribe endpoint set the ceiling.
	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Route("/api/ai", func(r chi.Router) {
			r.Post("/search", cfg.SearchHandler.Search)
			r.Post("/transcribe", cfg.TranscribeHandler.Transcribe)
			r.Post("/describe", cfg.DescribeHandler.Describe)

			r.Post("/log-interaction", cfg.LearningHandler.LogInteraction)
			r.Post("/log-feedback", cfg.LearningHandler.LogFeedback)
			r.Post("/log-estimate-completion", cfg.LearningHandler.LogEstimateCompletion)

			r.Get("/learned-patterns/{sku}", cfg.LearningHandler.LearnedPatterns)
			r.Get("/query-mappings/{query}", cfg.LearningHandler.QueryMappings)
			r.Get("/interactions", cfg.LearningHandler.ListInteractions)
			r.Get("/stats", cfg.LearningHandler.Stats)
		})

		r.Route("/api/products", func(r chi.Router) {
			r.Get("/", cfg.CatalogHandler.ListProducts)
			r.Get("/status", cfg.CatalogHandler.Status)
			r.Post("/refresh", cfg.CatalogHandler.Refresh)
		})
	})

	return r
}
