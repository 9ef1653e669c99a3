package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes registers all analytics routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Route("/predictions", func(r chi.Router) {
			r.Post("/clv/{customerID}", h.HandlePredictCLV)
			r.Post("/churn", h.HandleScoreChurn)
			r.Get("/{customerID}/latest", h.HandleGetLatestPrediction)
		})

		r.Get("/forecast", h.HandleForecast)

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", h.HandleListRecommendations)
			r.Post("/refresh", h.HandleRefreshRecommendations)
		})

		r.Route("/models", func(r chi.Router) {
			// Retrain simulates a training delay; give it headroom
			r.Use(middleware.Timeout(60 * time.Second))
			r.Post("/{modelType}/retrain", h.HandleRetrain)
		})
	})
}
