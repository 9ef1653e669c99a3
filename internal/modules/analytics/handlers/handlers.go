// Package handlers provides HTTP handlers for the prediction engines.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/insightlab/insight/internal/modules/analytics"
)

// Handler handles analytics HTTP requests
type Handler struct {
	service *analytics.Service
	log     zerolog.Logger
}

// NewHandler creates a new analytics handler
func NewHandler(service *analytics.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "analytics").Logger(),
	}
}

// HandlePredictCLV handles POST /api/predictions/clv/{customerID}
func (h *Handler) HandlePredictCLV(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	prediction, err := h.service.PredictCLV(customerID)
	if err != nil {
		if errors.Is(err, analytics.ErrCustomerNotFound) {
			h.writeError(w, http.StatusNotFound, "Customer not found")
			return
		}
		h.log.Error().Err(err).Int64("customer_id", customerID).Msg("CLV prediction failed")
		h.writeError(w, http.StatusInternalServerError, "Prediction failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, prediction)
}

// churnRequest is the optional body for churn scoring. An empty body (or
// empty id list) scores every customer in the store.
type churnRequest struct {
	CustomerIDs []int64 `json:"customer_ids"`
}

// HandleScoreChurn handles POST /api/predictions/churn
func (h *Handler) HandleScoreChurn(w http.ResponseWriter, r *http.Request) {
	var request churnRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	startTime := time.Now()

	var predictions interface{}
	var err error
	if len(request.CustomerIDs) > 0 {
		predictions, err = h.service.ScoreChurnCustomers(request.CustomerIDs)
	} else {
		predictions, err = h.service.ScoreChurnAll()
	}

	if err != nil {
		if errors.Is(err, analytics.ErrCustomerNotFound) {
			h.writeError(w, http.StatusNotFound, "Customer not found")
			return
		}
		h.log.Error().Err(err).Msg("Churn scoring failed")
		h.writeError(w, http.StatusInternalServerError, "Churn scoring failed: "+err.Error())
		return
	}

	h.log.Info().
		Dur("elapsed", time.Since(startTime)).
		Msg("Churn scoring completed")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"predictions": predictions,
	})
}

// HandleGetLatestPrediction handles GET /api/predictions/{customerID}/latest
func (h *Handler) HandleGetLatestPrediction(w http.ResponseWriter, r *http.Request) {
	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid customer id")
		return
	}

	predictionType := r.URL.Query().Get("type")
	if predictionType != "clv" && predictionType != "churn" {
		h.writeError(w, http.StatusBadRequest, "Query parameter 'type' must be 'clv' or 'churn'")
		return
	}

	stored, err := h.service.LatestPrediction(customerID, predictionType)
	if err != nil {
		h.log.Error().Err(err).Int64("customer_id", customerID).Msg("Prediction lookup failed")
		h.writeError(w, http.StatusInternalServerError, "Lookup failed: "+err.Error())
		return
	}
	if stored == nil {
		h.writeError(w, http.StatusNotFound, "No prediction stored for customer")
		return
	}

	h.writeJSON(w, http.StatusOK, stored)
}

// HandleForecast handles GET /api/forecast?days=N
func (h *Handler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	days := 30
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid days parameter")
			return
		}
		days = parsed
	}

	if days <= 0 {
		h.writeError(w, http.StatusBadRequest, "Days must be positive")
		return
	}
	if days > 365 {
		h.writeError(w, http.StatusBadRequest, "Days must not exceed 365")
		return
	}

	points, err := h.service.ForecastSales(days)
	if err != nil {
		h.log.Error().Err(err).Int("days", days).Msg("Forecast failed")
		h.writeError(w, http.StatusInternalServerError, "Forecast failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"days":     days,
		"forecast": points,
	})
}

// HandleRefreshRecommendations handles POST /api/recommendations/refresh
func (h *Handler) HandleRefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	recs, err := h.service.RefreshRecommendations()
	if err != nil {
		h.log.Error().Err(err).Msg("Recommendation refresh failed")
		h.writeError(w, http.StatusInternalServerError, "Refresh failed: "+err.Error())
		return
	}

	h.log.Info().
		Int("recommendations", len(recs)).
		Dur("elapsed", time.Since(startTime)).
		Msg("Recommendations refreshed")

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
	})
}

// HandleListRecommendations handles GET /api/recommendations
func (h *Handler) HandleListRecommendations(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	recs, err := h.service.ListRecommendations(limit)
	if err != nil {
		h.log.Error().Err(err).Msg("Recommendation listing failed")
		h.writeError(w, http.StatusInternalServerError, "Listing failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"recommendations": recs,
	})
}

// HandleRetrain handles POST /api/models/{modelType}/retrain
func (h *Handler) HandleRetrain(w http.ResponseWriter, r *http.Request) {
	modelType := chi.URLParam(r, "modelType")
	if modelType == "" {
		h.writeError(w, http.StatusBadRequest, "Model type is required")
		return
	}

	result, err := h.service.Retrain(r.Context(), modelType)
	if err != nil {
		h.log.Error().Err(err).Str("model_type", modelType).Msg("Retrain failed")
		h.writeError(w, http.StatusInternalServerError, "Retrain failed: "+err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// writeJSON writes a JSON response with the given status code
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
