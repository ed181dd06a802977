package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/isdelr/realtimemaps-be/internal/transit"
	"github.com/rs/zerolog/log"
)

// TransitProvider looks up live train and flight data.
type TransitProvider interface {
	TrainStatus(ctx context.Context, trainNo, date string) (json.RawMessage, error)
	FlightSummary(ctx context.Context, flightNo, fr24ID string) (json.RawMessage, error)
}

// TransitHandler proxies train and flight lookups.
type TransitHandler struct {
	provider TransitProvider
}

// NewTransitHandler creates a new TransitHandler.
func NewTransitHandler(provider TransitProvider) *TransitHandler {
	return &TransitHandler{provider: provider}
}

// TrainStatus handles GET /train/status?train_no=...&date=DD-MM-YYYY.
func (h *TransitHandler) TrainStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.provider.TrainStatus(r.Context(), q.Get("train_no"), q.Get("date"))
	if err != nil {
		h.fail(w, err, "Train")
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// FlightSummary handles GET /flight/summary?flight_no=... or ?fr24_id=...
func (h *TransitHandler) FlightSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.provider.FlightSummary(r.Context(), q.Get("flight_no"), q.Get("fr24_id"))
	if err != nil {
		h.fail(w, err, "Flight")
		return
	}
	respondJSON(w, http.StatusOK, body)
}

// TrafficStatus is a placeholder until a traffic provider is wired in.
func (h *TransitHandler) TrafficStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Traffic status endpoint placeholder"})
}

func (h *TransitHandler) fail(w http.ResponseWriter, err error, provider string) {
	var upErr *transit.UpstreamError
	switch {
	case errors.Is(err, transit.ErrMissingParam):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, transit.ErrNotConfigured):
		log.Error().Err(err).Msg("Transit provider not configured")
		respondError(w, http.StatusInternalServerError, provider+" API key not set in environment")
	case errors.As(err, &upErr):
		log.Warn().Err(err).Int("status", upErr.StatusCode).Msg("Upstream transit API failed")
		respondError(w, http.StatusBadGateway, provider+" API returned error")
	default:
		log.Error().Err(err).Msg("Transit lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
