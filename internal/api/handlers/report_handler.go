package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/realtimemaps-be/internal/models"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/validation"
	ws "github.com/isdelr/realtimemaps-be/internal/websocket"
)

// Publisher fans a message out to live subscribers.
type Publisher interface {
	Publish(message []byte) bool
}

// ReportHandler handles HTTP requests for route reports.
type ReportHandler struct {
	service   services.ReportServiceProvider
	publisher Publisher
}

// NewReportHandler creates a new ReportHandler. publisher may be nil.
func NewReportHandler(service services.ReportServiceProvider, publisher Publisher) *ReportHandler {
	return &ReportHandler{service: service, publisher: publisher}
}

// Save stores one report and announces it to websocket subscribers.
func (h *ReportHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload models.ReportCreate
	if err := validation.Decode(r.Body, &payload); err != nil {
		respondInvalid(w, err)
		return
	}

	report, err := h.service.SaveReport(r.Context(), nil, payload)
	if err != nil {
		respondInternal(w, r, err, "Failed to save report")
		return
	}

	if h.publisher != nil {
		h.publisher.Publish(ws.NewReportCreatedMessage(report))
	}

	respondJSON(w, http.StatusOK, okBody{OK: true, ID: report.ID})
}

// ListByUser returns the reports authored by the user in the URL.
func (h *ReportHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id: must be a positive integer")
		return
	}

	reports, err := h.service.ListByUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, r, err, "Failed to list reports")
		return
	}

	respondJSON(w, http.StatusOK, reports)
}
