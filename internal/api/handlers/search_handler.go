package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/realtimemaps-be/internal/models"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/validation"
)

// SearchHandler handles HTTP requests for saved searches.
type SearchHandler struct {
	service services.SearchServiceProvider
}

// NewSearchHandler creates a new SearchHandler.
func NewSearchHandler(service services.SearchServiceProvider) *SearchHandler {
	return &SearchHandler{service: service}
}

// Save stores one search. Searches are saved without an owner because
// requests carry no caller identity.
func (h *SearchHandler) Save(w http.ResponseWriter, r *http.Request) {
	var payload models.SearchCreate
	if err := validation.Decode(r.Body, &payload); err != nil {
		respondInvalid(w, err)
		return
	}

	rec, err := h.service.SaveSearch(r.Context(), nil, payload)
	if err != nil {
		respondInternal(w, r, err, "Failed to save search")
		return
	}

	respondJSON(w, http.StatusOK, okBody{OK: true, ID: rec.ID})
}

// ListByUser returns the searches owned by the user in the URL.
func (h *SearchHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id: must be a positive integer")
		return
	}

	searches, err := h.service.ListByUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, r, err, "Failed to list searches")
		return
	}

	respondJSON(w, http.StatusOK, searches)
}
