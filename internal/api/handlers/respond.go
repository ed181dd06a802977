package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/isdelr/realtimemaps-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Detail string `json:"detail"`
}

// okBody acknowledges a write and carries the new row id.
type okBody struct {
	OK bool  `json:"ok"`
	ID int64 `json:"id"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorBody{Detail: detail})
}

// respondInvalid writes a 400 naming the first field that failed validation.
func respondInvalid(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		respondError(w, http.StatusBadRequest, verr.Error())
		return
	}
	respondError(w, http.StatusBadRequest, "Invalid request body")
}

// respondInternal logs err and hides it behind a generic 500.
func respondInternal(w http.ResponseWriter, r *http.Request, err error, msg string) {
	log.Error().Err(err).
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	respondError(w, http.StatusInternalServerError, "Internal server error")
}

// idParam parses the {id} URL parameter as a positive integer.
func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
