package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/realtimemaps-be/internal/models"
	"github.com/isdelr/realtimemaps-be/internal/services"
	"github.com/isdelr/realtimemaps-be/internal/validation"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for user management.
type UserHandler struct {
	service services.UserServiceProvider
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service services.UserServiceProvider) *UserHandler {
	return &UserHandler{service: service}
}

// Signup handles new user registration.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var payload models.UserCreate
	if err := validation.Decode(r.Body, &payload); err != nil {
		respondInvalid(w, err)
		return
	}

	user, err := h.service.Signup(r.Context(), payload)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			event := log.Info()
			if payload.Email != nil {
				event = event.Str("email", *payload.Email)
			}
			event.Msg("Signup rejected, email already registered")
			respondError(w, http.StatusBadRequest, "Email already exists")
			return
		}
		respondInternal(w, r, err, "Failed to register user")
		return
	}

	respondJSON(w, http.StatusOK, user.Out())
}

// Login checks credentials. It issues no token or cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload models.LoginRequest
	if err := validation.Decode(r.Body, &payload); err != nil {
		respondInvalid(w, err)
		return
	}

	user, err := h.service.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", payload.Email).Msg("Failed authentication attempt")
			respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		respondInternal(w, r, err, "Failed to authenticate user")
		return
	}

	respondJSON(w, http.StatusOK, okBody{OK: true, ID: user.ID})
}

// Get handles retrieving a user by their ID.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "id: must be a positive integer")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		respondInternal(w, r, err, "Failed to get user by ID")
		return
	}

	respondJSON(w, http.StatusOK, user.Out())
}
