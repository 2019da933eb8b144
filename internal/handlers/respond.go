// Package handlers contains HTTP request handlers for the complaint portal API.
// Handlers parse requests, call services, and return JSON responses.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/middleware"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every failed request
type errorBody struct {
	Error string         `json:"error"`
	Kind  lifecycle.Kind `json:"kind,omitempty"`
	Field string         `json:"field,omitempty"`
}

// Helper: respond with JSON
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Helper: respond with error
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		return http.StatusUnauthorized
	}
	switch lifecycle.KindOf(err) {
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindForbidden:
		return http.StatusForbidden
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindConcurrentModification, lifecycle.KindComplaintLocked:
		return http.StatusConflict
	case lifecycle.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case lifecycle.KindStoreUnavailable, lifecycle.KindDuplicateTicket:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes err with the status its kind maps to. Server-side
// failures are logged and their detail withheld from the client.
func respondErr(w http.ResponseWriter, logger *zap.SugaredLogger, op string, err error) {
	status := statusFor(err)
	body := errorBody{Error: err.Error(), Kind: lifecycle.KindOf(err)}

	var verr *lifecycle.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	if status >= http.StatusInternalServerError {
		logger.Errorw("Request failed", "op", op, "error", err)
		body.Error = "Service temporarily unavailable"
	}
	respondJSON(w, status, body)
}

// decode reads a JSON request body into v
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// idParam parses the {id} URL parameter
func idParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// intQuery parses an optional integer query parameter
func intQuery(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil && v > 0 {
		return v
	}
	return fallback
}

// actor returns the authenticated actor. Routes without identity act as an
// anonymous resident.
func actor(r *http.Request) models.Actor {
	if a, ok := middleware.ActorFrom(r.Context()); ok {
		return a
	}
	return models.Actor{Role: models.RoleWarga}
}
