package handlers

import (
	"net/http"

	"github.com/cipelem/pengaduan-server/internal/services"
	"go.uber.org/zap"
)

// UserHandler handles account management and one's own profile
type UserHandler struct {
	svc    *services.UserService
	logger *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *services.UserService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/users?q=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), actor(r), r.URL.Query().Get("q"))
	if err != nil {
		respondErr(w, h.logger, "list users", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateUserInput
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.Create(r.Context(), actor(r), req)
	if err != nil {
		respondErr(w, h.logger, "create user", err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		respondErr(w, h.logger, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Profile handles GET /api/v1/me
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Profile(r.Context(), actor(r))
	if err != nil {
		respondErr(w, h.logger, "get profile", err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// UpdateProfile handles PATCH /api/v1/me
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.ProfileInput
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), actor(r), req)
	if err != nil {
		respondErr(w, h.logger, "update profile", err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
