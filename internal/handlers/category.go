package handlers

import (
	"net/http"

	"github.com/cipelem/pengaduan-server/internal/services"
	"go.uber.org/zap"
)

// CategoryHandler handles the complaint taxonomy endpoints
type CategoryHandler struct {
	svc    *services.CategoryService
	logger *zap.SugaredLogger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *services.CategoryService, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.List(r.Context())
	if err != nil {
		respondErr(w, h.logger, "list categories", err)
		return
	}
	respondJSON(w, http.StatusOK, categories)
}

// Create handles POST /api/v1/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CategoryInput
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Create(r.Context(), actor(r), req)
	if err != nil {
		respondErr(w, h.logger, "create category", err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req services.CategoryInput
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.Update(r.Context(), actor(r), id, req)
	if err != nil {
		respondErr(w, h.logger, "update category", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Deactivate handles POST /api/v1/categories/{id}/deactivate
func (h *CategoryHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Deactivate(r.Context(), actor(r), id)
	if err != nil {
		respondErr(w, h.logger, "deactivate category", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		respondErr(w, h.logger, "delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
