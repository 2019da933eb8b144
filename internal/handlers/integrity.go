package handlers

import (
	"net/http"
	"strconv"

	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IntegrityHandler exposes the ledger tree for public verification
type IntegrityHandler struct {
	svc    *services.IntegrityService
	logger *zap.SugaredLogger
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(svc *services.IntegrityService, logger *zap.SugaredLogger) *IntegrityHandler {
	return &IntegrityHandler{svc: svc, logger: logger}
}

// Root handles GET /api/v1/integrity/root
func (h *IntegrityHandler) Root(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"root":       h.svc.Root(),
		"leaf_count": h.svc.LeafCount(),
		"timestamp":  h.svc.LastBuildTime(),
	})
}

// Proof handles GET /api/v1/integrity/proof/{index}
func (h *IntegrityHandler) Proof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid index")
		return
	}

	proof, err := h.svc.Proof(index)
	if err != nil {
		respondError(w, http.StatusNotFound, "Proof not available for index")
		return
	}
	respondJSON(w, http.StatusOK, proof)
}
