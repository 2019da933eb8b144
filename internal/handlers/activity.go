package handlers

import (
	"net/http"

	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ActivityHandler handles activity log endpoints
type ActivityHandler struct {
	svc    *services.ActivityLogService
	logger *zap.SugaredLogger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(svc *services.ActivityLogService, logger *zap.SugaredLogger) *ActivityHandler {
	return &ActivityHandler{svc: svc, logger: logger}
}

// ByTicket handles GET /api/v1/activity/ticket/{ticketID}
func (h *ActivityHandler) ByTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	if ticketID == "" {
		respondError(w, http.StatusBadRequest, "Ticket id required")
		return
	}

	logs, err := h.svc.FetchByTicket(r.Context(), actor(r), ticketID, intQuery(r, "limit", 50))
	if err != nil {
		respondErr(w, h.logger, "activity by ticket", err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}

// Recent handles GET /api/v1/activity/recent
func (h *ActivityHandler) Recent(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.FetchRecent(r.Context(), actor(r), intQuery(r, "limit", 100))
	if err != nil {
		respondErr(w, h.logger, "recent activity", err)
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
