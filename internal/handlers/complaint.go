package handlers

import (
	"net/http"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	svc    *services.ComplaintService
	logger *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(cs *services.ComplaintService, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{svc: cs, logger: logger}
}

type statusRequest struct {
	Status  models.Status `json:"status"`
	Version int64         `json:"version"`
}

type priorityRequest struct {
	Priority models.Priority `json:"priority"`
	Version  int64           `json:"version"`
}

// Submit handles POST /api/v1/complaints
func (h *ComplaintHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.ComplaintSubmission
	if !decode(w, r, &req) {
		return
	}

	c, err := h.svc.Submit(r.Context(), req)
	if err != nil {
		respondErr(w, h.logger, "submit complaint", err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"ticket_id":  c.TicketID,
		"complaint":  c,
		"created_at": c.CreatedAt,
		"message":    "Laporan berhasil dibuat. Simpan nomor tiket untuk melacak laporan Anda.",
	})
}

// ByTicket handles GET /api/v1/complaints/ticket/{ticketID}
func (h *ComplaintHandler) ByTicket(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.DetailByTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		respondErr(w, h.logger, "complaint by ticket", err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// RespondByTicket handles POST /api/v1/complaints/ticket/{ticketID}/responses
func (h *ComplaintHandler) RespondByTicket(w http.ResponseWriter, r *http.Request) {
	var req services.ResponseInput
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.AddResponseByTicket(r.Context(), chi.URLParam(r, "ticketID"), req)
	if err != nil {
		respondErr(w, h.logger, "respond by ticket", err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// List handles GET /api/v1/complaints?status=&q=
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := lifecycle.Criteria{Status: q.Get("status"), Text: q.Get("q")}

	complaints, err := h.svc.ListVisible(r.Context(), actor(r), criteria)
	if err != nil {
		respondErr(w, h.logger, "list complaints", err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Recent handles GET /api/v1/complaints/recent
func (h *ComplaintHandler) Recent(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.svc.Recent(r.Context(), actor(r), intQuery(r, "limit", 5))
	if err != nil {
		respondErr(w, h.logger, "recent complaints", err)
		return
	}
	respondJSON(w, http.StatusOK, complaints)
}

// Detail handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.Detail(r.Context(), id, actor(r))
	if err != nil {
		respondErr(w, h.logger, "complaint detail", err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// ChangeStatus handles PATCH /api/v1/complaints/{id}/status
func (h *ComplaintHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.ChangeStatus(r.Context(), id, req.Status, req.Version, actor(r))
	if err != nil {
		respondErr(w, h.logger, "change status", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// ChangePriority handles PATCH /api/v1/complaints/{id}/priority
func (h *ComplaintHandler) ChangePriority(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req priorityRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.svc.ChangePriority(r.Context(), id, req.Priority, req.Version, actor(r))
	if err != nil {
		respondErr(w, h.logger, "change priority", err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Respond handles POST /api/v1/complaints/{id}/responses
func (h *ComplaintHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req services.ResponseInput
	if !decode(w, r, &req) {
		return
	}
	resp, err := h.svc.AddResponse(r.Context(), id, req, actor(r))
	if err != nil {
		respondErr(w, h.logger, "add response", err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// Dashboard handles GET /api/v1/dashboard/summary
func (h *ComplaintHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.DashboardSummary(r.Context())
	if err != nil {
		respondErr(w, h.logger, "dashboard summary", err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// PublicStats handles GET /api/v1/stats/public
func (h *ComplaintHandler) PublicStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.PublicStats(r.Context())
	if err != nil {
		respondErr(w, h.logger, "public stats", err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
