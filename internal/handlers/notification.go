package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber streams live notifications addressed to email until ctx is done
type Subscriber func(ctx context.Context, email string) (<-chan models.Notification, error)

// NotificationHandler handles the recipient's notification inbox
type NotificationHandler struct {
	svc       *services.NotificationService
	subscribe Subscriber
	upgrader  websocket.Upgrader
	logger    *zap.SugaredLogger

	// streams is cancelled by Shutdown to end every open stream
	streams      context.Context
	closeStreams context.CancelFunc
}

// NewNotificationHandler creates a new notification handler. subscribe may
// be nil, in which case the live stream is unavailable.
func NewNotificationHandler(svc *services.NotificationService, subscribe Subscriber, checkOrigin func(*http.Request) bool, logger *zap.SugaredLogger) *NotificationHandler {
	streams, closeStreams := context.WithCancel(context.Background())
	return &NotificationHandler{
		svc:       svc,
		subscribe: subscribe,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		logger:       logger,
		streams:      streams,
		closeStreams: closeStreams,
	}
}

// Shutdown ends every open notification stream. The server does not track
// hijacked connections, so it must be registered with RegisterOnShutdown.
func (h *NotificationHandler) Shutdown() {
	h.closeStreams()
}

// List handles GET /api/v1/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.List(r.Context(), actor(r))
	if err != nil {
		respondErr(w, h.logger, "list notifications", err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.UnreadCount(r.Context(), actor(r))
	if err != nil {
		respondErr(w, h.logger, "unread count", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// MarkRead handles PATCH /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.MarkRead(r.Context(), actor(r), id); err != nil {
		respondErr(w, h.logger, "mark notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllRead handles PATCH /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.MarkAllRead(r.Context(), actor(r))
	if err != nil {
		respondErr(w, h.logger, "mark all notifications read", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": n})
}

// Delete handles DELETE /api/v1/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		respondErr(w, h.logger, "delete notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ByTicket handles GET /api/v1/complaints/ticket/{ticketID}/notifications
func (h *NotificationHandler) ByTicket(w http.ResponseWriter, r *http.Request) {
	notes, err := h.svc.ForTicket(r.Context(), chi.URLParam(r, "ticketID"))
	if err != nil {
		respondErr(w, h.logger, "notifications by ticket", err)
		return
	}
	respondJSON(w, http.StatusOK, notes)
}

// MarkReadByTicket handles PATCH /api/v1/complaints/ticket/{ticketID}/notifications/{id}/read
func (h *NotificationHandler) MarkReadByTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.MarkReadForTicket(r.Context(), chi.URLParam(r, "ticketID"), id); err != nil {
		respondErr(w, h.logger, "mark ticket notification read", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteByTicket handles DELETE /api/v1/complaints/ticket/{ticketID}/notifications/{id}
func (h *NotificationHandler) DeleteByTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	if err := h.svc.DeleteForTicket(r.Context(), chi.URLParam(r, "ticketID"), id); err != nil {
		respondErr(w, h.logger, "delete ticket notification", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /api/v1/notifications/stream, upgrading to a websocket
// that pushes each new notification as a JSON text message.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.subscribe == nil {
		respondError(w, http.StatusServiceUnavailable, "Live notifications are not enabled")
		return
	}
	a := actor(r)
	if a.Email == "" {
		respondError(w, http.StatusUnauthorized, "Authorization required")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stopOnShutdown := context.AfterFunc(h.streams, cancel)
	defer stopOnShutdown()

	notes, err := h.subscribe(ctx, a.Email)
	if err != nil {
		respondErr(w, h.logger, "subscribe notifications", err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnw("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	h.logger.Infow("Notification stream opened", "recipient", a.Email)

	go h.readPump(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.logger.Infow("Notification stream closed", "recipient", a.Email)
			return
		case n, ok := <-notes:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(n); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames so pongs and close frames are processed,
// cancelling the stream when the client goes away.
func (h *NotificationHandler) readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debugw("Notification stream read error", "error", err)
			}
			return
		}
	}
}
