package services

import (
	"context"
	"strconv"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"go.uber.org/zap"
)

// NotificationService lets a recipient read and tidy its notifications.
// Staff are recipients by account email; a resident is the recipient of the
// notifications about a complaint whose ticket they hold.
type NotificationService struct {
	store      store.NotificationStore
	complaints store.ComplaintStore
	logger     *zap.SugaredLogger
}

// NewNotificationService creates a new notification service
func NewNotificationService(st store.NotificationStore, complaints store.ComplaintStore, logger *zap.SugaredLogger) *NotificationService {
	return &NotificationService{store: st, complaints: complaints, logger: logger}
}

func requireRecipient(actor models.Actor) error {
	if actor.Email == "" {
		return &lifecycle.ForbiddenError{Role: actor.Role, Action: "read notifications without an account"}
	}
	return nil
}

// List returns the actor's notifications, newest first
func (s *NotificationService) List(ctx context.Context, actor models.Actor) ([]models.Notification, error) {
	if err := requireRecipient(actor); err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotifications(ctx, actor.Email)
	if err != nil {
		return nil, storeErr("list notifications", "notifications", actor.Email, err)
	}
	return notes, nil
}

// UnreadCount returns how many of the actor's notifications are unread
func (s *NotificationService) UnreadCount(ctx context.Context, actor models.Actor) (int, error) {
	notes, err := s.List(ctx, actor)
	if err != nil {
		return 0, err
	}
	unread := 0
	for _, n := range notes {
		if !n.IsRead {
			unread++
		}
	}
	return unread, nil
}

// MarkRead flags one of the actor's notifications as read
func (s *NotificationService) MarkRead(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireRecipient(actor); err != nil {
		return err
	}
	if err := s.store.MarkNotificationRead(ctx, actor.Email, id); err != nil {
		return storeErr("mark notification read", "notification", strconv.FormatInt(id, 10), err)
	}
	return nil
}

// MarkAllRead flags every notification of the actor as read
func (s *NotificationService) MarkAllRead(ctx context.Context, actor models.Actor) (int, error) {
	if err := requireRecipient(actor); err != nil {
		return 0, err
	}
	n, err := s.store.MarkAllNotificationsRead(ctx, actor.Email)
	if err != nil {
		return 0, storeErr("mark all notifications read", "notifications", actor.Email, err)
	}
	return n, nil
}

// Delete removes one of the actor's notifications
func (s *NotificationService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if err := requireRecipient(actor); err != nil {
		return err
	}
	if err := s.store.DeleteNotification(ctx, actor.Email, id); err != nil {
		return storeErr("delete notification", "notification", strconv.FormatInt(id, 10), err)
	}
	s.logger.Debugw("Notification deleted", "id", id, "recipient", actor.Email)
	return nil
}

// ForTicket returns the reporter's notifications about the complaint
// holding ticketID, newest first. Possession of the ticket is the proof of
// access, as for the complaint itself.
func (s *NotificationService) ForTicket(ctx context.Context, ticketID string) ([]models.Notification, error) {
	_, notes, err := s.ticketInbox(ctx, ticketID)
	return notes, err
}

// MarkReadForTicket flags one notification of the ticket's reporter as read
func (s *NotificationService) MarkReadForTicket(ctx context.Context, ticketID string, id int64) error {
	c, err := s.ticketNotification(ctx, ticketID, id)
	if err != nil {
		return err
	}
	if err := s.store.MarkNotificationRead(ctx, c.ReporterContact, id); err != nil {
		return storeErr("mark notification read", "notification", strconv.FormatInt(id, 10), err)
	}
	return nil
}

// DeleteForTicket removes one notification of the ticket's reporter
func (s *NotificationService) DeleteForTicket(ctx context.Context, ticketID string, id int64) error {
	c, err := s.ticketNotification(ctx, ticketID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteNotification(ctx, c.ReporterContact, id); err != nil {
		return storeErr("delete notification", "notification", strconv.FormatInt(id, 10), err)
	}
	s.logger.Debugw("Notification deleted", "id", id, "ticket", ticketID)
	return nil
}

// ticketInbox loads the complaint holding ticketID and the reporter's
// notifications that are about it. A complaint without a contact has none.
func (s *NotificationService) ticketInbox(ctx context.Context, ticketID string) (*models.Complaint, []models.Notification, error) {
	c, err := s.complaints.GetComplaintByTicket(ctx, ticketID)
	if err != nil {
		return nil, nil, storeErr("get complaint", "ticket", ticketID, err)
	}
	notes := make([]models.Notification, 0)
	if c.ReporterContact == "" {
		return c, notes, nil
	}
	all, err := s.store.ListNotifications(ctx, c.ReporterContact)
	if err != nil {
		return nil, nil, storeErr("list notifications", "ticket", ticketID, err)
	}
	for _, n := range all {
		if n.ComplaintID != nil && *n.ComplaintID == c.ID {
			notes = append(notes, n)
		}
	}
	return c, notes, nil
}

// ticketNotification checks that notification id belongs to the ticket
func (s *NotificationService) ticketNotification(ctx context.Context, ticketID string, id int64) (*models.Complaint, error) {
	c, notes, err := s.ticketInbox(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		if n.ID == id {
			return c, nil
		}
	}
	return nil, &lifecycle.NotFoundError{Resource: "notification", Key: strconv.FormatInt(id, 10)}
}
