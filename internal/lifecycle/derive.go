package lifecycle

import (
	"fmt"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// EventKind names what happened to a complaint
type EventKind string

const (
	EventCreated       EventKind = "created"
	EventStatusChanged EventKind = "status_changed"
	EventResponseAdded EventKind = "response_added"
)

// Event is the input of Derive. Transition is set for EventStatusChanged,
// Response for EventResponseAdded.
type Event struct {
	Kind       EventKind
	Complaint  models.Complaint
	Transition *TransitionEvent
	Response   *models.Response
	At         time.Time
}

// CreatedEvent builds the event for a freshly inserted complaint
func CreatedEvent(c models.Complaint) Event {
	return Event{Kind: EventCreated, Complaint: c, At: c.CreatedAt}
}

// TransitionedEvent builds the event for an accepted status change
func TransitionedEvent(c models.Complaint, t TransitionEvent) Event {
	return Event{Kind: EventStatusChanged, Complaint: c, Transition: &t, At: t.At}
}

// RespondedEvent builds the event for a new response on c
func RespondedEvent(c models.Complaint, r models.Response) Event {
	return Event{Kind: EventResponseAdded, Complaint: c, Response: &r, At: r.CreatedAt}
}

// Derive returns the notifications ev should enqueue, addressed to the
// reporter's contact channel. It keeps no state: de-duplication is up to
// the caller, which must derive once per accepted event.
func Derive(ev Event) []models.Notification {
	c := ev.Complaint
	if c.ReporterContact == "" {
		return nil
	}

	switch ev.Kind {
	case EventCreated:
		if c.IsAnonymous {
			return nil
		}
		return []models.Notification{newNotification(c, ev.At,
			models.NotificationComplaintCreated,
			"Laporan Berhasil Dibuat",
			fmt.Sprintf("Laporan %q dengan tiket %s berhasil dibuat dan menunggu verifikasi.", c.Title, c.TicketID),
		)}

	case EventStatusChanged:
		if ev.Transition == nil {
			return nil
		}
		return []models.Notification{newNotification(c, ev.At,
			models.NotificationStatusChanged,
			"Status Laporan Berubah",
			fmt.Sprintf("Status laporan %s berubah menjadi %s.", c.TicketID, ev.Transition.To.Label()),
		)}

	case EventResponseAdded:
		if ev.Response == nil || !ev.Response.IsOfficial {
			return nil
		}
		return []models.Notification{newNotification(c, ev.At,
			models.NotificationResponseAdded,
			"Tanggapan Baru",
			fmt.Sprintf("%s telah menanggapi laporan %s.", ev.Response.ResponderName, c.TicketID),
		)}
	}
	return nil
}

func newNotification(c models.Complaint, at time.Time, typ models.NotificationType, title, message string) models.Notification {
	n := models.Notification{
		UserEmail: c.ReporterContact,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: at,
	}
	// not yet inserted: the store fills the id in on commit
	if c.ID != 0 {
		complaintID := c.ID
		n.ComplaintID = &complaintID
	}
	return n
}
