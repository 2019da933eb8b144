package lifecycle

import (
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// transitions lists, for each status, the statuses it may move to.
// completed and rejected are terminal and have no entry.
var transitions = map[models.Status][]models.Status{
	models.StatusPending:    {models.StatusVerified, models.StatusRejected},
	models.StatusVerified:   {models.StatusInProgress, models.StatusRejected},
	models.StatusInProgress: {models.StatusCompleted, models.StatusRejected},
}

// AllowedNext returns the statuses reachable from s in one step
func AllowedNext(s models.Status) []models.Status {
	next := transitions[s]
	out := make([]models.Status, len(next))
	copy(out, next)
	return out
}

// CanTransition reports whether from → to is an edge of the lifecycle.
// Same-state moves are not edges.
func CanTransition(from, to models.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Change is a requested mutation. Nil fields are left untouched.
type Change struct {
	Status   *models.Status
	Priority *models.Priority
}

// TransitionEvent describes an accepted status change
type TransitionEvent struct {
	ComplaintID int64         `json:"complaint_id"`
	TicketID    string        `json:"ticket_id"`
	From        models.Status `json:"from"`
	To          models.Status `json:"to"`
	At          time.Time     `json:"at"`
}

// Apply evaluates change against c on behalf of actor.
//
// The role check runs first, so a resident gets ForbiddenError whatever it
// asks for. A status request from a terminal state is an InvalidTransitionError;
// a priority-only request on a terminal complaint is a ComplaintLockedError.
// On success the returned complaint has UpdatedAt set to now, and the event
// is non-nil only when the status moved. The caller owns the version bump.
func Apply(c models.Complaint, change Change, actor models.Actor, now time.Time) (models.Complaint, *TransitionEvent, error) {
	if err := RequireStaff(actor, "change complaint "+c.TicketID); err != nil {
		return c, nil, err
	}
	if change.Status == nil && change.Priority == nil {
		return c, nil, &ValidationError{Field: "status", Message: "nothing to change"}
	}

	if change.Status != nil {
		to := *change.Status
		if !to.IsValid() {
			return c, nil, &ValidationError{Field: "status", Message: "unknown status " + string(to)}
		}
		if !CanTransition(c.Status, to) {
			return c, nil, &InvalidTransitionError{From: c.Status, To: to, Allowed: AllowedNext(c.Status)}
		}
	}

	if change.Priority != nil {
		p := *change.Priority
		if !p.IsValid() {
			return c, nil, &ValidationError{Field: "priority", Message: "unknown priority " + string(p)}
		}
		if c.Status.IsTerminal() {
			return c, nil, &ComplaintLockedError{TicketID: c.TicketID, Status: c.Status}
		}
		if change.Status == nil && p == c.Priority {
			return c, nil, &ValidationError{Field: "priority", Message: "priority is already " + string(p)}
		}
	}

	if !CanMutate(c, actor) {
		return c, nil, &ComplaintLockedError{TicketID: c.TicketID, Status: c.Status}
	}

	updated := c
	updated.UpdatedAt = now

	var event *TransitionEvent
	if change.Status != nil {
		updated.Status = *change.Status
		event = &TransitionEvent{
			ComplaintID: c.ID,
			TicketID:    c.TicketID,
			From:        c.Status,
			To:          updated.Status,
			At:          now,
		}
	}
	if change.Priority != nil {
		updated.Priority = *change.Priority
	}
	return updated, event, nil
}
