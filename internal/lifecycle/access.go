package lifecycle

import (
	"strings"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// VisibleSet returns the complaints actor may see, in input order.
// Staff see everything. A resident sees only the complaint whose ticket
// it presents, and nothing when it presents none.
func VisibleSet(complaints []models.Complaint, actor models.Actor) []models.Complaint {
	if actor.Role.IsStaff() {
		out := make([]models.Complaint, len(complaints))
		copy(out, complaints)
		return out
	}

	out := make([]models.Complaint, 0, 1)
	if actor.TicketID == "" {
		return out
	}
	for _, c := range complaints {
		if CanView(c, actor) {
			out = append(out, c)
		}
	}
	return out
}

// CanView reports whether actor may read c and its response thread
func CanView(c models.Complaint, actor models.Actor) bool {
	if actor.Role.IsStaff() {
		return true
	}
	return actor.TicketID != "" && strings.EqualFold(actor.TicketID, c.TicketID)
}

// CanMutate reports whether actor may change status or priority of c
func CanMutate(c models.Complaint, actor models.Actor) bool {
	return actor.Role.IsStaff() && !c.Status.IsTerminal()
}

// CanRespond reports whether actor may append to c's response thread
func CanRespond(c models.Complaint, actor models.Actor) bool {
	return CanView(c, actor)
}

// CanManage reports whether actor may administer categories and accounts
func CanManage(actor models.Actor) bool {
	return actor.Role == models.RoleAdmin
}

// RequireStaff fails with ForbiddenError unless actor is petugas or admin
func RequireStaff(actor models.Actor, action string) error {
	if !actor.Role.IsStaff() {
		return &ForbiddenError{Role: actor.Role, Action: action}
	}
	return nil
}

// RequireAdmin fails with ForbiddenError unless actor is admin
func RequireAdmin(actor models.Actor, action string) error {
	if !CanManage(actor) {
		return &ForbiddenError{Role: actor.Role, Action: action}
	}
	return nil
}

// RequireView fails with ForbiddenError unless actor may see c
func RequireView(c models.Complaint, actor models.Actor) error {
	if !CanView(c, actor) {
		return &ForbiddenError{Role: actor.Role, Action: "view complaint " + c.TicketID}
	}
	return nil
}
