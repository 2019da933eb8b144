package lifecycle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// Kind classifies an error returned by the engine or the services built on it
type Kind string

const (
	KindUnknown                Kind = "unknown"
	KindValidation             Kind = "validation"
	KindForbidden              Kind = "forbidden"
	KindNotFound               Kind = "not_found"
	KindInvalidTransition      Kind = "invalid_transition"
	KindComplaintLocked        Kind = "complaint_locked"
	KindDuplicateTicket        Kind = "duplicate_ticket"
	KindConcurrentModification Kind = "concurrent_modification"
	KindStoreUnavailable       Kind = "store_unavailable"
)

// ValidationError reports a missing or malformed input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

// ForbiddenError reports an actor lacking permission for an action
type ForbiddenError struct {
	Role   models.Role
	Action string
}

func (e *ForbiddenError) Error() string {
	role := string(e.Role)
	if role == "" {
		role = "anonymous"
	}
	return fmt.Sprintf("%s may not %s", role, e.Action)
}

// NotFoundError reports a lookup of a record that does not exist
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Key)
}

// InvalidTransitionError reports a status change outside the transition table
type InvalidTransitionError struct {
	From    models.Status
	To      models.Status
	Allowed []models.Status
}

func (e *InvalidTransitionError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	next := "none"
	if len(allowed) > 0 {
		next = strings.Join(allowed, ", ")
	}
	return fmt.Sprintf("cannot move complaint from %s to %s (allowed: %s)", e.From, e.To, next)
}

// ComplaintLockedError reports a mutation attempted on a terminal complaint
type ComplaintLockedError struct {
	TicketID string
	Status   models.Status
}

func (e *ComplaintLockedError) Error() string {
	return fmt.Sprintf("complaint %s is %s and can no longer be changed", e.TicketID, e.Status)
}

// DuplicateTicketError reports that no free ticket id was found within the retry bound
type DuplicateTicketError struct {
	Attempts int
	Last     string
}

func (e *DuplicateTicketError) Error() string {
	return fmt.Sprintf("no unique ticket id after %d attempts (last %s)", e.Attempts, e.Last)
}

// ConcurrentModificationError reports a commit rejected by the version check
type ConcurrentModificationError struct {
	ComplaintID     int64
	ExpectedVersion int64
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("complaint %d changed since version %d, reload and retry", e.ComplaintID, e.ExpectedVersion)
}

// StoreUnavailableError wraps a failure of the persistence or delivery collaborator
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// KindOf classifies err. Wrapped errors are unwrapped with errors.As.
func KindOf(err error) Kind {
	var (
		validation *ValidationError
		forbidden  *ForbiddenError
		notFound   *NotFoundError
		transition *InvalidTransitionError
		locked     *ComplaintLockedError
		duplicate  *DuplicateTicketError
		conflict   *ConcurrentModificationError
		store      *StoreUnavailableError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.As(err, &notFound):
		return KindNotFound
	case errors.As(err, &transition):
		return KindInvalidTransition
	case errors.As(err, &locked):
		return KindComplaintLocked
	case errors.As(err, &duplicate):
		return KindDuplicateTicket
	case errors.As(err, &conflict):
		return KindConcurrentModification
	case errors.As(err, &store):
		return KindStoreUnavailable
	default:
		return KindUnknown
	}
}
