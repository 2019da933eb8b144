package models

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a complaint
type Status string

const (
	StatusPending    Status = "pending"
	StatusVerified   Status = "verified"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{
	StatusPending,
	StatusVerified,
	StatusInProgress,
	StatusCompleted,
	StatusRejected,
}

var statusLabels = map[Status]string{
	StatusPending:    "Menunggu",
	StatusVerified:   "Terverifikasi",
	StatusInProgress: "Diproses",
	StatusCompleted:  "Selesai",
	StatusRejected:   "Ditolak",
}

// IsValid reports whether s is one of the defined statuses
func (s Status) IsValid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsTerminal reports whether no further transition is allowed from s
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Label returns the human-readable form shown to residents
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ParseStatus converts raw input into a Status
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return s, nil
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Priority is the triage urgency of a complaint
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultPriority is assigned to every new complaint
const DefaultPriority = PriorityMedium

var priorityLabels = map[Priority]string{
	PriorityLow:    "Rendah",
	PriorityMedium: "Sedang",
	PriorityHigh:   "Tinggi",
	PriorityUrgent: "Mendesak",
}

func (p Priority) IsValid() bool {
	_, ok := priorityLabels[p]
	return ok
}

func (p Priority) Label() string {
	if l, ok := priorityLabels[p]; ok {
		return l
	}
	return string(p)
}

// ParsePriority converts raw input into a Priority
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown priority %q", raw)
	}
	return p, nil
}

func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Role identifies what an actor is allowed to do
type Role string

const (
	RoleAdmin   Role = "admin"
	RolePetugas Role = "petugas"
	RoleWarga   Role = "warga"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RolePetugas, RoleWarga:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role handles complaints (petugas or admin)
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RolePetugas
}

// ParseRole converts raw input into a Role
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseRole(raw)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// NotificationType names the event a notification was derived from
type NotificationType string

const (
	NotificationComplaintCreated NotificationType = "complaint_created"
	NotificationStatusChanged    NotificationType = "status_changed"
	NotificationResponseAdded    NotificationType = "response_added"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationComplaintCreated, NotificationStatusChanged, NotificationResponseAdded:
		return true
	default:
		return false
	}
}

func (t *NotificationType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	nt := NotificationType(raw)
	if !nt.IsValid() {
		return fmt.Errorf("unknown notification type %q", raw)
	}
	*t = nt
	return nil
}
