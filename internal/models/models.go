// Package models defines the records of the complaint portal.
// These map to the PostgreSQL schema in internal/database.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category groups complaints by subject (roads, sanitation, ...).
// Icon and Color are presentation hints stored verbatim.
type Category struct {
	ID          int64  `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	Slug        string `json:"slug" db:"slug"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon" db:"icon"`
	Color       string `json:"color" db:"color"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

// Slugify derives a category slug from its name
func Slugify(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

// Complaint is a resident's issue report.
// Version is the optimistic concurrency token; every committed mutation bumps it.
type Complaint struct {
	ID              int64     `json:"id" db:"id"`
	TicketID        string    `json:"ticket_id" db:"ticket_id"`
	Title           string    `json:"title" db:"title"`
	Description     string    `json:"description" db:"description"`
	CategoryID      int64     `json:"category_id" db:"category_id"`
	Status          Status    `json:"status" db:"status"`
	Priority        Priority  `json:"priority" db:"priority"`
	Location        string    `json:"location" db:"location"`
	PhotoURL        *string   `json:"photo_url" db:"photo_url"`
	IsAnonymous     bool      `json:"is_anonymous" db:"is_anonymous"`
	ReporterName    string    `json:"reporter_name" db:"reporter_name"`
	ReporterContact string    `json:"reporter_contact" db:"reporter_contact"`
	Version         int64     `json:"version" db:"version"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// ComplaintSubmission is the request body for filing a new complaint
type ComplaintSubmission struct {
	Title           string  `json:"title" validate:"required,max=200"`
	Description     string  `json:"description" validate:"required,max=5000"`
	CategoryID      int64   `json:"category_id" validate:"required,gt=0"`
	Location        string  `json:"location" validate:"required,max=300"`
	PhotoURL        *string `json:"photo_url,omitempty" validate:"omitempty,url"`
	IsAnonymous     bool    `json:"is_anonymous"`
	ReporterName    string  `json:"reporter_name" validate:"required,max=150"`
	ReporterContact string  `json:"reporter_contact" validate:"required,max=100"`
}

// Response is one message in a complaint's discussion thread
type Response struct {
	ID            int64     `json:"id" db:"id"`
	ComplaintID   int64     `json:"complaint_id" db:"complaint_id"`
	Message       string    `json:"message" db:"message"`
	AttachmentURL *string   `json:"attachment_url" db:"attachment_url"`
	IsOfficial    bool      `json:"is_official" db:"is_official"`
	ResponderName string    `json:"responder_name" db:"responder_name"`
	ResponderRole Role      `json:"responder_role" db:"responder_role"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// User is a staff or admin account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id" db:"id"`
	FullName     string    `json:"full_name" db:"full_name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	NIK          *string   `json:"nik" db:"nik"`
	NoHP         *string   `json:"no_hp" db:"no_hp"`
	Alamat       *string   `json:"alamat" db:"alamat"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Notification is addressed to one recipient channel (UserEmail)
type Notification struct {
	ID          int64            `json:"id" db:"id"`
	UserEmail   string           `json:"user_email" db:"user_email"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	ComplaintID *int64           `json:"complaint_id" db:"complaint_id"`
}

// Actor is the principal invoking an operation. Residents are anonymous
// and prove access to a complaint by presenting its TicketID.
type Actor struct {
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	TicketID string `json:"ticket_id,omitempty"`
}

// Citizen returns a resident actor holding the given ticket
func Citizen(ticketID string) Actor {
	return Actor{Role: RoleWarga, TicketID: ticketID}
}

// ActivityLog records an accepted mutation for accountability
type ActivityLog struct {
	ID                uuid.UUID `json:"id" db:"id"`
	ComplaintID       int64     `json:"complaint_id" db:"complaint_id"`
	TicketID          string    `json:"ticket_id" db:"ticket_id"`
	ActivityType      string    `json:"activity_type" db:"activity_type"`
	ActionDescription string    `json:"action_description" db:"action_description"`
	Actor             string    `json:"actor" db:"actor"`
	ActorRole         Role      `json:"actor_role" db:"actor_role"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// Activity types written to the activity log
const (
	ActivitySubmission     = "submission"
	ActivityStatusChange   = "status_change"
	ActivityPriorityChange = "priority_change"
	ActivityResponse       = "response"
)

// CategoryCount is one row of the category ranking
type CategoryCount struct {
	CategoryID int64  `json:"category_id"`
	Name       string `json:"name"`
	Count      int    `json:"count"`
}

// DashboardSummary is the staff dashboard aggregate
type DashboardSummary struct {
	Total      int             `json:"total"`
	ByStatus   map[Status]int  `json:"by_status"`
	ByCategory []CategoryCount `json:"by_category"`
}

// PublicStats are the counters shown on the public home page.
// InProgress counts both verified and in_progress complaints.
type PublicStats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
}

// MerkleProof contains the Merkle proof for a specific ledger entry
type MerkleProof struct {
	LeafHash string      `json:"leaf_hash"`
	Root     string      `json:"root"`
	Proof    []ProofStep `json:"proof"`
	Index    int         `json:"index"`
	Verified bool        `json:"verified"`
}

// ProofStep is a single step in a Merkle proof path
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" | "right"
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	Uptime     string `json:"uptime"`
	Database   string `json:"database,omitempty"`
	Redis      string `json:"redis,omitempty"`
	MerkleRoot string `json:"merkle_root,omitempty"`
}
