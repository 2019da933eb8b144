// Package store defines the persistence collaborator the services depend on,
// and an in-memory implementation used by tests and local development.
//
// Every mutation of a complaint is version-checked: the caller passes the
// version it read and the commit fails with ErrVersionConflict if the stored
// version moved on. Notifications derived from a mutation are written in the
// same commit, so either both land or neither does.
package store

import (
	"context"
	"errors"

	"github.com/cipelem/pengaduan-server/internal/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrDuplicateTicket = errors.New("ticket id already taken")
	ErrDuplicateEmail  = errors.New("email already registered")
	ErrDuplicateSlug   = errors.New("category slug already taken")
	ErrCategoryInUse   = errors.New("category is referenced by complaints")
)

// ComplaintStore persists complaints and their response threads
type ComplaintStore interface {
	GetComplaint(ctx context.Context, id int64) (*models.Complaint, error)
	GetComplaintByTicket(ctx context.Context, ticketID string) (*models.Complaint, error)
	ListComplaints(ctx context.Context) ([]models.Complaint, error)

	// InsertComplaint assigns ID and Version=1 and stores c with notes.
	// A taken ticket id fails with ErrDuplicateTicket and stores nothing.
	InsertComplaint(ctx context.Context, c *models.Complaint, notes []models.Notification) error

	// UpdateComplaint writes status, priority and updated_at of c if the
	// stored version equals expectedVersion, then sets c.Version to the new
	// version. Otherwise it fails with ErrVersionConflict and stores nothing.
	UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int64, notes []models.Notification) error

	InsertResponse(ctx context.Context, r *models.Response, notes []models.Notification) error
	ListResponses(ctx context.Context, complaintID int64) ([]models.Response, error)
}

// CategoryStore persists the complaint taxonomy
type CategoryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	InsertCategory(ctx context.Context, c *models.Category) error
	UpdateCategory(ctx context.Context, c *models.Category) error
	// DeleteCategory fails with ErrCategoryInUse while any complaint references it
	DeleteCategory(ctx context.Context, id int64) error
}

// UserStore persists staff and admin accounts
type UserStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	InsertUser(ctx context.Context, u *models.User) error
	// UpdateUser writes the profile fields of u (full name, NIK, phone,
	// address). Email, role and password hash are never changed.
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

// NotificationStore holds notifications for their recipients.
// Every call is scoped to the recipient's email.
type NotificationStore interface {
	ListNotifications(ctx context.Context, email string) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, email string, id int64) error
	MarkAllNotificationsRead(ctx context.Context, email string) (int, error)
	DeleteNotification(ctx context.Context, email string, id int64) error
}

// ActivityStore keeps the append-only activity log
type ActivityStore interface {
	InsertActivity(ctx context.Context, a *models.ActivityLog) error
	ListActivityByTicket(ctx context.Context, ticketID string, limit int) ([]models.ActivityLog, error)
	ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// Store is the full persistence collaborator
type Store interface {
	ComplaintStore
	CategoryStore
	UserStore
	NotificationStore
	ActivityStore
	Ping(ctx context.Context) error
}
