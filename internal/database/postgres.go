package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// PostgresStore implements store.Store on a pgx pool
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ store.Store = (*PostgresStore)(nil)

// NewPostgresStore wraps an open pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

const complaintColumns = `id, ticket_id, title, description, category_id, status, priority, location,
	photo_url, is_anonymous, reporter_name, reporter_contact, version, created_at, updated_at`

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var c models.Complaint
	var status, priority string
	err := row.Scan(&c.ID, &c.TicketID, &c.Title, &c.Description, &c.CategoryID,
		&status, &priority, &c.Location, &c.PhotoURL, &c.IsAnonymous,
		&c.ReporterName, &c.ReporterContact, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.Status, err = models.ParseStatus(status); err != nil {
		return nil, err
	}
	if c.Priority, err = models.ParsePriority(priority); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	row := s.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	c, err := scanComplaint(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *PostgresStore) GetComplaintByTicket(ctx context.Context, ticketID string) (*models.Complaint, error) {
	row := s.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints WHERE UPPER(ticket_id) = UPPER($1)`, ticketID)
	c, err := scanComplaint(row)
	if err != nil {
		return nil, translate(err)
	}
	return c, nil
}

func (s *PostgresStore) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	rows, err := s.db.Query(ctx, `SELECT `+complaintColumns+` FROM complaints ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list complaints: %w", err)
	}
	defer rows.Close()

	complaints := make([]models.Complaint, 0)
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("scan complaint: %w", err)
		}
		complaints = append(complaints, *c)
	}
	return complaints, rows.Err()
}

func (s *PostgresStore) InsertComplaint(ctx context.Context, c *models.Complaint, notes []models.Notification) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO complaints (ticket_id, title, description, category_id, status, priority, location,
				photo_url, is_anonymous, reporter_name, reporter_contact, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1, $12, $13)
			RETURNING id, version`,
			c.TicketID, c.Title, c.Description, c.CategoryID, string(c.Status), string(c.Priority), c.Location,
			c.PhotoURL, c.IsAnonymous, c.ReporterName, c.ReporterContact, c.CreatedAt, c.UpdatedAt,
		).Scan(&c.ID, &c.Version)
		if err != nil {
			if isUnique(err, "complaints_ticket_id_key") {
				return store.ErrDuplicateTicket
			}
			return fmt.Errorf("insert complaint: %w", err)
		}
		return insertNotifications(ctx, tx, c.ID, notes)
	})
}

func (s *PostgresStore) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int64, notes []models.Notification) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE complaints
			SET status = $1, priority = $2, updated_at = $3, version = version + 1
			WHERE id = $4 AND version = $5`,
			string(c.Status), string(c.Priority), c.UpdatedAt, c.ID, expectedVersion,
		)
		if err != nil {
			return fmt.Errorf("update complaint: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM complaints WHERE id = $1)`, c.ID).Scan(&exists); err != nil {
				return fmt.Errorf("check complaint: %w", err)
			}
			if !exists {
				return store.ErrNotFound
			}
			return store.ErrVersionConflict
		}
		if err := insertNotifications(ctx, tx, c.ID, notes); err != nil {
			return err
		}
		c.Version = expectedVersion + 1
		return nil
	})
}

func (s *PostgresStore) InsertResponse(ctx context.Context, r *models.Response, notes []models.Notification) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO complaint_responses (complaint_id, message, attachment_url, is_official, responder_name, responder_role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			r.ComplaintID, r.Message, r.AttachmentURL, r.IsOfficial, r.ResponderName, string(r.ResponderRole), r.CreatedAt,
		).Scan(&r.ID)
		if err != nil {
			if isForeignKey(err) {
				return store.ErrNotFound
			}
			return fmt.Errorf("insert response: %w", err)
		}
		return insertNotifications(ctx, tx, r.ComplaintID, notes)
	})
}

func (s *PostgresStore) ListResponses(ctx context.Context, complaintID int64) ([]models.Response, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, complaint_id, message, attachment_url, is_official, responder_name, responder_role, created_at
		FROM complaint_responses
		WHERE complaint_id = $1
		ORDER BY created_at, id`, complaintID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	responses := make([]models.Response, 0)
	for rows.Next() {
		var r models.Response
		var role string
		if err := rows.Scan(&r.ID, &r.ComplaintID, &r.Message, &r.AttachmentURL,
			&r.IsOfficial, &r.ResponderName, &role, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		r.ResponderRole = models.Role(role)
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

// insertNotifications writes notes inside tx and assigns their ids in place
func insertNotifications(ctx context.Context, tx pgx.Tx, complaintID int64, notes []models.Notification) error {
	for i := range notes {
		if notes[i].ComplaintID == nil {
			id := complaintID
			notes[i].ComplaintID = &id
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO notifications (user_email, type, title, message, is_read, created_at, complaint_id)
			VALUES ($1, $2, $3, $4, FALSE, $5, $6)
			RETURNING id`,
			notes[i].UserEmail, string(notes[i].Type), notes[i].Title, notes[i].Message,
			notes[i].CreatedAt, notes[i].ComplaintID,
		).Scan(&notes[i].ID)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name, slug, description, icon, color, is_active FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.IsActive); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var c models.Category
	err := s.db.QueryRow(ctx, `SELECT id, name, slug, description, icon, color, is_active FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.Icon, &c.Color, &c.IsActive)
	if err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *PostgresStore) InsertCategory(ctx context.Context, c *models.Category) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description, icon, color, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.Name, c.Slug, c.Description, c.Icon, c.Color, c.IsActive,
	).Scan(&c.ID)
	if isUnique(err, "categories_slug_key") {
		return store.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, c *models.Category) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE categories SET name = $1, slug = $2, description = $3, icon = $4, color = $5, is_active = $6
		WHERE id = $7`,
		c.Name, c.Slug, c.Description, c.Icon, c.Color, c.IsActive, c.ID,
	)
	if isUnique(err, "categories_slug_key") {
		return store.ErrDuplicateSlug
	}
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if isForeignKey(err) {
		return store.ErrCategoryInUse
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

const userColumns = `id, full_name, email, password_hash, role, nik, no_hp, alamat, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &role,
		&u.NIK, &u.NoHP, &u.Alamat, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if err != nil {
		return nil, translate(err)
	}
	return u, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *PostgresStore) InsertUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (full_name, email, password_hash, role, nik, no_hp, alamat, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`,
		u.FullName, u.Email, u.PasswordHash, string(u.Role), u.NIK, u.NoHP, u.Alamat, u.CreatedAt,
	).Scan(&u.ID)
	if isUnique(err, "users_email_idx") {
		return store.ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, u *models.User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET full_name = $2, nik = $3, no_hp = $4, alamat = $5
		WHERE id = $1`,
		u.ID, u.FullName, u.NIK, u.NoHP, u.Alamat,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, user_email, type, title, message, is_read, created_at, complaint_id
		FROM notifications
		WHERE LOWER(user_email) = LOWER($1)
		ORDER BY created_at DESC, id DESC`, email)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notes := make([]models.Notification, 0)
	for rows.Next() {
		var n models.Notification
		var typ string
		if err := rows.Scan(&n.ID, &n.UserEmail, &typ, &n.Title, &n.Message,
			&n.IsRead, &n.CreatedAt, &n.ComplaintID); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.Type = models.NotificationType(typ)
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, email string, id int64) error {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1 AND LOWER(user_email) = LOWER($2)`, id, email)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkAllNotificationsRead(ctx context.Context, email string) (int, error) {
	tag, err := s.db.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE LOWER(user_email) = LOWER($1) AND NOT is_read`, email)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, email string, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND LOWER(user_email) = LOWER($2)`, id, email)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) InsertActivity(ctx context.Context, a *models.ActivityLog) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO activity_logs (id, complaint_id, ticket_id, activity_type, action_description, actor, actor_role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.ComplaintID, a.TicketID, a.ActivityType, a.ActionDescription, a.Actor, string(a.ActorRole), a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListActivityByTicket(ctx context.Context, ticketID string, limit int) ([]models.ActivityLog, error) {
	return s.queryActivity(ctx, `
		SELECT id, complaint_id, ticket_id, activity_type, action_description, actor, actor_role, created_at
		FROM activity_logs
		WHERE UPPER(ticket_id) = UPPER($1)
		ORDER BY created_at DESC
		LIMIT $2`, ticketID, limit)
}

func (s *PostgresStore) ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	return s.queryActivity(ctx, `
		SELECT id, complaint_id, ticket_id, activity_type, action_description, actor, actor_role, created_at
		FROM activity_logs
		ORDER BY created_at DESC
		LIMIT $1`, limit)
}

func (s *PostgresStore) queryActivity(ctx context.Context, query string, args ...any) ([]models.ActivityLog, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var log models.ActivityLog
		var role string
		if err := rows.Scan(&log.ID, &log.ComplaintID, &log.TicketID, &log.ActivityType,
			&log.ActionDescription, &log.Actor, &role, &log.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		log.ActorRole = models.Role(role)
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func isUnique(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || strings.EqualFold(pgErr.ConstraintName, constraint)
}

func isForeignKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
