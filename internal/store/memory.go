package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/cipelem/pengaduan-server/internal/models"
)

// Memory is a mutex-guarded Store kept entirely in process memory
type Memory struct {
	mu sync.RWMutex

	complaints    map[int64]models.Complaint
	tickets       map[string]int64
	responses     map[int64][]models.Response
	categories    map[int64]models.Category
	users         map[int64]models.User
	notifications map[int64]models.Notification
	activity      []models.ActivityLog

	nextComplaint    int64
	nextResponse     int64
	nextCategory     int64
	nextUser         int64
	nextNotification int64
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		complaints:    make(map[int64]models.Complaint),
		tickets:       make(map[string]int64),
		responses:     make(map[int64][]models.Response),
		categories:    make(map[int64]models.Category),
		users:         make(map[int64]models.User),
		notifications: make(map[int64]models.Notification),
	}
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) GetComplaint(ctx context.Context, id int64) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) GetComplaintByTicket(ctx context.Context, ticketID string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.tickets[strings.ToUpper(ticketID)]
	if !ok {
		return nil, ErrNotFound
	}
	c := m.complaints[id]
	return &c, nil
}

// ListComplaints returns every complaint, newest first
func (m *Memory) ListComplaints(ctx context.Context) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) InsertComplaint(ctx context.Context, c *models.Complaint, notes []models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToUpper(c.TicketID)
	if _, taken := m.tickets[key]; taken {
		return ErrDuplicateTicket
	}
	m.nextComplaint++
	c.ID = m.nextComplaint
	c.Version = 1
	m.complaints[c.ID] = *c
	m.tickets[key] = c.ID
	m.addNotificationsLocked(c.ID, notes)
	return nil
}

func (m *Memory) UpdateComplaint(ctx context.Context, c *models.Complaint, expectedVersion int64, notes []models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.complaints[c.ID]
	if !ok {
		return ErrNotFound
	}
	if stored.Version != expectedVersion {
		return ErrVersionConflict
	}
	stored.Status = c.Status
	stored.Priority = c.Priority
	stored.UpdatedAt = c.UpdatedAt
	stored.Version = expectedVersion + 1
	m.complaints[c.ID] = stored
	c.Version = stored.Version
	m.addNotificationsLocked(c.ID, notes)
	return nil
}

func (m *Memory) InsertResponse(ctx context.Context, r *models.Response, notes []models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.complaints[r.ComplaintID]; !ok {
		return ErrNotFound
	}
	m.nextResponse++
	r.ID = m.nextResponse
	m.responses[r.ComplaintID] = append(m.responses[r.ComplaintID], *r)
	m.addNotificationsLocked(r.ComplaintID, notes)
	return nil
}

// ListResponses returns the thread oldest first
func (m *Memory) ListResponses(ctx context.Context, complaintID int64) ([]models.Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	thread := m.responses[complaintID]
	out := make([]models.Response, len(thread))
	copy(out, thread)
	return out, nil
}

// addNotificationsLocked assigns ids into notes in place
func (m *Memory) addNotificationsLocked(complaintID int64, notes []models.Notification) {
	for i := range notes {
		m.nextNotification++
		notes[i].ID = m.nextNotification
		if notes[i].ComplaintID == nil {
			id := complaintID
			notes[i].ComplaintID = &id
		}
		m.notifications[notes[i].ID] = notes[i]
	}
}

func (m *Memory) ListCategories(ctx context.Context) ([]models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) InsertCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.slugTakenLocked(c.Slug, 0) {
		return ErrDuplicateSlug
	}
	m.nextCategory++
	c.ID = m.nextCategory
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) UpdateCategory(ctx context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[c.ID]; !ok {
		return ErrNotFound
	}
	if m.slugTakenLocked(c.Slug, c.ID) {
		return ErrDuplicateSlug
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *Memory) DeleteCategory(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return ErrNotFound
	}
	for _, c := range m.complaints {
		if c.CategoryID == id {
			return ErrCategoryInUse
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *Memory) slugTakenLocked(slug string, except int64) bool {
	for id, c := range m.categories {
		if id != except && c.Slug == slug {
			return true
		}
	}
	return false
}

func (m *Memory) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) ListUsers(ctx context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) InsertUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
	}
	m.nextUser++
	u.ID = m.nextUser
	m.users[u.ID] = *u
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, u *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	stored.FullName = u.FullName
	stored.NIK = u.NIK
	stored.NoHP = u.NoHP
	stored.Alamat = u.Alamat
	m.users[u.ID] = stored
	*u = stored
	return nil
}

func (m *Memory) DeleteUser(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// ListNotifications returns the recipient's notifications, newest first
func (m *Memory) ListNotifications(ctx context.Context, email string) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Notification, 0)
	for _, n := range m.notifications {
		if strings.EqualFold(n.UserEmail, email) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (m *Memory) MarkNotificationRead(ctx context.Context, email string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || !strings.EqualFold(n.UserEmail, email) {
		return ErrNotFound
	}
	n.IsRead = true
	m.notifications[id] = n
	return nil
}

func (m *Memory) MarkAllNotificationsRead(ctx context.Context, email string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := 0
	for id, n := range m.notifications {
		if strings.EqualFold(n.UserEmail, email) && !n.IsRead {
			n.IsRead = true
			m.notifications[id] = n
			changed++
		}
	}
	return changed, nil
}

func (m *Memory) DeleteNotification(ctx context.Context, email string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notifications[id]
	if !ok || !strings.EqualFold(n.UserEmail, email) {
		return ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *Memory) InsertActivity(ctx context.Context, a *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activity = append(m.activity, *a)
	return nil
}

// ListActivityByTicket returns entries for one ticket, newest first
func (m *Memory) ListActivityByTicket(ctx context.Context, ticketID string, limit int) ([]models.ActivityLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ActivityLog, 0)
	for i := len(m.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if strings.EqualFold(m.activity[i].TicketID, ticketID) {
			out = append(out, m.activity[i])
		}
	}
	return out, nil
}

func (m *Memory) ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ActivityLog, 0)
	for i := len(m.activity) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.activity[i])
	}
	return out, nil
}
