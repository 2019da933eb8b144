package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedComplaint(t *testing.T, m *Memory, ticket string) models.Complaint {
	t.Helper()
	c := models.Complaint{
		TicketID:        ticket,
		Title:           "Jalan rusak",
		CategoryID:      1,
		Status:          models.StatusPending,
		Priority:        models.PriorityMedium,
		ReporterContact: "warga@example.com",
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, m.InsertComplaint(context.Background(), &c, nil))
	return c
}

func TestInsertComplaintAssignsIDAndVersion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	notes := []models.Notification{{UserEmail: "warga@example.com", Type: models.NotificationComplaintCreated}}
	c := models.Complaint{TicketID: "CPLM-000001", Status: models.StatusPending}
	require.NoError(t, m.InsertComplaint(ctx, &c, notes))

	assert.Equal(t, int64(1), c.ID)
	assert.Equal(t, int64(1), c.Version)
	require.NotNil(t, notes[0].ComplaintID)
	assert.Equal(t, c.ID, *notes[0].ComplaintID)
	assert.NotZero(t, notes[0].ID)

	got, err := m.GetComplaintByTicket(ctx, "cplm-000001")
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)

	dup := models.Complaint{TicketID: "CPLM-000001"}
	assert.ErrorIs(t, m.InsertComplaint(ctx, &dup, nil), ErrDuplicateTicket)
}

func TestUpdateComplaintVersionCheck(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	c := seedComplaint(t, m, "CPLM-000001")

	first := c
	first.Status = models.StatusVerified
	require.NoError(t, m.UpdateComplaint(ctx, &first, 1, nil))
	assert.Equal(t, int64(2), first.Version)

	stale := c
	stale.Status = models.StatusRejected
	assert.ErrorIs(t, m.UpdateComplaint(ctx, &stale, 1, nil), ErrVersionConflict)

	got, err := m.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, got.Status)
	assert.Equal(t, int64(2), got.Version)

	missing := models.Complaint{ID: 99}
	assert.ErrorIs(t, m.UpdateComplaint(ctx, &missing, 1, nil), ErrNotFound)
}

func TestConcurrentUpdatesOnlyOneWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	c := seedComplaint(t, m, "CPLM-000001")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := c
			next.Status = models.StatusVerified
			if m.UpdateComplaint(ctx, &next, c.Version, nil) == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestCanceledContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := models.Complaint{TicketID: "CPLM-000001"}
	assert.ErrorIs(t, m.InsertComplaint(ctx, &c, nil), context.Canceled)
	assert.ErrorIs(t, m.Ping(ctx), context.Canceled)
}

func TestCategories(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	roads := models.Category{Name: "Infrastruktur Jalan", Slug: "infrastruktur-jalan", IsActive: true}
	require.NoError(t, m.InsertCategory(ctx, &roads))
	dup := models.Category{Name: "Infrastruktur jalan", Slug: "infrastruktur-jalan"}
	assert.ErrorIs(t, m.InsertCategory(ctx, &dup), ErrDuplicateSlug)

	seedComplaint(t, m, "CPLM-000001")
	assert.ErrorIs(t, m.DeleteCategory(ctx, roads.ID), ErrCategoryInUse)

	unused := models.Category{Name: "Sosial", Slug: "sosial"}
	require.NoError(t, m.InsertCategory(ctx, &unused))
	require.NoError(t, m.DeleteCategory(ctx, unused.ID))
	assert.ErrorIs(t, m.DeleteCategory(ctx, unused.ID), ErrNotFound)

	list, err := m.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUsers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	u := models.User{FullName: "Siti", Email: "siti@cipelem.id", Role: models.RoleAdmin}
	require.NoError(t, m.InsertUser(ctx, &u))
	again := models.User{Email: "SITI@cipelem.id"}
	assert.ErrorIs(t, m.InsertUser(ctx, &again), ErrDuplicateEmail)

	got, err := m.GetUserByEmail(ctx, "Siti@Cipelem.id")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	phone := "0812"
	edit := models.User{ID: u.ID, FullName: "Siti Aminah", Email: "other@cipelem.id", Role: models.RoleWarga, NoHP: &phone}
	require.NoError(t, m.UpdateUser(ctx, &edit))
	got, err = m.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", got.FullName)
	require.NotNil(t, got.NoHP)
	assert.Equal(t, "0812", *got.NoHP)
	assert.Equal(t, "siti@cipelem.id", got.Email, "email is immutable")
	assert.Equal(t, models.RoleAdmin, got.Role, "role is immutable")
	assert.ErrorIs(t, m.UpdateUser(ctx, &models.User{ID: 99}), ErrNotFound)

	require.NoError(t, m.DeleteUser(ctx, u.ID))
	_, err = m.GetUser(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationsBelongToRecipient(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	notes := []models.Notification{
		{UserEmail: "a@example.com", Type: models.NotificationStatusChanged, CreatedAt: time.Now()},
		{UserEmail: "a@example.com", Type: models.NotificationResponseAdded, CreatedAt: time.Now().Add(time.Second)},
		{UserEmail: "b@example.com", Type: models.NotificationStatusChanged, CreatedAt: time.Now()},
	}
	c := models.Complaint{TicketID: "CPLM-000001"}
	require.NoError(t, m.InsertComplaint(ctx, &c, notes))

	list, err := m.ListNotifications(ctx, "A@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationResponseAdded, list[0].Type, "newest first")

	assert.ErrorIs(t, m.MarkNotificationRead(ctx, "b@example.com", notes[0].ID), ErrNotFound)
	require.NoError(t, m.MarkNotificationRead(ctx, "a@example.com", notes[0].ID))

	n, err := m.MarkAllNotificationsRead(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.ErrorIs(t, m.DeleteNotification(ctx, "a@example.com", notes[2].ID), ErrNotFound)
	require.NoError(t, m.DeleteNotification(ctx, "b@example.com", notes[2].ID))
}

func TestActivityNewestFirst(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i, ticket := range []string{"CPLM-1", "CPLM-2", "CPLM-1"} {
		require.NoError(t, m.InsertActivity(ctx, &models.ActivityLog{TicketID: ticket, ActionDescription: string(rune('a' + i))}))
	}

	byTicket, err := m.ListActivityByTicket(ctx, "cplm-1", 10)
	require.NoError(t, err)
	require.Len(t, byTicket, 2)
	assert.Equal(t, "c", byTicket[0].ActionDescription)

	recent, err := m.ListRecentActivity(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "c", recent[0].ActionDescription)
	assert.Equal(t, "b", recent[1].ActionDescription)
}
