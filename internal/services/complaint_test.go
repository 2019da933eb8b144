package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSubmit(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)

	assert.NotZero(t, c.ID)
	assert.Regexp(t, `^CPLM-\d{6}$`, c.TicketID)
	assert.Equal(t, models.StatusPending, c.Status)
	assert.Equal(t, models.PriorityMedium, c.Priority)
	assert.Equal(t, int64(1), c.Version)

	published := env.published.Published()
	require.Len(t, published, 1)
	assert.Equal(t, models.NotificationComplaintCreated, published[0].Type)
	require.NotNil(t, published[0].ComplaintID)
	assert.Equal(t, c.ID, *published[0].ComplaintID)

	logs, err := env.activity.FetchByTicket(context.Background(), staff, c.TicketID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.ActivitySubmission, logs[0].ActivityType)
}

func TestSubmitUnknownCategoryDoesNotInsert(t *testing.T) {
	env := newTestEnv(t)
	in := env.submission()
	in.CategoryID = 404

	_, err := env.complaints.Submit(context.Background(), in)
	var verr *lifecycle.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "category_id", verr.Field)

	all, err := env.store.ListComplaints(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, env.published.Published())
}

func TestSubmitRetriesTicketCollision(t *testing.T) {
	env := newTestEnv(t)
	env.complaints.now = fixedClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	first := env.submit(t)
	second := env.submit(t)
	assert.NotEqual(t, first.TicketID, second.TicketID)
	assert.Contains(t, second.TicketID, first.TicketID+"-")
}

func TestSubmitConcurrentTicketsUnique(t *testing.T) {
	env := newTestEnv(t)
	env.complaints.now = fixedClock(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))

	const n = 25
	var wg sync.WaitGroup
	tickets := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := env.complaints.Submit(context.Background(), env.submission())
			if assert.NoError(t, err) {
				tickets <- c.TicketID
			}
		}()
	}
	wg.Wait()
	close(tickets)

	seen := make(map[string]bool)
	for id := range tickets {
		assert.False(t, seen[id], "duplicate ticket %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func TestChangeStatusNotifiesOnce(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)

	updated, err := env.complaints.ChangeStatus(context.Background(), c.ID, models.StatusVerified, c.Version, staff)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	published := env.published.Published()
	require.Len(t, published, 2)
	assert.Equal(t, models.NotificationStatusChanged, published[1].Type)

	stored, err := env.store.ListNotifications(context.Background(), "siti@example.com")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestChangePriorityProducesNoNotification(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)
	before := len(env.published.Published())

	updated, err := env.complaints.ChangePriority(context.Background(), c.ID, models.PriorityUrgent, 0, admin)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Len(t, env.published.Published(), before)

	logs, err := env.activity.FetchByTicket(context.Background(), staff, c.TicketID, 10)
	require.NoError(t, err)
	assert.Equal(t, models.ActivityPriorityChange, logs[0].ActivityType)
}

func TestChangeStatusIllegalEdgeLeavesRecord(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)

	_, err := env.complaints.ChangeStatus(context.Background(), c.ID, models.StatusCompleted, c.Version, staff)
	assert.Equal(t, lifecycle.KindInvalidTransition, lifecycle.KindOf(err))

	stored, err := env.store.GetComplaint(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c, *stored)
}

func TestChangeStatusForbiddenForResident(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)

	_, err := env.complaints.ChangeStatus(context.Background(), c.ID, models.StatusVerified, 0, models.Citizen(c.TicketID))
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err))

	_, err = env.complaints.ChangeStatus(context.Background(), 9999, models.StatusVerified, 0, resident)
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err), "residents cannot look up complaints by id")
}

func TestChangeStatusStaleVersion(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)
	ctx := context.Background()

	// both staff loaded version 1
	_, err := env.complaints.ChangeStatus(ctx, c.ID, models.StatusVerified, 1, staff)
	require.NoError(t, err)

	_, err = env.complaints.ChangeStatus(ctx, c.ID, models.StatusRejected, 1, admin)
	var conflict *lifecycle.ConcurrentModificationError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, int64(1), conflict.ExpectedVersion)

	stored, err := env.store.GetComplaint(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, stored.Status, "only the first writer's result is stored")
}

func TestChangeStatusConcurrentWriters(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.complaints.ChangeStatus(context.Background(), c.ID, models.StatusVerified, c.Version, staff)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.Equal(t, lifecycle.KindConcurrentModification, lifecycle.KindOf(err))
	}
	assert.Equal(t, 1, wins)

	stored, err := env.store.GetComplaint(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
}

func TestPriorityLockedWhenTerminal(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)
	ctx := context.Background()

	_, err := env.complaints.ChangeStatus(ctx, c.ID, models.StatusRejected, 0, staff)
	require.NoError(t, err)

	_, err = env.complaints.ChangePriority(ctx, c.ID, models.PriorityHigh, 0, staff)
	assert.Equal(t, lifecycle.KindComplaintLocked, lifecycle.KindOf(err))
}

func TestAddResponse(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)
	ctx := context.Background()

	official, err := env.complaints.AddResponse(ctx, c.ID, ResponseInput{Message: "Sedang kami cek"}, staff)
	require.NoError(t, err)
	assert.True(t, official.IsOfficial)
	assert.Equal(t, "Budi", official.ResponderName)
	assert.Equal(t, models.RolePetugas, official.ResponderRole)

	reply, err := env.complaints.AddResponseByTicket(ctx, c.TicketID, ResponseInput{Message: "Terima kasih"})
	require.NoError(t, err)
	assert.False(t, reply.IsOfficial)
	assert.Equal(t, "Siti", reply.ResponderName)
	assert.Equal(t, models.RoleWarga, reply.ResponderRole)

	types := make([]models.NotificationType, 0)
	for _, n := range env.published.Published() {
		types = append(types, n.Type)
	}
	assert.Equal(t, []models.NotificationType{models.NotificationComplaintCreated, models.NotificationResponseAdded}, types)

	detail, err := env.complaints.DetailByTicket(ctx, c.TicketID)
	require.NoError(t, err)
	assert.Len(t, detail.Responses, 2)
	require.NotNil(t, detail.Category)
	assert.Equal(t, env.roads.Name, detail.Category.Name)

	_, err = env.complaints.AddResponse(ctx, c.ID, ResponseInput{Message: "hi"}, models.Citizen("CPLM-000000"))
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err))

	_, err = env.complaints.AddResponse(ctx, c.ID, ResponseInput{Message: "  "}, staff)
	assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))

	_, err = env.complaints.AddResponseByTicket(ctx, "CPLM-NOPE", ResponseInput{Message: "hi"})
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err))
}

func TestListVisibleAndDetail(t *testing.T) {
	env := newTestEnv(t)
	c := env.submit(t)
	env.submit(t)
	ctx := context.Background()

	all, err := env.complaints.ListVisible(ctx, staff, lifecycle.Criteria{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := env.complaints.ListVisible(ctx, resident, lifecycle.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, none)

	mine, err := env.complaints.ListVisible(ctx, models.Citizen(c.TicketID), lifecycle.Criteria{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, c.ID, mine[0].ID)

	_, err = env.complaints.ListVisible(ctx, staff, lifecycle.Criteria{Status: "closed"})
	assert.Equal(t, lifecycle.KindValidation, lifecycle.KindOf(err))

	_, err = env.complaints.Detail(ctx, c.ID, resident)
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err))
	_, err = env.complaints.Detail(ctx, 9999, staff)
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err))
}

func TestDashboardAndStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.submit(t)
	env.submit(t)
	_, err := env.complaints.ChangeStatus(ctx, c.ID, models.StatusVerified, 0, staff)
	require.NoError(t, err)

	summary, err := env.complaints.DashboardSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[models.StatusVerified])
	require.NotEmpty(t, summary.ByCategory)
	assert.Equal(t, 2, summary.ByCategory[0].Count)

	stats, err := env.complaints.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PublicStats{Total: 2, Pending: 1, InProgress: 1}, *stats)

	recent, err := env.complaints.Recent(ctx, staff, 1)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
	_, err = env.complaints.Recent(ctx, resident, 1)
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err))
}

func TestStoreFailurePropagates(t *testing.T) {
	env := newTestEnv(t)
	svc := NewComplaintService(flakyStore{env.store}, env.published, env.activity, zap.NewNop().Sugar())

	_, err := svc.DashboardSummary(context.Background())
	var unavailable *lifecycle.StoreUnavailableError
	require.True(t, errors.As(err, &unavailable))
	assert.Equal(t, "list complaints", unavailable.Op)
}

func TestPublishFailureDoesNotFailMutation(t *testing.T) {
	env := newTestEnv(t)
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Type == models.NotificationComplaintCreated
	})).Return(errors.New("redis down")).Once()
	svc := NewComplaintService(env.store, pub, env.activity, zap.NewNop().Sugar())

	c, err := svc.Submit(context.Background(), env.submission())
	require.NoError(t, err)
	pub.AssertExpectations(t)

	// the notification is still stored for the recipient
	notes, err := env.store.ListNotifications(context.Background(), "siti@example.com")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, c.ID, *notes[0].ComplaintID)
}
