package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	staff    = models.Actor{Role: models.RolePetugas, Email: "petugas@cipelem.id", Name: "Budi"}
	admin    = models.Actor{Role: models.RoleAdmin, Email: "admin@cipelem.id", Name: "Siti"}
	resident = models.Actor{Role: models.RoleWarga}
)

type testEnv struct {
	store      *store.Memory
	published  *recorder
	activity   *ActivityLogService
	complaints *ComplaintService
	roads      models.Category
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zap.NewNop().Sugar()
	st := store.NewMemory()

	roads := models.Category{Name: "Infrastruktur Jalan", Slug: "infrastruktur-jalan", IsActive: true}
	require.NoError(t, st.InsertCategory(context.Background(), &roads))

	rec := &recorder{}
	activity := NewActivityLogService(st, logger)
	return &testEnv{
		store:      st,
		published:  rec,
		activity:   activity,
		complaints: NewComplaintService(st, rec, activity, logger),
		roads:      roads,
	}
}

func (e *testEnv) submission() models.ComplaintSubmission {
	return models.ComplaintSubmission{
		Title:           "Jalan Berlubang",
		Description:     "Lubang besar di depan balai desa",
		CategoryID:      e.roads.ID,
		Location:        "RT 03 / RW 01",
		ReporterName:    "Siti",
		ReporterContact: "siti@example.com",
	}
}

func (e *testEnv) submit(t *testing.T) *models.Complaint {
	t.Helper()
	c, err := e.complaints.Submit(context.Background(), e.submission())
	require.NoError(t, err)
	return c
}

// recorder keeps published notifications in memory
type recorder struct {
	mu        sync.Mutex
	published []models.Notification
}

func (r *recorder) Publish(_ context.Context, n models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, n)
	return nil
}

// Published returns a copy of everything published so far
func (r *recorder) Published() []models.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Notification, len(r.published))
	copy(out, r.published)
	return out
}

// mockPublisher is a testify mock of notify.Publisher
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, n models.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// flakyStore fails every complaint listing
type flakyStore struct {
	*store.Memory
}

func (flakyStore) ListComplaints(context.Context) ([]models.Complaint, error) {
	return nil, errors.New("connection refused")
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
