package lifecycle

import (
	"errors"
	"testing"
	"time"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	petugas = models.Actor{Role: models.RolePetugas, Email: "petugas@cipelem.id", Name: "Budi"}
	admin   = models.Actor{Role: models.RoleAdmin, Email: "admin@cipelem.id"}
	t0      = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
)

func complaintIn(status models.Status) models.Complaint {
	return models.Complaint{
		ID:              7,
		TicketID:        "CPLM-123456",
		Title:           "Lampu jalan mati",
		Status:          status,
		Priority:        models.PriorityMedium,
		ReporterContact: "warga@example.com",
		Version:         3,
		UpdatedAt:       t0,
	}
}

func statusPtr(s models.Status) *models.Status       { return &s }
func priorityPtr(p models.Priority) *models.Priority { return &p }

func TestApplyFollowsOnlyLifecycleEdges(t *testing.T) {
	edges := map[[2]models.Status]bool{}
	for _, e := range [][2]models.Status{
		{models.StatusPending, models.StatusVerified},
		{models.StatusPending, models.StatusRejected},
		{models.StatusVerified, models.StatusInProgress},
		{models.StatusVerified, models.StatusRejected},
		{models.StatusInProgress, models.StatusCompleted},
		{models.StatusInProgress, models.StatusRejected},
	} {
		edges[e] = true
	}

	now := t0.Add(time.Hour)
	for _, from := range models.AllStatuses {
		for _, to := range models.AllStatuses {
			c := complaintIn(from)
			updated, event, err := Apply(c, Change{Status: statusPtr(to)}, petugas, now)

			if edges[[2]models.Status{from, to}] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, updated.Status)
				assert.Equal(t, now, updated.UpdatedAt)
				require.NotNil(t, event)
				assert.Equal(t, from, event.From)
				assert.Equal(t, to, event.To)
				assert.Equal(t, c.ID, event.ComplaintID)
				continue
			}

			var invalid *InvalidTransitionError
			require.True(t, errors.As(err, &invalid), "%s -> %s should be rejected, got %v", from, to, err)
			assert.Equal(t, from, invalid.From)
			assert.Equal(t, to, invalid.To)
			assert.Equal(t, AllowedNext(from), invalid.Allowed)
			assert.Nil(t, event)
			assert.Equal(t, c, updated, "rejected transition must leave the record unchanged")
		}
	}
}

func TestApplyForbiddenBeforeTransitionCheck(t *testing.T) {
	resident := models.Citizen("CPLM-123456")

	// even a legal edge is refused
	_, _, err := Apply(complaintIn(models.StatusPending), Change{Status: statusPtr(models.StatusVerified)}, resident, t0)
	assert.Equal(t, KindForbidden, KindOf(err))

	// and an illegal one reports Forbidden, not InvalidTransition
	_, _, err = Apply(complaintIn(models.StatusCompleted), Change{Status: statusPtr(models.StatusPending)}, resident, t0)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestApplyPriority(t *testing.T) {
	c := complaintIn(models.StatusVerified)

	updated, event, err := Apply(c, Change{Priority: priorityPtr(models.PriorityUrgent)}, admin, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Nil(t, event, "priority-only change produces no transition event")
	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, models.StatusVerified, updated.Status)

	_, _, err = Apply(c, Change{Priority: priorityPtr(models.PriorityMedium)}, admin, t0)
	assert.Equal(t, KindValidation, KindOf(err), "same priority is a no-op")

	for _, terminal := range []models.Status{models.StatusCompleted, models.StatusRejected} {
		_, _, err = Apply(complaintIn(terminal), Change{Priority: priorityPtr(models.PriorityHigh)}, admin, t0)
		var locked *ComplaintLockedError
		require.True(t, errors.As(err, &locked))
		assert.Equal(t, terminal, locked.Status)
	}
}

func TestApplyStatusAndPriorityTogether(t *testing.T) {
	updated, event, err := Apply(complaintIn(models.StatusPending), Change{
		Status:   statusPtr(models.StatusVerified),
		Priority: priorityPtr(models.PriorityHigh),
	}, petugas, t0)
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, models.StatusVerified, updated.Status)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
}

func TestApplyRejectsEmptyAndUnknown(t *testing.T) {
	c := complaintIn(models.StatusPending)

	_, _, err := Apply(c, Change{}, petugas, t0)
	assert.Equal(t, KindValidation, KindOf(err))

	_, _, err = Apply(c, Change{Status: statusPtr("archived")}, petugas, t0)
	assert.Equal(t, KindValidation, KindOf(err))

	_, _, err = Apply(c, Change{Priority: priorityPtr("critical")}, petugas, t0)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	assert.Empty(t, AllowedNext(models.StatusCompleted))
	assert.Empty(t, AllowedNext(models.StatusRejected))
	assert.False(t, CanTransition(models.StatusCompleted, models.StatusPending))
	assert.False(t, CanTransition(models.StatusRejected, models.StatusVerified))
	assert.False(t, CanTransition(models.StatusPending, models.StatusPending))
}
