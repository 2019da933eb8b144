package services

import (
	"context"
	"testing"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotificationInbox(t *testing.T) {
	env := newTestEnv(t)
	svc := NewNotificationService(env.store, env.store, zap.NewNop().Sugar())
	ctx := context.Background()

	c := env.submit(t)
	_, err := env.complaints.ChangeStatus(ctx, c.ID, models.StatusVerified, 0, staff)
	require.NoError(t, err)

	reporter := models.Actor{Role: models.RoleWarga, Email: "siti@example.com"}
	notes, err := svc.List(ctx, reporter)
	require.NoError(t, err)
	require.Len(t, notes, 2)

	unread, err := svc.UnreadCount(ctx, reporter)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	require.NoError(t, svc.MarkRead(ctx, reporter, notes[0].ID))
	unread, err = svc.UnreadCount(ctx, reporter)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	n, err := svc.MarkAllRead(ctx, reporter)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	err = svc.Delete(ctx, staff, notes[1].ID)
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err), "not the owner")
	require.NoError(t, svc.Delete(ctx, reporter, notes[1].ID))

	_, err = svc.List(ctx, resident)
	assert.Equal(t, lifecycle.KindForbidden, lifecycle.KindOf(err))
}

func TestTicketInbox(t *testing.T) {
	env := newTestEnv(t)
	svc := NewNotificationService(env.store, env.store, zap.NewNop().Sugar())
	ctx := context.Background()

	first := env.submit(t)
	second := env.submit(t)
	_, err := env.complaints.ChangeStatus(ctx, first.ID, models.StatusVerified, 0, staff)
	require.NoError(t, err)

	notes, err := svc.ForTicket(ctx, first.TicketID)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	for _, n := range notes {
		require.NotNil(t, n.ComplaintID)
		assert.Equal(t, first.ID, *n.ComplaintID)
	}

	other, err := svc.ForTicket(ctx, second.TicketID)
	require.NoError(t, err)
	require.Len(t, other, 1)

	err = svc.MarkReadForTicket(ctx, first.TicketID, other[0].ID)
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err), "belongs to another ticket")

	require.NoError(t, svc.MarkReadForTicket(ctx, first.TicketID, notes[0].ID))
	notes, err = svc.ForTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.True(t, notes[0].IsRead)
	assert.False(t, notes[1].IsRead)

	require.NoError(t, svc.DeleteForTicket(ctx, first.TicketID, notes[1].ID))
	notes, err = svc.ForTicket(ctx, first.TicketID)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	_, err = svc.ForTicket(ctx, "CPLM-000000")
	assert.Equal(t, lifecycle.KindNotFound, lifecycle.KindOf(err))
}
