package lifecycle

import (
	"testing"

	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveCreated(t *testing.T) {
	c := complaintIn(models.StatusPending)

	notes := Derive(CreatedEvent(c))
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationComplaintCreated, notes[0].Type)
	assert.Equal(t, c.ReporterContact, notes[0].UserEmail)
	assert.Contains(t, notes[0].Message, c.TicketID)
	assert.False(t, notes[0].IsRead)

	c.IsAnonymous = true
	assert.Empty(t, Derive(CreatedEvent(c)), "anonymous reporters get no creation notice")
}

func TestDeriveStatusChangedExactlyOnce(t *testing.T) {
	c := complaintIn(models.StatusPending)

	updated, event, err := Apply(c, Change{Status: statusPtr(models.StatusVerified)}, petugas, t0)
	require.NoError(t, err)

	notes := Derive(TransitionedEvent(updated, *event))
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationStatusChanged, notes[0].Type)
	assert.Contains(t, notes[0].Message, models.StatusVerified.Label())
	require.NotNil(t, notes[0].ComplaintID)
	assert.Equal(t, c.ID, *notes[0].ComplaintID)

	// stateless: deriving again yields a fresh but equal record
	assert.Equal(t, notes, Derive(TransitionedEvent(updated, *event)))
}

func TestDeriveResponse(t *testing.T) {
	c := complaintIn(models.StatusInProgress)

	official := models.Response{ComplaintID: c.ID, IsOfficial: true, ResponderName: "Budi", CreatedAt: t0}
	notes := Derive(RespondedEvent(c, official))
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotificationResponseAdded, notes[0].Type)

	reply := models.Response{ComplaintID: c.ID, ResponderName: "Warga", CreatedAt: t0}
	assert.Empty(t, Derive(RespondedEvent(c, reply)))
}

func TestDeriveWithoutContact(t *testing.T) {
	c := complaintIn(models.StatusPending)
	c.ReporterContact = ""
	assert.Empty(t, Derive(CreatedEvent(c)))
}

func TestDeriveBeforeInsertLeavesComplaintIDEmpty(t *testing.T) {
	c := complaintIn(models.StatusPending)
	c.ID = 0
	notes := Derive(CreatedEvent(c))
	require.Len(t, notes, 1)
	assert.Nil(t, notes[0].ComplaintID)
}
