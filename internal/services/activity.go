package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityLogService keeps the accountability trail of accepted mutations
type ActivityLogService struct {
	store  store.ActivityStore
	logger *zap.SugaredLogger
}

// NewActivityLogService creates a new activity log service
func NewActivityLogService(st store.ActivityStore, logger *zap.SugaredLogger) *ActivityLogService {
	return &ActivityLogService{store: st, logger: logger}
}

// Record appends an entry for c. A failure is logged and returned; callers
// record after their own commit, so it never undoes the mutation.
func (s *ActivityLogService) Record(ctx context.Context, c models.Complaint, actor models.Actor, activityType, description string) error {
	entry := &models.ActivityLog{
		ID:                uuid.New(),
		ComplaintID:       c.ID,
		TicketID:          c.TicketID,
		ActivityType:      activityType,
		ActionDescription: description,
		Actor:             actorLabel(actor),
		ActorRole:         actor.Role,
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.store.InsertActivity(ctx, entry); err != nil {
		s.logger.Warnw("Failed to record activity",
			"ticket", c.TicketID,
			"type", activityType,
			"error", err,
		)
		return fmt.Errorf("insert activity log: %w", err)
	}

	s.logger.Infow("Activity logged",
		"actor", entry.Actor,
		"type", activityType,
		"action", description,
	)
	return nil
}

// FetchByTicket returns the newest entries for one ticket. Staff only.
func (s *ActivityLogService) FetchByTicket(ctx context.Context, actor models.Actor, ticketID string, limit int) ([]models.ActivityLog, error) {
	if err := lifecycle.RequireStaff(actor, "read the activity log"); err != nil {
		return nil, err
	}
	logs, err := s.store.ListActivityByTicket(ctx, ticketID, limit)
	if err != nil {
		return nil, storeErr("list activity", "ticket", ticketID, err)
	}
	return logs, nil
}

// FetchRecent returns the newest entries across all complaints. Staff only.
func (s *ActivityLogService) FetchRecent(ctx context.Context, actor models.Actor, limit int) ([]models.ActivityLog, error) {
	if err := lifecycle.RequireStaff(actor, "read the activity log"); err != nil {
		return nil, err
	}
	logs, err := s.store.ListRecentActivity(ctx, limit)
	if err != nil {
		return nil, storeErr("list activity", "activity", "recent", err)
	}
	return logs, nil
}

func actorLabel(actor models.Actor) string {
	switch {
	case actor.Email != "":
		return actor.Email
	case actor.Name != "":
		return actor.Name
	case actor.TicketID != "":
		return "warga:" + actor.TicketID
	default:
		return "SYSTEM"
	}
}
