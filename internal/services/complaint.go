package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cipelem/pengaduan-server/internal/lifecycle"
	"github.com/cipelem/pengaduan-server/internal/models"
	"github.com/cipelem/pengaduan-server/internal/notify"
	"github.com/cipelem/pengaduan-server/internal/store"
	"go.uber.org/zap"
)

// ComplaintService runs the complaint lifecycle against the store
type ComplaintService struct {
	store     store.Store
	publisher notify.Publisher
	activity  *ActivityLogService
	tickets   *lifecycle.TicketGenerator
	now       func() time.Time
	logger    *zap.SugaredLogger
}

// NewComplaintService creates a new complaint service
func NewComplaintService(st store.Store, pub notify.Publisher, activity *ActivityLogService, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		store:     st,
		publisher: pub,
		activity:  activity,
		tickets:   lifecycle.NewTicketGenerator(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger,
	}
}

// ResponseInput is the request body for a new response
type ResponseInput struct {
	Message       string  `json:"message" validate:"required,max=2000"`
	AttachmentURL *string `json:"attachment_url,omitempty" validate:"omitempty,url"`
	ResponderName string  `json:"responder_name,omitempty" validate:"max=150"`
}

// ComplaintDetail is a complaint with its category and response thread
type ComplaintDetail struct {
	Complaint models.Complaint  `json:"complaint"`
	Category  *models.Category  `json:"category"`
	Responses []models.Response `json:"responses"`
}

// Submit validates and stores a new complaint and enqueues its
// complaint_created notification in the same commit.
func (s *ComplaintService) Submit(ctx context.Context, in models.ComplaintSubmission) (*models.Complaint, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", "categories", "", err)
	}

	in = normalizeSubmission(in)
	if err := lifecycle.ValidateSubmission(in, categories); err != nil {
		return nil, err
	}

	now := s.now()
	taken := make(map[string]struct{})
	for attempt := 0; attempt < lifecycle.MaxTicketAttempts; attempt++ {
		ticketID, err := s.tickets.Generate(taken, now)
		if err != nil {
			return nil, err
		}

		c := models.Complaint{
			TicketID:        ticketID,
			Title:           in.Title,
			Description:     in.Description,
			CategoryID:      in.CategoryID,
			Status:          models.StatusPending,
			Priority:        models.DefaultPriority,
			Location:        in.Location,
			PhotoURL:        in.PhotoURL,
			IsAnonymous:     in.IsAnonymous,
			ReporterName:    in.ReporterName,
			ReporterContact: in.ReporterContact,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		notes := lifecycle.Derive(lifecycle.CreatedEvent(c))

		err = s.store.InsertComplaint(ctx, &c, notes)
		if errors.Is(err, store.ErrDuplicateTicket) {
			s.logger.Warnw("Ticket id collision, regenerating", "ticket", ticketID, "attempt", attempt+1)
			taken[ticketID] = struct{}{}
			continue
		}
		if err != nil {
			return nil, storeErr("insert complaint", "complaint", ticketID, err)
		}

		s.logger.Infow("Complaint submitted",
			"id", c.ID,
			"ticket", c.TicketID,
			"category_id", c.CategoryID,
			"anonymous", c.IsAnonymous,
		)
		s.publish(ctx, notes)
		_ = s.activity.Record(ctx, c, models.Citizen(c.TicketID), models.ActivitySubmission, "Complaint received")
		return &c, nil
	}
	return nil, &lifecycle.DuplicateTicketError{Attempts: lifecycle.MaxTicketAttempts}
}

// ChangeStatus moves a complaint along the lifecycle. expectedVersion is the
// version the caller last saw; zero means "whatever is loaded now".
func (s *ComplaintService) ChangeStatus(ctx context.Context, id int64, status models.Status, expectedVersion int64, actor models.Actor) (*models.Complaint, error) {
	return s.mutate(ctx, id, lifecycle.Change{Status: &status}, expectedVersion, actor)
}

// ChangePriority re-triages a non-terminal complaint. It never emits a
// status_changed notification.
func (s *ComplaintService) ChangePriority(ctx context.Context, id int64, priority models.Priority, expectedVersion int64, actor models.Actor) (*models.Complaint, error) {
	return s.mutate(ctx, id, lifecycle.Change{Priority: &priority}, expectedVersion, actor)
}

func (s *ComplaintService) mutate(ctx context.Context, id int64, change lifecycle.Change, expectedVersion int64, actor models.Actor) (*models.Complaint, error) {
	if err := lifecycle.RequireStaff(actor, "change complaints"); err != nil {
		return nil, err
	}

	current, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		return nil, storeErr("get complaint", "complaint", strconv.FormatInt(id, 10), err)
	}
	if expectedVersion == 0 {
		expectedVersion = current.Version
	}
	if current.Version != expectedVersion {
		return nil, &lifecycle.ConcurrentModificationError{ComplaintID: id, ExpectedVersion: expectedVersion}
	}

	updated, event, err := lifecycle.Apply(*current, change, actor, s.now())
	if err != nil {
		return nil, err
	}

	var notes []models.Notification
	if event != nil {
		notes = lifecycle.Derive(lifecycle.TransitionedEvent(updated, *event))
	}

	err = s.store.UpdateComplaint(ctx, &updated, expectedVersion, notes)
	if errors.Is(err, store.ErrVersionConflict) {
		s.logger.Infow("Concurrent modification rejected", "ticket", current.TicketID, "expected_version", expectedVersion)
		return nil, &lifecycle.ConcurrentModificationError{ComplaintID: id, ExpectedVersion: expectedVersion}
	}
	if err != nil {
		return nil, storeErr("update complaint", "complaint", current.TicketID, err)
	}

	s.publish(ctx, notes)
	if event != nil {
		s.logger.Infow("Complaint status changed",
			"ticket", updated.TicketID,
			"from", event.From,
			"to", event.To,
			"by", actorLabel(actor),
		)
		_ = s.activity.Record(ctx, updated, actor, models.ActivityStatusChange,
			fmt.Sprintf("Status changed from %s to %s", event.From, event.To))
	}
	if change.Priority != nil {
		s.logger.Infow("Complaint priority changed",
			"ticket", updated.TicketID,
			"from", current.Priority,
			"to", updated.Priority,
			"by", actorLabel(actor),
		)
		_ = s.activity.Record(ctx, updated, actor, models.ActivityPriorityChange,
			fmt.Sprintf("Priority changed from %s to %s", current.Priority, updated.Priority))
	}
	return &updated, nil
}

// AddResponse appends to the thread of complaint id. Staff responses are
// official and notify the reporter; residents must hold the ticket.
func (s *ComplaintService) AddResponse(ctx context.Context, id int64, in ResponseInput, actor models.Actor) (*models.Response, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		if !actor.Role.IsStaff() && errors.Is(err, store.ErrNotFound) {
			return nil, &lifecycle.ForbiddenError{Role: actor.Role, Action: "respond to complaint " + strconv.FormatInt(id, 10)}
		}
		return nil, storeErr("get complaint", "complaint", strconv.FormatInt(id, 10), err)
	}
	return s.addResponse(ctx, *c, in, actor)
}

// AddResponseByTicket appends a resident reply to the complaint holding ticketID
func (s *ComplaintService) AddResponseByTicket(ctx context.Context, ticketID string, in ResponseInput) (*models.Response, error) {
	c, err := s.store.GetComplaintByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeErr("get complaint", "ticket", ticketID, err)
	}
	return s.addResponse(ctx, *c, in, models.Citizen(ticketID))
}

func (s *ComplaintService) addResponse(ctx context.Context, c models.Complaint, in ResponseInput, actor models.Actor) (*models.Response, error) {
	if !lifecycle.CanRespond(c, actor) {
		return nil, &lifecycle.ForbiddenError{Role: actor.Role, Action: "respond to complaint " + c.TicketID}
	}

	in.Message = strings.TrimSpace(in.Message)
	in.ResponderName = strings.TrimSpace(in.ResponderName)
	if in.AttachmentURL != nil && strings.TrimSpace(*in.AttachmentURL) == "" {
		in.AttachmentURL = nil
	}
	if err := lifecycle.CheckStruct(in); err != nil {
		return nil, err
	}

	role := actor.Role
	if !role.IsValid() {
		role = models.RoleWarga
	}
	r := models.Response{
		ComplaintID:   c.ID,
		Message:       in.Message,
		AttachmentURL: in.AttachmentURL,
		IsOfficial:    role.IsStaff(),
		ResponderName: responderName(c, in, actor),
		ResponderRole: role,
		CreatedAt:     s.now(),
	}
	notes := lifecycle.Derive(lifecycle.RespondedEvent(c, r))

	if err := s.store.InsertResponse(ctx, &r, notes); err != nil {
		return nil, storeErr("insert response", "complaint", c.TicketID, err)
	}

	s.logger.Infow("Response added",
		"ticket", c.TicketID,
		"official", r.IsOfficial,
		"responder_role", r.ResponderRole,
	)
	s.publish(ctx, notes)
	_ = s.activity.Record(ctx, c, actor, models.ActivityResponse, "Response added by "+r.ResponderName)
	return &r, nil
}

// ListVisible returns the complaints actor may see, narrowed by criteria,
// newest first
func (s *ComplaintService) ListVisible(ctx context.Context, actor models.Actor, criteria lifecycle.Criteria) ([]models.Complaint, error) {
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	all, err := s.store.ListComplaints(ctx)
	if err != nil {
		return nil, storeErr("list complaints", "complaints", "", err)
	}
	return lifecycle.Filter(lifecycle.VisibleSet(all, actor), criteria), nil
}

// Detail returns complaint id with its thread if actor may view it
func (s *ComplaintService) Detail(ctx context.Context, id int64, actor models.Actor) (*ComplaintDetail, error) {
	c, err := s.store.GetComplaint(ctx, id)
	if err != nil {
		if !actor.Role.IsStaff() && errors.Is(err, store.ErrNotFound) {
			// residents must not learn which ids exist
			return nil, &lifecycle.ForbiddenError{Role: actor.Role, Action: "view complaint " + strconv.FormatInt(id, 10)}
		}
		return nil, storeErr("get complaint", "complaint", strconv.FormatInt(id, 10), err)
	}
	if err := lifecycle.RequireView(*c, actor); err != nil {
		return nil, err
	}
	return s.detail(ctx, *c)
}

// DetailByTicket returns the complaint holding ticketID. Possession of the
// ticket is the proof of access.
func (s *ComplaintService) DetailByTicket(ctx context.Context, ticketID string) (*ComplaintDetail, error) {
	c, err := s.store.GetComplaintByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeErr("get complaint", "ticket", ticketID, err)
	}
	return s.detail(ctx, *c)
}

func (s *ComplaintService) detail(ctx context.Context, c models.Complaint) (*ComplaintDetail, error) {
	responses, err := s.store.ListResponses(ctx, c.ID)
	if err != nil {
		return nil, storeErr("list responses", "complaint", c.TicketID, err)
	}
	detail := &ComplaintDetail{Complaint: c, Responses: responses}

	cat, err := s.store.GetCategory(ctx, c.CategoryID)
	switch {
	case err == nil:
		detail.Category = cat
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, storeErr("get category", "category", strconv.FormatInt(c.CategoryID, 10), err)
	}
	return detail, nil
}

// DashboardSummary aggregates every complaint for the staff dashboard
func (s *ComplaintService) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	all, err := s.store.ListComplaints(ctx)
	if err != nil {
		return nil, storeErr("list complaints", "complaints", "", err)
	}
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, storeErr("list categories", "categories", "", err)
	}
	summary := lifecycle.Summarize(all, categories)
	return &summary, nil
}

// PublicStats returns the home page counters
func (s *ComplaintService) PublicStats(ctx context.Context) (*models.PublicStats, error) {
	all, err := s.store.ListComplaints(ctx)
	if err != nil {
		return nil, storeErr("list complaints", "complaints", "", err)
	}
	stats := lifecycle.Stats(all)
	return &stats, nil
}

// Recent returns the n newest complaints. Staff only.
func (s *ComplaintService) Recent(ctx context.Context, actor models.Actor, n int) ([]models.Complaint, error) {
	if err := lifecycle.RequireStaff(actor, "list recent complaints"); err != nil {
		return nil, err
	}
	all, err := s.store.ListComplaints(ctx)
	if err != nil {
		return nil, storeErr("list complaints", "complaints", "", err)
	}
	return lifecycle.Recent(all, n), nil
}

// publish fans committed notifications out. Delivery is best effort: the
// notifications are already stored and listed from there.
func (s *ComplaintService) publish(ctx context.Context, notes []models.Notification) {
	for _, n := range notes {
		if err := s.publisher.Publish(ctx, n); err != nil {
			s.logger.Warnw("Failed to publish notification",
				"notification_id", n.ID,
				"type", n.Type,
				"error", err,
			)
		}
	}
}

func normalizeSubmission(in models.ComplaintSubmission) models.ComplaintSubmission {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ReporterName = strings.TrimSpace(in.ReporterName)
	in.ReporterContact = strings.TrimSpace(in.ReporterContact)
	if in.PhotoURL != nil && strings.TrimSpace(*in.PhotoURL) == "" {
		in.PhotoURL = nil
	}
	return in
}

func responderName(c models.Complaint, in ResponseInput, actor models.Actor) string {
	switch {
	case actor.Role.IsStaff() && actor.Name != "":
		return actor.Name
	case actor.Role.IsStaff():
		return actor.Email
	case in.ResponderName != "":
		return in.ResponderName
	case c.IsAnonymous:
		return "Anonim"
	default:
		return c.ReporterName
	}
}
