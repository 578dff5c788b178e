package nutrition

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
	"github.com/nutrilab/nutrilab/internal/platform/notification"
)

// Recorder receives pipeline counters. *telemetry.Metrics implements it.
type Recorder interface {
	IntakeSubmitted()
	RequestTransition(status string)
}

type Service struct {
	requests RequestRepository
	events   notification.Publisher
	metrics  Recorder
}

func NewService(requests RequestRepository, events notification.Publisher, metrics Recorder) *Service {
	return &Service{requests: requests, events: events, metrics: metrics}
}

// Submit validates an intake and persists it as a pending request owned by
// the caller. Nothing is written when validation fails.
func (s *Service) Submit(ctx context.Context, id *auth.Identity, form *IntakeForm) (*NutritionRequest, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if form == nil {
		return nil, apperr.Validation("body", "is required")
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}

	rec := form.ToRequest(id.ID)
	if err := s.requests.Create(ctx, rec); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.IntakeSubmitted()
	}
	s.publish(ctx, notification.RequestSubmitted, rec, id.ID)
	return rec, nil
}

// ListOwn returns the caller's requests, newest first, optionally
// restricted to the given statuses.
func (s *Service) ListOwn(ctx context.Context, id *auth.Identity, statuses []Status) ([]*NutritionRequest, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	items, err := s.requests.ListByPatient(ctx, id.ID, statuses)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// ListPending is the doctor queue: pending requests of every patient.
func (s *Service) ListPending(ctx context.Context, id *auth.Identity) ([]*PendingRequest, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleDoctor) {
		return nil, apperr.Forbidden("doctor role required")
	}
	items, err := s.requests.ListByStatus(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (s *Service) Review(ctx context.Context, id *auth.Identity, requestID uuid.UUID) (*NutritionRequest, error) {
	return s.transition(ctx, id, requestID, StatusProcessing)
}

func (s *Service) Approve(ctx context.Context, id *auth.Identity, requestID uuid.UUID) (*NutritionRequest, error) {
	return s.transition(ctx, id, requestID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id *auth.Identity, requestID uuid.UUID) (*NutritionRequest, error) {
	return s.transition(ctx, id, requestID, StatusRejected)
}

func (s *Service) transition(ctx context.Context, id *auth.Identity, requestID uuid.UUID, to Status) (*NutritionRequest, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleDoctor) {
		return nil, apperr.Forbidden("doctor role required")
	}

	rec, err := s.requests.UpdateStatus(ctx, requestID, sourcesFor(to), to)
	if apperr.KindOf(err) == apperr.KindNotFound {
		// Either the row is gone or its status does not allow the move.
		current, getErr := s.requests.GetByID(ctx, requestID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperr.Conflict("cannot move request from %s to %s", current.Status, to)
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RequestTransition(string(to))
	}
	s.publish(ctx, notification.RequestStatusChanged, rec, id.ID)
	return rec, nil
}

// sourcesFor lists the statuses from which `to` is reachable.
func sourcesFor(to Status) []Status {
	var out []Status
	for _, st := range []Status{StatusPending, StatusProcessing, StatusApproved, StatusRejected} {
		if st.CanTransitionTo(to) {
			out = append(out, st)
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, typ string, rec *NutritionRequest, actor string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, notification.Event{
		Type:       typ,
		PatientID:  rec.PatientID,
		ResourceID: rec.ID.String(),
		Status:     string(rec.Status),
		ActorID:    actor,
	})
}

// ParseStatusFilter parses "pending,approved" into statuses. Blank input
// means no filter.
func ParseStatusFilter(raw string) ([]Status, error) {
	var out []Status
	for _, part := range SplitList(raw) {
		st, err := ParseStatus(part)
		if err != nil {
			return nil, apperr.Validation("status", "unknown status "+strings.TrimSpace(part))
		}
		out = append(out, st)
	}
	return out, nil
}
