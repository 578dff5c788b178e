package report

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nutrilab/nutrilab/internal/domain/nutrition"
	"github.com/nutrilab/nutrilab/internal/platform/apperr"
	"github.com/nutrilab/nutrilab/internal/platform/auth"
	"github.com/nutrilab/nutrilab/internal/platform/notification"
)

// RequestLookup resolves the nutrition request a report answers.
type RequestLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*nutrition.NutritionRequest, error)
}

type Recorder interface {
	ReportApproved()
	ReportCreated()
}

type Service struct {
	reports  ReportRepository
	requests RequestLookup
	events   notification.Publisher
	metrics  Recorder
}

func NewService(reports ReportRepository, requests RequestLookup, events notification.Publisher, metrics Recorder) *Service {
	return &Service{reports: reports, requests: requests, events: events, metrics: metrics}
}

// canRead: the owning patient or any doctor.
func canRead(id *auth.Identity, rp *Report) bool {
	return rp.PatientID == id.ID || auth.Permit(id, auth.RoleDoctor)
}

// Get returns a report the caller may read. Reports the caller may not read
// are reported as missing.
func (s *Service) Get(ctx context.Context, id *auth.Identity, reportID uuid.UUID) (*Report, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	rp, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !canRead(id, rp) {
		return nil, apperr.NotFound("report", reportID.String())
	}
	return rp, nil
}

func (s *Service) ListOwn(ctx context.Context, id *auth.Identity) ([]*Report, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	return s.reports.ListByPatient(ctx, id.ID)
}

// Approve marks a report approved. Approving an already approved report
// returns it unchanged.
func (s *Service) Approve(ctx context.Context, id *auth.Identity, reportID uuid.UUID) (*Report, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleDoctor) {
		return nil, apperr.Forbidden("doctor role required")
	}

	rp, err := s.reports.Approve(ctx, reportID, id.ID)
	if apperr.KindOf(err) == apperr.KindNotFound {
		current, getErr := s.reports.GetByID(ctx, reportID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status == StatusApproved {
			return current, nil
		}
		return nil, apperr.Conflict("report %s could not be approved", reportID)
	}
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ReportApproved()
	}
	s.publish(ctx, notification.ReportApproved, rp, id.ID)
	return rp, nil
}

// Create stores externally generated report content for a patient.
func (s *Service) Create(ctx context.Context, id *auth.Identity, in *CreateInput) (*Report, error) {
	if id == nil || id.ID == "" {
		return nil, apperr.Unauthenticated()
	}
	if !auth.Permit(id, auth.RoleDoctor) {
		return nil, apperr.Forbidden("doctor role required")
	}

	v := apperr.ValidationErrors{}
	patientID := strings.TrimSpace(in.PatientID)
	if patientID == "" {
		v.Add("patient_id", "is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		v.Add("content", "is required")
	}
	var requestID *uuid.UUID
	if raw := strings.TrimSpace(in.RequestID); raw != "" {
		rid, err := uuid.Parse(raw)
		if err != nil {
			v.Add("request_id", "must be a UUID")
		} else {
			requestID = &rid
		}
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if requestID != nil && s.requests != nil {
		req, err := s.requests.GetByID(ctx, *requestID)
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.Validation("request_id", "unknown nutrition request")
		}
		if err != nil {
			return nil, err
		}
		if req.PatientID != patientID {
			return nil, apperr.Validation("request_id", "belongs to another patient")
		}
	}

	rp := &Report{
		PatientID: patientID,
		RequestID: requestID,
		Content:   in.Content,
		Status:    StatusUnreviewed,
	}
	if err := s.reports.Create(ctx, rp); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ReportCreated()
	}
	s.publish(ctx, notification.ReportCreated, rp, id.ID)
	return rp, nil
}

func (s *Service) publish(ctx context.Context, typ string, rp *Report, actor string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, notification.Event{
		Type:       typ,
		PatientID:  rp.PatientID,
		ResourceID: rp.ID.String(),
		Status:     string(rp.Status),
		ActorID:    actor,
	})
}
