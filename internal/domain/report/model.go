// Package report holds doctor-reviewed nutrition reports and their approval
// flow.
package report

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusUnreviewed Status = "unreviewed"
	StatusApproved   Status = "approved"
)

// Report maps to the reports table. Content is opaque markdown produced
// outside this service.
type Report struct {
	ID         uuid.UUID  `json:"id"`
	PatientID  string     `json:"patient_id"`
	RequestID  *uuid.UUID `json:"request_id,omitempty"`
	Content    string     `json:"content"`
	Status     Status     `json:"status"`
	ApprovedBy *string    `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateInput is the body of POST /api/reports.
type CreateInput struct {
	PatientID string `json:"patient_id"`
	RequestID string `json:"request_id,omitempty"`
	Content   string `json:"content"`
}
