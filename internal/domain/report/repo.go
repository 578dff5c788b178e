package report

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository returns apperr kinds: NotFound for missing rows and
// StoreUnavailable for everything else.
type ReportRepository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Report, error)
	// Approve flips an unreviewed report to approved in one statement. It
	// returns NotFound when no unreviewed row with that id exists.
	Approve(ctx context.Context, id uuid.UUID, approver string) (*Report, error)
}
