package nutrition

import (
	"context"

	"github.com/google/uuid"
)

// RequestRepository stores nutrition requests. Implementations return
// apperr kinds: NotFound for missing rows and StoreUnavailable otherwise.
type RequestRepository interface {
	Create(ctx context.Context, r *NutritionRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*NutritionRequest, error)
	// ListByPatient returns the patient's requests, newest first. An empty
	// statuses slice means no status filter.
	ListByPatient(ctx context.Context, patientID string, statuses []Status) ([]*NutritionRequest, error)
	// ListByStatus returns requests of every owner in the given status,
	// joined with their patient summary, newest first.
	ListByStatus(ctx context.Context, status Status) ([]*PendingRequest, error)
	// UpdateStatus moves a request to `to` only while its current status is
	// one of `from`. It returns NotFound when no row matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (*NutritionRequest, error)
}
