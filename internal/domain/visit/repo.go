package visit

import (
	"context"
	"time"
)

// Patch carries the optional display fields an update may change. Nil fields
// are left untouched.
type Patch struct {
	HospitalName *string `json:"hospital_name,omitempty"`
	DeskLabel    *string `json:"desk_label,omitempty"`
	Specialty    *string `json:"specialty,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// Repository defines persistence operations for visits.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id string) (*Visit, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Visit, int, error)
	ApplyPatch(ctx context.Context, id string, p Patch) error
	SetStatus(ctx context.Context, id string, status Status) error
	SetLifecycle(ctx context.Context, id string, state LifecycleState, at time.Time) error
}
