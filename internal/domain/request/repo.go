package request

import (
	"context"
)

// Repository defines persistence operations for emergency requests.
// Update and SetStatus retry against the secondary request_id key when the
// primary id matches no row.
type Repository interface {
	Create(ctx context.Context, r *EmergencyRequest) error
	GetByID(ctx context.Context, id string) (*EmergencyRequest, error)
	Update(ctx context.Context, id string, u Update) error
	SetStatus(ctx context.Context, id string, status Status) error
	GetActive(ctx context.Context, userID string, serviceType ServiceType) (*EmergencyRequest, error)
	ListActive(ctx context.Context, userID string) ([]*EmergencyRequest, error)
}
