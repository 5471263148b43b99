package hospital

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines persistence operations for hospitals.
type Repository interface {
	Create(ctx context.Context, h *Hospital) error
	GetByID(ctx context.Context, id uuid.UUID) (*Hospital, error)
	List(ctx context.Context, limit, offset int) ([]*Hospital, int, error)
	SearchBySpecialty(ctx context.Context, specialty string, limit, offset int) ([]*Hospital, int, error)
	UpdateBedCounts(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error
	UpdateAmbulanceCount(ctx context.Context, id uuid.UUID, available int) error
}
