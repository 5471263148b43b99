package hospital

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ivisit/api/internal/platform/realtime"
)

// Service is the hospitals directory consumed by the request flow.
type Service struct {
	repo Repository
	pub  realtime.Publisher
}

func NewService(repo Repository, pub realtime.Publisher) *Service {
	return &Service{repo: repo, pub: pub}
}

func (s *Service) Create(ctx context.Context, h *Hospital) error {
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if h.Address == "" {
		return fmt.Errorf("address is required")
	}
	if h.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if h.AvailableBeds > h.TotalBeds {
		return fmt.Errorf("available_beds cannot exceed total_beds")
	}
	return s.repo.Create(ctx, h)
}

// FindByID resolves a hospital by id.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Hospital, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) SearchBySpecialty(ctx context.Context, specialty string, limit, offset int) ([]*Hospital, int, error) {
	if specialty == "" {
		return nil, 0, fmt.Errorf("specialty is required")
	}
	return s.repo.SearchBySpecialty(ctx, specialty, limit, offset)
}

// SetBedCounts updates a hospital's bed availability and broadcasts the
// change to subscribers of the hospital's bed topic.
func (s *Service) SetBedCounts(ctx context.Context, id uuid.UUID, totalBeds, availableBeds int) error {
	if totalBeds < 0 || availableBeds < 0 {
		return fmt.Errorf("bed counts cannot be negative")
	}
	if availableBeds > totalBeds {
		return fmt.Errorf("available_beds cannot exceed total_beds")
	}
	if err := s.repo.UpdateBedCounts(ctx, id, totalBeds, availableBeds); err != nil {
		return err
	}

	if s.pub != nil {
		event, err := realtime.NewEvent("beds.changed", realtime.TopicHospitalBeds(id.String()), map[string]int{
			"total_beds":     totalBeds,
			"available_beds": availableBeds,
		})
		if err == nil {
			_ = s.pub.Publish(ctx, event)
		}
	}
	return nil
}

// SetAmbulanceCount updates a hospital's available ambulance count.
func (s *Service) SetAmbulanceCount(ctx context.Context, id uuid.UUID, available int) error {
	if available < 0 {
		return fmt.Errorf("ambulance count cannot be negative")
	}
	return s.repo.UpdateAmbulanceCount(ctx, id, available)
}
