package hospital

import (
	"time"

	"github.com/google/uuid"
)

// Hospital is a facility the app can route an emergency request to.
type Hospital struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Image               string    `json:"image,omitempty"`
	Address             string    `json:"address"`
	Phone               string    `json:"phone"`
	Specialties         []string  `json:"specialties"`
	TotalBeds           int       `json:"total_beds"`
	AvailableBeds       int       `json:"available_beds"`
	AmbulancesAvailable int       `json:"ambulances_available"`
	Latitude            *float64  `json:"latitude,omitempty"`
	Longitude           *float64  `json:"longitude,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Summary is the subset of hospital fields embedded in request snapshots.
type Summary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image,omitempty"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Specialties []string  `json:"specialties"`
}

// Summary returns the snapshot view of the hospital.
func (h *Hospital) Summary() Summary {
	return Summary{
		ID:          h.ID,
		Name:        h.Name,
		Image:       h.Image,
		Address:     h.Address,
		Phone:       h.Phone,
		Specialties: h.Specialties,
	}
}
