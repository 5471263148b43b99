package request

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ivisit/api/internal/domain/profile"
)

// ServiceType is the category of emergency request. The two types are
// mutually exclusive: a user may hold one active request of each.
type ServiceType string

const (
	ServiceAmbulance ServiceType = "ambulance"
	ServiceBed       ServiceType = "bed"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	return t == ServiceAmbulance || t == ServiceBed
}

// Status is the request's own status, tracked independently of the companion
// visit's lifecycle state.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusAccepted   Status = "accepted"
	StatusArrived    Status = "arrived"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// activeStatuses are the non-terminal statuses that count toward the
// at-most-one-active invariant. Kept as strings for array binding in queries.
var activeStatuses = []string{string(StatusInProgress), string(StatusAccepted), string(StatusArrived)}

// IsActive reports whether the status counts toward the at-most-one-active
// invariant.
func (s Status) IsActive() bool {
	return s == StatusInProgress || s == StatusAccepted || s == StatusArrived
}

// PatientSnapshot captures the requester's identity at creation time. It is
// never updated afterwards.
type PatientSnapshot struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// SharedSnapshot holds the health data disclosed to the hospital. Each field
// is copied at initiation time only if the matching privacy preference was
// true at that moment; later profile edits or preference flips do not touch
// an already-stored snapshot.
type SharedSnapshot struct {
	MedicalProfile    *profile.MedicalProfile     `json:"medical_profile,omitempty"`
	EmergencyContacts []*profile.EmergencyContact `json:"emergency_contacts,omitempty"`
}

// EmergencyRequest is a user's ask for an ambulance or a hospital bed.
// ID and RequestID hold the same value; RequestID exists as a secondary
// lookup key for updates arriving with an id of a different shape.
type EmergencyRequest struct {
	ID          string          `json:"id"`
	RequestID   string          `json:"request_id"`
	UserID      string          `json:"user_id"`
	ServiceType ServiceType     `json:"service_type"`
	HospitalID  uuid.UUID       `json:"hospital_id"`
	Status      Status          `json:"status"`
	Patient     PatientSnapshot `json:"patient"`
	Shared      SharedSnapshot  `json:"shared"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewRequestID generates a request id. The millisecond timestamp keeps ids
// roughly ordered by creation time; the random suffix keeps concurrent
// initiations from colliding on the primary key.
func NewRequestID() string {
	return fmt.Sprintf("er_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// Update carries the optional fields an update may change. Nil fields are
// left untouched.
type Update struct {
	Status     *Status    `json:"status,omitempty"`
	HospitalID *uuid.UUID `json:"hospital_id,omitempty"`
}
