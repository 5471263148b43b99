package profile

import (
	"context"

	"github.com/google/uuid"
)

// MedicalProfileRepository defines persistence for medical profiles.
type MedicalProfileRepository interface {
	Get(ctx context.Context, userID string) (*MedicalProfile, error)
	Upsert(ctx context.Context, p *MedicalProfile) error
}

// EmergencyContactRepository defines persistence for emergency contacts.
type EmergencyContactRepository interface {
	ListByUser(ctx context.Context, userID string) ([]*EmergencyContact, error)
	Create(ctx context.Context, c *EmergencyContact) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// PreferencesRepository defines persistence for user preferences.
type PreferencesRepository interface {
	Get(ctx context.Context, userID string) (*Preferences, error)
	Upsert(ctx context.Context, p *Preferences) error
}
