package profile

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Service exposes profile data to the rest of the app. The snapshot getters
// are read-only views used at request initiation time.
type Service struct {
	medical  MedicalProfileRepository
	contacts EmergencyContactRepository
	prefs    PreferencesRepository
}

func NewService(medical MedicalProfileRepository, contacts EmergencyContactRepository, prefs PreferencesRepository) *Service {
	return &Service{medical: medical, contacts: contacts, prefs: prefs}
}

// MedicalProfileSnapshot returns the user's medical profile, or nil if none
// has been saved yet.
func (s *Service) MedicalProfileSnapshot(ctx context.Context, userID string) (*MedicalProfile, error) {
	p, err := s.medical.Get(ctx, userID)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// EmergencyContactsSnapshot returns the user's emergency contacts.
func (s *Service) EmergencyContactsSnapshot(ctx context.Context, userID string) ([]*EmergencyContact, error) {
	return s.contacts.ListByUser(ctx, userID)
}

// GetPreferences returns the user's preferences, falling back to defaults
// when none are saved.
func (s *Service) GetPreferences(ctx context.Context, userID string) (*Preferences, error) {
	p, err := s.prefs.Get(ctx, userID)
	if err == pgx.ErrNoRows {
		return DefaultPreferences(userID), nil
	}
	return p, err
}

func (s *Service) SaveMedicalProfile(ctx context.Context, p *MedicalProfile) error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return s.medical.Upsert(ctx, p)
}

func (s *Service) AddEmergencyContact(ctx context.Context, c *EmergencyContact) error {
	if c.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	return s.contacts.Create(ctx, c)
}

func (s *Service) RemoveEmergencyContact(ctx context.Context, userID string, id uuid.UUID) error {
	return s.contacts.Delete(ctx, userID, id)
}

func (s *Service) SavePreferences(ctx context.Context, p *Preferences) error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	return s.prefs.Upsert(ctx, p)
}
