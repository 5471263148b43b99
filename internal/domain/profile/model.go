package profile

import (
	"time"

	"github.com/google/uuid"
)

// MedicalProfile holds the health details a user may choose to share with a
// hospital when requesting help.
type MedicalProfile struct {
	UserID      string    `json:"user_id"`
	BloodType   string    `json:"blood_type,omitempty"`
	Allergies   []string  `json:"allergies"`
	Medications []string  `json:"medications"`
	Conditions  []string  `json:"conditions"`
	Notes       string    `json:"notes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EmergencyContact is a person to notify on the user's behalf.
type EmergencyContact struct {
	ID           uuid.UUID `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Relationship string    `json:"relationship,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Preferences holds per-user settings. The privacy flags gate what is copied
// into a request's shared snapshot at initiation time.
type Preferences struct {
	UserID                        string    `json:"user_id"`
	PrivacyShareMedicalProfile    bool      `json:"privacy_share_medical_profile"`
	PrivacyShareEmergencyContacts bool      `json:"privacy_share_emergency_contacts"`
	NotifyPush                    bool      `json:"notify_push"`
	NotifySMS                     bool      `json:"notify_sms"`
	UpdatedAt                     time.Time `json:"updated_at"`
}

// DefaultPreferences are used when a user has never saved preferences.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:     userID,
		NotifyPush: true,
	}
}
