package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type mockMedicalRepo struct {
	profiles map[string]*MedicalProfile
}

func (m *mockMedicalRepo) Get(_ context.Context, userID string) (*MedicalProfile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockMedicalRepo) Upsert(_ context.Context, p *MedicalProfile) error {
	m.profiles[p.UserID] = p
	return nil
}

type mockContactRepo struct {
	contacts map[string][]*EmergencyContact
}

func (m *mockContactRepo) ListByUser(_ context.Context, userID string) ([]*EmergencyContact, error) {
	return m.contacts[userID], nil
}

func (m *mockContactRepo) Create(_ context.Context, c *EmergencyContact) error {
	c.ID = uuid.New()
	m.contacts[c.UserID] = append(m.contacts[c.UserID], c)
	return nil
}

func (m *mockContactRepo) Delete(_ context.Context, userID string, id uuid.UUID) error {
	list := m.contacts[userID]
	for i, c := range list {
		if c.ID == id {
			m.contacts[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type mockPrefsRepo struct {
	prefs map[string]*Preferences
}

func (m *mockPrefsRepo) Get(_ context.Context, userID string) (*Preferences, error) {
	p, ok := m.prefs[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPrefsRepo) Upsert(_ context.Context, p *Preferences) error {
	m.prefs[p.UserID] = p
	return nil
}

func newTestService() (*Service, *mockMedicalRepo, *mockContactRepo, *mockPrefsRepo) {
	medical := &mockMedicalRepo{profiles: make(map[string]*MedicalProfile)}
	contacts := &mockContactRepo{contacts: make(map[string][]*EmergencyContact)}
	prefs := &mockPrefsRepo{prefs: make(map[string]*Preferences)}
	return NewService(medical, contacts, prefs), medical, contacts, prefs
}

func TestMedicalProfileSnapshot_MissingIsNil(t *testing.T) {
	svc, _, _, _ := newTestService()

	p, err := svc.MedicalProfileSnapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if p != nil {
		t.Errorf("expected nil for unsaved profile, got %+v", p)
	}
}

func TestSaveAndSnapshotMedicalProfile(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SaveMedicalProfile(ctx, &MedicalProfile{}); err == nil {
		t.Error("expected error for missing user_id")
	}

	in := &MedicalProfile{UserID: "user-1", BloodType: "O+", Allergies: []string{"penicillin"}}
	if err := svc.SaveMedicalProfile(ctx, in); err != nil {
		t.Fatal(err)
	}

	got, err := svc.MedicalProfileSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.BloodType != "O+" || len(got.Allergies) != 1 {
		t.Errorf("unexpected profile: %+v", got)
	}
}

func TestEmergencyContacts(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.AddEmergencyContact(ctx, &EmergencyContact{UserID: "u", Name: "n"}); err == nil {
		t.Error("expected error for missing phone")
	}

	c := &EmergencyContact{UserID: "user-1", Name: "Bisi", Phone: "+2341112223"}
	if err := svc.AddEmergencyContact(ctx, c); err != nil {
		t.Fatal(err)
	}

	contacts, err := svc.EmergencyContactsSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}

	if err := svc.RemoveEmergencyContact(ctx, "user-1", c.ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveEmergencyContact(ctx, "user-1", c.ID); err != pgx.ErrNoRows {
		t.Errorf("expected ErrNoRows on second delete, got %v", err)
	}
}

func TestGetPreferences_DefaultsWhenUnsaved(t *testing.T) {
	svc, _, _, _ := newTestService()

	p, err := svc.GetPreferences(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if p.PrivacyShareMedicalProfile || p.PrivacyShareEmergencyContacts {
		t.Error("privacy flags must default to false")
	}
	if !p.NotifyPush {
		t.Error("push notifications default to enabled")
	}
}

func TestSaveAndGetPreferences(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.SavePreferences(ctx, &Preferences{
		UserID:                     "user-1",
		PrivacyShareMedicalProfile: true,
	}); err != nil {
		t.Fatal(err)
	}

	p, err := svc.GetPreferences(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.PrivacyShareMedicalProfile || p.PrivacyShareEmergencyContacts {
		t.Errorf("unexpected preferences: %+v", p)
	}
}
