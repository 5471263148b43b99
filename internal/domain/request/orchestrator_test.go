package request

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/ivisit/api/internal/domain/profile"
	"github.com/ivisit/api/internal/domain/visit"
)

func TestInitiate_CreatesRequestAndVisitPair(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if req == nil {
		t.Fatal("expected a created request")
	}
	if req.Status != StatusInProgress {
		t.Errorf("expected in_progress, got %s", req.Status)
	}
	if req.ID != req.RequestID {
		t.Errorf("id and request_id must match: %s vs %s", req.ID, req.RequestID)
	}

	v, err := f.visits.Get(ctx, req.RequestID)
	if err != nil {
		t.Fatalf("companion visit missing: %v", err)
	}
	if v.ID != req.RequestID {
		t.Errorf("visit id must equal request id: %s vs %s", v.ID, req.RequestID)
	}
	if v.LifecycleState != visit.LifecycleInitiated {
		t.Errorf("expected lifecycle initiated, got %s", v.LifecycleState)
	}
	if v.HospitalName != "St. Nicholas" {
		t.Errorf("unexpected hospital name %q", v.HospitalName)
	}
}

func TestInitiate_SecondOfSameTypeIsNoOp(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil || first == nil {
		t.Fatalf("first initiation failed: %v", err)
	}

	second, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatalf("concurrency block must not be an error: %v", err)
	}
	if second != nil {
		t.Error("second initiation of the same type must be a no-op")
	}
	if len(f.repo.requests) != 1 || len(f.visits.visits) != 1 {
		t.Errorf("no new records expected: %d requests, %d visits",
			len(f.repo.requests), len(f.visits.visits))
	}
}

func TestInitiate_DifferentTypeAllowed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	if _, err := f.orchestrator.Initiate(ctx, f.initiateInput()); err != nil {
		t.Fatal(err)
	}

	in := f.initiateInput()
	in.ServiceType = ServiceBed
	req, err := f.orchestrator.Initiate(ctx, in)
	if err != nil {
		t.Fatal(err)
	}
	if req == nil {
		t.Error("a bed request must not be blocked by an ambulance request")
	}
}

func TestInitiate_ConcurrentTapsCreateOne(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	const taps = 20
	var wg sync.WaitGroup
	for i := 0; i < taps; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.orchestrator.Initiate(ctx, f.initiateInput())
		}()
	}
	wg.Wait()

	if len(f.repo.requests) != 1 {
		t.Errorf("expected exactly 1 request, got %d", len(f.repo.requests))
	}
	if len(f.visits.visits) != 1 {
		t.Errorf("expected exactly 1 visit, got %d", len(f.visits.visits))
	}
}

func TestInitiate_UnresolvableHospitalAbortsBeforeWrites(t *testing.T) {
	f := newFixture()
	in := f.initiateInput()
	in.HospitalID = uuid.New()

	if _, err := f.orchestrator.Initiate(context.Background(), in); err == nil {
		t.Fatal("expected error for unresolvable hospital")
	}
	if f.repo.writeCount != 0 || f.visits.writeCount != 0 {
		t.Error("no writes may happen before the hospital resolves")
	}
	if !f.guard.CanStart("user-1", ServiceAmbulance) {
		t.Error("guard must stay idle on pre-write abort")
	}
}

func TestInitiate_ValidationErrors(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	in := f.initiateInput()
	in.ServiceType = "helicopter"
	if _, err := f.orchestrator.Initiate(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid-input error for bad service type, got %v", err)
	}

	in = f.initiateInput()
	in.HospitalID = uuid.Nil
	if _, err := f.orchestrator.Initiate(ctx, in); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected invalid-input error for missing hospital id, got %v", err)
	}
}

func TestInitiate_CreateFailureReleasesGuard(t *testing.T) {
	f := newFixture()
	f.repo.failCreate = true

	_, err := f.orchestrator.Initiate(context.Background(), f.initiateInput())
	if err == nil {
		t.Fatal("expected create failure to propagate")
	}
	if errors.Is(err, ErrInvalidInput) {
		t.Error("a persistence failure must not read as a caller error")
	}
	if !f.guard.CanStart("user-1", ServiceAmbulance) {
		t.Error("guard must be released so a retry is possible")
	}

	// Retry succeeds once the store recovers.
	f.repo.failCreate = false
	req, err := f.orchestrator.Initiate(context.Background(), f.initiateInput())
	if err != nil || req == nil {
		t.Errorf("retry after failure should succeed: %v", err)
	}
}

func TestInitiate_SharedSnapshotHonorsPreferences(t *testing.T) {
	f := newFixture()
	f.profiles.medical = &profile.MedicalProfile{UserID: "user-1", BloodType: "O+"}
	f.profiles.contacts = []*profile.EmergencyContact{{UserID: "user-1", Name: "Bisi", Phone: "+234"}}
	ctx := context.Background()

	// Privacy flags off: nothing is disclosed.
	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if req.Shared.MedicalProfile != nil || req.Shared.EmergencyContacts != nil {
		t.Error("nothing may be shared with privacy flags off")
	}

	// Flags on: both sections are copied.
	f.guard.Release("user-1", ServiceAmbulance)
	f.profiles.prefs = &profile.Preferences{
		UserID:                        "user-1",
		PrivacyShareMedicalProfile:    true,
		PrivacyShareEmergencyContacts: true,
	}
	req, err = f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if req.Shared.MedicalProfile == nil || req.Shared.MedicalProfile.BloodType != "O+" {
		t.Error("medical profile should be shared")
	}
	if len(req.Shared.EmergencyContacts) != 1 {
		t.Error("emergency contacts should be shared")
	}
}

func TestInitiate_SharedSnapshotImmutable(t *testing.T) {
	f := newFixture()
	f.profiles.medical = &profile.MedicalProfile{UserID: "user-1", BloodType: "O+"}
	f.profiles.prefs = &profile.Preferences{UserID: "user-1", PrivacyShareMedicalProfile: true}

	req, err := f.orchestrator.Initiate(context.Background(), f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}

	// A later profile edit must not reach the stored snapshot.
	f.profiles.medical.BloodType = "AB-"

	stored, err := f.store.Get(context.Background(), req.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Shared.MedicalProfile.BloodType != "O+" {
		t.Errorf("stored snapshot mutated: %s", stored.Shared.MedicalProfile.BloodType)
	}
}

func TestComplete_PromotesToActiveTrip(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.Complete(ctx, "user-1", req.RequestID); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.store.Get(ctx, req.ID)
	if stored.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", stored.Status)
	}

	v, _ := f.visits.Get(ctx, req.RequestID)
	if v.LifecycleState != visit.LifecycleMonitoring {
		t.Errorf("expected monitoring, got %s", v.LifecycleState)
	}

	sess := f.sessions.Get("user-1", ServiceAmbulance)
	if sess == nil {
		t.Fatal("expected an active ambulance trip")
	}
	if sess.HospitalID != f.hospitalID {
		t.Errorf("active trip hospital mismatch: %s", sess.HospitalID)
	}
	if f.guard.StateOf("user-1", ServiceAmbulance) != GuardActive {
		t.Error("guard slot must be active after completion")
	}
	if f.signals.count("clear-selection") != 1 {
		t.Error("expected the selected-hospital state to be cleared")
	}
}

func TestComplete_RichUpdateFailureFallsBackToStatusWrite(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}

	// The richer update misses on the primary key; the retry inside the
	// repository applies it by request_id, so completion still lands.
	f.repo.failUpdateByID = true
	if err := f.orchestrator.Complete(ctx, "user-1", req.RequestID); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.store.Get(ctx, req.ID)
	if stored.Status != StatusAccepted {
		t.Errorf("expected accepted, got %s", stored.Status)
	}
}

func TestComplete_WrongUserRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.Complete(ctx, "user-2", req.RequestID); err == nil {
		t.Error("expected error completing another user's request")
	}
}

func TestComplete_TerminalRequestRejected(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	req, err := f.orchestrator.Initiate(ctx, f.initiateInput())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.store.SetStatus(ctx, req.ID, StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.Complete(ctx, "user-1", req.RequestID); err == nil {
		t.Error("expected error completing a cancelled request")
	}
}
