package visit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
)

type mockRepo struct {
	visits map[string]*Visit
}

func newMockRepo() *mockRepo { return &mockRepo{visits: make(map[string]*Visit)} }

func (m *mockRepo) Create(_ context.Context, v *Visit) error {
	now := time.Now().UTC()
	v.CreatedAt = now
	v.UpdatedAt = now
	m.visits[v.ID] = v
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*Visit, error) {
	v, ok := m.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*Visit, int, error) {
	var out []*Visit
	for _, v := range m.visits {
		if v.UserID == userID {
			out = append(out, v)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) ApplyPatch(_ context.Context, id string, p Patch) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if p.HospitalName != nil {
		v.HospitalName = *p.HospitalName
	}
	if p.DeskLabel != nil {
		v.DeskLabel = *p.DeskLabel
	}
	if p.Specialty != nil {
		v.Specialty = *p.Specialty
	}
	if p.Notes != nil {
		v.Notes = *p.Notes
	}
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id string, status Status) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	v.Status = status
	return nil
}

func (m *mockRepo) SetLifecycle(_ context.Context, id string, state LifecycleState, at time.Time) error {
	v, ok := m.visits[id]
	if !ok {
		return pgx.ErrNoRows
	}
	v.LifecycleState = state
	v.LifecycleUpdatedAt = at
	return nil
}

func addVisit(t *testing.T, svc *Service) *Visit {
	t.Helper()
	v, err := svc.Add(context.Background(), &Visit{
		ID:           "er_1700000000000",
		UserID:       "user-1",
		HospitalName: "St. Nicholas",
	})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestAdd_Defaults(t *testing.T) {
	svc := NewService(newMockRepo())
	v := addVisit(t, svc)

	if v.Status != StatusInProgress {
		t.Errorf("expected default status in_progress, got %s", v.Status)
	}
	if v.LifecycleState != LifecycleInitiated {
		t.Errorf("expected default lifecycle initiated, got %s", v.LifecycleState)
	}
	if v.LifecycleUpdatedAt.IsZero() {
		t.Error("expected LifecycleUpdatedAt stamped")
	}
}

func TestAdd_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if _, err := svc.Add(ctx, &Visit{UserID: "u"}); err == nil {
		t.Error("expected error for missing id")
	}
	if _, err := svc.Add(ctx, &Visit{ID: "er_1"}); err == nil {
		t.Error("expected error for missing user_id")
	}
}

func TestCanTransition_ForwardOnly(t *testing.T) {
	cases := []struct {
		from, to LifecycleState
		want     bool
	}{
		{LifecycleInitiated, LifecycleConfirmed, true},
		{LifecycleConfirmed, LifecycleMonitoring, true},
		{LifecycleMonitoring, LifecycleArrived, true},
		{LifecycleMonitoring, LifecycleOccupied, true},
		{LifecycleArrived, LifecycleCompleted, true},
		{LifecycleCompleted, LifecycleRatingPending, true},
		{LifecycleRatingPending, LifecycleRated, true},
		{LifecycleRated, LifecycleCleared, true},
		{LifecycleInitiated, LifecycleMonitoring, true}, // skipping forward is allowed
		{LifecycleMonitoring, LifecycleConfirmed, false},
		{LifecycleArrived, LifecycleOccupied, false}, // same rank
		{LifecycleCompleted, LifecycleMonitoring, false},
		{LifecycleMonitoring, LifecycleCancelled, true},
		{LifecycleCancelled, LifecycleConfirmed, false},
		{LifecycleCancelled, LifecycleCancelled, false},
		{LifecycleCleared, LifecycleCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestAdvanceLifecycle_StampsUpdatedAt(t *testing.T) {
	svc := NewService(newMockRepo())
	v := addVisit(t, svc)
	before := v.LifecycleUpdatedAt

	time.Sleep(time.Millisecond)
	got, err := svc.AdvanceLifecycle(context.Background(), v.ID, LifecycleConfirmed)
	if err != nil {
		t.Fatal(err)
	}
	if got.LifecycleState != LifecycleConfirmed {
		t.Errorf("unexpected state %s", got.LifecycleState)
	}
	if !got.LifecycleUpdatedAt.After(before) {
		t.Error("expected LifecycleUpdatedAt to advance")
	}
}

func TestAdvanceLifecycle_RejectsBackward(t *testing.T) {
	svc := NewService(newMockRepo())
	v := addVisit(t, svc)
	ctx := context.Background()

	if _, err := svc.AdvanceLifecycle(ctx, v.ID, LifecycleMonitoring); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AdvanceLifecycle(ctx, v.ID, LifecycleConfirmed); err == nil {
		t.Error("expected backward transition to be rejected")
	}
}

func TestCancel(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	v := addVisit(t, svc)
	ctx := context.Background()

	got, err := svc.Cancel(ctx, v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCancelled || got.LifecycleState != LifecycleCancelled {
		t.Errorf("unexpected cancelled visit: %+v", got)
	}

	// Cancelled is terminal.
	if _, err := svc.Cancel(ctx, v.ID); err == nil {
		t.Error("expected error cancelling a cancelled visit")
	}
	if _, err := svc.AdvanceLifecycle(ctx, v.ID, LifecycleConfirmed); err == nil {
		t.Error("expected error advancing a cancelled visit")
	}
}

func TestComplete(t *testing.T) {
	svc := NewService(newMockRepo())
	v := addVisit(t, svc)

	got, err := svc.Complete(context.Background(), v.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusCompleted {
		t.Errorf("expected completed status, got %s", got.Status)
	}
}

func TestUpdate_Patch(t *testing.T) {
	svc := NewService(newMockRepo())
	v := addVisit(t, svc)

	notes := "patient stable"
	got, err := svc.Update(context.Background(), v.ID, Patch{Notes: &notes})
	if err != nil {
		t.Fatal(err)
	}
	if got.Notes != "patient stable" {
		t.Errorf("patch not applied: %+v", got)
	}
	if got.HospitalName != "St. Nicholas" {
		t.Error("nil patch field must leave value untouched")
	}
}
