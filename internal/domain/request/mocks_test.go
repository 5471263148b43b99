package request

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ivisit/api/internal/domain/hospital"
	"github.com/ivisit/api/internal/domain/profile"
	"github.com/ivisit/api/internal/domain/visit"
	"github.com/ivisit/api/internal/platform/notification"
)

type mockRepo struct {
	mu             sync.Mutex
	requests       map[string]*EmergencyRequest
	failCreate     bool
	failList       bool
	failSetStatus  bool
	failUpdateByID bool // force the request_id retry path
	writeCount     int
}

func newMockRepo() *mockRepo {
	return &mockRepo{requests: make(map[string]*EmergencyRequest)}
}

func (m *mockRepo) Create(_ context.Context, r *EmergencyRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	if m.failCreate {
		return fmt.Errorf("insert failed")
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	copied := *r
	m.requests[r.ID] = &copied
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id string) (*EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	for _, r := range m.requests {
		if r.RequestID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockRepo) find(id string) *EmergencyRequest {
	if r, ok := m.requests[id]; ok && !m.failUpdateByID {
		return r
	}
	for _, r := range m.requests {
		if r.RequestID == id {
			return r
		}
	}
	return nil
}

func (m *mockRepo) Update(_ context.Context, id string, u Update) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	r := m.find(id)
	if r == nil {
		return pgx.ErrNoRows
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.HospitalID != nil {
		r.HospitalID = *u.HospitalID
	}
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRepo) SetStatus(_ context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	if m.failSetStatus {
		return fmt.Errorf("status write failed")
	}
	r := m.find(id)
	if r == nil {
		return pgx.ErrNoRows
	}
	r.Status = status
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRepo) GetActive(_ context.Context, userID string, serviceType ServiceType) (*EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *EmergencyRequest
	for _, r := range m.requests {
		if r.UserID == userID && r.ServiceType == serviceType && r.Status.IsActive() {
			if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
				newest = r
			}
		}
	}
	if newest == nil {
		return nil, pgx.ErrNoRows
	}
	copied := *newest
	return &copied, nil
}

func (m *mockRepo) ListActive(_ context.Context, userID string) ([]*EmergencyRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failList {
		return nil, fmt.Errorf("query failed")
	}
	var out []*EmergencyRequest
	for _, r := range m.requests {
		if r.UserID == userID && r.Status.IsActive() {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

type mockVisits struct {
	mu         sync.Mutex
	visits     map[string]*visit.Visit
	failCancel bool
	writeCount int
}

func newMockVisits() *mockVisits {
	return &mockVisits{visits: make(map[string]*visit.Visit)}
}

func (m *mockVisits) Add(_ context.Context, v *visit.Visit) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	if v.LifecycleUpdatedAt.IsZero() {
		v.LifecycleUpdatedAt = time.Now().UTC()
	}
	copied := *v
	m.visits[v.ID] = &copied
	return v, nil
}

func (m *mockVisits) Get(_ context.Context, id string) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *v
	return &copied, nil
}

func (m *mockVisits) Cancel(_ context.Context, id string) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	if m.failCancel {
		return nil, fmt.Errorf("cancel write failed")
	}
	v, ok := m.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	v.Status = visit.StatusCancelled
	v.LifecycleState = visit.LifecycleCancelled
	v.LifecycleUpdatedAt = time.Now().UTC()
	copied := *v
	return &copied, nil
}

func (m *mockVisits) Complete(_ context.Context, id string) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	v, ok := m.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	v.Status = visit.StatusCompleted
	copied := *v
	return &copied, nil
}

func (m *mockVisits) AdvanceLifecycle(_ context.Context, id string, next visit.LifecycleState) (*visit.Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCount++
	v, ok := m.visits[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if !v.LifecycleState.CanTransition(next) {
		return nil, fmt.Errorf("lifecycle transition %s -> %s not allowed", v.LifecycleState, next)
	}
	v.LifecycleState = next
	v.LifecycleUpdatedAt = time.Now().UTC()
	copied := *v
	return &copied, nil
}

type mockProfiles struct {
	medical  *profile.MedicalProfile
	contacts []*profile.EmergencyContact
	prefs    *profile.Preferences
}

func (m *mockProfiles) MedicalProfileSnapshot(_ context.Context, userID string) (*profile.MedicalProfile, error) {
	return m.medical, nil
}

func (m *mockProfiles) EmergencyContactsSnapshot(_ context.Context, userID string) ([]*profile.EmergencyContact, error) {
	return m.contacts, nil
}

func (m *mockProfiles) GetPreferences(_ context.Context, userID string) (*profile.Preferences, error) {
	if m.prefs == nil {
		return profile.DefaultPreferences(userID), nil
	}
	return m.prefs, nil
}

type mockDirectory struct {
	hospitals map[uuid.UUID]*hospital.Hospital
}

func (m *mockDirectory) FindByID(_ context.Context, id uuid.UUID) (*hospital.Hospital, error) {
	h, ok := m.hospitals[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return h, nil
}

type recordedSignal struct {
	kind   string
	userID string
	index  int
}

type recordingSignaler struct {
	mu      sync.Mutex
	signals []recordedSignal
}

func (r *recordingSignaler) record(s recordedSignal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals = append(r.signals, s)
}

func (r *recordingSignaler) RequestSnap(_ context.Context, userID string, index int) {
	r.record(recordedSignal{kind: "snap", userID: userID, index: index})
}

func (r *recordingSignaler) ClearSelection(_ context.Context, userID string) {
	r.record(recordedSignal{kind: "clear-selection", userID: userID})
}

func (r *recordingSignaler) Haptic(_ context.Context, userID string, kind string) {
	r.record(recordedSignal{kind: "haptic:" + kind, userID: userID})
}

func (r *recordingSignaler) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.signals {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// fixture wires a full request flow against in-memory collaborators.
type fixture struct {
	repo         *mockRepo
	visits       *mockVisits
	profiles     *mockProfiles
	directory    *mockDirectory
	store        *Store
	guard        *Guard
	sessions     *Sessions
	signals      *recordingSignaler
	notifier     *notification.Dispatcher
	push         *notification.MockPushSender
	orchestrator *Orchestrator
	handlers     *Handlers
	hospitalID   uuid.UUID
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newMockRepo(),
		visits:     newMockVisits(),
		profiles:   &mockProfiles{},
		signals:    &recordingSignaler{},
		guard:      NewGuard(),
		sessions:   NewSessions(),
		push:       &notification.MockPushSender{},
		hospitalID: uuid.New(),
	}
	f.directory = &mockDirectory{hospitals: map[uuid.UUID]*hospital.Hospital{
		f.hospitalID: {ID: f.hospitalID, Name: "St. Nicholas", Address: "57 Campbell St", Phone: "+2340000000"},
	}}
	f.notifier = notification.NewDispatcher(f.push, &notification.MockSMSSender{}, notification.NewTemplateEngine(), zerolog.Nop())
	f.store = NewStore(f.repo, gocache.New(time.Minute, time.Minute), f.notifier, nil, zerolog.Nop())
	f.orchestrator = NewOrchestrator(f.store, f.visits, f.profiles, f.directory,
		f.guard, f.sessions, f.signals, zerolog.Nop())
	f.handlers = NewHandlers(f.store, f.visits, f.sessions, f.guard, f.notifier, f.signals, zerolog.Nop())
	return f
}

func (f *fixture) initiateInput() InitiateInput {
	return InitiateInput{
		ServiceType: ServiceAmbulance,
		HospitalID:  f.hospitalID,
		UserID:      "user-1",
		Name:        "Ada",
		Phone:       "+15550001111",
	}
}
