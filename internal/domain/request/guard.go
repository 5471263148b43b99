package request

import (
	"sync"
)

// GuardState is the initiation state for one (user, service type) pair.
type GuardState string

const (
	GuardIdle    GuardState = "idle"
	GuardPending GuardState = "pending"
	GuardActive  GuardState = "active"
)

type guardKey struct {
	userID      string
	serviceType ServiceType
}

// Guard blocks a second initiation of the same service type while one is
// pending or active. It is process-local on purpose: it protects against
// double taps within one session, not against two devices racing. The
// backing store's own invariant is the authority across processes.
type Guard struct {
	mu     sync.Mutex
	states map[guardKey]GuardState
}

func NewGuard() *Guard {
	return &Guard{states: make(map[guardKey]GuardState)}
}

// StateOf returns the current state for the pair.
func (g *Guard) StateOf(userID string, serviceType ServiceType) GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()

	if s, ok := g.states[guardKey{userID, serviceType}]; ok {
		return s
	}
	return GuardIdle
}

// CanStart reports whether an initiation may begin for the pair.
func (g *Guard) CanStart(userID string, serviceType ServiceType) bool {
	return g.StateOf(userID, serviceType) == GuardIdle
}

// Begin atomically moves idle -> pending, returning false if the pair is
// already pending or active.
func (g *Guard) Begin(userID string, serviceType ServiceType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{userID, serviceType}
	if s, ok := g.states[key]; ok && s != GuardIdle {
		return false
	}
	g.states[key] = GuardPending
	return true
}

// Activate moves pending -> active, returning false on any other state.
// Called by the completion phase once the trip/booking session starts.
func (g *Guard) Activate(userID string, serviceType ServiceType) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := guardKey{userID, serviceType}
	if g.states[key] != GuardPending {
		return false
	}
	g.states[key] = GuardActive
	return true
}

// Release returns the pair to idle from any state. Every exit path of an
// initiation (failure, cancellation, completion) must call it.
func (g *Guard) Release(userID string, serviceType ServiceType) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.states, guardKey{userID, serviceType})
}
