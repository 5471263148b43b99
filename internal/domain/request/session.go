package request

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the active-trip/active-booking domain object. Its presence is
// what marks a request as occupying its service-type slot.
type Session struct {
	RequestID   string      `json:"request_id"`
	ServiceType ServiceType `json:"service_type"`
	HospitalID  uuid.UUID   `json:"hospital_id"`
	StartedAt   time.Time   `json:"started_at"`
	Arrived     bool        `json:"arrived"`
	Occupied    bool        `json:"occupied"`
}

type sessionKey struct {
	userID      string
	serviceType ServiceType
}

// Sessions tracks the active ambulance trip and bed booking per user. Only
// the orchestrator and the composite action handlers write to it.
type Sessions struct {
	mu     sync.RWMutex
	active map[sessionKey]*Session
}

func NewSessions() *Sessions {
	return &Sessions{active: make(map[sessionKey]*Session)}
}

// Start records a new active session for the pair, replacing any prior one.
func (s *Sessions) Start(userID string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[sessionKey{userID, session.ServiceType}] = session
}

// Get returns the active session for the pair, or nil.
func (s *Sessions) Get(userID string, serviceType ServiceType) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.active[sessionKey{userID, serviceType}]
	if !ok {
		return nil
	}
	copied := *sess
	return &copied
}

// MarkArrived flags the active ambulance trip as arrived.
func (s *Sessions) MarkArrived(userID string) bool {
	return s.flag(userID, ServiceAmbulance, func(sess *Session) { sess.Arrived = true })
}

// MarkOccupied flags the active bed booking as occupied.
func (s *Sessions) MarkOccupied(userID string) bool {
	return s.flag(userID, ServiceBed, func(sess *Session) { sess.Occupied = true })
}

func (s *Sessions) flag(userID string, serviceType ServiceType, fn func(*Session)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.active[sessionKey{userID, serviceType}]
	if !ok {
		return false
	}
	fn(sess)
	return true
}

// End clears the active session for the pair, returning false if none was
// set. Ending an absent session is a safe no-op.
func (s *Sessions) End(userID string, serviceType ServiceType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := sessionKey{userID, serviceType}
	if _, ok := s.active[key]; !ok {
		return false
	}
	delete(s.active, key)
	return true
}
