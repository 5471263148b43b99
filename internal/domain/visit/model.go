package visit

import (
	"time"
)

// Status is the coarse, user-facing visit status.
type Status string

const (
	StatusUpcoming   Status = "upcoming"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// LifecycleState is the fine-grained progress of a visit, tracked
// independently of Status.
type LifecycleState string

const (
	LifecycleInitiated     LifecycleState = "initiated"
	LifecycleConfirmed     LifecycleState = "confirmed"
	LifecycleMonitoring    LifecycleState = "monitoring"
	LifecycleArrived       LifecycleState = "arrived"
	LifecycleOccupied      LifecycleState = "occupied"
	LifecycleCompleted     LifecycleState = "completed"
	LifecycleRatingPending LifecycleState = "rating_pending"
	LifecycleRated         LifecycleState = "rated"
	LifecycleCleared       LifecycleState = "cleared"
	LifecycleCancelled     LifecycleState = "cancelled"
)

// lifecycleRank orders states along the forward path. Arrived and occupied
// share a rank: they are the same stage for the two service types.
var lifecycleRank = map[LifecycleState]int{
	LifecycleInitiated:     0,
	LifecycleConfirmed:     1,
	LifecycleMonitoring:    2,
	LifecycleArrived:       3,
	LifecycleOccupied:      3,
	LifecycleCompleted:     4,
	LifecycleRatingPending: 5,
	LifecycleRated:         6,
	LifecycleCleared:       7,
}

// IsTerminal reports whether no further lifecycle transitions are allowed.
func (s LifecycleState) IsTerminal() bool {
	return s == LifecycleCancelled || s == LifecycleCleared
}

// CanTransition reports whether moving from s to next is allowed. The
// lifecycle only moves forward; cancelled is reachable from any non-terminal
// state and is terminal.
func (s LifecycleState) CanTransition(next LifecycleState) bool {
	if s.IsTerminal() {
		return false
	}
	if next == LifecycleCancelled {
		return true
	}

	from, ok := lifecycleRank[s]
	if !ok {
		return false
	}
	to, ok := lifecycleRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Visit is the user-facing record of an emergency request's progress. Its ID
// is the request's RequestID; the two are created together and never
// independently.
type Visit struct {
	ID                 string         `json:"id"`
	UserID             string         `json:"user_id"`
	Status             Status         `json:"status"`
	LifecycleState     LifecycleState `json:"lifecycle_state"`
	LifecycleUpdatedAt time.Time      `json:"lifecycle_updated_at"`
	HospitalName       string         `json:"hospital_name"`
	DeskLabel          string         `json:"desk_label,omitempty"`
	Specialty          string         `json:"specialty,omitempty"`
	ScheduledAt        *time.Time     `json:"scheduled_at,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}
