package request

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ivisit/api/internal/domain/visit"
	"github.com/ivisit/api/internal/platform/notification"
	"github.com/ivisit/api/internal/platform/sheet"
)

// ActionKind names a composite action on the active trip or booking.
type ActionKind string

const (
	ActionCancelTrip      ActionKind = "cancel-trip"
	ActionCompleteTrip    ActionKind = "complete-trip"
	ActionCancelBooking   ActionKind = "cancel-booking"
	ActionCompleteBooking ActionKind = "complete-booking"
	ActionMarkArrived     ActionKind = "mark-arrived"
	ActionMarkOccupied    ActionKind = "mark-occupied"
)

// ParseActionKind validates a wire-level action name.
func ParseActionKind(s string) (ActionKind, error) {
	switch k := ActionKind(s); k {
	case ActionCancelTrip, ActionCompleteTrip, ActionCancelBooking,
		ActionCompleteBooking, ActionMarkArrived, ActionMarkOccupied:
		return k, nil
	default:
		return "", fmt.Errorf("unknown action: %s", s)
	}
}

func (k ActionKind) serviceType() ServiceType {
	switch k {
	case ActionCancelTrip, ActionCompleteTrip, ActionMarkArrived:
		return ServiceAmbulance
	default:
		return ServiceBed
	}
}

// action is the descriptor a kind expands into: the writes to run
// concurrently, an optional onSuccess side effect, and an optional cleanup
// that runs whether or not the writes succeeded.
type action struct {
	writes    []func(ctx context.Context) error
	onSuccess func(ctx context.Context)
	cleanup   func(ctx context.Context)
	notify    notification.Kind
}

// Handlers executes composite actions against the active trip/booking.
// Execution is uniform across kinds: run the writes concurrently, run
// onSuccess only if every write landed, always run cleanup, always snap the
// sheet back to its collapsed position. Write failures are logged and
// contained, never surfaced to the caller.
type Handlers struct {
	store    *Store
	visits   VisitStore
	sessions *Sessions
	guard    *Guard
	notifier *notification.Dispatcher
	ui       UISignaler
	logger   zerolog.Logger
}

func NewHandlers(store *Store, visits VisitStore, sessions *Sessions, guard *Guard,
	notifier *notification.Dispatcher, ui UISignaler, logger zerolog.Logger) *Handlers {
	if ui == nil {
		ui = NopSignaler{}
	}
	return &Handlers{
		store: store, visits: visits, sessions: sessions, guard: guard,
		notifier: notifier, ui: ui, logger: logger,
	}
}

// Execute runs the composite action for the user's active session of the
// matching service type. With no active session it is a safe no-op: no
// writes are attempted. The returned error is non-nil only for an unknown
// kind; contained write failures are logged instead.
func (h *Handlers) Execute(ctx context.Context, userID string, kind ActionKind) error {
	if _, err := ParseActionKind(string(kind)); err != nil {
		return err
	}

	serviceType := kind.serviceType()
	sess := h.sessions.Get(userID, serviceType)
	if sess == nil {
		h.logger.Debug().Str("user_id", userID).Str("action", string(kind)).
			Msg("no active session, action is a no-op")
		return nil
	}

	act := h.describe(userID, kind, sess.RequestID)

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, write := range act.writes {
		wg.Add(1)
		go func(write func(ctx context.Context) error) {
			defer wg.Done()
			if err := write(ctx); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(write)
	}
	wg.Wait()

	if len(errs) == 0 {
		if act.onSuccess != nil {
			act.onSuccess(ctx)
		}
		if h.notifier != nil && act.notify != "" {
			h.notifier.Dispatch(ctx, act.notify, userID, map[string]string{
				"service": string(serviceType),
			})
		}
		h.ui.Haptic(ctx, userID, "success")
	} else {
		for _, err := range errs {
			h.logger.Error().Err(err).Str("user_id", userID).Str("action", string(kind)).
				Msg("composite action write failed")
		}
		h.ui.Haptic(ctx, userID, "failure")
	}

	if act.cleanup != nil {
		act.cleanup(ctx)
	}
	h.ui.RequestSnap(ctx, userID, sheet.CollapsedIndex)
	return nil
}

func (h *Handlers) describe(userID string, kind ActionKind, requestID string) action {
	serviceType := kind.serviceType()

	endSession := func(context.Context) {
		h.sessions.End(userID, serviceType)
		h.guard.Release(userID, serviceType)
	}
	setStatus := func(status Status) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			_, err := h.store.SetStatus(ctx, requestID, status)
			return err
		}
	}
	cancelVisit := func(ctx context.Context) error {
		_, err := h.visits.Cancel(ctx, requestID)
		return err
	}
	completeVisit := func(ctx context.Context) error {
		if _, err := h.visits.Complete(ctx, requestID); err != nil {
			return err
		}
		if _, err := h.visits.AdvanceLifecycle(ctx, requestID, visit.LifecycleCompleted); err != nil {
			return err
		}
		_, err := h.visits.AdvanceLifecycle(ctx, requestID, visit.LifecycleRatingPending)
		return err
	}
	advanceVisit := func(state visit.LifecycleState) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			_, err := h.visits.AdvanceLifecycle(ctx, requestID, state)
			return err
		}
	}

	switch kind {
	case ActionCancelTrip, ActionCancelBooking:
		return action{
			writes:  []func(ctx context.Context) error{setStatus(StatusCancelled), cancelVisit},
			cleanup: endSession,
			notify:  notification.KindRequestCancelled,
		}
	case ActionCompleteTrip, ActionCompleteBooking:
		return action{
			writes:  []func(ctx context.Context) error{setStatus(StatusCompleted), completeVisit},
			cleanup: endSession,
			notify:  notification.KindRequestCompleted,
		}
	case ActionMarkArrived:
		return action{
			writes: []func(ctx context.Context) error{setStatus(StatusArrived), advanceVisit(visit.LifecycleArrived)},
			onSuccess: func(context.Context) {
				h.sessions.MarkArrived(userID)
			},
			notify: notification.KindResponderArrived,
		}
	default: // ActionMarkOccupied
		return action{
			writes: []func(ctx context.Context) error{setStatus(StatusArrived), advanceVisit(visit.LifecycleOccupied)},
			onSuccess: func(context.Context) {
				h.sessions.MarkOccupied(userID)
			},
			notify: notification.KindBedOccupied,
		}
	}
}
