package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/ivisit/api/internal/platform/notification"
	"github.com/ivisit/api/internal/platform/realtime"
)

// Store is the request status store: the backing repository fronted by a
// local mirror, with status changes fanned out to notifications and realtime
// subscribers.
type Store struct {
	repo     Repository
	mirror   *gocache.Cache
	notifier *notification.Dispatcher
	pub      realtime.Publisher
	logger   zerolog.Logger
}

func NewStore(repo Repository, mirror *gocache.Cache, notifier *notification.Dispatcher, pub realtime.Publisher, logger zerolog.Logger) *Store {
	return &Store{repo: repo, mirror: mirror, notifier: notifier, pub: pub, logger: logger}
}

func mirrorKey(userID string) string { return "active:" + userID }

// ListActive returns the user's non-terminal requests. The backing store is
// authoritative; on a query error the last mirrored snapshot is served
// instead. Successful reads overwrite the mirror.
func (s *Store) ListActive(ctx context.Context, userID string) ([]*EmergencyRequest, error) {
	requests, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		if cached, ok := s.mirror.Get(mirrorKey(userID)); ok {
			s.logger.Warn().Err(err).Str("user_id", userID).
				Msg("active request query failed, serving mirrored snapshot")
			return cached.([]*EmergencyRequest), nil
		}
		return nil, err
	}

	s.mirror.Set(mirrorKey(userID), requests, gocache.DefaultExpiration)
	return requests, nil
}

// Create persists a new request. Creation errors always propagate.
func (s *Store) Create(ctx context.Context, req *EmergencyRequest) error {
	if req.ID == "" {
		return fmt.Errorf("id is required")
	}
	if req.RequestID == "" {
		req.RequestID = req.ID
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return err
	}
	s.mirror.Delete(mirrorKey(req.UserID))
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*EmergencyRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies the patch, relying on the repository's secondary-key retry.
func (s *Store) Update(ctx context.Context, id string, u Update) (*EmergencyRequest, error) {
	if err := s.repo.Update(ctx, id, u); err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mirror.Delete(mirrorKey(req.UserID))
	return req, nil
}

// SetStatus writes the new status and then dispatches a best-effort
// notification and a realtime event. The write error propagates; side-effect
// failures never do.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) (*EmergencyRequest, error) {
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, err
	}

	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mirror.Delete(mirrorKey(req.UserID))

	if s.notifier != nil {
		s.notifier.Dispatch(ctx, notification.KindStatusChanged, req.UserID, map[string]string{
			"service": string(req.ServiceType),
			"status":  string(status),
		})
	}
	if s.pub != nil {
		event, eventErr := realtime.NewEvent("request.status", realtime.TopicRequest(req.RequestID), map[string]string{
			"request_id": req.RequestID,
			"status":     string(status),
		})
		if eventErr == nil {
			if pubErr := s.pub.Publish(ctx, event); pubErr != nil {
				s.logger.Warn().Err(pubErr).Str("request_id", req.RequestID).
					Msg("realtime publish failed")
			}
		}
	}
	return req, nil
}

// GetActive returns the newest non-terminal request of the given type, or
// nil when none exists.
func (s *Store) GetActive(ctx context.Context, userID string, serviceType ServiceType) (*EmergencyRequest, error) {
	req, err := s.repo.GetActive(ctx, userID, serviceType)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return req, err
}

// Topics returns the realtime topic names a client should subscribe to for
// one request.
func (s *Store) Topics(req *EmergencyRequest) map[string]string {
	return map[string]string{
		"request":            realtime.TopicRequest(req.RequestID),
		"responder_location": realtime.TopicResponderLocation(req.RequestID),
		"hospital_beds":      realtime.TopicHospitalBeds(req.HospitalID.String()),
	}
}
