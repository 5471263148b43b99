package visit

import (
	"context"
	"fmt"
	"time"
)

// Service implements the visit store consumed by the request flow.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add persists a new visit. The caller supplies the ID, which is always the
// companion request's RequestID.
func (s *Service) Add(ctx context.Context, v *Visit) (*Visit, error) {
	if v.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if v.UserID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	if v.Status == "" {
		v.Status = StatusInProgress
	}
	if v.LifecycleState == "" {
		v.LifecycleState = LifecycleInitiated
	}
	if v.LifecycleUpdatedAt.IsZero() {
		v.LifecycleUpdatedAt = time.Now().UTC()
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Visit, int, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// Update applies display-field changes and returns the persisted visit.
func (s *Service) Update(ctx context.Context, id string, p Patch) (*Visit, error) {
	if err := s.repo.ApplyPatch(ctx, id, p); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Cancel marks the visit cancelled in both status and lifecycle.
func (s *Service) Cancel(ctx context.Context, id string) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.LifecycleState.CanTransition(LifecycleCancelled) {
		return nil, fmt.Errorf("visit %s cannot be cancelled from state %s", id, v.LifecycleState)
	}

	if err := s.repo.SetStatus(ctx, id, StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.repo.SetLifecycle(ctx, id, LifecycleCancelled, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Complete marks the visit's coarse status completed. The fine-grained
// lifecycle advances separately through AdvanceLifecycle.
func (s *Service) Complete(ctx context.Context, id string) (*Visit, error) {
	if err := s.repo.SetStatus(ctx, id, StatusCompleted); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// AdvanceLifecycle moves the visit to the next lifecycle state, enforcing
// forward-only ordering, and stamps LifecycleUpdatedAt.
func (s *Service) AdvanceLifecycle(ctx context.Context, id string, next LifecycleState) (*Visit, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.LifecycleState.CanTransition(next) {
		return nil, fmt.Errorf("lifecycle transition %s -> %s not allowed", v.LifecycleState, next)
	}

	at := time.Now().UTC()
	if err := s.repo.SetLifecycle(ctx, id, next, at); err != nil {
		return nil, err
	}
	v.LifecycleState = next
	v.LifecycleUpdatedAt = at
	return v, nil
}
