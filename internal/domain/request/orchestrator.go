package request

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/ivisit/api/internal/domain/hospital"
	"github.com/ivisit/api/internal/domain/profile"
	"github.com/ivisit/api/internal/domain/visit"
)

// ErrInvalidInput marks failures caused by the caller's input rather than a
// downstream read or write.
var ErrInvalidInput = errors.New("invalid input")

// VisitStore is the slice of the visit service the request flow needs.
type VisitStore interface {
	Add(ctx context.Context, v *visit.Visit) (*visit.Visit, error)
	Get(ctx context.Context, id string) (*visit.Visit, error)
	Cancel(ctx context.Context, id string) (*visit.Visit, error)
	Complete(ctx context.Context, id string) (*visit.Visit, error)
	AdvanceLifecycle(ctx context.Context, id string, next visit.LifecycleState) (*visit.Visit, error)
}

// ProfileSource provides the read-only snapshot inputs for initiation.
type ProfileSource interface {
	MedicalProfileSnapshot(ctx context.Context, userID string) (*profile.MedicalProfile, error)
	EmergencyContactsSnapshot(ctx context.Context, userID string) ([]*profile.EmergencyContact, error)
	GetPreferences(ctx context.Context, userID string) (*profile.Preferences, error)
}

// HospitalDirectory resolves hospital references.
type HospitalDirectory interface {
	FindByID(ctx context.Context, id uuid.UUID) (*hospital.Hospital, error)
}

// Orchestrator drives the two-phase request flow: Initiate creates the
// pending Request+Visit pair, Complete promotes it to an active trip or
// booking once the hospital accepts.
type Orchestrator struct {
	store     *Store
	visits    VisitStore
	profiles  ProfileSource
	hospitals HospitalDirectory
	guard     *Guard
	sessions  *Sessions
	ui        UISignaler
	logger    zerolog.Logger
}

func NewOrchestrator(store *Store, visits VisitStore, profiles ProfileSource, hospitals HospitalDirectory,
	guard *Guard, sessions *Sessions, ui UISignaler, logger zerolog.Logger) *Orchestrator {
	if ui == nil {
		ui = NopSignaler{}
	}
	return &Orchestrator{
		store: store, visits: visits, profiles: profiles, hospitals: hospitals,
		guard: guard, sessions: sessions, ui: ui, logger: logger,
	}
}

// InitiateInput is what a tap on "Request Ambulance" / "Book Bed" carries.
type InitiateInput struct {
	ServiceType ServiceType
	HospitalID  uuid.UUID
	UserID      string
	Name        string
	Phone       string
}

// Initiate runs phase 1. It validates the input, resolves the hospital,
// takes the guard slot, then writes the EmergencyRequest and the companion
// Visit sequentially. A concurrent initiation of the same type is a silent
// no-op returning (nil, nil). On a write failure the guard slot is released
// and the error propagates; on success the slot stays pending until phase 2.
func (o *Orchestrator) Initiate(ctx context.Context, in InitiateInput) (*EmergencyRequest, error) {
	if !in.ServiceType.Valid() {
		return nil, fmt.Errorf("invalid service type %q: %w", in.ServiceType, ErrInvalidInput)
	}
	if in.HospitalID == uuid.Nil {
		return nil, fmt.Errorf("hospital_id is required: %w", ErrInvalidInput)
	}
	if in.UserID == "" {
		return nil, fmt.Errorf("user_id is required: %w", ErrInvalidInput)
	}

	hosp, err := o.hospitals.FindByID(ctx, in.HospitalID)
	if err != nil {
		o.logger.Warn().Err(err).Str("hospital_id", in.HospitalID.String()).
			Msg("initiation aborted, hospital unresolvable")
		return nil, fmt.Errorf("resolve hospital %s: %w", in.HospitalID, err)
	}

	if !o.guard.Begin(in.UserID, in.ServiceType) {
		o.logger.Warn().Str("user_id", in.UserID).Str("service_type", string(in.ServiceType)).
			Msg("initiation ignored, request already in flight")
		return nil, nil
	}

	shared, err := o.assembleShared(ctx, in.UserID)
	if err != nil {
		o.guard.Release(in.UserID, in.ServiceType)
		return nil, err
	}

	id := NewRequestID()
	req := &EmergencyRequest{
		ID:          id,
		RequestID:   id,
		UserID:      in.UserID,
		ServiceType: in.ServiceType,
		HospitalID:  in.HospitalID,
		Status:      StatusInProgress,
		Patient:     PatientSnapshot{UserID: in.UserID, Name: in.Name, Phone: in.Phone},
		Shared:      shared,
		CreatedAt:   time.Now().UTC(),
	}
	if err := o.store.Create(ctx, req); err != nil {
		o.guard.Release(in.UserID, in.ServiceType)
		return nil, fmt.Errorf("create request: %w", err)
	}

	if _, err := o.visits.Add(ctx, &visit.Visit{
		ID:             req.RequestID,
		UserID:         in.UserID,
		Status:         visit.StatusInProgress,
		LifecycleState: visit.LifecycleInitiated,
		HospitalName:   hosp.Name,
	}); err != nil {
		o.guard.Release(in.UserID, in.ServiceType)
		return nil, fmt.Errorf("create visit: %w", err)
	}

	return req, nil
}

// assembleShared builds the point-in-time disclosure snapshot. Each section
// is copied only when its privacy flag is true right now; the result is
// never re-evaluated after this moment.
func (o *Orchestrator) assembleShared(ctx context.Context, userID string) (SharedSnapshot, error) {
	prefs, err := o.profiles.GetPreferences(ctx, userID)
	if err != nil {
		return SharedSnapshot{}, fmt.Errorf("load preferences: %w", err)
	}

	var shared SharedSnapshot
	if prefs.PrivacyShareMedicalProfile {
		mp, err := o.profiles.MedicalProfileSnapshot(ctx, userID)
		if err != nil {
			return SharedSnapshot{}, fmt.Errorf("load medical profile: %w", err)
		}
		if mp != nil {
			copied := *mp
			shared.MedicalProfile = &copied
		}
	}
	if prefs.PrivacyShareEmergencyContacts {
		contacts, err := o.profiles.EmergencyContactsSnapshot(ctx, userID)
		if err != nil {
			return SharedSnapshot{}, fmt.Errorf("load emergency contacts: %w", err)
		}
		for _, c := range contacts {
			copied := *c
			shared.EmergencyContacts = append(shared.EmergencyContacts, &copied)
		}
	}
	return shared, nil
}

// Complete runs phase 2 after the hospital accepts. It promotes the request
// to accepted (falling back to a status-only write if the richer update
// fails), advances the visit lifecycle confirmed then monitoring as two
// sequential writes, starts the active session, activates the guard slot,
// and clears the selected-hospital UI state.
func (o *Orchestrator) Complete(ctx context.Context, userID, requestID string) error {
	req, err := o.store.Get(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request %s: %w", requestID, err)
	}
	if req.UserID != userID {
		return fmt.Errorf("request %s: %w", requestID, pgx.ErrNoRows)
	}
	if req.Status.IsTerminal() {
		return fmt.Errorf("request %s is already %s: %w", requestID, req.Status, ErrInvalidInput)
	}
	if _, err := o.hospitals.FindByID(ctx, req.HospitalID); err != nil {
		return fmt.Errorf("resolve hospital %s: %w", req.HospitalID, err)
	}

	accepted := StatusAccepted
	if _, err := o.store.Update(ctx, req.RequestID, Update{Status: &accepted}); err != nil {
		o.logger.Warn().Err(err).Str("request_id", req.RequestID).
			Msg("rich update failed, retrying status-only write")
		if _, err := o.store.SetStatus(ctx, req.RequestID, accepted); err != nil {
			return fmt.Errorf("accept request %s: %w", req.RequestID, err)
		}
	}

	if _, err := o.visits.AdvanceLifecycle(ctx, req.RequestID, visit.LifecycleConfirmed); err != nil {
		return fmt.Errorf("advance lifecycle to confirmed: %w", err)
	}
	if _, err := o.visits.AdvanceLifecycle(ctx, req.RequestID, visit.LifecycleMonitoring); err != nil {
		return fmt.Errorf("advance lifecycle to monitoring: %w", err)
	}

	o.sessions.Start(userID, &Session{
		RequestID:   req.RequestID,
		ServiceType: req.ServiceType,
		HospitalID:  req.HospitalID,
		StartedAt:   time.Now().UTC(),
	})
	o.guard.Activate(userID, req.ServiceType)
	o.ui.ClearSelection(ctx, userID)
	return nil
}
