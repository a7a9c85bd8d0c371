package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/clock"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// SLAService exposes the priority to hours table.
type SLAService struct {
	// mu spans persist and swap; the persisted table is always the active one.
	mu         sync.Mutex
	store      *sla.Store
	persister  sla.Persister
	clock      clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SLADependencies bundles collaborators for the SLA service.
type SLADependencies struct {
	Store      *sla.Store
	Persister  sla.Persister
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewSLAService constructs the service. Persister may be nil.
func NewSLAService(deps SLADependencies) *SLAService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLAService{
		store:      deps.Store,
		persister:  deps.Persister,
		clock:      c,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Policy returns the active table and its version.
func (s *SLAService) Policy() sla.Snapshot {
	snap := s.store.Snapshot()
	snap.Policy = snap.Policy.Clone()
	return snap
}

// Restore installs the persisted table, if any, over the configured one.
func (s *SLAService) Restore(ctx context.Context) (bool, error) {
	if s.persister == nil {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	policy, found, err := s.persister.Load(ctx)
	if err != nil || !found {
		return false, err
	}
	snap, err := s.store.Update(policy, s.clock.Now())
	if err != nil {
		return false, fmt.Errorf("persisted sla policy: %w", err)
	}
	s.logger.Info("sla policy restored", zap.Int64("version", snap.Version), zap.Any("hours", snap.Policy))
	return true, nil
}

// UpdatePolicy validates, persists and then swaps in the whole table.
// Existing deadlines are not recomputed.
func (s *SLAService) UpdatePolicy(ctx context.Context, actor domain.Actor, policy sla.Policy) (sla.Snapshot, error) {
	if err := policy.Validate(); err != nil {
		return sla.Snapshot{}, err
	}
	snap, err := s.swap(ctx, policy)
	if err != nil {
		return sla.Snapshot{}, err
	}

	s.logger.Info("sla policy updated",
		zap.String("actor", actor.Name),
		zap.Int64("version", snap.Version),
		zap.Any("hours", snap.Policy))
	if s.dispatcher != nil {
		event := events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventSLAPolicyUpdated,
			Actor:     events.Actor{Name: actor.Name, Role: actor.Role},
			Timestamp: snap.UpdatedAt,
			Payload:   events.SLAPolicyUpdatedPayload{Version: snap.Version, Hours: snap.Policy.Clone()},
		}
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}
	snap.Policy = snap.Policy.Clone()
	return snap, nil
}

// swap persists policy and installs it under one lock.
func (s *SLAService) swap(ctx context.Context, policy sla.Policy) (sla.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister != nil {
		if err := s.persister.Save(ctx, policy); err != nil {
			s.logger.Warn("sla policy not persisted", zap.Error(err))
			return sla.Snapshot{}, fmt.Errorf("persist sla policy: %w", err)
		}
	}
	return s.store.Update(policy, s.clock.Now())
}
