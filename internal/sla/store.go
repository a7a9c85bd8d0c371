package sla

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot is an immutable, versioned view of the policy table.
type Snapshot struct {
	Version   int64
	Policy    Policy
	UpdatedAt time.Time
}

// Persister keeps the policy table across restarts.
type Persister interface {
	Load(ctx context.Context) (Policy, bool, error)
	Save(ctx context.Context, policy Policy) error
}

// Store holds the current policy. Readers never observe a partially
// updated table: updates replace the whole snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
	writeMu sync.Mutex
}

// NewStore validates the initial policy and installs it as version 1.
func NewStore(initial Policy, now time.Time) (*Store, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	s := &Store{}
	s.current.Store(&Snapshot{Version: 1, Policy: initial.Clone(), UpdatedAt: now})
	return s, nil
}

// Snapshot returns the current table. Callers must not mutate Policy.
func (s *Store) Snapshot() Snapshot {
	return *s.current.Load()
}

// Policy returns a copy of the current table.
func (s *Store) Policy() Policy {
	return s.current.Load().Policy.Clone()
}

// Update swaps in a new table after validation and returns the new snapshot.
func (s *Store) Update(policy Policy, now time.Time) (Snapshot, error) {
	if err := policy.Validate(); err != nil {
		return Snapshot{}, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.current.Load()
	next := &Snapshot{Version: prev.Version + 1, Policy: policy.Clone(), UpdatedAt: now}
	s.current.Store(next)
	return *next, nil
}
