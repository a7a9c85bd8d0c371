// Package sla maps ticket priorities to resolution windows and holds the
// process-wide policy table.
package sla

import (
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

const (
	// FallbackHours applies to a valid priority missing from the table.
	FallbackHours = 24
	// MaxHours caps a single window at ten years.
	MaxHours = 24 * 365 * 10
)

// Policy maps each priority to its allowed resolution window in hours.
type Policy map[domain.TicketPriority]int

// DefaultPolicy returns the built-in table.
func DefaultPolicy() Policy {
	return Policy{
		domain.TicketPriorityLow:       72,
		domain.TicketPriorityMedium:    24,
		domain.TicketPriorityHigh:      4,
		domain.TicketPriorityEmergency: 2,
	}
}

// HoursFor returns the window for p.
func (p Policy) HoursFor(priority domain.TicketPriority) (int, error) {
	if !priority.Valid() {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidPriority, priority)
	}
	hours, ok := p[priority]
	if !ok || hours <= 0 {
		return FallbackHours, nil
	}
	return hours, nil
}

// Validate checks that every key is a known priority with hours in
// (0, MaxHours].
func (p Policy) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: empty sla policy", domain.ErrInvalidInput)
	}
	for priority, hours := range p {
		if !priority.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrInvalidPriority, priority)
		}
		if hours <= 0 {
			return fmt.Errorf("%w: hours for %s must be positive, got %d", domain.ErrInvalidInput, priority, hours)
		}
		if hours > MaxHours {
			return fmt.Errorf("%w: hours for %s exceed %d, got %d", domain.ErrInvalidInput, priority, MaxHours, hours)
		}
	}
	return nil
}

// Clone returns an independent copy of the table.
func (p Policy) Clone() Policy {
	c := make(Policy, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Priorities returns the configured priorities in a stable order.
func (p Policy) Priorities() []domain.TicketPriority {
	keys := make([]domain.TicketPriority, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ComputeDeadline returns start + HoursFor(priority).
func ComputeDeadline(priority domain.TicketPriority, start time.Time, policy Policy) (time.Time, error) {
	hours, err := policy.HoursFor(priority)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(hours) * time.Hour), nil
}

// ParsePolicy converts raw priority keys into a validated Policy.
func ParsePolicy(raw map[string]int) (Policy, error) {
	policy := make(Policy, len(raw))
	for key, hours := range raw {
		priority, err := domain.ParsePriority(key)
		if err != nil {
			return nil, err
		}
		policy[priority] = hours
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return policy, nil
}
