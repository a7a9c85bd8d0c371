package domain

import (
	"fmt"
	"strings"
	"time"
)

// TicketPriority determines the SLA window through the policy table.
type TicketPriority string

const (
	TicketPriorityLow       TicketPriority = "LOW"
	TicketPriorityMedium    TicketPriority = "MEDIUM"
	TicketPriorityHigh      TicketPriority = "HIGH"
	TicketPriorityEmergency TicketPriority = "EMERGENCY"
)

// Priorities lists every priority in ascending urgency.
var Priorities = []TicketPriority{
	TicketPriorityLow,
	TicketPriorityMedium,
	TicketPriorityHigh,
	TicketPriorityEmergency,
}

// Valid reports whether p is a known priority.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityEmergency:
		return true
	}
	return false
}

// ParsePriority normalizes a priority key, failing with ErrInvalidPriority.
func ParsePriority(raw string) (TicketPriority, error) {
	p := TicketPriority(strings.ToUpper(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen             TicketStatus = "OPEN"
	TicketStatusQueued           TicketStatus = "QUEUED"
	TicketStatusInProgress       TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingMaterial TicketStatus = "AWAITING_MATERIAL"
	TicketStatusBlocked          TicketStatus = "BLOCKED"
	TicketStatusFinalized        TicketStatus = "FINALIZED"
)

// Terminal reports whether no transition leaves s.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusFinalized
}

// JustificationStatus tracks the delay-justification sub-workflow.
type JustificationStatus string

const (
	JustificationNone     JustificationStatus = "NONE"
	JustificationPending  JustificationStatus = "PENDING"
	JustificationApproved JustificationStatus = "APPROVED"
	JustificationRejected JustificationStatus = "REJECTED"
)

// criticalFactor is the share of the allotted window after which an
// unfinished ticket counts as a critical overrun.
const criticalFactor = 1.5

// LatestDeadline is the last instant an SLA limit may fall on. Later
// times have no RFC 3339 form.
var LatestDeadline = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Ticket is the aggregate root for a maintenance request.
type Ticket struct {
	ID          string
	Code        string
	Title       string
	Category    string
	Location    string
	Description string
	PhotoOpen   string
	PhotoClose  string
	Requester   string
	AssignedTo  *string
	Supervisor  *string

	CreatedAt  time.Time
	StartedAt  *time.Time
	FinishedAt *time.Time

	Priority         TicketPriority
	SLALimit         time.Time
	OriginalSLALimit *time.Time
	IsExtended       bool
	ProposedNewLimit *time.Time

	DelayJustification  string
	JustificationStatus JustificationStatus
	RejectionReason     string

	Status        TicketStatus
	TechnicalNote string
	Materials     []string
	History       []HistoryEntry

	// Version increments once per successful mutation.
	Version int64
}

// IsOverdue reports whether an unfinished ticket is past its deadline.
func (t *Ticket) IsOverdue(now time.Time) bool {
	if t.Status == TicketStatusFinalized {
		return false
	}
	return now.After(t.SLALimit)
}

// IsCritical reports whether elapsed time exceeds 150% of the window
// between creation and the current deadline.
func (t *Ticket) IsCritical(now time.Time) bool {
	if t.Status == TicketStatusFinalized {
		return false
	}
	elapsed := now.Sub(t.CreatedAt)
	window := t.SLALimit.Sub(t.CreatedAt)
	return float64(elapsed) > criticalFactor*float64(window)
}

// Append records a history entry at the end of the log.
func (t *Ticket) Append(entry HistoryEntry) {
	t.History = append(t.History, entry)
}

// Clone returns a deep copy that shares no mutable state with t.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.AssignedTo = cloneString(t.AssignedTo)
	c.Supervisor = cloneString(t.Supervisor)
	c.StartedAt = cloneTime(t.StartedAt)
	c.FinishedAt = cloneTime(t.FinishedAt)
	c.OriginalSLALimit = cloneTime(t.OriginalSLALimit)
	c.ProposedNewLimit = cloneTime(t.ProposedNewLimit)
	if t.Materials != nil {
		c.Materials = make([]string, len(t.Materials))
		copy(c.Materials, t.Materials)
	}
	if t.History != nil {
		c.History = make([]HistoryEntry, len(t.History))
		copy(c.History, t.History)
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
