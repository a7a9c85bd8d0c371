package events

import (
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated          EventType = "ticket_created"
	EventTicketStatusChanged    EventType = "ticket_status_changed"
	EventTicketReprioritized    EventType = "ticket_reprioritized"
	EventTicketSLAExtended      EventType = "ticket_sla_extended"
	EventJustificationSubmitted EventType = "justification_submitted"
	EventJustificationApproved  EventType = "justification_approved"
	EventJustificationRejected  EventType = "justification_rejected"
	EventTicketOverdue          EventType = "ticket_overdue"
	EventSLAPolicyUpdated       EventType = "sla_policy_updated"
)

// AllTypes lists every event type.
var AllTypes = []EventType{
	EventTicketCreated,
	EventTicketStatusChanged,
	EventTicketReprioritized,
	EventTicketSLAExtended,
	EventJustificationSubmitted,
	EventJustificationApproved,
	EventJustificationRejected,
	EventTicketOverdue,
	EventSLAPolicyUpdated,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Name string      `json:"name"`
	Role domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketID   string      `json:"ticket_id,omitempty"`
	TicketCode string      `json:"ticket_code,omitempty"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title     string                `json:"title"`
	Requester string                `json:"requester"`
	Priority  domain.TicketPriority `json:"priority"`
	SLALimit  time.Time             `json:"sla_limit"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus  domain.TicketStatus `json:"old_status"`
	NewStatus  domain.TicketStatus `json:"new_status"`
	AssignedTo *string             `json:"assigned_to,omitempty"`
	Comment    string              `json:"comment,omitempty"`
}

// TicketReprioritizedPayload payload.
type TicketReprioritizedPayload struct {
	OldPriority domain.TicketPriority `json:"old_priority"`
	NewPriority domain.TicketPriority `json:"new_priority"`
	SLALimit    time.Time             `json:"sla_limit"`
}

// TicketSLAExtendedPayload payload.
type TicketSLAExtendedPayload struct {
	Days     int       `json:"days,omitempty"`
	OldLimit time.Time `json:"old_limit"`
	NewLimit time.Time `json:"new_limit"`
	Reason   string    `json:"reason"`
}

// JustificationPayload covers submit, approve and reject.
type JustificationPayload struct {
	Status           domain.JustificationStatus `json:"status"`
	Reason           string                     `json:"reason,omitempty"`
	ProposedNewLimit *time.Time                 `json:"proposed_new_limit,omitempty"`
	SLALimit         time.Time                  `json:"sla_limit"`
}

// TicketOverduePayload payload.
type TicketOverduePayload struct {
	SLALimit time.Time `json:"sla_limit"`
	Critical bool      `json:"critical"`
}

// SLAPolicyUpdatedPayload payload.
type SLAPolicyUpdatedPayload struct {
	Version int64                         `json:"version"`
	Hours   map[domain.TicketPriority]int `json:"hours"`
}
