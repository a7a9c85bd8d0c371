// Package workflow holds the ticket state machine and the SLA and
// delay-justification rules. Every function mutates the ticket it is
// given; callers pass a private copy and discard it on error.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
)

// Event names a lifecycle intent.
type Event string

const (
	EventTriageAssign  Event = "TRIAGE_ASSIGN"
	EventTriageReject  Event = "TRIAGE_REJECT"
	EventStart         Event = "START"
	EventAwaitMaterial Event = "AWAIT_MATERIAL"
	EventBlock         Event = "BLOCK"
	EventResume        Event = "RESUME"
	EventFinalize      Event = "FINALIZE"
)

// ParseEvent normalizes an event name.
func ParseEvent(raw string) (Event, error) {
	e := Event(strings.ToUpper(strings.TrimSpace(raw)))
	switch e {
	case EventTriageAssign, EventTriageReject, EventStart, EventAwaitMaterial, EventBlock, EventResume, EventFinalize:
		return e, nil
	}
	return "", fmt.Errorf("%w: unknown event %q", domain.ErrInvalidInput, raw)
}

var allowedTransitions = map[domain.TicketStatus]map[Event]domain.TicketStatus{
	domain.TicketStatusOpen: {
		EventTriageAssign: domain.TicketStatusQueued,
		EventTriageReject: domain.TicketStatusBlocked,
	},
	domain.TicketStatusQueued: {
		EventStart: domain.TicketStatusInProgress,
	},
	domain.TicketStatusInProgress: {
		EventAwaitMaterial: domain.TicketStatusAwaitingMaterial,
		EventBlock:         domain.TicketStatusBlocked,
		EventFinalize:      domain.TicketStatusFinalized,
	},
	domain.TicketStatusAwaitingMaterial: {
		EventResume: domain.TicketStatusInProgress,
	},
	domain.TicketStatusBlocked: {
		EventResume: domain.TicketStatusInProgress,
	},
	domain.TicketStatusFinalized: {},
}

// NextStatus returns the target of event from current, failing with
// ErrInvalidTransition when the pair is not in the table.
func NextStatus(current domain.TicketStatus, event Event) (domain.TicketStatus, error) {
	next, ok := allowedTransitions[current][event]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", domain.ErrInvalidTransition, event, current)
	}
	return next, nil
}

// CreateInput is the intake request for a new ticket.
type CreateInput struct {
	Title       string
	Category    string
	Location    string
	Description string
	Priority    domain.TicketPriority
	Photo       string
	Requester   string
}

// NewTicket builds an OPEN ticket with its first history entry.
func NewTicket(id, code string, in CreateInput, now time.Time, policy sla.Policy) (*domain.Ticket, error) {
	if strings.TrimSpace(in.Photo) == "" {
		return nil, fmt.Errorf("%w: an opening photo is required", domain.ErrMissingEvidence)
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Requester) == "" {
		return nil, fmt.Errorf("%w: title and requester are required", domain.ErrInvalidInput)
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	limit, err := sla.ComputeDeadline(priority, now, policy)
	if err != nil {
		return nil, err
	}

	requester := strings.TrimSpace(in.Requester)
	ticket := &domain.Ticket{
		ID:                  id,
		Code:                code,
		Title:               strings.TrimSpace(in.Title),
		Category:            strings.TrimSpace(in.Category),
		Location:            strings.TrimSpace(in.Location),
		Description:         strings.TrimSpace(in.Description),
		PhotoOpen:           in.Photo,
		Requester:           requester,
		CreatedAt:           now,
		Priority:            priority,
		SLALimit:            limit,
		JustificationStatus: domain.JustificationNone,
		Status:              domain.TicketStatusOpen,
		Materials:           []string{},
	}
	ticket.Append(domain.NewHistoryEntry(now, requester, "", domain.OpenedDetails{
		Priority: priority,
		SLALimit: limit,
	}))
	return ticket, nil
}

// Transition is a lifecycle intent with the fields its event needs.
type Transition struct {
	Event      Event
	Actor      string
	Assignee   string
	Supervisor string
	Priority   domain.TicketPriority
	Reason     string
	Photo      string
	Note       string
	Materials  []string
}

// Apply validates tr against the ticket's status and applies its side
// effects. On error the ticket is left as it was.
func Apply(t *domain.Ticket, tr Transition, now time.Time, policy sla.Policy) error {
	next, err := NextStatus(t.Status, tr.Event)
	if err != nil {
		return err
	}

	switch tr.Event {
	case EventTriageAssign:
		return triageAssign(t, tr, now, policy)
	case EventTriageReject:
		reason := strings.TrimSpace(tr.Reason)
		if reason == "" {
			return fmt.Errorf("%w: triage rejection needs a reason", domain.ErrMissingReason)
		}
		changeStatus(t, next, tr.Actor, reason, now)
	case EventStart:
		changeStatus(t, next, tr.Actor, tr.Note, now)
		if t.StartedAt == nil {
			started := now
			t.StartedAt = &started
		}
	case EventResume:
		if t.StartedAt == nil {
			return fmt.Errorf("%w: work on this ticket never started", domain.ErrInvalidTransition)
		}
		changeStatus(t, next, tr.Actor, tr.Note, now)
	case EventAwaitMaterial, EventBlock:
		changeStatus(t, next, tr.Actor, tr.Reason, now)
	case EventFinalize:
		return finalize(t, tr, now)
	}
	return nil
}

func triageAssign(t *domain.Ticket, tr Transition, now time.Time, policy sla.Policy) error {
	assignee := strings.TrimSpace(tr.Assignee)
	if assignee == "" {
		return fmt.Errorf("%w: triage needs an assignee", domain.ErrInvalidInput)
	}
	newPriority := t.Priority
	if tr.Priority != "" {
		newPriority = tr.Priority
	}
	limit := t.SLALimit
	if newPriority != t.Priority {
		recomputed, err := sla.ComputeDeadline(newPriority, t.CreatedAt, policy)
		if err != nil {
			return err
		}
		limit = recomputed
	}

	details := domain.TriagedDetails{
		Assignee:    assignee,
		OldPriority: t.Priority,
		NewPriority: newPriority,
		SLALimit:    limit,
	}
	t.AssignedTo = &assignee
	if sup := strings.TrimSpace(tr.Supervisor); sup != "" {
		t.Supervisor = &sup
	} else if actor := strings.TrimSpace(tr.Actor); actor != "" {
		t.Supervisor = &actor
	}
	t.Priority = newPriority
	t.SLALimit = limit
	t.Status = domain.TicketStatusQueued
	t.Append(domain.NewHistoryEntry(now, tr.Actor, tr.Note, details))
	return nil
}

func finalize(t *domain.Ticket, tr Transition, now time.Time) error {
	if strings.TrimSpace(tr.Photo) == "" {
		return fmt.Errorf("%w: a completion photo is required", domain.ErrMissingEvidence)
	}
	if t.JustificationStatus == domain.JustificationPending {
		return fmt.Errorf("%w: a delay justification is awaiting review", domain.ErrInvalidTransition)
	}
	materials := cleanMaterials(tr.Materials)

	finished := now
	t.FinishedAt = &finished
	t.PhotoClose = tr.Photo
	t.TechnicalNote = strings.TrimSpace(tr.Note)
	t.Materials = append(t.Materials, materials...)
	t.Status = domain.TicketStatusFinalized
	t.Append(domain.NewHistoryEntry(now, tr.Actor, t.TechnicalNote, domain.FinalizedDetails{
		PhotoClose: tr.Photo,
		Materials:  materials,
	}))
	return nil
}

func changeStatus(t *domain.Ticket, next domain.TicketStatus, actor, comment string, now time.Time) {
	details := domain.StatusChangeDetails{From: t.Status, To: next}
	t.Status = next
	t.Append(domain.NewHistoryEntry(now, actor, strings.TrimSpace(comment), details))
}

func cleanMaterials(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func ensureOpenForChanges(t *domain.Ticket, op string) error {
	if t.Status.Terminal() {
		return fmt.Errorf("%w: cannot %s a finalized ticket", domain.ErrInvalidTransition, op)
	}
	return nil
}
