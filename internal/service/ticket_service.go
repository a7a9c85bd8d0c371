package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/clock"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/sla"
	"github.com/spec-kit/sla-ticket-service/internal/workflow"
)

// TicketService coordinates ticket workflows. Every mutation runs inside
// the repository's per-ticket critical section against a private copy.
type TicketService struct {
	tickets    repository.TicketRepository
	policy     *sla.Store
	clock      clock.Clock
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	newID      func() string
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	SLAStore   *sla.Store
	Clock      clock.Clock
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssignedTo  *string
	Overdue     *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		policy:     deps.SLAStore,
		clock:      c,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		newID:      uuid.NewString,
	}
}

// Now exposes the service clock so callers derive overdue flags from the
// same time source the workflow uses.
func (s *TicketService) Now() time.Time {
	return s.clock.Now()
}

// Create opens a ticket. The requester defaults to the calling actor.
func (s *TicketService) Create(ctx context.Context, actor domain.Actor, input workflow.CreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Requester) == "" {
		input.Requester = actor.Name
	}
	now := s.clock.Now()

	// The repository assigns the code on commit.
	ticket, err := workflow.NewTicket(s.newID(), "", input, now, s.policy.Snapshot().Policy)
	if err == nil {
		ticket, err = s.tickets.Insert(ctx, ticket)
	}
	s.metrics.RecordMutation("create", err)
	if err != nil {
		s.logger.Warn("ticket creation rejected", zap.String("op", "create"), zap.Error(err))
		return nil, err
	}

	s.logger.Info("ticket created",
		zap.String("op", "create"),
		zap.String("ticket_id", ticket.ID),
		zap.String("code", ticket.Code),
		zap.String("priority", string(ticket.Priority)),
		zap.Time("sla_limit", ticket.SLALimit))
	s.publishEvent(ctx, ticket, actor, events.EventTicketCreated, events.TicketCreatedPayload{
		Title:     ticket.Title,
		Requester: ticket.Requester,
		Priority:  ticket.Priority,
		SLALimit:  ticket.SLALimit,
	})
	return ticket, nil
}

// ApplyTransition drives the lifecycle state machine.
func (s *TicketService) ApplyTransition(ctx context.Context, actor domain.Actor, id string, tr workflow.Transition) (*domain.Ticket, error) {
	tr.Actor = actor.Name
	var (
		oldStatus   domain.TicketStatus
		oldPriority domain.TicketPriority
	)
	updated, err := s.update(ctx, "transition:"+strings.ToLower(string(tr.Event)), id, func(t *domain.Ticket) error {
		oldStatus, oldPriority = t.Status, t.Priority
		return workflow.Apply(t, tr, s.clock.Now(), s.policy.Snapshot().Policy)
	})
	if err != nil {
		return nil, err
	}

	last := updated.History[len(updated.History)-1]
	s.publishEvent(ctx, updated, actor, events.EventTicketStatusChanged, events.TicketStatusChangedPayload{
		OldStatus:  oldStatus,
		NewStatus:  updated.Status,
		AssignedTo: updated.AssignedTo,
		Comment:    last.Comment,
	})
	if updated.Priority != oldPriority {
		s.publishEvent(ctx, updated, actor, events.EventTicketReprioritized, events.TicketReprioritizedPayload{
			OldPriority: oldPriority,
			NewPriority: updated.Priority,
			SLALimit:    updated.SLALimit,
		})
	}
	return updated, nil
}

// Reprioritize changes the priority of an untriaged or queued ticket and
// recomputes the deadline from creation time.
func (s *TicketService) Reprioritize(ctx context.Context, actor domain.Actor, id string, priority domain.TicketPriority) (*domain.Ticket, error) {
	var oldPriority domain.TicketPriority
	updated, err := s.update(ctx, "reprioritize", id, func(t *domain.Ticket) error {
		oldPriority = t.Priority
		return workflow.Reprioritize(t, priority, actor.Name, s.clock.Now(), s.policy.Snapshot().Policy)
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, updated, actor, events.EventTicketReprioritized, events.TicketReprioritizedPayload{
		OldPriority: oldPriority,
		NewPriority: updated.Priority,
		SLALimit:    updated.SLALimit,
	})
	return updated, nil
}

// Extend pushes the deadline by whole calendar days.
func (s *TicketService) Extend(ctx context.Context, actor domain.Actor, id string, days int, reason string) (*domain.Ticket, error) {
	var oldLimit time.Time
	updated, err := s.update(ctx, "extend", id, func(t *domain.Ticket) error {
		oldLimit = t.SLALimit
		return workflow.Extend(t, days, reason, actor.Name, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, updated, actor, events.EventTicketSLAExtended, events.TicketSLAExtendedPayload{
		Days:     days,
		OldLimit: oldLimit,
		NewLimit: updated.SLALimit,
		Reason:   strings.TrimSpace(reason),
	})
	return updated, nil
}

// SubmitJustification proposes a new deadline for an overdue ticket.
func (s *TicketService) SubmitJustification(ctx context.Context, actor domain.Actor, id, reason string, proposed time.Time) (*domain.Ticket, error) {
	updated, err := s.update(ctx, "justification_submit", id, func(t *domain.Ticket) error {
		return workflow.SubmitJustification(t, reason, proposed, actor.Name, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publishJustification(ctx, updated, actor, events.EventJustificationSubmitted, updated.DelayJustification)
	return updated, nil
}

// ApproveJustification adopts the pending proposal as the deadline.
func (s *TicketService) ApproveJustification(ctx context.Context, actor domain.Actor, id string) (*domain.Ticket, error) {
	updated, err := s.update(ctx, "justification_approve", id, func(t *domain.Ticket) error {
		return workflow.ApproveJustification(t, actor.Name, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publishJustification(ctx, updated, actor, events.EventJustificationApproved, "")
	return updated, nil
}

// RejectJustification refuses the pending proposal; the deadline stays.
func (s *TicketService) RejectJustification(ctx context.Context, actor domain.Actor, id, reason string) (*domain.Ticket, error) {
	updated, err := s.update(ctx, "justification_reject", id, func(t *domain.Ticket) error {
		return workflow.RejectJustification(t, reason, actor.Name, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.publishJustification(ctx, updated, actor, events.EventJustificationRejected, updated.RejectionReason)
	return updated, nil
}

// Get returns a snapshot of one ticket by id or code.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	return s.tickets.Get(ctx, id)
}

// List returns tickets visible to actor, newest first. Roles that do not
// see every ticket only get the ones they requested or are assigned.
// Pagination applies after visibility and overdue filtering.
func (s *TicketService) List(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]*domain.Ticket, error) {
	all, err := s.tickets.List(ctx, repository.TicketFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		AssignedTo:  filter.AssignedTo,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
	})
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	visible := make([]*domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if !actor.CanView(ticket) {
			continue
		}
		if filter.Overdue != nil && ticket.IsOverdue(now) != *filter.Overdue {
			continue
		}
		visible = append(visible, ticket)
	}
	return page(visible, filter.Limit, filter.Offset), nil
}

// Overdue lists every unfinished ticket past its deadline.
func (s *TicketService) Overdue(ctx context.Context) ([]*domain.Ticket, error) {
	all, err := s.tickets.List(ctx, repository.TicketFilter{})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	result := make([]*domain.Ticket, 0)
	for _, ticket := range all {
		if ticket.IsOverdue(now) {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (s *TicketService) update(ctx context.Context, op, id string, mutate repository.MutateFunc) (*domain.Ticket, error) {
	updated, err := s.tickets.Update(ctx, id, mutate)
	s.metrics.RecordMutation(op, err)
	if err != nil {
		s.logger.Warn("ticket mutation rejected",
			zap.String("op", op),
			zap.String("ticket_id", id),
			zap.Error(err))
		return nil, err
	}
	s.logger.Info("ticket updated",
		zap.String("op", op),
		zap.String("ticket_id", updated.ID),
		zap.String("code", updated.Code),
		zap.String("status", string(updated.Status)),
		zap.Int64("version", updated.Version))
	return updated, nil
}

func (s *TicketService) publishJustification(ctx context.Context, t *domain.Ticket, actor domain.Actor, eventType events.EventType, reason string) {
	s.publishEvent(ctx, t, actor, eventType, events.JustificationPayload{
		Status:           t.JustificationStatus,
		Reason:           reason,
		ProposedNewLimit: t.ProposedNewLimit,
		SLALimit:         t.SLALimit,
	})
}

func (s *TicketService) publishEvent(ctx context.Context, t *domain.Ticket, actor domain.Actor, eventType events.EventType, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TicketID:   t.ID,
		TicketCode: t.Code,
		Actor:      events.Actor{Name: actor.Name, Role: actor.Role},
		Timestamp:  s.clock.Now(),
		Payload:    payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", t.ID),
			zap.Error(err))
	}
}

func page(tickets []*domain.Ticket, limit, offset int) []*domain.Ticket {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(tickets) {
		return []*domain.Ticket{}
	}
	tickets = tickets[offset:]
	if limit > 0 && limit < len(tickets) {
		tickets = tickets[:limit]
	}
	return tickets
}
