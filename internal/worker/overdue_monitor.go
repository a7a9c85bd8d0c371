package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/clock"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
)

// OverdueSource lists unfinished tickets past their deadline.
type OverdueSource interface {
	Overdue(ctx context.Context) ([]*domain.Ticket, error)
}

// SystemActor labels events raised by background workers.
var SystemActor = events.Actor{Name: "system"}

// OverdueMonitor publishes one ticket_overdue event per ticket and
// deadline. Extending or approving a new deadline re-arms the ticket.
type OverdueMonitor struct {
	source     OverdueSource
	dispatcher events.Dispatcher
	clock      clock.Clock
	logger     *zap.Logger
	notified   map[string]time.Time
}

// NewOverdueMonitor builds a monitor.
func NewOverdueMonitor(source OverdueSource, dispatcher events.Dispatcher, c clock.Clock, logger *zap.Logger) *OverdueMonitor {
	if c == nil {
		c = clock.Real()
	}
	return &OverdueMonitor{
		source:     source,
		dispatcher: dispatcher,
		clock:      c,
		logger:     logger,
		notified:   make(map[string]time.Time),
	}
}

// Run sweeps every interval until ctx is done. Sweeps run on the caller's
// goroutine, one at a time.
func (m *OverdueMonitor) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil {
				m.logger.Warn("overdue sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep publishes events for newly overdue tickets and returns how many
// were published.
func (m *OverdueMonitor) Sweep(ctx context.Context) (int, error) {
	tickets, err := m.source.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	now := m.clock.Now()
	current := make(map[string]time.Time, len(tickets))
	published := 0
	for _, ticket := range tickets {
		current[ticket.ID] = ticket.SLALimit
		if last, seen := m.notified[ticket.ID]; seen && last.Equal(ticket.SLALimit) {
			continue
		}
		event := events.Event{
			ID:         uuid.NewString(),
			Type:       events.EventTicketOverdue,
			TicketID:   ticket.ID,
			TicketCode: ticket.Code,
			Actor:      SystemActor,
			Timestamp:  now,
			Payload: events.TicketOverduePayload{
				SLALimit: ticket.SLALimit,
				Critical: ticket.IsCritical(now),
			},
		}
		if err := m.dispatcher.Publish(ctx, event); err != nil {
			m.logger.Warn("overdue event handler failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
		}
		published++
	}
	// Tickets that left the overdue set are forgotten.
	m.notified = current
	return published, nil
}
