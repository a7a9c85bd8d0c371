package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/clock"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
)

type staticSource struct {
	mu      sync.Mutex
	tickets []*domain.Ticket
}

func (s *staticSource) Overdue(context.Context) ([]*domain.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tickets, nil
}

func (s *staticSource) set(tickets ...*domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = tickets
}

func TestSweepPublishesOncePerDeadline(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:        "t1",
		Code:      "CH-101",
		CreatedAt: now.Add(-10 * time.Hour),
		SLALimit:  now.Add(-2 * time.Hour),
		Status:    domain.TicketStatusInProgress,
	}
	source := &staticSource{}
	source.set(ticket)

	var got []events.Event
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketOverdue, func(_ context.Context, e events.Event) error {
		got = append(got, e)
		return nil
	})
	monitor := NewOverdueMonitor(source, dispatcher, clock.Fake(now), zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := monitor.Sweep(context.Background()); err != nil {
			t.Fatalf("Sweep: %v", err)
		}
	}
	if len(got) != 1 {
		t.Fatalf("published %d events, want 1", len(got))
	}
	payload, ok := got[0].Payload.(events.TicketOverduePayload)
	if !ok || payload.Critical {
		t.Errorf("payload = %#v", got[0].Payload)
	}

	// A new deadline that has also passed re-arms the ticket.
	moved := *ticket
	moved.SLALimit = now.Add(-time.Hour)
	source.set(&moved)
	if n, _ := monitor.Sweep(context.Background()); n != 1 {
		t.Errorf("after deadline change published %d, want 1", n)
	}

	source.set()
	monitor.Sweep(context.Background())
	source.set(&moved)
	if n, _ := monitor.Sweep(context.Background()); n != 1 {
		t.Errorf("after leaving and re-entering the overdue set published %d, want 1", n)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	monitor := NewOverdueMonitor(&staticSource{}, events.NewInMemoryDispatcher(), nil, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		monitor.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunnerSweepsUntilCancelled(t *testing.T) {
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	source := &staticSource{}
	source.set(&domain.Ticket{ID: "t1", CreatedAt: now.Add(-time.Hour), SLALimit: now.Add(-time.Minute), Status: domain.TicketStatusQueued})

	published := make(chan events.Event, 1)
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventTicketOverdue, func(_ context.Context, e events.Event) error {
		select {
		case published <- e:
		default:
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	runner := NewRunner(nil, NewOverdueMonitor(source, dispatcher, clock.Fake(now), zap.NewNop()), 5*time.Millisecond)
	runner.Start(ctx)

	select {
	case e := <-published:
		if e.TicketID != "t1" {
			t.Errorf("ticket = %s, want t1", e.TicketID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no overdue event within 2s")
	}
	cancel()
	runner.Wait()
}
