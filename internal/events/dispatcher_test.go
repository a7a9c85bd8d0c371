package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishInvokesSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var created, extended int
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { created++; return nil })
	d.Subscribe(EventTicketSLAExtended, func(context.Context, Event) error { extended++; return nil })

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if created != 1 || extended != 0 {
		t.Errorf("created=%d extended=%d, want 1 and 0", created, extended)
	}
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var reached bool
	d.Subscribe(EventTicketOverdue, func(context.Context, Event) error { return boom })
	d.Subscribe(EventTicketOverdue, func(context.Context, Event) error { reached = true; return nil })

	err := d.Publish(context.Background(), Event{Type: EventTicketOverdue})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if !reached {
		t.Error("second handler not invoked")
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	if err := NewInMemoryDispatcher().Publish(context.Background(), Event{Type: EventSLAPolicyUpdated}); err != nil {
		t.Errorf("Publish: %v", err)
	}
}

func TestSubscribeAllRunsAfterTypedHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error { order = append(order, "all:"+string(e.Type)); return nil })
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { order = append(order, "typed"); return nil })

	for _, eventType := range []EventType{EventTicketCreated, EventSLAPolicyUpdated} {
		if err := d.Publish(context.Background(), Event{Type: eventType}); err != nil {
			t.Fatalf("Publish(%s): %v", eventType, err)
		}
	}
	want := []string{"typed", "all:ticket_created", "all:sla_policy_updated"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	var reached bool
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error { panic("bad handler") })
	d.SubscribeAll(func(context.Context, Event) error { reached = true; return nil })

	if err := d.Publish(context.Background(), Event{Type: EventTicketCreated}); err == nil {
		t.Error("panic not reported as error")
	}
	if !reached {
		t.Error("handler after the panicking one not invoked")
	}
}
