package lifecycle

import "testing"

// TestEventBusPublishAndSince verifies sequence and incremental reads.
func TestEventBusPublishAndSince(t *testing.T) {
	bus := NewEventBus(10)
	first := bus.Publish(Event{Type: EventTypeStatus, Message: "one"})
	second := bus.Publish(Event{Type: EventTypeResult, Message: "two"})

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("unexpected seq values: %d, %d", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	events := bus.Since(1)
	if len(events) != 1 || events[0].Message != "two" {
		t.Fatalf("Since(1) = %+v", events)
	}
}

// TestEventBusTrimsOldEvents verifies bounded history.
func TestEventBusTrimsOldEvents(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "a"})
	bus.Publish(Event{Message: "b"})
	bus.Publish(Event{Message: "c"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "b" || events[1].Message != "c" {
		t.Fatalf("events = %+v", events)
	}
}
