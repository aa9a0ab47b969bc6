package jobs

import (
	"fmt"
	"testing"

	"wav2mp3/internal/domain"
)

// TestEventBusAssignsSequenceAndTimestamp checks publish metadata.
func TestEventBusAssignsSequenceAndTimestamp(t *testing.T) {
	bus := NewEventBus(10)

	first := bus.Publish(Event{Type: EventTypeStatus, Status: domain.JobStatusReading})
	second := bus.Publish(Event{Type: EventTypeProgress, Progress: 40})

	if first.Seq != 1 || second.Seq != 2 {
		t.Fatalf("seq = %d, %d", first.Seq, second.Seq)
	}
	if first.Timestamp.IsZero() || second.Timestamp.IsZero() {
		t.Fatal("timestamps must be assigned")
	}
}

// TestEventBusBoundedBuffer checks old events are trimmed.
func TestEventBusBoundedBuffer(t *testing.T) {
	bus := NewEventBus(3)
	for i := 0; i < 5; i++ {
		bus.Publish(Event{Type: EventTypeProgress, Progress: i})
	}

	events := bus.Since(0)
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	if events[0].Seq != 3 || events[2].Seq != 5 {
		t.Fatalf("kept seqs = %d..%d, want 3..5", events[0].Seq, events[2].Seq)
	}
}

// TestEventBusSince checks incremental reads skip consumed events.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(10)
	for i := 0; i < 4; i++ {
		bus.Publish(Event{Type: EventTypeStatus, Message: fmt.Sprintf("event-%d", i)})
	}

	events := bus.Since(2)
	if len(events) != 2 {
		t.Fatalf("events = %d, want 2", len(events))
	}
	if events[0].Seq != 3 {
		t.Fatalf("first seq = %d, want 3", events[0].Seq)
	}

	if got := bus.Since(100); got != nil {
		t.Fatalf("future cursor = %v, want nil", got)
	}
}

// TestEventBusNotify checks the push hook sees published events.
func TestEventBusNotify(t *testing.T) {
	bus := NewEventBus(10)

	var seen []Event
	bus.SetNotify(func(event Event) {
		seen = append(seen, event)
	})

	bus.Publish(Event{Type: EventTypeReset})
	bus.Publish(Event{Type: EventTypeExport})

	if len(seen) != 2 {
		t.Fatalf("notified = %d, want 2", len(seen))
	}
	if seen[0].Seq != 1 || seen[1].Type != EventTypeExport {
		t.Fatalf("seen = %+v", seen)
	}
}
