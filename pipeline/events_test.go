package pipeline

import "testing"

func TestBusDeliversToAllListeners(t *testing.T) {
	b := NewBus()
	var first, second bool
	b.Subscribe(EventStatusChanged, func(Event) { first = true })
	b.Subscribe(EventStatusChanged, func(Event) { second = true })

	b.Emit(EventStatusChanged, State{Status: StatusCapturing})
	if !first || !second {
		t.Fatalf("delivery: first=%v second=%v", first, second)
	}
}

func TestBusSurvivesPanickingListener(t *testing.T) {
	b := NewBus()
	var delivered bool
	b.Subscribe(EventError, func(Event) { panic("bad listener") })
	b.Subscribe(EventError, func(Event) { delivered = true })

	b.Emit(EventError, ErrorPayload{Message: "boom"})
	if !delivered {
		t.Fatalf("panicking listener blocked delivery to the next one")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	id := b.Subscribe(EventReviewReady, func(Event) { calls++ })

	b.Emit(EventReviewReady, ReviewReadyPayload{})
	b.Unsubscribe(EventReviewReady, id)
	b.Emit(EventReviewReady, ReviewReadyPayload{})

	if calls != 1 {
		t.Fatalf("calls: got %d, want 1", calls)
	}
}

func TestBusTypesAreIndependent(t *testing.T) {
	b := NewBus()
	var got EventType
	b.Subscribe(EventError, func(ev Event) { got = ev.Type })

	b.Emit(EventStatusChanged, State{})
	if got != "" {
		t.Fatalf("listener received an event of another type: %s", got)
	}

	b.Emit(EventError, ErrorPayload{Message: "x"})
	if got != EventError {
		t.Fatalf("listener missed its own type")
	}
}
