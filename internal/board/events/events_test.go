package events

import "testing"

func TestBusSubscribePublish(t *testing.T) {
	bus := NewBus()

	var received []Event
	handle := bus.Subscribe(func(event Event) {
		received = append(received, event)
	})
	if handle < 0 {
		t.Fatalf("expected valid handle, got %d", handle)
	}

	bus.Publish(NewEventWithAmount(EventCardRotated, "card-1", "", 90))
	bus.Publish(NewEvent(EventCardFlipped, "card-1", ""))

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	if received[0].Type != EventCardRotated || received[0].Amount != 90 {
		t.Fatalf("unexpected first event: %+v", received[0])
	}
	if received[1].Type != EventCardFlipped {
		t.Fatalf("unexpected second event: %+v", received[1])
	}
}

func TestBusSubscribeTyped(t *testing.T) {
	bus := NewBus()

	rotations := 0
	bus.SubscribeTyped(EventCardRotated, func(event Event) {
		rotations++
	})

	bus.Publish(NewEvent(EventCardRotated, "card-1", ""))
	bus.Publish(NewEvent(EventCardFlipped, "card-1", ""))
	bus.Publish(NewEvent(EventCardRotated, "card-2", ""))

	if rotations != 2 {
		t.Fatalf("expected typed listener to fire twice, got %d", rotations)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()

	count := 0
	handle := bus.Subscribe(func(Event) { count++ })
	typedHandle := bus.SubscribeTyped(EventTokensChanged, func(Event) { count++ })

	bus.Publish(NewEvent(EventTokensChanged, "card-1", ""))
	if count != 2 {
		t.Fatalf("expected both listeners fired, got %d", count)
	}

	bus.Unsubscribe(handle)
	bus.Unsubscribe(typedHandle)

	bus.Publish(NewEvent(EventTokensChanged, "card-1", ""))
	if count != 2 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", count)
	}
}

func TestBusReentrantSubscribe(t *testing.T) {
	bus := NewBus()

	later := 0
	var handle int
	handle = bus.Subscribe(func(Event) {
		bus.Unsubscribe(handle)
		bus.SubscribeTyped(EventCardFlipped, func(Event) { later++ })
	})

	// Must not deadlock even though the listener mutates the bus.
	bus.Publish(NewEvent(EventCardRotated, "card-1", ""))
	bus.Publish(NewEvent(EventCardFlipped, "card-1", ""))

	if later != 1 {
		t.Fatalf("expected listener added during delivery to fire once, got %d", later)
	}
}

func TestBusNilListener(t *testing.T) {
	bus := NewBus()
	if handle := bus.Subscribe(nil); handle != -1 {
		t.Fatalf("expected -1 for nil listener, got %d", handle)
	}
	if handle := bus.SubscribeTyped(EventCardMoved, nil); handle != -1 {
		t.Fatalf("expected -1 for nil typed listener, got %d", handle)
	}
}
