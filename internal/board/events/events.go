package events

import (
	"sync"
	"time"
)

// EventType indicates the category of a table event.
type EventType string

const (
	// Card mutation events
	EventCardMoved    EventType = "CARD_MOVED"
	EventCardRotated  EventType = "CARD_ROTATED"
	EventCardFlipped  EventType = "CARD_FLIPPED"
	EventCardAttached EventType = "CARD_ATTACHED"
	EventCardSpawned  EventType = "CARD_SPAWNED"

	// Pile events
	EventContainerShuffled EventType = "CONTAINER_SHUFFLED"

	// Token events
	EventTokensChanged EventType = "TOKENS_CHANGED"

	// Script chain events
	EventScriptChainStarted EventType = "SCRIPT_CHAIN_STARTED"
	EventScriptTaskSkipped  EventType = "SCRIPT_TASK_SKIPPED"
	EventScriptChainDone    EventType = "SCRIPT_CHAIN_DONE"
)

// Event represents a state change that other subsystems may react to.
type Event struct {
	Type        EventType
	CardID      string            // ID of the card the event concerns
	SourceID    string            // ID of the acting card, if any
	Container   string            // Name of the pile involved, if any
	Amount      int               // Numeric value (degrees, token delta, index)
	Flag        bool              // Boolean value (face-up state, set-vs-adjust)
	Data        string            // Additional string data (token name, task name)
	Timestamp   time.Time         // When the event occurred
	Metadata    map[string]string // Additional metadata
	Description string            // Human-readable description
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// TypedListener defines a callback that reacts to a specific event type.
type TypedListener struct {
	Handle    int
	EventType EventType
	Callback  func(Event)
}

// Bus provides a synchronous publish/subscribe implementation with type
// filtering. Delivery is in-line with the publishing goroutine, so listener
// callbacks observe the table state exactly as the mutation left it.
type Bus struct {
	mu             sync.RWMutex
	listeners      map[int]Listener
	typedListeners map[EventType][]TypedListener
	nextHandle     int
}

// NewBus constructs a fresh event bus instance.
func NewBus() *Bus {
	return &Bus{
		listeners:      make(map[int]Listener),
		typedListeners: make(map[EventType][]TypedListener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *Bus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// SubscribeTyped registers a listener for a specific event type.
func (bus *Bus) SubscribeTyped(eventType EventType, callback func(Event)) int {
	if callback == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.typedListeners[eventType] = append(bus.typedListeners[eventType], TypedListener{
		Handle:    handle,
		EventType: eventType,
		Callback:  callback,
	})
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *Bus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
	for eventType, listeners := range bus.typedListeners {
		for i := len(listeners) - 1; i >= 0; i-- {
			if listeners[i].Handle == handle {
				bus.typedListeners[eventType] = append(listeners[:i], listeners[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all registered listeners synchronously.
// The listener lists are snapshotted before delivery so a callback may
// subscribe or unsubscribe without deadlocking the bus.
func (bus *Bus) Publish(event Event) {
	bus.mu.RLock()
	listeners := make([]Listener, 0, len(bus.listeners))
	for _, listener := range bus.listeners {
		listeners = append(listeners, listener)
	}
	typed := make([]TypedListener, len(bus.typedListeners[event.Type]))
	copy(typed, bus.typedListeners[event.Type])
	bus.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
	for _, listener := range typed {
		listener.Callback(event)
	}
}

// NewEvent creates a new event with common fields populated.
func NewEvent(eventType EventType, cardID, sourceID string) Event {
	return Event{
		Type:      eventType,
		CardID:    cardID,
		SourceID:  sourceID,
		Timestamp: time.Now(),
		Metadata:  make(map[string]string),
	}
}

// NewEventWithAmount creates a new event with an amount value.
func NewEventWithAmount(eventType EventType, cardID, sourceID string, amount int) Event {
	evt := NewEvent(eventType, cardID, sourceID)
	evt.Amount = amount
	return evt
}
