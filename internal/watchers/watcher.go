package watchers

import (
	"sync"

	"github.com/deckforge/cardscript-engine-go/internal/board/events"
)

// WatcherScope defines the scope of a watcher's tracking.
type WatcherScope int

const (
	// WatcherScopeTable tracks events for the entire table.
	WatcherScopeTable WatcherScope = iota
	// WatcherScopeCard tracks events for a specific card.
	WatcherScopeCard
)

// String returns the string representation of the watcher scope.
func (ws WatcherScope) String() string {
	switch ws {
	case WatcherScopeTable:
		return "TABLE"
	case WatcherScopeCard:
		return "CARD"
	default:
		return "UNKNOWN"
	}
}

// Watcher is an interface for objects that watch table events and track
// conditions across a script chain or turn.
type Watcher interface {
	// Watch is called for every event published on the table bus.
	Watch(event events.Event)

	// Reset clears the watcher's condition and accumulated state.
	Reset()

	// ConditionMet returns true if the tracked condition has occurred.
	ConditionMet() bool

	// GetScope returns the scope of this watcher.
	GetScope() WatcherScope

	// GetKey returns a unique key for this watcher instance.
	GetKey() string
}

// BaseWatcher provides a base implementation for watchers.
type BaseWatcher struct {
	scope     WatcherScope
	sourceID  string
	condition bool
	key       string
}

// NewBaseWatcher creates a new base watcher with the specified scope.
func NewBaseWatcher(scope WatcherScope) *BaseWatcher {
	return &BaseWatcher{scope: scope}
}

// GetScope returns the watcher's scope.
func (bw *BaseWatcher) GetScope() WatcherScope {
	return bw.scope
}

// SetSourceID sets the source card ID (for CARD scope watchers).
func (bw *BaseWatcher) SetSourceID(id string) {
	bw.sourceID = id
}

// GetSourceID returns the source card ID.
func (bw *BaseWatcher) GetSourceID() string {
	return bw.sourceID
}

// ConditionMet returns whether the condition has been met.
func (bw *BaseWatcher) ConditionMet() bool {
	return bw.condition
}

// SetCondition sets the condition flag.
func (bw *BaseWatcher) SetCondition(condition bool) {
	bw.condition = condition
}

// Reset clears the condition.
func (bw *BaseWatcher) Reset() {
	bw.condition = false
}

// GetKey returns the unique key for this watcher.
func (bw *BaseWatcher) GetKey() string {
	return bw.key
}

// SetKey sets the unique key for this watcher.
func (bw *BaseWatcher) SetKey(key string) {
	bw.key = key
}

// Registry manages watchers for a table and feeds them from an event bus.
type Registry struct {
	mu       sync.RWMutex
	watchers map[string]Watcher
	byScope  map[WatcherScope][]Watcher
}

// NewRegistry creates a new watcher registry.
func NewRegistry() *Registry {
	return &Registry{
		watchers: make(map[string]Watcher),
		byScope:  make(map[WatcherScope][]Watcher),
	}
}

// Add registers a watcher. Watchers with an empty key get one derived from
// their scope and source card.
func (r *Registry) Add(watcher Watcher) {
	if watcher == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := watcher.GetKey()
	if key == "" {
		key = generateKey(watcher)
		if setter, ok := watcher.(interface{ SetKey(string) }); ok {
			setter.SetKey(key)
		}
	}

	r.watchers[key] = watcher
	scope := watcher.GetScope()
	r.byScope[scope] = append(r.byScope[scope], watcher)
}

// Remove removes a watcher from the registry.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	watcher, ok := r.watchers[key]
	if !ok {
		return
	}
	delete(r.watchers, key)

	scope := watcher.GetScope()
	list := r.byScope[scope]
	for i, w := range list {
		if w.GetKey() == key {
			r.byScope[scope] = append(list[:i], list[i+1:]...)
			break
		}
	}
}

// Get retrieves a watcher by key.
func (r *Registry) Get(key string) Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.watchers[key]
}

// ByScope returns all watchers for a given scope.
func (r *Registry) ByScope(scope WatcherScope) []Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byScope[scope]
	result := make([]Watcher, len(list))
	copy(result, list)
	return result
}

// All returns all registered watchers.
func (r *Registry) All() []Watcher {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Watcher, 0, len(r.watchers))
	for _, watcher := range r.watchers {
		result = append(result, watcher)
	}
	return result
}

// ResetAll resets every watcher, typically between script chains or turns.
func (r *Registry) ResetAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, watcher := range r.watchers {
		watcher.Reset()
	}
}

// Notify delivers an event to every registered watcher. Watchers filter
// internally.
func (r *Registry) Notify(event events.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, watcher := range r.watchers {
		watcher.Watch(event)
	}
}

// Bind subscribes the registry to a bus so every published event reaches the
// watchers. Returns the subscription handle for later Unsubscribe.
func (r *Registry) Bind(bus *events.Bus) int {
	if bus == nil {
		return -1
	}
	return bus.Subscribe(r.Notify)
}

func generateKey(watcher Watcher) string {
	if watcher.GetScope() == WatcherScopeCard {
		if getter, ok := watcher.(interface{ GetSourceID() string }); ok {
			if sourceID := getter.GetSourceID(); sourceID != "" {
				return sourceID + "_Watcher"
			}
		}
	}
	return "Watcher"
}
