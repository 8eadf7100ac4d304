package script

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/deckforge/cardscript-engine-go/internal/board"
)

// TaskContext binds one descriptor to the live entities it will act on.
// It is created per descriptor, consumed by exactly one handler, finalized,
// and discarded; a context is never reused across two descriptors.
type TaskContext struct {
	descriptor Descriptor
	owner      *board.Card
	trigger    *board.Card
	signalData map[string]any

	mu          sync.Mutex
	subject     *board.Card
	targets     []*board.Card
	valid       bool
	initialized bool
	finalized   bool

	ready     chan struct{}
	readyOnce sync.Once

	// cancelSelection releases a pending selection session, if any.
	cancelSelection context.CancelFunc
}

// NewTaskContext wraps a descriptor with its execution-time bindings. The
// context is not initialized until beginResolution has run.
func NewTaskContext(descriptor Descriptor, owner, trigger *board.Card, signalData map[string]any) *TaskContext {
	if signalData == nil {
		signalData = make(map[string]any)
	}
	return &TaskContext{
		descriptor: descriptor,
		owner:      owner,
		trigger:    trigger,
		signalData: signalData,
		ready:      make(chan struct{}),
	}
}

// beginResolution resolves the subject. Tasks whose subject is "target"
// suspend until the selector reports a result; everything else initializes
// synchronously.
func (tc *TaskContext) beginResolution(ctx context.Context, selector TargetSelector) {
	if tc.descriptor.TaskName() == TaskNone {
		tc.markInitialized(nil, nil, false)
		return
	}

	subjectKind, _ := tc.GetString(ParamSubject)
	switch subjectKind {
	case SubjectTrigger:
		tc.markInitialized(tc.trigger, nil, tc.trigger != nil && tc.descriptor.IsValid())
	case SubjectTarget:
		if selector == nil {
			tc.markInitialized(nil, nil, false)
			return
		}
		selectionCtx, cancel := context.WithCancel(ctx)
		tc.mu.Lock()
		tc.cancelSelection = cancel
		tc.mu.Unlock()

		results := selector.SelectTargets(selectionCtx, TargetRequest{
			ID:       uuid.NewString(),
			TaskName: tc.descriptor.TaskName(),
			Owner:    tc.owner,
			Trigger:  tc.trigger,
		})
		go func() {
			select {
			case result := <-results:
				if len(result.Targets) > 0 && result.Targets[0] != nil {
					tc.markInitialized(result.Targets[0], result.Targets, tc.descriptor.IsValid())
				} else {
					tc.markInitialized(nil, nil, false)
				}
			case <-selectionCtx.Done():
				tc.markInitialized(nil, nil, false)
			}
		}()
	default:
		// SubjectOwner, explicit or implied.
		tc.markInitialized(tc.owner, nil, tc.owner != nil && tc.descriptor.IsValid())
	}
}

func (tc *TaskContext) markInitialized(subject *board.Card, targets []*board.Card, valid bool) {
	tc.mu.Lock()
	tc.subject = subject
	tc.targets = targets
	tc.valid = valid
	tc.initialized = true
	tc.mu.Unlock()
	tc.readyOnce.Do(func() { close(tc.ready) })
}

// Ready returns the completion signal closed once the context is
// initialized (valid or not).
func (tc *TaskContext) Ready() <-chan struct{} { return tc.ready }

// Initialized reports whether subject resolution has completed.
func (tc *TaskContext) Initialized() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.initialized
}

// IsValid reports whether the task may be dispatched. False for unresolved
// targets, missing entities, or a cancelled selection.
func (tc *TaskContext) IsValid() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.valid
}

// TaskName returns the descriptor's task kind.
func (tc *TaskContext) TaskName() TaskKind { return tc.descriptor.TaskName() }

// Owner returns the acting card.
func (tc *TaskContext) Owner() *board.Card { return tc.owner }

// Trigger returns the card that caused the chain to fire.
func (tc *TaskContext) Trigger() *board.Card { return tc.trigger }

// Subject returns the card the task acts upon. Nil until initialized, and
// nil for invalid contexts.
func (tc *TaskContext) Subject() *board.Card {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.subject
}

// Targets returns all selected targets, when the subject came from an
// interactive selection.
func (tc *TaskContext) Targets() []*board.Card {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	cpy := make([]*board.Card, len(tc.targets))
	copy(cpy, tc.targets)
	return cpy
}

// SignalData returns the ambient signal value for key, or nil.
func (tc *TaskContext) SignalData(key string) any {
	return tc.signalData[key]
}

// Finalize releases any held selection-session state. Idempotent; called
// exactly once by the dispatcher after the handler returns or the task is
// skipped.
func (tc *TaskContext) Finalize() {
	tc.mu.Lock()
	if tc.finalized {
		tc.mu.Unlock()
		return
	}
	tc.finalized = true
	cancel := tc.cancelSelection
	tc.cancelSelection = nil
	tc.targets = nil
	tc.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	tc.readyOnce.Do(func() { close(tc.ready) })
}

// Finalized reports whether Finalize has run.
func (tc *TaskContext) Finalized() bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.finalized
}

// Get returns the raw descriptor parameter, or nil if absent. Handlers use
// the typed accessors below and treat missing required keys as invalid
// input.
func (tc *TaskContext) Get(key string) any {
	v, _ := tc.descriptor.get(key)
	return v
}

// GetString returns a string parameter.
func (tc *TaskContext) GetString(key string) (string, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if s, ok := v.(string); ok {
			return s, true
		}
	}
	return "", false
}

// GetInt returns an integer parameter.
func (tc *TaskContext) GetInt(key string) (int, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if i, ok := v.(int); ok {
			return i, true
		}
	}
	return 0, false
}

// GetIntDefault returns an integer parameter, or def when absent.
func (tc *TaskContext) GetIntDefault(key string, def int) int {
	if i, ok := tc.GetInt(key); ok {
		return i
	}
	return def
}

// GetBool returns a boolean parameter.
func (tc *TaskContext) GetBool(key string) (bool, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if b, ok := v.(bool); ok {
			return b, true
		}
	}
	return false, false
}

// GetBoolDefault returns a boolean parameter, or def when absent.
func (tc *TaskContext) GetBoolDefault(key string, def bool) bool {
	if b, ok := tc.GetBool(key); ok {
		return b
	}
	return def
}

// GetPosition returns a board position parameter.
func (tc *TaskContext) GetPosition(key string) (board.Position, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if p, ok := v.(board.Position); ok {
			return p, true
		}
	}
	return board.Position{}, false
}

// GetCard returns a card reference parameter.
func (tc *TaskContext) GetCard(key string) (*board.Card, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if c, ok := v.(*board.Card); ok && c != nil {
			return c, true
		}
	}
	return nil, false
}

// GetPile returns a pile reference parameter.
func (tc *TaskContext) GetPile(key string) (*board.Pile, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if p, ok := v.(*board.Pile); ok && p != nil {
			return p, true
		}
	}
	return nil, false
}

// GetCards returns a card list parameter.
func (tc *TaskContext) GetCards(key string) ([]*board.Card, bool) {
	if v, ok := tc.descriptor.get(key); ok {
		if cards, ok := v.([]*board.Card); ok {
			return cards, true
		}
	}
	return nil, false
}
