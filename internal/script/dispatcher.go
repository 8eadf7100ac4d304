package script

import (
	"context"
	"math/rand"
	"sync"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/board/events"
	"go.uber.org/zap"
)

// State describes where the dispatcher is in its drain loop.
type State string

const (
	// StateDraining means the queue is non-empty and the current descriptor
	// is being prepared.
	StateDraining State = "DRAINING"
	// StateSuspended means the dispatcher is waiting on asynchronous target
	// resolution for the current context.
	StateSuspended State = "SUSPENDED"
	// StateDispatching means the current context is ready and its handler
	// is about to run.
	StateDispatching State = "DISPATCHING"
	// StateDone means the queue has been fully drained.
	StateDone State = "DONE"
)

// TemplateSource supplies card templates for spawn tasks.
type TemplateSource interface {
	Template(ctx context.Context, name string) (board.CardTemplate, error)
}

// Env carries the shared table collaborators handlers mutate through.
// Zones are passed explicitly; handlers never reach for ambient state.
type Env struct {
	Board     *board.Board
	Bus       *events.Bus
	Rand      *rand.Rand
	Templates TemplateSource
}

// Handler implements one task kind's state mutation. Handlers read required
// parameters from the context and perform exactly one mutation. A non-nil
// error means the task could not run; the dispatcher records it and moves
// on, it never aborts the chain.
type Handler func(ctx context.Context, env *Env, tc *TaskContext) error

// Dispatcher drains an ordered queue of descriptors strictly front-to-back,
// building one TaskContext at a time and suspending while a context awaits
// target resolution. Side effects are strictly sequential: task N+1's
// context is not constructed until task N's handler has returned and its
// context has been finalized.
type Dispatcher struct {
	logger   *zap.Logger
	env      *Env
	selector TargetSelector
	handlers map[TaskKind]Handler

	owner      *board.Card
	trigger    *board.Card
	signalData map[string]any

	mu    sync.Mutex
	queue []Descriptor
	state State

	done     chan struct{}
	doneOnce sync.Once
}

// NewDispatcher creates a dispatcher over the given queue. The queue slice
// is consumed destructively; callers should not retain it.
func NewDispatcher(env *Env, selector TargetSelector, owner, trigger *board.Card, signalData map[string]any, queue []Descriptor, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:     logger,
		env:        env,
		selector:   selector,
		handlers:   builtinHandlers(),
		owner:      owner,
		trigger:    trigger,
		signalData: signalData,
		queue:      queue,
		state:      StateDraining,
		done:       make(chan struct{}),
	}
}

// State returns the dispatcher's current state.
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Done returns the completion signal, closed exactly once after every
// queued descriptor has been attempted (or the chain was cancelled).
func (d *Dispatcher) Done() <-chan struct{} { return d.done }

// Pending returns how many descriptors remain in the queue.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *Dispatcher) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

func (d *Dispatcher) pop() (Descriptor, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return Descriptor{}, false
	}
	desc := d.queue[0]
	d.queue = d.queue[1:]
	return desc, true
}

// Run drains the queue. It blocks while a context awaits target selection
// and returns once the queue is empty or ctx is cancelled. The completion
// signal fires on every exit path, exactly once.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.finish()

	if d.env != nil && d.env.Bus != nil {
		d.env.Bus.Publish(events.NewEvent(events.EventScriptChainStarted, cardID(d.owner), cardID(d.trigger)))
	}

	for {
		desc, ok := d.pop()
		if !ok {
			d.setState(StateDone)
			return nil
		}

		tc := NewTaskContext(desc, d.owner, d.trigger, d.signalData)
		tc.beginResolution(ctx, d.selector)

		if !tc.Initialized() {
			d.setState(StateSuspended)
			d.logger.Debug("script task suspended on target selection",
				zap.String("task_name", string(desc.TaskName())),
			)
		}

		select {
		case <-tc.Ready():
		case <-ctx.Done():
			tc.Finalize()
			d.setState(StateDone)
			return ctx.Err()
		}

		d.setState(StateDispatching)
		d.dispatch(ctx, tc)
		tc.Finalize()
		d.setState(StateDraining)
	}
}

// dispatch routes one ready context to its handler. Every failure mode
// degrades to skipping that single task; nothing here aborts the chain.
func (d *Dispatcher) dispatch(ctx context.Context, tc *TaskContext) {
	taskName := tc.TaskName()

	switch {
	case taskName == TaskCustomScript:
		if err := runCustomScript(ctx, d.env, tc); err != nil {
			d.skipped(tc, err.Error())
		}
		return
	case taskName == TaskNone:
		d.skipped(tc, "missing task name")
		return
	case !tc.IsValid():
		d.skipped(tc, "invalid or unresolved target")
		return
	}

	handler, ok := d.handlers[taskName]
	if !ok {
		d.skipped(tc, "unknown task name")
		return
	}

	d.logger.Debug("dispatching script task",
		zap.String("task_name", string(taskName)),
		zap.String("subject", cardID(tc.Subject())),
	)
	if err := handler(ctx, d.env, tc); err != nil {
		d.skipped(tc, err.Error())
	}
}

// skipped records one skipped task: a warning on the logger plus a
// SCRIPT_TASK_SKIPPED event on the bus.
func (d *Dispatcher) skipped(tc *TaskContext, reason string) {
	d.logger.Warn("script task skipped",
		zap.String("task_name", string(tc.TaskName())),
		zap.String("reason", reason),
	)
	if d.env == nil || d.env.Bus == nil {
		return
	}
	evt := events.NewEvent(events.EventScriptTaskSkipped, cardID(tc.Subject()), cardID(tc.Owner()))
	evt.Data = string(tc.TaskName())
	evt.Description = reason
	d.env.Bus.Publish(evt)
}

func (d *Dispatcher) finish() {
	d.doneOnce.Do(func() {
		if d.env != nil && d.env.Bus != nil {
			d.env.Bus.Publish(events.NewEvent(events.EventScriptChainDone, cardID(d.owner), cardID(d.trigger)))
		}
		close(d.done)
	})
}

func cardID(c *board.Card) string {
	if c == nil {
		return ""
	}
	return c.ID
}
