package script

import (
	"context"

	"github.com/deckforge/cardscript-engine-go/internal/board"
)

// TargetRequest describes one pending interactive target selection.
type TargetRequest struct {
	ID       string
	TaskName TaskKind
	Owner    *board.Card
	Trigger  *board.Card
}

// TargetResult carries the outcome of a selection. An empty target list
// means the selection was cancelled or failed; the task context then
// becomes initialized but invalid.
type TargetResult struct {
	Targets []*board.Card
}

// TargetSelector is the external collaborator that resolves interactive
// targets. Implementations must eventually deliver exactly one
// TargetResult on the returned channel for every request, success or
// cancel; no other outcome is permitted.
type TargetSelector interface {
	SelectTargets(ctx context.Context, req TargetRequest) <-chan TargetResult
}

// AutoSelector resolves every selection to the acting card immediately.
// Useful for solitaire tables and tests that exercise the suspension path
// without a client attached.
type AutoSelector struct{}

// SelectTargets implements TargetSelector.
func (AutoSelector) SelectTargets(_ context.Context, req TargetRequest) <-chan TargetResult {
	ch := make(chan TargetResult, 1)
	if req.Owner != nil {
		ch <- TargetResult{Targets: []*board.Card{req.Owner}}
	} else {
		ch <- TargetResult{}
	}
	return ch
}

// NullSelector cancels every selection immediately. Tasks that require a
// target are skipped as invalid.
type NullSelector struct{}

// SelectTargets implements TargetSelector.
func (NullSelector) SelectTargets(context.Context, TargetRequest) <-chan TargetResult {
	ch := make(chan TargetResult, 1)
	ch <- TargetResult{}
	return ch
}

// SelectorFunc adapts a function to the TargetSelector interface.
type SelectorFunc func(ctx context.Context, req TargetRequest) <-chan TargetResult

// SelectTargets implements TargetSelector.
func (f SelectorFunc) SelectTargets(ctx context.Context, req TargetRequest) <-chan TargetResult {
	return f(ctx, req)
}
