package watchers

import (
	"github.com/deckforge/cardscript-engine-go/internal/board/events"
)

// CardMovesWatcher tracks cards moved into containers during a chain.
type CardMovesWatcher struct {
	*BaseWatcher
	movesByContainer map[string][]string // container name -> list of card IDs
}

// NewCardMovesWatcher creates a new card moves watcher.
func NewCardMovesWatcher() *CardMovesWatcher {
	w := &CardMovesWatcher{
		BaseWatcher:      NewBaseWatcher(WatcherScopeTable),
		movesByContainer: make(map[string][]string),
	}
	w.SetKey("CardMovesWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *CardMovesWatcher) Watch(event events.Event) {
	if event.Type != events.EventCardMoved {
		return
	}
	if event.Container == "" || event.CardID == "" {
		return
	}
	w.movesByContainer[event.Container] = append(w.movesByContainer[event.Container], event.CardID)
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *CardMovesWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.movesByContainer = make(map[string][]string)
}

// MovedInto returns the IDs of cards moved into the named container.
func (w *CardMovesWatcher) MovedInto(container string) []string {
	return w.movesByContainer[container]
}

// Count returns the number of cards moved into the named container.
func (w *CardMovesWatcher) Count(container string) int {
	return len(w.movesByContainer[container])
}

// TokensChangedWatcher tracks token mutations per card.
type TokensChangedWatcher struct {
	*BaseWatcher
	lastCount map[string]map[string]int // cardID -> token name -> last reported count
}

// NewTokensChangedWatcher creates a new tokens changed watcher.
func NewTokensChangedWatcher() *TokensChangedWatcher {
	w := &TokensChangedWatcher{
		BaseWatcher: NewBaseWatcher(WatcherScopeTable),
		lastCount:   make(map[string]map[string]int),
	}
	w.SetKey("TokensChangedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *TokensChangedWatcher) Watch(event events.Event) {
	if event.Type != events.EventTokensChanged {
		return
	}
	if event.CardID == "" || event.Data == "" {
		return
	}
	counts, ok := w.lastCount[event.CardID]
	if !ok {
		counts = make(map[string]int)
		w.lastCount[event.CardID] = counts
	}
	counts[event.Data] = event.Amount
	w.SetCondition(true)
}

// Reset clears the watcher's state.
func (w *TokensChangedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.lastCount = make(map[string]map[string]int)
}

// LastCount returns the most recently reported count of a token on a card.
func (w *TokensChangedWatcher) LastCount(cardID, tokenName string) int {
	return w.lastCount[cardID][tokenName]
}

// ChainsCompletedWatcher counts script chains that ran to completion on the
// table and how many tasks each chain skipped.
type ChainsCompletedWatcher struct {
	*BaseWatcher
	completed    int
	skippedTasks int
}

// NewChainsCompletedWatcher creates a new chains completed watcher.
func NewChainsCompletedWatcher() *ChainsCompletedWatcher {
	w := &ChainsCompletedWatcher{
		BaseWatcher: NewBaseWatcher(WatcherScopeTable),
	}
	w.SetKey("ChainsCompletedWatcher")
	return w
}

// Watch implements the Watcher interface.
func (w *ChainsCompletedWatcher) Watch(event events.Event) {
	switch event.Type {
	case events.EventScriptChainDone:
		w.completed++
		w.SetCondition(true)
	case events.EventScriptTaskSkipped:
		w.skippedTasks++
	}
}

// Reset clears the watcher's state.
func (w *ChainsCompletedWatcher) Reset() {
	w.BaseWatcher.Reset()
	w.completed = 0
	w.skippedTasks = 0
}

// Completed returns the number of chains that finished.
func (w *ChainsCompletedWatcher) Completed() int {
	return w.completed
}

// SkippedTasks returns the number of tasks skipped across all chains.
func (w *ChainsCompletedWatcher) SkippedTasks() int {
	return w.skippedTasks
}
