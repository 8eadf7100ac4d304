package watchers

import (
	"testing"

	"github.com/deckforge/cardscript-engine-go/internal/board/events"
)

func TestCardMovesWatcher(t *testing.T) {
	watcher := NewCardMovesWatcher()

	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met initially")
	}
	if watcher.Count("discard") != 0 {
		t.Fatalf("expected 0 moves, got %d", watcher.Count("discard"))
	}

	event := events.NewEvent(events.EventCardMoved, "card1", "source1")
	event.Container = "discard"
	watcher.Watch(event)

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after a move")
	}
	if watcher.Count("discard") != 1 {
		t.Fatalf("expected 1 move, got %d", watcher.Count("discard"))
	}

	event2 := events.NewEvent(events.EventCardMoved, "card2", "source1")
	event2.Container = "discard"
	watcher.Watch(event2)

	if got := watcher.MovedInto("discard"); len(got) != 2 || got[0] != "card1" || got[1] != "card2" {
		t.Fatalf("expected [card1 card2], got %v", got)
	}

	// Events for other types are ignored.
	watcher.Watch(events.NewEvent(events.EventCardRotated, "card3", ""))
	if watcher.Count("discard") != 2 {
		t.Fatalf("expected unrelated event to be ignored, got %d moves", watcher.Count("discard"))
	}

	watcher.Reset()
	if watcher.ConditionMet() {
		t.Fatal("watcher should not have condition met after reset")
	}
	if watcher.Count("discard") != 0 {
		t.Fatalf("expected 0 moves after reset, got %d", watcher.Count("discard"))
	}
}

func TestTokensChangedWatcher(t *testing.T) {
	watcher := NewTokensChangedWatcher()

	event := events.NewEventWithAmount(events.EventTokensChanged, "card1", "", 3)
	event.Data = "charge"
	watcher.Watch(event)

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after token change")
	}
	if got := watcher.LastCount("card1", "charge"); got != 3 {
		t.Fatalf("expected last count 3, got %d", got)
	}

	// A later change overwrites the recorded count.
	event2 := events.NewEventWithAmount(events.EventTokensChanged, "card1", "", 1)
	event2.Data = "charge"
	watcher.Watch(event2)

	if got := watcher.LastCount("card1", "charge"); got != 1 {
		t.Fatalf("expected last count 1, got %d", got)
	}

	watcher.Reset()
	if got := watcher.LastCount("card1", "charge"); got != 0 {
		t.Fatalf("expected 0 after reset, got %d", got)
	}
}

func TestChainsCompletedWatcher(t *testing.T) {
	watcher := NewChainsCompletedWatcher()

	watcher.Watch(events.NewEvent(events.EventScriptTaskSkipped, "", ""))
	watcher.Watch(events.NewEvent(events.EventScriptChainDone, "", ""))
	watcher.Watch(events.NewEvent(events.EventScriptChainDone, "", ""))

	if !watcher.ConditionMet() {
		t.Fatal("watcher should have condition met after chain completion")
	}
	if watcher.Completed() != 2 {
		t.Fatalf("expected 2 completed chains, got %d", watcher.Completed())
	}
	if watcher.SkippedTasks() != 1 {
		t.Fatalf("expected 1 skipped task, got %d", watcher.SkippedTasks())
	}
}

func TestRegistryBindDeliversEvents(t *testing.T) {
	bus := events.NewBus()
	registry := NewRegistry()
	moves := NewCardMovesWatcher()
	registry.Add(moves)

	handle := registry.Bind(bus)
	if handle < 0 {
		t.Fatal("expected a valid subscription handle")
	}

	event := events.NewEvent(events.EventCardMoved, "card1", "")
	event.Container = "deck"
	bus.Publish(event)

	if moves.Count("deck") != 1 {
		t.Fatalf("expected watcher to observe published event, got %d moves", moves.Count("deck"))
	}

	bus.Unsubscribe(handle)
	bus.Publish(event)
	if moves.Count("deck") != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d moves", moves.Count("deck"))
	}
}

func TestRegistryScopesAndReset(t *testing.T) {
	registry := NewRegistry()
	moves := NewCardMovesWatcher()
	tokens := NewTokensChangedWatcher()
	registry.Add(moves)
	registry.Add(tokens)

	if got := len(registry.ByScope(WatcherScopeTable)); got != 2 {
		t.Fatalf("expected 2 table-scope watchers, got %d", got)
	}
	if registry.Get("CardMovesWatcher") != Watcher(moves) {
		t.Fatal("expected lookup by key to return the registered watcher")
	}

	event := events.NewEvent(events.EventCardMoved, "card1", "")
	event.Container = "deck"
	registry.Notify(event)
	if !moves.ConditionMet() {
		t.Fatal("expected notify to reach watcher")
	}

	registry.ResetAll()
	if moves.ConditionMet() {
		t.Fatal("expected reset to clear condition")
	}

	registry.Remove("CardMovesWatcher")
	if registry.Get("CardMovesWatcher") != nil {
		t.Fatal("expected watcher removed")
	}
	if got := len(registry.ByScope(WatcherScopeTable)); got != 1 {
		t.Fatalf("expected 1 watcher after removal, got %d", got)
	}
}
