// Package game hosts tables and runs effect script chains against them.
package game

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/board/events"
	"github.com/deckforge/cardscript-engine-go/internal/script"
	"github.com/deckforge/cardscript-engine-go/internal/watchers"
)

// TableNotification is a real-time update pushed to UI/websocket clients.
type TableNotification struct {
	Type      string
	TableID   string
	Timestamp time.Time
	Data      map[string]interface{}
}

// NotificationHandler receives table notifications.
type NotificationHandler func(notification TableNotification)

// TableMessage is one line of the table's message log.
type TableMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ScriptStep is the wire form of one effect descriptor. Entity parameters
// arrive as names and IDs; the engine resolves them against the table before
// dispatch.
type ScriptStep struct {
	Task   string         `json:"task"`
	Params map[string]any `json:"params,omitempty"`
}

// tableState holds one table's entities. A table's chains run one at a time
// under its mutex; the script core itself performs no locking.
type tableState struct {
	id        string
	name      string
	board     *board.Board
	piles     map[string]*board.Pile
	bus       *events.Bus
	watchers  *watchers.Registry
	rng       *rand.Rand
	messages  []TableMessage
	createdAt time.Time
	mu        sync.Mutex

	// cards is the ID index of every card ever added to the table. It has
	// its own lock so selection frontends can resolve IDs while a chain
	// holds the table lock.
	cardsMu sync.RWMutex
	cards   map[string]*board.Card
}

func (t *tableState) card(id string) *board.Card {
	t.cardsMu.RLock()
	defer t.cardsMu.RUnlock()
	return t.cards[id]
}

func (t *tableState) indexCard(card *board.Card) {
	t.cardsMu.Lock()
	t.cards[card.ID] = card
	t.cardsMu.Unlock()
}

// TableEngine manages tables and dispatches script chains.
type TableEngine struct {
	logger    *zap.Logger
	templates script.TemplateSource
	maxTables int

	mu                  sync.RWMutex
	tables              map[string]*tableState
	selector            script.TargetSelector
	notificationHandler NotificationHandler
}

// NewTableEngine creates a table engine. Templates may be nil when no spawn
// effects are needed; the selector defaults to answering with the acting
// card.
func NewTableEngine(templates script.TemplateSource, maxTables int, logger *zap.Logger) *TableEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxTables <= 0 {
		maxTables = 100
	}
	return &TableEngine{
		logger:    logger,
		templates: templates,
		maxTables: maxTables,
		tables:    make(map[string]*tableState),
		selector:  script.AutoSelector{},
	}
}

// SetNotificationHandler sets the handler for table notifications. External
// systems (UI, websockets) use this to receive real-time updates.
func (e *TableEngine) SetNotificationHandler(handler NotificationHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notificationHandler = handler
}

// SetTargetSelector installs the selector consulted for interactive target
// selection.
func (e *TableEngine) SetTargetSelector(selector script.TargetSelector) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if selector == nil {
		selector = script.AutoSelector{}
	}
	e.selector = selector
}

// emitNotification forwards a notification to the registered handler without
// blocking table logic.
func (e *TableEngine) emitNotification(notification TableNotification) {
	e.mu.RLock()
	handler := e.notificationHandler
	e.mu.RUnlock()

	if handler != nil {
		go handler(notification)
	}
}

// CreateTable creates a new table and returns its ID.
func (e *TableEngine) CreateTable(name string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.tables) >= e.maxTables {
		return "", fmt.Errorf("game: table limit of %d reached", e.maxTables)
	}

	table := &tableState{
		id:        uuid.NewString(),
		name:      name,
		board:     board.NewBoard(),
		piles:     make(map[string]*board.Pile),
		cards:     make(map[string]*board.Card),
		bus:       events.NewBus(),
		watchers:  watchers.NewRegistry(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		createdAt: time.Now(),
	}
	table.watchers.Bind(table.bus)
	table.bus.Subscribe(func(evt events.Event) {
		e.emitNotification(TableNotification{
			Type:      "TABLE_EVENT",
			TableID:   table.id,
			Timestamp: evt.Timestamp,
			Data: map[string]interface{}{
				"event":     string(evt.Type),
				"card_id":   evt.CardID,
				"source_id": evt.SourceID,
				"container": evt.Container,
				"amount":    evt.Amount,
				"flag":      evt.Flag,
				"data":      evt.Data,
			},
		})
	})

	e.tables[table.id] = table
	e.logger.Info("table created",
		zap.String("table_id", table.id),
		zap.String("name", name),
	)
	return table.id, nil
}

// RemoveTable tears down a table.
func (e *TableEngine) RemoveTable(tableID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.tables[tableID]; !ok {
		return fmt.Errorf("game: table %s not found", tableID)
	}
	delete(e.tables, tableID)
	e.logger.Info("table removed", zap.String("table_id", tableID))
	return nil
}

// TableIDs returns the IDs of all live tables.
func (e *TableEngine) TableIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.tables))
	for id := range e.tables {
		ids = append(ids, id)
	}
	return ids
}

func (e *TableEngine) table(tableID string) (*tableState, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	table, ok := e.tables[tableID]
	if !ok {
		return nil, fmt.Errorf("game: table %s not found", tableID)
	}
	return table, nil
}

// CreatePile adds a named pile to the table.
func (e *TableEngine) CreatePile(tableID, name string) error {
	table, err := e.table(tableID)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("game: pile name is empty")
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	if _, exists := table.piles[name]; exists {
		return fmt.Errorf("game: pile %s already exists on table %s", name, tableID)
	}
	table.piles[name] = board.NewPile(name)
	return nil
}

// AddCardToPile instantiates a template and appends the card to a pile.
func (e *TableEngine) AddCardToPile(ctx context.Context, tableID, templateName, pileName string) (string, error) {
	table, err := e.table(tableID)
	if err != nil {
		return "", err
	}
	card, err := e.instantiate(ctx, templateName)
	if err != nil {
		return "", err
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	pile, ok := table.piles[pileName]
	if !ok {
		return "", fmt.Errorf("game: pile %s not found on table %s", pileName, tableID)
	}
	card.MoveToPile(pile, -1)
	table.indexCard(card)
	return card.ID, nil
}

// AddCardToBoard instantiates a template and places the card in play.
func (e *TableEngine) AddCardToBoard(ctx context.Context, tableID, templateName string, pos board.Position) (string, error) {
	table, err := e.table(tableID)
	if err != nil {
		return "", err
	}
	card, err := e.instantiate(ctx, templateName)
	if err != nil {
		return "", err
	}

	table.mu.Lock()
	defer table.mu.Unlock()
	card.MoveToBoard(table.board, pos)
	table.indexCard(card)
	return card.ID, nil
}

func (e *TableEngine) instantiate(ctx context.Context, templateName string) (*board.Card, error) {
	if e.templates == nil {
		return nil, fmt.Errorf("game: no template source configured")
	}
	tpl, err := e.templates.Template(ctx, templateName)
	if err != nil {
		return nil, err
	}
	return tpl.Instantiate(), nil
}

// ResolveCards maps card IDs to live cards on the table, dropping unknown
// IDs. Selection frontends use this to answer target requests.
func (e *TableEngine) ResolveCards(tableID string, cardIDs []string) []*board.Card {
	table, err := e.table(tableID)
	if err != nil {
		return nil
	}

	cards := make([]*board.Card, 0, len(cardIDs))
	for _, id := range cardIDs {
		if card := table.card(id); card != nil {
			cards = append(cards, card)
		}
	}
	return cards
}

// AddWatcher registers a watcher on the table's event bus.
func (e *TableEngine) AddWatcher(tableID string, watcher watchers.Watcher) error {
	table, err := e.table(tableID)
	if err != nil {
		return err
	}
	table.watchers.Add(watcher)
	return nil
}

// Watcher retrieves a table watcher by key.
func (e *TableEngine) Watcher(tableID, key string) (watchers.Watcher, error) {
	table, err := e.table(tableID)
	if err != nil {
		return nil, err
	}
	return table.watchers.Get(key), nil
}

// RunScript resolves the wire steps against the table and drains them as one
// chain. The call blocks until the chain completes or ctx is cancelled.
// Unresolvable steps are skipped by the dispatcher, never fatal.
func (e *TableEngine) RunScript(ctx context.Context, tableID, ownerID, triggerID string, steps []ScriptStep, signalData map[string]any) error {
	table, err := e.table(tableID)
	if err != nil {
		return err
	}

	e.mu.RLock()
	selector := e.selector
	e.mu.RUnlock()

	table.mu.Lock()
	defer table.mu.Unlock()

	owner := table.card(ownerID)
	if owner == nil {
		return fmt.Errorf("game: owner card %s not found on table %s", ownerID, tableID)
	}
	trigger := table.card(triggerID)

	queue := make([]script.Descriptor, 0, len(steps))
	for _, step := range steps {
		queue = append(queue, buildDescriptor(table, step))
	}

	env := &script.Env{
		Board:     table.board,
		Bus:       table.bus,
		Rand:      table.rng,
		Templates: e.templates,
	}
	dispatcher := script.NewDispatcher(env, selector, owner, trigger, signalData, queue, e.logger)

	start := time.Now()
	runErr := dispatcher.Run(ctx)

	table.messages = append(table.messages, TableMessage{
		Text:      fmt.Sprintf("%s ran a %d step chain", owner.Name, len(steps)),
		Timestamp: time.Now(),
	})
	e.indexBoardCards(table)

	e.logger.Info("script chain finished",
		zap.String("table_id", tableID),
		zap.String("owner", owner.Name),
		zap.Int("steps", len(steps)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(runErr),
	)
	return runErr
}

// indexBoardCards picks up cards created by spawn effects so later chains
// can reference them by ID.
func (e *TableEngine) indexBoardCards(table *tableState) {
	for _, card := range table.board.Cards() {
		if table.card(card.ID) == nil {
			table.indexCard(card)
		}
	}
}

// buildDescriptor converts a wire step into a descriptor, resolving pile
// names against the table. Unresolvable references produce an invalid
// descriptor that the dispatcher warns about and skips.
func buildDescriptor(table *tableState, step ScriptStep) script.Descriptor {
	params := make([]script.Param, 0, len(step.Params))
	for key, value := range step.Params {
		params = append(params, buildParam(table, key, value))
	}
	return script.NewDescriptor(script.TaskKind(step.Task), params...)
}

func buildParam(table *tableState, key string, value any) script.Param {
	switch key {
	case script.ParamContainer, script.ParamSrcContainer, script.ParamDestContainer:
		name, _ := value.(string)
		return script.WithPile(key, table.piles[name])
	case script.ParamBoardPosition:
		return script.WithPosition(key, decodePosition(value))
	case script.ParamDegrees, script.ParamDestIndex, script.ParamPileIndex, script.ParamModification:
		return script.WithInt(key, decodeInt(value))
	case script.ParamSetFaceup, script.ParamSetToMod:
		b, _ := value.(bool)
		return script.WithBool(key, b)
	default:
		switch v := value.(type) {
		case string:
			return script.WithString(key, v)
		case bool:
			return script.WithBool(key, v)
		case float64:
			return script.WithInt(key, int(v))
		case int:
			return script.WithInt(key, v)
		default:
			return script.WithString(key, fmt.Sprint(v))
		}
	}
}

// decodeInt accepts the numeric forms JSON and YAML decoders produce.
func decodeInt(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func decodePosition(value any) board.Position {
	switch v := value.(type) {
	case board.Position:
		return v
	case map[string]any:
		return board.Position{
			X: decodeFloat(v["x"]),
			Y: decodeFloat(v["y"]),
		}
	default:
		return board.Position{}
	}
}

func decodeFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}
