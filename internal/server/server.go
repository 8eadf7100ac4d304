package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deckforge/cardscript-engine-go/internal/config"
	"github.com/deckforge/cardscript-engine-go/internal/game"
	"github.com/deckforge/cardscript-engine-go/internal/script"
)

// Server serves tables over websockets. It doubles as the engine's target
// selector: selection requests are broadcast to clients and the first
// target_selected answer wins.
type Server struct {
	cfg    config.ServerConfig
	engine *game.TableEngine
	logger *zap.Logger
	hub    *Hub
	http   *http.Server

	mu      sync.Mutex
	pending map[string]*pendingSelection
}

type pendingSelection struct {
	results  chan script.TargetResult
	answered chan struct{}
	once     sync.Once
}

func newPendingSelection() *pendingSelection {
	return &pendingSelection{
		results:  make(chan script.TargetResult, 1),
		answered: make(chan struct{}),
	}
}

// deliver answers the selection exactly once; later calls are no-ops.
func (p *pendingSelection) deliver(result script.TargetResult) {
	p.once.Do(func() {
		p.results <- result
		close(p.answered)
	})
}

// New creates a websocket server fronting the engine and installs itself as
// the engine's target selector.
func New(cfg config.ServerConfig, engine *game.TableEngine, logger *zap.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		engine:  engine,
		logger:  logger,
		hub:     newHub(logger),
		pending: make(map[string]*pendingSelection),
	}
	engine.SetTargetSelector(s)
	engine.SetNotificationHandler(s.handleNotification)
	return s
}

// Handler returns the HTTP handler serving the /ws endpoint. The hub must be
// running before connections arrive; Start takes care of that.
func (s *Server) Handler() http.Handler {
	upgrader := newUpgrader(s.cfg.WebSocket)
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		client := &Client{
			conn: conn,
			send: make(chan []byte, 256),
		}
		select {
		case s.hub.register <- client:
		case <-s.hub.done:
			conn.Close()
			return
		}
		go client.writePump()
		go client.readPump(s)
	})
	return mux
}

// Start runs the hub and the HTTP listener. It blocks until the listener
// stops.
func (s *Server) Start() error {
	go s.hub.run()

	s.http = &http.Server{
		Addr:    s.cfg.WebSocket.Address,
		Handler: s.Handler(),
	}
	s.logger.Info("websocket server listening", zap.String("address", s.cfg.WebSocket.Address))
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP listener gracefully, then stops the hub so the
// fan-out loop and client pumps exit.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.hub.stop()
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// SelectTargets implements the script target selector. The request is
// broadcast to every client; the chain stays suspended until an answer
// arrives, the configured timeout passes, or ctx is cancelled.
func (s *Server) SelectTargets(ctx context.Context, req script.TargetRequest) <-chan script.TargetResult {
	pending := newPendingSelection()

	s.mu.Lock()
	s.pending[req.ID] = pending
	s.mu.Unlock()

	payload := targetRequestPayload{
		RequestID: req.ID,
		TaskName:  string(req.TaskName),
	}
	if req.Owner != nil {
		payload.OwnerID = req.Owner.ID
	}
	if req.Trigger != nil {
		payload.TriggerID = req.Trigger.ID
	}
	s.broadcastMessage(WSMessage{Type: "target_request", RequestID: req.ID}, payload)

	go func() {
		timeout := s.cfg.SelectionTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			pending.deliver(script.TargetResult{})
		case <-timer.C:
			s.logger.Warn("target selection timed out", zap.String("request_id", req.ID))
			pending.deliver(script.TargetResult{})
		case <-pending.answered:
		}

		s.mu.Lock()
		delete(s.pending, req.ID)
		s.mu.Unlock()
	}()

	return pending.results
}

// resolveSelection answers an outstanding target request.
func (s *Server) resolveSelection(client *Client, payload targetSelectedPayload) {
	s.mu.Lock()
	pending, ok := s.pending[payload.RequestID]
	s.mu.Unlock()
	if !ok {
		s.logger.Warn("answer for unknown target request",
			zap.String("request_id", payload.RequestID),
		)
		return
	}

	cards := s.engine.ResolveCards(client.table(), payload.CardIDs)
	pending.deliver(script.TargetResult{Targets: cards})
}

func (s *Server) handleMessage(client *Client, msg WSMessage) {
	switch msg.Type {
	case "create_table":
		var payload createTablePayload
		decode(msg.Data, &payload)
		tableID, err := s.engine.CreateTable(payload.Name)
		if err != nil {
			s.sendError(client, msg.Type, err)
			return
		}
		client.joinTable(tableID)
		s.sendTableState(client, tableID)

	case "join_table":
		client.joinTable(msg.TableID)
		s.sendTableState(client, msg.TableID)

	case "create_pile":
		var payload createPilePayload
		decode(msg.Data, &payload)
		if err := s.engine.CreatePile(client.table(), payload.Name); err != nil {
			s.sendError(client, msg.Type, err)
			return
		}
		s.broadcastTableState(client.table())

	case "add_card":
		var payload addCardPayload
		decode(msg.Data, &payload)
		ctx := context.Background()
		var err error
		if payload.Position != nil {
			_, err = s.engine.AddCardToBoard(ctx, client.table(), payload.Template, *payload.Position)
		} else {
			_, err = s.engine.AddCardToPile(ctx, client.table(), payload.Template, payload.Pile)
		}
		if err != nil {
			s.sendError(client, msg.Type, err)
			return
		}
		s.broadcastTableState(client.table())

	case "run_script":
		var payload runScriptPayload
		decode(msg.Data, &payload)
		tableID := client.table()
		// Chains suspend on selection, so each runs off the read loop.
		go func() {
			err := s.engine.RunScript(context.Background(), tableID,
				payload.OwnerID, payload.TriggerID, payload.Steps, payload.SignalData)
			if err != nil {
				s.sendError(client, "run_script", err)
				return
			}
			s.broadcastTableState(tableID)
			s.sendMessage(client, WSMessage{Type: "chain_done", TableID: tableID}, nil)
		}()

	case "target_selected":
		var payload targetSelectedPayload
		decode(msg.Data, &payload)
		if payload.RequestID == "" {
			payload.RequestID = msg.RequestID
		}
		s.resolveSelection(client, payload)

	case "table_state":
		s.sendTableState(client, client.table())

	default:
		s.logger.Warn("unknown websocket message type", zap.String("type", msg.Type))
	}
}

// handleNotification relays engine notifications to every client.
func (s *Server) handleNotification(n game.TableNotification) {
	s.broadcastMessage(WSMessage{Type: "table_event", TableID: n.TableID}, n.Data)
}

func (s *Server) sendTableState(client *Client, tableID string) {
	view, err := s.engine.TableView(tableID)
	if err != nil {
		s.sendError(client, "table_state", err)
		return
	}
	s.sendMessage(client, WSMessage{Type: "table_state", TableID: tableID}, view)
}

func (s *Server) broadcastTableState(tableID string) {
	view, err := s.engine.TableView(tableID)
	if err != nil {
		s.logger.Warn("table state snapshot failed", zap.Error(err))
		return
	}
	s.broadcastMessage(WSMessage{Type: "table_state", TableID: tableID}, view)
}

func (s *Server) sendMessage(client *Client, msg WSMessage, data any) {
	raw, err := encode(msg, data)
	if err != nil {
		s.logger.Warn("message encode failed", zap.Error(err))
		return
	}
	select {
	case client.send <- raw:
	default:
	}
}

func (s *Server) broadcastMessage(msg WSMessage, data any) {
	raw, err := encode(msg, data)
	if err != nil {
		s.logger.Warn("message encode failed", zap.Error(err))
		return
	}
	select {
	case s.hub.broadcast <- raw:
	case <-s.hub.done:
	}
}

func (s *Server) sendError(client *Client, requestType string, err error) {
	s.logger.Warn("request failed",
		zap.String("type", requestType),
		zap.Error(err),
	)
	s.sendMessage(client, WSMessage{Type: "error", Error: err.Error()}, nil)
}

func encode(msg WSMessage, data any) ([]byte, error) {
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return json.Marshal(msg)
}

func decode(raw json.RawMessage, out any) {
	if len(raw) == 0 {
		return
	}
	// Malformed payloads leave defaults in place; the handlers validate.
	_ = json.Unmarshal(raw, out)
}
