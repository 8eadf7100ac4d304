// Package server exposes tables over websockets and relays interactive
// target selection between the script runtime and connected clients.
package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deckforge/cardscript-engine-go/internal/board"
	"github.com/deckforge/cardscript-engine-go/internal/config"
	"github.com/deckforge/cardscript-engine-go/internal/game"
)

// WSMessage is the envelope for every websocket frame, both directions.
type WSMessage struct {
	Type      string          `json:"type"`
	TableID   string          `json:"table_id,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type createTablePayload struct {
	Name string `json:"name"`
}

type createPilePayload struct {
	Name string `json:"name"`
}

type addCardPayload struct {
	Template string          `json:"template"`
	Pile     string          `json:"pile,omitempty"`
	Position *board.Position `json:"position,omitempty"`
}

type runScriptPayload struct {
	OwnerID    string            `json:"owner_id"`
	TriggerID  string            `json:"trigger_id,omitempty"`
	Steps      []game.ScriptStep `json:"steps"`
	SignalData map[string]any    `json:"signal_data,omitempty"`
}

type targetSelectedPayload struct {
	RequestID string   `json:"request_id"`
	CardIDs   []string `json:"card_ids"`
}

type targetRequestPayload struct {
	RequestID string `json:"request_id"`
	TaskName  string `json:"task_name"`
	OwnerID   string `json:"owner_id"`
	TriggerID string `json:"trigger_id,omitempty"`
}

// Client is one websocket connection.
type Client struct {
	conn    *websocket.Conn
	send    chan []byte
	tableID string
	mu      sync.Mutex
}

func (c *Client) table() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tableID
}

func (c *Client) joinTable(tableID string) {
	c.mu.Lock()
	c.tableID = tableID
	c.mu.Unlock()
}

// Hub tracks connected clients and fans messages out to them.
type Hub struct {
	logger *zap.Logger

	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once
}

func newHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// stop ends the run loop; it drains and disconnects every client.
func (h *Hub) stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("client registered")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Debug("client unregistered")
			}

		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

func (c *Client) readPump(s *Server) {
	defer func() {
		select {
		case s.hub.unregister <- c:
		case <-s.hub.done:
		}
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.logger.Warn("malformed websocket message", zap.Error(err))
			continue
		}
		s.handleMessage(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

func newUpgrader(cfg config.WebSocketConfig) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}
