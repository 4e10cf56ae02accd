package scoring

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512

	sendBufferSize = 256
)

// Client is one viewer connection subscribed to a single match.
type Client struct {
	ID      string
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	MatchID int

	mu     sync.Mutex
	closed bool
}

// NewClient wraps an upgraded websocket connection for the given match.
func NewClient(hub *Hub, conn *websocket.Conn, matchID int) *Client {
	return &Client{
		ID:      uuid.NewString(),
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		MatchID: matchID,
	}
}

// Envelope is the wire frame pushed to viewers. Type is "SNAPSHOT" for the
// state sent on subscribe and "SCORE_UPDATE" for incremental events.
type Envelope struct {
	Type    string      `json:"type"`
	MatchID int         `json:"match_id"`
	Payload interface{} `json:"payload"`
}

const (
	EnvelopeSnapshot    = "SNAPSHOT"
	EnvelopeScoreUpdate = "SCORE_UPDATE"
)

// Hub fans score events out to every subscriber of a match. Delivery is
// best-effort: a subscriber whose buffer is full is skipped, never waited
// on, so a slow viewer cannot stall the scoring path or other viewers.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	mu     sync.RWMutex
	rooms  map[int]map[*Client]bool
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[int]map[*Client]bool),
		logger:     logger,
	}
}

// Run owns room membership. It must be started once, before any subscribe.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.MatchID]; !ok {
				h.rooms[client.MatchID] = make(map[*Client]bool)
			}
			h.rooms[client.MatchID][client] = true
			h.logger.Info("viewer subscribed",
				slog.Int("match_id", client.MatchID),
				slog.String("client_id", client.ID),
				slog.Int("room_size", len(h.rooms[client.MatchID])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if room, ok := h.rooms[client.MatchID]; ok {
				if _, member := room[client]; member {
					client.mu.Lock()
					if !client.closed {
						close(client.Send)
						client.closed = true
					}
					client.mu.Unlock()
					delete(room, client)
					if len(room) == 0 {
						delete(h.rooms, client.MatchID)
					}
					h.logger.Info("viewer unsubscribed",
						slog.Int("match_id", client.MatchID),
						slog.String("client_id", client.ID))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish delivers an event to every current subscriber of the match.
func (h *Hub) Publish(matchID int, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	room, ok := h.rooms[matchID]
	if !ok {
		return
	}

	message, err := json.Marshal(Envelope{Type: eventType, MatchID: matchID, Payload: payload})
	if err != nil {
		h.logger.Error("failed to marshal score event",
			slog.Int("match_id", matchID), slog.Any("error", err))
		return
	}

	for client := range room {
		client.mu.Lock()
		if client.closed {
			client.mu.Unlock()
			continue
		}
		select {
		case client.Send <- message:
		default:
			h.logger.Warn("viewer send buffer full, dropping event",
				slog.Int("match_id", matchID),
				slog.String("client_id", client.ID))
		}
		client.mu.Unlock()
	}
}

// SendSnapshot queues a full-state frame to one client, used right after
// subscribe so reconnecting viewers need not replay missed events.
func (c *Client) SendSnapshot(payload interface{}) {
	message, err := json.Marshal(Envelope{Type: EnvelopeSnapshot, MatchID: c.MatchID, Payload: payload})
	if err != nil {
		c.Hub.logger.Error("failed to marshal snapshot",
			slog.Int("match_id", c.MatchID), slog.Any("error", err))
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- message:
	default:
	}
}

// ReadPump drains inbound frames until the connection drops. Viewers are
// read-only; anything they send is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warn("viewer connection error",
					slog.Int("match_id", c.MatchID),
					slog.String("client_id", c.ID),
					slog.Any("error", err))
			}
			return
		}
	}
}

// WritePump flushes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Fold any backlog into the same frame write.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
