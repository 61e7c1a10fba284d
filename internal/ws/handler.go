package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 65536
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client represents a connected WebSocket client.
// send is never closed; done tells the writer to stop.
type Client struct {
	conn      *websocket.Conn
	playerID  string
	matchID   string
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, playerID, matchID string) *Client {
	return &Client{
		conn:     conn,
		playerID: playerID,
		matchID:  matchID,
		send:     make(chan []byte, 256),
		done:     make(chan struct{}),
	}
}

// close stops the write pump. Safe to call more than once and while the
// read pump is still queueing messages.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Hub maintains the set of active clients
type Hub struct {
	clients    map[string]*Client            // playerID -> Client
	matchRooms map[string]map[string]*Client // matchID -> playerID -> Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		matchRooms: make(map[string]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// BroadcastToMatch sends a message to all players in a match
func (h *Hub) BroadcastToMatch(matchID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if room, exists := h.matchRooms[matchID]; exists {
		for _, client := range room {
			select {
			case client.send <- data:
			default:
				log.Printf("[WS] Send buffer full for player %s in match %s, dropping message", client.playerID, matchID)
			}
		}
	}
}

// SendToPlayer sends a message to a specific player
func (h *Hub) SendToPlayer(playerID string, message interface{}) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("[WS] Error marshaling message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client, exists := h.clients[playerID]; exists {
		select {
		case client.send <- data:
		default:
			log.Printf("[WS] SendToPlayer dropped message for player %s (buffer full)", playerID)
		}
	}
}

// RoomSize returns the number of local sockets attached to a match.
func (h *Hub) RoomSize(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.matchRooms[matchID])
}

// attach adds client to the hub and returns the connection it replaced, if any.
func (h *Hub) attach(client *Client) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	old := h.clients[client.playerID]
	if old != nil {
		if room, exists := h.matchRooms[old.matchID]; exists {
			delete(room, old.playerID)
		}
	}

	h.clients[client.playerID] = client
	if _, exists := h.matchRooms[client.matchID]; !exists {
		h.matchRooms[client.matchID] = make(map[string]*Client)
	}
	h.matchRooms[client.matchID][client.playerID] = client
	return old
}

// detach removes client if it is still the current connection for its player.
func (h *Hub) detach(client *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	cur, ok := h.clients[client.playerID]
	if !ok || cur != client {
		return false
	}
	delete(h.clients, client.playerID)
	if room, exists := h.matchRooms[client.matchID]; exists {
		delete(room, client.playerID)
		if len(room) == 0 {
			delete(h.matchRooms, client.matchID)
		}
	}
	return true
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] Write error for player %s: %v", c.playerID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] Ping error for player %s: %v", c.playerID, err)
				return
			}
		}
	}
}

// sendError sends an error message to the client
func (c *Client) sendError(message string) {
	data, _ := json.Marshal(map[string]interface{}{
		"type":    "error",
		"message": message,
	})
	select {
	case <-c.done:
	case c.send <- data:
	default:
		log.Printf("[WS] Dropped error for player %s (buffer full)", c.playerID)
	}
}
