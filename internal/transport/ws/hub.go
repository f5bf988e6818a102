package ws

import (
	"biteswipe/internal/service"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgSessionInvite    MessageType = service.NotificationSessionInvite
	MsgSessionCompleted MessageType = service.NotificationSessionCompleted
	MsgNotification     MessageType = "notification"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Hub keeps the live notification sockets of every connected user. A user
// may hold several connections, one per device.
type Hub struct {
	conns map[string]map[*Connection]struct{} // userID -> connections

	mu  sync.RWMutex
	log *zap.Logger

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	done       chan struct{}
	closeOnce  sync.Once
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID string
	Send   chan []byte
}

// BroadcastMessage is an encoded message for one user
type BroadcastMessage struct {
	UserID string
	Data   []byte
}

var _ service.Notifier = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		conns:      make(map[string]map[*Connection]struct{}),
		log:        log,
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for userID, conns := range h.conns {
				for conn := range conns {
					close(conn.Send)
				}
				delete(h.conns, userID)
			}
			h.mu.Unlock()
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.UserID] == nil {
				h.conns[conn.UserID] = make(map[*Connection]struct{})
			}
			h.conns[conn.UserID][conn] = struct{}{}
			h.mu.Unlock()
			h.log.Debug("user connected", zap.String("userId", conn.UserID))

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.conns[conn.UserID]; ok {
				if _, ok := conns[conn]; ok {
					delete(conns, conn)
					close(conn.Send)
					if len(conns) == 0 {
						delete(h.conns, conn.UserID)
					}
				}
			}
			h.mu.Unlock()
			h.log.Debug("user disconnected", zap.String("userId", conn.UserID))

		case msg := <-h.broadcast:
			h.mu.RLock()
			for conn := range h.conns[msg.UserID] {
				select {
				case conn.Send <- msg.Data:
				default:
					// Drop message if buffer full
					h.log.Warn("dropping notification, client too slow", zap.String("userId", msg.UserID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		close(conn.Send)
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Connected returns how many sockets userID holds
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Notify queues a message for every socket of userID. Users without a
// socket simply miss it.
func (h *Hub) Notify(ctx context.Context, userID, message string, payload map[string]interface{}) error {
	msgType := MsgNotification
	if t, ok := payload["type"].(string); ok && t != "" {
		msgType = MessageType(t)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	data, err := json.Marshal(&Message{Type: msgType, Message: message, Payload: raw})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case h.broadcast <- &BroadcastMessage{UserID: userID, Data: data}:
		return nil
	case <-h.done:
		return fmt.Errorf("hub closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close disconnects every socket and stops the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}
