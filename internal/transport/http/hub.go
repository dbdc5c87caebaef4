package http

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// outboundMessage is the wire envelope for everything the server sends.
type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// client is one live websocket connection. Writes go through the buffered send
// channel so a single writer goroutine owns the socket.
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan outboundMessage
	done   chan struct{}
	topics map[string]struct{}
}

// Hub is the connection registry and broadcast gateway: transient connection
// ids on one side, room topics on the other. No business logic lives here.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	topics  map[string]map[string]*client
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*client),
		topics:  make(map[string]map[string]*client),
		logger:  logger,
	}
}

func (h *Hub) add(id string, conn *websocket.Conn) *client {
	c := &client{
		id:     id,
		conn:   conn,
		send:   make(chan outboundMessage, 16),
		done:   make(chan struct{}),
		topics: make(map[string]struct{}),
	}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

// remove unregisters the connection and returns the topics it was subscribed
// to, so the caller can run room-level disconnect handling.
func (h *Hub) remove(id string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[id]
	if !ok {
		return nil
	}
	delete(h.clients, id)
	rooms := make([]string, 0, len(c.topics))
	for code := range c.topics {
		rooms = append(rooms, code)
		h.dropFromTopicLocked(id, code)
	}
	// send stays open; the writer goroutine exits via done, so late
	// broadcasts racing a disconnect cannot panic.
	close(c.done)
	return rooms
}

// JoinTopic subscribes a connection to a room's fan-out.
func (h *Hub) JoinTopic(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.topics[roomCode] == nil {
		h.topics[roomCode] = make(map[string]*client)
	}
	h.topics[roomCode][connID] = c
	c.topics[roomCode] = struct{}{}
}

// LeaveTopic drops a connection from a room's fan-out.
func (h *Hub) LeaveTopic(connID, roomCode string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[connID]; ok {
		delete(c.topics, roomCode)
	}
	h.dropFromTopicLocked(connID, roomCode)
}

// Broadcast delivers an event to every connection subscribed to the room topic.
func (h *Hub) Broadcast(roomCode, event string, payload any) {
	h.mu.RLock()
	members := make([]*client, 0, len(h.topics[roomCode]))
	for _, c := range h.topics[roomCode] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	msg := outboundMessage{Type: event, Payload: payload}
	for _, c := range members {
		h.deliver(c, msg)
	}
}

// SendToConnection delivers an event to a single connection, if still present.
func (h *Hub) SendToConnection(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	h.deliver(c, outboundMessage{Type: event, Payload: payload})
}

func (h *Hub) deliver(c *client, msg outboundMessage) {
	select {
	case c.send <- msg:
	default:
		// Slow consumer: drop the message rather than block room fan-out.
		h.logger.Warn("dropping message for slow connection",
			zap.String("conn", c.id),
			zap.String("event", msg.Type))
	}
}

func (h *Hub) dropFromTopicLocked(connID, roomCode string) {
	members, ok := h.topics[roomCode]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(h.topics, roomCode)
	}
}
