// Package realtime pushes state changes to the websocket clients of a user.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"seswa/internal/metrics"
	"seswa/internal/pkg/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 64 * 1024
	sendBuffer = 64
)

// Upgrader accepts any origin; the route sits behind JWT auth.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Event types pushed to clients.
const (
	EventNotificationsUpdated = "notifications.updated"
	EventChatsUpdated         = "chats.updated"
	EventNewMessage           = "chat.message"
)

// Event is a server to client frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ClientFrame is a client to server frame.
type ClientFrame struct {
	Type    string `json:"type"`
	ChatID  string `json:"chat_id,omitempty"`
	ID      string `json:"id,omitempty"`
	Content string `json:"content,omitempty"`
}

type connection struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub tracks every open connection per user. A user may hold several.
type Hub struct {
	log *zap.Logger

	mu          sync.RWMutex
	connections map[string]map[*connection]struct{}
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		log:         logger.OrNop(log).With(zap.String("component", "realtime")),
		connections: make(map[string]map[*connection]struct{}),
	}
}

func (h *Hub) register(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.userID]
	if !ok {
		set = make(map[*connection]struct{})
		h.connections[c.userID] = set
	}
	set[c] = struct{}{}
	metrics.RealtimeConnections.Inc()
}

func (h *Hub) unregister(c *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.connections[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.connections, c.userID)
	}
	metrics.RealtimeConnections.Dec()
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

// Publish sends ev to every connection of userID. Slow clients miss frames
// instead of blocking the publisher.
func (h *Hub) Publish(userID string, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("failed to encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.connections[userID] {
		select {
		case c.send <- data:
		default:
			h.log.Debug("client too slow, frame dropped", zap.String("user_id", userID), zap.String("type", ev.Type))
		}
	}
}

// ServeWS registers conn for userID and blocks until it disconnects. snapshot,
// when set, is called after registration and its events are queued for the
// client, so no change published while it runs is lost. Frames sent by the
// client are passed to onFrame, which may be nil.
func (h *Hub) ServeWS(conn *websocket.Conn, userID string, onFrame func(ClientFrame), snapshot func() []Event) {
	c := &connection{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(c)
	h.log.Debug("client connected", zap.String("user_id", userID))

	if snapshot != nil {
		for _, ev := range snapshot() {
			data, err := json.Marshal(ev)
			if err != nil {
				h.log.Error("failed to encode event", zap.String("type", ev.Type), zap.Error(err))
				continue
			}
			select {
			case c.send <- data:
			default:
				h.log.Warn("send buffer full, snapshot frame dropped", zap.String("user_id", userID), zap.String("type", ev.Type))
			}
		}
	}

	go h.writePump(c)
	h.readPump(c, onFrame)
}

func (h *Hub) readPump(c *connection, onFrame func(ClientFrame)) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		h.log.Debug("client disconnected", zap.String("user_id", c.userID))
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var frame ClientFrame
		if err := json.Unmarshal(msg, &frame); err != nil {
			continue
		}
		if onFrame != nil {
			onFrame(frame)
		}
	}
}

func (h *Hub) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Shutdown disconnects every client. Their read loops unregister them.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, set := range h.connections {
		for c := range set {
			c.conn.Close()
		}
	}
}
