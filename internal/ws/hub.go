package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Channels clients can subscribe to.
const (
	ChannelTrades      = "trades"
	ChannelLeaderboard = "leaderboard"
	ChannelEvents      = "events"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Msg is a message sent to clients.
type Msg struct {
	Type    string `json:"type"`
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// Hub manages per-channel WebSocket subscriptions for the live demo
// feed. A connection may subscribe to any number of channels.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*conn]bool // channel -> set of conns
	allConn map[*conn]bool
}

type conn struct {
	ws       *websocket.Conn
	send     chan []byte
	hub      *Hub
	channels map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*conn]bool),
		allConn: make(map[*conn]bool),
	}
}

// Publish sends a message to all subscribers of a channel. Slow
// clients are skipped rather than blocking the simulation.
func (h *Hub) Publish(channel, msgType string, data any) {
	msg := Msg{Type: msgType, Channel: channel, Data: data}
	b, err := json.Marshal(msg)
	if err != nil {
		return
	}
	// Hold the read lock across the sends: subscribe/removeConn mutate
	// the room map under the write lock, and removeConn closes send
	// channels. Sends are non-blocking, so the lock is held briefly.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[channel] {
		select {
		case c.send <- b:
		default:
			// slow client, drop
		}
	}
}

// HandleWS is the HTTP handler for WebSocket connections.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	c := &conn{
		ws:       wsConn,
		send:     make(chan []byte, 64),
		hub:      h,
		channels: make(map[string]bool),
	}
	h.mu.Lock()
	h.allConn[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (c *conn) readPump() {
	defer func() {
		c.hub.removeConn(c)
		c.ws.Close()
	}()
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			break
		}
		// Subscription message: {"action":"subscribe","channel":"trades"}
		var sub struct {
			Action  string `json:"action"`
			Channel string `json:"channel"`
		}
		if err := json.Unmarshal(msg, &sub); err != nil {
			continue
		}
		switch sub.Action {
		case "subscribe":
			c.hub.subscribe(c, sub.Channel)
		case "unsubscribe":
			c.hub.unsubscribe(c, sub.Channel)
		}
	}
}

func (c *conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

func (h *Hub) subscribe(c *conn, channel string) {
	if channel == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c.channels[channel] = true
	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[*conn]bool)
		h.rooms[channel] = room
	}
	room[c] = true
}

func (h *Hub) unsubscribe(c *conn, channel string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(c.channels, channel)
	if room, ok := h.rooms[channel]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, channel)
		}
	}
}

func (h *Hub) removeConn(c *conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.allConn, c)
	for channel := range c.channels {
		if room, ok := h.rooms[channel]; ok {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, channel)
			}
		}
	}
	close(c.send)
}
