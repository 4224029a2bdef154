// Package realtime fans order state out to connected clients. Subscriptions
// are grouped into rooms keyed by order id or table number. Delivery is
// best-effort: a client that misses events re-fetches the order over HTTP.
package realtime

import (
	"fmt"
	"sync"

	"malume-nico/internal/logger"
)

// Event is the envelope pushed to subscribed clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Conn is the subset of a websocket connection the hub needs. Satisfied by
// *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// OrderRoom returns the room name for a single order's subscribers.
func OrderRoom(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

// TableRoom returns the room name for a table's subscribers.
func TableRoom(tableNumber string) string {
	return "table:" + tableNumber
}

// Hub holds the in-memory subscription state. It is lost on restart, which is
// acceptable: the database is the source of truth and clients resync via the
// order fetch endpoint.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[Conn]bool
	logger *logger.Logger
}

// NewHub creates an empty hub.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[Conn]bool),
		logger: log,
	}
}

// Join subscribes a connection to a room. A connection may belong to several
// rooms at once.
func (h *Hub) Join(room string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[Conn]bool)
		h.rooms[room] = members
	}
	members[c] = true
}

// Leave removes a connection from every room it joined.
func (h *Hub) Leave(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// PublishOrderUpdate pushes an order:update event to the order's room.
func (h *Hub) PublishOrderUpdate(orderID int64, payload interface{}) {
	h.broadcast(OrderRoom(orderID), Event{Type: "order:update", Payload: payload})
}

// PublishNewOrderForTable pushes an order:new event to the table's room.
func (h *Hub) PublishNewOrderForTable(tableNumber string, payload interface{}) {
	h.broadcast(TableRoom(tableNumber), Event{Type: "order:new", Payload: payload})
}

// broadcast delivers the event to every member of the room, at most once per
// connection. The mutex is held across the writes: websocket connections
// allow only one concurrent writer, and the hub is the only writer, so the
// lock is what serializes overlapping broadcasts touching the same
// connection. Write failures drop the connection from all rooms.
func (h *Hub) broadcast(room string, event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var dead []Conn
	for c := range h.rooms[room] {
		if err := c.WriteJSON(event); err != nil {
			if h.logger != nil {
				h.logger.Error("broadcast_failed", "Failed to deliver event, dropping subscriber", "", err, map[string]interface{}{
					"room":  room,
					"event": event.Type,
				})
			}
			c.Close()
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		h.remove(c)
	}
}

func (h *Hub) remove(c Conn) {
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize reports the current number of subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}
