package notify

import (
	"encoding/json"
	"log"
	"sync"
)

// Frame is one message pushed to subscribers.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type event struct {
	room string
	data []byte
}

// Hub fans events out to every client subscribed to a room. Delivery is
// broadcast, not work-queue: all subscribers of a room get every event.
// Nothing is persisted; a client connecting after an event never sees it.
type Hub struct {
	rooms map[string]map[*Client]bool

	broadcast  chan event
	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Quit stops Run and closes every connection.
	Quit chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client, 256),
		Quit:       make(chan struct{}),
	}
}

// Broadcast queues a frame for every subscriber of room. It never blocks;
// when the hub is saturated the event is dropped and logged.
func (h *Hub) Broadcast(room string, frame Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("hub: marshal frame: %v", err)
		return
	}
	select {
	case h.broadcast <- event{room: room, data: data}:
	default:
		log.Printf("hub: broadcast queue full, dropping event for %s", room)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.room] == nil {
				h.rooms[c.room] = make(map[*Client]bool)
			}
			h.rooms[c.room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.removeClient(c)

		case ev := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for c := range h.rooms[ev.room] {
				select {
				case c.send <- ev.data:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.RUnlock()

			// A full send buffer means the peer stopped reading; drop it.
			for _, c := range slow {
				h.removeClient(c)
			}

		case <-h.Quit:
			h.shutdown()
			return
		}
	}
}

// Subscribers counts current clients in a room.
func (h *Hub) Subscribers(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.rooms[c.room]
	if !ok || !clients[c] {
		return
	}
	delete(clients, c)
	if len(clients) == 0 {
		delete(h.rooms, c.room)
	}
	close(c.send)
	_ = c.conn.Close()
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	var all []*Client
	for _, clients := range h.rooms {
		for c := range clients {
			all = append(all, c)
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.mu.Unlock()

	for _, c := range all {
		close(c.send)
		_ = c.conn.Close()
	}
}
