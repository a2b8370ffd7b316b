package queue

import (
	"sync"

	"github.com/google/uuid"
)

// Event is pushed to a user's live connections.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type subscriber struct {
	userID string
	ch     chan Event
}

// Hub fans events out to the live connections of each user.
type Hub struct {
	clients map[string]subscriber
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]subscriber)}
}

// Subscribe registers a connection for userID and returns its id and
// event channel.
func (h *Hub) Subscribe(userID string) (string, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clientID := uuid.NewString()
	ch := make(chan Event, 100)
	h.clients[clientID] = subscriber{userID: userID, ch: ch}
	return clientID, ch
}

func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub, ok := h.clients[clientID]; ok {
		close(sub.ch)
		delete(h.clients, clientID)
	}
}

// Publish sends event to every connection of userID. Slow clients with a
// full buffer miss the event.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.clients {
		if sub.userID != userID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
