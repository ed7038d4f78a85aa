package ws

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Event types pushed to the live order board.
const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
	EventOrderDeleted = "order.deleted"
)

// OrderPayload is the order snapshot carried by every board event. Deletions
// carry only the order ID.
type OrderPayload struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	Status      string    `json:"status,omitempty"`
	Total       string    `json:"total,omitempty"`
}

// Event is one message on the wire.
type Event struct {
	Type    string       `json:"type"`
	Payload OrderPayload `json:"payload"`
}

// roomEvent pairs an event with the restaurant room it belongs to.
type roomEvent struct {
	restaurantID uuid.UUID
	event        Event
}

// Hub fans order events out to the board clients of each restaurant. All room
// state is owned by the Run goroutine; callers only talk to it over channels.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan roomEvent
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan roomEvent, 256),
	}
}

// Run owns the room bookkeeping. Call it once, as a goroutine, before
// serving connections.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.rooms[client.restaurantID] == nil {
				h.rooms[client.restaurantID] = make(map[*Client]bool)
			}
			h.rooms[client.restaurantID][client] = true

		case client := <-h.unregister:
			h.drop(client)

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.event)
			if err != nil {
				continue
			}
			for client := range h.rooms[ev.restaurantID] {
				select {
				case client.send <- message:
				default:
					// Send buffer full: the client stopped reading.
					h.drop(client)
				}
			}
		}
	}
}

// drop removes a client from its room and closes its send channel. Empty
// rooms are deleted so the map does not grow with churn.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.restaurantID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.restaurantID)
	}
}

// BroadcastToRestaurant queues an event for every client watching the given
// restaurant's board. Never blocks the caller.
func (h *Hub) BroadcastToRestaurant(restaurantID uuid.UUID, event Event) {
	h.broadcast <- roomEvent{restaurantID: restaurantID, event: event}
}
