package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// ValidationEvent tells connected clients that the validation state for a
// competition changed. It carries ids only: clients re-fetch authoritative
// state instead of trusting the payload (deliveries may arrive duplicated
// or out of order).
type ValidationEvent struct {
	Type          string `json:"type"` // "request_created" or "request_resolved"
	RequestID     string `json:"request_id"`
	CompetitionID int    `json:"competition_id"`
	ClimberID     string `json:"climber_id"`
	BoulderID     string `json:"boulder_id"`
	Status        string `json:"status"`
}

// Hub fans validation events out to every WebSocket client watching a
// competition, except the climber who caused the event.
type Hub struct {
	mu        sync.Mutex
	clients   map[int]map[*websocket.Conn]string // competition id -> conn -> user id
	broadcast chan ValidationEvent
}

func NewHub() *Hub {
	h := &Hub{
		clients:   make(map[int]map[*websocket.Conn]string),
		broadcast: make(chan ValidationEvent, 64),
	}
	go h.run()
	return h
}

// RegisterClient adds a connection to a competition's client set.
func (h *Hub) RegisterClient(competitionID int, userID string, conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients[competitionID] == nil {
		h.clients[competitionID] = make(map[*websocket.Conn]string)
	}
	h.clients[competitionID][conn] = userID
	h.mu.Unlock()
}

// UnregisterClient removes a connection.
func (h *Hub) UnregisterClient(competitionID int, conn *websocket.Conn) {
	h.mu.Lock()
	if clients, exists := h.clients[competitionID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, competitionID)
		}
	}
	h.mu.Unlock()
}

// BroadcastValidationEvent queues an event for delivery. Never blocks the
// caller; delivery is best effort and clients reconcile by re-reading.
func (h *Hub) BroadcastValidationEvent(event ValidationEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("Realtime: dropping event for competition %d, broadcast queue full", event.CompetitionID)
	}
}

func (h *Hub) run() {
	for event := range h.broadcast {
		h.mu.Lock()
		if clients, exists := h.clients[event.CompetitionID]; exists {
			for conn, userID := range clients {
				if userID == event.ClimberID {
					continue
				}
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Realtime: WebSocket write error: %v", err)
					conn.Close()
					delete(clients, conn)
				}
			}
		}
		h.mu.Unlock()
	}
}
