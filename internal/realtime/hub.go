// Package realtime is the websocket transport: it owns connections and
// their lifecycle, delegates room membership to the rooms registry and
// implements the publisher the dispatcher fans out through.
package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"quickbite/internal/location"
	"quickbite/internal/monitoring"
	"quickbite/internal/rooms"
	"quickbite/internal/service"
)

// Hub tracks live sessions and delivers room broadcasts to them.
type Hub struct {
	registry *rooms.Registry

	mu       sync.RWMutex
	sessions map[string]*Session

	orders    *service.OrderService
	locations *location.Handler
}

// NewHub creates a hub over a room registry. Attach must be called before
// the hub serves connections.
func NewHub(registry *rooms.Registry) *Hub {
	return &Hub{
		registry: registry,
		sessions: make(map[string]*Session),
	}
}

// Attach wires the services the session read loop calls into. Split from
// NewHub because the dispatcher publishing through this hub is itself a
// dependency of those services.
func (h *Hub) Attach(orders *service.OrderService, locations *location.Handler) {
	h.orders = orders
	h.locations = locations
}

// Registry exposes the room registry for diagnostics and tests.
func (h *Hub) Registry() *rooms.Registry {
	return h.registry
}

// Publish sends an event to every session currently joined to the room.
// A session with a full send buffer just misses the event; offline
// clients recover state by re-fetching the order when they rejoin.
func (h *Hub) Publish(roomID, event string, payload interface{}) {
	data, err := json.Marshal(outbound{Event: event, Data: payload})
	if err != nil {
		log.Printf("marshal %s event for room %s: %v", event, roomID, err)
		return
	}

	members := h.registry.MembersOf(roomID)
	if len(members) == 0 {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sessionID := range members {
		if s := h.sessions[sessionID]; s != nil {
			s.enqueue(data)
		}
	}
}

func (h *Hub) register(s *Session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
	monitoring.ActiveSessions.Inc()
}

func (h *Hub) unregister(s *Session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()

	// clients rarely send explicit leaves, purge everything
	h.registry.OnDisconnect(s.id)
	monitoring.ActiveSessions.Dec()
}
