// Package rooms tracks which transport sessions are subscribed to which
// logical rooms. Membership lives only in process memory: it is not a
// source of truth and is rebuilt from scratch by clients rejoining after
// a restart.
package rooms

import (
	"fmt"
	"sync"

	"quickbite/internal/errs"
	"quickbite/internal/models"
)

// Registry maps room ids to the set of joined session ids. All methods
// are safe for concurrent use and never require an order-level lock.
type Registry struct {
	mu sync.RWMutex

	// rooms[roomID][sessionID]
	rooms map[string]map[string]bool

	// sessions[sessionID][roomID], kept in lockstep with rooms so a
	// disconnect can purge without scanning every room
	sessions map[string]map[string]bool
}

// NewRegistry creates an empty room registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:    make(map[string]map[string]bool),
		sessions: make(map[string]map[string]bool),
	}
}

// Join adds a session to a room. Joining a room the session is already in
// is a no-op.
func (r *Registry) Join(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[string]bool)
	}
	r.rooms[roomID][sessionID] = true

	if r.sessions[sessionID] == nil {
		r.sessions[sessionID] = make(map[string]bool)
	}
	r.sessions[sessionID][roomID] = true
}

// Leave removes a session from a room. Leaving a room the session never
// joined is a no-op.
func (r *Registry) Leave(roomID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remove(roomID, sessionID)
}

// OnDisconnect removes the session from every room it belonged to.
// Clients do not reliably send an explicit leave, so the transport calls
// this on every connection teardown.
func (r *Registry) OnDisconnect(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.sessions[sessionID] {
		r.remove(roomID, sessionID)
	}
}

// MembersOf returns a snapshot of the sessions currently in a room.
func (r *Registry) MembersOf(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[roomID]))
	for sessionID := range r.rooms[roomID] {
		members = append(members, sessionID)
	}
	return members
}

// Rooms returns a snapshot of the rooms a session has joined.
func (r *Registry) Rooms(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := make([]string, 0, len(r.sessions[sessionID]))
	for roomID := range r.sessions[sessionID] {
		joined = append(joined, roomID)
	}
	return joined
}

// remove deletes one membership edge. Caller holds r.mu.
func (r *Registry) remove(roomID, sessionID string) {
	if members := r.rooms[roomID]; members != nil {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if joined := r.sessions[sessionID]; joined != nil {
		delete(joined, roomID)
		if len(joined) == 0 {
			delete(r.sessions, sessionID)
		}
	}
}

// AuthorizeOrderJoin decides whether an actor may join an order's room:
// the order's customer, the restaurant serving it, its assigned delivery
// partner, or an admin. Everyone else gets ErrUnauthorized and is not
// added.
func AuthorizeOrderJoin(order *models.Order, actor models.Actor) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if actor.ID == order.CustomerID {
			return nil
		}
	case models.RoleRestaurant:
		if actor.ID == order.RestaurantID {
			return nil
		}
	case models.RoleDelivery:
		if order.Assigned() && actor.ID == order.DeliveryPartnerID {
			return nil
		}
	}
	return fmt.Errorf("%s %s may not join room %s: %w",
		actor.Role, actor.ID, ForOrder(order.ID), errs.ErrUnauthorized)
}
