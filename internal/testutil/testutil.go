// Package testutil provides in-memory doubles for the persistence and
// publish boundaries so core behavior can be tested without a database
// or live sockets.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quickbite/internal/errs"
	"quickbite/internal/models"
)

// MemStore implements store.OrderStore and store.PartnerStore in memory.
// Like the real document store it hands out copies, so mutations only
// become visible through UpdateOrder.
type MemStore struct {
	mu       sync.Mutex
	orders   map[string]*models.Order
	partners map[string]*models.DeliveryPartner
	nextID   uint
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		orders:   make(map[string]*models.Order),
		partners: make(map[string]*models.DeliveryPartner),
	}
}

// SeedPartner inserts a partner record.
func (m *MemStore) SeedPartner(p models.DeliveryPartner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.partners[p.UserID] = &p
}

func copyOrder(o *models.Order) *models.Order {
	dup := *o
	dup.Items = append([]models.OrderItem(nil), o.Items...)
	dup.Timeline = append([]models.TimelineEntry(nil), o.Timeline...)
	if o.DeliveredAt != nil {
		t := *o.DeliveredAt
		dup.DeliveredAt = &t
	}
	return &dup
}

// CreateOrder stores a copy of the order, tagging new timeline entries
// with ids the way the database would.
func (m *MemStore) CreateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; ok {
		return fmt.Errorf("order %s exists", order.ID)
	}
	m.tagTimeline(order)
	m.orders[order.ID] = copyOrder(order)
	return nil
}

// GetOrder returns a copy or ErrNotFound.
func (m *MemStore) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", id, errs.ErrNotFound)
	}
	return copyOrder(order), nil
}

// UpdateOrder replaces the stored document.
func (m *MemStore) UpdateOrder(ctx context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[order.ID]; !ok {
		return fmt.Errorf("order %s: %w", order.ID, errs.ErrNotFound)
	}
	m.tagTimeline(order)
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *MemStore) tagTimeline(order *models.Order) {
	for i := range order.Timeline {
		if order.Timeline[i].ID == 0 {
			m.nextID++
			order.Timeline[i].ID = m.nextID
		}
	}
}

// FindOrdersByCustomer returns copies of a customer's orders.
func (m *MemStore) FindOrdersByCustomer(ctx context.Context, customerID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, order := range m.orders {
		if order.CustomerID == customerID {
			out = append(out, copyOrder(order))
		}
	}
	return out, nil
}

// FindActiveOrdersByPartner returns the partner's in-progress orders.
func (m *MemStore) FindActiveOrdersByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Order
	for _, order := range m.orders {
		if order.DeliveryPartnerID != partnerID {
			continue
		}
		if order.Status == models.StatusReadyForPickup || order.Status == models.StatusOnTheWay {
			out = append(out, copyOrder(order))
		}
	}
	return out, nil
}

// CountOrdersByPartner counts the partner's orders in a status.
func (m *MemStore) CountOrdersByPartner(ctx context.Context, partnerID string, status models.OrderStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, order := range m.orders {
		if order.DeliveryPartnerID == partnerID && order.Status == status {
			count++
		}
	}
	return count, nil
}

// GetPartner returns a copy or ErrNotFound.
func (m *MemStore) GetPartner(ctx context.Context, userID string) (*models.DeliveryPartner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	partner, ok := m.partners[userID]
	if !ok {
		return nil, fmt.Errorf("partner %s: %w", userID, errs.ErrNotFound)
	}
	dup := *partner
	return &dup, nil
}

// SavePartner stores a copy of the partner record.
func (m *MemStore) SavePartner(ctx context.Context, partner *models.DeliveryPartner) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	dup := *partner
	m.partners[partner.UserID] = &dup
	return nil
}

// CreditPartner adds one delivery's earnings.
func (m *MemStore) CreditPartner(ctx context.Context, userID string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	partner, ok := m.partners[userID]
	if !ok {
		return fmt.Errorf("partner %s: %w", userID, errs.ErrNotFound)
	}
	partner.Earnings += amount
	partner.TotalDeliveries++
	return nil
}

// UpdatePartnerLocation stores the last-known position.
func (m *MemStore) UpdatePartnerLocation(ctx context.Context, userID string, lat, lng float64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	partner, ok := m.partners[userID]
	if !ok {
		return fmt.Errorf("partner %s: %w", userID, errs.ErrNotFound)
	}
	partner.Lat, partner.Lng = lat, lng
	partner.LastActiveAt = at
	return nil
}

// MarkIdlePartnersOffline flips idle online partners offline.
func (m *MemStore) MarkIdlePartnersOffline(ctx context.Context, inactiveSince time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, partner := range m.partners {
		if partner.Online && partner.LastActiveAt.Before(inactiveSince) {
			partner.Online = false
			n++
		}
	}
	return n, nil
}

// Published is one recorded room publish.
type Published struct {
	Room    string
	Event   string
	Payload interface{}
}

// RecordingPublisher captures publishes in order for assertions.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Published
}

// Publish records the event.
func (r *RecordingPublisher) Publish(roomID, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Room: roomID, Event: event, Payload: payload})
}

// Events returns everything published so far, in order.
func (r *RecordingPublisher) Events() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Published(nil), r.events...)
}

// ByRoom returns the events published to one room, in order.
func (r *RecordingPublisher) ByRoom(roomID string) []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Published
	for _, e := range r.events {
		if e.Room == roomID {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears recorded events.
func (r *RecordingPublisher) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
