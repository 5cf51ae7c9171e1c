// Package dispatch computes, for each domain event, the complete
// deduplicated set of rooms to notify and publishes one message per room.
// It does not own connections: publishing goes through the injected
// Publisher, and ordering per order is inherited from the caller's
// per-order serialized execution path.
package dispatch

import (
	"time"

	"quickbite/internal/models"
	"quickbite/internal/monitoring"
	"quickbite/internal/rooms"
)

// Publisher delivers a payload to every session currently joined to a
// room. Delivery is at-most-once; nothing is persisted for absent
// sessions.
type Publisher interface {
	Publish(roomID, event string, payload interface{})
}

// Dispatcher fans domain events out to the affected rooms.
type Dispatcher struct {
	pub Publisher
}

// NewDispatcher creates a dispatcher publishing through pub.
func NewDispatcher(pub Publisher) *Dispatcher {
	return &Dispatcher{pub: pub}
}

// OrderStatusChanged announces a status transition. The order room gets
// the full status plus timeline; the customer, restaurant and (once
// assigned) partner rooms get the compact notice. Each room is published
// to exactly once even if two audiences share a room.
func (d *Dispatcher) OrderStatusChanged(order *models.Order, status models.OrderStatus, at time.Time) {
	full := StatusEvent{
		OrderID:   order.ID,
		Status:    status,
		PartnerID: order.DeliveryPartnerID,
		Timeline:  order.Timeline,
		Timestamp: at,
	}
	notice := StatusNotice{OrderID: order.ID, Status: status, Timestamp: at}

	d.publish(order.RoomID, EventStatusUpdate, full)

	seen := map[string]bool{order.RoomID: true}
	for _, roomID := range []string{
		rooms.ForUser(order.CustomerID),
		rooms.ForRestaurant(order.RestaurantID),
		rooms.ForPartner(order.DeliveryPartnerID),
	} {
		if roomID == rooms.ForPartner("") || seen[roomID] {
			continue
		}
		seen[roomID] = true
		d.publish(roomID, EventStatusUpdate, notice)
	}
}

// LocationChanged republishes a partner GPS sample to the room of every
// order the partner is actively serving.
func (d *Dispatcher) LocationChanged(partnerID string, lat, lng float64, active []*models.Order, at time.Time) {
	seen := make(map[string]bool, len(active))
	for _, order := range active {
		if seen[order.RoomID] {
			continue
		}
		seen[order.RoomID] = true
		d.publish(order.RoomID, EventLocationUpdate, LocationEvent{
			OrderID:   order.ID,
			Lat:       lat,
			Lng:       lng,
			PartnerID: partnerID,
			Timestamp: at,
		})
	}
}

// OrderPlaced notifies the receiving restaurant's room only.
func (d *Dispatcher) OrderPlaced(order *models.Order, at time.Time) {
	d.publish(rooms.ForRestaurant(order.RestaurantID), EventNewOrder, NewOrderEvent{
		Order:     order,
		Timestamp: at,
	})
}

func (d *Dispatcher) publish(roomID, event string, payload interface{}) {
	monitoring.EventsDispatched.WithLabelValues(event).Inc()
	d.pub.Publish(roomID, event, payload)
}
