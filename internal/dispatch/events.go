package dispatch

import (
	"time"

	"quickbite/internal/models"
)

// Event names on the server→client channel. Client→server names live in
// the realtime package with the session read loop.
const (
	EventStatusUpdate   = "status-update"
	EventLocationUpdate = "location-update"
	EventNewOrder       = "new-order"
	EventOrderJoined    = "order-joined"
	EventError          = "error"
)

// StatusEvent is the full-fidelity status change payload delivered to the
// order's room: current status plus the whole timeline.
type StatusEvent struct {
	OrderID   string                 `json:"orderId"`
	Status    models.OrderStatus     `json:"status"`
	PartnerID string                 `json:"partnerId,omitempty"`
	Timeline  []models.TimelineEntry `json:"timeline"`
	Timestamp time.Time              `json:"timestamp"`
}

// StatusNotice is the compact variant delivered to personal and
// restaurant rooms. It carries the same logical identity (orderId,
// status, timestamp) as the StatusEvent it was derived from.
type StatusNotice struct {
	OrderID   string             `json:"orderId"`
	Status    models.OrderStatus `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
}

// LocationEvent is a delivery partner GPS sample republished to an order room.
type LocationEvent struct {
	OrderID   string    `json:"orderId"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	PartnerID string    `json:"partnerId"`
	Timestamp time.Time `json:"timestamp"`
}

// NewOrderEvent notifies a restaurant's room about a freshly placed order.
type NewOrderEvent struct {
	Order     *models.Order `json:"order"`
	Timestamp time.Time     `json:"timestamp"`
}
