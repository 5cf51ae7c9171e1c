package models

import (
	"time"
)

// OrderStatus represents the possible states of an order
type OrderStatus string

const (
	StatusPlaced         OrderStatus = "Placed"
	StatusAccepted       OrderStatus = "Accepted"
	StatusPreparing      OrderStatus = "Preparing"
	StatusReadyForPickup OrderStatus = "ReadyForPickup"
	StatusOnTheWay       OrderStatus = "OnTheWay"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"

	// StatusRejected is a transition request, never a stored status: it
	// returns an assigned order to ReadyForPickup with the partner cleared.
	StatusRejected OrderStatus = "Rejected"
)

// Valid reports whether s is a status an order can be stored with.
func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPlaced, StatusAccepted, StatusPreparing, StatusReadyForPickup,
		StatusOnTheWay, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed from s.
func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// PaymentStatus represents the payment state of an order
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMode represents how an order is paid for
type PaymentMode string

const (
	PaymentCOD    PaymentMode = "cod"
	PaymentOnline PaymentMode = "online"
)

// TimelineEntry is one append-only history record of an order status change
type TimelineEntry struct {
	ID        uint        `json:"-" gorm:"primary_key"`
	OrderID   string      `json:"-" gorm:"index"`
	Status    OrderStatus `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
}

// OrderItem is a line item priced at order-creation time; unit price and
// name are snapshots and are never recomputed from the live catalog.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primary_key"`
	OrderID   string  `json:"-" gorm:"index"`
	DishID    string  `json:"dishId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// Order represents a customer order
type Order struct {
	ID                string          `json:"id" gorm:"primary_key"`
	CustomerID        string          `json:"customerId" gorm:"index"`
	RestaurantID      string          `json:"restaurantId" gorm:"index"`
	DeliveryPartnerID string          `json:"deliveryPartnerId,omitempty" gorm:"index"`
	Items             []OrderItem     `json:"items" gorm:"foreignkey:OrderID"`
	TotalAmount       float64         `json:"totalAmount"`
	Address           string          `json:"address"`
	DeliveryLat       float64         `json:"deliveryLat"`
	DeliveryLng       float64         `json:"deliveryLng"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	PaymentMode       PaymentMode     `json:"paymentMode"`
	Status            OrderStatus     `json:"status"`
	Timeline          []TimelineEntry `json:"timeline" gorm:"foreignkey:OrderID"`
	EstimatedMinutes  int             `json:"estimatedMinutes"`
	RoomID            string          `json:"roomId"`
	DeliveredAt       *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Assigned reports whether a delivery partner is attached to the order.
func (o *Order) Assigned() bool {
	return o.DeliveryPartnerID != ""
}

// LastTimeline returns the most recent timeline entry, or nil for an
// order that has none (never the case for orders built by the service).
func (o *Order) LastTimeline() *TimelineEntry {
	if len(o.Timeline) == 0 {
		return nil
	}
	return &o.Timeline[len(o.Timeline)-1]
}
