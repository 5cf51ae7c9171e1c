// Package store owns durable order and partner records. The database is
// the single mutable source of truth; everything the realtime layer keeps
// in memory must be reconstructable from it.
package store

import (
	"context"
	"time"

	"quickbite/internal/models"
)

// ActiveStatuses are the statuses during which a delivery partner is
// considered to be serving an order.
var ActiveStatuses = []models.OrderStatus{
	models.StatusReadyForPickup,
	models.StatusOnTheWay,
}

// OrderStore is the persistence contract for orders. Update is an atomic
// per-document write; callers serialize read-modify-write sequences per
// order id through a KeyedMutex.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	FindOrdersByCustomer(ctx context.Context, customerID string) ([]*models.Order, error)
	FindActiveOrdersByPartner(ctx context.Context, partnerID string) ([]*models.Order, error)
	CountOrdersByPartner(ctx context.Context, partnerID string, status models.OrderStatus) (int, error)
}

// PartnerStore is the persistence contract for delivery partner records.
type PartnerStore interface {
	GetPartner(ctx context.Context, userID string) (*models.DeliveryPartner, error)
	SavePartner(ctx context.Context, partner *models.DeliveryPartner) error
	CreditPartner(ctx context.Context, userID string, amount float64) error
	UpdatePartnerLocation(ctx context.Context, userID string, lat, lng float64, at time.Time) error
	MarkIdlePartnersOffline(ctx context.Context, inactiveSince time.Time) (int, error)
}
