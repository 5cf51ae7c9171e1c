// Package service sequences the order lifecycle: every mutation of a
// single order runs under that order's lock as read, transition, persist,
// dispatch. The state machine itself stays pure; this is the only place
// that touches the store and the dispatcher for a status change, which is
// what gives subscribers a consistent event order per order.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"quickbite/internal/dispatch"
	"quickbite/internal/errs"
	"quickbite/internal/lifecycle"
	"quickbite/internal/models"
	"quickbite/internal/monitoring"
	"quickbite/internal/rooms"
	"quickbite/internal/store"
)

// Policy carries the configurable business rules.
type Policy struct {
	// DeliveryFee is the fixed amount credited to a partner per delivery.
	DeliveryFee float64

	// MaxActiveOrders caps how many in-progress orders a partner may hold
	// at once. The default policy is a single active order.
	MaxActiveOrders int

	// DefaultETAMinutes is the delivery estimate stamped on new orders.
	DefaultETAMinutes int
}

// DefaultPolicy matches the documented defaults.
func DefaultPolicy() Policy {
	return Policy{DeliveryFee: 40, MaxActiveOrders: 1, DefaultETAMinutes: 30}
}

// ItemInput is one line of a new order. Name and unit price are resolved
// from the catalog by the caller and become immutable snapshots.
type ItemInput struct {
	DishID    string  `json:"dishId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

// PlaceOrderInput describes a new order.
type PlaceOrderInput struct {
	RestaurantID string             `json:"restaurantId"`
	Items        []ItemInput        `json:"items"`
	Address      string             `json:"address"`
	Lat          float64            `json:"lat"`
	Lng          float64            `json:"lng"`
	PaymentMode  models.PaymentMode `json:"paymentMode"`
}

// OrderService owns order mutations end to end.
type OrderService struct {
	orders     store.OrderStore
	partners   store.PartnerStore
	locks      *store.KeyedMutex
	dispatcher *dispatch.Dispatcher
	monitor    *monitoring.Monitor
	policy     Policy
}

// NewOrderService wires the order service.
func NewOrderService(orders store.OrderStore, partners store.PartnerStore, dispatcher *dispatch.Dispatcher, monitor *monitoring.Monitor, policy Policy) *OrderService {
	if policy.MaxActiveOrders <= 0 {
		policy.MaxActiveOrders = 1
	}
	return &OrderService{
		orders:     orders,
		partners:   partners,
		locks:      store.NewKeyedMutex(),
		dispatcher: dispatcher,
		monitor:    monitor,
		policy:     policy,
	}
}

// Place creates an order in Placed status, snapshots item pricing, derives
// the immutable room id and notifies the restaurant's room.
func (s *OrderService) Place(ctx context.Context, customerID string, in PlaceOrderInput) (*models.Order, error) {
	if in.RestaurantID == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("restaurant and items are required: %w", errs.ErrInvalidTransition)
	}

	now := time.Now()
	id := uuid.NewString()

	order := &models.Order{
		ID:               id,
		CustomerID:       customerID,
		RestaurantID:     in.RestaurantID,
		Address:          in.Address,
		DeliveryLat:      in.Lat,
		DeliveryLng:      in.Lng,
		PaymentStatus:    models.PaymentPending,
		PaymentMode:      in.PaymentMode,
		Status:           models.StatusPlaced,
		EstimatedMinutes: s.policy.DefaultETAMinutes,
		RoomID:           rooms.ForOrder(id),
	}
	if order.PaymentMode == "" {
		order.PaymentMode = models.PaymentOnline
	}

	for _, item := range in.Items {
		if item.Quantity <= 0 {
			continue
		}
		order.Items = append(order.Items, models.OrderItem{
			OrderID:   id,
			DishID:    item.DishID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
		order.TotalAmount += item.UnitPrice * float64(item.Quantity)
	}
	order.Timeline = []models.TimelineEntry{{OrderID: id, Status: models.StatusPlaced, Timestamp: now}}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.monitor.IncrMetric("orders_placed")
	s.dispatcher.OrderPlaced(order, now)
	return order, nil
}

// Transition applies a status change on behalf of an actor. The whole
// read-transition-write runs under the order's lock, and the status event
// is dispatched before the lock is released so no subscriber can observe
// transitions of one order out of order.
func (s *OrderService) Transition(ctx context.Context, orderID string, status models.OrderStatus, actor models.Actor) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	res, err := lifecycle.Transition(*order, lifecycle.Request{Status: status, Actor: actor}, time.Now(), s.policy.DeliveryFee)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateOrder(ctx, &res.Order); err != nil {
		return nil, err
	}
	if res.CreditPartnerID != "" {
		if err := s.partners.CreditPartner(ctx, res.CreditPartnerID, res.CreditAmount); err != nil {
			return nil, err
		}
	}

	monitoring.TransitionsTotal.WithLabelValues(string(res.Status)).Inc()
	s.dispatcher.OrderStatusChanged(&res.Order, res.Status, res.Timestamp)
	return &res.Order, nil
}

// Accept attaches a delivery partner to an order waiting for pickup.
// Racing accepts on the same order serialize on the order lock: the first
// wins, later ones fail with ErrAlreadyAssigned. The active-order cap is
// the configurable assignment policy.
func (s *OrderService) Accept(ctx context.Context, orderID string, actor models.Actor) (*models.Order, error) {
	if actor.Role != models.RoleDelivery && actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s may not accept orders: %w", actor.Role, errs.ErrUnauthorized)
	}

	active, err := s.orders.FindActiveOrdersByPartner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(active) >= s.policy.MaxActiveOrders {
		return nil, fmt.Errorf("partner %s already serves %d order(s): %w", actor.ID, len(active), errs.ErrAlreadyAssigned)
	}

	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := lifecycle.Assign(*order, actor.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if err := s.orders.UpdateOrder(ctx, &updated); err != nil {
		return nil, err
	}

	s.monitor.IncrMetric("orders_accepted")
	return &updated, nil
}

// Get loads one order.
func (s *OrderService) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// OrdersForCustomer lists a customer's orders, newest first.
func (s *OrderService) OrdersForCustomer(ctx context.Context, customerID string) ([]*models.Order, error) {
	return s.orders.FindOrdersByCustomer(ctx, customerID)
}

// ActiveOrdersForPartner lists the orders a partner currently serves.
func (s *OrderService) ActiveOrdersForPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return s.orders.FindActiveOrdersByPartner(ctx, partnerID)
}

// MarkPaid records a verified online payment on the order.
func (s *OrderService) MarkPaid(ctx context.Context, orderID string) (*models.Order, error) {
	unlock := s.locks.Lock(orderID)
	defer unlock()

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentPaid
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
