// Package lifecycle implements the order status state machine.
//
// State graph:
//
//	Placed → Accepted → Preparing → ReadyForPickup → OnTheWay → Delivered
//
// Cancelled is reachable from any non-terminal state. Rejected is a
// transition request, not a stored state: it returns an assigned order to
// ReadyForPickup with the delivery partner cleared so the order re-enters
// the assignable pool.
//
// Transition and Assign are pure functions over (order, request): they
// perform no I/O and never mutate their input. Persisting the returned
// order and emitting events are the caller's responsibility, sequenced
// under the per-order lock.
package lifecycle

import (
	"fmt"
	"time"

	"quickbite/internal/errs"
	"quickbite/internal/models"
)

// next maps each stored status to the statuses reachable from it.
// Cancelled is handled separately (reachable from any non-terminal state).
var next = map[models.OrderStatus]models.OrderStatus{
	models.StatusPlaced:         models.StatusAccepted,
	models.StatusAccepted:       models.StatusPreparing,
	models.StatusPreparing:      models.StatusReadyForPickup,
	models.StatusReadyForPickup: models.StatusOnTheWay,
	models.StatusOnTheWay:       models.StatusDelivered,
}

// restaurantMoves are the forward transitions a restaurant may perform.
var restaurantMoves = map[models.OrderStatus]bool{
	models.StatusAccepted:       true,
	models.StatusPreparing:      true,
	models.StatusReadyForPickup: true,
}

// partnerMoves are the forward transitions a delivery partner may perform.
var partnerMoves = map[models.OrderStatus]bool{
	models.StatusOnTheWay:  true,
	models.StatusDelivered: true,
	models.StatusRejected:  true,
}

// Request describes a status change attempt by an authenticated actor.
type Request struct {
	Status models.OrderStatus
	Actor  models.Actor
}

// Result is the outcome of a successful transition. Order is an updated
// copy; the remaining fields tell the caller which side effects to apply
// outside the order document.
type Result struct {
	Order models.Order

	// Status is the stored (externally visible) status after the
	// transition. For a Rejected request this is ReadyForPickup.
	Status    models.OrderStatus
	Timestamp time.Time

	// CreditPartnerID is set on delivery: the partner whose earnings are
	// credited by CreditAmount.
	CreditPartnerID string
	CreditAmount    float64

	// ReleasedPartnerID is set on rejection: the partner cleared from the
	// order, returned to the assignable pool.
	ReleasedPartnerID string
}

// Transition validates and applies a status change. On any error the
// returned Result is zero and the input order is untouched: no timeline
// entry, no side effects.
func Transition(o models.Order, req Request, now time.Time, deliveryFee float64) (Result, error) {
	if err := authorize(o, req); err != nil {
		return Result{}, err
	}
	if err := reachable(o, req.Status); err != nil {
		return Result{}, err
	}

	stored := req.Status
	res := Result{Timestamp: now}

	switch req.Status {
	case models.StatusDelivered:
		res.CreditPartnerID = o.DeliveryPartnerID
		res.CreditAmount = deliveryFee
		o.DeliveredAt = &now
	case models.StatusCancelled:
		if o.PaymentStatus == models.PaymentPaid {
			o.PaymentStatus = models.PaymentRefunded
		}
	case models.StatusRejected:
		stored = models.StatusReadyForPickup
		res.ReleasedPartnerID = o.DeliveryPartnerID
		o.DeliveryPartnerID = ""
	}

	o.Status = stored
	o.Timeline = append(o.Timeline, models.TimelineEntry{
		OrderID:   o.ID,
		Status:    stored,
		Timestamp: now,
	})

	res.Order = o
	res.Status = stored
	return res, nil
}

// Assign attaches a delivery partner to an order waiting for pickup. It
// appends no timeline entry: the order stays in ReadyForPickup until the
// partner moves it to OnTheWay. Exactly one of two racing assigns can
// succeed because the caller serializes per order id.
func Assign(o models.Order, partnerID string, now time.Time) (models.Order, error) {
	if o.Status != models.StatusReadyForPickup {
		return models.Order{}, fmt.Errorf("assign in status %s: %w", o.Status, errs.ErrInvalidTransition)
	}
	if o.Assigned() {
		if o.DeliveryPartnerID == partnerID {
			return o, nil
		}
		return models.Order{}, fmt.Errorf("partner %s holds order %s: %w", o.DeliveryPartnerID, o.ID, errs.ErrAlreadyAssigned)
	}
	o.DeliveryPartnerID = partnerID
	o.UpdatedAt = now
	return o, nil
}

// authorize checks the actor/role matrix for the requested transition.
func authorize(o models.Order, req Request) error {
	switch req.Actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleCustomer:
		if req.Status == models.StatusCancelled && req.Actor.ID == o.CustomerID && o.Status == models.StatusPlaced {
			return nil
		}
	case models.RoleRestaurant:
		if restaurantMoves[req.Status] && req.Actor.ID == o.RestaurantID {
			return nil
		}
	case models.RoleDelivery:
		if partnerMoves[req.Status] && o.Assigned() && req.Actor.ID == o.DeliveryPartnerID {
			return nil
		}
	}
	return fmt.Errorf("%s %s may not set order %s to %s: %w",
		req.Actor.Role, req.Actor.ID, o.ID, req.Status, errs.ErrUnauthorized)
}

// reachable checks the state graph. Requesting the current status is an
// error, never a silent no-op.
func reachable(o models.Order, to models.OrderStatus) error {
	if o.Status.Terminal() {
		return fmt.Errorf("order %s is %s: %w", o.ID, o.Status, errs.ErrInvalidTransition)
	}
	switch to {
	case models.StatusCancelled:
		return nil
	case models.StatusRejected:
		if o.Assigned() {
			return nil
		}
		return fmt.Errorf("reject unassigned order %s: %w", o.ID, errs.ErrInvalidTransition)
	default:
		if next[o.Status] == to {
			return nil
		}
		return fmt.Errorf("cannot move %s to %s: %w", o.Status, to, errs.ErrInvalidTransition)
	}
}
