// Package location receives raw delivery partner GPS samples, records the
// partner's last-known position and republishes each sample to the rooms
// of the orders that partner is actively serving. Samples are forwarded
// independently; smoothing is the consumers' problem.
package location

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"quickbite/internal/dispatch"
	"quickbite/internal/errs"
	"quickbite/internal/monitoring"
	"quickbite/internal/store"
)

// Sample is one raw coordinate report from an authenticated delivery
// partner session. OrderID optionally narrows the fan-out to one order.
type Sample struct {
	PartnerID string  `json:"partnerId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	OrderID   string  `json:"orderId,omitempty"`
}

// Validate rejects non-finite or out-of-range coordinates.
func Validate(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) || math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("non-finite coordinates: %w", errs.ErrInvalidLocation)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("coordinates out of range (%f, %f): %w", lat, lng, errs.ErrInvalidLocation)
	}
	return nil
}

// Handler wires samples to the store and the dispatcher.
type Handler struct {
	orders     store.OrderStore
	partners   store.PartnerStore
	dispatcher *dispatch.Dispatcher
}

// NewHandler creates a location stream handler.
func NewHandler(orders store.OrderStore, partners store.PartnerStore, dispatcher *dispatch.Dispatcher) *Handler {
	return &Handler{orders: orders, partners: partners, dispatcher: dispatcher}
}

// HandleSample validates one sample, updates the partner's last-known
// location and republishes to every active order room. A malformed sample
// is dropped with an error to the sender only; it never tears down the
// stream.
func (h *Handler) HandleSample(ctx context.Context, sample Sample, now time.Time) error {
	if err := Validate(sample.Lat, sample.Lng); err != nil {
		monitoring.LocationSamplesDropped.Inc()
		log.Printf("dropping location sample from partner %s: %v", sample.PartnerID, err)
		return err
	}

	if err := h.partners.UpdatePartnerLocation(ctx, sample.PartnerID, sample.Lat, sample.Lng, now); err != nil {
		return err
	}

	active, err := h.orders.FindActiveOrdersByPartner(ctx, sample.PartnerID)
	if err != nil {
		return err
	}
	if sample.OrderID != "" {
		narrowed := active[:0]
		for _, order := range active {
			if order.ID == sample.OrderID {
				narrowed = append(narrowed, order)
			}
		}
		active = narrowed
	}

	h.dispatcher.LocationChanged(sample.PartnerID, sample.Lat, sample.Lng, active, now)
	return nil
}
