package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"quickbite/internal/location"
	"quickbite/internal/models"
)

// ToggleOnline flips the partner's availability flag.
func (s *Server) ToggleOnline(c *gin.Context) {
	actor, _ := actorFrom(c)
	if actor.Role != models.RoleDelivery {
		c.JSON(http.StatusForbidden, gin.H{"error": "delivery partners only"})
		return
	}

	partner, err := s.partners.GetPartner(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	partner.Online = !partner.Online
	partner.LastActiveAt = time.Now()
	if err := s.partners.SavePartner(c.Request.Context(), partner); err != nil {
		respondError(c, err)
		return
	}

	msg := "You are now Offline"
	if partner.Online {
		msg = "You are now Online"
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "online": partner.Online, "message": msg})
}

// UpdateLocation is the HTTP variant of the driver-location socket event:
// it records the sample and fans it out to the partner's active order rooms.
func (s *Server) UpdateLocation(c *gin.Context) {
	actor, _ := actorFrom(c)
	if actor.Role != models.RoleDelivery {
		c.JSON(http.StatusForbidden, gin.H{"error": "delivery partners only"})
		return
	}

	var req struct {
		Lat     *float64 `json:"lat"`
		Lng     *float64 `json:"lng"`
		OrderID string   `json:"orderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Lat == nil || req.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	sample := location.Sample{PartnerID: actor.ID, Lat: *req.Lat, Lng: *req.Lng, OrderID: req.OrderID}
	if err := s.locations.HandleSample(c.Request.Context(), sample, time.Now()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Location updated"})
}

// AcceptOrder attaches the partner to an order waiting for pickup. On a
// race, exactly one accepting partner wins; the rest get 409.
func (s *Server) AcceptOrder(c *gin.Context) {
	actor, _ := actorFrom(c)
	order, err := s.orders.Accept(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "message": "Order accepted"})
}

// Dashboard summarizes the partner's earnings and workload.
func (s *Server) Dashboard(c *gin.Context) {
	actor, _ := actorFrom(c)
	if actor.Role != models.RoleDelivery {
		c.JSON(http.StatusForbidden, gin.H{"error": "delivery partners only"})
		return
	}

	partner, err := s.partners.GetPartner(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	active, err := s.orders.ActiveOrdersForPartner(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"deliveryPartner": gin.H{
			"earnings":        partner.Earnings,
			"rating":          partner.Rating,
			"totalDeliveries": partner.TotalDeliveries,
			"online":          partner.Online,
			"activeOrders":    active,
		},
	})
}
