package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickbite/internal/models"
	"quickbite/internal/service"
)

// PlaceOrder creates a new order for the authenticated customer.
func (s *Server) PlaceOrder(c *gin.Context) {
	actor, _ := actorFrom(c)
	if actor.Role != models.RoleCustomer && actor.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "only customers place orders"})
		return
	}

	var in service.PlaceOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := s.orders.Place(c.Request.Context(), actor.ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
}

// GetOrder returns one order for tracking.
func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// MyOrders lists the authenticated customer's orders, newest first.
func (s *Server) MyOrders(c *gin.Context) {
	actor, _ := actorFrom(c)
	orders, err := s.orders.OrdersForCustomer(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "orders": orders})
}

// UpdateOrderStatus applies a status transition on behalf of the actor.
// Restaurants move orders toward ReadyForPickup, partners move them to
// OnTheWay/Delivered or reject, admins may force anything.
func (s *Server) UpdateOrderStatus(c *gin.Context) {
	actor, _ := actorFrom(c)

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	order, err := s.orders.Transition(c.Request.Context(), c.Param("id"), req.Status, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}

// CancelOrder cancels an order. Customers may cancel only while the order
// is still Placed; a paid order is marked refunded by the state machine.
func (s *Server) CancelOrder(c *gin.Context) {
	actor, _ := actorFrom(c)
	order, err := s.orders.Transition(c.Request.Context(), c.Param("id"), models.StatusCancelled, actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "message": "Order cancelled"})
}
