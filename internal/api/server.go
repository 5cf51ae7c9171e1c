package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"

	"quickbite/internal/errs"
	"quickbite/internal/location"
	"quickbite/internal/monitoring"
	"quickbite/internal/realtime"
	"quickbite/internal/service"
	"quickbite/internal/store"
)

// Server is the REST and websocket surface of the marketplace.
type Server struct {
	Router *gin.Engine

	orders    *service.OrderService
	partners  store.PartnerStore
	locations *location.Handler
	hub       *realtime.Hub
	monitor   *monitoring.Monitor
	payments  *PaymentGateway
	llm       llms.LLM
}

// NewServer wires the HTTP layer. llm may be nil when no API key is
// configured; the AI endpoint then answers 503.
func NewServer(orders *service.OrderService, partners store.PartnerStore, locations *location.Handler, hub *realtime.Hub, monitor *monitoring.Monitor, payments *PaymentGateway, llm llms.LLM, jwtSecret string) *Server {
	s := &Server{
		Router:    gin.Default(),
		orders:    orders,
		partners:  partners,
		locations: locations,
		hub:       hub,
		monitor:   monitor,
		payments:  payments,
		llm:       llm,
	}
	s.setupRoutes(jwtSecret)
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes(jwtSecret string) {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "QuickBite API is running"})
	})

	auth := AuthMiddleware(jwtSecret)

	s.Router.GET("/ws", auth, s.hub.HandleWS)

	v1 := s.Router.Group("/api/v1", auth)
	{
		// Order management
		v1.POST("/orders", s.PlaceOrder)
		v1.GET("/orders", s.MyOrders)
		v1.GET("/orders/:id", s.GetOrder)
		v1.PUT("/orders/:id/status", s.UpdateOrderStatus)
		v1.DELETE("/orders/:id", s.CancelOrder)

		// Delivery partner operations
		delivery := v1.Group("/delivery")
		{
			delivery.POST("/online", s.ToggleOnline)
			delivery.POST("/location", s.UpdateLocation)
			delivery.POST("/orders/:id/accept", s.AcceptOrder)
			delivery.GET("/dashboard", s.Dashboard)
		}

		// Payments
		v1.POST("/payments/order", s.CreatePaymentOrder)
		v1.POST("/payments/verify", s.VerifyPayment)

		// AI recommendations
		v1.POST("/ai/recommend", s.Recommend)

		// Diagnostics
		v1.GET("/metrics", s.Metrics)
	}
}

// Metrics returns the in-process monitor snapshot.
func (s *Server) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

// respondError maps domain errors to HTTP responses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized"})
	case errors.Is(err, errs.ErrAlreadyAssigned):
		c.JSON(http.StatusConflict, gin.H{"error": "order already assigned"})
	case errors.Is(err, errs.ErrInvalidTransition):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status transition"})
	case errors.Is(err, errs.ErrInvalidLocation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location sample"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
