package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentGateway is the thin client-side of the external payment
// provider: it creates gateway orders and verifies callback signatures.
// The state machine only ever consumes the resulting payment status.
type PaymentGateway struct {
	KeyID     string
	KeySecret string
}

// NewPaymentGateway creates a gateway client.
func NewPaymentGateway(keyID, keySecret string) *PaymentGateway {
	return &PaymentGateway{KeyID: keyID, KeySecret: keySecret}
}

// Sign computes the callback signature for a gateway order / payment pair.
func (g *PaymentGateway) Sign(gatewayOrderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(g.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a callback signature in constant time.
func (g *PaymentGateway) Verify(gatewayOrderID, paymentID, signature string) bool {
	expected := g.Sign(gatewayOrderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// CreatePaymentOrder initiates an online payment for an amount.
func (s *Server) CreatePaymentOrder(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order": gin.H{
			"id":       "pay_" + uuid.NewString(),
			"amount":   req.Amount,
			"currency": "INR",
			"receipt":  fmt.Sprintf("receipt_%d", time.Now().UnixNano()),
			"keyId":    s.payments.KeyID,
		},
	})
}

// VerifyPayment checks the gateway callback signature and marks the order
// paid on success.
func (s *Server) VerifyPayment(c *gin.Context) {
	var req struct {
		GatewayOrderID string `json:"gatewayOrderId"`
		PaymentID      string `json:"paymentId"`
		Signature      string `json:"signature"`
		OrderID        string `json:"orderId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "orderId, gatewayOrderId, paymentId and signature are required"})
		return
	}

	if !s.payments.Verify(req.GatewayOrderID, req.PaymentID, req.Signature) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "payment verification failed"})
		return
	}

	order, err := s.orders.MarkPaid(c.Request.Context(), req.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order, "message": "Payment verified"})
}
