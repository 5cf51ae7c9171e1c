package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tmc/langchaingo/llms"
)

const recommendSystemPrompt = "You are a food ordering assistant. " +
	"Suggest dishes based on the customer's craving in two or three short sentences."

// Recommend answers a free-form craving with dish suggestions from the
// configured LLM.
func (s *Server) Recommend(c *gin.Context) {
	if s.llm == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI is not configured"})
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, err := llms.GenerateFromSinglePrompt(c.Request.Context(), s.llm,
		recommendSystemPrompt+"\n\nCustomer: "+req.Message,
		llms.WithTemperature(0.7),
		llms.WithMaxTokens(500),
	)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to generate recommendation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "reply": reply})
}
