package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soundprediction/go-rankllm/pkg/server/dto"
)

// HealthHandler serves liveness checks.
type HealthHandler struct {
	model string
}

// NewHealthHandler creates the handler.
func NewHealthHandler(model string) *HealthHandler {
	return &HealthHandler{model: model}
}

// Health handles GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Status: "ok",
		Model:  h.model,
	})
}
