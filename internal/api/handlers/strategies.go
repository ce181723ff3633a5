package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// StrategiesHandler lists the registered strategies for UI population.
type StrategiesHandler struct {
	registry *strategies.Registry
}

func NewStrategiesHandler(registry *strategies.Registry) *StrategiesHandler {
	return &StrategiesHandler{registry: registry}
}

// ListStrategies handles GET /api/v1/strategies. Order matches
// registration order, so the UI is stable across restarts.
func (h *StrategiesHandler) ListStrategies(c *gin.Context) {
	all := h.registry.All()
	descriptors := make([]models.StrategyDescriptor, 0, len(all))
	for _, s := range all {
		descriptors = append(descriptors, strategies.Describe(s))
	}
	c.JSON(http.StatusOK, gin.H{"strategies": descriptors})
}
