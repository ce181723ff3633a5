package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/irfandi/backtest-lab-go/internal/cache"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// HealthResponse reports service liveness plus basic dependency state.
// Cache is the backend selected at startup ("redis" or "memory");
// CacheStatus is a live reachability check against that backend.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Symbol      string    `json:"symbol"`
	Strategies  int       `json:"strategies"`
	Cache       string    `json:"cache"`
	CacheStatus string    `json:"cache_status"`
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	registry  *strategies.Registry
	symbol    string
	cache     cache.CandleCache
	cacheMode string
	version   string
}

func NewHealthHandler(registry *strategies.Registry, symbol string, candleCache cache.CandleCache, cacheMode, version string) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		symbol:    symbol,
		cache:     candleCache,
		cacheMode: cacheMode,
		version:   version,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	cacheStatus := "up"
	if h.cache != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.cache.Ping(ctx); err != nil {
			cacheStatus = "down"
		}
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC(),
		Version:     h.version,
		Symbol:      h.symbol,
		Strategies:  len(h.registry.IDs()),
		Cache:       h.cacheMode,
		CacheStatus: cacheStatus,
	})
}
