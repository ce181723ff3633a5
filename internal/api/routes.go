package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/api/handlers"
	"github.com/irfandi/backtest-lab-go/internal/backtest"
	"github.com/irfandi/backtest-lab-go/internal/cache"
	"github.com/irfandi/backtest-lab-go/internal/config"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// Version is the application version reported by /health. Overridden at
// build time with -ldflags.
var Version = "dev"

// SetupRoutes registers all HTTP routes on the router and wires the
// handlers to their dependencies.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	provider handlers.CandleProvider,
	registry *strategies.Registry,
	sweeper *backtest.Sweeper,
	candleCache cache.CandleCache,
	cacheMode string,
	logger *logrus.Logger,
) {
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	healthHandler := handlers.NewHealthHandler(registry, provider.Symbol(), candleCache, cacheMode, Version)
	router.GET("/health", healthHandler.HealthCheck)
	router.HEAD("/health", healthHandler.HealthCheck)

	backtestHandler := handlers.NewBacktestHandler(provider, registry, cfg.Backtest, logger)
	strategiesHandler := handlers.NewStrategiesHandler(registry)
	sweepHandler := handlers.NewSweepHandler(provider, registry, sweeper, cfg.Sweep, cfg.Backtest.InitialCapital, logger)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/strategies", strategiesHandler.ListStrategies)
		v1.POST("/backtest", backtestHandler.RunBacktest)
		v1.POST("/compare", backtestHandler.RunCompare)
		v1.POST("/sweep", sweepHandler.RunSweep)
	}
}

// corsMiddleware allows the configured browser origins. "*" allows all.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, HEAD, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
