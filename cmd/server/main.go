package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/api"
	"github.com/irfandi/backtest-lab-go/internal/backtest"
	"github.com/irfandi/backtest-lab-go/internal/cache"
	"github.com/irfandi/backtest-lab-go/internal/config"
	"github.com/irfandi/backtest-lab-go/internal/marketdata"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

func main() {
	// .env is optional; container deployments set real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := newLogger(cfg)

	candleCache, cacheMode := newCandleCache(cfg, logger)
	client := marketdata.NewBinanceClient(
		cfg.MarketData.BaseURL,
		time.Duration(cfg.MarketData.TimeoutSeconds)*time.Second,
		logger,
	)
	provider := marketdata.NewProvider(client, candleCache, cfg.MarketData.Symbol, logger)

	registry := strategies.DefaultRegistry()
	sweeper := backtest.NewSweeper(registry, logger)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	api.SetupRoutes(router, cfg, provider, registry, sweeper, candleCache, cacheMode, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":   cfg.Server.Port,
			"symbol": cfg.MarketData.Symbol,
			"cache":  cacheMode,
		}).Info("Starting backtest server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Forced shutdown")
	}
	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger
}

// newCandleCache connects to Redis, falling back to an in-process cache
// when Redis is unreachable so the service still starts.
func newCandleCache(cfg *config.Config, logger *logrus.Logger) (cache.CandleCache, string) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, using in-memory candle cache")
		return cache.NewInMemoryCandleCache(), "in-memory"
	}

	logger.WithField("addr", client.Options().Addr).Info("Connected to Redis")
	return cache.NewRedisCandleCache(client, logger), "redis"
}
