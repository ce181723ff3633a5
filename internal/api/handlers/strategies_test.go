package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfandi/backtest-lab-go/internal/cache"
	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

func TestListStrategies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/api/v1/strategies", NewStrategiesHandler(strategies.DefaultRegistry()).ListStrategies)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/strategies", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Strategies []models.StrategyDescriptor `json:"strategies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Strategies, 10)
	assert.Equal(t, "sma_crossover", resp.Strategies[0].ID)
	assert.Equal(t, "donchian_breakout", resp.Strategies[8].ID)
	assert.Equal(t, "tsmom", resp.Strategies[9].ID)

	for _, d := range resp.Strategies {
		assert.NotEmpty(t, d.Name, d.ID)
		assert.NotEmpty(t, d.Description, d.ID)
		assert.NotEmpty(t, d.DefaultParams, d.ID)
		assert.NotEmpty(t, d.ParamInfo, d.ID)
	}
}

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := NewHealthHandler(strategies.DefaultRegistry(), "BTCUSDT", cache.NewInMemoryCandleCache(), "memory", "test")
	router.GET("/health", h.HealthCheck)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "BTCUSDT", resp.Symbol)
	assert.Equal(t, "memory", resp.Cache)
	assert.Equal(t, "up", resp.CacheStatus)
	assert.Equal(t, 10, resp.Strategies)
}

func TestHealthCheckReportsCacheDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	h := NewHealthHandler(strategies.DefaultRegistry(), "BTCUSDT", cache.NewRedisCandleCache(client, quietLogger()), "redis", "test")

	router := gin.New()
	router.GET("/health", h.HealthCheck)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "up", resp.CacheStatus)

	// The health endpoint must notice when Redis stops answering, not keep
	// reporting the state observed at startup.
	mr.Close()
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "down", resp.CacheStatus)
}
