package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/backtest"
	"github.com/irfandi/backtest-lab-go/internal/config"
	"github.com/irfandi/backtest-lab-go/internal/marketdata"
	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// CandleProvider is the slice of the market data provider the handlers
// need, kept narrow so tests can stub it.
type CandleProvider interface {
	GetCandles(ctx context.Context, timeframe, period string) ([]models.Candle, error)
	GetCandlesWindow(ctx context.Context, timeframe string, days int) ([]models.Candle, error)
	Symbol() string
}

// BacktestHandler serves single-run and comparison backtests.
type BacktestHandler struct {
	provider CandleProvider
	registry *strategies.Registry
	logger   *logrus.Logger
	defaults config.BacktestConfig
}

func NewBacktestHandler(provider CandleProvider, registry *strategies.Registry, defaults config.BacktestConfig, logger *logrus.Logger) *BacktestHandler {
	return &BacktestHandler{
		provider: provider,
		registry: registry,
		logger:   logger,
		defaults: defaults,
	}
}

// RunBacktest handles POST /api/v1/backtest.
func (h *BacktestHandler) RunBacktest(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, status, err := h.run(c.Request.Context(), req)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RunCompare handles POST /api/v1/compare, running two strategies over
// the same candles.
func (h *BacktestHandler) RunCompare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	first, status, err := h.run(c.Request.Context(), models.BacktestRequest{
		Strategy:       req.Strategy1,
		Timeframe:      req.Timeframe,
		Period:         req.Period,
		Params:         req.Params1,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		c.JSON(status, gin.H{"error": "strategy1: " + err.Error()})
		return
	}
	second, status, err := h.run(c.Request.Context(), models.BacktestRequest{
		Strategy:       req.Strategy2,
		Timeframe:      req.Timeframe,
		Period:         req.Period,
		Params:         req.Params2,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		c.JSON(status, gin.H{"error": "strategy2: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.CompareResponse{Strategy1: first, Strategy2: second})
}

func (h *BacktestHandler) run(ctx context.Context, req models.BacktestRequest) (*models.BacktestResponse, int, error) {
	strat, ok := h.registry.Get(req.Strategy)
	if !ok {
		return nil, http.StatusBadRequest, errors.New("unknown strategy: " + req.Strategy)
	}

	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = h.defaults.DefaultTimeframe
	}
	if !models.IsValidTimeframe(timeframe) {
		return nil, http.StatusBadRequest, errors.New("unknown timeframe: " + timeframe)
	}

	period := req.Period
	if period == "" {
		period = h.defaults.DefaultPeriod
	}
	if !marketdata.ValidPeriod(period) {
		return nil, http.StatusBadRequest, errors.New("unknown period: " + period)
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = h.defaults.InitialCapital
	}
	if capital <= 0 {
		return nil, http.StatusBadRequest, errors.New("initial_capital must be positive")
	}

	params := strategies.Merge(strat.DefaultParams(), strategies.Params(req.Params))
	if err := strat.Validate(params); err != nil {
		return nil, http.StatusBadRequest, err
	}

	candles, err := h.provider.GetCandles(ctx, timeframe, period)
	if err != nil {
		if errors.Is(err, marketdata.ErrUpstream) {
			return nil, http.StatusBadGateway, err
		}
		return nil, http.StatusInternalServerError, err
	}

	signals, err := strat.GenerateSignals(candles, params)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	trades, equity, err := backtest.Simulate(candles, signals, capital)
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	metrics := backtest.ComputeMetrics(trades, equity, candles, capital)

	h.logger.WithFields(logrus.Fields{
		"strategy":  strat.ID(),
		"timeframe": timeframe,
		"period":    period,
		"candles":   len(candles),
		"trades":    metrics.NumTrades,
	}).Info("Backtest completed")

	return &models.BacktestResponse{
		StrategyName: strat.Name(),
		Params:       params,
		Candles:      roundCandles(candles),
		Indicators:   strat.Indicators(candles, params),
		Trades:       trades,
		EquityCurve:  equity,
		BhCurve:      buyHoldCurve(candles, capital),
		Metrics:      metrics,
	}, http.StatusOK, nil
}

// buyHoldCurve marks the benchmark of putting all capital in at the first
// bar's close and holding.
func buyHoldCurve(candles []models.Candle, initialCapital float64) []models.EquityPoint {
	curve := make([]models.EquityPoint, 0, len(candles))
	if len(candles) == 0 || candles[0].Close == 0 {
		return curve
	}
	for _, c := range candles {
		curve = append(curve, models.EquityPoint{
			Time:  c.Time,
			Value: round2(initialCapital * c.Close / candles[0].Close),
		})
	}
	return curve
}

func roundCandles(candles []models.Candle) []models.Candle {
	out := make([]models.Candle, len(candles))
	for i, c := range candles {
		out[i] = models.Candle{
			Time:   c.Time,
			Open:   round2(c.Open),
			High:   round2(c.High),
			Low:    round2(c.Low),
			Close:  round2(c.Close),
			Volume: round2(c.Volume),
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
