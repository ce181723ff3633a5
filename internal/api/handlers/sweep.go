package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/backtest"
	"github.com/irfandi/backtest-lab-go/internal/config"
	"github.com/irfandi/backtest-lab-go/internal/marketdata"
	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// SweepHandler serves parameter sweeps across strategies.
type SweepHandler struct {
	provider CandleProvider
	registry *strategies.Registry
	sweeper  *backtest.Sweeper
	logger   *logrus.Logger
	cfg      config.SweepConfig
	capital  float64
}

func NewSweepHandler(provider CandleProvider, registry *strategies.Registry, sweeper *backtest.Sweeper, cfg config.SweepConfig, defaultCapital float64, logger *logrus.Logger) *SweepHandler {
	return &SweepHandler{
		provider: provider,
		registry: registry,
		sweeper:  sweeper,
		logger:   logger,
		cfg:      cfg,
		capital:  defaultCapital,
	}
}

// RunSweep handles POST /api/v1/sweep. A cancelled or timed-out sweep
// still returns the runs that finished.
func (h *SweepHandler) RunSweep(c *gin.Context) {
	var req models.SweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ids := req.StrategyIDs
	if len(ids) == 0 {
		ids = h.registry.IDs()
	}
	for _, id := range ids {
		if _, ok := h.registry.Get(id); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown strategy: " + id})
			return
		}
	}

	timeframe := req.Timeframe
	if timeframe == "" {
		timeframe = "1d"
	}
	if !models.IsValidTimeframe(timeframe) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timeframe: " + timeframe})
		return
	}

	lookback := req.Lookback
	if lookback.Value == 0 {
		lookback = models.Lookback{Value: 6, Unit: "month"}
	}
	if lookback.Days() <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lookback must be positive"})
		return
	}

	capital := req.InitialCapital
	if capital == 0 {
		capital = h.capital
	}
	if capital <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "initial_capital must be positive"})
		return
	}

	stepScale := req.StepScale
	if stepScale == 0 {
		stepScale = 1
	}
	if stepScale < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step_scale must be positive"})
		return
	}

	maxCombos := req.MaxCombinationsPerStrategy
	if maxCombos <= 0 || maxCombos > h.cfg.MaxCombinationsPerStrategy {
		maxCombos = h.cfg.MaxCombinationsPerStrategy
	}

	topN := req.TopN
	if topN <= 0 {
		topN = h.cfg.DefaultTopN
	}

	candles, err := h.provider.GetCandlesWindow(c.Request.Context(), timeframe, lookback.Days())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, marketdata.ErrUpstream) {
			status = http.StatusBadGateway
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.cfg.MaxDurationSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(h.cfg.MaxDurationSeconds)*time.Second)
		defer cancel()
	}

	result, err := h.sweeper.Run(ctx, candles, backtest.SweepConfig{
		StrategyIDs:                ids,
		Timeframe:                  timeframe,
		Lookback:                   lookback,
		InitialCapital:             capital,
		StepScale:                  stepScale,
		AutoScaleSteps:             req.AutoScaleSteps,
		MaxCombinationsPerStrategy: maxCombos,
		MaxTotalRuns:               h.cfg.MaxTotalRuns,
		TopN:                       topN,
		Workers:                    h.cfg.Workers,
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
