package backtest

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// stubStrategy lets sweep tests control grid size and signal output
// without real indicator math.
type stubStrategy struct {
	id       string
	info     map[string]models.ParamInfo
	generate func(candles []models.Candle, p strategies.Params) ([]models.Signal, error)
}

func (s *stubStrategy) ID() string                   { return s.id }
func (s *stubStrategy) Name() string                 { return "Stub " + s.id }
func (s *stubStrategy) Description() string          { return "test stub" }
func (s *stubStrategy) DefaultParams() strategies.Params {
	return strategies.Params{}
}
func (s *stubStrategy) ParamInfo() map[string]models.ParamInfo { return s.info }
func (s *stubStrategy) Validate(strategies.Params) error       { return nil }
func (s *stubStrategy) GenerateSignals(candles []models.Candle, p strategies.Params) ([]models.Signal, error) {
	return s.generate(candles, p)
}
func (s *stubStrategy) Indicators([]models.Candle, strategies.Params) map[string]models.IndicatorSeries {
	return nil
}

func singlePointGrid() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{"n": {Min: 1, Max: 1, Step: 1}}
}

func holdSignals(buy bool) func([]models.Candle, strategies.Params) ([]models.Signal, error) {
	return func(candles []models.Candle, _ strategies.Params) ([]models.Signal, error) {
		signals := make([]models.Signal, len(candles))
		if buy && len(signals) > 0 {
			signals[0] = models.SignalBuy
			signals[len(signals)-1] = models.SignalSell
		}
		return signals, nil
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testSweepConfig(ids ...string) SweepConfig {
	return SweepConfig{
		StrategyIDs:                ids,
		Timeframe:                  "1d",
		Lookback:                   models.Lookback{Value: 1, Unit: "month"},
		InitialCapital:             10000,
		StepScale:                  1,
		MaxCombinationsPerStrategy: 100,
		Workers:                    2,
	}
}

func TestSweepRanksByTotalReturn(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{id: "winner", info: singlePointGrid(), generate: holdSignals(true)})
	registry.Register(&stubStrategy{id: "idle", info: singlePointGrid(), generate: holdSignals(false)})

	candles := candlesFromCloses([]float64{100, 110, 121, 130})
	sweeper := NewSweeper(registry, testLogger())

	result, err := sweeper.Run(context.Background(), candles, testSweepConfig("winner", "idle"))
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, 1, result.Results[0].Rank)
	assert.Equal(t, "winner", result.Results[0].StrategyID)
	assert.Equal(t, 2, result.Results[1].Rank)
	assert.Equal(t, "idle", result.Results[1].StrategyID)
	assert.Greater(t, result.Results[0].Metrics.TotalReturn, result.Results[1].Metrics.TotalReturn)

	assert.Equal(t, 2, result.Meta.TotalRuns)
	assert.Equal(t, 2, result.Meta.ReturnedRuns)
	assert.NotEmpty(t, result.Meta.SweepID)
	assert.Equal(t, "1 month", result.Meta.Lookback)
}

func TestSweepDeterministicTies(t *testing.T) {
	// Two identical do-nothing strategies tie at 0% return; encounter
	// order must break the tie the same way every run.
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{id: "first", info: singlePointGrid(), generate: holdSignals(false)})
	registry.Register(&stubStrategy{id: "second", info: singlePointGrid(), generate: holdSignals(false)})

	candles := candlesFromCloses([]float64{100, 101, 102})
	sweeper := NewSweeper(registry, testLogger())

	for i := 0; i < 5; i++ {
		result, err := sweeper.Run(context.Background(), candles, testSweepConfig("first", "second"))
		require.NoError(t, err)
		require.Len(t, result.Results, 2)
		assert.Equal(t, "first", result.Results[0].StrategyID)
		assert.Equal(t, "second", result.Results[1].StrategyID)
	}
}

func TestSweepFailureIsolation(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{
		id:   "broken",
		info: singlePointGrid(),
		generate: func([]models.Candle, strategies.Params) ([]models.Signal, error) {
			return nil, errors.New("indicator window too long")
		},
	})
	registry.Register(&stubStrategy{id: "ok", info: singlePointGrid(), generate: holdSignals(true)})

	candles := candlesFromCloses([]float64{100, 105, 110})
	sweeper := NewSweeper(registry, testLogger())

	result, err := sweeper.Run(context.Background(), candles, testSweepConfig("broken", "ok"))
	require.NoError(t, err)

	require.Len(t, result.Results, 1)
	assert.Equal(t, "ok", result.Results[0].StrategyID)

	require.Len(t, result.Meta.StrategySummaries, 2)
	assert.Equal(t, 0, result.Meta.StrategySummaries[0].ExecutedRuns)
	assert.Equal(t, 1, result.Meta.StrategySummaries[0].FailedRuns)
	assert.Equal(t, 1, result.Meta.StrategySummaries[1].ExecutedRuns)
	assert.Equal(t, 0, result.Meta.StrategySummaries[1].FailedRuns)
	assert.Equal(t, 1, result.Meta.TotalRuns)
}

func TestSweepTopNTruncation(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{
		id:       "grid",
		info:     map[string]models.ParamInfo{"n": {Min: 1, Max: 10, Step: 1}},
		generate: holdSignals(true),
	})

	candles := candlesFromCloses([]float64{100, 110, 120})
	sweeper := NewSweeper(registry, testLogger())

	cfg := testSweepConfig("grid")
	cfg.TopN = 3
	result, err := sweeper.Run(context.Background(), candles, cfg)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Meta.TotalRuns)
	assert.Equal(t, 3, result.Meta.ReturnedRuns)
	require.Len(t, result.Results, 3)
	assert.Equal(t, 3, result.Results[2].Rank)
}

func TestSweepMaxTotalRunsCap(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{
		id:       "grid",
		info:     map[string]models.ParamInfo{"n": {Min: 1, Max: 10, Step: 1}},
		generate: holdSignals(true),
	})

	candles := candlesFromCloses([]float64{100, 110, 120})
	sweeper := NewSweeper(registry, testLogger())

	cfg := testSweepConfig("grid")
	cfg.MaxTotalRuns = 4
	result, err := sweeper.Run(context.Background(), candles, cfg)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Meta.TotalRuns)
}

func TestSweepCancellationReturnsPartialResults(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{
		id:       "grid",
		info:     map[string]models.ParamInfo{"n": {Min: 1, Max: 50, Step: 1}},
		generate: holdSignals(true),
	})

	candles := candlesFromCloses([]float64{100, 110, 120})
	sweeper := NewSweeper(registry, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := sweeper.Run(ctx, candles, testSweepConfig("grid"))
	require.NoError(t, err)

	// Dispatch stops but whatever finished is still reported coherently.
	assert.LessOrEqual(t, result.Meta.TotalRuns, 50)
	assert.Equal(t, result.Meta.TotalRuns, result.Meta.StrategySummaries[0].ExecutedRuns)
	assert.Len(t, result.Results, result.Meta.ReturnedRuns)
}

func TestSweepInputValidation(t *testing.T) {
	registry := strategies.NewRegistry()
	registry.Register(&stubStrategy{id: "ok", info: singlePointGrid(), generate: holdSignals(false)})
	sweeper := NewSweeper(registry, testLogger())
	candles := candlesFromCloses([]float64{100, 110})

	_, err := sweeper.Run(context.Background(), candles, SweepConfig{InitialCapital: 10000})
	assert.Error(t, err)

	cfg := testSweepConfig("missing")
	_, err = sweeper.Run(context.Background(), candles, cfg)
	assert.Error(t, err)

	cfg = testSweepConfig("ok")
	cfg.InitialCapital = 0
	_, err = sweeper.Run(context.Background(), candles, cfg)
	assert.Error(t, err)

	cfg = testSweepConfig("ok")
	_, err = sweeper.Run(context.Background(), nil, cfg)
	assert.Error(t, err)
}
