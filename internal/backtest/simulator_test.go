package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		out[i] = models.Candle{
			Time:   int64(1700000000 + i*86400),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1,
		}
	}
	return out
}

func TestSimulateFlatRoundTrip(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 100, 100})
	signals := []models.Signal{models.SignalNone, models.SignalBuy, models.SignalSell}

	trades, equity, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeBuy, trades[0].Type)
	assert.Nil(t, trades[0].PnlPct)
	assert.Equal(t, models.TradeSell, trades[1].Type)
	require.NotNil(t, trades[1].PnlPct)
	assert.InDelta(t, 0, *trades[1].PnlPct, 1e-9)

	require.Len(t, equity, 3)
	for _, p := range equity {
		assert.InDelta(t, 10000, p.Value, 1e-9)
	}
}

func TestSimulateProfitableRoundTrip(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 110, 121, 133.1})
	signals := []models.Signal{models.SignalBuy, models.SignalNone, models.SignalNone, models.SignalSell}

	trades, equity, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	require.NotNil(t, trades[1].PnlPct)
	assert.InDelta(t, 33.1, *trades[1].PnlPct, 1e-9)
	assert.Equal(t, 133.1, trades[1].Price)

	// Equity is recorded before the bar's signal is applied, so the entry
	// bar still shows cash and the exit bar already marks the position.
	require.Len(t, equity, 4)
	assert.InDelta(t, 10000, equity[0].Value, 1e-9)
	assert.InDelta(t, 11000, equity[1].Value, 1e-9)
	assert.InDelta(t, 12100, equity[2].Value, 1e-9)
	assert.InDelta(t, 13310, equity[3].Value, 1e-9)
}

func TestSimulateIgnoresRedundantSignals(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 105, 110, 115})
	signals := []models.Signal{models.SignalBuy, models.SignalBuy, models.SignalSell, models.SignalSell}

	trades, _, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)

	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeBuy, trades[0].Type)
	assert.Equal(t, int64(candles[0].Time), trades[0].Time)
	assert.Equal(t, models.TradeSell, trades[1].Type)
	assert.Equal(t, int64(candles[2].Time), trades[1].Time)
}

func TestSimulateSellWhileFlatIsNoop(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 105, 110})
	signals := []models.Signal{models.SignalSell, models.SignalSell, models.SignalSell}

	trades, equity, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)

	assert.Empty(t, trades)
	for _, p := range equity {
		assert.InDelta(t, 10000, p.Value, 1e-9)
	}
}

func TestSimulateTrailingOpenPosition(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 110, 120})
	signals := []models.Signal{models.SignalBuy, models.SignalNone, models.SignalNone}

	trades, equity, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)

	// The open position produces no sell record but still marks equity.
	require.Len(t, trades, 1)
	assert.Equal(t, models.TradeBuy, trades[0].Type)
	assert.InDelta(t, 12000, equity[2].Value, 1e-9)
}

func TestSimulateShortSeries(t *testing.T) {
	trades, equity, err := Simulate(
		candlesFromCloses([]float64{100}),
		[]models.Signal{models.SignalBuy},
		10000,
	)
	require.NoError(t, err)
	assert.Empty(t, trades)
	require.Len(t, equity, 1)
	assert.InDelta(t, 10000, equity[0].Value, 1e-9)

	trades, equity, err = Simulate(nil, nil, 10000)
	require.NoError(t, err)
	assert.Empty(t, trades)
	assert.Empty(t, equity)
}

func TestSimulateValidation(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 105})

	_, _, err := Simulate(candles, []models.Signal{models.SignalNone}, 10000)
	assert.Error(t, err)

	_, _, err = Simulate(candles, []models.Signal{models.SignalNone, models.SignalNone}, 0)
	assert.Error(t, err)

	_, _, err = Simulate(candles, []models.Signal{models.SignalNone, models.SignalNone}, -5)
	assert.Error(t, err)
}

func TestSimulateEquityMatchesCandleCount(t *testing.T) {
	closes := make([]float64, 50)
	signals := make([]models.Signal, 50)
	for i := range closes {
		closes[i] = 100 + float64(i%7)
		switch i % 10 {
		case 2:
			signals[i] = models.SignalBuy
		case 7:
			signals[i] = models.SignalSell
		}
	}
	candles := candlesFromCloses(closes)

	_, equity, err := Simulate(candles, signals, 10000)
	require.NoError(t, err)
	require.Len(t, equity, len(candles))
	for i, p := range equity {
		assert.Equal(t, candles[i].Time, p.Time)
	}
}
