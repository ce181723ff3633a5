package strategies

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
			High:   c + 0.5,
			Low:    c - 0.5,
			Close:  c,
			Volume: 1,
		}
	}
	return out
}

func TestDefaultRegistryOrder(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{
		"sma_crossover",
		"ema_crossover",
		"rsi",
		"macd",
		"bollinger_bands",
		"supertrend",
		"combined_rsi_macd",
		"mean_reversion",
		"donchian_breakout",
		"tsmom",
	}, r.IDs())
}

func TestRegistryDuplicatePanics(t *testing.T) {
	r := NewRegistry()
	r.Register(&SMACrossover{})
	assert.Panics(t, func() { r.Register(&SMACrossover{}) })
}

func TestDescribe(t *testing.T) {
	d := Describe(&SMACrossover{})
	assert.Equal(t, "sma_crossover", d.ID)
	assert.NotEmpty(t, d.Name)
	assert.NotEmpty(t, d.Description)
	assert.Contains(t, d.DefaultParams, "fast_period")
	assert.Contains(t, d.ParamInfo, "slow_period")
}

func TestValidateRejectsUnknownParam(t *testing.T) {
	for _, s := range DefaultRegistry().All() {
		err := s.Validate(Merge(s.DefaultParams(), Params{"bogus": 1.0}))
		assert.Error(t, err, "strategy %s must reject unknown parameters", s.ID())
	}
}

func TestValidateRejectsOutOfBounds(t *testing.T) {
	s := &SMACrossover{}
	err := s.Validate(Merge(s.DefaultParams(), Params{"fast_period": 100000.0}))
	assert.Error(t, err)
}

func TestValidateCrossParamConstraints(t *testing.T) {
	tests := []struct {
		name     string
		strategy Strategy
		params   Params
	}{
		{"sma fast >= slow", &SMACrossover{}, Params{"fast_period": 50.0, "slow_period": 20.0}},
		{"ema fast >= slow", &EMACrossover{}, Params{"fast_period": 30.0, "slow_period": 10.0}},
		{"macd fast >= slow", &MACDCrossover{}, Params{"fast": 30.0, "slow": 20.0}},
		{"rsi oversold >= overbought", &RSIMeanReversion{}, Params{"oversold": 45.0, "overbought": 55.0, "period": 14.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.strategy.Validate(Merge(tt.strategy.DefaultParams(), tt.params))
			assert.Error(t, err)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	for _, s := range DefaultRegistry().All() {
		assert.NoError(t, s.Validate(s.DefaultParams()), "strategy %s defaults must validate", s.ID())
	}
}

func TestAllStrategiesRejectShortSeries(t *testing.T) {
	short := candlesFromCloses([]float64{100, 101})
	for _, s := range DefaultRegistry().All() {
		_, err := s.GenerateSignals(short, s.DefaultParams())
		assert.Error(t, err, "strategy %s must reject a two-bar series", s.ID())
	}
}

func TestSMACrossoverSignals(t *testing.T) {
	s := &SMACrossover{}
	p := Merge(s.DefaultParams(), Params{"fast_period": 2.0, "slow_period": 3.0})
	candles := candlesFromCloses([]float64{10, 9, 8, 7, 10, 12})

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	// The fast average crosses above the slow one on the rebound bar.
	assert.Equal(t, models.SignalBuy, signals[4])
	assert.Equal(t, models.SignalNone, signals[0])
}

func TestEMACrossoverSignals(t *testing.T) {
	s := &EMACrossover{}
	p := Merge(s.DefaultParams(), Params{"fast_period": 2.0, "slow_period": 3.0})
	candles := candlesFromCloses([]float64{10, 9, 8, 7, 6, 8, 10, 12, 14})

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	buys := 0
	for _, sig := range signals {
		if sig == models.SignalBuy {
			buys++
		}
	}
	assert.Greater(t, buys, 0, "a strong reversal must produce a buy")
}

func TestBollingerBandsBuysLowerBandTouch(t *testing.T) {
	s := &BollingerBands{}
	p := Merge(s.DefaultParams(), Params{"period": 3.0, "std_dev": 1.0})
	candles := candlesFromCloses([]float64{10, 10.5, 10, 10.2, 6})

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	assert.Equal(t, models.SignalBuy, signals[4])
}

func TestMeanReversionBuysDeepZScore(t *testing.T) {
	s := &MeanReversion{}
	p := Merge(s.DefaultParams(), Params{"period": 3.0, "z_buy": -1.0, "z_sell": 1.0})
	candles := candlesFromCloses([]float64{10, 10.5, 10, 10.2, 6})

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	assert.Equal(t, models.SignalBuy, signals[4])
}

func TestDonchianBreakoutSignals(t *testing.T) {
	s := &DonchianBreakout{}
	p := Merge(s.DefaultParams(), Params{"period": 3.0})

	candles := []models.Candle{
		{Time: 1, High: 10, Low: 9, Close: 9.5},
		{Time: 2, High: 10, Low: 9, Close: 9.5},
		{Time: 3, High: 10, Low: 9, Close: 9.5},
		{Time: 4, High: 10, Low: 9, Close: 9.5},
		{Time: 5, High: 12, Low: 10, Close: 11.5}, // breaks the 3-bar high
		{Time: 6, High: 12, Low: 11, Close: 11.5},
		{Time: 7, High: 11, Low: 5, Close: 6}, // breaks the 3-bar low
	}

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	assert.Equal(t, models.SignalBuy, signals[4])
	assert.Equal(t, models.SignalSell, signals[6])
}

func TestDonchianBreakdownWinsOnSameBar(t *testing.T) {
	s := &DonchianBreakout{}
	p := Merge(s.DefaultParams(), Params{"period": 3.0})

	// Bar 4 pierces both the prior high and the prior low.
	candles := []models.Candle{
		{Time: 1, High: 10, Low: 9, Close: 9.5},
		{Time: 2, High: 10, Low: 9, Close: 9.5},
		{Time: 3, High: 10, Low: 9, Close: 9.5},
		{Time: 4, High: 13, Low: 5, Close: 6},
	}

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	assert.Equal(t, models.SignalSell, signals[3])
}

func TestSupertrendFlipsOnReversal(t *testing.T) {
	s := &Supertrend{}
	p := Merge(s.DefaultParams(), Params{"atr_period": 5.0, "multiplier": 1.0})

	closes := []float64{100, 95, 90, 85, 80, 75, 70, 80, 95, 115, 140, 170, 200}
	candles := candlesFromCloses(closes)

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	buys := 0
	for _, sig := range signals {
		if sig == models.SignalBuy {
			buys++
		}
	}
	assert.Greater(t, buys, 0, "a strong rally off the low must flip the trend up")
}

func TestRSISignalsOnReversal(t *testing.T) {
	s := &RSIMeanReversion{}
	p := Merge(s.DefaultParams(), Params{"period": 2.0, "oversold": 30.0, "overbought": 70.0})

	closes := []float64{10, 9, 8, 7, 6, 5, 6, 7, 8, 9, 10}
	candles := candlesFromCloses(closes)

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	buys := 0
	for _, sig := range signals {
		if sig == models.SignalBuy {
			buys++
		}
	}
	assert.Greater(t, buys, 0, "RSI must cross up out of oversold on the rebound")
}

func TestMACDSignalsSmoke(t *testing.T) {
	s := &MACDCrossover{}
	closes := make([]float64, 80)
	for i := range closes {
		base := 100.0
		if i > 40 {
			base = 100 + float64(i-40)*2
		} else {
			base = 100 - float64(i)
		}
		closes[i] = base
	}
	candles := candlesFromCloses(closes)

	signals, err := s.GenerateSignals(candles, s.DefaultParams())
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	buys := 0
	for _, sig := range signals {
		if sig == models.SignalBuy {
			buys++
		}
	}
	assert.Greater(t, buys, 0, "the V-shaped reversal must produce a MACD bullish cross")
}

func TestCombinedRSIMACDSmoke(t *testing.T) {
	s := &CombinedRSIMACD{}
	closes := make([]float64, 80)
	for i := range closes {
		if i > 40 {
			closes[i] = 60 + float64(i-40)*2
		} else {
			closes[i] = 100 - float64(i)
		}
	}
	candles := candlesFromCloses(closes)

	signals, err := s.GenerateSignals(candles, s.DefaultParams())
	require.NoError(t, err)
	require.Len(t, signals, len(candles))
}

func TestTSMOMEntryAndExit(t *testing.T) {
	s := &TSMOM{}
	p := Merge(s.DefaultParams(), Params{"lookback_months": 3.0})

	closes := make([]float64, 80)
	for i := range closes {
		switch {
		case i < 70:
			closes[i] = 100
		case i < 75:
			closes[i] = 110
		default:
			closes[i] = 90
		}
	}
	candles := candlesFromCloses(closes)

	signals, err := s.GenerateSignals(candles, p)
	require.NoError(t, err)
	require.Len(t, signals, len(candles))

	// The trailing 63-bar return first turns positive on the jump to 110
	// and goes negative on the drop to 90.
	assert.Equal(t, models.SignalBuy, signals[70])
	assert.Equal(t, models.SignalSell, signals[75])
	for i := 71; i < 75; i++ {
		assert.Equal(t, models.SignalNone, signals[i], "bar %d must hold the position", i)
	}
}

func TestIndicatorsAlignToCandles(t *testing.T) {
	closes := make([]float64, 120)
	for i := range closes {
		closes[i] = 100 + float64(i%13) - float64(i%7)
	}
	candles := candlesFromCloses(closes)

	for _, s := range DefaultRegistry().All() {
		series := s.Indicators(candles, s.DefaultParams())
		require.NotEmpty(t, series, "strategy %s must expose chart series", s.ID())
		for name, ind := range series {
			assert.LessOrEqual(t, len(ind.Data), len(candles), "%s/%s", s.ID(), name)
			assert.NotEmpty(t, ind.Type, "%s/%s", s.ID(), name)
		}
	}
}

func TestParamsHelpers(t *testing.T) {
	p := Params{"f": 1.5, "i": 3.0, "s": "abc"}
	assert.Equal(t, 1.5, p.Float("f", 0))
	assert.Equal(t, 3, p.Int("i", 0))
	assert.Equal(t, "abc", p.String("s", ""))
	assert.Equal(t, 9.0, p.Float("missing", 9))

	merged := Merge(Params{"a": 1.0, "b": 2.0}, Params{"b": 5.0})
	assert.Equal(t, 1.0, merged.Float("a", 0))
	assert.Equal(t, 5.0, merged.Float("b", 0))
}
