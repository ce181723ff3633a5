package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// barsPerMonth approximates one month of daily bars.
const barsPerMonth = 21

// TSMOM goes long while the trailing multi-month return is positive and
// stays flat otherwise (Moskowitz, Ooi, Pedersen time-series momentum).
type TSMOM struct{}

func (s *TSMOM) ID() string   { return "tsmom" }
func (s *TSMOM) Name() string { return "Time-Series Momentum" }

func (s *TSMOM) Description() string {
	return "Go long when the trailing multi-month return is positive; exit when it turns non-positive. Classic time-series momentum rule."
}

func (s *TSMOM) DefaultParams() Params {
	return Params{"lookback_months": 12.0, "vol_window": 20.0}
}

func (s *TSMOM) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"lookback_months": {Label: "Momentum Lookback (months)", Min: 3, Max: 24, Step: 1},
		"vol_window":      {Label: "Vol Window (bars)", Min: 5, Max: 60, Step: 5},
	}
}

func (s *TSMOM) Validate(p Params) error {
	return validateBounds(s.ParamInfo(), p)
}

// momentum is the trailing lookback return, NaN during warm-up.
func (s *TSMOM) momentum(candles []models.Candle, p Params) []float64 {
	lbBars := p.Int("lookback_months", 12) * barsPerMonth
	out := nanSeries(len(candles))
	for i := lbBars; i < len(candles); i++ {
		base := candles[i-lbBars].Close
		if base == 0 {
			continue
		}
		out[i] = candles[i].Close/base - 1
	}
	return out
}

func (s *TSMOM) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	lbBars := p.Int("lookback_months", 12) * barsPerMonth
	if len(candles) < lbBars+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", lbBars+1, len(candles))
	}

	momentum := s.momentum(candles, p)

	// Edge-triggered on the sign of momentum: warm-up NaN counts as flat,
	// so the first positive-momentum bar produces the entry.
	dir := make([]int, len(candles))
	for i, m := range momentum {
		if !math.IsNaN(m) && m > 0 {
			dir[i] = 1
		}
	}

	signals := make([]models.Signal, len(candles))
	for i := 1; i < len(candles); i++ {
		if dir[i] == 1 && dir[i-1] != 1 {
			signals[i] = models.SignalBuy
		} else if dir[i] != 1 && dir[i-1] == 1 {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *TSMOM) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	momentum := s.momentum(candles, p)

	// Annualised realised vol of per-bar returns, for context on the chart.
	returns := nanSeries(len(candles))
	for i := 1; i < len(candles); i++ {
		if candles[i-1].Close != 0 {
			returns[i] = candles[i].Close/candles[i-1].Close - 1
		}
	}
	vol := rollingStd(returns[1:], p.Int("vol_window", 20))
	realVol := nanSeries(len(candles))
	for i := range vol {
		if !math.IsNaN(vol[i]) {
			realVol[i+1] = vol[i] * math.Sqrt(252)
		}
	}

	return map[string]models.IndicatorSeries{
		"Momentum": {
			Data:      chartSeries(candles, momentum, 4),
			Type:      "oscillator",
			Color:     "#3b82f6",
			LineWidth: 2,
			Levels: []models.IndicatorLevel{
				{Value: 0, Color: "#94a3b833", Label: "Flat"},
			},
		},
		"Realised Vol (Ann.)": {
			Data:      chartSeries(candles, realVol, 4),
			Type:      "oscillator",
			Color:     "#f59e0b",
			LineWidth: 1,
		},
	}
}
