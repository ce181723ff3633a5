package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// DonchianBreakout buys when the high breaks above the prior channel high
// and sells when the low breaks below the prior channel low.
type DonchianBreakout struct{}

func (s *DonchianBreakout) ID() string   { return "donchian_breakout" }
func (s *DonchianBreakout) Name() string { return "Donchian Channel Breakout" }

func (s *DonchianBreakout) Description() string {
	return "Buy on a breakout above the N-period high; sell on a breakdown below the N-period low. Classic turtle-style trend strategy."
}

func (s *DonchianBreakout) DefaultParams() Params {
	return Params{"period": 20.0}
}

func (s *DonchianBreakout) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"period": {Label: "Channel Period", Min: 5, Max: 100, Step: 1},
	}
}

func (s *DonchianBreakout) Validate(p Params) error {
	return validateBounds(s.ParamInfo(), p)
}

func (s *DonchianBreakout) channels(candles []models.Candle, p Params) (dcHigh, dcLow []float64) {
	period := p.Int("period", 20)
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		highs[i] = c.High
		lows[i] = c.Low
	}
	return rollingMax(highs, period), rollingMin(lows, period)
}

func (s *DonchianBreakout) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	period := p.Int("period", 20)
	if len(candles) < period+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", period+1, len(candles))
	}

	dcHigh, dcLow := s.channels(candles, p)

	signals := make([]models.Signal, len(candles))
	for i := 1; i < len(candles); i++ {
		if !math.IsNaN(dcHigh[i-1]) && candles[i].High > dcHigh[i-1] {
			signals[i] = models.SignalBuy
		}
		// A breakdown on the same bar overrides the breakout.
		if !math.IsNaN(dcLow[i-1]) && candles[i].Low < dcLow[i-1] {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *DonchianBreakout) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	dcHigh, dcLow := s.channels(candles, p)
	return map[string]models.IndicatorSeries{
		"Donchian High": {
			Data:      chartSeries(candles, dcHigh, 2),
			Type:      "price",
			Color:     "#22c55e",
			LineWidth: 1,
			LineStyle: 2,
		},
		"Donchian Low": {
			Data:      chartSeries(candles, dcLow, 2),
			Type:      "price",
			Color:     "#ef4444",
			LineWidth: 1,
			LineStyle: 2,
		},
	}
}
