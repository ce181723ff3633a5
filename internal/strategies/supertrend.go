package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// Supertrend follows the ATR-based SuperTrend indicator, buying when the
// trend flips up and selling when it flips down.
type Supertrend struct{}

func (s *Supertrend) ID() string   { return "supertrend" }
func (s *Supertrend) Name() string { return "SuperTrend" }

func (s *Supertrend) Description() string {
	return "Trend-following strategy using the SuperTrend indicator based on ATR. Follows the market's directional trend."
}

func (s *Supertrend) DefaultParams() Params {
	return Params{"atr_period": 10.0, "multiplier": 3.0}
}

func (s *Supertrend) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"atr_period": {Label: "ATR Period", Min: 5, Max: 50, Step: 1},
		"multiplier": {Label: "ATR Multiplier", Min: 1.0, Max: 6.0, Step: 0.5},
	}
}

func (s *Supertrend) Validate(p Params) error {
	return validateBounds(s.ParamInfo(), p)
}

// compute runs the band construction: basic bands from hl2 ± mult*ATR,
// final bands that only tighten unless price closes through them, and the
// resulting trend direction (+1 up, -1 down).
func (s *Supertrend) compute(candles []models.Candle, p Params) (supertrend []float64, dir []int) {
	atrPeriod := p.Int("atr_period", 10)
	mult := p.Float("multiplier", 3.0)
	n := len(candles)

	atr := atrWilder(candles, atrPeriod)

	basicUpper := make([]float64, n)
	basicLower := make([]float64, n)
	for i := 0; i < n; i++ {
		hl2 := (candles[i].High + candles[i].Low) / 2
		a := atr[i]
		if math.IsNaN(a) {
			a = 0
		}
		basicUpper[i] = hl2 + mult*a
		basicLower[i] = hl2 - mult*a
	}

	finalUpper := make([]float64, n)
	finalLower := make([]float64, n)
	copy(finalUpper, basicUpper)
	copy(finalLower, basicLower)
	for i := 1; i < n; i++ {
		if basicUpper[i] < finalUpper[i-1] || candles[i-1].Close > finalUpper[i-1] {
			finalUpper[i] = basicUpper[i]
		} else {
			finalUpper[i] = finalUpper[i-1]
		}
		if basicLower[i] > finalLower[i-1] || candles[i-1].Close < finalLower[i-1] {
			finalLower[i] = basicLower[i]
		} else {
			finalLower[i] = finalLower[i-1]
		}
	}

	supertrend = make([]float64, n)
	dir = make([]int, n)
	for i := range dir {
		dir[i] = 1
	}
	if candles[0].Close <= finalUpper[0] {
		dir[0] = -1
		supertrend[0] = finalUpper[0]
	} else {
		dir[0] = 1
		supertrend[0] = finalLower[0]
	}
	for i := 1; i < n; i++ {
		prev := supertrend[i-1]
		if math.Abs(prev-finalUpper[i-1]) < 1e-9 {
			// Riding the upper band: downtrend until price closes above it.
			if candles[i].Close > finalUpper[i] {
				dir[i] = 1
				supertrend[i] = finalLower[i]
			} else {
				dir[i] = -1
				supertrend[i] = finalUpper[i]
			}
		} else {
			// Riding the lower band: uptrend until price closes below it.
			if candles[i].Close < finalLower[i] {
				dir[i] = -1
				supertrend[i] = finalUpper[i]
			} else {
				dir[i] = 1
				supertrend[i] = finalLower[i]
			}
		}
	}
	return supertrend, dir
}

func (s *Supertrend) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	atrPeriod := p.Int("atr_period", 10)
	if len(candles) < atrPeriod+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", atrPeriod+1, len(candles))
	}

	_, dir := s.compute(candles, p)

	signals := make([]models.Signal, len(candles))
	for i := 1; i < len(candles); i++ {
		if dir[i] == 1 && dir[i-1] == -1 {
			signals[i] = models.SignalBuy
		} else if dir[i] == -1 && dir[i-1] == 1 {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *Supertrend) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	supertrend, _ := s.compute(candles, p)
	return map[string]models.IndicatorSeries{
		"SuperTrend": {
			Data:      chartSeries(candles, supertrend, 2),
			Type:      "price",
			Color:     "#eab308",
			LineWidth: 2,
		},
	}
}
