package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// BollingerBands buys when price touches the lower band and sells when it
// touches the upper band, a mean-reversion rule.
type BollingerBands struct{}

func (s *BollingerBands) ID() string   { return "bollinger_bands" }
func (s *BollingerBands) Name() string { return "Bollinger Bands" }

func (s *BollingerBands) Description() string {
	return "Buy when price touches the lower band (oversold); sell when it touches the upper band (overbought). Mean-reversion strategy."
}

func (s *BollingerBands) DefaultParams() Params {
	return Params{"period": 20.0, "std_dev": 2.0}
}

func (s *BollingerBands) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"period":  {Label: "Period", Min: 5, Max: 100, Step: 1},
		"std_dev": {Label: "Std Dev Multiplier", Min: 0.5, Max: 4.0, Step: 0.1},
	}
}

func (s *BollingerBands) Validate(p Params) error {
	return validateBounds(s.ParamInfo(), p)
}

func (s *BollingerBands) bands(candles []models.Candle, p Params) (mid, upper, lower []float64) {
	period := p.Int("period", 20)
	stdDev := p.Float("std_dev", 2.0)

	prices := closes(candles)
	mid = smaSeries(prices, period)
	std := rollingStd(prices, period)

	upper = make([]float64, len(prices))
	lower = make([]float64, len(prices))
	for i := range prices {
		if math.IsNaN(mid[i]) || math.IsNaN(std[i]) {
			upper[i] = math.NaN()
			lower[i] = math.NaN()
			continue
		}
		upper[i] = mid[i] + stdDev*std[i]
		lower[i] = mid[i] - stdDev*std[i]
	}
	return mid, upper, lower
}

func (s *BollingerBands) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	period := p.Int("period", 20)
	if len(candles) < period+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", period+1, len(candles))
	}

	_, upper, lower := s.bands(candles, p)
	prices := closes(candles)

	signals := make([]models.Signal, len(candles))
	for i := 1; i < len(candles); i++ {
		if math.IsNaN(upper[i]) || math.IsNaN(upper[i-1]) {
			continue
		}
		if prices[i] <= lower[i] && prices[i-1] > lower[i-1] {
			signals[i] = models.SignalBuy
		} else if prices[i] >= upper[i] && prices[i-1] < upper[i-1] {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *BollingerBands) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	mid, upper, lower := s.bands(candles, p)
	return map[string]models.IndicatorSeries{
		"BB Upper": {
			Data:      chartSeries(candles, upper, 2),
			Type:      "price",
			Color:     "#14b8a6",
			LineWidth: 1,
			LineStyle: 2,
		},
		"BB Middle": {
			Data:      chartSeries(candles, mid, 2),
			Type:      "price",
			Color:     "#6b7280",
			LineWidth: 1,
		},
		"BB Lower": {
			Data:      chartSeries(candles, lower, 2),
			Type:      "price",
			Color:     "#14b8a6",
			LineWidth: 1,
			LineStyle: 2,
		},
	}
}
