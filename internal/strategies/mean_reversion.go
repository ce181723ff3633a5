package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// MeanReversion trades the z-score of price against its rolling mean:
// buy deep below the mean, sell well above it.
type MeanReversion struct{}

func (s *MeanReversion) ID() string   { return "mean_reversion" }
func (s *MeanReversion) Name() string { return "Z-Score Mean Reversion" }

func (s *MeanReversion) Description() string {
	return "Buy when price falls far below its rolling mean (negative z-score); sell when it stretches above. Statistical mean-reversion strategy."
}

func (s *MeanReversion) DefaultParams() Params {
	return Params{"period": 20.0, "z_buy": -2.0, "z_sell": 1.0}
}

func (s *MeanReversion) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"period": {Label: "Lookback Period", Min: 5, Max: 100, Step: 1},
		"z_buy":  {Label: "Buy Z-Score", Min: -4.0, Max: -0.5, Step: 0.1},
		"z_sell": {Label: "Sell Z-Score", Min: 0.5, Max: 4.0, Step: 0.1},
	}
}

func (s *MeanReversion) Validate(p Params) error {
	return validateBounds(s.ParamInfo(), p)
}

func (s *MeanReversion) zscore(candles []models.Candle, p Params) []float64 {
	period := p.Int("period", 20)
	prices := closes(candles)
	mean := rollingMean(prices, period)
	std := rollingStd(prices, period)

	z := make([]float64, len(prices))
	for i := range prices {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			z[i] = math.NaN()
			continue
		}
		z[i] = (prices[i] - mean[i]) / std[i]
	}
	return z
}

func (s *MeanReversion) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	period := p.Int("period", 20)
	if len(candles) < period+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", period+1, len(candles))
	}

	zBuy := p.Float("z_buy", -2.0)
	zSell := p.Float("z_sell", 1.0)
	z := s.zscore(candles, p)

	signals := make([]models.Signal, len(candles))
	for i := 1; i < len(candles); i++ {
		if math.IsNaN(z[i]) || math.IsNaN(z[i-1]) {
			continue
		}
		if z[i] < zBuy && z[i-1] >= zBuy {
			signals[i] = models.SignalBuy
		} else if z[i] > zSell && z[i-1] <= zSell {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *MeanReversion) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	mean := rollingMean(closes(candles), p.Int("period", 20))
	z := s.zscore(candles, p)
	return map[string]models.IndicatorSeries{
		"Rolling Mean": {
			Data:      chartSeries(candles, mean, 2),
			Type:      "price",
			Color:     "#6b7280",
			LineWidth: 1,
		},
		"Z-Score": {
			Data:      chartSeries(candles, z, 2),
			Type:      "oscillator",
			Color:     "#06b6d4",
			LineWidth: 2,
			Levels: []models.IndicatorLevel{
				{Value: p.Float("z_buy", -2.0), Color: "#22c55e66", Label: "Buy"},
				{Value: 0, Color: "#94a3b833", Label: "Mean"},
				{Value: p.Float("z_sell", 1.0), Color: "#ef444466", Label: "Sell"},
			},
		},
	}
}
