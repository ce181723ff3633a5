package strategies

import (
	"fmt"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// SMACrossover buys when the fast SMA crosses above the slow SMA and sells
// when it crosses below.
type SMACrossover struct{}

func (s *SMACrossover) ID() string   { return "sma_crossover" }
func (s *SMACrossover) Name() string { return "SMA Crossover" }

func (s *SMACrossover) Description() string {
	return "Buy when the fast SMA crosses above the slow SMA; sell when it crosses below. Classic trend-following strategy."
}

func (s *SMACrossover) DefaultParams() Params {
	return Params{"fast_period": 20.0, "slow_period": 50.0}
}

func (s *SMACrossover) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"fast_period": {Label: "Fast Period", Min: 2, Max: 200, Step: 1},
		"slow_period": {Label: "Slow Period", Min: 5, Max: 500, Step: 1},
	}
}

func (s *SMACrossover) Validate(p Params) error {
	if err := validateBounds(s.ParamInfo(), p); err != nil {
		return err
	}
	merged := Merge(s.DefaultParams(), p)
	if merged.Int("fast_period", 0) >= merged.Int("slow_period", 0) {
		return fmt.Errorf("fast_period must be less than slow_period")
	}
	return nil
}

func (s *SMACrossover) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	fast := p.Int("fast_period", 20)
	slow := p.Int("slow_period", 50)
	if len(candles) < slow+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", slow+1, len(candles))
	}

	prices := closes(candles)
	smaFast := smaSeries(prices, fast)
	smaSlow := smaSeries(prices, slow)

	signals := make([]models.Signal, len(candles))
	for i := range candles {
		switch {
		case crossAbove(smaFast, smaSlow, i):
			signals[i] = models.SignalBuy
		case crossBelow(smaFast, smaSlow, i):
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *SMACrossover) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	prices := closes(candles)
	return map[string]models.IndicatorSeries{
		"SMA Fast": {
			Data:      chartSeries(candles, smaSeries(prices, p.Int("fast_period", 20)), 2),
			Type:      "price",
			Color:     "#3b82f6",
			LineWidth: 1,
		},
		"SMA Slow": {
			Data:      chartSeries(candles, smaSeries(prices, p.Int("slow_period", 50)), 2),
			Type:      "price",
			Color:     "#f59e0b",
			LineWidth: 1,
		},
	}
}
