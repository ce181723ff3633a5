package strategies

import (
	"fmt"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// EMACrossover buys when the fast EMA crosses above the slow EMA and sells
// when it crosses below. Reacts faster to price changes than SMACrossover.
type EMACrossover struct{}

func (s *EMACrossover) ID() string   { return "ema_crossover" }
func (s *EMACrossover) Name() string { return "EMA Crossover" }

func (s *EMACrossover) Description() string {
	return "Buy when the fast EMA crosses above the slow EMA; sell when it crosses below. Reacts faster to price changes than SMA."
}

func (s *EMACrossover) DefaultParams() Params {
	return Params{"fast_period": 12.0, "slow_period": 26.0}
}

func (s *EMACrossover) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"fast_period": {Label: "Fast Period", Min: 2, Max: 100, Step: 1},
		"slow_period": {Label: "Slow Period", Min: 5, Max: 300, Step: 1},
	}
}

func (s *EMACrossover) Validate(p Params) error {
	if err := validateBounds(s.ParamInfo(), p); err != nil {
		return err
	}
	merged := Merge(s.DefaultParams(), p)
	if merged.Int("fast_period", 0) >= merged.Int("slow_period", 0) {
		return fmt.Errorf("fast_period must be less than slow_period")
	}
	return nil
}

func (s *EMACrossover) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	fast := p.Int("fast_period", 12)
	slow := p.Int("slow_period", 26)
	if len(candles) < slow+1 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", slow+1, len(candles))
	}

	prices := closes(candles)
	emaFast := emaSeries(prices, fast)
	emaSlow := emaSeries(prices, slow)

	signals := make([]models.Signal, len(candles))
	for i := range candles {
		switch {
		case crossAbove(emaFast, emaSlow, i):
			signals[i] = models.SignalBuy
		case crossBelow(emaFast, emaSlow, i):
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *EMACrossover) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	prices := closes(candles)
	return map[string]models.IndicatorSeries{
		"EMA Fast": {
			Data:      chartSeries(candles, emaSeries(prices, p.Int("fast_period", 12)), 2),
			Type:      "price",
			Color:     "#a855f7",
			LineWidth: 1,
		},
		"EMA Slow": {
			Data:      chartSeries(candles, emaSeries(prices, p.Int("slow_period", 26)), 2),
			Type:      "price",
			Color:     "#ec4899",
			LineWidth: 1,
		},
	}
}
