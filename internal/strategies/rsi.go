package strategies

import (
	"fmt"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// RSIMeanReversion buys when the RSI crosses up out of the oversold zone
// and sells when it crosses down out of the overbought zone.
type RSIMeanReversion struct{}

func (s *RSIMeanReversion) ID() string   { return "rsi" }
func (s *RSIMeanReversion) Name() string { return "RSI Mean Reversion" }

func (s *RSIMeanReversion) Description() string {
	return "Buy when RSI crosses up from oversold; sell when RSI crosses down from overbought. Classic momentum oscillator strategy."
}

func (s *RSIMeanReversion) DefaultParams() Params {
	return Params{"period": 14.0, "oversold": 30.0, "overbought": 70.0}
}

func (s *RSIMeanReversion) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"period":     {Label: "RSI Period", Min: 2, Max: 50, Step: 1},
		"oversold":   {Label: "Oversold Level", Min: 10, Max: 45, Step: 1},
		"overbought": {Label: "Overbought Level", Min: 55, Max: 90, Step: 1},
	}
}

func (s *RSIMeanReversion) Validate(p Params) error {
	if err := validateBounds(s.ParamInfo(), p); err != nil {
		return err
	}
	merged := Merge(s.DefaultParams(), p)
	if merged.Float("oversold", 0) >= merged.Float("overbought", 0) {
		return fmt.Errorf("oversold must be less than overbought")
	}
	return nil
}

func (s *RSIMeanReversion) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	period := p.Int("period", 14)
	oversold := p.Float("oversold", 30)
	overbought := p.Float("overbought", 70)
	if len(candles) < period+2 {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", period+2, len(candles))
	}

	rsi := rsiSeries(closes(candles), period)
	oversoldLine := constSeries(len(candles), oversold)
	overboughtLine := constSeries(len(candles), overbought)

	signals := make([]models.Signal, len(candles))
	for i := range candles {
		switch {
		case crossAbove(rsi, oversoldLine, i):
			signals[i] = models.SignalBuy
		case crossBelow(rsi, overboughtLine, i):
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *RSIMeanReversion) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	rsi := rsiSeries(closes(candles), p.Int("period", 14))
	return map[string]models.IndicatorSeries{
		"RSI": {
			Data:      chartSeries(candles, rsi, 2),
			Type:      "oscillator",
			Color:     "#f59e0b",
			LineWidth: 2,
			Levels: []models.IndicatorLevel{
				{Value: p.Float("oversold", 30), Color: "#22c55e66", Label: "Oversold"},
				{Value: 50, Color: "#94a3b833", Label: "Mid"},
				{Value: p.Float("overbought", 70), Color: "#ef444466", Label: "Overbought"},
			},
		},
	}
}

// constSeries returns a series holding the same value at every index, used
// to express threshold crossings with the shared cross helpers.
func constSeries(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
