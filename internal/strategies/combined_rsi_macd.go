package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// CombinedRSIMACD requires RSI and MACD agreement before entering,
// producing fewer but higher-confidence trades.
type CombinedRSIMACD struct{}

func (s *CombinedRSIMACD) ID() string   { return "combined_rsi_macd" }
func (s *CombinedRSIMACD) Name() string { return "RSI + MACD Combined" }

func (s *CombinedRSIMACD) Description() string {
	return "High-confidence signals requiring both RSI and MACD agreement. Fewer but higher-quality trades."
}

func (s *CombinedRSIMACD) DefaultParams() Params {
	return Params{
		"rsi_period":     14.0,
		"rsi_oversold":   40.0,
		"rsi_overbought": 60.0,
		"macd_fast":      12.0,
		"macd_slow":      26.0,
		"macd_signal":    9.0,
	}
}

func (s *CombinedRSIMACD) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"rsi_period":     {Label: "RSI Period", Min: 5, Max: 50, Step: 1},
		"rsi_oversold":   {Label: "RSI Oversold", Min: 20, Max: 50, Step: 1},
		"rsi_overbought": {Label: "RSI Overbought", Min: 50, Max: 80, Step: 1},
		"macd_fast":      {Label: "MACD Fast", Min: 5, Max: 30, Step: 1},
		"macd_slow":      {Label: "MACD Slow", Min: 10, Max: 60, Step: 1},
		"macd_signal":    {Label: "MACD Signal", Min: 3, Max: 20, Step: 1},
	}
}

func (s *CombinedRSIMACD) Validate(p Params) error {
	if err := validateBounds(s.ParamInfo(), p); err != nil {
		return err
	}
	merged := Merge(s.DefaultParams(), p)
	if merged.Int("macd_fast", 0) >= merged.Int("macd_slow", 0) {
		return fmt.Errorf("macd_fast must be less than macd_slow")
	}
	if merged.Float("rsi_oversold", 0) >= merged.Float("rsi_overbought", 0) {
		return fmt.Errorf("rsi_oversold must be less than rsi_overbought")
	}
	return nil
}

func (s *CombinedRSIMACD) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	rsiPeriod := p.Int("rsi_period", 14)
	macdSlow := p.Int("macd_slow", 26)
	macdSignal := p.Int("macd_signal", 9)
	need := macdSlow + macdSignal
	if n := rsiPeriod + 2; n > need {
		need = n
	}
	if len(candles) < need {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", need, len(candles))
	}

	prices := closes(candles)
	rsi := rsiSeries(prices, rsiPeriod)
	macd, signalLine := macdSeries(prices, p.Int("macd_fast", 12), macdSlow, macdSignal)

	oversold := constSeries(len(candles), p.Float("rsi_oversold", 40))
	overbought := constSeries(len(candles), p.Float("rsi_overbought", 60))

	signals := make([]models.Signal, len(candles))
	for i := range candles {
		macdValid := !math.IsNaN(macd[i]) && !math.IsNaN(signalLine[i])

		// Entry needs RSI recovering from oversold while MACD confirms.
		if crossAbove(rsi, oversold, i) && macdValid && macd[i] > signalLine[i] {
			signals[i] = models.SignalBuy
			continue
		}
		// Exit on RSI rolling over from overbought, or a MACD bearish cross.
		if crossBelow(rsi, overbought, i) || crossBelow(macd, signalLine, i) {
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *CombinedRSIMACD) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	prices := closes(candles)
	rsi := rsiSeries(prices, p.Int("rsi_period", 14))
	macd, signalLine := macdSeries(prices, p.Int("macd_fast", 12), p.Int("macd_slow", 26), p.Int("macd_signal", 9))

	return map[string]models.IndicatorSeries{
		"RSI": {
			Data:      chartSeries(candles, rsi, 2),
			Type:      "oscillator",
			Color:     "#f59e0b",
			LineWidth: 2,
			Levels: []models.IndicatorLevel{
				{Value: p.Float("rsi_oversold", 40), Color: "#22c55e66", Label: "Oversold"},
				{Value: p.Float("rsi_overbought", 60), Color: "#ef444466", Label: "Overbought"},
			},
		},
		"MACD": {
			Data:      chartSeries(candles, macd, 4),
			Type:      "oscillator",
			Color:     "#3b82f6",
			LineWidth: 2,
		},
		"MACD Signal": {
			Data:      chartSeries(candles, signalLine, 4),
			Type:      "oscillator",
			Color:     "#a855f7",
			LineWidth: 1,
		},
	}
}
