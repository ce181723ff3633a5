package strategies

import (
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// MACDCrossover buys when the MACD line crosses above its signal line and
// sells when it crosses below.
type MACDCrossover struct{}

func (s *MACDCrossover) ID() string   { return "macd" }
func (s *MACDCrossover) Name() string { return "MACD Crossover" }

func (s *MACDCrossover) Description() string {
	return "Buy when the MACD line crosses above the signal line; sell when it crosses below. Trend momentum strategy."
}

func (s *MACDCrossover) DefaultParams() Params {
	return Params{"fast": 12.0, "slow": 26.0, "signal": 9.0}
}

func (s *MACDCrossover) ParamInfo() map[string]models.ParamInfo {
	return map[string]models.ParamInfo{
		"fast":   {Label: "Fast EMA", Min: 2, Max: 50, Step: 1},
		"slow":   {Label: "Slow EMA", Min: 5, Max: 200, Step: 1},
		"signal": {Label: "Signal Period", Min: 2, Max: 50, Step: 1},
	}
}

func (s *MACDCrossover) Validate(p Params) error {
	if err := validateBounds(s.ParamInfo(), p); err != nil {
		return err
	}
	merged := Merge(s.DefaultParams(), p)
	if merged.Int("fast", 0) >= merged.Int("slow", 0) {
		return fmt.Errorf("fast must be less than slow")
	}
	return nil
}

func (s *MACDCrossover) GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error) {
	fast := p.Int("fast", 12)
	slow := p.Int("slow", 26)
	signalPeriod := p.Int("signal", 9)
	need := slow + signalPeriod
	if len(candles) < need {
		return nil, fmt.Errorf("insufficient bars: need at least %d, got %d", need, len(candles))
	}

	macd, signalLine := macdSeries(closes(candles), fast, slow, signalPeriod)

	signals := make([]models.Signal, len(candles))
	for i := range candles {
		switch {
		case crossAbove(macd, signalLine, i):
			signals[i] = models.SignalBuy
		case crossBelow(macd, signalLine, i):
			signals[i] = models.SignalSell
		}
	}
	return signals, nil
}

func (s *MACDCrossover) Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries {
	macd, signalLine := macdSeries(closes(candles), p.Int("fast", 12), p.Int("slow", 26), p.Int("signal", 9))

	hist := make([]float64, len(macd))
	for i := range macd {
		if math.IsNaN(macd[i]) || math.IsNaN(signalLine[i]) {
			hist[i] = math.NaN()
			continue
		}
		hist[i] = macd[i] - signalLine[i]
	}

	return map[string]models.IndicatorSeries{
		"MACD": {
			Data:      chartSeries(candles, macd, 4),
			Type:      "oscillator",
			Color:     "#3b82f6",
			LineWidth: 2,
		},
		"MACD Signal": {
			Data:      chartSeries(candles, signalLine, 4),
			Type:      "oscillator",
			Color:     "#f59e0b",
			LineWidth: 1,
		},
		"MACD Hist": {
			Data:  chartSeries(candles, hist, 4),
			Type:  "histogram",
			Color: "#a855f7",
		},
	}
}
