package strategies

import (
	"math"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"
	"github.com/cinar/indicator/v2/trend"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// closes extracts the close-price series from candles.
func closes(candles []models.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// padLeft aligns an indicator output that is shorter than its input by
// prefixing NaN for the warm-up bars, so every series indexes 1:1 with the
// candle series.
func padLeft(values []float64, n int) []float64 {
	if len(values) >= n {
		return values[len(values)-n:]
	}
	out := make([]float64, n)
	pad := n - len(values)
	for i := 0; i < pad; i++ {
		out[i] = math.NaN()
	}
	copy(out[pad:], values)
	return out
}

// smaSeries computes a simple moving average aligned to the input length.
func smaSeries(prices []float64, period int) []float64 {
	if period < 1 || period > len(prices) {
		return nanSeries(len(prices))
	}
	sma := trend.NewSmaWithPeriod[float64](period)
	out := helper.ChanToSlice(sma.Compute(helper.SliceToChan(prices)))
	return padLeft(out, len(prices))
}

// emaSeries computes an exponential moving average aligned to the input
// length.
func emaSeries(prices []float64, period int) []float64 {
	if period < 1 || period > len(prices) {
		return nanSeries(len(prices))
	}
	ema := trend.NewEmaWithPeriod[float64](period)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(prices)))
	return padLeft(out, len(prices))
}

// rsiSeries computes the relative strength index aligned to the input
// length.
func rsiSeries(prices []float64, period int) []float64 {
	if period < 1 || period >= len(prices) {
		return nanSeries(len(prices))
	}
	rsi := momentum.NewRsiWithPeriod[float64](period)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(prices)))
	return padLeft(out, len(prices))
}

// macdSeries composes the MACD line from fast and slow EMAs and smooths it
// into the signal line. Both outputs are aligned to the input length.
func macdSeries(prices []float64, fast, slow, signalPeriod int) (macd, signalLine []float64) {
	emaFast := emaSeries(prices, fast)
	emaSlow := emaSeries(prices, slow)

	macd = make([]float64, len(prices))
	firstValid := len(prices)
	for i := range prices {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			macd[i] = math.NaN()
			continue
		}
		if i < firstValid {
			firstValid = i
		}
		macd[i] = emaFast[i] - emaSlow[i]
	}

	signalLine = nanSeries(len(prices))
	if firstValid < len(prices) {
		smoothed := emaSeries(macd[firstValid:], signalPeriod)
		copy(signalLine[firstValid:], smoothed)
	}
	return macd, signalLine
}

// rollingMean computes a windowed arithmetic mean with NaN for warm-up
// bars.
func rollingMean(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period < 1 || period > len(values) {
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// rollingStd computes a windowed sample standard deviation (n-1 divisor)
// with NaN for warm-up bars.
func rollingStd(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period < 2 || period > len(values) {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		window := values[i-period+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(period)
		sq := 0.0
		for _, v := range window {
			d := v - mean
			sq += d * d
		}
		out[i] = math.Sqrt(sq / float64(period-1))
	}
	return out
}

// rollingMax computes a windowed maximum with NaN for warm-up bars.
func rollingMax(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period < 1 || period > len(values) {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		m := values[i-period+1]
		for _, v := range values[i-period+2 : i+1] {
			if v > m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

// rollingMin computes a windowed minimum with NaN for warm-up bars.
func rollingMin(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	if period < 1 || period > len(values) {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		m := values[i-period+1]
		for _, v := range values[i-period+2 : i+1] {
			if v < m {
				m = v
			}
		}
		out[i] = m
	}
	return out
}

// atrWilder computes the average true range with Wilder smoothing, NaN for
// warm-up bars.
func atrWilder(candles []models.Candle, period int) []float64 {
	n := len(candles)
	out := nanSeries(n)
	if period < 1 || period > n {
		return out
	}

	tr := make([]float64, n)
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < n; i++ {
		hl := candles[i].High - candles[i].Low
		hc := math.Abs(candles[i].High - candles[i-1].Close)
		lc := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period-1] = sum / float64(period)
	for i := period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// nanSeries returns a slice of n NaN values.
func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// crossAbove reports whether series a crossed above series b at bar i.
// Warm-up NaN on either side suppresses the signal.
func crossAbove(a, b []float64, i int) bool {
	if i < 1 {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i] > b[i] && a[i-1] <= b[i-1]
}

// crossBelow reports whether series a crossed below series b at bar i.
func crossBelow(a, b []float64, i int) bool {
	if i < 1 {
		return false
	}
	if math.IsNaN(a[i]) || math.IsNaN(b[i]) || math.IsNaN(a[i-1]) || math.IsNaN(b[i-1]) {
		return false
	}
	return a[i] < b[i] && a[i-1] >= b[i-1]
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// chartSeries converts an aligned indicator series into chart points,
// dropping warm-up NaN bars and rounding values for display.
func chartSeries(candles []models.Candle, values []float64, decimals int) []models.IndicatorPoint {
	out := make([]models.IndicatorPoint, 0, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, models.IndicatorPoint{Time: candles[i].Time, Value: roundTo(v, decimals)})
	}
	return out
}
