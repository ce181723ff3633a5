package models

// Candle represents a single OHLCV bar at a fixed timeframe.
// Time is a Unix timestamp in seconds; bars are ordered ascending by Time
// with unique timestamps. Gaps are tolerated but never filled.
type Candle struct {
	// Time is the bar's open time as a Unix timestamp in seconds.
	Time int64 `json:"time"`
	// Open is the opening price of the bar.
	Open float64 `json:"open"`
	// High is the highest traded price during the bar.
	High float64 `json:"high"`
	// Low is the lowest traded price during the bar.
	Low float64 `json:"low"`
	// Close is the closing price of the bar. All fills and equity
	// marks use this price.
	Close float64 `json:"close"`
	// Volume is the traded base-asset volume during the bar.
	Volume float64 `json:"volume"`
}

// Timeframes supported by the market data provider, ordered from finest
// to coarsest granularity.
var Timeframes = []string{"5m", "15m", "1h", "4h", "1d", "1w"}

// IsValidTimeframe reports whether tf is one of the supported timeframes.
func IsValidTimeframe(tf string) bool {
	for _, t := range Timeframes {
		if t == tf {
			return true
		}
	}
	return false
}
