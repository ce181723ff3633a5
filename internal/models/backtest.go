package models

// Signal is a strategy-emitted directive for a single bar.
type Signal int8

const (
	// SignalNone indicates no action for the bar. The engine never
	// reinterprets it as a hold; position state carries forward only
	// through the engine's own state machine.
	SignalNone Signal = 0
	// SignalBuy requests entering a long position at the bar's close.
	SignalBuy Signal = 1
	// SignalSell requests exiting the open long position at the bar's close.
	SignalSell Signal = -1
)

// TradeSide marks a trade record as an entry or an exit.
type TradeSide string

const (
	TradeBuy  TradeSide = "BUY"
	TradeSell TradeSide = "SELL"
)

// Trade is an immutable ledger entry. A closed round-trip is a BUY followed
// by its matching SELL; a trailing BUY with no matching SELL is an open
// trade. PnlPct is set on SELL records only, rounded to two decimals.
type Trade struct {
	Type   TradeSide `json:"type"`
	Time   int64     `json:"time"`
	Price  float64   `json:"price"`
	PnlPct *float64  `json:"pnl_pct,omitempty"`
}

// EquityPoint is the portfolio value (cash plus marked position value)
// after processing one bar.
type EquityPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// Metrics is the scalar performance summary of one completed simulation.
// Percentage fields are rounded to two decimals at computation time; the
// struct is never mutated afterwards.
type Metrics struct {
	// TotalReturn is the strategy's percentage return over initial capital.
	TotalReturn float64 `json:"total_return"`
	// BuyHoldReturn is the benchmark return of buying at bar 0 and
	// holding to the last bar.
	BuyHoldReturn float64 `json:"buy_hold_return"`
	// FinalCapital is the last equity-curve value.
	FinalCapital float64 `json:"final_capital"`
	// NumTrades counts closed round-trips; a trailing open position is
	// excluded.
	NumTrades int `json:"num_trades"`
	// WinRate is the percentage of closed trades with positive pnl,
	// zero when there are no closed trades.
	WinRate float64 `json:"win_rate"`
	// AvgWinPct is the mean pnl percentage over winning closed trades,
	// absent when there are none.
	AvgWinPct *float64 `json:"avg_win_pct"`
	// AvgLossPct is the mean pnl percentage over losing closed trades,
	// absent when there are none.
	AvgLossPct *float64 `json:"avg_loss_pct"`
	// MaxDrawdown is the largest peak-to-trough percentage decline of
	// the equity curve, reported as a positive magnitude.
	MaxDrawdown float64 `json:"max_drawdown"`
	// SharpeRatio is annualized from per-bar equity returns; zero when
	// returns have no variance.
	SharpeRatio float64 `json:"sharpe_ratio"`
	// ProfitFactor is gross winning pnl over absolute gross losing pnl;
	// 999 when there are winners but no losers.
	ProfitFactor float64 `json:"profit_factor"`
}

// IndicatorPoint is one sample of an indicator series for charting.
type IndicatorPoint struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
}

// IndicatorLevel is a horizontal reference line drawn with an oscillator.
type IndicatorLevel struct {
	Value float64 `json:"value"`
	Color string  `json:"color"`
	Label string  `json:"label"`
}

// IndicatorSeries is one named indicator line rendered by the chart UI.
// Type is "price" for overlays on the candle pane, "oscillator" or
// "histogram" for separate panes.
type IndicatorSeries struct {
	Data      []IndicatorPoint `json:"data"`
	Type      string           `json:"type"`
	Color     string           `json:"color"`
	LineWidth int              `json:"lineWidth,omitempty"`
	LineStyle int              `json:"lineStyle,omitempty"`
	Levels    []IndicatorLevel `json:"levels,omitempty"`
}
