package models

import "fmt"

// BacktestRequest is the payload for running a single backtest.
type BacktestRequest struct {
	// Strategy is the registry id of the strategy to run.
	Strategy string `json:"strategy" binding:"required"`
	// Timeframe is the bar granularity, e.g. "1d".
	Timeframe string `json:"timeframe"`
	// Period is the lookback window, e.g. "1y".
	Period string `json:"period"`
	// Params overrides the strategy's default parameters; omitted keys
	// keep their defaults.
	Params map[string]any `json:"params"`
	// InitialCapital is the simulated starting cash.
	InitialCapital float64 `json:"initial_capital"`
}

// BacktestResponse is the full result of a single backtest run.
type BacktestResponse struct {
	StrategyName string                     `json:"strategy_name"`
	Params       map[string]any             `json:"params"`
	Candles      []Candle                   `json:"candles"`
	Indicators   map[string]IndicatorSeries `json:"indicators"`
	Trades       []Trade                    `json:"trades"`
	EquityCurve  []EquityPoint              `json:"equity_curve"`
	BhCurve      []EquityPoint              `json:"bh_curve"`
	Metrics      Metrics                    `json:"metrics"`
}

// CompareRequest runs two strategies over the same candles.
type CompareRequest struct {
	Strategy1      string         `json:"strategy1" binding:"required"`
	Strategy2      string         `json:"strategy2" binding:"required"`
	Timeframe      string         `json:"timeframe"`
	Period         string         `json:"period"`
	Params1        map[string]any `json:"params1"`
	Params2        map[string]any `json:"params2"`
	InitialCapital float64        `json:"initial_capital"`
}

// CompareResponse holds both sides of a strategy comparison.
type CompareResponse struct {
	Strategy1 *BacktestResponse `json:"strategy1"`
	Strategy2 *BacktestResponse `json:"strategy2"`
}

// Lookback expresses a sweep's history window as a value plus unit
// ("day", "week", "month" or "year").
type Lookback struct {
	Value int    `json:"value"`
	Unit  string `json:"unit"`
}

// String renders the lookback as e.g. "6 month".
func (l Lookback) String() string {
	return fmt.Sprintf("%d %s", l.Value, l.Unit)
}

// Days converts the lookback to whole days; unknown units count as days.
func (l Lookback) Days() int {
	switch l.Unit {
	case "week":
		return l.Value * 7
	case "month":
		return l.Value * 30
	case "year":
		return l.Value * 365
	default:
		return l.Value
	}
}

// SweepRequest is the payload for a parameter sweep across one or more
// strategies.
type SweepRequest struct {
	// StrategyIDs selects the strategies to sweep; empty means all
	// registered strategies.
	StrategyIDs []string `json:"strategy_ids"`
	Timeframe   string   `json:"timeframe"`
	Lookback    Lookback `json:"lookback"`
	// InitialCapital is the starting cash for every simulated run.
	InitialCapital float64 `json:"initial_capital"`
	// StepScale coarsens every numeric parameter's step before grid
	// expansion; 1 keeps declared steps.
	StepScale float64 `json:"step_scale"`
	// AutoScaleSteps widens steps further in integer multiples until the
	// per-strategy combination cap is met.
	AutoScaleSteps bool `json:"auto_scale_steps"`
	// MaxCombinationsPerStrategy caps each strategy's grid size.
	MaxCombinationsPerStrategy int `json:"max_combinations_per_strategy"`
	// TopN truncates the ranked result list; zero or negative returns all.
	TopN int `json:"top_n"`
}

// ParamInfo declares one tunable parameter's UI label and value domain.
// Numeric parameters carry Min/Max/Step; categorical ones enumerate
// Options instead.
type ParamInfo struct {
	Label   string   `json:"label"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Step    float64  `json:"step"`
	Options []string `json:"options,omitempty"`
}

// IsCategorical reports whether the parameter enumerates discrete options
// rather than a numeric range.
func (p ParamInfo) IsCategorical() bool {
	return len(p.Options) > 0
}

// StrategyDescriptor describes a registered strategy for UI population.
type StrategyDescriptor struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Description   string               `json:"description"`
	DefaultParams map[string]any       `json:"default_params"`
	ParamInfo     map[string]ParamInfo `json:"param_info"`
}
