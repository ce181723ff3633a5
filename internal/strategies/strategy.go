package strategies

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// Params maps parameter names to concrete values. Numeric values arrive as
// float64 (JSON) or int (grid expansion); categorical values are strings.
type Params map[string]any

// Float returns the named parameter as a float64, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// Int returns the named parameter rounded to the nearest integer.
func (p Params) Int(key string, def int) int {
	return int(math.Round(p.Float(key, float64(def))))
}

// String returns the named parameter as a string, or def when absent.
func (p Params) String(key, def string) string {
	if v, ok := p[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Clone returns a shallow copy of the parameter set.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge overlays overrides onto defaults and returns the combined set.
// Neither input is modified.
func Merge(defaults, overrides Params) Params {
	out := defaults.Clone()
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Strategy maps a candle series plus a parameter set to a per-bar signal
// sequence. Implementations are stateless; every method may be called
// concurrently with distinct arguments.
type Strategy interface {
	// ID is the stable registry identifier, e.g. "sma_crossover".
	ID() string
	// Name is the human-readable strategy name.
	Name() string
	// Description summarizes the trading rule for UI display.
	Description() string
	// DefaultParams returns a fresh copy of the default parameter set.
	DefaultParams() Params
	// ParamInfo declares each tunable parameter's bounds and step.
	ParamInfo() map[string]models.ParamInfo
	// Validate rejects parameters outside their declared bounds or
	// violating cross-parameter constraints.
	Validate(p Params) error
	// GenerateSignals produces exactly one signal per candle. It returns
	// an error when the series is too short for the indicator windows.
	GenerateSignals(candles []models.Candle, p Params) ([]models.Signal, error)
	// Indicators returns the chart series computed from the candles.
	Indicators(candles []models.Candle, p Params) map[string]models.IndicatorSeries
}

// validateBounds checks every supplied parameter against the declared
// ParamInfo: unknown names, out-of-range numerics and unlisted categorical
// options are all rejected.
func validateBounds(info map[string]models.ParamInfo, p Params) error {
	for name := range p {
		pi, ok := info[name]
		if !ok {
			return fmt.Errorf("unknown parameter %q", name)
		}
		if pi.IsCategorical() {
			val := p.String(name, "")
			found := false
			for _, opt := range pi.Options {
				if opt == val {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("parameter %q: %q is not a valid option", name, val)
			}
			continue
		}
		val := p.Float(name, math.NaN())
		if math.IsNaN(val) {
			return fmt.Errorf("parameter %q: numeric value required", name)
		}
		if val < pi.Min || val > pi.Max {
			return fmt.Errorf("parameter %q: %v outside declared bounds [%v, %v]", name, val, pi.Min, pi.Max)
		}
	}
	return nil
}

// Registry holds the available strategies in a fixed registration order so
// sweep iteration is deterministic.
type Registry struct {
	order []string
	byID  map[string]Strategy
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Strategy)}
}

// Register adds a strategy; registering a duplicate id panics since the
// registry is assembled once at startup.
func (r *Registry) Register(s Strategy) {
	if _, exists := r.byID[s.ID()]; exists {
		panic(fmt.Sprintf("strategy %q registered twice", s.ID()))
	}
	r.byID[s.ID()] = s
	r.order = append(r.order, s.ID())
}

// Get returns the strategy registered under id.
func (r *Registry) Get(id string) (Strategy, bool) {
	s, ok := r.byID[id]
	return s, ok
}

// IDs returns the strategy ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// All returns the strategies in registration order.
func (r *Registry) All() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Describe builds the UI descriptor for one registered strategy.
func Describe(s Strategy) models.StrategyDescriptor {
	return models.StrategyDescriptor{
		ID:            s.ID(),
		Name:          s.Name(),
		Description:   s.Description(),
		DefaultParams: s.DefaultParams(),
		ParamInfo:     s.ParamInfo(),
	}
}

// DefaultRegistry assembles the built-in strategy set. Registration order
// is fixed; it determines sweep encounter order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SMACrossover{})
	r.Register(&EMACrossover{})
	r.Register(&RSIMeanReversion{})
	r.Register(&MACDCrossover{})
	r.Register(&BollingerBands{})
	r.Register(&Supertrend{})
	r.Register(&CombinedRSIMACD{})
	r.Register(&MeanReversion{})
	r.Register(&DonchianBreakout{})
	r.Register(&TSMOM{})
	return r
}
