package backtest

import (
	"math"
	"sort"

	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// GridDiagnostics describes how a parameter grid was expanded.
type GridDiagnostics struct {
	// UnscaledCombinations is the grid size at the declared steps (after
	// stepScale, before any auto-scale coarsening).
	UnscaledCombinations int `json:"unscaled_combinations"`
	// EstimatedCombinations is the grid size before validity filtering,
	// at the applied step multiplier.
	EstimatedCombinations int `json:"estimated_combinations"`
	// AppliedStepMultiplier is the integer factor auto-scaling settled
	// on; 1 means no coarsening was needed.
	AppliedStepMultiplier int `json:"applied_step_multiplier"`
	// SkippedInvalid counts combinations rejected by the strategy's own
	// parameter validation.
	SkippedInvalid int `json:"skipped_invalid_combinations"`
	// UnderCapNotGuaranteed is set when coarsening stopped early because
	// a parameter axis would have collapsed to a single value, leaving
	// the grid above the requested cap.
	UnderCapNotGuaranteed bool `json:"under_cap_not_guaranteed,omitempty"`
}

// ExpandGrid materializes the Cartesian product of every parameter's value
// range. Numeric axes step from Min to Max by Step*stepScale; categorical
// axes enumerate their options and are never coarsened.
//
// When autoScale is set and the grid would exceed maxCombinations, the
// numeric step is multiplied by successive integers until the grid fits,
// stopping before any multi-value axis collapses to a single value.
// Combinations failing the validate callback are skipped and counted.
//
// Expansion order is deterministic: parameter names sorted ascending,
// with the last name varying fastest.
func ExpandGrid(
	spec map[string]models.ParamInfo,
	stepScale float64,
	maxCombinations int,
	autoScale bool,
	validate func(strategies.Params) error,
) ([]strategies.Params, GridDiagnostics) {
	diag := GridDiagnostics{AppliedStepMultiplier: 1}

	if len(spec) == 0 {
		return []strategies.Params{}, diag
	}
	if stepScale <= 0 {
		stepScale = 1
	}

	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)

	baseCounts := axisCounts(names, spec, stepScale, 1)
	diag.UnscaledCombinations = product(baseCounts)

	// The largest multiplier at which any coarsenable axis still changes;
	// beyond it further increases can only collapse axes, so the search
	// below is bounded even when no axis is coarsenable at all.
	limit := maxUsefulMultiplier(names, spec, stepScale)

	multiplier := 1
	if autoScale && maxCombinations > 0 {
		for product(axisCounts(names, spec, stepScale, multiplier)) > maxCombinations {
			if multiplier >= limit {
				diag.UnderCapNotGuaranteed = true
				break
			}
			next := multiplier + 1
			nextCounts := axisCounts(names, spec, stepScale, next)
			collapsed := false
			for i, c := range nextCounts {
				if baseCounts[i] >= 2 && c < 2 {
					collapsed = true
					break
				}
			}
			if collapsed {
				diag.UnderCapNotGuaranteed = true
				break
			}
			multiplier = next
		}
	}
	diag.AppliedStepMultiplier = multiplier

	axes := make([][]any, len(names))
	for i, name := range names {
		axes[i] = axisValues(spec[name], stepScale, multiplier)
	}

	total := 1
	for _, axis := range axes {
		total *= len(axis)
	}
	diag.EstimatedCombinations = total

	combos := make([]strategies.Params, 0, total)
	idx := make([]int, len(axes))
	for {
		p := make(strategies.Params, len(names))
		for i, name := range names {
			p[name] = axes[i][idx[i]]
		}
		if validate == nil || validate(p) == nil {
			combos = append(combos, p)
		} else {
			diag.SkippedInvalid++
		}

		// Advance row-major: rightmost axis varies fastest.
		pos := len(idx) - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(axes[pos]) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			break
		}
	}

	return combos, diag
}

// axisValues enumerates one parameter's values at the given coarsening.
func axisValues(info models.ParamInfo, stepScale float64, multiplier int) []any {
	if info.IsCategorical() {
		out := make([]any, len(info.Options))
		for i, o := range info.Options {
			out[i] = o
		}
		return out
	}

	step := info.Step * stepScale * float64(multiplier)
	if step <= 0 {
		return []any{info.Min}
	}

	// Values are derived from the index, not accumulated, so float
	// drift cannot drop or duplicate the endpoint.
	n := int(math.Floor((info.Max-info.Min)/step+1e-9)) + 1
	if n < 1 {
		n = 1
	}
	out := make([]any, n)
	for i := 0; i < n; i++ {
		out[i] = roundStep(info.Min + float64(i)*step)
	}
	return out
}

// maxUsefulMultiplier returns the largest multiplier at which some numeric
// multi-value axis still spans at least two values. Categorical and
// single-valued axes never coarsen, so a spec with only those returns 1.
func maxUsefulMultiplier(names []string, spec map[string]models.ParamInfo, stepScale float64) int {
	limit := 1
	for _, name := range names {
		info := spec[name]
		if info.IsCategorical() {
			continue
		}
		step := info.Step * stepScale
		if step <= 0 {
			continue
		}
		// The axis holds >= 2 values while step*m <= Max-Min.
		m := int(math.Floor((info.Max-info.Min)/step + 1e-9))
		if m > limit {
			limit = m
		}
	}
	return limit
}

func axisCounts(names []string, spec map[string]models.ParamInfo, stepScale float64, multiplier int) []int {
	counts := make([]int, len(names))
	for i, name := range names {
		counts[i] = len(axisValues(spec[name], stepScale, multiplier))
	}
	return counts
}

func product(counts []int) int {
	total := 1
	for _, c := range counts {
		total *= c
	}
	return total
}

// roundStep trims float noise like 0.30000000000000004 from stepped values.
func roundStep(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
