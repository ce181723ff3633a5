package backtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/models"
	"github.com/irfandi/backtest-lab-go/internal/strategies"
)

// SweepConfig controls a parameter sweep across one or more strategies.
type SweepConfig struct {
	StrategyIDs                []string
	Timeframe                  string
	Lookback                   models.Lookback
	InitialCapital             float64
	StepScale                  float64
	AutoScaleSteps             bool
	MaxCombinationsPerStrategy int
	MaxTotalRuns               int
	TopN                       int
	Workers                    int
}

// RankedResult is one completed run, ranked by total return.
type RankedResult struct {
	Rank         int               `json:"rank"`
	StrategyID   string            `json:"strategy_id"`
	StrategyName string            `json:"strategy_name"`
	Params       strategies.Params `json:"params"`
	Metrics      models.Metrics    `json:"metrics"`
}

// StrategySummary reports how one strategy's grid fared in the sweep.
type StrategySummary struct {
	StrategyID string `json:"strategy_id"`
	GridDiagnostics
	ExecutedRuns int `json:"executed_runs"`
	FailedRuns   int `json:"failed_runs"`
}

// SweepMeta is the run-level accounting attached to every sweep result.
type SweepMeta struct {
	SweepID           string            `json:"sweep_id"`
	TotalRuns         int               `json:"total_runs"`
	ReturnedRuns      int               `json:"returned_runs"`
	DurationSeconds   float64           `json:"duration_seconds"`
	InitialCapital    float64           `json:"initial_capital"`
	Timeframe         string            `json:"timeframe"`
	Lookback          string            `json:"lookback"`
	StrategySummaries []StrategySummary `json:"strategy_summaries"`
}

// SweepResult is the ranked leaderboard plus its metadata.
type SweepResult struct {
	Meta    SweepMeta      `json:"meta"`
	Results []RankedResult `json:"results"`
}

// Sweeper fans parameter combinations out over a bounded worker pool and
// ranks the surviving runs.
type Sweeper struct {
	registry *strategies.Registry
	logger   *logrus.Logger
}

func NewSweeper(registry *strategies.Registry, logger *logrus.Logger) *Sweeper {
	return &Sweeper{registry: registry, logger: logger}
}

type sweepJob struct {
	index      int
	strategy   strategies.Strategy
	params     strategies.Params
	summaryIdx int
}

// Run executes the sweep over a single candle series. Results are ranked
// by total return descending; ties keep grid expansion order, so output
// is deterministic for a given input. Cancelling the context stops
// dispatching new runs, drains the in-flight ones, and returns the
// partial leaderboard.
func (s *Sweeper) Run(ctx context.Context, candles []models.Candle, cfg SweepConfig) (*SweepResult, error) {
	start := time.Now()

	if len(cfg.StrategyIDs) == 0 {
		return nil, fmt.Errorf("no strategies selected")
	}
	if cfg.InitialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive, got %v", cfg.InitialCapital)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no market data for sweep window")
	}

	summaries := make([]StrategySummary, 0, len(cfg.StrategyIDs))
	var jobs []sweepJob
	capped := false

	for _, id := range cfg.StrategyIDs {
		strat, ok := s.registry.Get(id)
		if !ok {
			return nil, fmt.Errorf("unknown strategy %q", id)
		}

		defaults := strat.DefaultParams()
		combos, diag := ExpandGrid(
			strat.ParamInfo(),
			cfg.StepScale,
			cfg.MaxCombinationsPerStrategy,
			cfg.AutoScaleSteps,
			func(p strategies.Params) error {
				return strat.Validate(strategies.Merge(defaults, p))
			},
		)

		summaryIdx := len(summaries)
		summaries = append(summaries, StrategySummary{
			StrategyID:      id,
			GridDiagnostics: diag,
		})

		// The total-runs cap stops enqueueing but every selected strategy
		// still gets a summary, so callers can see what was skipped.
		for _, combo := range combos {
			if cfg.MaxTotalRuns > 0 && len(jobs) >= cfg.MaxTotalRuns {
				capped = true
				break
			}
			jobs = append(jobs, sweepJob{
				index:      len(jobs),
				strategy:   strat,
				params:     strategies.Merge(defaults, combo),
				summaryIdx: summaryIdx,
			})
		}
	}

	workers := ClampWorkers(cfg.Workers)
	s.logger.WithFields(logrus.Fields{
		"strategies": len(cfg.StrategyIDs),
		"total_runs": len(jobs),
		"workers":    workers,
		"capped":     capped,
	}).Info("Starting parameter sweep")

	results := make([]*RankedResult, len(jobs))
	executed := make([]int, len(summaries))
	failed := make([]int, len(summaries))

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, workers)

dispatch:
	for _, job := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(job sweepJob) {
			defer wg.Done()
			defer func() { <-sem }()

			res, err := s.runOne(candles, job, cfg.InitialCapital)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[job.summaryIdx]++
				s.logger.WithFields(logrus.Fields{
					"strategy": job.strategy.ID(),
					"params":   job.params,
				}).WithError(err).Warn("Sweep run failed")
				return
			}
			executed[job.summaryIdx]++
			results[job.index] = res
		}(job)
	}
	wg.Wait()

	ranked := make([]RankedResult, 0, len(jobs))
	for _, r := range results {
		if r != nil {
			ranked = append(ranked, *r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metrics.TotalReturn > ranked[j].Metrics.TotalReturn
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	topN := cfg.TopN
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	for i := range summaries {
		summaries[i].ExecutedRuns = executed[i]
		summaries[i].FailedRuns = failed[i]
	}
	totalExecuted := 0
	for _, n := range executed {
		totalExecuted += n
	}

	meta := SweepMeta{
		SweepID:           uuid.NewString(),
		TotalRuns:         totalExecuted,
		ReturnedRuns:      len(ranked),
		DurationSeconds:   time.Since(start).Seconds(),
		InitialCapital:    cfg.InitialCapital,
		Timeframe:         cfg.Timeframe,
		Lookback:          cfg.Lookback.String(),
		StrategySummaries: summaries,
	}

	s.logger.WithFields(logrus.Fields{
		"sweep_id": meta.SweepID,
		"executed": totalExecuted,
		"returned": len(ranked),
		"duration": meta.DurationSeconds,
	}).Info("Parameter sweep finished")

	return &SweepResult{Meta: meta, Results: ranked}, nil
}

func (s *Sweeper) runOne(candles []models.Candle, job sweepJob, initialCapital float64) (*RankedResult, error) {
	signals, err := job.strategy.GenerateSignals(candles, job.params)
	if err != nil {
		return nil, fmt.Errorf("generate signals: %w", err)
	}
	trades, equity, err := Simulate(candles, signals, initialCapital)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	metrics := ComputeMetrics(trades, equity, candles, initialCapital)

	return &RankedResult{
		StrategyID:   job.strategy.ID(),
		StrategyName: job.strategy.Name(),
		Params:       job.params,
		Metrics:      metrics,
	}, nil
}
