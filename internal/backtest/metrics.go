package backtest

import (
	"math"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

const secondsPerYear = 365.25 * 24 * 3600

// profitFactorCap is reported when a run has winning trades and no
// losing ones, where the true ratio is unbounded.
const profitFactorCap = 999.0

// ComputeMetrics derives the summary statistics for a finished run.
// Only closed trades (sells with a realized pnl) enter the trade
// statistics; a trailing open position is reflected in the equity curve
// and therefore in total return and drawdown, but not in win rate.
func ComputeMetrics(trades []models.Trade, equity []models.EquityPoint, candles []models.Candle, initialCapital float64) models.Metrics {
	m := models.Metrics{}

	if len(equity) > 0 {
		final := equity[len(equity)-1].Value
		m.FinalCapital = round2(final)
		if initialCapital > 0 {
			m.TotalReturn = round2((final/initialCapital - 1) * 100)
		}
	} else {
		m.FinalCapital = round2(initialCapital)
	}

	if len(candles) > 0 && candles[0].Close != 0 {
		m.BuyHoldReturn = round2((candles[len(candles)-1].Close/candles[0].Close - 1) * 100)
	}

	var winsPct, lossesPct []float64
	for _, t := range trades {
		if t.Type != models.TradeSell || t.PnlPct == nil {
			continue
		}
		if *t.PnlPct > 0 {
			winsPct = append(winsPct, *t.PnlPct)
		} else {
			lossesPct = append(lossesPct, *t.PnlPct)
		}
	}
	completed := len(winsPct) + len(lossesPct)
	m.NumTrades = completed

	if completed > 0 {
		m.WinRate = round2(float64(len(winsPct)) / float64(completed) * 100)
	}
	if len(winsPct) > 0 {
		avg := round2(mean(winsPct))
		m.AvgWinPct = &avg
	}
	if len(lossesPct) > 0 {
		avg := round2(mean(lossesPct))
		m.AvgLossPct = &avg
	}

	grossWin := sum(winsPct)
	grossLoss := -sum(lossesPct)
	switch {
	case grossLoss > 0:
		m.ProfitFactor = round2(grossWin / grossLoss)
	case grossWin > 0:
		m.ProfitFactor = profitFactorCap
	}

	m.MaxDrawdown = round2(maxDrawdown(equity))
	m.SharpeRatio = round2(sharpeRatio(equity, candles))

	return m
}

// maxDrawdown is the largest peak-to-trough decline of the equity
// curve, as a positive percentage.
func maxDrawdown(equity []models.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}
	peak := equity[0].Value
	worst := 0.0
	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			dd := (peak - p.Value) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// sharpeRatio annualizes the mean/std of per-bar equity returns using
// the observed bar spacing, falling back to 252 periods per year when
// the spacing cannot be inferred.
func sharpeRatio(equity []models.EquityPoint, candles []models.Candle) float64 {
	if len(equity) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Value
		if prev == 0 {
			return 0
		}
		returns = append(returns, equity[i].Value/prev-1)
	}

	mu := mean(returns)
	sd := sampleStd(returns, mu)
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}

	periodsPerYear := 252.0
	if len(candles) >= 2 {
		spacing := float64(candles[len(candles)-1].Time-candles[0].Time) / float64(len(candles)-1)
		if spacing > 0 {
			periodsPerYear = secondsPerYear / spacing
		}
	}

	return mu / sd * math.Sqrt(periodsPerYear)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}

// sampleStd uses the n-1 denominator.
func sampleStd(xs []float64, mu float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	ss := 0.0
	for _, x := range xs {
		d := x - mu
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
