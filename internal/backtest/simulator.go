package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// Simulate replays buy/sell signals over the candle series with an
// all-in long-only position model: a buy converts all cash to a position
// at that bar's close, a sell converts it back. Signals that do not
// change state (buy while long, sell while flat) are ignored. A position
// still open after the last bar stays open; it contributes to the equity
// curve but produces no closed trade.
//
// Equity is recorded at each bar's close before that bar's signal is
// applied, so the curve always has exactly one point per candle.
func Simulate(candles []models.Candle, signals []models.Signal, initialCapital float64) ([]models.Trade, []models.EquityPoint, error) {
	if len(candles) != len(signals) {
		return nil, nil, fmt.Errorf("signal count %d does not match candle count %d", len(signals), len(candles))
	}
	if initialCapital <= 0 {
		return nil, nil, fmt.Errorf("initial capital must be positive, got %v", initialCapital)
	}

	trades := []models.Trade{}
	equity := make([]models.EquityPoint, 0, len(candles))

	if len(candles) < 2 {
		if len(candles) == 1 {
			equity = append(equity, models.EquityPoint{
				Time:  candles[0].Time,
				Value: roundMoney(decimal.NewFromFloat(initialCapital)),
			})
		}
		return trades, equity, nil
	}

	cash := decimal.NewFromFloat(initialCapital)
	inPosition := false
	var entryPrice decimal.Decimal
	var entryCapital decimal.Decimal

	for i, c := range candles {
		closePrice := decimal.NewFromFloat(c.Close)

		var value decimal.Decimal
		if inPosition {
			value = entryCapital.Mul(closePrice).Div(entryPrice)
		} else {
			value = cash
		}
		equity = append(equity, models.EquityPoint{Time: c.Time, Value: roundMoney(value)})

		switch signals[i] {
		case models.SignalBuy:
			if inPosition {
				continue
			}
			inPosition = true
			entryPrice = closePrice
			entryCapital = cash
			trades = append(trades, models.Trade{
				Type:  models.TradeBuy,
				Time:  c.Time,
				Price: c.Close,
			})
		case models.SignalSell:
			if !inPosition {
				continue
			}
			cash = entryCapital.Mul(closePrice).Div(entryPrice)
			pnl := closePrice.Div(entryPrice).Sub(decimal.NewFromInt(1)).
				Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
			trades = append(trades, models.Trade{
				Type:   models.TradeSell,
				Time:   c.Time,
				Price:  c.Close,
				PnlPct: &pnl,
			})
			inPosition = false
		}
	}

	return trades, equity, nil
}

func roundMoney(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
