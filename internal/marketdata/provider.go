package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/cache"
	"github.com/irfandi/backtest-lab-go/internal/models"
)

// periodDays maps the request-level period labels to calendar days.
// "max" is clamped per timeframe before hitting the exchange.
var periodDays = map[string]int{
	"7d":  7,
	"1mo": 30,
	"3mo": 90,
	"6mo": 180,
	"1y":  365,
	"2y":  730,
	"5y":  1825,
	"max": 10000,
}

// maxDaysForTimeframe bounds how far back each granularity may reach, so
// intraday requests stay within what the exchange serves in sane volume.
var maxDaysForTimeframe = map[string]int{
	"5m":  59,
	"15m": 59,
	"1h":  729,
	"4h":  729,
}

// exchangeInterval maps our timeframes to Binance kline intervals. 4h is
// fetched as 1h and resampled so the bucket alignment stays under our
// control.
var exchangeInterval = map[string]string{
	"5m":  "5m",
	"15m": "15m",
	"1h":  "1h",
	"4h":  "1h",
	"1d":  "1d",
	"1w":  "1w",
}

// Provider serves candle series for a single symbol, caching fetched
// windows. Intraday series get a short TTL; daily and up a longer one.
type Provider struct {
	client *BinanceClient
	cache  cache.CandleCache
	logger *logrus.Logger
	symbol string

	intradayTTL time.Duration
	dailyTTL    time.Duration

	// now is swapped in tests to pin the fetch window.
	now func() time.Time
}

func NewProvider(client *BinanceClient, candleCache cache.CandleCache, symbol string, logger *logrus.Logger) *Provider {
	return &Provider{
		client:      client,
		cache:       candleCache,
		logger:      logger,
		symbol:      symbol,
		intradayTTL: 5 * time.Minute,
		dailyTTL:    time.Hour,
		now:         time.Now,
	}
}

func (p *Provider) Symbol() string { return p.symbol }

// ValidPeriod reports whether the period label is one we accept.
func ValidPeriod(period string) bool {
	_, ok := periodDays[period]
	return ok
}

// GetCandles returns the candle series for a named period like "1y".
func (p *Provider) GetCandles(ctx context.Context, timeframe, period string) ([]models.Candle, error) {
	days, ok := periodDays[period]
	if !ok {
		return nil, fmt.Errorf("unknown period %q", period)
	}
	return p.fetch(ctx, timeframe, days, fmt.Sprintf("%s_%s_%s", p.symbol, timeframe, period))
}

// GetCandlesWindow returns the candle series for an explicit day count,
// used by sweeps where the window is expressed as a lookback.
func (p *Provider) GetCandlesWindow(ctx context.Context, timeframe string, days int) ([]models.Candle, error) {
	if days <= 0 {
		return nil, fmt.Errorf("lookback must be positive, got %d days", days)
	}
	return p.fetch(ctx, timeframe, days, fmt.Sprintf("%s_%s_%dd", p.symbol, timeframe, days))
}

func (p *Provider) fetch(ctx context.Context, timeframe string, days int, cacheKey string) ([]models.Candle, error) {
	interval, ok := exchangeInterval[timeframe]
	if !ok {
		return nil, fmt.Errorf("unknown timeframe %q", timeframe)
	}
	if maxDays, ok := maxDaysForTimeframe[timeframe]; ok && days > maxDays {
		days = maxDays
	}

	if cached, ok := p.cache.Get(ctx, cacheKey); ok {
		p.logger.WithField("key", cacheKey).Debug("Candle cache hit")
		return cached, nil
	}

	end := p.now()
	start := end.AddDate(0, 0, -days)
	candles, err := p.client.Klines(ctx, p.symbol, interval, start, end)
	if err != nil {
		return nil, err
	}
	if timeframe == "4h" {
		candles = resample(candles, 4*3600)
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: no candles returned for %s %s", ErrUpstream, p.symbol, timeframe)
	}

	p.cache.Set(ctx, cacheKey, candles, p.ttl(timeframe))
	return candles, nil
}

func (p *Provider) ttl(timeframe string) time.Duration {
	switch timeframe {
	case "5m", "15m", "1h", "4h":
		return p.intradayTTL
	}
	return p.dailyTTL
}
