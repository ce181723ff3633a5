package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfandi/backtest-lab-go/internal/models"
)

// ErrUpstream marks failures of the exchange API itself, as opposed to
// bad input. Handlers map it to a 502.
var ErrUpstream = errors.New("market data upstream error")

const klinesPageLimit = 1000

// BinanceClient fetches OHLCV klines from the Binance public REST API.
// No API key is required for market data endpoints.
type BinanceClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewBinanceClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *BinanceClient {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Klines fetches candles for [start, end) at the given exchange interval,
// paginating past the per-request limit. Times are in seconds.
func (c *BinanceClient) Klines(ctx context.Context, symbol, interval string, start, end time.Time) ([]models.Candle, error) {
	var candles []models.Candle
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()

	for cursor < endMs {
		page, err := c.fetchPage(ctx, symbol, interval, cursor, endMs)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		candles = append(candles, page...)
		// Next page starts just past the last open time.
		cursor = page[len(page)-1].Time*1000 + 1
		if len(page) < klinesPageLimit {
			break
		}
	}

	c.logger.WithFields(logrus.Fields{
		"symbol":   symbol,
		"interval": interval,
		"candles":  len(candles),
	}).Debug("Fetched klines")
	return candles, nil
}

func (c *BinanceClient) fetchPage(ctx context.Context, symbol, interval string, startMs, endMs int64) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	q.Set("limit", strconv.Itoa(klinesPageLimit))

	reqURL := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build klines request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrUpstream, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(body, 200))
	}

	// Each kline is a positional array: open time (ms), open, high, low,
	// close, volume, close time, ... with prices quoted as strings.
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode klines: %v", ErrUpstream, err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			return nil, fmt.Errorf("%w: kline row has %d fields", ErrUpstream, len(row))
		}
		var openTimeMs int64
		if err := json.Unmarshal(row[0], &openTimeMs); err != nil {
			return nil, fmt.Errorf("%w: kline open time: %v", ErrUpstream, err)
		}
		c := models.Candle{Time: openTimeMs / 1000}
		for i, dst := range []*float64{&c.Open, &c.High, &c.Low, &c.Close, &c.Volume} {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				return nil, fmt.Errorf("%w: kline field %d: %v", ErrUpstream, i+1, err)
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: kline field %d: %v", ErrUpstream, i+1, err)
			}
			*dst = v
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
