package marketdata

import "github.com/irfandi/backtest-lab-go/internal/models"

// resample aggregates candles into buckets of bucketSeconds aligned to the
// epoch: first open, max high, min low, last close, summed volume. Input
// must be sorted ascending by time.
func resample(candles []models.Candle, bucketSeconds int64) []models.Candle {
	if len(candles) == 0 || bucketSeconds <= 0 {
		return candles
	}

	var out []models.Candle
	var cur models.Candle
	curBucket := int64(-1)

	for _, c := range candles {
		bucket := c.Time - c.Time%bucketSeconds
		if bucket != curBucket {
			if curBucket >= 0 {
				out = append(out, cur)
			}
			curBucket = bucket
			cur = models.Candle{
				Time:   bucket,
				Open:   c.Open,
				High:   c.High,
				Low:    c.Low,
				Close:  c.Close,
				Volume: c.Volume,
			}
			continue
		}
		if c.High > cur.High {
			cur.High = c.High
		}
		if c.Low < cur.Low {
			cur.Low = c.Low
		}
		cur.Close = c.Close
		cur.Volume += c.Volume
	}
	out = append(out, cur)
	return out
}
