package shared

import (
	"fmt"
)

// AggregateCandles rolls an ordered base timeframe series up into the target
// timeframe. Candles are grouped by truncating their dates to the target
// period; a trailing partial group aggregates the candles seen so far.
func AggregateCandles(candles []Candlestick, target Timeframe) ([]Candlestick, error) {
	period := target.Duration()
	if period == 0 {
		return nil, fmt.Errorf("unknown timeframe provided: %s", target.String())
	}

	aggregated := make([]Candlestick, 0, len(candles))
	for idx := range candles {
		candle := candles[idx]
		bucket := candle.Date.Truncate(period)

		if len(aggregated) == 0 || !aggregated[len(aggregated)-1].Date.Equal(bucket) {
			aggregated = append(aggregated, Candlestick{
				Open:      candle.Open,
				High:      candle.High,
				Low:       candle.Low,
				Close:     candle.Close,
				Volume:    candle.Volume,
				Date:      bucket,
				Market:    candle.Market,
				Timeframe: target,
			})
			continue
		}

		current := &aggregated[len(aggregated)-1]
		if candle.High > current.High {
			current.High = candle.High
		}
		if candle.Low < current.Low {
			current.Low = candle.Low
		}
		current.Close = candle.Close
		current.Volume += candle.Volume
	}

	return aggregated, nil
}
