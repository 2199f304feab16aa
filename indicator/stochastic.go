package indicator

import (
	"github.com/quarterhour/updown/shared"
)

// StochasticKSeries computes the Stochastic %K oscillator over the provided
// candles: 100 * (close - lowestLow) / (highestHigh - lowestLow) across the
// trailing period. A flat range (zero denominator) reads exactly 50. Samples
// before a full period of history are absent.
func StochasticKSeries(candles []shared.Candlestick, period int) []Value {
	series := make([]Value, len(candles))
	if period <= 0 || len(candles) < period {
		return series
	}

	for idx := period - 1; idx < len(candles); idx++ {
		lowest := candles[idx].Low
		highest := candles[idx].High
		for back := idx - period + 1; back <= idx; back++ {
			if candles[back].Low < lowest {
				lowest = candles[back].Low
			}
			if candles[back].High > highest {
				highest = candles[back].High
			}
		}

		denominator := highest - lowest
		if denominator == 0 {
			series[idx] = Present(50)
			continue
		}

		series[idx] = Present(100 * (candles[idx].Close - lowest) / denominator)
	}

	return series
}

// StochasticK computes the latest Stochastic %K reading for the provided
// candles.
func StochasticK(candles []shared.Candlestick, period int) Value {
	series := StochasticKSeries(candles, period)
	if len(series) == 0 {
		return Absent()
	}

	return series[len(series)-1]
}
