package indicator

import (
	"github.com/quarterhour/updown/shared"
)

// Run represents the current same-direction candle run at a point in a
// series.
type Run struct {
	Count     int
	Direction shared.Direction
}

// ConsecutiveRuns computes the length of the current run of same-direction
// candles at each point in the provided series. Candle direction compares
// close to open. A direction change resets the run to 1 and a doji
// (open == close) resets it to 0.
func ConsecutiveRuns(candles []shared.Candlestick) []Run {
	runs := make([]Run, len(candles))

	var count int
	var direction shared.Direction
	for idx := range candles {
		current := candles[idx].FetchDirection()
		switch {
		case current == shared.None:
			count = 0
			direction = shared.None
		case current == direction:
			count++
		default:
			count = 1
			direction = current
		}

		runs[idx] = Run{Count: count, Direction: direction}
	}

	return runs
}
