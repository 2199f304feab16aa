package indicator

import (
	"time"

	"github.com/quarterhour/updown/shared"
)

const (
	// h1TrendThresholdPercent is the one hour trend change considered directional.
	h1TrendThresholdPercent = 0.1
	// h4TrendThresholdPercent is the four hour trend change considered directional.
	h4TrendThresholdPercent = 0.2
	// htfRSIBullish is the higher timeframe RSI reading considered bullish.
	htfRSIBullish = 55
	// htfRSIBearish is the higher timeframe RSI reading considered bearish.
	htfRSIBearish = 45
	// trendWeight is the score contribution of a directional trend reading.
	trendWeight = 1.0
	// rsiWeight is the score contribution of a directional RSI reading.
	rsiWeight = 0.5
	// htfTrendWindow is the number of higher timeframe candles spanned by the
	// trend percentage.
	htfTrendWindow = 5
	// htfRSIPeriod is the RSI period used on higher timeframe closes.
	htfRSIPeriod = 14
)

// FTFCScore computes the full timeframe continuity composite from the
// provided higher timeframe snapshot. Each aligned reading contributes a
// fixed weighted increment, bounding the score to [-3, +3]: one hour and
// four hour trend at ±1 each, one hour and four hour RSI at ±0.5 each. An
// invalid snapshot yields an absent score.
func FTFCScore(snapshot shared.HigherTimeframeSnapshot) Value {
	if !snapshot.Valid {
		return Absent()
	}

	var score float64

	switch {
	case snapshot.H1TrendPercent > h1TrendThresholdPercent:
		score += trendWeight
	case snapshot.H1TrendPercent < -h1TrendThresholdPercent:
		score -= trendWeight
	}

	switch {
	case snapshot.H4TrendPercent > h4TrendThresholdPercent:
		score += trendWeight
	case snapshot.H4TrendPercent < -h4TrendThresholdPercent:
		score -= trendWeight
	}

	switch {
	case snapshot.H1RSI > htfRSIBullish:
		score += rsiWeight
	case snapshot.H1RSI < htfRSIBearish:
		score -= rsiWeight
	}

	switch {
	case snapshot.H4RSI > htfRSIBullish:
		score += rsiWeight
	case snapshot.H4RSI < htfRSIBearish:
		score -= rsiWeight
	}

	return Present(score)
}

// NewHigherTimeframeSnapshot forms a snapshot from externally supplied one
// hour and four hour candles, using only candles dated at or before the
// evaluation instant. The snapshot is invalid until at least three candles
// of each timeframe are available.
func NewHigherTimeframeSnapshot(h1 []shared.Candlestick, h4 []shared.Candlestick, at time.Time) shared.HigherTimeframeSnapshot {
	h1History := candlesUpTo(h1, at)
	h4History := candlesUpTo(h4, at)

	h1Window := trailingWindow(h1History, htfTrendWindow)
	h4Window := trailingWindow(h4History, htfTrendWindow)
	if len(h1Window) < 3 || len(h4Window) < 3 {
		return shared.HigherTimeframeSnapshot{}
	}

	h1RSI := RSI(closesOf(h1History), htfRSIPeriod)
	h4RSI := RSI(closesOf(h4History), htfRSIPeriod)
	if !h1RSI.OK || !h4RSI.OK {
		return shared.HigherTimeframeSnapshot{}
	}

	return shared.HigherTimeframeSnapshot{
		H1TrendPercent: trendPercent(h1Window),
		H4TrendPercent: trendPercent(h4Window),
		H1RSI:          h1RSI.V,
		H4RSI:          h4RSI.V,
		Valid:          true,
	}
}

// candlesUpTo returns the candles dated at or before the provided instant.
func candlesUpTo(candles []shared.Candlestick, at time.Time) []shared.Candlestick {
	end := len(candles)
	for end > 0 && candles[end-1].Date.After(at) {
		end--
	}

	return candles[:end]
}

// trailingWindow returns up to size candles from the end of the series.
func trailingWindow(candles []shared.Candlestick, size int) []shared.Candlestick {
	start := len(candles) - size
	if start < 0 {
		start = 0
	}

	return candles[start:]
}

// trendPercent computes the percentage change between the first and last
// close of the provided window.
func trendPercent(window []shared.Candlestick) float64 {
	first := window[0].Close
	if first == 0 {
		return 0
	}

	return (window[len(window)-1].Close - first) / first * 100
}

// closesOf extracts the close series from the provided candles.
func closesOf(candles []shared.Candlestick) []float64 {
	closes := make([]float64, len(candles))
	for idx := range candles {
		closes[idx] = candles[idx].Close
	}

	return closes
}
