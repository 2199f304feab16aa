package indicator

// RSISeries computes the Relative Strength Index over the provided close
// series using Wilder's smoothing. The average gain and loss are seeded from
// a simple average of the first period deltas, then exponentially updated
// with avg = (avg*(period-1) + value) / period.
//
// The first period samples are absent since period deltas are required. When
// the average loss is zero and the average gain positive the RSI is exactly
// 100; when both are zero (a flat market) it is exactly 50.
func RSISeries(closes []float64, period int) []Value {
	series := make([]Value, len(closes))
	if period <= 0 || len(closes) <= period {
		return series
	}

	var avgGain, avgLoss float64
	for idx := 1; idx <= period; idx++ {
		delta := closes[idx] - closes[idx-1]
		switch {
		case delta > 0:
			avgGain += delta
		case delta < 0:
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	series[period] = Present(rsiFromAverages(avgGain, avgLoss))

	for idx := period + 1; idx < len(closes); idx++ {
		delta := closes[idx] - closes[idx-1]

		var gain, loss float64
		switch {
		case delta > 0:
			gain = delta
		case delta < 0:
			loss = -delta
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)

		series[idx] = Present(rsiFromAverages(avgGain, avgLoss))
	}

	return series
}

// rsiFromAverages maps smoothed gain and loss averages to an RSI reading.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain > 0:
		return 100
	case avgLoss == 0 && avgGain == 0:
		// A flat market has no directional strength either way.
		return 50
	default:
		rs := avgGain / avgLoss
		return 100 - (100 / (1 + rs))
	}
}

// RSI computes the latest RSI reading for the provided close series.
func RSI(closes []float64, period int) Value {
	series := RSISeries(closes, period)
	if len(series) == 0 {
		return Absent()
	}

	return series[len(series)-1]
}
