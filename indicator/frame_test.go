package indicator

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/quarterhour/updown/shared"
)

// frameSeries builds a fifteen minute candle series from the provided closes,
// each candle opening at the previous close.
func frameSeries(closes []float64, start time.Time) []shared.Candlestick {
	candles := make([]shared.Candlestick, len(closes))
	open := closes[0]
	for idx := range closes {
		high := open
		if closes[idx] > high {
			high = closes[idx]
		}
		low := open
		if closes[idx] < low {
			low = closes[idx]
		}

		candles[idx] = shared.Candlestick{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closes[idx],
			Volume:    1000,
			Date:      start.Add(time.Duration(idx) * time.Minute * 15),
			Timeframe: shared.FifteenMinute,
		}
		open = closes[idx]
	}

	return candles
}

func TestNewFrameBuilder(t *testing.T) {
	// Ensure invalid periods are rejected.
	_, err := NewFrameBuilder(&FrameBuilderConfig{RSIPeriod: 0, StochasticPeriod: 5})
	assert.Error(t, err)

	_, err = NewFrameBuilder(&FrameBuilderConfig{RSIPeriod: 7, StochasticPeriod: 0})
	assert.Error(t, err)

	builder, err := NewFrameBuilder(&FrameBuilderConfig{RSIPeriod: 7, StochasticPeriod: 5})
	assert.NoError(t, err)
	assert.Equal(t, builder.WarmupPeriod(), 7)

	builder, err = NewFrameBuilder(&FrameBuilderConfig{RSIPeriod: 3, StochasticPeriod: 10})
	assert.NoError(t, err)
	assert.Equal(t, builder.WarmupPeriod(), 9)
}

func TestBuildFrames(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 99, 98, 97, 96, 95, 94, 93, 92, 91, 90, 89}
	candles := frameSeries(closes, start)

	builder, err := NewFrameBuilder(&FrameBuilderConfig{RSIPeriod: 7, StochasticPeriod: 5})
	assert.NoError(t, err)

	frames := builder.BuildFrames(candles)
	assert.Equal(t, len(frames), len(candles))

	// Frames within the warmup period carry at least one absent indicator.
	for idx := 0; idx < builder.WarmupPeriod(); idx++ {
		if frames[idx].RSI.OK && frames[idx].StochK.OK {
			t.Errorf("frame %d: expected an absent indicator during warmup", idx)
		}
	}

	// Frames past the warmup period carry present oscillators.
	for idx := builder.WarmupPeriod(); idx < len(frames); idx++ {
		assert.True(t, frames[idx].RSI.OK)
		assert.True(t, frames[idx].StochK.OK)
	}

	// A steadily falling series carries a growing down run.
	last := frames[len(frames)-1]
	assert.Equal(t, last.ConsecutiveDirection, shared.Down)
	assert.Equal(t, last.ConsecutiveCount, len(candles)-1)

	// The trend score is absent without a snapshot source.
	assert.False(t, last.TrendScore.OK)
}

func TestBuildFramesWithSnapshot(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	closes := []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}
	candles := frameSeries(closes, start)

	builder, err := NewFrameBuilder(&FrameBuilderConfig{
		RSIPeriod:        7,
		StochasticPeriod: 5,
		Snapshot: func(at time.Time) shared.HigherTimeframeSnapshot {
			return shared.HigherTimeframeSnapshot{
				H1TrendPercent: 0.5,
				H4TrendPercent: 0.5,
				H1RSI:          60,
				H4RSI:          60,
				Valid:          true,
			}
		},
	})
	assert.NoError(t, err)

	frames := builder.BuildFrames(candles)
	last := frames[len(frames)-1]
	assert.True(t, last.TrendScore.OK)
	assert.Equal(t, last.TrendScore.V, float64(3))
}
