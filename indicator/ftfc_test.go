package indicator

import (
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
	"github.com/quarterhour/updown/shared"
)

func TestFTFCScore(t *testing.T) {
	tests := []struct {
		name     string
		snapshot shared.HigherTimeframeSnapshot
		want     float64
	}{
		{
			name: "fully aligned bullish",
			snapshot: shared.HigherTimeframeSnapshot{
				H1TrendPercent: 0.5,
				H4TrendPercent: 0.8,
				H1RSI:          60,
				H4RSI:          62,
				Valid:          true,
			},
			want: 3,
		},
		{
			name: "fully aligned bearish",
			snapshot: shared.HigherTimeframeSnapshot{
				H1TrendPercent: -0.5,
				H4TrendPercent: -0.8,
				H1RSI:          40,
				H4RSI:          38,
				Valid:          true,
			},
			want: -3,
		},
		{
			name: "neutral readings contribute nothing",
			snapshot: shared.HigherTimeframeSnapshot{
				H1TrendPercent: 0.05,
				H4TrendPercent: -0.1,
				H1RSI:          50,
				H4RSI:          50,
				Valid:          true,
			},
			want: 0,
		},
		{
			name: "mixed alignment",
			snapshot: shared.HigherTimeframeSnapshot{
				H1TrendPercent: 0.5,
				H4TrendPercent: -0.5,
				H1RSI:          60,
				H4RSI:          40,
				Valid:          true,
			},
			want: 0,
		},
		{
			name: "trend only",
			snapshot: shared.HigherTimeframeSnapshot{
				H1TrendPercent: 0.2,
				H4TrendPercent: 0.3,
				H1RSI:          50,
				H4RSI:          50,
				Valid:          true,
			},
			want: 2,
		},
		{
			name: "rsi only",
			snapshot: shared.HigherTimeframeSnapshot{
				H1RSI: 58,
				H4RSI: 57,
				Valid: true,
			},
			want: 1,
		},
	}

	for _, test := range tests {
		value := FTFCScore(test.snapshot)
		if !value.OK {
			t.Errorf("%s: expected a present score", test.name)
			continue
		}
		if value.V != test.want {
			t.Errorf("%s: expected score %v, got %v", test.name, test.want, value.V)
		}
	}
}

func TestFTFCScoreInvalidSnapshot(t *testing.T) {
	value := FTFCScore(shared.HigherTimeframeSnapshot{})
	assert.False(t, value.OK)
}

func TestFTFCScoreBounds(t *testing.T) {
	snapshot := shared.HigherTimeframeSnapshot{
		H1TrendPercent: 99,
		H4TrendPercent: 99,
		H1RSI:          100,
		H4RSI:          100,
		Valid:          true,
	}

	value := FTFCScore(snapshot)
	assert.True(t, value.OK)
	assert.Equal(t, value.V, float64(3))
}

// htfSeries builds a candle series of the provided timeframe with the given
// closes, ending at the provided instant.
func htfSeries(closes []float64, timeframe shared.Timeframe, end time.Time) []shared.Candlestick {
	candles := make([]shared.Candlestick, len(closes))
	for idx := range closes {
		offset := time.Duration(len(closes)-1-idx) * timeframe.Duration()
		candles[idx] = shared.Candlestick{
			Open:      closes[idx],
			High:      closes[idx],
			Low:       closes[idx],
			Close:     closes[idx],
			Date:      end.Add(-offset),
			Timeframe: timeframe,
		}
	}

	return candles
}

func TestNewHigherTimeframeSnapshot(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	// Rising closes on both higher timeframes form a valid bullish snapshot.
	h1Closes := make([]float64, 20)
	h4Closes := make([]float64, 20)
	for idx := range h1Closes {
		h1Closes[idx] = 100 + float64(idx)
		h4Closes[idx] = 100 + float64(idx)*2
	}

	snapshot := NewHigherTimeframeSnapshot(htfSeries(h1Closes, shared.OneHour, now),
		htfSeries(h4Closes, shared.FourHour, now), now)
	assert.True(t, snapshot.Valid)
	assert.True(t, snapshot.H1TrendPercent > 0)
	assert.True(t, snapshot.H4TrendPercent > 0)
	assert.Equal(t, snapshot.H1RSI, float64(100))

	// Insufficient higher timeframe history yields an invalid snapshot.
	snapshot = NewHigherTimeframeSnapshot(htfSeries(h1Closes[:2], shared.OneHour, now),
		htfSeries(h4Closes, shared.FourHour, now), now)
	assert.False(t, snapshot.Valid)

	// Candles after the evaluation instant are excluded.
	future := now.Add(-time.Hour * 48)
	snapshot = NewHigherTimeframeSnapshot(htfSeries(h1Closes, shared.OneHour, now),
		htfSeries(h4Closes, shared.FourHour, now), future)
	assert.False(t, snapshot.Valid)
}
