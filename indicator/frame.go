package indicator

import (
	"fmt"
	"time"

	"github.com/quarterhour/updown/shared"
)

// IndicatorFrame augments a candlestick with the indicator readings computed
// at its close.
type IndicatorFrame struct {
	Candle               shared.Candlestick
	RSI                  Value
	StochK               Value
	ConsecutiveCount     int
	ConsecutiveDirection shared.Direction
	TrendScore           Value
}

// FrameBuilderConfig represents the frame builder configuration.
type FrameBuilderConfig struct {
	// RSIPeriod is the RSI lookback period.
	RSIPeriod int
	// StochasticPeriod is the Stochastic %K lookback period.
	StochasticPeriod int
	// Snapshot supplies the higher timeframe snapshot aligned to the provided
	// instant. Optional; when nil the trend score is absent for every frame.
	Snapshot func(at time.Time) shared.HigherTimeframeSnapshot
}

// Validate asserts the config has sane inputs.
func (cfg *FrameBuilderConfig) Validate() error {
	if cfg.RSIPeriod <= 0 {
		return fmt.Errorf("rsi period must be positive, got %d", cfg.RSIPeriod)
	}
	if cfg.StochasticPeriod <= 0 {
		return fmt.Errorf("stochastic period must be positive, got %d", cfg.StochasticPeriod)
	}

	return nil
}

// FrameBuilder computes per-candle indicator frames over an ordered candle
// series.
type FrameBuilder struct {
	cfg *FrameBuilderConfig
}

// NewFrameBuilder initializes a new frame builder.
func NewFrameBuilder(cfg *FrameBuilderConfig) (*FrameBuilder, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating frame builder config: %w", err)
	}

	return &FrameBuilder{cfg: cfg}, nil
}

// WarmupPeriod returns the number of leading candles with at least one
// absent indicator, the maximum lookback among the configured indicators.
func (b *FrameBuilder) WarmupPeriod() int {
	warmup := b.cfg.RSIPeriod
	if b.cfg.StochasticPeriod-1 > warmup {
		warmup = b.cfg.StochasticPeriod - 1
	}

	return warmup
}

// BuildFrames computes indicator frames for every candle in the provided
// series. Frames within the warmup period carry absent indicator values.
func (b *FrameBuilder) BuildFrames(candles []shared.Candlestick) []IndicatorFrame {
	rsi := RSISeries(closesOf(candles), b.cfg.RSIPeriod)
	stoch := StochasticKSeries(candles, b.cfg.StochasticPeriod)
	runs := ConsecutiveRuns(candles)

	frames := make([]IndicatorFrame, len(candles))
	for idx := range candles {
		frame := IndicatorFrame{
			Candle:               candles[idx],
			RSI:                  rsi[idx],
			StochK:               stoch[idx],
			ConsecutiveCount:     runs[idx].Count,
			ConsecutiveDirection: runs[idx].Direction,
		}

		if b.cfg.Snapshot != nil {
			frame.TrendScore = FTFCScore(b.cfg.Snapshot(candles[idx].Date))
		}

		frames[idx] = frame
	}

	return frames
}
