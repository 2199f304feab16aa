package strategy

import (
	"errors"
	"fmt"
)

// Thresholds represents the per-asset indicator thresholds and rule set for
// signal generation. Successive strategy tunings are data here, not code
// paths: a new version is a new thresholds table.
type Thresholds struct {
	// RSIPeriod is the RSI lookback period.
	RSIPeriod int
	// RSIOversold is the RSI level below which the market is oversold.
	RSIOversold float64
	// RSIOverbought is the RSI level above which the market is overbought.
	RSIOverbought float64
	// StochasticPeriod is the Stochastic %K lookback period.
	StochasticPeriod int
	// StochasticOversold is the %K level below which the market is oversold.
	StochasticOversold float64
	// StochasticOverbought is the %K level above which the market is overbought.
	StochasticOverbought float64
	// FTFCThreshold bounds the higher timeframe score: an up signal requires
	// the score above -FTFCThreshold, a down signal below +FTFCThreshold.
	FTFCThreshold float64
	// ConsecutiveThreshold is the same-direction run length arguing a
	// reversal.
	ConsecutiveThreshold int

	// Rule enablement. A decision requires every enabled rule to hold.
	UseRSI         bool
	UseStochastic  bool
	UseFTFC        bool
	UseConsecutive bool
}

// Validate asserts the thresholds have sane inputs.
func (t *Thresholds) Validate() error {
	var errs error

	if !t.UseRSI && !t.UseStochastic && !t.UseFTFC && !t.UseConsecutive {
		errs = errors.Join(errs, fmt.Errorf("at least one rule must be enabled"))
	}
	if t.UseRSI {
		if t.RSIPeriod <= 0 {
			errs = errors.Join(errs, fmt.Errorf("rsi period must be positive, got %d", t.RSIPeriod))
		}
		if t.RSIOversold < 0 || t.RSIOversold > 100 {
			errs = errors.Join(errs, fmt.Errorf("rsi oversold must be in [0,100], got %v", t.RSIOversold))
		}
		if t.RSIOverbought < 0 || t.RSIOverbought > 100 {
			errs = errors.Join(errs, fmt.Errorf("rsi overbought must be in [0,100], got %v", t.RSIOverbought))
		}
		if t.RSIOversold >= t.RSIOverbought {
			errs = errors.Join(errs, fmt.Errorf("rsi oversold (%v) must be below overbought (%v)",
				t.RSIOversold, t.RSIOverbought))
		}
	}
	if t.UseStochastic {
		if t.StochasticPeriod <= 0 {
			errs = errors.Join(errs, fmt.Errorf("stochastic period must be positive, got %d", t.StochasticPeriod))
		}
		if t.StochasticOversold < 0 || t.StochasticOversold > 100 {
			errs = errors.Join(errs, fmt.Errorf("stochastic oversold must be in [0,100], got %v", t.StochasticOversold))
		}
		if t.StochasticOverbought < 0 || t.StochasticOverbought > 100 {
			errs = errors.Join(errs, fmt.Errorf("stochastic overbought must be in [0,100], got %v", t.StochasticOverbought))
		}
		if t.StochasticOversold >= t.StochasticOverbought {
			errs = errors.Join(errs, fmt.Errorf("stochastic oversold (%v) must be below overbought (%v)",
				t.StochasticOversold, t.StochasticOverbought))
		}
	}
	if t.UseFTFC && t.FTFCThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("ftfc threshold must be positive, got %v", t.FTFCThreshold))
	}
	if t.UseConsecutive && t.ConsecutiveThreshold <= 0 {
		errs = errors.Join(errs, fmt.Errorf("consecutive threshold must be positive, got %d", t.ConsecutiveThreshold))
	}

	return errs
}
