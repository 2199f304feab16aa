package strategy

import (
	"fmt"

	"github.com/quarterhour/updown/indicator"
	"github.com/quarterhour/updown/shared"
)

// GeneratorConfig represents the signal generator configuration.
type GeneratorConfig struct {
	// Thresholds represents the per-asset thresholds and rule sets.
	Thresholds map[string]Thresholds
	// Policy represents the time bucket overrides. Optional; nil allows all
	// buckets.
	Policy *TimeBucketPolicy
}

// Validate asserts the config has sane inputs.
func (cfg *GeneratorConfig) Validate() error {
	if len(cfg.Thresholds) == 0 {
		return fmt.Errorf("no asset thresholds provided")
	}

	for market := range cfg.Thresholds {
		thresholds := cfg.Thresholds[market]
		err := thresholds.Validate()
		if err != nil {
			return fmt.Errorf("validating thresholds for %s: %w", market, err)
		}
	}

	return nil
}

// Generator deterministically maps indicator frames to signal decisions. It
// is pure: no I/O, no hidden state, identical inputs yield identical output.
type Generator struct {
	cfg *GeneratorConfig
}

// NewGenerator initializes a new signal generator.
func NewGenerator(cfg *GeneratorConfig) (*Generator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating generator config: %w", err)
	}

	return &Generator{cfg: cfg}, nil
}

// Evaluate produces the signal decision for the provided frame and market.
func (g *Generator) Evaluate(frame *indicator.IndicatorFrame, market string) (shared.SignalDecision, error) {
	thresholds, ok := g.cfg.Thresholds[market]
	if !ok {
		return shared.SignalDecision{}, fmt.Errorf("no thresholds configured for market %s", market)
	}

	evaluationTime := frame.Candle.Date
	rsi := frame.RSI.V
	stochK := frame.StochK.V
	trendScore := frame.TrendScore.V

	none := func(reasons ...shared.Reason) shared.SignalDecision {
		return shared.NewSignalDecision(market, evaluationTime, shared.None,
			rsi, stochK, trendScore, reasons)
	}

	// Any required indicator still warming up fails closed to no signal.
	if thresholds.UseRSI && !frame.RSI.OK {
		return none(shared.IndicatorWarmup), nil
	}
	if thresholds.UseStochastic && !frame.StochK.OK {
		return none(shared.IndicatorWarmup), nil
	}
	if thresholds.UseFTFC && !frame.TrendScore.OK {
		return none(shared.IndicatorWarmup), nil
	}

	up, upReasons := g.evaluateUp(frame, &thresholds)
	down, downReasons := g.evaluateDown(frame, &thresholds)

	direction := shared.None
	reasons := []shared.Reason{}
	switch {
	case up && down:
		// Independently configured thresholds can satisfy both predicates at
		// once. Ambiguous signals are never resolved to a direction.
		return none(shared.AmbiguousPredicates), nil
	case up:
		direction = shared.Up
		reasons = upReasons
	case down:
		direction = shared.Down
		reasons = downReasons
	}

	switch g.cfg.Policy.ActionAt(evaluationTime) {
	case Block:
		return none(shared.BucketBlocked), nil
	case Reverse:
		if direction != shared.None {
			direction = direction.Opposite()
			reasons = append(reasons, shared.BucketReversed)
		}
	}

	return shared.NewSignalDecision(market, evaluationTime, direction,
		rsi, stochK, trendScore, reasons), nil
}

// evaluateUp evaluates the conjunction of enabled up rules: an oversold
// market with a higher timeframe score that is not strongly bearish, or an
// exhausted down run arguing a reversion up.
func (g *Generator) evaluateUp(frame *indicator.IndicatorFrame, t *Thresholds) (bool, []shared.Reason) {
	reasons := []shared.Reason{}

	if t.UseRSI {
		if frame.RSI.V >= t.RSIOversold {
			return false, nil
		}
		reasons = append(reasons, shared.RSIBelowOversold)
	}
	if t.UseStochastic {
		if frame.StochK.V >= t.StochasticOversold {
			return false, nil
		}
		reasons = append(reasons, shared.StochasticBelowOversold)
	}
	if t.UseFTFC {
		if frame.TrendScore.V <= -t.FTFCThreshold {
			return false, nil
		}
		reasons = append(reasons, shared.TrendScoreAllows)
	}
	if t.UseConsecutive {
		if frame.ConsecutiveDirection != shared.Down || frame.ConsecutiveCount < t.ConsecutiveThreshold {
			return false, nil
		}
		reasons = append(reasons, shared.ConsecutiveRunReached)
	}

	return true, reasons
}

// evaluateDown evaluates the conjunction of enabled down rules, symmetric to
// the up predicate.
func (g *Generator) evaluateDown(frame *indicator.IndicatorFrame, t *Thresholds) (bool, []shared.Reason) {
	reasons := []shared.Reason{}

	if t.UseRSI {
		if frame.RSI.V <= t.RSIOverbought {
			return false, nil
		}
		reasons = append(reasons, shared.RSIAboveOverbought)
	}
	if t.UseStochastic {
		if frame.StochK.V <= t.StochasticOverbought {
			return false, nil
		}
		reasons = append(reasons, shared.StochasticAboveOverbought)
	}
	if t.UseFTFC {
		if frame.TrendScore.V >= t.FTFCThreshold {
			return false, nil
		}
		reasons = append(reasons, shared.TrendScoreAllows)
	}
	if t.UseConsecutive {
		if frame.ConsecutiveDirection != shared.Up || frame.ConsecutiveCount < t.ConsecutiveThreshold {
			return false, nil
		}
		reasons = append(reasons, shared.ConsecutiveRunReached)
	}

	return true, reasons
}
