package shared

// Reason annotates how a signal decision was reached. The generator is pure,
// so reasons are returned as data for callers to log or persist.
type Reason int

const (
	IndicatorWarmup Reason = iota
	RSIBelowOversold
	RSIAboveOverbought
	StochasticBelowOversold
	StochasticAboveOverbought
	TrendScoreAllows
	ConsecutiveRunReached
	AmbiguousPredicates
	BucketBlocked
	BucketReversed
)

// String stringifies the provided reason.
func (r Reason) String() string {
	switch r {
	case IndicatorWarmup:
		return "indicator warmup"
	case RSIBelowOversold:
		return "rsi below oversold"
	case RSIAboveOverbought:
		return "rsi above overbought"
	case StochasticBelowOversold:
		return "stochastic below oversold"
	case StochasticAboveOverbought:
		return "stochastic above overbought"
	case TrendScoreAllows:
		return "trend score allows"
	case ConsecutiveRunReached:
		return "consecutive run reached"
	case AmbiguousPredicates:
		return "ambiguous predicates"
	case BucketBlocked:
		return "bucket blocked"
	case BucketReversed:
		return "bucket reversed"
	default:
		return "unknown"
	}
}
