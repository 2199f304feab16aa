package shared

// HigherTimeframeSnapshot captures the higher timeframe trend and momentum
// readings aligned to an evaluation instant. The candles backing it are
// supplied by the data collaborator, not computed by the signal core.
type HigherTimeframeSnapshot struct {
	// H1TrendPercent is the percentage change of the one hour close over its
	// recent window.
	H1TrendPercent float64
	// H4TrendPercent is the percentage change of the four hour close over its
	// recent window.
	H4TrendPercent float64
	// H1RSI is the one hour RSI reading.
	H1RSI float64
	// H4RSI is the four hour RSI reading.
	H4RSI float64
	// Valid indicates enough higher timeframe history existed to form the
	// snapshot.
	Valid bool
}
