package shared

import (
	"bytes"
	"time"
)

// SignalDecision represents the outcome of evaluating a market at a candle
// boundary. It is a value object, immutable once produced, and produced at
// most once per (market, candle).
type SignalDecision struct {
	Market         string
	EvaluationTime time.Time
	Direction      Direction
	RSI            float64
	StochK         float64
	TrendScore     float64
	Reasons        []Reason
}

// NewSignalDecision initializes a new signal decision.
func NewSignalDecision(market string, evaluationTime time.Time, direction Direction,
	rsi float64, stochK float64, trendScore float64, reasons []Reason) SignalDecision {
	return SignalDecision{
		Market:         market,
		EvaluationTime: evaluationTime,
		Direction:      direction,
		RSI:            rsi,
		StochK:         stochK,
		TrendScore:     trendScore,
		Reasons:        reasons,
	}
}

// StringifyReasons stringifies the collection of decision reasons provided.
func StringifyReasons(reasons []Reason) string {
	buf := bytes.NewBuffer([]byte{})
	for idx := range reasons {
		buf.WriteString(reasons[idx].String())
		if idx < len(reasons)-1 {
			buf.WriteString(",")
		}
	}

	return buf.String()
}
