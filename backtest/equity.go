package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EquityPoint records the running equity immediately after a settlement.
type EquityPoint struct {
	Time   time.Time
	Equity decimal.Decimal
}

// EquityState tracks running equity across a simulation. The final equity
// always equals the initial capital plus the sum of applied settlements.
type EquityState struct {
	initial decimal.Decimal
	equity  decimal.Decimal
	history []EquityPoint
}

// NewEquityState initializes equity tracking with the provided starting
// capital.
func NewEquityState(initial decimal.Decimal, at time.Time) (*EquityState, error) {
	if initial.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("initial capital must be positive, got %s", initial.String())
	}

	return &EquityState{
		initial: initial,
		equity:  initial,
		history: []EquityPoint{{Time: at, Equity: initial}},
	}, nil
}

// Apply settles the provided pnl against the running equity.
func (s *EquityState) Apply(pnl decimal.Decimal, at time.Time) {
	s.equity = s.equity.Add(pnl)
	s.history = append(s.history, EquityPoint{Time: at, Equity: s.equity})
}

// Initial returns the starting capital.
func (s *EquityState) Initial() decimal.Decimal {
	return s.initial
}

// Equity returns the current running equity.
func (s *EquityState) Equity() decimal.Decimal {
	return s.equity
}

// History returns the equity curve, starting at the initial capital.
func (s *EquityState) History() []EquityPoint {
	history := make([]EquityPoint, len(s.history))
	copy(history, s.history)

	return history
}
