package backtest

import (
	"errors"
	"fmt"

	"github.com/quarterhour/updown/indicator"
	"github.com/quarterhour/updown/shared"
	"github.com/quarterhour/updown/strategy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MalformedSequenceError flags a candle series that is not strictly
// increasing at exactly one horizon of spacing, naming the offending index.
type MalformedSequenceError struct {
	Index  int
	Reason string
}

// Error satisfies the error interface.
func (e *MalformedSequenceError) Error() string {
	return fmt.Sprintf("malformed candle sequence at index %d: %s", e.Index, e.Reason)
}

// ValidateSequence asserts the provided candles form a strictly increasing
// series spaced exactly one horizon apart.
func ValidateSequence(candles []shared.Candlestick) error {
	for idx := 1; idx < len(candles); idx++ {
		gap := candles[idx].Date.Sub(candles[idx-1].Date)
		switch {
		case gap <= 0:
			return &MalformedSequenceError{
				Index:  idx,
				Reason: fmt.Sprintf("timestamp %s does not advance past %s",
					candles[idx].Date.Format(shared.DateLayout), candles[idx-1].Date.Format(shared.DateLayout)),
			}
		case gap != shared.Horizon:
			return &MalformedSequenceError{
				Index:  idx,
				Reason: fmt.Sprintf("gap of %s, expected %s", gap.String(), shared.Horizon.String()),
			}
		}
	}

	return nil
}

// SimulatorConfig represents the trade simulator configuration.
type SimulatorConfig struct {
	// Market is the market being simulated.
	Market string
	// Candles is the ordered base timeframe series to replay.
	Candles []shared.Candlestick
	// FrameBuilder computes indicator frames over the series.
	FrameBuilder *indicator.FrameBuilder
	// Generator maps indicator frames to signal decisions.
	Generator *strategy.Generator
	// InitialCapital is the starting equity.
	InitialCapital decimal.Decimal
	// Stake sizes each wager.
	Stake StakePolicy
	// ContractPrice is the implied probability positions are entered at,
	// in (0,1).
	ContractPrice decimal.Decimal
	// CostRate is the combined commission and slippage rate applied against
	// every position.
	CostRate decimal.Decimal
	// Logger is the simulator logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *SimulatorConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("no market provided"))
	}
	if len(cfg.Candles) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no candles provided"))
	}
	if cfg.FrameBuilder == nil {
		errs = errors.Join(errs, fmt.Errorf("no frame builder provided"))
	}
	if cfg.Generator == nil {
		errs = errors.Join(errs, fmt.Errorf("no signal generator provided"))
	}
	if cfg.InitialCapital.LessThanOrEqual(decimal.Zero) {
		errs = errors.Join(errs, fmt.Errorf("initial capital must be positive, got %s", cfg.InitialCapital.String()))
	}
	if err := cfg.Stake.Validate(); err != nil {
		errs = errors.Join(errs, fmt.Errorf("validating stake policy: %w", err))
	}
	one := decimal.NewFromInt(1)
	if cfg.ContractPrice.LessThanOrEqual(decimal.Zero) || cfg.ContractPrice.GreaterThanOrEqual(one) {
		errs = errors.Join(errs, fmt.Errorf("contract price must be in (0,1), got %s", cfg.ContractPrice.String()))
	}
	if cfg.CostRate.LessThan(decimal.Zero) {
		errs = errors.Join(errs, fmt.Errorf("cost rate cannot be negative, got %s", cfg.CostRate.String()))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// Result represents the outcome of a simulation run.
type Result struct {
	// Trades holds every settled trade in entry order.
	Trades []*shared.SimulatedTrade
	// Decisions holds every non-none signal decision, opened or not.
	Decisions []shared.SignalDecision
	// Equity is the equity curve across the run.
	Equity *EquityState
	// Summary aggregates performance over the settled trades.
	Summary Summary
}

// Simulator replays a historical candle series through the signal generator
// and settles the resulting binary positions.
type Simulator struct {
	cfg *SimulatorConfig
}

// NewSimulator initializes a new trade simulator.
func NewSimulator(cfg *SimulatorConfig) (*Simulator, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating simulator config: %w", err)
	}

	return &Simulator{cfg: cfg}, nil
}

// Run replays the configured series. Each candle is evaluated at its close;
// a non-none decision opens a position at that close which settles against
// the next candle's close, one horizon later. At most one position is open
// per market at a time, so entries within an open position's horizon are
// skipped.
func (s *Simulator) Run() (*Result, error) {
	err := ValidateSequence(s.cfg.Candles)
	if err != nil {
		return nil, err
	}

	equity, err := NewEquityState(s.cfg.InitialCapital, s.cfg.Candles[0].Date)
	if err != nil {
		return nil, err
	}

	frames := s.cfg.FrameBuilder.BuildFrames(s.cfg.Candles)

	var pending *shared.SimulatedTrade
	trades := []*shared.SimulatedTrade{}
	decisions := []shared.SignalDecision{}

	for idx := range frames {
		candle := &s.cfg.Candles[idx]

		// Settle the open position once its horizon elapses.
		if pending != nil && !candle.Date.Before(pending.ResolutionTime) {
			err = pending.Resolve(decimal.NewFromFloat(candle.Close), s.cfg.CostRate)
			if err != nil {
				return nil, fmt.Errorf("resolving trade %s: %w", pending.ID, err)
			}

			equity.Apply(pending.PnL, pending.ResolutionTime)
			s.cfg.Logger.Debug().Str("market", pending.Market).
				Str("outcome", pending.Outcome.String()).
				Str("pnl", pending.PnL.StringFixed(2)).
				Str("equity", equity.Equity().StringFixed(2)).
				Msg("settled trade")

			trades = append(trades, pending)
			pending = nil
		}

		// The final candle only settles, it cannot open a position with no
		// candle left to resolve against.
		if idx == len(frames)-1 {
			break
		}

		decision, err := s.cfg.Generator.Evaluate(&frames[idx], s.cfg.Market)
		if err != nil {
			return nil, fmt.Errorf("evaluating frame at %s: %w",
				candle.Date.Format(shared.DateLayout), err)
		}

		if decision.Direction == shared.None {
			if len(decision.Reasons) == 1 && decision.Reasons[0] == shared.AmbiguousPredicates {
				s.cfg.Logger.Debug().Str("market", s.cfg.Market).
					Time("evaluationTime", decision.EvaluationTime).
					Msg("ambiguous signal, both directions held")
			}
			continue
		}

		decisions = append(decisions, decision)
		if pending != nil {
			continue
		}

		stake := s.cfg.Stake.StakeFor(equity.Equity())
		if stake.LessThanOrEqual(decimal.Zero) {
			s.cfg.Logger.Debug().Str("market", s.cfg.Market).
				Str("equity", equity.Equity().StringFixed(2)).
				Msg("skipping signal, stake sized to nothing")
			continue
		}

		trade, err := shared.NewSimulatedTrade(s.cfg.Market, decision.Direction,
			candle.Date, decimal.NewFromFloat(candle.Close), stake, s.cfg.ContractPrice)
		if err != nil {
			return nil, fmt.Errorf("opening trade at %s: %w",
				candle.Date.Format(shared.DateLayout), err)
		}

		s.cfg.Logger.Debug().Str("market", trade.Market).
			Str("direction", trade.Direction.String()).
			Str("stake", trade.Stake.StringFixed(2)).
			Time("entryTime", trade.EntryTime).
			Msg("opened trade")

		pending = trade
	}

	return &Result{
		Trades:    trades,
		Decisions: decisions,
		Equity:    equity,
		Summary:   Summarize(trades, equity),
	}, nil
}
