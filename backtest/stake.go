package backtest

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// StakeMode represents the staking mode for simulated trades.
type StakeMode int

const (
	// FixedStake wagers a constant amount per trade.
	FixedStake StakeMode = iota
	// PercentStake wagers a fixed percentage of current equity per trade.
	PercentStake
)

// String stringifies the provided stake mode.
func (m StakeMode) String() string {
	switch m {
	case FixedStake:
		return "fixed"
	case PercentStake:
		return "percent"
	default:
		return "unknown"
	}
}

// StakePolicy sizes the stake for each simulated trade.
type StakePolicy struct {
	// Mode selects fixed or percent-of-equity staking.
	Mode StakeMode
	// Amount is the constant stake for fixed staking.
	Amount decimal.Decimal
	// Percent is the fraction of current equity wagered for percent staking,
	// in (0,1].
	Percent decimal.Decimal
	// MaxEquityFraction caps any stake to this fraction of current equity.
	// Optional; zero leaves stakes uncapped.
	MaxEquityFraction decimal.Decimal
}

// Validate asserts the policy has sane inputs.
func (p *StakePolicy) Validate() error {
	var errs error

	one := decimal.NewFromInt(1)
	switch p.Mode {
	case FixedStake:
		if p.Amount.LessThanOrEqual(decimal.Zero) {
			errs = errors.Join(errs, fmt.Errorf("fixed stake amount must be positive, got %s", p.Amount.String()))
		}
	case PercentStake:
		if p.Percent.LessThanOrEqual(decimal.Zero) || p.Percent.GreaterThan(one) {
			errs = errors.Join(errs, fmt.Errorf("stake percent must be in (0,1], got %s", p.Percent.String()))
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown stake mode %d", p.Mode))
	}

	if p.MaxEquityFraction.LessThan(decimal.Zero) || p.MaxEquityFraction.GreaterThan(one) {
		errs = errors.Join(errs, fmt.Errorf("max equity fraction must be in [0,1], got %s", p.MaxEquityFraction.String()))
	}

	return errs
}

// StakeFor sizes the stake for the provided current equity. A non-positive
// sized stake means no trade should be opened. Percent staking naturally
// yields nothing once equity is exhausted; fixed staking keeps wagering and
// may drive cumulative equity below zero unless capped.
func (p *StakePolicy) StakeFor(equity decimal.Decimal) decimal.Decimal {
	var stake decimal.Decimal
	switch p.Mode {
	case FixedStake:
		stake = p.Amount
	case PercentStake:
		if equity.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero
		}
		stake = equity.Mul(p.Percent)
	}

	if p.MaxEquityFraction.GreaterThan(decimal.Zero) {
		cap := equity.Mul(p.MaxEquityFraction)
		if stake.GreaterThan(cap) {
			stake = cap
		}
	}

	return stake
}
