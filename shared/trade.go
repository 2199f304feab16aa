package shared

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Horizon is the fixed duration between trade entry and resolution in the
// binary-outcome market.
const Horizon = time.Minute * 15

// Outcome represents the resolution state of a simulated trade.
type Outcome int

const (
	Pending Outcome = iota
	Win
	Loss
)

// String stringifies the provided outcome.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "unknown"
	}
}

// SimulatedTrade represents a binary position opened at a candle boundary and
// resolved exactly one horizon later. It is created pending and immutable
// once resolved. There is no early exit and no partial fill.
type SimulatedTrade struct {
	ID              string
	Market          string
	Direction       Direction
	EntryTime       time.Time
	EntryPrice      decimal.Decimal
	ResolutionTime  time.Time
	ResolutionPrice decimal.Decimal
	Outcome         Outcome
	Stake           decimal.Decimal
	ContractPrice   decimal.Decimal
	PnL             decimal.Decimal
}

// NewSimulatedTrade opens a pending trade at the provided entry price. The
// contract price is the implied probability the position is entered at and
// must be in (0,1).
func NewSimulatedTrade(market string, direction Direction, entryTime time.Time,
	entryPrice decimal.Decimal, stake decimal.Decimal, contractPrice decimal.Decimal) (*SimulatedTrade, error) {
	if direction == None {
		return nil, fmt.Errorf("cannot open a trade with no direction")
	}
	if contractPrice.LessThanOrEqual(decimal.Zero) || contractPrice.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("contract price must be in (0,1), got %s", contractPrice.String())
	}

	trade := &SimulatedTrade{
		ID:             uuid.New().String(),
		Market:         market,
		Direction:      direction,
		EntryTime:      entryTime,
		EntryPrice:     entryPrice,
		ResolutionTime: entryTime.Add(Horizon),
		Outcome:        Pending,
		Stake:          stake,
		ContractPrice:  contractPrice,
	}

	return trade, nil
}

// Resolve settles the trade against the provided resolution price. The cost
// rate (commission plus slippage) is applied symmetrically to the entry and
// resolution prices before the directional comparison, so it always works
// against the position. A tie after cost adjustment resolves to a loss for
// either direction. Resolving an already settled trade is an error.
func (t *SimulatedTrade) Resolve(resolutionPrice decimal.Decimal, costRate decimal.Decimal) error {
	if t.Outcome != Pending {
		return fmt.Errorf("trade %s already resolved to %s", t.ID, t.Outcome.String())
	}

	one := decimal.NewFromInt(1)
	var won bool
	switch t.Direction {
	case Up:
		adjustedEntry := t.EntryPrice.Mul(one.Add(costRate))
		adjustedExit := resolutionPrice.Mul(one.Sub(costRate))
		won = adjustedExit.GreaterThan(adjustedEntry)
	case Down:
		adjustedEntry := t.EntryPrice.Mul(one.Sub(costRate))
		adjustedExit := resolutionPrice.Mul(one.Add(costRate))
		won = adjustedExit.LessThan(adjustedEntry)
	default:
		return fmt.Errorf("cannot resolve a trade with no direction")
	}

	t.ResolutionPrice = resolutionPrice
	switch won {
	case true:
		t.Outcome = Win
		// A winning binary position pays out stake * (1/contractPrice - 1).
		t.PnL = t.Stake.Mul(one.Div(t.ContractPrice).Sub(one))
	case false:
		t.Outcome = Loss
		t.PnL = t.Stake.Neg()
	}

	return nil
}
