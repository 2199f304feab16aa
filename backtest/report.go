package backtest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quarterhour/updown/shared"
	"github.com/shopspring/decimal"
)

// Ratio is a performance ratio that may be undefined (no trades to rate) or
// infinite (a profit factor with no losing trades).
type Ratio struct {
	Value    decimal.Decimal
	Defined  bool
	Infinite bool
}

// DefinedRatio returns a defined, finite ratio.
func DefinedRatio(value decimal.Decimal) Ratio {
	return Ratio{Value: value, Defined: true}
}

// InfiniteRatio returns a defined, infinite ratio.
func InfiniteRatio() Ratio {
	return Ratio{Defined: true, Infinite: true}
}

// String stringifies the provided ratio.
func (r Ratio) String() string {
	switch {
	case !r.Defined:
		return "undefined"
	case r.Infinite:
		return "+inf"
	default:
		return r.Value.StringFixed(4)
	}
}

// DirectionStats aggregates settled trades sharing a grouping key.
type DirectionStats struct {
	Trades int
	Wins   int
	PnL    decimal.Decimal
}

// Summary aggregates performance over the settled trades of a run. With no
// settled trades every ratio is undefined rather than zero.
type Summary struct {
	TotalTrades  int
	Wins         int
	Losses       int
	TotalPnL     decimal.Decimal
	FinalEquity  decimal.Decimal
	WinRate      Ratio
	TotalReturn  Ratio
	ProfitFactor Ratio
	MaxDrawdown  Ratio
	TradesPerDay Ratio
	ByDirection  map[shared.Direction]DirectionStats
	ByHour       map[int]DirectionStats
	ByMarket     map[string]DirectionStats
}

// Summarize aggregates the provided settled trades and equity curve.
func Summarize(trades []*shared.SimulatedTrade, equity *EquityState) Summary {
	summary := Summary{
		FinalEquity: equity.Equity(),
		ByDirection: map[shared.Direction]DirectionStats{},
		ByHour:      map[int]DirectionStats{},
		ByMarket:    map[string]DirectionStats{},
	}

	grossProfit := decimal.Zero
	grossLoss := decimal.Zero
	days := map[string]struct{}{}

	for _, trade := range trades {
		if trade.Outcome == shared.Pending {
			continue
		}

		summary.TotalTrades++
		summary.TotalPnL = summary.TotalPnL.Add(trade.PnL)
		days[trade.EntryTime.UTC().Format("2006-01-02")] = struct{}{}

		won := trade.Outcome == shared.Win
		if won {
			summary.Wins++
			grossProfit = grossProfit.Add(trade.PnL)
		} else {
			summary.Losses++
			grossLoss = grossLoss.Add(trade.PnL.Neg())
		}

		direction := summary.ByDirection[trade.Direction]
		direction.Trades++
		if won {
			direction.Wins++
		}
		direction.PnL = direction.PnL.Add(trade.PnL)
		summary.ByDirection[trade.Direction] = direction

		hour := summary.ByHour[trade.EntryTime.UTC().Hour()]
		hour.Trades++
		if won {
			hour.Wins++
		}
		hour.PnL = hour.PnL.Add(trade.PnL)
		summary.ByHour[trade.EntryTime.UTC().Hour()] = hour

		market := summary.ByMarket[trade.Market]
		market.Trades++
		if won {
			market.Wins++
		}
		market.PnL = market.PnL.Add(trade.PnL)
		summary.ByMarket[trade.Market] = market
	}

	if summary.TotalTrades == 0 {
		// With nothing settled every ratio stays undefined rather than
		// reporting a misleading zero.
		return summary
	}

	summary.TotalReturn = DefinedRatio(equity.Equity().Sub(equity.Initial()).Div(equity.Initial()))
	summary.MaxDrawdown = maxDrawdown(equity.History())

	total := decimal.NewFromInt(int64(summary.TotalTrades))
	summary.WinRate = DefinedRatio(decimal.NewFromInt(int64(summary.Wins)).Div(total))
	summary.TradesPerDay = DefinedRatio(total.Div(decimal.NewFromInt(int64(len(days)))))

	switch {
	case grossLoss.IsZero() && grossProfit.IsZero():
		// Possible only when every settlement nets exactly zero, which the
		// binary payout does not produce, but guard anyway.
		summary.ProfitFactor = Ratio{}
	case grossLoss.IsZero():
		summary.ProfitFactor = InfiniteRatio()
	default:
		summary.ProfitFactor = DefinedRatio(grossProfit.Div(grossLoss))
	}

	return summary
}

// maxDrawdown computes the largest peak to trough equity decline as a
// fraction of the peak.
func maxDrawdown(history []EquityPoint) Ratio {
	if len(history) == 0 {
		return Ratio{}
	}

	peak := history[0].Equity
	worst := decimal.Zero
	for idx := range history {
		point := history[idx].Equity
		if point.GreaterThan(peak) {
			peak = point
		}
		if peak.LessThanOrEqual(decimal.Zero) {
			continue
		}

		drawdown := peak.Sub(point).Div(peak)
		if drawdown.GreaterThan(worst) {
			worst = drawdown
		}
	}

	return DefinedRatio(worst)
}

// Render formats the summary as a human readable report.
func (s *Summary) Render() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("trades: %d (wins %d, losses %d)\n", s.TotalTrades, s.Wins, s.Losses))
	b.WriteString(fmt.Sprintf("pnl: %s, final equity: %s\n", s.TotalPnL.StringFixed(2), s.FinalEquity.StringFixed(2)))
	b.WriteString(fmt.Sprintf("win rate: %s\n", s.WinRate.String()))
	b.WriteString(fmt.Sprintf("total return: %s\n", s.TotalReturn.String()))
	b.WriteString(fmt.Sprintf("profit factor: %s\n", s.ProfitFactor.String()))
	b.WriteString(fmt.Sprintf("max drawdown: %s\n", s.MaxDrawdown.String()))
	b.WriteString(fmt.Sprintf("trades per day: %s\n", s.TradesPerDay.String()))

	for _, direction := range []shared.Direction{shared.Up, shared.Down} {
		stats, ok := s.ByDirection[direction]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("%s: %d trades, %d wins, pnl %s\n",
			direction.String(), stats.Trades, stats.Wins, stats.PnL.StringFixed(2)))
	}

	markets := make([]string, 0, len(s.ByMarket))
	for market := range s.ByMarket {
		markets = append(markets, market)
	}
	sort.Strings(markets)
	for _, market := range markets {
		stats := s.ByMarket[market]
		b.WriteString(fmt.Sprintf("%s: %d trades, %d wins, pnl %s\n",
			market, stats.Trades, stats.Wins, stats.PnL.StringFixed(2)))
	}

	hours := make([]int, 0, len(s.ByHour))
	for hour := range s.ByHour {
		hours = append(hours, hour)
	}
	sort.Ints(hours)
	for _, hour := range hours {
		stats := s.ByHour[hour]
		b.WriteString(fmt.Sprintf("hour %02d: %d trades, %d wins, pnl %s\n",
			hour, stats.Trades, stats.Wins, stats.PnL.StringFixed(2)))
	}

	return b.String()
}
