package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quarterhour/updown/backtest"
	"github.com/quarterhour/updown/database"
	"github.com/quarterhour/updown/fetch"
	"github.com/quarterhour/updown/indicator"
	"github.com/quarterhour/updown/shared"
	"github.com/quarterhour/updown/strategy"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// bufferSize is the default buffer size for channels.
	bufferSize = 64
	// maxHistory caps the retained base timeframe candles per market, about
	// three weeks of fifteen minute candles.
	maxHistory = 2016
	// frameWindow is the trailing candle window indicator frames are built
	// over on each evaluation.
	frameWindow = 100
	// htfRefreshInterval is how often higher timeframe candles are refetched.
	htfRefreshInterval = time.Hour
	// htfFetchLimit is the number of higher timeframe candles fetched per
	// refresh.
	htfFetchLimit = 50
)

// htfSeries holds the higher timeframe candles backing trend snapshots for a
// market.
type htfSeries struct {
	h1        []shared.Candlestick
	h4        []shared.Candlestick
	refreshed time.Time
}

// TraderConfig represents the paper trader configuration.
type TraderConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// Thresholds represents the per-asset thresholds and rule sets.
	Thresholds map[string]strategy.Thresholds
	// Policy represents the time bucket overrides. Optional.
	Policy *strategy.TimeBucketPolicy
	// ExchangeClient fetches higher timeframe candles.
	ExchangeClient fetch.CandleFetcher
	// Subscribe registers the trader for market updates.
	Subscribe func(sub *chan shared.Candlestick)
	// Storer persists resolved trades. Optional.
	Storer database.TradeStorer
	// Notify relays trade notifications. Optional.
	Notify func(message string)
	// InitialCapital is the starting paper equity.
	InitialCapital decimal.Decimal
	// Stake sizes each wager.
	Stake backtest.StakePolicy
	// ContractPrice is the implied probability positions are entered at.
	ContractPrice decimal.Decimal
	// CostRate is the combined commission and slippage rate.
	CostRate decimal.Decimal
	// Logger is the trader logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *TraderConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided"))
	}
	if cfg.ExchangeClient == nil {
		errs = errors.Join(errs, fmt.Errorf("no exchange client provided"))
	}
	if cfg.Subscribe == nil {
		errs = errors.Join(errs, fmt.Errorf("no subscribe function provided"))
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

// Trader runs the signal strategy live on closed candles, tracking paper
// positions against a running equity.
type Trader struct {
	cfg       *TraderConfig
	updates   chan shared.Candlestick
	generator *strategy.Generator
	builders  map[string]*indicator.FrameBuilder
	history   map[string][]shared.Candlestick
	htf       map[string]*htfSeries
	pending   map[string]*shared.SimulatedTrade
	equity    *backtest.EquityState
}

// NewTrader initializes a new paper trader.
func NewTrader(cfg *TraderConfig) (*Trader, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating trader config: %w", err)
	}

	generator, err := strategy.NewGenerator(&strategy.GeneratorConfig{
		Thresholds: cfg.Thresholds,
		Policy:     cfg.Policy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating signal generator: %w", err)
	}

	equity, err := backtest.NewEquityState(cfg.InitialCapital, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	trader := &Trader{
		cfg:       cfg,
		updates:   make(chan shared.Candlestick, bufferSize),
		generator: generator,
		builders:  make(map[string]*indicator.FrameBuilder, len(cfg.Markets)),
		history:   make(map[string][]shared.Candlestick, len(cfg.Markets)),
		htf:       make(map[string]*htfSeries, len(cfg.Markets)),
		pending:   make(map[string]*shared.SimulatedTrade, len(cfg.Markets)),
		equity:    equity,
	}

	for idx := range cfg.Markets {
		market := cfg.Markets[idx]
		thresholds, ok := cfg.Thresholds[market]
		if !ok {
			return nil, fmt.Errorf("no thresholds configured for market %s", market)
		}

		trader.htf[market] = &htfSeries{}
		builder, err := indicator.NewFrameBuilder(&indicator.FrameBuilderConfig{
			RSIPeriod:        oscillatorPeriod(thresholds.RSIPeriod),
			StochasticPeriod: oscillatorPeriod(thresholds.StochasticPeriod),
			Snapshot:         trader.snapshotFunc(market),
		})
		if err != nil {
			return nil, fmt.Errorf("creating frame builder for %s: %w", market, err)
		}

		trader.builders[market] = builder
	}

	cfg.Subscribe(&trader.updates)

	return trader, nil
}

// oscillatorPeriod defaults disabled oscillator periods so frame building
// always has a positive lookback.
func oscillatorPeriod(period int) int {
	if period <= 0 {
		return 14
	}

	return period
}

// snapshotFunc returns the higher timeframe snapshot provider for the
// provided market.
func (t *Trader) snapshotFunc(market string) func(at time.Time) shared.HigherTimeframeSnapshot {
	return func(at time.Time) shared.HigherTimeframeSnapshot {
		series := t.htf[market]
		return indicator.NewHigherTimeframeSnapshot(series.h1, series.h4, at)
	}
}

// notify relays the provided message when a notifier is configured.
func (t *Trader) notify(message string) {
	if t.cfg.Notify != nil {
		t.cfg.Notify(message)
	}
}

// refreshHTF refetches higher timeframe candles for the provided market once
// the refresh interval elapses.
func (t *Trader) refreshHTF(ctx context.Context, market string, now time.Time) {
	series := t.htf[market]
	if !series.refreshed.IsZero() && now.Sub(series.refreshed) < htfRefreshInterval {
		return
	}

	h1, err := t.cfg.ExchangeClient.FetchKlines(ctx, market, shared.OneHour,
		time.Time{}, time.Time{}, htfFetchLimit)
	if err != nil {
		t.cfg.Logger.Error().Msgf("fetching 1H candles for %s: %v", market, err)
		return
	}

	h4, err := t.cfg.ExchangeClient.FetchKlines(ctx, market, shared.FourHour,
		time.Time{}, time.Time{}, htfFetchLimit)
	if err != nil {
		t.cfg.Logger.Error().Msgf("fetching 4H candles for %s: %v", market, err)
		return
	}

	series.h1 = h1
	series.h4 = h4
	series.refreshed = now
}

// resolvePending settles the open position for the provided market if the
// incoming candle closes at or past its resolution time.
func (t *Trader) resolvePending(ctx context.Context, candle *shared.Candlestick) {
	trade, ok := t.pending[candle.Market]
	if !ok || candle.Date.Before(trade.ResolutionTime) {
		return
	}

	err := trade.Resolve(decimal.NewFromFloat(candle.Close), t.cfg.CostRate)
	if err != nil {
		t.cfg.Logger.Error().Msgf("resolving trade %s: %v", trade.ID, err)
		return
	}

	t.equity.Apply(trade.PnL, trade.ResolutionTime)
	delete(t.pending, candle.Market)

	t.cfg.Logger.Info().Str("market", trade.Market).
		Str("outcome", trade.Outcome.String()).
		Str("pnl", trade.PnL.StringFixed(2)).
		Str("equity", t.equity.Equity().StringFixed(2)).
		Msg("settled trade")
	t.notify(fmt.Sprintf("%s %s trade settled: %s, pnl %s, equity %s",
		trade.Market, trade.Direction.String(), trade.Outcome.String(),
		trade.PnL.StringFixed(2), t.equity.Equity().StringFixed(2)))

	if t.cfg.Storer != nil {
		err = t.cfg.Storer.PersistResolvedTrade(ctx, trade)
		if err != nil {
			t.cfg.Logger.Error().Msgf("persisting trade %s: %v", trade.ID, err)
		}
	}
}

// handleMarketUpdate processes the provided closed candle: settling the open
// position, refreshing higher timeframe context and evaluating the strategy
// at the new close.
func (t *Trader) handleMarketUpdate(ctx context.Context, candle *shared.Candlestick) {
	if candle.Timeframe != shared.FifteenMinute {
		return
	}
	if _, ok := t.builders[candle.Market]; !ok {
		return
	}

	history := append(t.history[candle.Market], *candle)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	t.history[candle.Market] = history

	t.resolvePending(ctx, candle)
	t.refreshHTF(ctx, candle.Market, candle.Date)

	window := history
	if len(window) > frameWindow {
		window = window[len(window)-frameWindow:]
	}

	frames := t.builders[candle.Market].BuildFrames(window)
	decision, err := t.generator.Evaluate(&frames[len(frames)-1], candle.Market)
	if err != nil {
		t.cfg.Logger.Error().Msgf("evaluating %s at %s: %v", candle.Market,
			candle.Date.Format(shared.DateLayout), err)
		return
	}

	if decision.Direction == shared.None {
		return
	}
	if _, ok := t.pending[candle.Market]; ok {
		return
	}

	stake := t.cfg.Stake.StakeFor(t.equity.Equity())
	if stake.LessThanOrEqual(decimal.Zero) {
		t.cfg.Logger.Info().Str("market", candle.Market).
			Str("equity", t.equity.Equity().StringFixed(2)).
			Msg("skipping signal, stake sized to nothing")
		return
	}

	trade, err := shared.NewSimulatedTrade(candle.Market, decision.Direction,
		candle.Date, decimal.NewFromFloat(candle.Close), stake, t.cfg.ContractPrice)
	if err != nil {
		t.cfg.Logger.Error().Msgf("opening trade for %s: %v", candle.Market, err)
		return
	}

	t.pending[candle.Market] = trade
	t.cfg.Logger.Info().Str("market", trade.Market).
		Str("direction", trade.Direction.String()).
		Str("stake", trade.Stake.StringFixed(2)).
		Str("reasons", shared.StringifyReasons(decision.Reasons)).
		Time("entryTime", trade.EntryTime).
		Msg("opened trade")
	t.notify(fmt.Sprintf("%s %s trade opened at %s, stake %s",
		trade.Market, trade.Direction.String(),
		trade.EntryTime.Format(shared.DateLayout), trade.Stake.StringFixed(2)))
}

// Equity returns the current paper equity.
func (t *Trader) Equity() decimal.Decimal {
	return t.equity.Equity()
}

// Run manages the lifecycle processes of the paper trader.
func (t *Trader) Run(ctx context.Context) {
	for {
		select {
		case candle := <-t.updates:
			t.handleMarketUpdate(ctx, &candle)
		case <-ctx.Done():
			return
		}
	}
}
