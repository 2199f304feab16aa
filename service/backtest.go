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

// BacktestConfig represents the backtest runner configuration.
type BacktestConfig struct {
	// Market is the market being backtested.
	Market string
	// DataFilePath is the filepath to the backtest candle data.
	DataFilePath string
	// Thresholds represents the per-asset thresholds and rule sets.
	Thresholds map[string]strategy.Thresholds
	// Policy represents the time bucket overrides. Optional.
	Policy *strategy.TimeBucketPolicy
	// InitialCapital is the starting equity.
	InitialCapital decimal.Decimal
	// Stake sizes each wager.
	Stake backtest.StakePolicy
	// ContractPrice is the implied probability positions are entered at.
	ContractPrice decimal.Decimal
	// CostRate is the combined commission and slippage rate.
	CostRate decimal.Decimal
	// Location is the timezone candle dates are parsed in. Optional;
	// defaults to utc.
	Location *time.Location
	// Storer persists resolved trades. Optional.
	Storer database.TradeStorer
	// Logger is the backtest logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *BacktestConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("backtest market cannot be an empty string"))
	}
	if cfg.DataFilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("backtest data filepath cannot be an empty string"))
	}
	if _, ok := cfg.Thresholds[cfg.Market]; !ok {
		errs = errors.Join(errs, fmt.Errorf("no thresholds configured for market %s", cfg.Market))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// Backtest replays a historical candle file through the strategy and reports
// performance.
type Backtest struct {
	cfg *BacktestConfig
}

// NewBacktest initializes a new backtest runner.
func NewBacktest(cfg *BacktestConfig) (*Backtest, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating backtest config: %w", err)
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &Backtest{cfg: cfg}, nil
}

// Run replays the configured data file and returns the simulation result.
func (b *Backtest) Run(ctx context.Context) (*backtest.Result, error) {
	historicData, err := fetch.NewHistoricData(&fetch.HistoricDataConfig{
		Market:    b.cfg.Market,
		Timeframe: shared.FifteenMinute,
		FilePath:  b.cfg.DataFilePath,
		Location:  b.cfg.Location,
		Logger:    b.cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating historic data: %w", err)
	}

	candles := historicData.Candles()

	// Higher timeframe context is rolled up from the base series itself. The
	// trailing bucket includes the fifteen minute closes observed so far, so
	// an evaluation mid-hour sees the hour's partial rollup rather than
	// waiting for the bucket to close.
	h1, err := shared.AggregateCandles(candles, shared.OneHour)
	if err != nil {
		return nil, fmt.Errorf("aggregating 1H candles: %w", err)
	}
	h4, err := shared.AggregateCandles(candles, shared.FourHour)
	if err != nil {
		return nil, fmt.Errorf("aggregating 4H candles: %w", err)
	}

	thresholds := b.cfg.Thresholds[b.cfg.Market]
	builder, err := indicator.NewFrameBuilder(&indicator.FrameBuilderConfig{
		RSIPeriod:        oscillatorPeriod(thresholds.RSIPeriod),
		StochasticPeriod: oscillatorPeriod(thresholds.StochasticPeriod),
		Snapshot: func(at time.Time) shared.HigherTimeframeSnapshot {
			return indicator.NewHigherTimeframeSnapshot(h1, h4, at)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating frame builder: %w", err)
	}

	generator, err := strategy.NewGenerator(&strategy.GeneratorConfig{
		Thresholds: b.cfg.Thresholds,
		Policy:     b.cfg.Policy,
	})
	if err != nil {
		return nil, fmt.Errorf("creating signal generator: %w", err)
	}

	simulator, err := backtest.NewSimulator(&backtest.SimulatorConfig{
		Market:         b.cfg.Market,
		Candles:        candles,
		FrameBuilder:   builder,
		Generator:      generator,
		InitialCapital: b.cfg.InitialCapital,
		Stake:          b.cfg.Stake,
		ContractPrice:  b.cfg.ContractPrice,
		CostRate:       b.cfg.CostRate,
		Logger:         b.cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating simulator: %w", err)
	}

	result, err := simulator.Run()
	if err != nil {
		return nil, fmt.Errorf("running simulation: %w", err)
	}

	if b.cfg.Storer != nil {
		for idx := range result.Trades {
			err = b.cfg.Storer.PersistResolvedTrade(ctx, result.Trades[idx])
			if err != nil {
				b.cfg.Logger.Error().Msgf("persisting trade %s: %v", result.Trades[idx].ID, err)
			}
		}
	}

	b.cfg.Logger.Info().Msgf("backtest for %s done:\n%s", b.cfg.Market, result.Summary.Render())

	return result, nil
}
