package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/quarterhour/updown/database"
	"github.com/quarterhour/updown/fetch"
	"github.com/quarterhour/updown/service"
	"github.com/quarterhour/updown/strategy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// handleTermination processes context cancellation signals or interrupt signals from the OS.
func handleTermination(ctx context.Context, cancel context.CancelFunc) {
	// Listen for interrupt signals.
	signals := []os.Signal{os.Interrupt}
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, signals...)

	// Wait for the context to be cancelled or an interrupt signal.
	for {
		select {
		case <-ctx.Done():
			return

		case <-interrupt:
			cancel()
		}
	}
}

func main() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	logger := log.With().Str("service", "updown").Logger()

	var cfg Config
	err := loadConfig(&cfg, "")
	if err != nil {
		logger.Error().Msgf("loading config: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	thresholds, policy, err := strategy.LoadConfig(cfg.StrategyConfigPath)
	if err != nil {
		logger.Error().Msgf("loading strategy config: %v", err)
		return
	}

	var storer database.TradeStorer
	if cfg.DBEndpoint != "" {
		ledgerLogger := logger.With().Str("component", "ledger").Logger()
		ledger, err := database.NewLedger(ctx, &database.LedgerConfig{
			Endpoint: cfg.DBEndpoint,
			User:     cfg.DBUser,
			Pass:     cfg.DBPass,
			Logger:   &ledgerLogger,
		})
		if err != nil {
			logger.Error().Msgf("creating trade ledger: %v", err)
			return
		}

		storer = ledger
	}

	if cfg.Backtest {
		backtestLogger := logger.With().Str("component", "backtest").Logger()
		runner, err := service.NewBacktest(&service.BacktestConfig{
			Market:         cfg.BacktestMarket,
			DataFilePath:   cfg.BacktestDataFilepath,
			Thresholds:     thresholds,
			Policy:         policy,
			InitialCapital: cfg.capital,
			Stake:          cfg.stake,
			ContractPrice:  cfg.contractPrice,
			CostRate:       cfg.costRate,
			Location:       time.UTC,
			Storer:         storer,
			Logger:         &backtestLogger,
		})
		if err != nil {
			logger.Error().Msgf("creating backtest: %v", err)
			return
		}

		_, err = runner.Run(ctx)
		if err != nil {
			logger.Error().Msgf("running backtest: %v", err)
		}

		return
	}

	client := fetch.NewKlineClient(&fetch.KlineClientConfig{})

	fetchLogger := logger.With().Str("component", "fetchmanager").Logger()
	fetchMgr, err := fetch.NewManager(&fetch.ManagerConfig{
		Markets:        cfg.Markets,
		ExchangeClient: client,
		Location:       time.UTC,
		Logger:         &fetchLogger,
	})
	if err != nil {
		logger.Error().Msgf("creating fetch manager: %v", err)
		return
	}

	traderLogger := logger.With().Str("component", "trader").Logger()
	trader, err := service.NewTrader(&service.TraderConfig{
		Markets:        cfg.Markets,
		Thresholds:     thresholds,
		Policy:         policy,
		ExchangeClient: client,
		Subscribe:      fetchMgr.Subscribe,
		Storer:         storer,
		Notify: func(message string) {
			logger.Info().Msg(message)
		},
		InitialCapital: cfg.capital,
		Stake:          cfg.stake,
		ContractPrice:  cfg.contractPrice,
		CostRate:       cfg.costRate,
		Logger:         &traderLogger,
	})
	if err != nil {
		logger.Error().Msgf("creating trader: %v", err)
		return
	}

	go handleTermination(ctx, cancel)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		err := fetchMgr.Run(ctx)
		if err != nil {
			logger.Error().Msgf("running fetch manager: %v", err)
			cancel()
		}
		wg.Done()
	}()

	go func() {
		trader.Run(ctx)
		wg.Done()
	}()

	wg.Wait()
}
