package fetch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/quarterhour/updown/shared"
	"github.com/rs/zerolog"
)

const (
	// maxWorkers is the maximum number of concurrent market polls.
	maxWorkers = 8
	// minSubscriberBuffer is the minimum buffer size for subscribers.
	minSubscriberBuffer = 24
	// pollSchedule polls on every fifteen minute boundary.
	pollSchedule = "*/15 * * * *"
	// pollDelay waits out the exchange closing the boundary candle before
	// polling for it.
	pollDelay = time.Second * 3
)

// CandleFetcher fetches candlesticks for a market and timeframe.
type CandleFetcher interface {
	FetchKlines(ctx context.Context, market string, timeframe shared.Timeframe,
		start time.Time, end time.Time, limit int) ([]shared.Candlestick, error)
}

// Ensure the kline client implements the CandleFetcher interface.
var _ CandleFetcher = (*KlineClient)(nil)

// ManagerConfig represents the configuration for the market data manager.
type ManagerConfig struct {
	// Markets represents the tracked markets.
	Markets []string
	// ExchangeClient represents the market exchange client.
	ExchangeClient CandleFetcher
	// Location is the scheduler timezone.
	Location *time.Location
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *ManagerConfig) Validate() error {
	var errs error

	if len(cfg.Markets) == 0 {
		errs = errors.Join(errs, fmt.Errorf("no markets provided"))
	}
	if cfg.ExchangeClient == nil {
		errs = errors.Join(errs, fmt.Errorf("no exchange client provided"))
	}
	if cfg.Location == nil {
		errs = errors.Join(errs, fmt.Errorf("no location provided"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// Manager represents the market data manager. It polls the exchange on
// candle boundaries and fans closed candles out to subscribers.
type Manager struct {
	cfg              *ManagerConfig
	lastUpdatedTimes map[string]time.Time
	lastUpdatedMtx   sync.Mutex
	jobScheduler     *gocron.Scheduler
	subscribers      []*chan shared.Candlestick
	subscribersMtx   sync.Mutex
	workers          chan struct{}
}

// NewManager initializes the market data manager.
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating manager config: %w", err)
	}

	mgr := &Manager{
		cfg:              cfg,
		lastUpdatedTimes: make(map[string]time.Time),
		jobScheduler:     gocron.NewScheduler(cfg.Location),
		subscribers:      make([]*chan shared.Candlestick, 0, minSubscriberBuffer),
		workers:          make(chan struct{}, maxWorkers),
	}

	return mgr, nil
}

// Subscribe registers the provided subscriber for market updates.
func (m *Manager) Subscribe(sub *chan shared.Candlestick) {
	m.subscribersMtx.Lock()
	defer m.subscribersMtx.Unlock()

	m.subscribers = append(m.subscribers, sub)
}

// notifySubscribers notifies subscribers of the new market update.
func (m *Manager) notifySubscribers(candle *shared.Candlestick) {
	m.subscribersMtx.Lock()
	defer m.subscribersMtx.Unlock()

	for k := range m.subscribers {
		select {
		case *m.subscribers[k] <- *candle:
		default:
			m.cfg.Logger.Error().Msgf("subscriber channel at capacity, dropping %s candle update",
				candle.Market)
		}
	}
}

// PollMarket fetches candles for the provided market that closed since its
// last update and relays them to subscribers. The still-forming boundary
// candle is dropped.
func (m *Manager) PollMarket(ctx context.Context, market string, now time.Time) {
	m.lastUpdatedMtx.Lock()
	since := m.lastUpdatedTimes[market]
	m.lastUpdatedMtx.Unlock()

	var start time.Time
	if !since.IsZero() {
		start = since.Add(shared.Horizon)
	}

	candles, err := m.cfg.ExchangeClient.FetchKlines(ctx, market, shared.FifteenMinute,
		start, time.Time{}, 0)
	if err != nil {
		m.cfg.Logger.Error().Msgf("polling %s: %v", market, err)
		return
	}

	var relayed int
	var last time.Time
	for idx := range candles {
		candle := candles[idx]
		if candle.Date.Add(shared.Horizon).After(now) {
			// Still forming.
			continue
		}
		if !since.IsZero() && !candle.Date.After(since) {
			continue
		}

		m.notifySubscribers(&candle)
		relayed++
		last = candle.Date
	}

	if relayed > 0 {
		m.lastUpdatedMtx.Lock()
		m.lastUpdatedTimes[market] = last
		m.lastUpdatedMtx.Unlock()
	}
}

// pollMarkets polls every tracked market concurrently, bounded by the worker
// pool.
func (m *Manager) pollMarkets(ctx context.Context) {
	time.Sleep(pollDelay)
	now := time.Now().In(m.cfg.Location)

	for idx := range m.cfg.Markets {
		m.workers <- struct{}{}
		go func(market string) {
			m.PollMarket(ctx, market, now)
			<-m.workers
		}(m.cfg.Markets[idx])
	}
}

// Run manages the lifecycle processes of the market data manager.
func (m *Manager) Run(ctx context.Context) error {
	_, err := m.jobScheduler.Cron(pollSchedule).Do(func() {
		m.pollMarkets(ctx)
	})
	if err != nil {
		return fmt.Errorf("scheduling market polls: %w", err)
	}

	m.jobScheduler.StartAsync()
	<-ctx.Done()
	m.jobScheduler.Stop()

	return nil
}
