package fetch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/quarterhour/updown/shared"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// HistoricDataConfig represents the historic data source configuration.
type HistoricDataConfig struct {
	// Market represents the historic data market.
	Market string
	// Timeframe represents the timeframe for the historic data.
	Timeframe shared.Timeframe
	// FilePath is the filepath to the historic market data.
	FilePath string
	// Location is the timezone candle dates are parsed in. Optional;
	// defaults to utc.
	Location *time.Location
	// Logger represents the application logger.
	Logger *zerolog.Logger
}

// Validate asserts the config has sane inputs.
func (cfg *HistoricDataConfig) Validate() error {
	var errs error

	if cfg.Market == "" {
		errs = errors.Join(errs, fmt.Errorf("no market provided"))
	}
	if cfg.FilePath == "" {
		errs = errors.Join(errs, fmt.Errorf("no filepath provided"))
	}
	if cfg.Logger == nil {
		errs = errors.Join(errs, fmt.Errorf("no logger provided"))
	}

	return errs
}

// HistoricData represents historic market data loaded from disk.
type HistoricData struct {
	cfg     *HistoricDataConfig
	candles []shared.Candlestick
}

// loadHistoricData loads the historic data bytes from the provided file path.
func loadHistoricData(filepath string) ([]gjson.Result, error) {
	readb, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("reading historic data from file with path '%s': %v", filepath, err)
	}

	b := gjson.ParseBytes(readb).Array()

	return b, nil
}

// NewHistoricData initializes a new historic data source.
func NewHistoricData(cfg *HistoricDataConfig) (*HistoricData, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validating historic data config: %w", err)
	}

	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	b, err := loadHistoricData(cfg.FilePath)
	if err != nil {
		return nil, fmt.Errorf("loading historic data: %v", err)
	}

	candles, err := shared.ParseCandlesticks(b, cfg.Market, cfg.Timeframe, cfg.Location)
	if err != nil {
		return nil, fmt.Errorf("parsing candlesticks: %v", err)
	}

	if len(candles) == 0 {
		return nil, fmt.Errorf("historic data at '%s' has no candles", cfg.FilePath)
	}

	first := candles[0].Date
	last := candles[len(candles)-1].Date
	cfg.Logger.Info().Msgf("loaded %d %s candles for %s covering %.2f hours, from %s, to %s",
		len(candles), cfg.Timeframe.String(), cfg.Market, last.Sub(first).Hours(),
		first.Format(time.RFC1123), last.Format(time.RFC1123))

	return &HistoricData{
		cfg:     cfg,
		candles: candles,
	}, nil
}

// Candles returns the loaded candle series in file order.
func (h *HistoricData) Candles() []shared.Candlestick {
	return h.candles
}

// Range returns the first and last candle dates of the series.
func (h *HistoricData) Range() (time.Time, time.Time) {
	return h.candles[0].Date, h.candles[len(h.candles)-1].Date
}
