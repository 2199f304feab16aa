package shared

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

const (
	// DateLayout is the format layout for parsing candle dates.
	DateLayout = "2006-01-02 15:04:05"
)

// Timeframe represents the market data time period.
type Timeframe int

const (
	FifteenMinute Timeframe = iota
	OneHour
	FourHour
)

// String stringifies the provided timeframe.
func (t Timeframe) String() string {
	switch t {
	case FifteenMinute:
		return "15m"
	case OneHour:
		return "1H"
	case FourHour:
		return "4H"
	default:
		return "unknown"
	}
}

// Duration returns the fixed period covered by a candle of the timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case FifteenMinute:
		return time.Minute * 15
	case OneHour:
		return time.Hour
	case FourHour:
		return time.Hour * 4
	default:
		return 0
	}
}

// Candlestick represents a unit candlestick for a market.
type Candlestick struct {
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Date   time.Time

	// Metadata fields.
	Market    string
	Timeframe Timeframe
}

// FetchDirection returns the direction of the candlestick, comparing its
// close to its open. A doji (open == close) has no direction.
func (c *Candlestick) FetchDirection() Direction {
	switch {
	case c.Close > c.Open:
		return Up
	case c.Close < c.Open:
		return Down
	default:
		return None
	}
}

// ParseCandlesticks parses candlesticks from the provided json data.
func ParseCandlesticks(data []gjson.Result, market string, timeframe Timeframe, loc *time.Location) ([]Candlestick, error) {
	candles := make([]Candlestick, 0, len(data))

	for idx := range data {
		var candle Candlestick

		candle.Open = data[idx].Get("open").Float()
		candle.High = data[idx].Get("high").Float()
		candle.Low = data[idx].Get("low").Float()
		candle.Close = data[idx].Get("close").Float()
		candle.Volume = data[idx].Get("volume").Float()

		candle.Market = market
		candle.Timeframe = timeframe

		dt, err := time.ParseInLocation(DateLayout, data[idx].Get("date").String(), loc)
		if err != nil {
			return nil, fmt.Errorf("parsing candlestick date: %w", err)
		}

		candle.Date = dt
		candles = append(candles, candle)
	}

	return candles, nil
}
