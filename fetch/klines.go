package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/quarterhour/updown/shared"
	"github.com/tidwall/gjson"
)

const (
	// defaultBaseURL is the exchange rest endpoint.
	defaultBaseURL = "https://api.binance.com"
	// klinesPath is the spot kline endpoint path.
	klinesPath = "/api/v3/klines"
	// maxKlineLimit is the exchange cap on klines per request.
	maxKlineLimit = 1000
)

// KlineClientConfig represents the configuration for the kline client.
type KlineClientConfig struct {
	// BaseURL is the exchange rest endpoint. Optional; defaults to the spot
	// endpoint.
	BaseURL string
	// Timeout is the per-request timeout. Optional; defaults to five seconds.
	Timeout time.Duration
}

// KlineClient represents the exchange kline api client. It is safe for
// concurrent use.
type KlineClient struct {
	cfg   *KlineClientConfig
	httpc http.Client
}

// NewKlineClient instantiates a new kline client.
func NewKlineClient(cfg *KlineClientConfig) *KlineClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second * 5
	}

	return &KlineClient{
		cfg:   cfg,
		httpc: http.Client{Timeout: cfg.Timeout},
	}
}

// formURL creates full urls including parameters for the api.
func (c *KlineClient) formURL(path string, params string) string {
	var buf strings.Builder
	buf.Grow(len(c.cfg.BaseURL) + len(path) + len(params) + 1)
	buf.WriteString(c.cfg.BaseURL)
	buf.WriteString(path)
	buf.WriteString("?")
	buf.WriteString(params)

	return buf.String()
}

// intervalOf maps the provided timeframe to its exchange interval token.
func intervalOf(timeframe shared.Timeframe) (string, error) {
	switch timeframe {
	case shared.FifteenMinute:
		return "15m", nil
	case shared.OneHour:
		return "1h", nil
	case shared.FourHour:
		return "4h", nil
	default:
		return "", fmt.Errorf("unknown timeframe provided: %s", timeframe.String())
	}
}

// symbolOf maps the provided market to its exchange symbol, eg. ETH-USDT
// becomes ETHUSDT.
func symbolOf(market string) string {
	return strings.ReplaceAll(market, "-", "")
}

// parseKlines parses candlesticks from the provided kline json data. Klines
// arrive as positional arrays of open time, open, high, low, close and
// volume.
func parseKlines(data []gjson.Result, market string, timeframe shared.Timeframe) ([]shared.Candlestick, error) {
	candles := make([]shared.Candlestick, 0, len(data))

	for idx := range data {
		entry := data[idx].Array()
		if len(entry) < 6 {
			return nil, fmt.Errorf("malformed kline at index %d: %d fields", idx, len(entry))
		}

		var candle shared.Candlestick

		candle.Date = time.UnixMilli(entry[0].Int()).UTC()
		candle.Open = entry[1].Float()
		candle.High = entry[2].Float()
		candle.Low = entry[3].Float()
		candle.Close = entry[4].Float()
		candle.Volume = entry[5].Float()

		candle.Market = market
		candle.Timeframe = timeframe

		candles = append(candles, candle)
	}

	return candles, nil
}

// FetchKlines fetches candlesticks for the provided market and timeframe. A
// zero end time leaves the range open ended, a non-positive limit defaults
// to the exchange cap.
func (c *KlineClient) FetchKlines(ctx context.Context, market string, timeframe shared.Timeframe,
	start time.Time, end time.Time, limit int) ([]shared.Candlestick, error) {
	interval, err := intervalOf(timeframe)
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > maxKlineLimit {
		limit = maxKlineLimit
	}

	params := url.Values{}
	params.Add("symbol", symbolOf(market))
	params.Add("interval", interval)
	params.Add("limit", strconv.Itoa(limit))
	if !start.IsZero() {
		params.Add("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	if !end.IsZero() {
		params.Add("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.formURL(klinesPath, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("creating kline request for %s: %w", market, err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s klines for %s: %w", timeframe.String(), market, err)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kline request for %s returned status %d: %s",
			market, resp.StatusCode, string(body))
	}

	data := gjson.ParseBytes(body).Array()

	return parseKlines(data, market, timeframe)
}
