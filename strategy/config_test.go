package strategy

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/peterldowns/testy/assert"
)

// writeConfig writes the provided strategy config json to a temp file.
func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "strategy.json")
	err := os.WriteFile(path, []byte(contents), 0o644)
	assert.NoError(t, err)

	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
		"assets": {
			"ETH-USDT": {
				"rsiPeriod": 7, "rsiOversold": 42, "rsiOverbought": 62,
				"stochasticPeriod": 5, "stochasticOversold": 38, "stochasticOverbought": 68,
				"ftfcThreshold": 2.0,
				"rules": ["rsi", "stochastic", "ftfc"]
			},
			"BTC-USDT": {
				"consecutiveThreshold": 3,
				"rules": ["consecutive"]
			}
		},
		"buckets": [
			{"weekday": 1, "hour": 0, "minute": 0, "action": "block"},
			{"weekday": 2, "hour": 14, "minute": 30, "action": "reverse"}
		]
	}`)

	thresholds, policy, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, len(thresholds), 2)

	eth := thresholds["ETH-USDT"]
	assert.Equal(t, eth.RSIPeriod, 7)
	assert.Equal(t, eth.RSIOversold, float64(42))
	assert.Equal(t, eth.StochasticOverbought, float64(68))
	assert.True(t, eth.UseRSI)
	assert.True(t, eth.UseStochastic)
	assert.True(t, eth.UseFTFC)
	assert.False(t, eth.UseConsecutive)

	btc := thresholds["BTC-USDT"]
	assert.True(t, btc.UseConsecutive)
	assert.Equal(t, btc.ConsecutiveThreshold, 3)

	assert.Equal(t, policy.Size(), 2)
	mondayMidnight := time.Date(2024, 3, 4, 0, 5, 0, 0, time.UTC)
	assert.Equal(t, policy.ActionAt(mondayMidnight), Block)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{
			name:     "no assets",
			contents: `{"assets": {}}`,
		},
		{
			name: "unknown rule",
			contents: `{"assets": {"ETH-USDT": {
				"rsiPeriod": 7, "rsiOversold": 42, "rsiOverbought": 62,
				"rules": ["vwap"]
			}}}`,
		},
		{
			name: "invalid thresholds",
			contents: `{"assets": {"ETH-USDT": {
				"rsiPeriod": 0, "rsiOversold": 42, "rsiOverbought": 62,
				"rules": ["rsi"]
			}}}`,
		},
		{
			name: "no rules",
			contents: `{"assets": {"ETH-USDT": {
				"rsiPeriod": 7, "rsiOversold": 42, "rsiOverbought": 62
			}}}`,
		},
		{
			name: "invalid bucket minute",
			contents: `{
				"assets": {"ETH-USDT": {"consecutiveThreshold": 3, "rules": ["consecutive"]}},
				"buckets": [{"weekday": 1, "hour": 0, "minute": 7, "action": "block"}]
			}`,
		},
		{
			name: "unknown bucket action",
			contents: `{
				"assets": {"ETH-USDT": {"consecutiveThreshold": 3, "rules": ["consecutive"]}},
				"buckets": [{"weekday": 1, "hour": 0, "minute": 0, "action": "skip"}]
			}`,
		},
	}

	for _, test := range tests {
		path := writeConfig(t, test.contents)
		_, _, err := LoadConfig(path)
		if err == nil {
			t.Errorf("%s: expected a load error", test.name)
		}
	}

	// Ensure missing files error.
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
