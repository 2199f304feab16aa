package strategy

import (
	"fmt"
	"os"
	"time"

	"github.com/tidwall/gjson"
)

// LoadConfig loads per-asset thresholds and the time bucket policy from the
// provided json file. Validation failures are fatal here, before any candle
// is processed.
//
// Expected shape:
//
//	{
//	  "assets": {
//	    "ETH-USDT": {
//	      "rsiPeriod": 7, "rsiOversold": 42, "rsiOverbought": 62,
//	      "stochasticPeriod": 5, "stochasticOversold": 38, "stochasticOverbought": 68,
//	      "ftfcThreshold": 2.0, "consecutiveThreshold": 3,
//	      "rules": ["rsi", "stochastic", "ftfc"]
//	    }
//	  },
//	  "buckets": [
//	    {"weekday": 1, "hour": 0, "minute": 0, "action": "block"}
//	  ]
//	}
func LoadConfig(path string) (map[string]Thresholds, *TimeBucketPolicy, error) {
	readb, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading strategy config from file with path '%s': %v", path, err)
	}

	b := gjson.ParseBytes(readb)

	assets := b.Get("assets").Map()
	if len(assets) == 0 {
		return nil, nil, fmt.Errorf("strategy config has no assets")
	}

	thresholds := make(map[string]Thresholds, len(assets))
	for market, entry := range assets {
		t := Thresholds{
			RSIPeriod:            int(entry.Get("rsiPeriod").Int()),
			RSIOversold:          entry.Get("rsiOversold").Float(),
			RSIOverbought:        entry.Get("rsiOverbought").Float(),
			StochasticPeriod:     int(entry.Get("stochasticPeriod").Int()),
			StochasticOversold:   entry.Get("stochasticOversold").Float(),
			StochasticOverbought: entry.Get("stochasticOverbought").Float(),
			FTFCThreshold:        entry.Get("ftfcThreshold").Float(),
			ConsecutiveThreshold: int(entry.Get("consecutiveThreshold").Int()),
		}

		rules := entry.Get("rules").Array()
		for idx := range rules {
			switch rules[idx].String() {
			case "rsi":
				t.UseRSI = true
			case "stochastic":
				t.UseStochastic = true
			case "ftfc":
				t.UseFTFC = true
			case "consecutive":
				t.UseConsecutive = true
			default:
				return nil, nil, fmt.Errorf("unknown rule %q for market %s", rules[idx].String(), market)
			}
		}

		err = t.Validate()
		if err != nil {
			return nil, nil, fmt.Errorf("validating thresholds for %s: %w", market, err)
		}

		thresholds[market] = t
	}

	buckets := b.Get("buckets").Array()
	actions := make(map[TimeBucket]PolicyAction, len(buckets))
	for idx := range buckets {
		entry := buckets[idx]

		bucket, err := NewTimeBucket(time.Weekday(entry.Get("weekday").Int()),
			int(entry.Get("hour").Int()), int(entry.Get("minute").Int()))
		if err != nil {
			return nil, nil, fmt.Errorf("parsing bucket %d: %w", idx, err)
		}

		var action PolicyAction
		switch entry.Get("action").String() {
		case "block":
			action = Block
		case "reverse":
			action = Reverse
		case "allow":
			action = Allow
		default:
			return nil, nil, fmt.Errorf("unknown bucket action %q at bucket %d", entry.Get("action").String(), idx)
		}

		actions[bucket] = action
	}

	return thresholds, NewTimeBucketPolicy(actions), nil
}
