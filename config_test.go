package main

import (
	"flag"
	"os"
	"strings"
	"testing"

	"github.com/quarterhour/updown/backtest"
	"github.com/shopspring/decimal"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr []string
	}{
		{
			name: "valid config, not backtest",
			cfg: Config{
				Markets:            []string{"ETH-USDT", "BTC-USDT"},
				StrategyConfigPath: "strategy.json",
				Capital:            "1000",
				ContractPrice:      "0.525",
				StakeAmount:        "100",
			},
			wantErr: nil,
		},
		{
			name: "missing markets, not backtest",
			cfg: Config{
				Markets:            []string{},
				StrategyConfigPath: "strategy.json",
			},
			wantErr: []string{"no markets provided"},
		},
		{
			name: "missing strategy config path",
			cfg: Config{
				Markets: []string{"ETH-USDT"},
			},
			wantErr: []string{"strategy config path cannot be an empty string"},
		},
		{
			name: "backtest true, valid inputs",
			cfg: Config{
				Backtest:             true,
				BacktestMarket:       "ETH-USDT",
				BacktestDataFilepath: "/tmp/data.json",
				StrategyConfigPath:   "strategy.json",
			},
			wantErr: nil,
		},
		{
			name: "backtest true, missing market and filepath",
			cfg: Config{
				Backtest:           true,
				StrategyConfigPath: "strategy.json",
			},
			wantErr: []string{
				"backtest market cannot be an empty string",
				"backtest data filepath cannot be an empty string",
			},
		},
		{
			name: "unparseable capital",
			cfg: Config{
				Markets:            []string{"ETH-USDT"},
				StrategyConfigPath: "strategy.json",
				Capital:            "lots",
			},
			wantErr: []string{"parsing capital"},
		},
		{
			name: "unknown stake mode",
			cfg: Config{
				Markets:            []string{"ETH-USDT"},
				StrategyConfigPath: "strategy.json",
				StakeMode:          "martingale",
			},
			wantErr: []string{"unknown stake mode"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("expected no error, got: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("expected error(s) %v, got none", tt.wantErr)
					return
				}
				for _, want := range tt.wantErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			}
		})
	}
}

func TestConfigStakePolicy(t *testing.T) {
	cfg := Config{
		Markets:            []string{"ETH-USDT"},
		StrategyConfigPath: "strategy.json",
		StakeMode:          "percent",
		StakePercent:       "0.02",
		MaxEquityFraction:  "0.1",
		Commission:         "0.0005",
		Slippage:           "0.0002",
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.stake.Mode != backtest.PercentStake {
		t.Errorf("expected percent stake mode, got %v", cfg.stake.Mode)
	}
	if !cfg.stake.Percent.Equal(decimal.NewFromFloat(0.02)) {
		t.Errorf("expected stake percent 0.02, got %s", cfg.stake.Percent.String())
	}

	// Cost rate is the sum of commission and slippage.
	if !cfg.costRate.Equal(decimal.NewFromFloat(0.0007)) {
		t.Errorf("expected cost rate 0.0007, got %s", cfg.costRate.String())
	}
}

func TestLoadConfig(t *testing.T) {
	// Save and restore original os.Args and environment
	origArgs := os.Args
	origEnv := os.Environ()
	defer func() {
		os.Args = origArgs
		for _, kv := range origEnv {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) == 2 {
				os.Setenv(parts[0], parts[1])
			}
		}
	}()

	tests := []struct {
		name        string
		env         map[string]string
		args        []string
		expectErr   bool
		expectInErr []string
		expectCfg   Config
	}{
		{
			name: "all from env, not backtest",
			env: map[string]string{
				"markets":            "ETH-USDT,BTC-USDT",
				"strategyconfigpath": "strategy.json",
				"backtest":           "false",
			},
			args:      []string{"cmd"},
			expectErr: false,
			expectCfg: Config{
				Markets:            []string{"ETH-USDT", "BTC-USDT"},
				StrategyConfigPath: "strategy.json",
				Backtest:           false,
			},
		},
		{
			name:      "all from flags, not backtest",
			env:       map[string]string{},
			args:      []string{"cmd", "-markets=ETH-USDT,BTC-USDT", "-strategyconfigpath=strategy.json", "-backtest=false"},
			expectErr: false,
			expectCfg: Config{
				Markets:            []string{"ETH-USDT", "BTC-USDT"},
				StrategyConfigPath: "strategy.json",
				Backtest:           false,
			},
		},
		{
			name:        "missing markets and strategy config",
			env:         map[string]string{},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"no markets provided", "strategy config path cannot be an empty string"},
		},
		{
			name: "backtest true, missing market and filepath",
			env: map[string]string{
				"backtest":           "true",
				"strategyconfigpath": "strategy.json",
			},
			args:        []string{"cmd"},
			expectErr:   true,
			expectInErr: []string{"backtest market cannot be an empty string", "backtest data filepath cannot be an empty string"},
		},
		{
			name: "backtest true, inputs from flags",
			env: map[string]string{
				"backtest": "true",
			},
			args: []string{"cmd", "-backtestmarket=ETH-USDT",
				"-backtestdatafilepath=/tmp/data.json", "-strategyconfigpath=strategy.json"},
			expectErr: false,
			expectCfg: Config{
				Backtest:             true,
				BacktestMarket:       "ETH-USDT",
				BacktestDataFilepath: "/tmp/data.json",
				StrategyConfigPath:   "strategy.json",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Reset flags for each test
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			// Set environment variables
			for k, v := range tt.env {
				os.Setenv(k, v)
			}

			// Set command-line arguments
			os.Args = tt.args

			var cfg Config
			err := loadConfig(&cfg, "") // don't load .env file

			if tt.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				for _, want := range tt.expectInErr {
					if !strings.Contains(err.Error(), want) {
						t.Errorf("expected error to contain %q, got %v", want, err)
					}
				}
			} else {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				// Only check fields that are set in expectCfg
				if len(tt.expectCfg.Markets) != len(cfg.Markets) {
					t.Errorf("Markets: got %v, want %v", cfg.Markets, tt.expectCfg.Markets)
				}
				if tt.expectCfg.StrategyConfigPath != "" && cfg.StrategyConfigPath != tt.expectCfg.StrategyConfigPath {
					t.Errorf("StrategyConfigPath: got %v, want %v", cfg.StrategyConfigPath, tt.expectCfg.StrategyConfigPath)
				}
				if cfg.Backtest != tt.expectCfg.Backtest {
					t.Errorf("Backtest: got %v, want %v", cfg.Backtest, tt.expectCfg.Backtest)
				}
				if tt.expectCfg.BacktestDataFilepath != "" && cfg.BacktestDataFilepath != tt.expectCfg.BacktestDataFilepath {
					t.Errorf("BacktestDataFilepath: got %v, want %v", cfg.BacktestDataFilepath, tt.expectCfg.BacktestDataFilepath)
				}

				// Money defaults are applied when unset.
				if cfg.Capital != "1000" {
					t.Errorf("Capital: got %v, want default 1000", cfg.Capital)
				}
				if cfg.ContractPrice != "0.525" {
					t.Errorf("ContractPrice: got %v, want default 0.525", cfg.ContractPrice)
				}
			}

			// Clean up env
			for k := range tt.env {
				os.Unsetenv(k)
			}
		})
	}
}
