package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/quarterhour/updown/backtest"
	"github.com/shopspring/decimal"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the tracked markets.
	Markets []string
	// StrategyConfigPath is the filepath to the strategy configuration.
	StrategyConfigPath string
	// Backtest is the backtesting flag.
	Backtest bool
	// BacktestMarket is the market being backtested.
	BacktestMarket string
	// BacktestDataFilepath is the filepath to the backtest data.
	BacktestDataFilepath string
	// Capital is the starting capital.
	Capital string
	// ContractPrice is the implied probability positions are entered at.
	ContractPrice string
	// Commission is the commission rate applied per position.
	Commission string
	// Slippage is the slippage rate applied per position.
	Slippage string
	// StakeMode selects fixed or percent staking.
	StakeMode string
	// StakeAmount is the constant stake for fixed staking.
	StakeAmount string
	// StakePercent is the equity fraction wagered for percent staking.
	StakePercent string
	// MaxEquityFraction caps any stake to this fraction of current equity.
	MaxEquityFraction string
	// DBEndpoint represents the database connection endpoint. Optional;
	// empty disables trade persistence.
	DBEndpoint string
	// DBUser is the database user.
	DBUser string
	// DBPass is the database user pass.
	DBPass string

	capital         decimal.Decimal
	contractPrice   decimal.Decimal
	costRate        decimal.Decimal
	stake           backtest.StakePolicy
	registeredFlags map[string]bool
}

// parseDecimal parses the provided decimal field, treating an empty string
// as zero.
func parseDecimal(name string, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s %q: %w", name, value, err)
	}

	return d, nil
}

// Validate asserts the config has sane inputs and resolves the decimal and
// stake policy fields.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.StrategyConfigPath == "" {
		errs = errors.Join(errs, fmt.Errorf("strategy config path cannot be an empty string"))
	}

	switch cfg.Backtest {
	case true:
		if cfg.BacktestMarket == "" {
			errs = errors.Join(errs, fmt.Errorf("backtest market cannot be an empty string"))
		}
		if cfg.BacktestDataFilepath == "" {
			errs = errors.Join(errs, fmt.Errorf("backtest data filepath cannot be an empty string"))
		}
	case false:
		if len(cfg.Markets) == 0 {
			errs = errors.Join(errs, fmt.Errorf("no markets provided"))
		}
	}

	var err error
	cfg.capital, err = parseDecimal("capital", cfg.Capital)
	if err != nil {
		errs = errors.Join(errs, err)
	}

	cfg.contractPrice, err = parseDecimal("contract price", cfg.ContractPrice)
	if err != nil {
		errs = errors.Join(errs, err)
	}

	commission, err := parseDecimal("commission", cfg.Commission)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	slippage, err := parseDecimal("slippage", cfg.Slippage)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	cfg.costRate = commission.Add(slippage)

	stakeAmount, err := parseDecimal("stake amount", cfg.StakeAmount)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	stakePercent, err := parseDecimal("stake percent", cfg.StakePercent)
	if err != nil {
		errs = errors.Join(errs, err)
	}
	maxFraction, err := parseDecimal("max equity fraction", cfg.MaxEquityFraction)
	if err != nil {
		errs = errors.Join(errs, err)
	}

	switch cfg.StakeMode {
	case "", "fixed":
		cfg.stake = backtest.StakePolicy{
			Mode:              backtest.FixedStake,
			Amount:            stakeAmount,
			MaxEquityFraction: maxFraction,
		}
	case "percent":
		cfg.stake = backtest.StakePolicy{
			Mode:              backtest.PercentStake,
			Percent:           stakePercent,
			MaxEquityFraction: maxFraction,
		}
	default:
		errs = errors.Join(errs, fmt.Errorf("unknown stake mode %q", cfg.StakeMode))
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"markets", &cfg.Markets, "the tracked markets"},
		{"strategyconfigpath", &cfg.StrategyConfigPath, "the strategy config filepath"},
		{"backtest", &cfg.Backtest, "the backtest flag"},
		{"backtestmarket", &cfg.BacktestMarket, "the market being backtested"},
		{"backtestdatafilepath", &cfg.BacktestDataFilepath, "the backtest data filepath"},
		{"capital", &cfg.Capital, "the starting capital"},
		{"contractprice", &cfg.ContractPrice, "the entry contract price"},
		{"commission", &cfg.Commission, "the commission rate"},
		{"slippage", &cfg.Slippage, "the slippage rate"},
		{"stakemode", &cfg.StakeMode, "the stake mode, fixed or percent"},
		{"stakeamount", &cfg.StakeAmount, "the fixed stake amount"},
		{"stakepercent", &cfg.StakePercent, "the percent stake equity fraction"},
		{"maxequityfraction", &cfg.MaxEquityFraction, "the stake cap as an equity fraction"},
		{"dbendpoint", &cfg.DBEndpoint, "the database endpoint"},
		{"dbuser", &cfg.DBUser, "the database user"},
		{"dbpass", &cfg.DBPass, "the database user pass"},
	}

	for idx := range flags {
		err = cfg.registerFlag(flags[idx].name, flags[idx].value, flags[idx].usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	// Apply defaults for unset money fields.
	if cfg.Capital == "" {
		cfg.Capital = "1000"
	}
	if cfg.ContractPrice == "" {
		cfg.ContractPrice = "0.525"
	}
	if cfg.StakeAmount == "" {
		cfg.StakeAmount = "100"
	}

	return cfg.Validate()
}
