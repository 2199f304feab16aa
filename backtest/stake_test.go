package backtest

import (
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/shopspring/decimal"
)

func TestStakePolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  StakePolicy
		wantErr bool
	}{
		{
			name:    "valid fixed stake",
			policy:  StakePolicy{Mode: FixedStake, Amount: decimal.NewFromInt(100)},
			wantErr: false,
		},
		{
			name:    "valid percent stake",
			policy:  StakePolicy{Mode: PercentStake, Percent: decimal.NewFromFloat(0.02)},
			wantErr: false,
		},
		{
			name:    "fixed stake with no amount",
			policy:  StakePolicy{Mode: FixedStake},
			wantErr: true,
		},
		{
			name:    "percent stake above one",
			policy:  StakePolicy{Mode: PercentStake, Percent: decimal.NewFromFloat(1.5)},
			wantErr: true,
		},
		{
			name:    "unknown mode",
			policy:  StakePolicy{Mode: StakeMode(99), Amount: decimal.NewFromInt(100)},
			wantErr: true,
		},
		{
			name: "max equity fraction above one",
			policy: StakePolicy{Mode: FixedStake, Amount: decimal.NewFromInt(100),
				MaxEquityFraction: decimal.NewFromInt(2)},
			wantErr: true,
		},
	}

	for _, test := range tests {
		err := test.policy.Validate()
		if (err != nil) != test.wantErr {
			t.Errorf("%s: unexpected validation result, err %v", test.name, err)
		}
	}
}

func TestStakeFor(t *testing.T) {
	equity := decimal.NewFromInt(1000)

	// Fixed staking wagers the constant amount.
	fixed := StakePolicy{Mode: FixedStake, Amount: decimal.NewFromInt(100)}
	assert.True(t, fixed.StakeFor(equity).Equal(decimal.NewFromInt(100)))

	// Percent staking wagers a fraction of current equity.
	percent := StakePolicy{Mode: PercentStake, Percent: decimal.NewFromFloat(0.02)}
	assert.True(t, percent.StakeFor(equity).Equal(decimal.NewFromInt(20)))

	// Percent staking yields nothing once equity is exhausted.
	assert.True(t, percent.StakeFor(decimal.Zero).IsZero())
	assert.True(t, percent.StakeFor(decimal.NewFromInt(-50)).IsZero())

	// The cap bounds a fixed stake to a fraction of current equity.
	capped := StakePolicy{Mode: FixedStake, Amount: decimal.NewFromInt(500),
		MaxEquityFraction: decimal.NewFromFloat(0.1)}
	assert.True(t, capped.StakeFor(equity).Equal(decimal.NewFromInt(100)))
}
