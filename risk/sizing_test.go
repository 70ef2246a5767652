package risk

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/market"
)

func fptr(v float64) *float64 { return &v }

func rates(t *testing.T) *market.RateTable {
	t.Helper()
	rt, err := market.NewRateTable("USD", map[string]float64{
		"EUR_USD": 1.1,
		"USD_JPY": 150,
		"GBP_USD": 1.25,
	})
	require.NoError(t, err)
	return rt
}

func TestPositionSize_Generic(t *testing.T) {
	t.Parallel()

	got, err := PositionSize(PositionInput{
		AccountBalance: 10000,
		RiskPercentage: 1,
		EntryPrice:     100,
		StopLossPrice:  95,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 20.0, got.PositionSize, 1e-9)
	assert.InDelta(t, 5.0, got.PriceDifference, 1e-9)
	assert.Nil(t, got.RMultiple)
}

func TestPositionSize_TakeProfit(t *testing.T) {
	t.Parallel()

	got, err := PositionSize(PositionInput{
		AccountBalance:  10000,
		RiskPercentage:  2,
		EntryPrice:      100,
		StopLossPrice:   95,
		TakeProfitPrice: fptr(115),
	})
	require.NoError(t, err)
	require.NotNil(t, got.RMultiple)
	assert.InDelta(t, 3.0, *got.RMultiple, 1e-9)
	assert.InDelta(t, 40.0, got.PositionSize, 1e-9)
}

func TestPositionSize_ShortStopAboveEntry(t *testing.T) {
	t.Parallel()

	got, err := PositionSize(PositionInput{
		AccountBalance: 2000,
		RiskPercentage: 0.5,
		EntryPrice:     50,
		StopLossPrice:  52,
	})
	require.NoError(t, err)
	assert.InDelta(t, 10.0, got.RiskAmount, 1e-9)
	assert.InDelta(t, 5.0, got.PositionSize, 1e-9)
}

func TestEquityShares(t *testing.T) {
	t.Parallel()

	got, err := EquityShares(SharesInput{
		AccountBalance: 10000,
		RiskPercentage: 1,
		EntryPrice:     150,
		StopLossPrice:  145,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(20), got.Shares)
	assert.InDelta(t, 3000.0, got.TotalInvestment, 1e-9)
	assert.InDelta(t, 100.0, got.ActualRisk, 1e-9)
	assert.InDelta(t, 1.0, got.ActualRiskPercentage, 1e-9)
}

func TestEquityShares_FloorsNeverExceedBudget(t *testing.T) {
	t.Parallel()

	got, err := EquityShares(SharesInput{
		AccountBalance: 10000,
		RiskPercentage: 1,
		EntryPrice:     33,
		StopLossPrice:  30,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(33), got.Shares)
	assert.LessOrEqual(t, got.ActualRisk, got.RiskAmount)
	assert.InDelta(t, 99.0, got.ActualRisk, 1e-9)
}

func TestEquityShares_CountOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := EquityShares(SharesInput{
		AccountBalance: 1e30,
		RiskPercentage: 1,
		EntryPrice:     1.00001,
		StopLossPrice:  1,
	})
	require.ErrorIs(t, err, errs.ErrInvalidRisk)

	var ie *errs.InvalidRiskInputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "stop_loss_price", ie.Field)
}

func TestEquityShares_LargeBudgetStaysPositive(t *testing.T) {
	t.Parallel()

	got, err := EquityShares(SharesInput{
		AccountBalance: 1e12,
		RiskPercentage: 1,
		EntryPrice:     100,
		StopLossPrice:  99,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1e10), got.Shares)
	assert.Greater(t, got.ActualRisk, 0.0)
}

func TestCalculators_ZeroRiskPerUnit(t *testing.T) {
	t.Parallel()

	_, err := PositionSize(PositionInput{AccountBalance: 1000, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: 10})
	assert.ErrorIs(t, err, errs.ErrInvalidRisk)

	_, err = EquityShares(SharesInput{AccountBalance: 1000, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: 10})
	assert.ErrorIs(t, err, errs.ErrInvalidRisk)

	// A forex stop at the entry is zero pips.
	_, err = ForexLotSize(context.Background(), ForexInput{
		AccountBalance: 1000, RiskPercentage: 1, StopLossPips: 0, CurrencyPair: "EURUSD", AccountCurrency: "USD",
	}, nil)
	assert.ErrorIs(t, err, errs.ErrInvalidRisk)
}

func TestCalculators_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		in    PositionInput
		kind  error
		field string
	}{
		{"zero balance", PositionInput{AccountBalance: 0, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: 9}, errs.ErrInvalidRisk, "account_balance"},
		{"negative balance", PositionInput{AccountBalance: -5, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: 9}, errs.ErrInvalidRisk, "account_balance"},
		{"zero pct", PositionInput{AccountBalance: 100, RiskPercentage: 0, EntryPrice: 10, StopLossPrice: 9}, errs.ErrInvalidRisk, "risk_percentage"},
		{"pct over 100", PositionInput{AccountBalance: 100, RiskPercentage: 100.5, EntryPrice: 10, StopLossPrice: 9}, errs.ErrInvalidRisk, "risk_percentage"},
		{"zero entry", PositionInput{AccountBalance: 100, RiskPercentage: 1, EntryPrice: 0, StopLossPrice: 9}, errs.ErrValidation, "entry_price"},
		{"negative stop", PositionInput{AccountBalance: 100, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: -1}, errs.ErrValidation, "stop_loss_price"},
		{"zero take profit", PositionInput{AccountBalance: 100, RiskPercentage: 1, EntryPrice: 10, StopLossPrice: 9, TakeProfitPrice: fptr(0)}, errs.ErrValidation, "take_profit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := PositionSize(tt.in)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)

			var ve *errs.ValidationError
			var re *errs.InvalidRiskInputError
			switch {
			case errors.As(err, &ve):
				assert.Equal(t, tt.field, ve.Field)
			case errors.As(err, &re):
				assert.Equal(t, tt.field, re.Field)
			default:
				t.Fatalf("unexpected error type %T", err)
			}
		})
	}
}

func TestRiskAmount_FullBudget(t *testing.T) {
	t.Parallel()

	got, err := RiskAmount(500, 100)
	require.NoError(t, err)
	assert.InDelta(t, 500.0, got, 1e-9)
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 2.0, RR(1.2000, 1.1900, 1.2200), 1e-9)
	assert.Equal(t, 0.0, RR(1, 1, 2))
}

func TestForexLotSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         ForexInput
		pipValue   float64
		lots       float64
		lotType    LotType
		display    string
		riskPerPip float64
	}{
		{
			name:       "quote matches account",
			in:         ForexInput{AccountBalance: 10000, RiskPercentage: 1, StopLossPips: 20, CurrencyPair: "EUR/USD", AccountCurrency: "USD"},
			pipValue:   10,
			lots:       0.5,
			lotType:    Mini,
			display:    "0.50 lots",
			riskPerPip: 5,
		},
		{
			name:       "base matches account",
			in:         ForexInput{AccountBalance: 15000, RiskPercentage: 2, StopLossPips: 30, CurrencyPair: "usdjpy", AccountCurrency: "usd"},
			pipValue:   1000.0 / 150.0,
			lots:       10.0 / (1000.0 / 150.0),
			lotType:    Standard,
			display:    "1.50 lots",
			riskPerPip: 10,
		},
		{
			name:       "cross through pivot",
			in:         ForexInput{AccountBalance: 1000, RiskPercentage: 1, StopLossPips: 50, CurrencyPair: "EUR_GBP", AccountCurrency: "USD"},
			pipValue:   12.5,
			lots:       0.2 / 12.5,
			lotType:    Micro,
			display:    "0.02 lots",
			riskPerPip: 0.2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ForexLotSize(context.Background(), tt.in, rates(t))
			require.NoError(t, err)
			assert.InDelta(t, tt.pipValue, got.PipValue, 1e-9)
			assert.InDelta(t, tt.lots, got.LotSize, 1e-9)
			assert.Equal(t, tt.lotType, got.LotType)
			assert.Equal(t, tt.display, got.LotDisplay)
			assert.InDelta(t, tt.riskPerPip, got.RiskPerPip, 1e-9)
		})
	}
}

func TestForexLotSize_UnsupportedPair(t *testing.T) {
	t.Parallel()

	in := ForexInput{AccountBalance: 1000, RiskPercentage: 1, StopLossPips: 10, CurrencyPair: "NZD_CHF", AccountCurrency: "USD"}
	_, err := ForexLotSize(context.Background(), in, rates(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrUnsupportedPair)
	assert.ErrorIs(t, err, errs.ErrConversion)

	in.CurrencyPair = "EURO"
	_, err = ForexLotSize(context.Background(), in, rates(t))
	assert.ErrorIs(t, err, errs.ErrUnsupportedPair)
}

func TestForexLotSize_NoConverterOnlyForQuoteAccount(t *testing.T) {
	t.Parallel()

	in := ForexInput{AccountBalance: 10000, RiskPercentage: 1, StopLossPips: 10, CurrencyPair: "GBPUSD", AccountCurrency: "USD"}
	got, err := ForexLotSize(context.Background(), in, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got.LotSize, 1e-9)
	assert.Equal(t, "1.00 lots", got.LotDisplay)
	assert.InDelta(t, 100000.0, got.Units, 1)

	in.AccountCurrency = "EUR"
	_, err = ForexLotSize(context.Background(), in, nil)
	assert.ErrorIs(t, err, errs.ErrUnsupportedPair)
}
