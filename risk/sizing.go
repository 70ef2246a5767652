// Package risk sizes positions from an account balance and a risk budget,
// and advises on the risk percentage from recent performance.
package risk

import (
	"context"
	"fmt"
	"math"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/market"
)

type PositionInput struct {
	AccountBalance  float64  `json:"account_balance"`
	RiskPercentage  float64  `json:"risk_percentage"`
	EntryPrice      float64  `json:"entry_price"`
	StopLossPrice   float64  `json:"stop_loss_price"`
	TakeProfitPrice *float64 `json:"take_profit_price,omitempty"`
}

type PositionResult struct {
	RiskAmount      float64
	PositionSize    float64
	PriceDifference float64
	// RMultiple is reward over risk, nil without a take profit.
	RMultiple *float64
}

type ForexInput struct {
	AccountBalance  float64 `json:"account_balance"`
	RiskPercentage  float64 `json:"risk_percentage"`
	StopLossPips    float64 `json:"stop_loss_pips"`
	CurrencyPair    string  `json:"currency_pair"`
	AccountCurrency string  `json:"account_currency"`
}

type LotType string

const (
	Standard LotType = "Standard"
	Mini     LotType = "Mini"
	Micro    LotType = "Micro"
)

type ForexResult struct {
	Pair       market.Pair
	RiskAmount float64
	RiskPerPip float64
	// PipValue is the value of one pip on one standard lot, in the
	// account currency.
	PipValue   float64
	LotSize    float64
	LotType    LotType
	LotDisplay string
	Units      float64
}

type SharesInput struct {
	AccountBalance float64 `json:"account_balance"`
	RiskPercentage float64 `json:"risk_percentage"`
	EntryPrice     float64 `json:"entry_price"`
	StopLossPrice  float64 `json:"stop_loss_price"`
}

type SharesResult struct {
	RiskAmount           float64
	Shares               int64
	TotalInvestment      float64
	ActualRisk           float64
	ActualRiskPercentage float64
	PriceDifference      float64
}

// RiskAmount is balance x pct / 100 after checking both are usable.
func RiskAmount(balance, pct float64) (float64, error) {
	if !(balance > 0) || math.IsInf(balance, 0) {
		return 0, errs.InvalidRisk("account_balance", "must be positive, got %v", balance)
	}
	if !(pct > 0) || pct > 100 {
		return 0, errs.InvalidRisk("risk_percentage", "must be in (0, 100], got %v", pct)
	}
	return balance * pct / 100, nil
}

// RR is |take profit - entry| / |entry - stop|, 0 when the stop sits on
// the entry.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(takeProfit-entry) / risk
}

func priceDistance(entry, stop float64) (float64, error) {
	if !(entry > 0) {
		return 0, errs.Validation("entry_price", "must be positive, got %v", entry)
	}
	if !(stop > 0) {
		return 0, errs.Validation("stop_loss_price", "must be positive, got %v", stop)
	}
	d := math.Abs(entry - stop)
	if d == 0 {
		return 0, errs.InvalidRisk("stop_loss_price", "equals entry price, risk per unit is zero")
	}
	return d, nil
}

// PositionSize sizes a generic instrument: units = risk amount / price
// distance to the stop.
func PositionSize(in PositionInput) (PositionResult, error) {
	amount, err := RiskAmount(in.AccountBalance, in.RiskPercentage)
	if err != nil {
		return PositionResult{}, err
	}
	diff, err := priceDistance(in.EntryPrice, in.StopLossPrice)
	if err != nil {
		return PositionResult{}, err
	}

	res := PositionResult{
		RiskAmount:      amount,
		PositionSize:    amount / diff,
		PriceDifference: diff,
	}
	if in.TakeProfitPrice != nil {
		tp := *in.TakeProfitPrice
		if !(tp > 0) {
			return PositionResult{}, errs.Validation("take_profit_price", "must be positive, got %v", tp)
		}
		rr := RR(in.EntryPrice, in.StopLossPrice, tp)
		res.RMultiple = &rr
	}
	return res, nil
}

// ForexLotSize sizes a forex position in lots. The pip value is priced in
// the pair's quote currency and converted to the account currency through
// conv, crossing when neither leg matches.
func ForexLotSize(ctx context.Context, in ForexInput, conv market.Converter) (ForexResult, error) {
	amount, err := RiskAmount(in.AccountBalance, in.RiskPercentage)
	if err != nil {
		return ForexResult{}, err
	}
	if !(in.StopLossPips > 0) {
		return ForexResult{}, errs.InvalidRisk("stop_loss_pips", "must be positive, got %v", in.StopLossPips)
	}
	pair, err := market.ParsePair(in.CurrencyPair)
	if err != nil {
		return ForexResult{}, &errs.UnsupportedPairError{Pair: in.CurrencyPair, Err: err}
	}
	account := market.NormalizeCurrency(in.AccountCurrency)
	if account == "" {
		account = "USD"
	}
	if !market.IsCurrencyCode(account) {
		return ForexResult{}, errs.Validation("account_currency", "not a currency code: %q", in.AccountCurrency)
	}

	rate, err := market.QuoteToAccountRate(ctx, pair, account, conv)
	if err != nil {
		return ForexResult{}, &errs.UnsupportedPairError{Pair: pair.String(), Err: err}
	}

	pipValue := market.PipSize(market.PipLocation(pair)) * market.StandardLot * rate
	riskPerPip := amount / in.StopLossPips
	lots := riskPerPip / pipValue

	return ForexResult{
		Pair:       pair,
		RiskAmount: amount,
		RiskPerPip: riskPerPip,
		PipValue:   pipValue,
		LotSize:    lots,
		LotType:    lotType(lots),
		LotDisplay: fmt.Sprintf("%.2f lots", math.Round(lots*100)/100),
		Units:      math.Floor(lots * market.StandardLot),
	}, nil
}

func lotType(lots float64) LotType {
	switch {
	case lots >= 1:
		return Standard
	case lots >= 0.1:
		return Mini
	default:
		return Micro
	}
}

// EquityShares sizes a stock position in whole shares. Shares are floored
// so the actual risk never exceeds the budget.
func EquityShares(in SharesInput) (SharesResult, error) {
	amount, err := RiskAmount(in.AccountBalance, in.RiskPercentage)
	if err != nil {
		return SharesResult{}, err
	}
	diff, err := priceDistance(in.EntryPrice, in.StopLossPrice)
	if err != nil {
		return SharesResult{}, err
	}

	q := math.Floor(amount / diff)
	if math.IsNaN(q) || q >= math.MaxInt64 {
		return SharesResult{}, errs.InvalidRisk("stop_loss_price", "stop distance %v is too small for a share count", diff)
	}
	shares := int64(q)
	actual := float64(shares) * diff
	return SharesResult{
		RiskAmount:           amount,
		Shares:               shares,
		TotalInvestment:      float64(shares) * in.EntryPrice,
		ActualRisk:           actual,
		ActualRiskPercentage: 100 * actual / in.AccountBalance,
		PriceDifference:      diff,
	}, nil
}
