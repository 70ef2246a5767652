// Package pnl computes realized and unrealized profit and loss, risk and
// R-multiple for a single trade.
package pnl

import (
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/ledger"
)

type Options struct {
	// MarketPrice, when set, values the open quantity for UnrealizedPnL.
	MarketPrice *float64
}

type Result struct {
	TradeID string

	GrossPnL   float64
	NetPnL     float64
	TotalCosts float64

	// RiskAmount is nil when the trade has no stop loss.
	RiskAmount *float64
	// RMultiple is nil unless RiskAmount is positive.
	RMultiple     *float64
	UnrealizedPnL *float64

	AvgEntryPrice   float64
	AvgExitPrice    float64
	EnteredQuantity float64
	ExitedQuantity  float64
	OpenQuantity    float64
	ClosedAt        time.Time
}

// Direction is +1 for Long and -1 for Short.
func Direction(t ledger.TradeType) float64 {
	if t == ledger.Short {
		return -1
	}
	return 1
}

// WeightedAverage returns sum(price*qty)/sum(qty), 0 for no fills.
func WeightedAverage(fills []ledger.Fill) float64 {
	var value, qty float64
	for _, f := range fills {
		value += f.Price * f.Quantity
		qty += f.Quantity
	}
	if qty == 0 {
		return 0
	}
	return value / qty
}

// TotalCosts sums trade costs and every fill commission. A ledger that
// records commissions on fills should not also add a "Commission" cost row,
// or the commission is charged twice.
func TotalCosts(t ledger.Trade) float64 {
	var c float64
	for _, cost := range t.Costs {
		c += cost.Amount
	}
	for _, f := range t.Entries {
		c += f.Commission
	}
	for _, f := range t.Exits {
		c += f.Commission
	}
	return c
}

// Calculate values one trade. Realized P&L is measured per exit against the
// weighted-average entry price; costs are charged once anything has been
// realized, so a trade with no exits always nets 0.
func Calculate(t ledger.Trade, opts Options) (Result, error) {
	if err := t.Validate(); err != nil {
		return Result{}, fmt.Errorf("trade %s: %w", t.ID, err)
	}
	if opts.MarketPrice != nil && *opts.MarketPrice <= 0 {
		return Result{}, errs.Validation("market_price", "must be > 0, got %v", *opts.MarketPrice)
	}

	r := Result{
		TradeID:         t.ID,
		AvgEntryPrice:   WeightedAverage(t.Entries),
		AvgExitPrice:    WeightedAverage(t.Exits),
		EnteredQuantity: t.EnteredQuantity(),
		ExitedQuantity:  t.ExitedQuantity(),
		ClosedAt:        t.ClosedAt(),
	}
	r.OpenQuantity = math.Max(0, r.EnteredQuantity-r.ExitedQuantity)
	dir := Direction(t.Type)

	if len(t.Exits) > 0 {
		for _, x := range t.Exits {
			r.GrossPnL += dir * (x.Price - r.AvgEntryPrice) * x.Quantity
		}
		r.TotalCosts = TotalCosts(t)
		r.NetPnL = r.GrossPnL - r.TotalCosts
	}

	if t.StopLoss != nil && len(t.Entries) > 0 {
		risk := math.Abs(r.AvgEntryPrice-*t.StopLoss) * r.EnteredQuantity
		r.RiskAmount = &risk
		if risk > 0 {
			rm := r.NetPnL / risk
			r.RMultiple = &rm
		}
	}

	if opts.MarketPrice != nil && r.OpenQuantity > 0 {
		u := dir * (*opts.MarketPrice - r.AvgEntryPrice) * r.OpenQuantity
		r.UnrealizedPnL = &u
	}

	return r, nil
}

// CalculateAll values trades in order, stopping at the first invalid one.
func CalculateAll(trades []ledger.Trade) ([]Result, error) {
	out := make([]Result, len(trades))
	for i, t := range trades {
		r, err := Calculate(t, Options{})
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}
