package performance

import (
	"time"

	"github.com/rustyeddy/vine/ledger"
)

// EquityCurve rebuilds an account's balance history from its closed trades:
// the initial capital at start, then one point per close.
func EquityCurve(initialCapital float64, start time.Time, closed []TradeStat) []ledger.EquityPoint {
	out := make([]ledger.EquityPoint, 0, len(closed)+1)
	out = append(out, ledger.EquityPoint{Time: start, Balance: initialCapital})
	balance := initialCapital
	for _, ts := range closed {
		balance += ts.PnL.NetPnL
		out = append(out, ledger.EquityPoint{Time: ts.PnL.ClosedAt, Balance: balance})
	}
	return out
}

// MaxDrawdown is the largest peak-to-trough decline of a time-ordered curve,
// as a percentage of the peak.
func MaxDrawdown(curve []ledger.EquityPoint) float64 {
	var peak, worst float64
	for i, p := range curve {
		if i == 0 || p.Balance > peak {
			peak = p.Balance
		}
		if peak > 0 {
			if dd := 100 * (peak - p.Balance) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}

// CurrentDrawdown measures the balance against max(balance, initial), the
// only peak known without a history.
func CurrentDrawdown(initialCapital, balance float64) float64 {
	peak := balance
	if initialCapital > peak {
		peak = initialCapital
	}
	if peak <= 0 {
		return 0
	}
	return 100 * (peak - balance) / peak
}
