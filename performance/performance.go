// Package performance folds an account's trades into win rate, profit
// factor, expectancy, streaks, extremes and per-instrument, per-risk-type
// and per-month groupings.
//
// Conventions for otherwise undefined values:
//   - WinRate is 0 when there are no closed trades.
//   - ProfitFactor is +Inf when there is gross profit but no gross loss, and 0
//     when both are 0.
//   - AvgRMultiple averages only trades with a stop loss, 0 when none have one.
//   - AvgWin and AvgLoss are 0 when there are no winners or losers.
package performance

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/pnl"
)

// Unassigned labels trades with neither a risk-type tag nor an account model.
const Unassigned = "Unassigned"

type Options struct {
	// TradingModel is the risk type of trades that carry no tag of their own.
	TradingModel ledger.TradingModel
	// Workers > 1 values trades concurrently before the ordered scan.
	Workers int
}

// TradeStat pairs a trade with its computed P&L.
type TradeStat struct {
	Trade ledger.Trade
	PnL   pnl.Result
}

type Group struct {
	Key          string
	Trades       int
	Wins         int
	Losses       int
	PnL          float64
	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
}

type Snapshot struct {
	TotalTrades     int
	OpenTrades      int
	ClosedTrades    int
	CancelledTrades int

	Winners   int
	Losers    int
	Breakeven int

	WinRate      float64
	GrossProfit  float64
	GrossLoss    float64
	ProfitFactor float64
	AvgWin       float64
	AvgLoss      float64
	AvgRMultiple float64
	Expectancy   float64

	TotalPnL      float64
	TotalGrossPnL float64
	TotalCosts    float64

	MaxConsecutiveWins   int
	MaxConsecutiveLosses int

	Best  *TradeStat
	Worst *TradeStat

	ByInstrument []Group
	ByRiskType   []Group
	ByMonth      []Group

	// Closed holds the closed trades in close-date order, ties by id.
	Closed []TradeStat
}

// WinRate returns 100*wins/n, 0 when n is 0.
func WinRate(wins, n int) float64 {
	if n == 0 {
		return 0
	}
	return 100 * float64(wins) / float64(n)
}

// ProfitFactor returns grossProfit/grossLoss with the zero-loss conventions
// documented on the package.
func ProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return grossProfit / grossLoss
}

// Aggregate values every trade and folds the closed ones. Trades may arrive
// in any order.
func Aggregate(trades []ledger.Trade, opts Options) (Snapshot, error) {
	results, err := valueAll(trades, opts.Workers)
	if err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{TotalTrades: len(trades)}
	for i, t := range trades {
		switch t.Status {
		case ledger.StatusOpen:
			s.OpenTrades++
		case ledger.StatusCancelled:
			s.CancelledTrades++
		case ledger.StatusClosed:
			s.Closed = append(s.Closed, TradeStat{Trade: t, PnL: results[i]})
		}
	}
	s.ClosedTrades = len(s.Closed)
	SortChronological(s.Closed)

	var rMultiples, nets []float64
	for _, ts := range s.Closed {
		net := ts.PnL.NetPnL
		nets = append(nets, net)
		s.TotalPnL += net
		s.TotalGrossPnL += ts.PnL.GrossPnL
		s.TotalCosts += ts.PnL.TotalCosts
		switch {
		case net > 0:
			s.Winners++
			s.GrossProfit += net
		case net < 0:
			s.Losers++
			s.GrossLoss += -net
		default:
			s.Breakeven++
		}
		if ts.PnL.RMultiple != nil {
			rMultiples = append(rMultiples, *ts.PnL.RMultiple)
		}
	}

	s.WinRate = WinRate(s.Winners, s.ClosedTrades)
	s.ProfitFactor = ProfitFactor(s.GrossProfit, s.GrossLoss)
	if s.Winners > 0 {
		s.AvgWin = s.GrossProfit / float64(s.Winners)
	}
	if s.Losers > 0 {
		s.AvgLoss = -s.GrossLoss / float64(s.Losers)
	}
	if len(rMultiples) > 0 {
		s.AvgRMultiple = stat.Mean(rMultiples, nil)
	}

	if s.ClosedTrades > 0 {
		s.Expectancy = expectancy(s)
		mean := stat.Mean(nets, nil)
		tol := 1e-6 * math.Max(1, math.Max(math.Abs(mean), math.Max(s.AvgWin, -s.AvgLoss)))
		if math.Abs(s.Expectancy-mean) > tol {
			return Snapshot{}, &errs.ComputationUndefinedError{
				Quantity: "expectancy",
				Reason:   fmt.Sprintf("weighted %.10f disagrees with mean %.10f", s.Expectancy, mean),
			}
		}
	}

	s.MaxConsecutiveWins, s.MaxConsecutiveLosses = Streaks(s.Closed)
	s.Best, s.Worst = extremes(s.Closed)

	s.ByInstrument = groupBy(s.Closed, func(ts TradeStat) string { return ts.Trade.Instrument })
	s.ByRiskType = groupBy(s.Closed, func(ts TradeStat) string { return RiskType(ts.Trade, opts.TradingModel) })
	s.ByMonth = groupBy(s.Closed, func(ts TradeStat) string { return ts.PnL.ClosedAt.UTC().Format("2006-01") })

	return s, nil
}

// expectancy blends win rate with average win and loss. The loss leg is the
// share of non-winning trades times their mean loss, breakevens counting as
// zero, which keeps the result equal to the mean net P&L. Without breakevens
// this is exactly wr*AvgWin + (1-wr)*AvgLoss.
func expectancy(s Snapshot) float64 {
	wr := s.WinRate / 100
	var lossLeg float64
	if nonWinners := s.ClosedTrades - s.Winners; nonWinners > 0 {
		lossLeg = -s.GrossLoss / float64(nonWinners)
	}
	return wr*s.AvgWin + (1-wr)*lossLeg
}

// RiskType is the trade's own tag when set, else the account model.
func RiskType(t ledger.Trade, model ledger.TradingModel) string {
	if t.RiskType != "" {
		return t.RiskType
	}
	if model != "" {
		return string(model)
	}
	return Unassigned
}

// SortChronological orders trades by close date, then id.
func SortChronological(ts []TradeStat) {
	sort.SliceStable(ts, func(i, j int) bool {
		ci, cj := ts[i].PnL.ClosedAt, ts[j].PnL.ClosedAt
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return ts[i].Trade.ID < ts[j].Trade.ID
	})
}

// Streaks scans chronologically ordered trades. A breakeven trade ends both
// a winning and a losing run.
func Streaks(ordered []TradeStat) (maxWins, maxLosses int) {
	var wins, losses int
	for _, ts := range ordered {
		switch net := ts.PnL.NetPnL; {
		case net > 0:
			wins++
			losses = 0
		case net < 0:
			losses++
			wins = 0
		default:
			wins, losses = 0, 0
		}
		if wins > maxWins {
			maxWins = wins
		}
		if losses > maxLosses {
			maxLosses = losses
		}
	}
	return maxWins, maxLosses
}

// extremes keeps the first trade seen on ties, which in chronological order
// is the earliest close.
func extremes(ordered []TradeStat) (best, worst *TradeStat) {
	for i := range ordered {
		ts := &ordered[i]
		if best == nil || ts.PnL.NetPnL > best.PnL.NetPnL {
			best = ts
		}
		if worst == nil || ts.PnL.NetPnL < worst.PnL.NetPnL {
			worst = ts
		}
	}
	if best != nil {
		b, w := *best, *worst
		return &b, &w
	}
	return nil, nil
}

// groupBy partitions trades by key, groups ordered by key.
func groupBy(ordered []TradeStat, key func(TradeStat) string) []Group {
	index := map[string]int{}
	var out []Group
	for _, ts := range ordered {
		k := key(ts)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Group{Key: k})
		}
		g := &out[i]
		g.Trades++
		net := ts.PnL.NetPnL
		g.PnL += net
		if net > 0 {
			g.Wins++
			g.GrossProfit += net
		} else if net < 0 {
			g.Losses++
			g.GrossLoss += -net
		}
	}
	for i := range out {
		out[i].WinRate = WinRate(out[i].Wins, out[i].Trades)
		out[i].ProfitFactor = ProfitFactor(out[i].GrossProfit, out[i].GrossLoss)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func valueAll(trades []ledger.Trade, workers int) ([]pnl.Result, error) {
	results := make([]pnl.Result, len(trades))
	if workers <= 1 {
		for i, t := range trades {
			r, err := pnl.Calculate(t, pnl.Options{})
			if err != nil {
				return nil, err
			}
			results[i] = r
		}
		return results, nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range trades {
		i := i
		g.Go(func() error {
			r, err := pnl.Calculate(trades[i], pnl.Options{})
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
