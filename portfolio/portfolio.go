// Package portfolio combines per-account performance into portfolio totals
// in a single primary currency, and ranks accounts by return.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/market"
	"github.com/rustyeddy/vine/performance"
)

const (
	DefaultCurrency = "USD"
	DefaultTopN     = 3

	DrawdownAccounts = "accounts"
	DrawdownCurve    = "curve"
)

type Input struct {
	Account        ledger.Account
	Performance    performance.Snapshot
	CurrentBalance float64
}

type Options struct {
	// PrimaryCurrency overrides the largest-account default.
	PrimaryCurrency string
	// History, when set and non-empty for some account, switches max
	// drawdown to the merged portfolio curve.
	History ledger.HistorySource
	// TopN caps the performer lists; 0 means DefaultTopN.
	TopN int
}

type AccountRow struct {
	Account       ledger.Account
	Balance       float64
	PnL           float64
	PnLPercentage float64
	OpenTrades    int
	ClosedTrades  int

	// Converted figures are in the portfolio's primary currency.
	ConvertedBalance        float64
	ConvertedInitialCapital float64
}

type Snapshot struct {
	PrimaryCurrency     string
	TotalBalance        float64
	TotalInitialCapital float64
	TotalPnL            float64
	TotalPnLPercentage  float64
	TotalAccounts       int
	TotalOpenTrades     int
	TotalClosedTrades   int
	MaxDrawdown         float64
	DrawdownSource      string

	Accounts         []AccountRow
	TopPerformers    []AccountRow
	BottomPerformers []AccountRow
}

// PrimaryCurrency is the base currency of the account with the largest
// initial capital, ties going to the smallest account id.
func PrimaryCurrency(inputs []Input) string {
	var best *ledger.Account
	for i := range inputs {
		a := &inputs[i].Account
		if best == nil || a.InitialCapital > best.InitialCapital ||
			(a.InitialCapital == best.InitialCapital && a.ID < best.ID) {
			best = a
		}
	}
	if best == nil {
		return DefaultCurrency
	}
	return market.NormalizeCurrency(best.BaseCurrency)
}

// Aggregate converts every account concurrently and folds once all
// conversions have succeeded. A single failed conversion fails the call.
func Aggregate(ctx context.Context, inputs []Input, conv market.Converter, opts Options) (Snapshot, error) {
	primary := market.NormalizeCurrency(opts.PrimaryCurrency)
	if primary == "" {
		primary = PrimaryCurrency(inputs)
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	s := Snapshot{PrimaryCurrency: primary, DrawdownSource: DrawdownAccounts}
	if len(inputs) == 0 {
		return s, nil
	}
	if conv == nil {
		conv = market.ConverterFunc(sameCurrencyOnly)
	}

	rows := make([]AccountRow, len(inputs))
	curves := make([][]ledger.EquityPoint, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i := range inputs {
		g.Go(func() error {
			in := inputs[i]
			from := market.NormalizeCurrency(in.Account.BaseCurrency)

			row := AccountRow{
				Account:      in.Account,
				Balance:      in.CurrentBalance,
				PnL:          in.CurrentBalance - in.Account.InitialCapital,
				OpenTrades:   in.Performance.OpenTrades,
				ClosedTrades: in.Performance.ClosedTrades,
			}
			if in.Account.InitialCapital != 0 {
				row.PnLPercentage = 100 * row.PnL / in.Account.InitialCapital
			}

			var err error
			if row.ConvertedBalance, err = convert(gctx, conv, in.CurrentBalance, from, primary); err != nil {
				return fmt.Errorf("account %s balance: %w", in.Account.ID, err)
			}
			if row.ConvertedInitialCapital, err = convert(gctx, conv, in.Account.InitialCapital, from, primary); err != nil {
				return fmt.Errorf("account %s initial capital: %w", in.Account.ID, err)
			}
			rows[i] = row

			if opts.History == nil {
				return nil
			}
			pts, err := opts.History.EquityHistory(gctx, in.Account.ID)
			if err != nil {
				return fmt.Errorf("account %s history: %w", in.Account.ID, err)
			}
			converted := make([]ledger.EquityPoint, len(pts))
			for j, p := range pts {
				b, err := convert(gctx, conv, p.Balance, from, primary)
				if err != nil {
					return fmt.Errorf("account %s history: %w", in.Account.ID, err)
				}
				converted[j] = ledger.EquityPoint{Time: p.Time, Balance: b}
			}
			curves[i] = converted
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	s.Accounts = rows
	s.TotalAccounts = len(rows)
	for _, r := range rows {
		s.TotalBalance += r.ConvertedBalance
		s.TotalInitialCapital += r.ConvertedInitialCapital
		s.TotalOpenTrades += r.OpenTrades
		s.TotalClosedTrades += r.ClosedTrades
	}
	s.TotalPnL = s.TotalBalance - s.TotalInitialCapital
	if s.TotalInitialCapital != 0 {
		s.TotalPnLPercentage = 100 * s.TotalPnL / s.TotalInitialCapital
	}

	if merged := mergeCurves(rows, curves); merged != nil {
		s.MaxDrawdown = performance.MaxDrawdown(merged)
		s.DrawdownSource = DrawdownCurve
	} else {
		for _, r := range rows {
			if dd := r.Account.MaxDrawdown; dd != nil && *dd > s.MaxDrawdown {
				s.MaxDrawdown = *dd
			}
		}
	}

	s.TopPerformers, s.BottomPerformers = Rank(rows, topN)
	return s, nil
}

// Rank orders accounts with at least one closed trade by PnLPercentage,
// descending for top and ascending for bottom, ties by account id.
func Rank(rows []AccountRow, n int) (top, bottom []AccountRow) {
	var ranked []AccountRow
	for _, r := range rows {
		if r.ClosedTrades > 0 {
			ranked = append(ranked, r)
		}
	}
	if len(ranked) == 0 {
		return []AccountRow{}, []AccountRow{}
	}

	top = append([]AccountRow(nil), ranked...)
	sort.SliceStable(top, func(i, j int) bool {
		if top[i].PnLPercentage != top[j].PnLPercentage {
			return top[i].PnLPercentage > top[j].PnLPercentage
		}
		return top[i].Account.ID < top[j].Account.ID
	})
	bottom = append([]AccountRow(nil), ranked...)
	sort.SliceStable(bottom, func(i, j int) bool {
		if bottom[i].PnLPercentage != bottom[j].PnLPercentage {
			return bottom[i].PnLPercentage < bottom[j].PnLPercentage
		}
		return bottom[i].Account.ID < bottom[j].Account.ID
	})
	if len(top) > n {
		top = top[:n]
		bottom = bottom[:n]
	}
	return top, bottom
}

// mergeCurves walks every account's points in time order, holding each
// account at its last known balance (its initial capital before its first
// point). It returns nil when no account has history.
func mergeCurves(rows []AccountRow, curves [][]ledger.EquityPoint) []ledger.EquityPoint {
	type event struct {
		account int
		point   ledger.EquityPoint
	}
	var events []event
	for i, c := range curves {
		for _, p := range c {
			events = append(events, event{account: i, point: p})
		}
	}
	if len(events) == 0 {
		return nil
	}
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := events[i].point.Time, events[j].point.Time
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return rows[events[i].account].Account.ID < rows[events[j].account].Account.ID
	})

	current := make([]float64, len(rows))
	var total float64
	for i, r := range rows {
		current[i] = r.ConvertedInitialCapital
		total += current[i]
	}

	merged := []ledger.EquityPoint{{Time: events[0].point.Time, Balance: total}}
	for i, e := range events {
		total += e.point.Balance - current[e.account]
		current[e.account] = e.point.Balance
		// Collapse simultaneous events into one observation.
		if i+1 < len(events) && events[i+1].point.Time.Equal(e.point.Time) {
			continue
		}
		merged = append(merged, ledger.EquityPoint{Time: e.point.Time, Balance: total})
	}
	return merged
}

func convert(ctx context.Context, conv market.Converter, amount float64, from, to string) (float64, error) {
	if from == to {
		return amount, nil
	}
	v, err := conv.Convert(ctx, amount, from, to)
	if err != nil {
		var ce *errs.ConversionError
		if errors.As(err, &ce) {
			return 0, err
		}
		return 0, &errs.ConversionError{From: from, To: to, Err: err}
	}
	return v, nil
}

func sameCurrencyOnly(ctx context.Context, amount float64, from, to string) (float64, error) {
	return 0, &errs.ConversionError{From: from, To: to}
}
