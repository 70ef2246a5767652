package market

import (
	"context"
	"fmt"
	"sort"

	"github.com/rustyeddy/vine/errs"
)

// Converter converts an amount between two currencies. Implementations are
// injected into the portfolio aggregator and the forex calculator; the core
// never sources rates itself.
type Converter interface {
	Convert(ctx context.Context, amount float64, from, to string) (float64, error)
}

// ConverterFunc adapts a plain function to Converter.
type ConverterFunc func(ctx context.Context, amount float64, from, to string) (float64, error)

func (f ConverterFunc) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	return f(ctx, amount, from, to)
}

// RateTable is a static Converter keyed by pair. A rate is the number of
// quote units per base unit. Lookups try the direct pair, its inverse, and
// then a cross through a pivot currency.
type RateTable struct {
	Pivot string
	rates map[Pair]float64
}

// NewRateTable builds a table from "EUR_USD" style keys.
func NewRateTable(pivot string, rates map[string]float64) (*RateTable, error) {
	t := &RateTable{Pivot: NormalizeCurrency(pivot), rates: make(map[Pair]float64, len(rates))}
	for k, v := range rates {
		p, err := ParsePair(k)
		if err != nil {
			return nil, err
		}
		if err := t.Set(p, v); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Set stores the rate for p.
func (t *RateTable) Set(p Pair, rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("rate %s: must be positive, got %v", p, rate)
	}
	if t.rates == nil {
		t.rates = map[Pair]float64{}
	}
	t.rates[p] = rate
	return nil
}

// Rate returns quote units per base unit for from -> to.
func (t *RateTable) Rate(from, to string) (float64, bool) {
	from, to = NormalizeCurrency(from), NormalizeCurrency(to)
	if from == to {
		return 1, true
	}
	if r, ok := t.direct(from, to); ok {
		return r, true
	}
	for _, pivot := range t.pivots(from, to) {
		a, ok := t.direct(from, pivot)
		if !ok {
			continue
		}
		b, ok := t.direct(pivot, to)
		if !ok {
			continue
		}
		return a * b, true
	}
	return 0, false
}

func (t *RateTable) Convert(ctx context.Context, amount float64, from, to string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, &errs.ConversionError{From: from, To: to, Err: err}
	}
	r, ok := t.Rate(from, to)
	if !ok {
		return 0, &errs.ConversionError{From: NormalizeCurrency(from), To: NormalizeCurrency(to)}
	}
	return amount * r, nil
}

func (t *RateTable) direct(from, to string) (float64, bool) {
	if r, ok := t.rates[Pair{Base: from, Quote: to}]; ok {
		return r, true
	}
	if r, ok := t.rates[Pair{Base: to, Quote: from}]; ok {
		return 1 / r, true
	}
	return 0, false
}

// pivots lists the configured pivot first, then every other currency in the
// table in code order so cross lookups are deterministic.
func (t *RateTable) pivots(from, to string) []string {
	seen := map[string]bool{from: true, to: true}
	var out []string
	if t.Pivot != "" && !seen[t.Pivot] {
		out = append(out, t.Pivot)
		seen[t.Pivot] = true
	}
	var rest []string
	for p := range t.rates {
		for _, c := range []string{p.Base, p.Quote} {
			if !seen[c] {
				seen[c] = true
				rest = append(rest, c)
			}
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// QuoteToAccountRate returns account-currency units per one unit of the
// pair's quote currency.
func QuoteToAccountRate(ctx context.Context, p Pair, accountCurrency string, conv Converter) (float64, error) {
	accountCurrency = NormalizeCurrency(accountCurrency)

	// Quote currency == account currency (EUR_USD in a USD account).
	if p.Quote == accountCurrency {
		return 1.0, nil
	}
	if conv == nil {
		return 0, &errs.ConversionError{From: p.Quote, To: accountCurrency}
	}
	// Base == account (USD_JPY in a USD account) and crosses both resolve
	// through the converter.
	return conv.Convert(ctx, 1.0, p.Quote, accountCurrency)
}
