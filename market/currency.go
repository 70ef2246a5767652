package market

import (
	"fmt"
	"strings"
)

// Pair is a currency pair quoted as Quote units per one Base unit.
type Pair struct {
	Base  string
	Quote string
}

// String renders the pair in OANDA form, e.g. "EUR_USD".
func (p Pair) String() string {
	return p.Base + "_" + p.Quote
}

// Inverse returns the pair with base and quote swapped.
func (p Pair) Inverse() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}

// ParsePair accepts "EURUSD", "EUR/USD", "EUR_USD" and "EUR-USD" in any case.
func ParsePair(s string) (Pair, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	clean = strings.NewReplacer("/", "", "_", "", "-", "", " ", "").Replace(clean)
	if len(clean) != 6 {
		return Pair{}, fmt.Errorf("currency pair %q: want six letters", s)
	}
	p := Pair{Base: clean[:3], Quote: clean[3:]}
	if !IsCurrencyCode(p.Base) || !IsCurrencyCode(p.Quote) {
		return Pair{}, fmt.Errorf("currency pair %q: not ISO 4217 codes", s)
	}
	if p.Base == p.Quote {
		return Pair{}, fmt.Errorf("currency pair %q: base equals quote", s)
	}
	return p, nil
}

// IsCurrencyCode reports whether s looks like an ISO 4217 alphabetic code.
func IsCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}

// NormalizeCurrency upper-cases and trims a currency code.
func NormalizeCurrency(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
