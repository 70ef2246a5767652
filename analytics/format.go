package analytics

import (
	"math"

	"github.com/shopspring/decimal"
)

// Amount is a currency amount or percentage, serialized with 2 decimals.
type Amount float64

// Price is an instrument price, serialized with up to 5 decimals.
type Price float64

// Ratio is a unit-less ratio such as profit factor or an R-multiple,
// serialized with 2 decimals. +Inf serializes as the string "Infinity".
type Ratio float64

func (a Amount) MarshalJSON() ([]byte, error) { return fixed(float64(a), 2), nil }

func (p Price) MarshalJSON() ([]byte, error) {
	v := float64(p)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(decimal.NewFromFloat(v).Round(5).String()), nil
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	v := float64(r)
	switch {
	case math.IsInf(v, 1):
		return []byte(`"Infinity"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Infinity"`), nil
	}
	return fixed(v, 2), nil
}

func fixed(v float64, places int32) []byte {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null")
	}
	return []byte(decimal.NewFromFloat(v).StringFixed(places))
}

// Round2 rounds half away from zero at 2 decimals, matching the JSON
// output. Used for CSV export cells.
func Round2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func amountPtr(v *float64) *Amount {
	if v == nil {
		return nil
	}
	a := Amount(*v)
	return &a
}

func pricePtr(v *float64) *Price {
	if v == nil {
		return nil
	}
	p := Price(*v)
	return &p
}

func ratioPtr(v *float64) *Ratio {
	if v == nil {
		return nil
	}
	r := Ratio(*v)
	return &r
}
