package risk

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/performance"
)

var start = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// window builds closed one-unit trades from a W/L pattern, each win +win and
// each loss -loss, closing on consecutive days.
func window(pattern string, win, loss float64) []ledger.Trade {
	var out []ledger.Trade
	for i, c := range pattern {
		net := win
		if c == 'L' {
			net = -loss
		}
		out = append(out, ledger.Trade{
			ID: fmt.Sprintf("T%02d", i), AccountID: "A1", Instrument: "AAPL",
			Type: ledger.Long, Status: ledger.StatusClosed,
			Entries: []ledger.Fill{{Date: start, Price: 100, Quantity: 1}},
			Exits:   []ledger.Fill{{Date: start.AddDate(0, 0, i+1), Price: 100 + net, Quantity: 1}},
		})
	}
	return out
}

func snapshot(t *testing.T, trades []ledger.Trade) performance.Snapshot {
	t.Helper()
	s, err := performance.Aggregate(trades, performance.Options{})
	require.NoError(t, err)
	return s
}

func TestSuggest_LowWinRateWindow(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("LLWLLWLLWLLW", 10, 10))
	got := Suggest(SuggestInput{Performance: perf, TradingModel: ledger.MediumRisk})

	require.Len(t, got.Suggestions, 1)
	s := got.Suggestions[0]
	assert.Equal(t, Warning, s.Type)
	require.NotNil(t, s.SuggestedRisk)
	assert.Less(t, *s.SuggestedRisk, got.CurrentRisk)
	assert.InDelta(t, 0.5, *s.SuggestedRisk, 1e-9)

	assert.Equal(t, 12, got.RecentPerformance.TradesAnalyzed)
	assert.InDelta(t, 100.0/3, got.RecentPerformance.WinRate, 1e-9)
	assert.InDelta(t, -40.0, got.RecentPerformance.TotalPnL, 1e-9)
}

func TestSuggest_LosingStreakWithFewTrades(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("WLLLLLL", 10, 5))
	got := Suggest(SuggestInput{Performance: perf, TradingModel: ledger.HighRisk})

	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, Warning, got.Suggestions[0].Type)
	assert.Contains(t, got.Suggestions[0].Message, "6 consecutive losses")
	assert.InDelta(t, 1.0, *got.Suggestions[0].SuggestedRisk, 1e-9)
}

func TestSuggest_RulesFireInOrder(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("LLLLLWLLLLLW", 10, 10))
	got := Suggest(SuggestInput{Performance: perf, CurrentRisk: 3, TradingModel: ledger.HighRisk})

	require.Len(t, got.Suggestions, 2)
	assert.Contains(t, got.Suggestions[0].Message, "win rate")
	assert.Contains(t, got.Suggestions[1].Message, "consecutive losses")
	for _, s := range got.Suggestions {
		assert.Equal(t, Warning, s.Type)
		assert.InDelta(t, 1.5, *s.SuggestedRisk, 1e-9)
	}
}

func TestSuggest_PositiveCappedAtCeiling(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("WWWWLWWWLW", 30, 10))
	require.Greater(t, perf.ProfitFactor, StrongProfitFactor)

	tests := []struct {
		name    string
		model   ledger.TradingModel
		current float64
		want    float64
	}{
		{"high risk default", ledger.HighRisk, 0, 2.5},
		{"medium risk near cap", ledger.MediumRisk, 1.8, 2},
		{"risk free capped", ledger.RiskFree, 0.9, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Suggest(SuggestInput{Performance: perf, TradingModel: tt.model, CurrentRisk: tt.current})
			require.Len(t, got.Suggestions, 1)
			assert.Equal(t, Positive, got.Suggestions[0].Type)
			assert.InDelta(t, tt.want, *got.Suggestions[0].SuggestedRisk, 1e-9)
		})
	}
}

func TestSuggest_AtOrAboveCeilingDoesNotSuggestIncrease(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("WWWWLWWWLW", 30, 10))

	tests := []struct {
		name    string
		model   ledger.TradingModel
		current float64
		ceiling float64
	}{
		{"above high risk ceiling", ledger.HighRisk, 6, 5},
		{"at medium risk ceiling", ledger.MediumRisk, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Suggest(SuggestInput{Performance: perf, TradingModel: tt.model, CurrentRisk: tt.current})
			require.Len(t, got.Suggestions, 1)
			s := got.Suggestions[0]
			assert.Equal(t, Positive, s.Type)
			assert.InDelta(t, tt.ceiling, *s.SuggestedRisk, 1e-9)
			assert.LessOrEqual(t, *s.SuggestedRisk, tt.current)
			assert.NotContains(t, s.Message, "increase")
			assert.Contains(t, s.Message, "ceiling")
		})
	}
}

func TestSuggest_AllWinsIsPositive(t *testing.T) {
	t.Parallel()

	perf := snapshot(t, window("WWWWWWWWWW", 5, 0))
	got := Suggest(SuggestInput{Performance: perf, TradingModel: ledger.MediumRisk})
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, Positive, got.Suggestions[0].Type)
	assert.Contains(t, got.Suggestions[0].Message, "infinite")
}

func TestSuggest_Info(t *testing.T) {
	t.Parallel()

	empty := Suggest(SuggestInput{TradingModel: ledger.RiskFree})
	require.Len(t, empty.Suggestions, 1)
	assert.Equal(t, Info, empty.Suggestions[0].Type)
	assert.Nil(t, empty.Suggestions[0].SuggestedRisk)
	assert.Contains(t, empty.Suggestions[0].Message, "No recent closed trades")
	assert.InDelta(t, 0.5, empty.CurrentRisk, 1e-9)

	stable := Suggest(SuggestInput{Performance: snapshot(t, window("WLWL", 10, 10)), TradingModel: ledger.MediumRisk})
	require.Len(t, stable.Suggestions, 1)
	assert.Equal(t, Info, stable.Suggestions[0].Type)
	assert.Nil(t, stable.Suggestions[0].SuggestedRisk)
	assert.NotEqual(t, empty.Suggestions[0].Message, stable.Suggestions[0].Message)
}

func TestSuggest_CurrentDrawdown(t *testing.T) {
	t.Parallel()

	got := Suggest(SuggestInput{InitialCapital: 10000, CurrentBalance: 9000})
	assert.InDelta(t, 10.0, got.CurrentDrawdown, 1e-9)

	got = Suggest(SuggestInput{InitialCapital: 10000, CurrentBalance: 12000})
	assert.Equal(t, 0.0, got.CurrentDrawdown)
}

func TestSuggest_CustomPolicy(t *testing.T) {
	t.Parallel()

	p := DefaultPolicy()
	p.DefaultRisk[ledger.MediumRisk] = 1.5
	got := Suggest(SuggestInput{TradingModel: ledger.MediumRisk, Policy: &p})
	assert.InDelta(t, 1.5, got.CurrentRisk, 1e-9)
}

func TestModelFigures(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Ceiling(ledger.RiskFree))
	assert.Equal(t, 2.0, Ceiling(ledger.MediumRisk))
	assert.Equal(t, 5.0, Ceiling(ledger.HighRisk))
	assert.Equal(t, 0.5, DefaultRisk(ledger.RiskFree))
	assert.Equal(t, 1.0, DefaultRisk(ledger.MediumRisk))
	assert.Equal(t, 2.0, DefaultRisk(ledger.HighRisk))
	assert.Equal(t, 2.0, Ceiling(ledger.TradingModel("Unknown")))
}

func TestSelectWindow(t *testing.T) {
	t.Parallel()

	trades := window("WLWLW", 1, 1)
	open := ledger.Trade{
		ID: "OPEN", AccountID: "A1", Instrument: "AAPL", Type: ledger.Long, Status: ledger.StatusOpen,
		Entries: []ledger.Fill{{Date: start, Price: 100, Quantity: 1}},
	}
	// Shuffle the input order and mix in an open trade.
	in := []ledger.Trade{trades[3], open, trades[0], trades[4], trades[1], trades[2]}

	ids := func(ts []ledger.Trade) []string {
		var out []string
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []string{"T00", "T01", "T02", "T03", "T04"}, ids(SelectWindow(in, Window{})))
	assert.Equal(t, []string{"T02", "T03", "T04"}, ids(SelectWindow(in, Window{LastN: 3})))

	// T04 closes on day 5; a 2-day window from day 5 keeps days 3 through 5.
	now := start.AddDate(0, 0, 5)
	assert.Equal(t, []string{"T02", "T03", "T04"}, ids(SelectWindow(in, Window{LastDays: 2, Now: now})))
	assert.Equal(t, []string{"T03", "T04"}, ids(SelectWindow(in, Window{LastDays: 2, LastN: 2, Now: now})))
}
