package risk

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/performance"
)

// Thresholds for Suggest. They are fixed so the advice is reproducible.
const (
	MinTradesForSignal = 10
	LowWinRate         = 40.0
	MaxLosingStreak    = 5
	StrongProfitFactor = 2.0

	ReduceFactor   = 0.5
	IncreaseFactor = 1.25
)

type SuggestionType string

const (
	Warning  SuggestionType = "warning"
	Positive SuggestionType = "positive"
	Info     SuggestionType = "info"
)

type Suggestion struct {
	Type    SuggestionType
	Message string
	// SuggestedRisk is a risk percentage, nil when no change is advised.
	SuggestedRisk *float64
}

// Policy holds the per-model risk percentages.
type Policy struct {
	DefaultRisk map[ledger.TradingModel]float64
	Ceiling     map[ledger.TradingModel]float64
}

func DefaultPolicy() Policy {
	return Policy{
		DefaultRisk: map[ledger.TradingModel]float64{
			ledger.RiskFree:   0.5,
			ledger.MediumRisk: 1,
			ledger.HighRisk:   2,
		},
		Ceiling: map[ledger.TradingModel]float64{
			ledger.RiskFree:   1,
			ledger.MediumRisk: 2,
			ledger.HighRisk:   5,
		},
	}
}

// Unknown models fall back to the Medium Risk figures.
func (p Policy) defaultRisk(m ledger.TradingModel) float64 {
	if v, ok := p.DefaultRisk[m]; ok {
		return v
	}
	return DefaultPolicy().DefaultRisk[ledger.MediumRisk]
}

func (p Policy) ceiling(m ledger.TradingModel) float64 {
	if v, ok := p.Ceiling[m]; ok {
		return v
	}
	return DefaultPolicy().Ceiling[ledger.MediumRisk]
}

func DefaultRisk(m ledger.TradingModel) float64 { return DefaultPolicy().defaultRisk(m) }

func Ceiling(m ledger.TradingModel) float64 { return DefaultPolicy().ceiling(m) }

type SuggestInput struct {
	// Performance is the snapshot over the recent window only.
	Performance  performance.Snapshot
	TradingModel ledger.TradingModel
	// CurrentRisk is the risk percentage in use; 0 means the model default.
	CurrentRisk    float64
	InitialCapital float64
	CurrentBalance float64
	// Policy overrides DefaultPolicy when non-nil.
	Policy *Policy
}

type RecentPerformance struct {
	TradesAnalyzed int
	WinRate        float64
	TotalPnL       float64
}

type SuggestResult struct {
	Suggestions       []Suggestion
	RecentPerformance RecentPerformance
	CurrentRisk       float64
	CurrentDrawdown   float64
}

// Suggest applies the rules in order, appending one suggestion per rule
// that fires:
//
//  1. win rate below 40% over at least 10 trades: warning, halve risk
//  2. 5 or more consecutive losses: warning, halve risk
//  3. profit factor above 2 over at least 10 trades: positive, risk x1.25
//     capped at the model ceiling; at or above the ceiling the advice is
//     to hold at the ceiling
//
// When none fire a single info suggestion without a risk figure is
// returned. Suggest only advises; nothing is written back.
func Suggest(in SuggestInput) SuggestResult {
	policy := DefaultPolicy()
	if in.Policy != nil {
		policy = *in.Policy
	}
	current := in.CurrentRisk
	if current <= 0 {
		current = policy.defaultRisk(in.TradingModel)
	}
	perf := in.Performance

	res := SuggestResult{
		RecentPerformance: RecentPerformance{
			TradesAnalyzed: perf.ClosedTrades,
			WinRate:        perf.WinRate,
			TotalPnL:       perf.TotalPnL,
		},
		CurrentRisk:     current,
		CurrentDrawdown: performance.CurrentDrawdown(in.InitialCapital, in.CurrentBalance),
	}

	add := func(typ SuggestionType, risk *float64, format string, args ...any) {
		res.Suggestions = append(res.Suggestions, Suggestion{
			Type:          typ,
			Message:       fmt.Sprintf(format, args...),
			SuggestedRisk: risk,
		})
	}

	if perf.WinRate < LowWinRate && perf.ClosedTrades >= MinTradesForSignal {
		add(Warning, ptr(current*ReduceFactor),
			"Recent win rate is %.1f%% over %d trades. Consider halving risk until performance improves.",
			perf.WinRate, perf.ClosedTrades)
	}
	if perf.MaxConsecutiveLosses >= MaxLosingStreak {
		add(Warning, ptr(current*ReduceFactor),
			"%d consecutive losses. Consider pausing or halving risk.",
			perf.MaxConsecutiveLosses)
	}
	if perf.ProfitFactor > StrongProfitFactor && perf.ClosedTrades >= MinTradesForSignal {
		ceiling := policy.ceiling(in.TradingModel)
		if current >= ceiling {
			add(Positive, ptr(ceiling),
				"Strong recent performance (profit factor %s). Risk is already at the %.1f%% ceiling for %s; do not go above it.",
				formatFactor(perf.ProfitFactor), ceiling, in.TradingModel)
		} else {
			next := math.Min(current*IncreaseFactor, ceiling)
			add(Positive, ptr(next),
				"Strong recent performance (profit factor %s). You may modestly increase risk, up to %.1f%% for %s.",
				formatFactor(perf.ProfitFactor), ceiling, in.TradingModel)
		}
	}

	if len(res.Suggestions) == 0 {
		if perf.ClosedTrades == 0 {
			add(Info, nil, "No recent closed trades. Start with conservative risk (%.1f%% per trade).", current)
		} else {
			add(Info, nil, "Performance is stable. Maintain current risk level.")
		}
	}
	return res
}

func formatFactor(pf float64) string {
	if math.IsInf(pf, 1) {
		return "infinite"
	}
	return fmt.Sprintf("%.2f", pf)
}

func ptr(v float64) *float64 { return &v }

// Window picks the recent closed trades to analyze. LastN keeps the most
// recent N closes, LastDays keeps closes within that many days of Now. Both
// may be set; zero values disable the limit.
type Window struct {
	LastN    int
	LastDays int
	Now      time.Time
}

// SelectWindow returns the Closed trades inside w in chronological close
// order, ties by id.
func SelectWindow(trades []ledger.Trade, w Window) []ledger.Trade {
	var out []ledger.Trade
	var cutoff time.Time
	if w.LastDays > 0 {
		now := w.Now
		if now.IsZero() {
			now = time.Now()
		}
		cutoff = now.AddDate(0, 0, -w.LastDays)
	}
	for _, t := range trades {
		if t.Status != ledger.StatusClosed {
			continue
		}
		if !cutoff.IsZero() && t.ClosedAt().Before(cutoff) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].ClosedAt(), out[j].ClosedAt()
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return out[i].ID < out[j].ID
	})
	if w.LastN > 0 && len(out) > w.LastN {
		out = out[len(out)-w.LastN:]
	}
	return out
}
