// Package analytics assembles the account, portfolio, risk and calculator
// responses from a ledger source and a currency converter.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/market"
	"github.com/rustyeddy/vine/performance"
	"github.com/rustyeddy/vine/pnl"
	"github.com/rustyeddy/vine/portfolio"
	"github.com/rustyeddy/vine/risk"
)

const DefaultRecentTrades = 10

type Config struct {
	PrimaryCurrency string
	TopN            int
	// Drawdown selects portfolio.DrawdownAccounts or portfolio.DrawdownCurve.
	Drawdown string
	// Window bounds the trades fed to risk suggestions. Now is filled per call.
	Window       risk.Window
	Policy       *risk.Policy
	Workers      int
	RecentTrades int
}

type Service struct {
	src     ledger.Source
	conv    market.Converter
	history ledger.HistorySource
	cfg     Config
	now     func() time.Time
}

// New builds a Service. When src also records equity history it is used
// for curve drawdowns.
func New(src ledger.Source, conv market.Converter, cfg Config) *Service {
	if cfg.RecentTrades <= 0 {
		cfg.RecentTrades = DefaultRecentTrades
	}
	s := &Service{src: src, conv: conv, cfg: cfg, now: time.Now}
	if h, ok := src.(ledger.HistorySource); ok {
		s.history = h
	}
	return s
}

// WithClock replaces time.Now for window selection.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type accountState struct {
	account ledger.Account
	trades  []ledger.Trade
	perf    performance.Snapshot
	balance float64
}

func (s *Service) load(ctx context.Context, id string) (accountState, error) {
	a, err := s.src.Account(ctx, id)
	if err != nil {
		return accountState{}, err
	}
	trades, err := s.src.Trades(ctx, id)
	if err != nil {
		return accountState{}, err
	}
	return s.state(a, trades)
}

func (s *Service) state(a ledger.Account, trades []ledger.Trade) (accountState, error) {
	perf, err := performance.Aggregate(trades, performance.Options{
		TradingModel: a.TradingModel,
		Workers:      s.cfg.Workers,
	})
	if err != nil {
		return accountState{}, fmt.Errorf("account %s: %w", a.ID, err)
	}
	return accountState{account: a, trades: trades, perf: perf, balance: Balance(a, perf)}, nil
}

// Balance is the cached account balance when present, otherwise initial
// capital plus closed-trade net P&L.
func Balance(a ledger.Account, perf performance.Snapshot) float64 {
	if a.CurrentBalance != nil {
		return *a.CurrentBalance
	}
	return a.InitialCapital + perf.TotalPnL
}

func pnlPercentage(initial, balance float64) float64 {
	if initial == 0 {
		return 0
	}
	return 100 * (balance - initial) / initial
}

func (s *Service) Dashboard(ctx context.Context, id string) (Dashboard, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}
	p := st.perf

	recent, err := s.recentTrades(st)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{
		Account: accountView(st.account, st.balance),
		Analytics: DashboardAnalytics{
			TotalPnL:        Amount(p.TotalPnL),
			PnLPercentage:   Amount(pnlPercentage(st.account.InitialCapital, st.balance)),
			WinRate:         Amount(p.WinRate),
			ClosedTrades:    p.ClosedTrades,
			AvgRMultiple:    Ratio(p.AvgRMultiple),
			ProfitFactor:    Ratio(p.ProfitFactor),
			AvgWin:          Amount(p.AvgWin),
			AvgLoss:         Amount(p.AvgLoss),
			TotalTrades:     p.TotalTrades,
			OpenTrades:      p.OpenTrades,
			TotalGrossPnL:   Amount(p.TotalGrossPnL),
			TotalCosts:      Amount(p.TotalCosts),
			CurrentDrawdown: Amount(performance.CurrentDrawdown(st.account.InitialCapital, st.balance)),
		},
		RecentTrades: recent,
	}, nil
}

// recentTrades returns the latest trades by entry date, newest first.
func (s *Service) recentTrades(st accountState) ([]TradeView, error) {
	trades := append([]ledger.Trade(nil), st.trades...)
	sort.SliceStable(trades, func(i, j int) bool {
		oi, oj := trades[i].OpenedAt(), trades[j].OpenedAt()
		if !oi.Equal(oj) {
			return oi.After(oj)
		}
		return trades[i].ID > trades[j].ID
	})
	if len(trades) > s.cfg.RecentTrades {
		trades = trades[:s.cfg.RecentTrades]
	}
	out := make([]TradeView, 0, len(trades))
	for _, t := range trades {
		r, err := pnl.Calculate(t, pnl.Options{})
		if err != nil {
			return nil, err
		}
		out = append(out, tradeView(t, r, st.account.TradingModel))
	}
	return out, nil
}

func (s *Service) Analytics(ctx context.Context, id string) (Analytics, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return Analytics{}, err
	}
	p := st.perf
	model := st.account.TradingModel

	out := Analytics{
		Account: accountView(st.account, st.balance),
		Analytics: DetailAnalytics{
			TotalTrades:          p.TotalTrades,
			ClosedTrades:         p.ClosedTrades,
			WinRate:              Amount(p.WinRate),
			ProfitFactor:         Ratio(p.ProfitFactor),
			AvgRMultiple:         Ratio(p.AvgRMultiple),
			Expectancy:           Amount(p.Expectancy),
			AvgWin:               Amount(p.AvgWin),
			AvgLoss:              Amount(p.AvgLoss),
			GrossProfit:          Amount(p.GrossProfit),
			GrossLoss:            Amount(p.GrossLoss),
			MaxConsecutiveWins:   p.MaxConsecutiveWins,
			MaxConsecutiveLosses: p.MaxConsecutiveLosses,
			BestTrade:            statView(p.Best, model),
			WorstTrade:           statView(p.Worst, model),
		},
		PerformanceByInstrument: make([]InstrumentPerformance, 0, len(p.ByInstrument)),
		PerformanceByRiskType:   make([]RiskTypePerformance, 0, len(p.ByRiskType)),
		MonthlyPerformance:      make([]MonthlyPerformance, 0, len(p.ByMonth)),
	}
	for _, g := range p.ByInstrument {
		out.PerformanceByInstrument = append(out.PerformanceByInstrument, InstrumentPerformance{Instrument: g.Key, GroupStats: groupStats(g)})
	}
	for _, g := range p.ByRiskType {
		out.PerformanceByRiskType = append(out.PerformanceByRiskType, RiskTypePerformance{RiskType: g.Key, GroupStats: groupStats(g)})
	}
	for _, g := range p.ByMonth {
		out.MonthlyPerformance = append(out.MonthlyPerformance, MonthlyPerformance{Month: g.Key, GroupStats: groupStats(g)})
	}
	return out, nil
}

// Portfolio computes every account concurrently, then folds them in the
// primary currency.
func (s *Service) Portfolio(ctx context.Context) (Portfolio, error) {
	accounts, err := s.src.Accounts(ctx)
	if err != nil {
		return Portfolio{}, err
	}

	states := make([]accountState, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range accounts {
		g.Go(func() error {
			trades, err := s.src.Trades(gctx, a.ID)
			if err != nil {
				return err
			}
			st, err := s.state(a, trades)
			if err != nil {
				return err
			}
			states[i] = st
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Portfolio{}, err
	}

	inputs := make([]portfolio.Input, len(states))
	for i, st := range states {
		inputs[i] = portfolio.Input{Account: st.account, Performance: st.perf, CurrentBalance: st.balance}
	}
	opts := portfolio.Options{PrimaryCurrency: s.cfg.PrimaryCurrency, TopN: s.cfg.TopN}
	if s.cfg.Drawdown == portfolio.DrawdownCurve {
		opts.History = newCurveHistory(s.history, states)
	}

	snap, err := portfolio.Aggregate(ctx, inputs, s.conv, opts)
	if err != nil {
		return Portfolio{}, err
	}
	return Portfolio{
		Portfolio: PortfolioTotals{
			PrimaryCurrency:     snap.PrimaryCurrency,
			TotalBalance:        Amount(snap.TotalBalance),
			TotalInitialCapital: Amount(snap.TotalInitialCapital),
			TotalPnL:            Amount(snap.TotalPnL),
			TotalPnLPercentage:  Amount(snap.TotalPnLPercentage),
			TotalAccounts:       snap.TotalAccounts,
			TotalOpenTrades:     snap.TotalOpenTrades,
			TotalClosedTrades:   snap.TotalClosedTrades,
			MaxDrawdown:         Amount(snap.MaxDrawdown),
			DrawdownSource:      snap.DrawdownSource,
		},
		Accounts:         portfolioRows(snap.Accounts),
		TopPerformers:    portfolioRows(snap.TopPerformers),
		BottomPerformers: portfolioRows(snap.BottomPerformers),
	}, nil
}

// curveHistory serves recorded equity where it exists and otherwise
// rebuilds the curve from the account's closed trades.
type curveHistory struct {
	recorded ledger.HistorySource
	derived  map[string][]ledger.EquityPoint
}

func newCurveHistory(recorded ledger.HistorySource, states []accountState) *curveHistory {
	h := &curveHistory{recorded: recorded, derived: make(map[string][]ledger.EquityPoint, len(states))}
	for _, st := range states {
		if len(st.perf.Closed) == 0 {
			continue
		}
		start := st.account.CreatedAt
		if first := st.perf.Closed[0].Trade.OpenedAt(); start.IsZero() || first.Before(start) {
			start = first
		}
		h.derived[st.account.ID] = performance.EquityCurve(st.account.InitialCapital, start, st.perf.Closed)
	}
	return h
}

func (h *curveHistory) EquityHistory(ctx context.Context, accountID string) ([]ledger.EquityPoint, error) {
	if h.recorded != nil {
		pts, err := h.recorded.EquityHistory(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if len(pts) > 0 {
			return pts, nil
		}
	}
	return h.derived[accountID], nil
}

// RiskSuggestions advises on the account's risk percentage from its recent
// window. currentRisk <= 0 uses the trading model default.
func (s *Service) RiskSuggestions(ctx context.Context, id string, currentRisk float64) (RiskSuggestions, error) {
	st, err := s.load(ctx, id)
	if err != nil {
		return RiskSuggestions{}, err
	}
	w := s.cfg.Window
	w.Now = s.now()
	recent := risk.SelectWindow(st.trades, w)
	perf, err := performance.Aggregate(recent, performance.Options{TradingModel: st.account.TradingModel})
	if err != nil {
		return RiskSuggestions{}, err
	}

	res := risk.Suggest(risk.SuggestInput{
		Performance:    perf,
		TradingModel:   st.account.TradingModel,
		CurrentRisk:    currentRisk,
		InitialCapital: st.account.InitialCapital,
		CurrentBalance: st.balance,
		Policy:         s.cfg.Policy,
	})
	out := RiskSuggestions{
		Account:     accountView(st.account, st.balance),
		Suggestions: make([]SuggestionView, len(res.Suggestions)),
		RecentPerformance: RecentPerformance{
			TradesAnalyzed: res.RecentPerformance.TradesAnalyzed,
			WinRate:        Amount(res.RecentPerformance.WinRate),
			TotalPnL:       Amount(res.RecentPerformance.TotalPnL),
		},
		CurrentRisk:     Amount(res.CurrentRisk),
		CurrentDrawdown: Amount(res.CurrentDrawdown),
	}
	for i, sg := range res.Suggestions {
		out.Suggestions[i] = SuggestionView{Type: sg.Type, Message: sg.Message, SuggestedRisk: amountPtr(sg.SuggestedRisk)}
	}
	return out, nil
}

func (s *Service) PositionSize(in risk.PositionInput) (PositionSize, error) {
	r, err := risk.PositionSize(in)
	if err != nil {
		return PositionSize{}, err
	}
	return PositionSizeView(r), nil
}

func (s *Service) ForexLotSize(ctx context.Context, in risk.ForexInput) (ForexLotSize, error) {
	r, err := risk.ForexLotSize(ctx, in, s.conv)
	if err != nil {
		return ForexLotSize{}, err
	}
	return ForexLotSizeView(r), nil
}

func (s *Service) StockShares(in risk.SharesInput) (StockShares, error) {
	r, err := risk.EquityShares(in)
	if err != nil {
		return StockShares{}, err
	}
	return StockSharesView(r), nil
}
