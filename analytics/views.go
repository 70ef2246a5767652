package analytics

import (
	"time"

	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/performance"
	"github.com/rustyeddy/vine/pnl"
	"github.com/rustyeddy/vine/portfolio"
	"github.com/rustyeddy/vine/risk"
)

type AccountView struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Broker         string              `json:"broker,omitempty"`
	BaseCurrency   string              `json:"base_currency"`
	InitialCapital Amount              `json:"initial_capital"`
	CurrentBalance Amount              `json:"current_balance"`
	ProfitTarget   *Amount             `json:"profit_target"`
	MaxDrawdown    *Amount             `json:"max_drawdown"`
	TradingModel   ledger.TradingModel `json:"trading_model"`
	CreatedAt      time.Time           `json:"created_at"`
}

func accountView(a ledger.Account, balance float64) AccountView {
	return AccountView{
		ID:             a.ID,
		Name:           a.Name,
		Broker:         a.Broker,
		BaseCurrency:   a.BaseCurrency,
		InitialCapital: Amount(a.InitialCapital),
		CurrentBalance: Amount(balance),
		ProfitTarget:   amountPtr(a.ProfitTarget),
		MaxDrawdown:    amountPtr(a.MaxDrawdown),
		TradingModel:   a.TradingModel,
		CreatedAt:      a.CreatedAt,
	}
}

type FillView struct {
	Date       time.Time `json:"date"`
	Price      Price     `json:"price"`
	Quantity   float64   `json:"quantity"`
	Commission Amount    `json:"commission"`
	Reason     string    `json:"reason,omitempty"`
}

type CostView struct {
	Type        string `json:"cost_type"`
	Amount      Amount `json:"amount"`
	Description string `json:"description,omitempty"`
}

type TradeView struct {
	ID         string           `json:"id"`
	AccountID  string           `json:"account_id"`
	Name       string           `json:"trade_name,omitempty"`
	Instrument string           `json:"instrument"`
	Type       ledger.TradeType `json:"trade_type"`
	Status     ledger.Status    `json:"status"`
	Entries    []FillView       `json:"entries"`
	Exits      []FillView       `json:"exits"`
	Costs      []CostView       `json:"costs"`
	StopLoss   *Price           `json:"stop_loss_price"`
	TakeProfit *Price           `json:"take_profit_price"`
	RiskType   string           `json:"risk_type"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`

	AvgEntryPrice   Price      `json:"avg_entry_price"`
	AvgExitPrice    Price      `json:"avg_exit_price"`
	EnteredQuantity float64    `json:"total_quantity"`
	OpenQuantity    float64    `json:"open_quantity"`
	GrossPnL        Amount     `json:"gross_pnl"`
	NetPnL          Amount     `json:"net_pnl"`
	TotalCosts      Amount     `json:"total_costs"`
	RiskAmount      *Amount    `json:"risk_amount"`
	RMultiple       *Ratio     `json:"r_multiple"`
	UnrealizedPnL   *Amount    `json:"unrealized_pnl"`
	ClosedAt        *time.Time `json:"closed_at"`
}

func fillViews(fs []ledger.Fill) []FillView {
	out := make([]FillView, len(fs))
	for i, f := range fs {
		out[i] = FillView{Date: f.Date, Price: Price(f.Price), Quantity: f.Quantity, Commission: Amount(f.Commission), Reason: f.Reason}
	}
	return out
}

func tradeView(t ledger.Trade, r pnl.Result, model ledger.TradingModel) TradeView {
	v := TradeView{
		ID:              t.ID,
		AccountID:       t.AccountID,
		Name:            t.Name,
		Instrument:      t.Instrument,
		Type:            t.Type,
		Status:          t.Status,
		Entries:         fillViews(t.Entries),
		Exits:           fillViews(t.Exits),
		Costs:           make([]CostView, len(t.Costs)),
		StopLoss:        pricePtr(t.StopLoss),
		TakeProfit:      pricePtr(t.TakeProfit),
		RiskType:        performance.RiskType(t, model),
		Notes:           t.Notes,
		CreatedAt:       t.CreatedAt,
		AvgEntryPrice:   Price(r.AvgEntryPrice),
		AvgExitPrice:    Price(r.AvgExitPrice),
		EnteredQuantity: r.EnteredQuantity,
		OpenQuantity:    r.OpenQuantity,
		GrossPnL:        Amount(r.GrossPnL),
		NetPnL:          Amount(r.NetPnL),
		TotalCosts:      Amount(r.TotalCosts),
		RiskAmount:      amountPtr(r.RiskAmount),
		RMultiple:       ratioPtr(r.RMultiple),
		UnrealizedPnL:   amountPtr(r.UnrealizedPnL),
	}
	for i, c := range t.Costs {
		v.Costs[i] = CostView{Type: c.Type, Amount: Amount(c.Amount), Description: c.Description}
	}
	if !r.ClosedAt.IsZero() {
		at := r.ClosedAt
		v.ClosedAt = &at
	}
	return v
}

func statView(ts *performance.TradeStat, model ledger.TradingModel) *TradeView {
	if ts == nil {
		return nil
	}
	v := tradeView(ts.Trade, ts.PnL, model)
	return &v
}

type DashboardAnalytics struct {
	TotalPnL        Amount `json:"total_pnl"`
	PnLPercentage   Amount `json:"pnl_percentage"`
	WinRate         Amount `json:"win_rate"`
	ClosedTrades    int    `json:"closed_trades"`
	AvgRMultiple    Ratio  `json:"avg_r_multiple"`
	ProfitFactor    Ratio  `json:"profit_factor"`
	AvgWin          Amount `json:"avg_win"`
	AvgLoss         Amount `json:"avg_loss"`
	TotalTrades     int    `json:"total_trades"`
	OpenTrades      int    `json:"open_trades"`
	TotalGrossPnL   Amount `json:"total_gross_pnl"`
	TotalCosts      Amount `json:"total_costs"`
	CurrentDrawdown Amount `json:"current_drawdown"`
}

type Dashboard struct {
	Account      AccountView        `json:"account"`
	Analytics    DashboardAnalytics `json:"analytics"`
	RecentTrades []TradeView        `json:"recent_trades"`
}

type DetailAnalytics struct {
	TotalTrades          int        `json:"total_trades"`
	ClosedTrades         int        `json:"closed_trades"`
	WinRate              Amount     `json:"win_rate"`
	ProfitFactor         Ratio      `json:"profit_factor"`
	AvgRMultiple         Ratio      `json:"avg_r_multiple"`
	Expectancy           Amount     `json:"expectancy"`
	AvgWin               Amount     `json:"avg_win"`
	AvgLoss              Amount     `json:"avg_loss"`
	GrossProfit          Amount     `json:"gross_profit"`
	GrossLoss            Amount     `json:"gross_loss"`
	MaxConsecutiveWins   int        `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int        `json:"max_consecutive_losses"`
	BestTrade            *TradeView `json:"best_trade"`
	WorstTrade           *TradeView `json:"worst_trade"`
}

type GroupStats struct {
	Trades       int    `json:"trades"`
	PnL          Amount `json:"pnl"`
	WinRate      Amount `json:"win_rate"`
	ProfitFactor Ratio  `json:"profit_factor"`
}

func groupStats(g performance.Group) GroupStats {
	return GroupStats{Trades: g.Trades, PnL: Amount(g.PnL), WinRate: Amount(g.WinRate), ProfitFactor: Ratio(g.ProfitFactor)}
}

type InstrumentPerformance struct {
	Instrument string `json:"instrument"`
	GroupStats
}

type RiskTypePerformance struct {
	RiskType string `json:"risk_type"`
	GroupStats
}

type MonthlyPerformance struct {
	Month string `json:"month"`
	GroupStats
}

type Analytics struct {
	Account                 AccountView             `json:"account"`
	Analytics               DetailAnalytics         `json:"analytics"`
	PerformanceByInstrument []InstrumentPerformance `json:"performance_by_instrument"`
	PerformanceByRiskType   []RiskTypePerformance   `json:"performance_by_risk_type"`
	MonthlyPerformance      []MonthlyPerformance    `json:"monthly_performance"`
}

type PortfolioTotals struct {
	PrimaryCurrency     string `json:"primary_currency"`
	TotalBalance        Amount `json:"total_balance"`
	TotalInitialCapital Amount `json:"total_initial_capital"`
	TotalPnL            Amount `json:"total_pnl"`
	TotalPnLPercentage  Amount `json:"total_pnl_percentage"`
	TotalAccounts       int    `json:"total_accounts"`
	TotalOpenTrades     int    `json:"total_open_trades"`
	TotalClosedTrades   int    `json:"total_closed_trades"`
	MaxDrawdown         Amount `json:"max_drawdown"`
	DrawdownSource      string `json:"drawdown_source"`
}

type PortfolioAccount struct {
	Account       AccountView `json:"account"`
	PnL           Amount      `json:"pnl"`
	PnLPercentage Amount      `json:"pnl_percentage"`
	OpenTrades    int         `json:"open_trades"`
	ClosedTrades  int         `json:"closed_trades"`
}

func portfolioRows(rows []portfolio.AccountRow) []PortfolioAccount {
	out := make([]PortfolioAccount, len(rows))
	for i, r := range rows {
		out[i] = PortfolioAccount{
			Account:       accountView(r.Account, r.Balance),
			PnL:           Amount(r.PnL),
			PnLPercentage: Amount(r.PnLPercentage),
			OpenTrades:    r.OpenTrades,
			ClosedTrades:  r.ClosedTrades,
		}
	}
	return out
}

type Portfolio struct {
	Portfolio        PortfolioTotals    `json:"portfolio"`
	Accounts         []PortfolioAccount `json:"accounts"`
	TopPerformers    []PortfolioAccount `json:"top_performers"`
	BottomPerformers []PortfolioAccount `json:"bottom_performers"`
}

type SuggestionView struct {
	Type          risk.SuggestionType `json:"type"`
	Message       string              `json:"message"`
	SuggestedRisk *Amount             `json:"suggested_risk,omitempty"`
}

type RecentPerformance struct {
	TradesAnalyzed int    `json:"trades_analyzed"`
	WinRate        Amount `json:"win_rate"`
	TotalPnL       Amount `json:"total_pnl"`
}

type RiskSuggestions struct {
	Account           AccountView       `json:"account"`
	Suggestions       []SuggestionView  `json:"suggestions"`
	RecentPerformance RecentPerformance `json:"recent_performance"`
	CurrentRisk       Amount            `json:"current_risk"`
	CurrentDrawdown   Amount            `json:"current_drawdown"`
}

type Export struct {
	CSVData  [][]string `json:"csv_data"`
	Filename string     `json:"filename"`
}

type PositionSize struct {
	RiskAmount      Amount `json:"risk_amount"`
	PositionSize    Amount `json:"position_size"`
	PriceDifference Price  `json:"price_difference"`
	RMultiple       *Ratio `json:"r_multiple"`
}

func PositionSizeView(r risk.PositionResult) PositionSize {
	return PositionSize{
		RiskAmount:      Amount(r.RiskAmount),
		PositionSize:    Amount(r.PositionSize),
		PriceDifference: Price(r.PriceDifference),
		RMultiple:       ratioPtr(r.RMultiple),
	}
}

type ForexLotSize struct {
	CurrencyPair string       `json:"currency_pair"`
	RiskAmount   Amount       `json:"risk_amount"`
	LotSize      Price        `json:"lot_size"`
	LotType      risk.LotType `json:"lot_type"`
	LotDisplay   string       `json:"lot_display"`
	PipValue     Amount       `json:"pip_value"`
	RiskPerPip   Amount       `json:"risk_per_pip"`
	Units        float64      `json:"units"`
}

func ForexLotSizeView(r risk.ForexResult) ForexLotSize {
	return ForexLotSize{
		CurrencyPair: r.Pair.String(),
		RiskAmount:   Amount(r.RiskAmount),
		LotSize:      Price(r.LotSize),
		LotType:      r.LotType,
		LotDisplay:   r.LotDisplay,
		PipValue:     Amount(r.PipValue),
		RiskPerPip:   Amount(r.RiskPerPip),
		Units:        r.Units,
	}
}

type StockShares struct {
	Shares               int64  `json:"shares"`
	RiskAmount           Amount `json:"risk_amount"`
	TotalInvestment      Amount `json:"total_investment"`
	ActualRisk           Amount `json:"actual_risk"`
	ActualRiskPercentage Amount `json:"actual_risk_percentage"`
	PriceDifference      Price  `json:"price_difference"`
}

func StockSharesView(r risk.SharesResult) StockShares {
	return StockShares{
		Shares:               r.Shares,
		RiskAmount:           Amount(r.RiskAmount),
		TotalInvestment:      Amount(r.TotalInvestment),
		ActualRisk:           Amount(r.ActualRisk),
		ActualRiskPercentage: Amount(r.ActualRiskPercentage),
		PriceDifference:      Price(r.PriceDifference),
	}
}
