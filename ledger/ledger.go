// Package ledger holds the read-only view of accounts and trades that the
// analytics packages consume, plus SQLite and CSV adapters that load it.
package ledger

import (
	"context"
	"strings"
	"time"
)

type TradeType string

const (
	Long  TradeType = "Long"
	Short TradeType = "Short"
)

type Status string

const (
	StatusOpen      Status = "Open"
	StatusClosed    Status = "Closed"
	StatusCancelled Status = "Cancelled"
)

type TradingModel string

const (
	RiskFree   TradingModel = "Risk-Free"
	MediumRisk TradingModel = "Medium Risk"
	HighRisk   TradingModel = "High Risk"
)

// ParseTradingModel accepts the display names and their compact forms
// ("RiskFree", "medium_risk"). Empty input yields MediumRisk.
func ParseTradingModel(s string) (TradingModel, bool) {
	k := strings.ToLower(strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s))
	switch k {
	case "riskfree":
		return RiskFree, true
	case "", "mediumrisk", "medium":
		return MediumRisk, true
	case "highrisk", "high":
		return HighRisk, true
	}
	return "", false
}

// ParseTradeType is case-insensitive.
func ParseTradeType(s string) (TradeType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy":
		return Long, true
	case "short", "sell":
		return Short, true
	}
	return "", false
}

// ParseStatus is case-insensitive and accepts the "Canceled" spelling.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return StatusOpen, true
	case "closed":
		return StatusClosed, true
	case "cancelled", "canceled":
		return StatusCancelled, true
	}
	return "", false
}

type Account struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Broker         string       `json:"broker,omitempty"`
	BaseCurrency   string       `json:"base_currency"`
	InitialCapital float64      `json:"initial_capital"`
	CurrentBalance *float64     `json:"current_balance,omitempty"`
	ProfitTarget   *float64     `json:"profit_target"`
	MaxDrawdown    *float64     `json:"max_drawdown"`
	TradingModel   TradingModel `json:"trading_model"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Fill is one entry or exit execution.
type Fill struct {
	Date       time.Time `json:"date"`
	Price      float64   `json:"price"`
	Quantity   float64   `json:"quantity"`
	Commission float64   `json:"commission"`
	Reason     string    `json:"reason,omitempty"`
}

// Cost is a non-commission trading cost such as spread, swap or slippage.
type Cost struct {
	Type        string  `json:"cost_type"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

type Trade struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	Name       string    `json:"trade_name,omitempty"`
	Instrument string    `json:"instrument"`
	Type       TradeType `json:"trade_type"`
	Status     Status    `json:"status"`
	Entries    []Fill    `json:"entries"`
	Exits      []Fill    `json:"exits"`
	StopLoss   *float64  `json:"stop_loss_price"`
	TakeProfit *float64  `json:"take_profit_price"`
	// RiskType overrides the account trading model in risk-type groupings.
	RiskType  string    `json:"risk_type,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Costs     []Cost    `json:"costs,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (t Trade) EnteredQuantity() float64 {
	var q float64
	for _, e := range t.Entries {
		q += e.Quantity
	}
	return q
}

func (t Trade) ExitedQuantity() float64 {
	var q float64
	for _, e := range t.Exits {
		q += e.Quantity
	}
	return q
}

// ClosedAt is the date of the latest exit, zero when there are none.
func (t Trade) ClosedAt() time.Time {
	var last time.Time
	for _, e := range t.Exits {
		if e.Date.After(last) {
			last = e.Date
		}
	}
	return last
}

// OpenedAt is the date of the earliest entry, falling back to CreatedAt.
func (t Trade) OpenedAt() time.Time {
	var first time.Time
	for _, e := range t.Entries {
		if first.IsZero() || e.Date.Before(first) {
			first = e.Date
		}
	}
	if first.IsZero() {
		return t.CreatedAt
	}
	return first
}

// EquityPoint is an account balance observation in account currency.
type EquityPoint struct {
	Time    time.Time `json:"time"`
	Balance float64   `json:"balance"`
}

// Source is the read-only ledger the analytics service runs against.
type Source interface {
	Accounts(ctx context.Context) ([]Account, error)
	Account(ctx context.Context, id string) (Account, error)
	Trades(ctx context.Context, accountID string) ([]Trade, error)
}

// HistorySource is implemented by ledgers that record balance snapshots.
type HistorySource interface {
	EquityHistory(ctx context.Context, accountID string) ([]EquityPoint, error)
}
