package ledger

import (
	"context"
	"sort"
	"sync"

	"github.com/rustyeddy/vine/errs"
)

// Memory is an in-process Source, filled by the CSV loader and by tests.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]Account
	trades   map[string][]Trade
	equity   map[string][]EquityPoint
}

func NewMemory() *Memory {
	return &Memory{
		accounts: map[string]Account{},
		trades:   map[string][]Trade{},
		equity:   map[string][]EquityPoint{},
	}
}

func (m *Memory) AddAccount(a Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
	return nil
}

func (m *Memory) AddTrade(t Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[t.AccountID]; !ok {
		return errs.NotFound("account", t.AccountID)
	}
	m.trades[t.AccountID] = append(m.trades[t.AccountID], t)
	return nil
}

func (m *Memory) RecordEquity(accountID string, p EquityPoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity[accountID] = append(m.equity[accountID], p)
}

// Accounts are returned in id order.
func (m *Memory) Accounts(ctx context.Context) ([]Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Account(ctx context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, errs.NotFound("account", id)
	}
	return a, nil
}

func (m *Memory) Trades(ctx context.Context, accountID string) ([]Trade, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.accounts[accountID]; !ok {
		return nil, errs.NotFound("account", accountID)
	}
	return append([]Trade(nil), m.trades[accountID]...), nil
}

func (m *Memory) EquityHistory(ctx context.Context, accountID string) ([]EquityPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pts := append([]EquityPoint(nil), m.equity[accountID]...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Time.Before(pts[j].Time) })
	return pts, nil
}
