package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/vine/errs"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// InsertAccount stores a validated account. Used by the importer.
func (s *SQLite) InsertAccount(ctx context.Context, a Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts
		(id, name, broker, base_currency, initial_capital, current_balance, profit_target, max_drawdown, trading_model, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Broker, a.BaseCurrency, a.InitialCapital,
		nullable(a.CurrentBalance), nullable(a.ProfitTarget), nullable(a.MaxDrawdown),
		string(a.TradingModel), a.CreatedAt.UTC(),
	)
	return err
}

// InsertTrade stores a validated trade with its fills and costs in one
// transaction.
func (s *SQLite) InsertTrade(ctx context.Context, t Trade) (err error) {
	if err := t.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO trades
		(id, account_id, trade_name, instrument, trade_type, status, stop_loss_price, take_profit_price, risk_type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.AccountID, t.Name, t.Instrument, string(t.Type), string(t.Status),
		nullable(t.StopLoss), nullable(t.TakeProfit), t.RiskType, t.Notes, t.CreatedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert trade %s: %w", t.ID, err)
	}

	insertFill := func(kind string, seq int, f Fill) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fills (trade_id, kind, seq, date, price, quantity, commission, reason)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, kind, seq, f.Date.UTC(), f.Price, f.Quantity, f.Commission, f.Reason,
		)
		return err
	}
	for i, f := range t.Entries {
		if err = insertFill("entry", i, f); err != nil {
			return fmt.Errorf("insert entry %d: %w", i, err)
		}
	}
	for i, f := range t.Exits {
		if err = insertFill("exit", i, f); err != nil {
			return fmt.Errorf("insert exit %d: %w", i, err)
		}
	}
	for i, c := range t.Costs {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO costs (trade_id, seq, cost_type, amount, description)
			VALUES (?, ?, ?, ?, ?)`,
			t.ID, i, c.Type, c.Amount, c.Description,
		); err != nil {
			return fmt.Errorf("insert cost %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) RecordEquity(ctx context.Context, accountID string, p EquityPoint) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equity (account_id, time, balance) VALUES (?, ?, ?)`,
		accountID, p.Time.UTC(), p.Balance,
	)
	return err
}

const accountColumns = `id, name, broker, base_currency, initial_capital, current_balance, profit_target, max_drawdown, trading_model, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(row scanner) (Account, error) {
	var a Account
	var balance, target, maxDD sql.NullFloat64
	var model string
	if err := row.Scan(&a.ID, &a.Name, &a.Broker, &a.BaseCurrency, &a.InitialCapital,
		&balance, &target, &maxDD, &model, &a.CreatedAt); err != nil {
		return Account{}, err
	}
	a.CurrentBalance = fromNullable(balance)
	a.ProfitTarget = fromNullable(target)
	a.MaxDrawdown = fromNullable(maxDD)
	a.TradingModel = TradingModel(model)
	return a, nil
}

// Accounts returns every account in id order.
func (s *SQLite) Accounts(ctx context.Context) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Account(ctx context.Context, id string) (Account, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, errs.NotFound("account", id)
		}
		return Account{}, err
	}
	return a, nil
}

// Trades returns the account's trades in creation order with fills and
// costs attached.
func (s *SQLite) Trades(ctx context.Context, accountID string) ([]Trade, error) {
	if _, err := s.Account(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, trade_name, instrument, trade_type, status,
		       stop_loss_price, take_profit_price, risk_type, notes, created_at
		FROM trades
		WHERE account_id = ?
		ORDER BY created_at ASC, id ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []Trade
		index = map[string]int{}
	)
	for rows.Next() {
		var t Trade
		var typ, status string
		var stop, takeProfit sql.NullFloat64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Name, &t.Instrument, &typ, &status,
			&stop, &takeProfit, &t.RiskType, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Type = TradeType(typ)
		t.Status = Status(status)
		t.StopLoss = fromNullable(stop)
		t.TakeProfit = fromNullable(takeProfit)
		index[t.ID] = len(out)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachFills(ctx, accountID, out, index); err != nil {
		return nil, err
	}
	if err := s.attachCosts(ctx, accountID, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) attachFills(ctx context.Context, accountID string, trades []Trade, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.trade_id, f.kind, f.date, f.price, f.quantity, f.commission, f.reason
		FROM fills f JOIN trades t ON t.id = f.trade_id
		WHERE t.account_id = ?
		ORDER BY f.trade_id, f.kind, f.seq`, accountID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tradeID, kind string
			f             Fill
		)
		if err := rows.Scan(&tradeID, &kind, &f.Date, &f.Price, &f.Quantity, &f.Commission, &f.Reason); err != nil {
			return err
		}
		i, ok := index[tradeID]
		if !ok {
			continue
		}
		if kind == "entry" {
			trades[i].Entries = append(trades[i].Entries, f)
		} else {
			trades[i].Exits = append(trades[i].Exits, f)
		}
	}
	return rows.Err()
}

func (s *SQLite) attachCosts(ctx context.Context, accountID string, trades []Trade, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.trade_id, c.cost_type, c.amount, c.description
		FROM costs c JOIN trades t ON t.id = c.trade_id
		WHERE t.account_id = ?
		ORDER BY c.trade_id, c.seq`, accountID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tradeID string
			c       Cost
		)
		if err := rows.Scan(&tradeID, &c.Type, &c.Amount, &c.Description); err != nil {
			return err
		}
		if i, ok := index[tradeID]; ok {
			trades[i].Costs = append(trades[i].Costs, c)
		}
	}
	return rows.Err()
}

// EquityHistory returns the account's balance snapshots in time order.
func (s *SQLite) EquityHistory(ctx context.Context, accountID string) ([]EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT time, balance
		FROM equity
		WHERE account_id = ?
		ORDER BY time ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var p EquityPoint
		if err := rows.Scan(&p.Time, &p.Balance); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func fromNullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
