// ledger/schema.go
package ledger

const Schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	broker TEXT NOT NULL DEFAULT '',
	base_currency TEXT NOT NULL DEFAULT 'USD',
	initial_capital REAL NOT NULL,
	current_balance REAL,
	profit_target REAL,
	max_drawdown REAL,
	trading_model TEXT NOT NULL DEFAULT 'Medium Risk',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	trade_name TEXT NOT NULL DEFAULT '',
	instrument TEXT NOT NULL,
	trade_type TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'Open',
	stop_loss_price REAL,
	take_profit_price REAL,
	risk_type TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS fills (
	trade_id TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	kind TEXT NOT NULL CHECK (kind IN ('entry', 'exit')),
	seq INTEGER NOT NULL,
	date DATETIME NOT NULL,
	price REAL NOT NULL,
	quantity REAL NOT NULL,
	commission REAL NOT NULL DEFAULT 0,
	reason TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (trade_id, kind, seq)
);

CREATE TABLE IF NOT EXISTS costs (
	trade_id TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	seq INTEGER NOT NULL,
	cost_type TEXT NOT NULL,
	amount REAL NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (trade_id, seq)
);

CREATE TABLE IF NOT EXISTS equity (
	account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
	time DATETIME NOT NULL,
	balance REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_account ON trades(account_id);
CREATE INDEX IF NOT EXISTS idx_equity_account_time ON equity(account_id, time);
`
