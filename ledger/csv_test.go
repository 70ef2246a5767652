package ledger

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accountsCSV = `id,name,broker,base_currency,initial_capital,max_drawdown,trading_model,created_at
A1,Swing,IBKR,usd,10000,8,Medium Risk,2024-01-01
A2,Euro,,EUR,5000,,High Risk,2024-01-02T00:00:00Z
`

const tradesCSV = `trade_id,account_id,trade_name,instrument,trade_type,status,stop_loss_price,take_profit_price,risk_type,notes,kind,date,price,quantity,commission,reason
T1,A1,breakout,AAPL,Long,Closed,95,,,,entry,2024-01-02,100,10,1,
T1,A1,breakout,AAPL,Long,Closed,95,,,,exit,2024-01-05,110,10,1,target
T1,A1,breakout,AAPL,Long,Closed,95,,,,cost,,0.5,,,Slippage
T2,A1,,EURUSD,short,open,,,Scalp,,entry,2024-01-06 09:30:00,1.1,1000,0,
`

func TestReadAccounts(t *testing.T) {
	t.Parallel()

	accts, err := ReadAccounts(strings.NewReader(accountsCSV))
	require.NoError(t, err)
	require.Len(t, accts, 2)

	assert.Equal(t, "USD", accts[0].BaseCurrency)
	assert.Equal(t, MediumRisk, accts[0].TradingModel)
	require.NotNil(t, accts[0].MaxDrawdown)
	assert.Equal(t, 8.0, *accts[0].MaxDrawdown)
	assert.Nil(t, accts[1].MaxDrawdown)
	assert.Equal(t, HighRisk, accts[1].TradingModel)
}

func TestReadAccounts_GeneratesIDs(t *testing.T) {
	t.Parallel()

	accts, err := ReadAccounts(strings.NewReader("name,initial_capital\nNoID,100\n"))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Len(t, accts[0].ID, 26)

	// Without created_at the id's own timestamp becomes the creation time.
	got, err := id.Time(accts[0].ID)
	require.NoError(t, err)
	assert.True(t, got.Equal(accts[0].CreatedAt))
}

func TestReadAccounts_PreEpochCreatedAt(t *testing.T) {
	t.Parallel()

	const in = "id,name,broker,base_currency,initial_capital,current_balance,profit_target,max_drawdown,trading_model,created_at\n" +
		",Old,,USD,1000,,,,Medium Risk,1969-12-31\n"

	var err error
	assert.NotPanics(t, func() { _, err = ReadAccounts(strings.NewReader(in)) })
	require.ErrorIs(t, err, errs.ErrValidation)

	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "created_at", ve.Field)
}

func TestReadAccounts_PreEpochWithExplicitID(t *testing.T) {
	t.Parallel()

	accts, err := ReadAccounts(strings.NewReader("id,name,initial_capital,created_at\nA9,Old,1000,1969-12-31\n"))
	require.NoError(t, err)
	require.Len(t, accts, 1)
	assert.Equal(t, "A9", accts[0].ID)
	assert.Equal(t, 1969, accts[0].CreatedAt.Year())
}

func TestReadAccounts_MissingColumn(t *testing.T) {
	t.Parallel()

	_, err := ReadAccounts(strings.NewReader("id,name\nA1,x\n"))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestReadTrades(t *testing.T) {
	t.Parallel()

	trades, err := ReadTrades(strings.NewReader(tradesCSV))
	require.NoError(t, err)
	require.Len(t, trades, 2)

	t1 := trades[0]
	assert.Equal(t, "breakout", t1.Name)
	require.Len(t, t1.Entries, 1)
	require.Len(t, t1.Exits, 1)
	require.Len(t, t1.Costs, 1)
	assert.Equal(t, "Slippage", t1.Costs[0].Type)
	assert.Equal(t, 0.5, t1.Costs[0].Amount)
	assert.Equal(t, "target", t1.Exits[0].Reason)
	assert.NoError(t, t1.Validate())

	t2 := trades[1]
	assert.Equal(t, Short, t2.Type)
	assert.Equal(t, StatusOpen, t2.Status)
	assert.Equal(t, "Scalp", t2.RiskType)
	assert.Equal(t, 9, t2.Entries[0].Date.Hour())
}

func TestReadTrades_BadKind(t *testing.T) {
	t.Parallel()

	in := strings.Replace(tradesCSV, ",exit,", ",swap,", 1)
	_, err := ReadTrades(strings.NewReader(in))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestWriteTradesRoundTrip(t *testing.T) {
	t.Parallel()

	want, err := ReadTrades(strings.NewReader(tradesCSV))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTrades(&buf, want))

	got, err := ReadTrades(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Entries, got[i].Entries)
		assert.Equal(t, want[i].Exits, got[i].Exits)
		assert.Equal(t, want[i].Costs, got[i].Costs)
		assert.Equal(t, want[i].StopLoss, got[i].StopLoss)
	}
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ap := filepath.Join(dir, "accounts.csv")
	tp := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(ap, []byte(accountsCSV), 0o644))
	require.NoError(t, os.WriteFile(tp, []byte(tradesCSV), 0o644))

	m, err := LoadCSV(ap, tp)
	require.NoError(t, err)

	ctx := context.Background()
	accts, err := m.Accounts(ctx)
	require.NoError(t, err)
	assert.Len(t, accts, 2)

	trades, err := m.Trades(ctx, "A1")
	require.NoError(t, err)
	assert.Len(t, trades, 2)

	trades, err = m.Trades(ctx, "A2")
	require.NoError(t, err)
	assert.Empty(t, trades)
}

func TestLoadCSV_UnknownAccount(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ap := filepath.Join(dir, "accounts.csv")
	tp := filepath.Join(dir, "trades.csv")
	require.NoError(t, os.WriteFile(ap, []byte(accountsCSV), 0o644))
	require.NoError(t, os.WriteFile(tp, []byte(strings.ReplaceAll(tradesCSV, ",A1,", ",A9,")), 0o644))

	_, err := LoadCSV(ap, tp)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
