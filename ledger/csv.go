package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/vine/errs"
	"github.com/rustyeddy/vine/market"
	"github.com/rustyeddy/vine/pkg/id"
)

var AccountHeader = []string{
	"id", "name", "broker", "base_currency", "initial_capital", "current_balance",
	"profit_target", "max_drawdown", "trading_model", "created_at",
}

// TradeHeader describes one fill per row. Rows sharing a trade_id form one
// trade; the trade-level columns are read from the first row. Rows with
// kind "cost" carry a cost: price is the amount and reason the cost type.
var TradeHeader = []string{
	"trade_id", "account_id", "trade_name", "instrument", "trade_type", "status",
	"stop_loss_price", "take_profit_price", "risk_type", "notes",
	"kind", "date", "price", "quantity", "commission", "reason",
}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// LoadCSV reads an accounts file and a trades file into a Memory ledger.
func LoadCSV(accountsPath, tradesPath string) (*Memory, error) {
	af, err := os.Open(accountsPath)
	if err != nil {
		return nil, err
	}
	defer af.Close()

	accounts, err := ReadAccounts(af)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", accountsPath, err)
	}

	m := NewMemory()
	for _, a := range accounts {
		if err := m.AddAccount(a); err != nil {
			return nil, fmt.Errorf("account %s: %w", a.ID, err)
		}
	}

	if tradesPath == "" {
		return m, nil
	}
	tf, err := os.Open(tradesPath)
	if err != nil {
		return nil, err
	}
	defer tf.Close()

	trades, err := ReadTrades(tf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tradesPath, err)
	}
	for _, t := range trades {
		if err := m.AddTrade(t); err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}
	}
	return m, nil
}

type row struct {
	line int
	cols map[string]int
	rec  []string
}

func (r row) get(name string) string {
	i, ok := r.cols[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

func (r row) float(name string) (float64, error) {
	s := r.get(name)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errs.Validation(name, "line %d: %q is not a number", r.line, s)
	}
	return v, nil
}

func (r row) optFloat(name string) (*float64, error) {
	if r.get(name) == "" {
		return nil, nil
	}
	v, err := r.float(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r row) time(name string) (time.Time, error) {
	s := r.get(name)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errs.Validation(name, "line %d: unrecognised time %q", r.line, s)
}

func readRows(r io.Reader, required ...string) ([]row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, errs.Validation(name, "missing column")
		}
	}

	var out []row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, row{line: line, cols: cols, rec: rec})
	}
	return out, nil
}

func ReadAccounts(r io.Reader) ([]Account, error) {
	rows, err := readRows(r, "name", "initial_capital")
	if err != nil {
		return nil, err
	}

	out := make([]Account, 0, len(rows))
	for _, rw := range rows {
		var a Account
		a.Name = rw.get("name")
		a.Broker = rw.get("broker")
		a.BaseCurrency = market.NormalizeCurrency(rw.get("base_currency"))
		if a.BaseCurrency == "" {
			a.BaseCurrency = "USD"
		}
		if a.InitialCapital, err = rw.float("initial_capital"); err != nil {
			return nil, err
		}
		if a.CurrentBalance, err = rw.optFloat("current_balance"); err != nil {
			return nil, err
		}
		if a.ProfitTarget, err = rw.optFloat("profit_target"); err != nil {
			return nil, err
		}
		if a.MaxDrawdown, err = rw.optFloat("max_drawdown"); err != nil {
			return nil, err
		}
		model, ok := ParseTradingModel(rw.get("trading_model"))
		if !ok {
			return nil, errs.Validation("trading_model", "line %d: unknown model %q", rw.line, rw.get("trading_model"))
		}
		a.TradingModel = model
		if a.CreatedAt, err = rw.time("created_at"); err != nil {
			return nil, err
		}
		a.ID = rw.get("id")
		switch {
		case a.CreatedAt.IsZero():
			if a.ID == "" {
				a.ID = id.New()
			}
			a.CreatedAt = time.Now().UTC()
			if t, err := id.Time(a.ID); err == nil {
				a.CreatedAt = t
			}
		case a.ID == "":
			if a.ID, err = id.At(a.CreatedAt); err != nil {
				return nil, errs.Validation("created_at", "line %d: %v", rw.line, err)
			}
		}
		out = append(out, a)
	}
	return out, nil
}

// ReadTrades groups fill rows into trades, preserving first-seen order.
func ReadTrades(r io.Reader) ([]Trade, error) {
	rows, err := readRows(r, "trade_id", "account_id", "instrument", "trade_type", "kind")
	if err != nil {
		return nil, err
	}

	var (
		out   []Trade
		index = map[string]int{}
	)
	for _, rw := range rows {
		tid := rw.get("trade_id")
		if tid == "" {
			return nil, errs.Validation("trade_id", "line %d: is required", rw.line)
		}
		i, seen := index[tid]
		if !seen {
			t, err := tradeFromRow(rw)
			if err != nil {
				return nil, err
			}
			i = len(out)
			index[tid] = i
			out = append(out, t)
		}

		date, err := rw.time("date")
		if err != nil {
			return nil, err
		}
		price, err := rw.float("price")
		if err != nil {
			return nil, err
		}

		switch kind := strings.ToLower(rw.get("kind")); kind {
		case "entry", "exit":
			qty, err := rw.float("quantity")
			if err != nil {
				return nil, err
			}
			commission, err := rw.float("commission")
			if err != nil {
				return nil, err
			}
			f := Fill{Date: date, Price: price, Quantity: qty, Commission: commission, Reason: rw.get("reason")}
			if kind == "entry" {
				out[i].Entries = append(out[i].Entries, f)
				if out[i].CreatedAt.IsZero() || date.Before(out[i].CreatedAt) {
					out[i].CreatedAt = date
				}
			} else {
				out[i].Exits = append(out[i].Exits, f)
			}
		case "cost":
			out[i].Costs = append(out[i].Costs, Cost{Type: rw.get("reason"), Amount: price})
		case "":
			// trade header row without a fill
		default:
			return nil, errs.Validation("kind", "line %d: want entry, exit or cost, got %q", rw.line, kind)
		}
	}
	return out, nil
}

func tradeFromRow(rw row) (Trade, error) {
	var (
		t   Trade
		err error
		ok  bool
	)
	t.ID = rw.get("trade_id")
	t.AccountID = rw.get("account_id")
	t.Name = rw.get("trade_name")
	t.Instrument = rw.get("instrument")
	t.RiskType = rw.get("risk_type")
	t.Notes = rw.get("notes")
	if t.Type, ok = ParseTradeType(rw.get("trade_type")); !ok {
		return Trade{}, errs.Validation("trade_type", "line %d: want Long or Short, got %q", rw.line, rw.get("trade_type"))
	}
	if t.Status, ok = ParseStatus(rw.get("status")); !ok {
		return Trade{}, errs.Validation("status", "line %d: unknown status %q", rw.line, rw.get("status"))
	}
	if t.StopLoss, err = rw.optFloat("stop_loss_price"); err != nil {
		return Trade{}, err
	}
	if t.TakeProfit, err = rw.optFloat("take_profit_price"); err != nil {
		return Trade{}, err
	}
	return t, nil
}

// WriteTrades writes trades in the TradeHeader layout accepted by ReadTrades.
func WriteTrades(w io.Writer, trades []Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeHeader); err != nil {
		return err
	}
	for _, t := range trades {
		base := []string{
			t.ID, t.AccountID, t.Name, t.Instrument, string(t.Type), string(t.Status),
			optString(t.StopLoss), optString(t.TakeProfit), t.RiskType, t.Notes,
		}
		write := func(kind string, date time.Time, price, qty, commission float64, reason string) error {
			ts := ""
			if !date.IsZero() {
				ts = date.UTC().Format(time.RFC3339)
			}
			rec := append(append([]string(nil), base...), kind, ts, f(price), f(qty), f(commission), reason)
			return cw.Write(rec)
		}
		for _, e := range t.Entries {
			if err := write("entry", e.Date, e.Price, e.Quantity, e.Commission, e.Reason); err != nil {
				return err
			}
		}
		for _, e := range t.Exits {
			if err := write("exit", e.Date, e.Price, e.Quantity, e.Commission, e.Reason); err != nil {
				return err
			}
		}
		for _, c := range t.Costs {
			if err := write("cost", time.Time{}, c.Amount, 0, 0, c.Type); err != nil {
				return err
			}
		}
		if len(t.Entries)+len(t.Exits)+len(t.Costs) == 0 {
			if err := cw.Write(append(base, "", "", "", "", "", "")); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func optString(v *float64) string {
	if v == nil {
		return ""
	}
	return f(*v)
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
