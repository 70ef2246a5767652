package analytics

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/vine/pnl"
)

var ExportHeader = []string{
	"Trade ID", "Trade Name", "Instrument", "Type", "Status",
	"Entry Date", "Entry Price", "Exit Date", "Exit Price",
	"Quantity", "Stop Loss", "Take Profit", "Gross P&L",
	"Net P&L", "Total Costs", "R-Multiple", "Notes",
}

// Export renders every trade of the account as CSV rows, header first.
// Entry and exit prices are quantity-weighted; the exit date is the last
// exit.
func (s *Service) Export(ctx context.Context, id string) (Export, error) {
	a, err := s.src.Account(ctx, id)
	if err != nil {
		return Export{}, err
	}
	trades, err := s.src.Trades(ctx, id)
	if err != nil {
		return Export{}, err
	}

	rows := [][]string{ExportHeader}
	for _, t := range trades {
		r, err := pnl.Calculate(t, pnl.Options{})
		if err != nil {
			return Export{}, err
		}
		row := []string{
			t.ID, t.Name, t.Instrument, string(t.Type), string(t.Status),
			"", "", "", "",
			num(r.EnteredQuantity),
			optNum(t.StopLoss), optNum(t.TakeProfit),
			Round2(r.GrossPnL), Round2(r.NetPnL), Round2(r.TotalCosts),
			"",
			t.Notes,
		}
		if len(t.Entries) > 0 {
			row[5] = t.OpenedAt().Format(time.RFC3339)
			row[6] = num(r.AvgEntryPrice)
		}
		if len(t.Exits) > 0 {
			row[7] = r.ClosedAt.Format(time.RFC3339)
			row[8] = num(r.AvgExitPrice)
		}
		if r.RMultiple != nil {
			row[15] = Round2(*r.RMultiple)
		}
		rows = append(rows, row)
	}

	name := strings.TrimSpace(a.Name)
	if name == "" {
		name = a.ID
	}
	return Export{CSVData: rows, Filename: name + "_trades_export.csv"}, nil
}

// WriteCSV writes the export rows as a CSV file body.
func (e Export) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(e.CSVData); err != nil {
		return err
	}
	return cw.Error()
}

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func optNum(v *float64) string {
	if v == nil {
		return ""
	}
	return num(*v)
}
