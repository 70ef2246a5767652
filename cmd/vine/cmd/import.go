package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/vine/ledger"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load accounts and trades from CSV into SQLite",
	Long: `Bulk load an accounts CSV and a trades CSV into the SQLite ledger.

Accounts without an id get a ULID derived from created_at.

Example:
  vine import --accounts accounts.csv --trades trades.csv --db ./vine.db`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var (
	importAccounts string
	importTrades   string
	importDB       string
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importAccounts, "accounts", "a", "", "accounts CSV file (required)")
	importCmd.Flags().StringVarP(&importTrades, "trades", "t", "", "trades CSV file")
	importCmd.Flags().StringVarP(&importDB, "db", "d", "", "SQLite database (default ledger.db_path)")
	importCmd.MarkFlagRequired("accounts")
}

func runImport(cmd *cobra.Command, args []string) error {
	mem, err := ledger.LoadCSV(importAccounts, importTrades)
	if err != nil {
		return err
	}

	path := importDB
	if path == "" {
		path = cfg.Ledger.DBPath
	}
	db, err := ledger.NewSQLite(path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	accounts, err := mem.Accounts(ctx)
	if err != nil {
		return err
	}

	var nTrades int
	for _, a := range accounts {
		if err := db.InsertAccount(ctx, a); err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
		trades, err := mem.Trades(ctx, a.ID)
		if err != nil {
			return err
		}
		for _, t := range trades {
			if err := db.InsertTrade(ctx, t); err != nil {
				return fmt.Errorf("insert trade %s: %w", t.ID, err)
			}
		}
		nTrades += len(trades)
	}

	log.Info().
		Str("db", path).
		Int("accounts", len(accounts)).
		Int("trades", nTrades).
		Msg("import complete")
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d accounts and %d trades into %s\n", len(accounts), nTrades, path)
	return nil
}
