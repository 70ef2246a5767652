package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <account-id>",
	Short: "Write an account's trades to CSV",
	Long: `Export every trade of an account, one row per trade.

The file is named <account name>_trades_export.csv unless -o is given.

Example:
  vine export <account-id> -o trades.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var exportOutput string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output CSV path, - for stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	svc, closeFn, err := newService()
	if err != nil {
		return err
	}
	defer closeFn()

	exp, err := svc.Export(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if exportOutput == "-" {
		return exp.WriteCSV(cmd.OutOrStdout())
	}
	path := exportOutput
	if path == "" {
		path = filepath.Base(exp.Filename)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := exp.WriteCSV(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Exported %d trades to %s\n", len(exp.CSVData)-1, path)
	return nil
}
