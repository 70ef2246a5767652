package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/vine/analytics"
	"github.com/rustyeddy/vine/config"
	"github.com/rustyeddy/vine/ledger"
	"github.com/rustyeddy/vine/logger"
)

var rootCmd = &cobra.Command{
	Use:   "vine",
	Short: "Trading performance analytics and risk sizing",
	Long: `Vine reports on trading accounts and sizes positions from a risk budget.

It provides tools for:
  - Per-account dashboards and detailed performance analytics
  - A consolidated multi-currency portfolio view
  - Risk percentage suggestions from recent results
  - Position, forex lot and share sizing calculators
  - CSV import into SQLite and CSV trade export
  - A JSON HTTP API over all of the above`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

var (
	cfgFile  string
	envFiles []string

	cfg *config.Config
	log zerolog.Logger
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON, defaults built in)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env", []string{".env"}, ".env files read for VINE_* settings")
}

func loadConfig(cmd *cobra.Command) error {
	c := config.Default()
	if cfgFile != "" {
		loaded, err := config.LoadFromFile(cfgFile)
		if err != nil {
			return err
		}
		c = loaded
	}
	if err := c.ApplyEnv(envFiles...); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg = c

	log = logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: cmd.ErrOrStderr(),
	})
	logger.SetGlobalLogger(log)
	return nil
}

// openSource opens the configured ledger. The returned close func is never nil.
func openSource() (ledger.Source, func() error, error) {
	switch cfg.Ledger.Type {
	case "csv":
		m, err := ledger.LoadCSV(cfg.Ledger.AccountsFile, cfg.Ledger.TradesFile)
		if err != nil {
			return nil, nil, fmt.Errorf("load csv ledger: %w", err)
		}
		return m, func() error { return nil }, nil
	default:
		db, err := ledger.NewSQLite(cfg.Ledger.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		return db, db.Close, nil
	}
}

func newService() (*analytics.Service, func() error, error) {
	src, closeFn, err := openSource()
	if err != nil {
		return nil, nil, err
	}
	rates, err := cfg.RateTable()
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("rates: %w", err)
	}
	log.Debug().
		Str("ledger", cfg.Ledger.Type).
		Str("pivot", cfg.Rates.Pivot).
		Int("pairs", len(cfg.Rates.Pairs)).
		Msg("analytics service ready")
	return analytics.New(src, rates, cfg.Analytics()), closeFn, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
