package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/vine/analytics"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard <account-id>",
	Short: "Print the dashboard for one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *analytics.Service) (any, error) {
			return svc.Dashboard(ctx, args[0])
		})(cmd)
	},
}

var analyticsCmd = &cobra.Command{
	Use:   "analytics <account-id>",
	Short: "Print detailed analytics for one account",
	Long: `Print performance statistics grouped by instrument, risk type and month.

Example:
  vine analytics 01HV8ZK3Q6N0M4T1Y2X5W7R9PB`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *analytics.Service) (any, error) {
			return svc.Analytics(ctx, args[0])
		})(cmd)
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Print the consolidated portfolio in the primary currency",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(func(ctx context.Context, svc *analytics.Service) (any, error) {
			return svc.Portfolio(ctx)
		})(cmd)
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <account-id>",
	Short: "Suggest a risk percentage from recent closed trades",
	Long: `Review the recent trade window and print risk suggestions.

Examples:
  vine suggest <account-id>
  vine suggest <account-id> --current-risk 1.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if suggestCurrentRisk < 0 || suggestCurrentRisk > 100 {
			return fmt.Errorf("--current-risk must be in [0, 100]")
		}
		return withService(func(ctx context.Context, svc *analytics.Service) (any, error) {
			return svc.RiskSuggestions(ctx, args[0], suggestCurrentRisk)
		})(cmd)
	},
}

var suggestCurrentRisk float64

func init() {
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(portfolioCmd)
	rootCmd.AddCommand(suggestCmd)

	suggestCmd.Flags().Float64Var(&suggestCurrentRisk, "current-risk", 0, "risk percentage in use (0 uses the model default)")
}

// withService opens the ledger, runs fn and prints its result as JSON.
func withService(fn func(context.Context, *analytics.Service) (any, error)) func(*cobra.Command) error {
	return func(cmd *cobra.Command) error {
		svc, closeFn, err := newService()
		if err != nil {
			return err
		}
		defer closeFn()

		out, err := fn(cmd.Context(), svc)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), out)
	}
}
