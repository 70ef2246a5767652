package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rustyeddy/vine/analytics"
	"github.com/rustyeddy/vine/risk"
)

var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Size positions from a risk budget",
	Long: `Run the position sizing calculators.

Subcommands:
  position - Generic position size from entry and stop prices
  forex    - Lot size from a stop distance in pips
  shares   - Whole share count for an equity position

Examples:
  vine calc position --balance 10000 --risk 1 --entry 100 --stop 95 --take-profit 110
  vine calc forex --balance 10000 --risk 1 --pips 20 --pair EUR/USD
  vine calc shares --balance 10000 --risk 1 --entry 50 --stop 48`,
}

var calcPositionCmd = &cobra.Command{
	Use:   "position",
	Short: "Generic position size",
	Args:  cobra.NoArgs,
	RunE:  runCalcPosition,
}

var calcForexCmd = &cobra.Command{
	Use:   "forex",
	Short: "Forex lot size",
	Args:  cobra.NoArgs,
	RunE:  runCalcForex,
}

var calcSharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Equity share count",
	Args:  cobra.NoArgs,
	RunE:  runCalcShares,
}

var (
	calcBalance    float64
	calcRisk       float64
	calcEntry      float64
	calcStop       float64
	calcTakeProfit float64
	calcPips       float64
	calcPair       string
	calcCurrency   string
)

func init() {
	rootCmd.AddCommand(calcCmd)
	calcCmd.AddCommand(calcPositionCmd)
	calcCmd.AddCommand(calcForexCmd)
	calcCmd.AddCommand(calcSharesCmd)

	calcCmd.PersistentFlags().Float64VarP(&calcBalance, "balance", "b", 0, "account balance")
	calcCmd.PersistentFlags().Float64VarP(&calcRisk, "risk", "r", 1, "risk percentage of the balance")

	for _, c := range []*cobra.Command{calcPositionCmd, calcSharesCmd} {
		c.Flags().Float64Var(&calcEntry, "entry", 0, "entry price")
		c.Flags().Float64Var(&calcStop, "stop", 0, "stop loss price")
	}
	calcPositionCmd.Flags().Float64Var(&calcTakeProfit, "take-profit", 0, "take profit price (optional)")

	calcForexCmd.Flags().Float64Var(&calcPips, "pips", 0, "stop loss distance in pips")
	calcForexCmd.Flags().StringVar(&calcPair, "pair", "", "currency pair, e.g. EUR/USD")
	calcForexCmd.Flags().StringVar(&calcCurrency, "account-currency", "", "account currency (default USD)")
	calcForexCmd.MarkFlagRequired("pair")
}

func runCalcPosition(cmd *cobra.Command, args []string) error {
	in := risk.PositionInput{
		AccountBalance: calcBalance,
		RiskPercentage: calcRisk,
		EntryPrice:     calcEntry,
		StopLossPrice:  calcStop,
	}
	if cmd.Flags().Changed("take-profit") {
		tp := calcTakeProfit
		in.TakeProfitPrice = &tp
	}
	r, err := risk.PositionSize(in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), analytics.PositionSizeView(r))
}

func runCalcForex(cmd *cobra.Command, args []string) error {
	rates, err := cfg.RateTable()
	if err != nil {
		return err
	}
	r, err := risk.ForexLotSize(cmd.Context(), risk.ForexInput{
		AccountBalance:  calcBalance,
		RiskPercentage:  calcRisk,
		StopLossPips:    calcPips,
		CurrencyPair:    calcPair,
		AccountCurrency: calcCurrency,
	}, rates)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), analytics.ForexLotSizeView(r))
}

func runCalcShares(cmd *cobra.Command, args []string) error {
	r, err := risk.EquityShares(risk.SharesInput{
		AccountBalance: calcBalance,
		RiskPercentage: calcRisk,
		EntryPrice:     calcEntry,
		StopLossPrice:  calcStop,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), analytics.StockSharesView(r))
}
