package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/units"
)

var feeTo string

var feeCmd = &cobra.Command{
	Use:   "fee <amount> <token>",
	Short: "Estimate the network fee of a transfer",
	Long: `Estimate the network fee of sending an amount from your configured wallet.

Examples:
  rwallet fee 0.001 BTC
  rwallet fee 0.5 RBTC --to 0x3dd03d7d6c3137f1eb7582ba5957b8a2e26f304a`,
	Args: cobra.ExactArgs(2),
	Run:  runFee,
}

func init() {
	rootCmd.AddCommand(feeCmd)

	feeCmd.Flags().StringVar(&feeTo, "to", "", "Receiver address (defaults to your own address)")
}

func runFee(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	amount, err := units.Parse(args[0])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg := bootstrap(cmd)
	cloud := newCloudClient(cfg)

	currency, err := cfg.Currency(args[1])
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Estimating network fee..."
		s.Start()
	}
	estimate, err := fee.NewEstimator(cloud).Estimate(ctx, currency, feeTo, amount)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(map[string]any{
			"symbol": currency.Symbol,
			"amount": amount.String(),
			"fee":    estimate.Fee.String(),
			"params": estimate.Params,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     FEE ESTIMATE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("\n  Amount:            %s %s\n", amount, color.YellowString(currency.Symbol))
	fmt.Printf("  Network Fee:       %s %s\n", estimate.Fee, feeSymbol(currency.Symbol))
	if estimate.Params.Gas > 0 {
		fmt.Printf("  Gas:               %d @ %s wei\n", estimate.Params.Gas, estimate.Params.GasPrice)
	}
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
