package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/grinry/rwallet/config"
	"github.com/grinry/rwallet/pkg/client"
	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/parser"
	"github.com/grinry/rwallet/pkg/swap"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

var (
	quoteOnly   bool
	noConfirm   bool
	swapPreset  string
	autoRetries int
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap between BTC, RBTC, RIF and DOC",
	Long: `Swap between your own wallets through the configured exchange provider.

The exchange order is placed with your configured destination address as the
recipient and your source address for refunds. The deposit is then built,
signed and broadcast from your source wallet.

Examples:
  rwallet swap 0.01 BTC to RBTC
  rwallet swap 10 RIF to DOC --quote-only
  rwallet swap 1 BTC to RBTC --preset all --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVar(&quoteOnly, "quote-only", false, "Show the quote without placing an order")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().StringVar(&swapPreset, "preset", "", "Replace the amount with a preset: min, half or all")
	swapCmd.Flags().IntVar(&autoRetries, "retries", 0, "Retry a failed quote this many times without asking")
}

func runSwap(cmd *cobra.Command, args []string) {
	// Parse the command
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	preset, err := parsePreset(swapPreset)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	cfg := bootstrap(cmd)
	cloud := newCloudClient(cfg)

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Loading wallets..."
		s.Start()
	}
	source, err := loadCurrency(ctx, cfg, cloud, swapReq.SourceToken)
	if err == nil && source.PrivateKey == "" {
		err = fmt.Errorf("no private key configured for %s", source.Symbol)
	}
	var dest types.Currency
	if err == nil {
		dest, err = cfg.Currency(swapReq.DestToken)
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	amount, err := units.Parse(swapReq.Amount)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	quotes, oneClick := newQuoteService(cfg, cloud, amount)
	estimator := fee.NewEstimator(cloud)

	opts := []swap.Option{
		swap.WithLeave(func() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}),
	}
	if cfg.Swap.ReserveFee {
		opts = append(opts, swap.WithFeeReservation(estimator))
	}
	engine := swap.NewEngine(quotes, &consoleNotifier{autoRetries: autoRetries}, opts...)
	defer engine.Close()

	// Get quote with spinner
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}
	err = engine.RefreshQuote(ctx, source, dest)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil && !engine.State().Rate.Valid {
		if verbose {
			fmt.Printf("\nDebug: provider %s could not quote %s to %s\n", cfg.Swap.Provider, source.CoinID(), dest.CoinID())
		}
		printError(err)
		os.Exit(1)
	}

	if preset != swap.PresetNone {
		if err := engine.ApplyPreset(preset); err != nil {
			printError(err)
			os.Exit(1)
		}
	} else {
		engine.EditAmount(swap.SideSource, swapReq.Amount)
	}

	state := engine.State()
	status := engine.ExchangeStatus()

	// Display quote
	if jsonOutput && (quoteOnly || !status.Ready()) {
		output := map[string]any{
			"source_amount": state.SourceText,
			"source_token":  source.Symbol,
			"dest_amount":   state.DestText,
			"dest_token":    dest.Symbol,
			"rate":          state.Rate.Decimal.String(),
			"limit_min":     state.LimitMin.String(),
			"limit_max":     state.LimitMax.String(),
			"status":        "quote_generated",
		}
		if !status.Ready() {
			output["status"] = "not_ready"
			output["error"] = status.ErrorKey
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
	} else if !jsonOutput {
		displayQuote(state)
	}

	if !status.Ready() {
		printError(fmt.Errorf("%s %s", message(status.ErrorKey), status.Suffix))
		os.Exit(1)
	}
	if quoteOnly {
		return
	}

	// Ask for confirmation
	if !noConfirm && !jsonOutput {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	if !jsonOutput {
		s.Suffix = " Placing order and sending deposit..."
		s.Start()
	}
	completion, err := engine.Exchange(ctx, estimator, cloud)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		// The notifier already explained the failure
		os.Exit(1)
	}

	if oneClick != nil {
		submitDeposit(ctx, oneClick, completion)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(completion, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Deposit sent successfully!")
	fmt.Printf("  Transaction ID: %s\n", color.CyanString(completion.Hash))
	fmt.Printf("  Order:          %s\n", completion.OrderID)

	if oneClick != nil {
		fmt.Println("\nYou can monitor the swap status using:")
		color.Cyan("  rwallet status %s\n", completion.OrderID)
	}
}

// newQuoteService returns the configured swap provider. The 1Click client is
// also returned on its own so the deposit can be reported to it.
func newQuoteService(cfg *config.Config, cloud *client.CloudClient, amount decimal.Decimal) (swap.QuoteService, *client.OneClickClient) {
	if cfg.Swap.Provider != config.ProviderOneClick {
		return cloud, nil
	}

	oneClick := client.NewOneClickClient(cfg.Swap.JWTToken, cfg.Swap.BaseURL).
		WithDepositLimits(amount, cfg.Swap.MinDeposit).
		WithAddresses(cfg.Addresses())
	return oneClick, oneClick
}

func submitDeposit(ctx context.Context, oneClick *client.OneClickClient, completion *types.Completion) {
	if err := oneClick.SubmitDepositTx(ctx, completion.OrderID, completion.Hash); err != nil {
		color.Yellow("\nCould not report the deposit to 1Click: %v", err)
		color.Yellow("The swap will start once the deposit is detected on chain.\n")
	}
}

func parsePreset(name string) (swap.Preset, error) {
	switch strings.ToLower(name) {
	case "":
		return swap.PresetNone, nil
	case "min":
		return swap.PresetMin, nil
	case "half":
		return swap.PresetHalf, nil
	case "all":
		return swap.PresetAll, nil
	default:
		return swap.PresetNone, fmt.Errorf("unknown preset %q. Expected min, half or all", name)
	}
}

func displayQuote(state swap.State) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", state.SourceText, color.YellowString(state.Source.Symbol))
	fmt.Printf("  To:                ~%s %s\n", state.DestText, color.YellowString(state.Dest.Symbol))
	fmt.Printf("  Rate:              1 %s = %s %s\n", state.Source.Symbol, state.Rate.Decimal, state.Dest.Symbol)
	fmt.Printf("  Balance:           %s %s\n", state.Source.Balance.StringFixed(state.Source.DisplayPlaces()), state.Source.Symbol)
	fmt.Printf("  Limits:            %s - %s %s\n", state.LimitMin, state.LimitMax, state.Source.Symbol)
	if state.Preset != swap.PresetNone {
		fmt.Printf("  Preset:            %s\n", state.Preset)
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
