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
	"github.com/grinry/rwallet/pkg/parser"
	"github.com/grinry/rwallet/pkg/transaction"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

var (
	sendMemo      string
	sendData      string
	sendNoConfirm bool
)

var sendCmd = &cobra.Command{
	Use:   "send <amount> <token> to <address>",
	Short: "Send BTC, RBTC, RIF or DOC to an address",
	Long: `Build, sign and broadcast a transfer from your configured wallet.

The wallet backend builds the raw transaction, the key signs it locally and the
signed transaction is relayed back for broadcast.

Examples:
  rwallet send 0.001 BTC to mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef
  rwallet send 0.5 RBTC to 0x3dd03d7d6c3137f1eb7582ba5957b8a2e26f304a --yes
  rwallet send 10 RIF to 0x3dd03d7d6c3137f1eb7582ba5957b8a2e26f304a --memo rent`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVar(&sendMemo, "memo", "", "Memo stored with the transaction")
	sendCmd.Flags().StringVar(&sendData, "data", "", "Hex call data (RBTC only)")
	sendCmd.Flags().BoolVarP(&sendNoConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSend(cmd *cobra.Command, args []string) {
	// Parse the command
	req, err := parser.ParseSendCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	cfg := bootstrap(cmd)
	cloud := newCloudClient(cfg)

	amount, err := units.Parse(req.Amount)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Estimating network fee..."
		s.Start()
	}

	sender, err := loadCurrency(ctx, cfg, cloud, req.SourceToken)
	var estimate fee.Estimate
	if err == nil {
		estimate, err = fee.NewEstimator(cloud).Estimate(ctx, sender, req.Receiver, amount)
	}
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if sender.PrivateKey == "" {
		printError(fmt.Errorf("no private key configured for %s", sender.Symbol))
		os.Exit(1)
	}
	if amount.GreaterThan(sender.Balance) {
		printError(fmt.Errorf("%w: balance is %s %s", types.ErrInvalidAmount, sender.Balance, sender.Symbol))
		os.Exit(1)
	}

	if !jsonOutput {
		displayTransfer(sender, req.Receiver, req.Amount, estimate)
	}

	if !sendNoConfirm && !jsonOutput {
		if !confirm("Proceed with transfer?") {
			fmt.Println("\nTransfer cancelled.")
			os.Exit(0)
		}
	}

	pipeline, err := transaction.New(types.TransferIntent{
		Sender:   sender,
		Receiver: req.Receiver,
		Value:    amount,
		Data:     sendData,
		Memo:     sendMemo,
		Fee:      estimate.Params,
	}, cloud)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if !jsonOutput {
		s.Suffix = " Sending transaction..."
		s.Start()
	}
	hash, err := pipeline.Run(ctx)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(fmt.Errorf("transaction stopped at %s: %w", pipeline.State(), err))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(types.Completion{
			Symbol: sender.Symbol,
			Type:   sender.NetType,
			Hash:   hash,
		}, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	color.Green("\n✓ Transaction sent successfully!")
	fmt.Printf("  Transaction ID: %s\n\n", color.CyanString(hash))
}

func displayTransfer(sender types.Currency, receiver, amount string, estimate fee.Estimate) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                       TRANSFER")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s\n", color.HiBlackString(sender.Address))
	fmt.Printf("  To:                %s\n", color.CyanString(receiver))
	fmt.Printf("  Amount:            %s %s\n", amount, color.YellowString(sender.Symbol))
	fmt.Printf("  Network Fee:       %s %s\n", estimate.Fee.String(), feeSymbol(sender.Symbol))
	fmt.Printf("  Network:           %s\n", sender.NetType)

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

// feeSymbol is the currency gas is paid in
func feeSymbol(symbol string) string {
	spec, ok := types.LookupCurrency(symbol)
	if ok && spec.Family == types.FamilyAccount {
		return "RBTC"
	}
	return symbol
}
