package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/grinry/rwallet/pkg/client"
	"github.com/grinry/rwallet/pkg/types"
)

var (
	watchStatus   bool
	watchInterval time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status <order-id>",
	Short: "Check the progress of a 1Click swap order",
	Long: `Check the progress of a swap order placed through the 1Click provider.
The order id is the deposit address printed by the swap command.

Examples:
  rwallet status 2N1...
  rwallet status 2N1... --watch --interval 10s`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Poll until the order settles")
	statusCmd.Flags().DurationVar(&watchInterval, "interval", 5*time.Second, "Polling interval when watching")
}

func runStatus(cmd *cobra.Command, args []string) {
	orderID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg := bootstrap(cmd)
	if cfg.Swap.JWTToken == "" {
		printError(fmt.Errorf("JWT token not found. Please set RWALLET_SWAP_JWT_TOKEN environment variable or add swap.jwt_token to .rwallet.yaml"))
		os.Exit(1)
	}
	oneClick := client.NewOneClickClient(cfg.Swap.JWTToken, cfg.Swap.BaseURL)

	if !watchStatus {
		progress, err := fetchProgress(cmd.Context(), oneClick, orderID, jsonOutput)
		if err != nil {
			printError(err)
			os.Exit(1)
		}
		printProgress(progress, jsonOutput)
		return
	}

	if watchInterval <= 0 {
		printError(fmt.Errorf("interval must be positive"))
		os.Exit(1)
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		progress, err := oneClick.GetSwapStatus(cmd.Context(), orderID)
		if err != nil {
			printError(err)
		} else {
			printProgress(progress, jsonOutput)
			if progress.Final() {
				return
			}
		}

		select {
		case <-cmd.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func fetchProgress(ctx context.Context, oneClick *client.OneClickClient, orderID string, quiet bool) (*types.SwapProgress, error) {
	if quiet {
		return oneClick.GetSwapStatus(ctx, orderID)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Checking order status..."
	s.Start()
	defer s.Stop()

	return oneClick.GetSwapStatus(ctx, orderID)
}

func printProgress(progress *types.SwapProgress, jsonOutput bool) {
	if jsonOutput {
		jsonData, _ := json.Marshal(progress)
		fmt.Println(string(jsonData))
		return
	}

	fmt.Printf("\n  Order:     %s\n", color.CyanString(progress.OrderID))
	fmt.Printf("  Status:    %s\n", coloredProgress(progress.Status))
	fmt.Printf("  Updated:   %s\n", progress.UpdatedAt.Format("2006-01-02 15:04:05"))
	if progress.AmountIn != "" {
		fmt.Printf("  Sent:      %s\n", progress.AmountIn)
	}
	if progress.AmountOut != "" {
		fmt.Printf("  Received:  %s\n", progress.AmountOut)
	}
	for _, hash := range progress.DepositHashes {
		fmt.Printf("  Deposit:   %s\n", color.HiBlackString(hash))
	}
	for _, hash := range progress.PayoutHashes {
		fmt.Printf("  Payout:    %s\n", color.HiBlackString(hash))
	}

	if progress.Status == types.SwapSucceeded {
		printSuccess("Swap complete")
	}
}

func coloredProgress(status string) string {
	switch status {
	case types.SwapSucceeded:
		return color.GreenString(status)
	case types.SwapFailed, types.SwapRefunded:
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
