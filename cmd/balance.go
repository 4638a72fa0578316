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
	"github.com/spf13/cobra"

	"github.com/grinry/rwallet/config"
	"github.com/grinry/rwallet/pkg/client"
	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

var balanceCmd = &cobra.Command{
	Use:   "balance [symbol...]",
	Short: "Show wallet balances",
	Long: `Show the balance of every configured wallet, or only of the given currencies.

Examples:
  rwallet balance
  rwallet balance BTC RIF`,
	Run: runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func runBalance(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	cfg := bootstrap(cmd)
	cloud := newCloudClient(cfg)

	symbols := args
	if len(symbols) == 0 {
		for _, spec := range types.SupportedCurrencies() {
			if _, ok := cfg.Wallets[spec.Symbol]; ok {
				symbols = append(symbols, spec.Symbol)
			}
		}
	}
	if len(symbols) == 0 {
		printError(fmt.Errorf("no wallets configured. Please add wallet.<symbol>.address to .rwallet.yaml"))
		os.Exit(1)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balances..."
		s.Start()
	}

	currencies := make([]types.Currency, 0, len(symbols))
	for _, symbol := range symbols {
		currency, err := loadCurrency(cmd.Context(), cfg, cloud, symbol)
		if err != nil {
			s.Stop()
			printError(err)
			os.Exit(1)
		}
		currencies = append(currencies, currency)
	}
	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		output := make([]map[string]string, 0, len(currencies))
		for _, c := range currencies {
			output = append(output, map[string]string{
				"symbol":  c.Symbol,
				"type":    c.NetType,
				"address": c.Address,
				"balance": c.Balance.String(),
			})
		}
		jsonData, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                          BALANCES (%s)", cfg.NetType)
	fmt.Println(strings.Repeat("=", 70))
	for _, c := range currencies {
		fmt.Printf("\n  %-6s %s\n", color.YellowString(c.Symbol), c.Balance.StringFixed(c.DisplayPlaces()))
		fmt.Printf("         %s\n", color.HiBlackString(c.Address))
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

// newCloudClient builds the wallet backend client or exits when it is not
// configured
func newCloudClient(cfg *config.Config) *client.CloudClient {
	if err := cfg.RequireServer(); err != nil {
		printError(err)
		os.Exit(1)
	}
	return client.NewCloudClient(cfg.Server.URL, cfg.Server.AppID, cfg.Server.RestKey, cfg.Server.Timeout)
}

// loadCurrency builds the configured currency for symbol with its current
// balance
func loadCurrency(ctx context.Context, cfg *config.Config, cloud *client.CloudClient, symbol string) (types.Currency, error) {
	currency, err := cfg.Currency(symbol)
	if err != nil {
		return types.Currency{}, err
	}

	raw, err := cloud.GetBalance(ctx, currency.Symbol, currency.NetType, currency.Address)
	if err != nil {
		return types.Currency{}, fmt.Errorf("failed to get %s balance: %w", currency.Symbol, err)
	}

	balance, err := units.FromBaseUnits(currency.Symbol, raw.BigInt())
	if err != nil {
		return types.Currency{}, err
	}
	currency.Balance = balance
	return currency, nil
}
