package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/grinry/rwallet/config"
	"github.com/grinry/rwallet/pkg/client"
	"github.com/grinry/rwallet/pkg/types"
)

var (
	filterChain  string
	filterSymbol string
	listProvider string
)

var currenciesCmd = &cobra.Command{
	Use:     "currencies",
	Aliases: []string{"list-tokens", "tokens", "ls"},
	Short:   "List supported currencies",
	Long: `List the currencies the wallet can send and swap.

With --provider oneclick, list the tokens the 1Click API can swap instead.
Those can be filtered by blockchain or symbol.

Examples:
  rwallet currencies
  rwallet currencies --provider oneclick --chain btc
  rwallet currencies --provider oneclick --symbol USDC`,
	Run: runListCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)

	currenciesCmd.Flags().StringVar(&listProvider, "provider", "", "List a swap provider's tokens (oneclick)")
	currenciesCmd.Flags().StringVar(&filterChain, "chain", "", "Filter provider tokens by blockchain")
	currenciesCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter provider tokens by symbol")
}

func runListCurrencies(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	switch strings.ToLower(listProvider) {
	case "":
		listWalletCurrencies(jsonOutput)
	case config.ProviderOneClick:
		listOneClickTokens(cmd, jsonOutput)
	default:
		printError(fmt.Errorf("unknown provider %q", listProvider))
		os.Exit(1)
	}
}

func listWalletCurrencies(jsonOutput bool) {
	specs := types.SupportedCurrencies()

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(specs, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     SUPPORTED CURRENCIES")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()
	for _, spec := range specs {
		fmt.Printf("  %-6s  %-16s  %-8s  %2d decimals  shows %d\n",
			color.YellowString(spec.Symbol),
			spec.Name,
			spec.Family,
			spec.BaseDecimals,
			spec.DisplayPlaces)
	}
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func listOneClickTokens(cmd *cobra.Command, jsonOutput bool) {
	cfg := bootstrap(cmd)
	if cfg.Swap.JWTToken == "" {
		printError(fmt.Errorf("JWT token not found. Please set RWALLET_SWAP_JWT_TOKEN environment variable or add swap.jwt_token to .rwallet.yaml"))
		os.Exit(1)
	}

	// Create client
	apiClient := client.NewOneClickClient(cfg.Swap.JWTToken, cfg.Swap.BaseURL)

	// Get tokens with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	tokens, err := apiClient.GetSupportedTokens(cmd.Context())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply filters
	filtered := tokens
	if filterChain != "" {
		var temp []oneclick.TokenResponse
		for _, token := range filtered {
			if strings.EqualFold(token.GetBlockchain(), filterChain) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if filterSymbol != "" {
		var temp []oneclick.TokenResponse
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.GetSymbol()), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	// Output
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}
}

func displayTokens(tokens []oneclick.TokenResponse) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                         1CLICK SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	// Group tokens by blockchain
	tokensByChain := make(map[string][]oneclick.TokenResponse)
	for _, token := range tokens {
		chain := token.GetBlockchain()
		tokensByChain[chain] = append(tokensByChain[chain], token)
	}

	// Sort chains alphabetically
	chains := make([]string, 0, len(tokensByChain))
	for chain := range tokensByChain {
		chains = append(chains, chain)
	}
	sort.Strings(chains)

	for _, chain := range chains {
		color.Cyan("\n%s", strings.ToUpper(chain))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokensByChain[chain] {
			address := token.GetContractAddress()
			if len(address) > 40 {
				address = address[:37] + "..."
			}

			fmt.Printf("  %-10s  %2.0f decimals  %s\n",
				color.YellowString(token.GetSymbol()),
				token.GetDecimals(),
				color.HiBlackString(address))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", len(tokens), len(chains))
}
