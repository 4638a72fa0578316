package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/config"
	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
)

var metricsAddr string

var rootCmd = &cobra.Command{
	Use:   "rwallet",
	Short: "A multi-chain wallet CLI for BTC and Rootstock assets",
	Long: `rwallet builds, signs and broadcasts transactions for BTC, RBTC, RIF and DOC,
and swaps between them through an exchange provider. Keys stay local; the wallet
backend only builds raw transactions and relays signed ones.

Examples:
  rwallet send 0.001 BTC to mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef
  rwallet swap 0.01 BTC to RBTC
  rwallet fee 0.5 RBTC
  rwallet currencies
  rwallet status <deposit-address>`,
	Version: "0.1.0",
}

// Execute runs the root command. Ctrl+C cancels the command's context.
func Execute() error {
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
}

// bootstrap loads the configuration, sets up logging for --verbose and starts
// the metrics endpoint when one is configured
func bootstrap(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		if err := logger.Init(cfg.Env); err != nil {
			printError(fmt.Errorf("failed to initialize logger: %w", err))
			os.Exit(1)
		}
	}

	addr := cfg.Metrics.Addr
	if metricsAddr != "" {
		addr = metricsAddr
	}
	if addr != "" {
		serveMetrics(addr)
	}

	return cfg
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitor.Default.Handler())

	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
}

func printError(err error) {
	fmt.Printf("\n%s %v\n\n", color.RedString("Error:"), err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
