package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/grinry/rwallet/pkg/types"
)

// Swap providers
const (
	ProviderCloud    = "cloud"
	ProviderOneClick = "oneclick"
)

// Config holds the application configuration
type Config struct {
	Env     string
	NetType string
	Server  ServerConfig
	Swap    SwapConfig
	Wallets map[string]WalletConfig
	Metrics MetricsConfig
}

// ServerConfig is the cloud function backend
type ServerConfig struct {
	URL     string
	AppID   string
	RestKey string
	Timeout time.Duration
}

// SwapConfig selects and configures the swap provider
type SwapConfig struct {
	Provider   string
	JWTToken   string
	BaseURL    string
	MinDeposit decimal.Decimal
	// ReserveFee makes the ALL preset leave room for the network fee
	ReserveFee bool
}

// WalletConfig is one currency's key material
type WalletConfig struct {
	Address    string `mapstructure:"address"`
	PrivateKey string `mapstructure:"private_key"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".rwallet")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Set default values
	viper.SetDefault("env", "production")
	viper.SetDefault("net_type", types.Mainnet)
	viper.SetDefault("server.timeout", 30*time.Second)
	viper.SetDefault("swap.provider", ProviderCloud)
	viper.SetDefault("swap.base_url", "https://1click.chaindefuser.com")
	viper.SetDefault("swap.min_deposit", "0")

	// Read from environment variables, e.g. RWALLET_SERVER_URL
	viper.SetEnvPrefix("RWALLET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	minDeposit, err := decimal.NewFromString(viper.GetString("swap.min_deposit"))
	if err != nil {
		return nil, fmt.Errorf("invalid swap.min_deposit: %w", err)
	}

	cfg := &Config{
		Env:     viper.GetString("env"),
		NetType: normalizeNetType(viper.GetString("net_type")),
		Server: ServerConfig{
			URL:     viper.GetString("server.url"),
			AppID:   viper.GetString("server.app_id"),
			RestKey: viper.GetString("server.rest_key"),
			Timeout: viper.GetDuration("server.timeout"),
		},
		Swap: SwapConfig{
			Provider:   strings.ToLower(viper.GetString("swap.provider")),
			JWTToken:   viper.GetString("swap.jwt_token"),
			BaseURL:    viper.GetString("swap.base_url"),
			MinDeposit: minDeposit,
			ReserveFee: viper.GetBool("swap.reserve_fee"),
		},
		Metrics: MetricsConfig{
			Addr: viper.GetString("metrics.addr"),
		},
	}

	wallets, err := loadWallets()
	if err != nil {
		return nil, err
	}
	cfg.Wallets = wallets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadWallets reads wallet.<symbol> from the config file, then lets
// RWALLET_WALLET_<SYMBOL>_ADDRESS and _PRIVATE_KEY override each field
func loadWallets() (map[string]WalletConfig, error) {
	wallets := map[string]WalletConfig{}
	if err := viper.UnmarshalKey("wallet", &wallets); err != nil {
		return nil, fmt.Errorf("failed to read wallet config: %w", err)
	}

	out := make(map[string]WalletConfig, len(wallets))
	for symbol, w := range wallets {
		out[strings.ToUpper(symbol)] = w
	}

	for _, spec := range types.SupportedCurrencies() {
		key := "wallet." + strings.ToLower(spec.Symbol)
		w := out[spec.Symbol]
		if v := viper.GetString(key + ".address"); v != "" {
			w.Address = v
		}
		if v := viper.GetString(key + ".private_key"); v != "" {
			w.PrivateKey = v
		}
		if w != (WalletConfig{}) {
			out[spec.Symbol] = w
		}
	}

	return out, nil
}

// normalizeNetType accepts "mainnet"/"testnet" in any case
func normalizeNetType(netType string) string {
	switch {
	case strings.EqualFold(netType, types.Mainnet):
		return types.Mainnet
	case strings.EqualFold(netType, types.Testnet):
		return types.Testnet
	default:
		return netType
	}
}

// Validate checks the settings every command depends on
func (c *Config) Validate() error {
	if c.NetType != types.Mainnet && c.NetType != types.Testnet {
		return fmt.Errorf("net_type must be %q or %q, got %q", types.Mainnet, types.Testnet, c.NetType)
	}

	switch c.Swap.Provider {
	case ProviderCloud:
	case ProviderOneClick:
		if c.Swap.JWTToken == "" {
			return fmt.Errorf("JWT token not found. Please set RWALLET_SWAP_JWT_TOKEN environment variable or add swap.jwt_token to .rwallet.yaml")
		}
	default:
		return fmt.Errorf("unknown swap provider %q", c.Swap.Provider)
	}

	return nil
}

// RequireServer reports an error when the cloud backend is not configured
func (c *Config) RequireServer() error {
	if c.Server.URL == "" || c.Server.AppID == "" {
		return fmt.Errorf("server not configured. Please set RWALLET_SERVER_URL and RWALLET_SERVER_APP_ID or add them to .rwallet.yaml")
	}
	return nil
}

// Currency builds the wallet currency for symbol from the configured keys
func (c *Config) Currency(symbol string) (types.Currency, error) {
	spec, ok := types.LookupCurrency(symbol)
	if !ok {
		return types.Currency{}, fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, symbol)
	}

	w, ok := c.Wallets[spec.Symbol]
	if !ok || w.Address == "" {
		return types.Currency{}, fmt.Errorf("no wallet configured for %s. Please add wallet.%s.address to .rwallet.yaml",
			spec.Symbol, strings.ToLower(spec.Symbol))
	}

	return types.Currency{
		Symbol:     spec.Symbol,
		ID:         spec.CoinID,
		NetType:    c.NetType,
		PrivateKey: w.PrivateKey,
		Address:    w.Address,
	}, nil
}

// Addresses maps each configured coin id to its wallet address
func (c *Config) Addresses() map[string]string {
	addresses := make(map[string]string, len(c.Wallets))
	for symbol, w := range c.Wallets {
		if spec, ok := types.LookupCurrency(symbol); ok && w.Address != "" {
			addresses[spec.CoinID] = w.Address
		}
	}
	return addresses
}
