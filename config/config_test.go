package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grinry/rwallet/pkg/types"
)

func loadClean(t *testing.T) (*Config, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load()
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, types.Mainnet, cfg.NetType)
	assert.Equal(t, ProviderCloud, cfg.Swap.Provider)
	assert.Equal(t, 30*time.Second, cfg.Server.Timeout)
	assert.True(t, cfg.Swap.MinDeposit.IsZero())
	assert.Error(t, cfg.RequireServer())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RWALLET_NET_TYPE", "testnet")
	t.Setenv("RWALLET_SERVER_URL", "https://wallet.example/parse")
	t.Setenv("RWALLET_SERVER_APP_ID", "app")
	t.Setenv("RWALLET_SWAP_MIN_DEPOSIT", "0.002")
	t.Setenv("RWALLET_WALLET_BTC_ADDRESS", "mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef")
	t.Setenv("RWALLET_WALLET_BTC_PRIVATE_KEY", "cTestKey")

	cfg, err := loadClean(t)
	require.NoError(t, err)
	require.NoError(t, cfg.RequireServer())

	assert.Equal(t, "0.002", cfg.Swap.MinDeposit.String())

	btc, err := cfg.Currency("btc")
	require.NoError(t, err)
	assert.Equal(t, "BTC", btc.Symbol)
	assert.Equal(t, types.Testnet, btc.NetType)
	assert.Equal(t, "cTestKey", btc.PrivateKey)
	assert.Equal(t, map[string]string{"btc": "mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef"}, cfg.Addresses())

	_, err = cfg.Currency("RBTC")
	assert.Error(t, err)
	_, err = cfg.Currency("ETH")
	assert.ErrorIs(t, err, types.ErrUnsupportedCurrency)
}

func TestValidate(t *testing.T) {
	cfg := &Config{NetType: types.Testnet, Swap: SwapConfig{Provider: ProviderOneClick}}
	assert.Error(t, cfg.Validate())

	cfg.Swap.JWTToken = "token"
	assert.NoError(t, cfg.Validate())

	cfg.NetType = "regtest"
	assert.Error(t, cfg.Validate())

	cfg.NetType = types.Mainnet
	cfg.Swap.Provider = "uniswap"
	assert.Error(t, cfg.Validate())
}
