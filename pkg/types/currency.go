package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Family identifies how a chain models value
type Family int

const (
	// FamilyUTXO covers chains that spend unspent outputs (BTC)
	FamilyUTXO Family = iota + 1
	// FamilyAccount covers account/nonce chains (Rootstock)
	FamilyAccount
)

func (f Family) String() string {
	switch f {
	case FamilyUTXO:
		return "utxo"
	case FamilyAccount:
		return "account"
	default:
		return "unknown"
	}
}

// MarshalText renders the family by name
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Network types understood by the remote services
const (
	Mainnet = "Mainnet"
	Testnet = "Testnet"
)

// CurrencySpec describes a supported currency symbol
type CurrencySpec struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Family        Family `json:"family"`
	BaseDecimals  int32  `json:"decimals"`      // exponent between coin and base unit
	DisplayPlaces int32  `json:"displayPlaces"` // places amounts are rounded to in the swap screen
	CoinID        string `json:"coinId"`
}

var registry = map[string]CurrencySpec{
	"BTC":  {Symbol: "BTC", Name: "Bitcoin", Family: FamilyUTXO, BaseDecimals: 8, DisplayPlaces: 8, CoinID: "btc"},
	"RBTC": {Symbol: "RBTC", Name: "Smart Bitcoin", Family: FamilyAccount, BaseDecimals: 18, DisplayPlaces: 6, CoinID: "rbtc"},
	"RIF":  {Symbol: "RIF", Name: "RIF Token", Family: FamilyAccount, BaseDecimals: 18, DisplayPlaces: 4, CoinID: "rif"},
	"DOC":  {Symbol: "DOC", Name: "Dollar on Chain", Family: FamilyAccount, BaseDecimals: 18, DisplayPlaces: 2, CoinID: "doc"},
}

// symbolOrder keeps listings stable
var symbolOrder = []string{"BTC", "RBTC", "RIF", "DOC"}

// LookupCurrency resolves a symbol to its spec. Symbols are case-insensitive.
func LookupCurrency(symbol string) (CurrencySpec, bool) {
	spec, ok := registry[strings.ToUpper(strings.TrimSpace(symbol))]
	return spec, ok
}

// SupportedCurrencies returns every known currency in display order
func SupportedCurrencies() []CurrencySpec {
	specs := make([]CurrencySpec, 0, len(symbolOrder))
	for _, symbol := range symbolOrder {
		specs = append(specs, registry[symbol])
	}
	return specs
}

// Currency is a wallet coin: a symbol on a network with the key material to
// spend from Address. It is treated as immutable once handed to a transfer.
type Currency struct {
	Symbol     string
	ID         string
	NetType    string
	PrivateKey string
	Address    string
	Balance    decimal.Decimal
	// UsdRate is the fiat price of one coin; zero when unknown
	UsdRate decimal.Decimal
}

// Spec returns the registry entry for the currency's symbol
func (c Currency) Spec() (CurrencySpec, bool) {
	return LookupCurrency(c.Symbol)
}

// DisplayPlaces returns the rounding precision for the currency, 8 when the
// symbol is unknown.
func (c Currency) DisplayPlaces() int32 {
	if spec, ok := c.Spec(); ok {
		return spec.DisplayPlaces
	}
	return 8
}

// CoinID returns the identifier used by swap providers
func (c Currency) CoinID() string {
	if c.ID != "" {
		return c.ID
	}
	if spec, ok := c.Spec(); ok {
		return spec.CoinID
	}
	return strings.ToLower(c.Symbol)
}
