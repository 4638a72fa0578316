package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grinry/rwallet/pkg/types"
	"github.com/grinry/rwallet/pkg/units"
)

var (
	// <amount> <source_token> TO <dest_token>
	swapPattern = regexp.MustCompile(`^(\d+\.?\d*|\.\d+)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)

	// <amount> <token> TO <address>. Addresses keep their case.
	sendPattern = regexp.MustCompile(`^(?i:send\s+)?(\d+\.?\d*|\.\d+)\s+([A-Za-z0-9]+)\s+(?i:to)\s+(\S+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 0.01 BTC to RBTC"
//   - "1.5 RIF to DOC"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	// Normalize the command
	command = strings.TrimSpace(strings.ToUpper(command))

	// Remove the word "SWAP" if present at the beginning
	command = strings.TrimPrefix(command, "SWAP ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 0.01 BTC to RBTC')")
	}

	req := &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: NormalizeTokenSymbol(matches[2]),
		DestToken:   NormalizeTokenSymbol(matches[3]),
	}
	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	if req.SourceToken == req.DestToken {
		return nil, fmt.Errorf("cannot swap %s to itself", req.SourceToken)
	}
	return req, nil
}

// ParseSendCommand parses a send command
// Examples:
//   - "send 0.5 RBTC to 0x3dd03d7d6c3137f1eb7582ba5957b8a2e26f304a"
//   - "0.001 BTC to mzBc4XEFSdzCDcTxAgf6EZXgsZWpztRhef"
func ParseSendCommand(command string) (*types.SwapRequest, error) {
	matches := sendPattern.FindStringSubmatch(strings.TrimSpace(command))
	if matches == nil {
		return nil, fmt.Errorf("invalid send command format. Expected: 'send <amount> <token> to <address>' (e.g., 'send 0.5 RBTC to 0x...')")
	}

	symbol := NormalizeTokenSymbol(matches[2])
	req := &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: symbol,
		DestToken:   symbol,
		Receiver:    matches[3],
	}
	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	amount, err := units.Parse(req.Amount)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", types.ErrInvalidAmount)
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if _, ok := types.LookupCurrency(req.SourceToken); !ok {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, req.SourceToken)
	}
	if _, ok := types.LookupCurrency(req.DestToken); !ok {
		return fmt.Errorf("%w: %s", types.ErrUnsupportedCurrency, req.DestToken)
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	// Convert to uppercase for consistency
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	// Handle common aliases
	aliases := map[string]string{
		"XBT":   "BTC",
		"WRBTC": "RBTC",
		"SBTC":  "RBTC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
