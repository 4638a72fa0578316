package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/grinry/rwallet/pkg/types"
)

// Rootstock chain ids
const (
	rskMainnetChainID = 30
	rskTestnetChainID = 31
)

// AccountAdapter handles Rootstock transfers (RBTC and the RIF/DOC tokens)
type AccountAdapter struct{}

// accountRawParams is the createRawTransaction payload for Rootstock
type accountRawParams struct {
	Symbol   string `json:"symbol"`
	Type     string `json:"type"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Value    string `json:"value"`
	Data     string `json:"data"`
	GasPrice string `json:"gasPrice"`
	Gas      uint64 `json:"gas"`
	Memo     string `json:"memo,omitempty"`
}

// accountRawTransaction is the builder's unsigned legacy transaction
type accountRawTransaction struct {
	Nonce    types.Quantity `json:"nonce"`
	GasPrice types.Quantity `json:"gasPrice"`
	Gas      types.Quantity `json:"gas"`
	To       string         `json:"to"`
	Value    types.Quantity `json:"value"`
	Data     string         `json:"data"`
	ChainID  types.Quantity `json:"chainId"`
}

// Family implements Adapter
func (a *AccountAdapter) Family() types.Family {
	return types.FamilyAccount
}

// RawTransactionParams implements Adapter
func (a *AccountAdapter) RawTransactionParams(req RawRequest) (any, error) {
	if !common.IsHexAddress(req.Receiver) {
		return nil, fmt.Errorf("invalid receiver address: %s", req.Receiver)
	}

	return accountRawParams{
		Symbol:   strings.ToUpper(req.Symbol),
		Type:     req.NetType,
		Sender:   req.Sender,
		Receiver: strings.ToLower(req.Receiver),
		Value:    req.Value,
		Data:     req.Data,
		GasPrice: req.Fee.GasPrice,
		Gas:      req.Fee.Gas,
		Memo:     req.Memo,
	}, nil
}

// Sign implements Adapter. The result is the 0x-prefixed RLP encoding of an
// EIP-155 signed legacy transaction.
func (a *AccountAdapter) Sign(ctx context.Context, req SignRequest) (types.SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var raw accountRawTransaction
	if err := json.Unmarshal(req.Raw, &raw); err != nil {
		return "", fmt.Errorf("failed to decode raw transaction: %w", err)
	}

	if !common.IsHexAddress(raw.To) {
		return "", fmt.Errorf("invalid recipient address: %s", raw.To)
	}

	var data []byte
	if raw.Data != "" {
		decoded, err := hexutil.Decode(raw.Data)
		if err != nil {
			return "", fmt.Errorf("invalid transaction data: %w", err)
		}
		data = decoded
	}

	chainID := raw.ChainID.BigInt()
	if chainID.Sign() == 0 {
		id, err := rskChainID(req.NetType)
		if err != nil {
			return "", err
		}
		chainID = id
	}

	// Parse private key
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(req.PrivateKey, "0x"))
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}

	tx := ethtypes.NewTransaction(
		raw.Nonce.BigInt().Uint64(),
		common.HexToAddress(raw.To),
		raw.Value.BigInt(),
		raw.Gas.BigInt().Uint64(),
		raw.GasPrice.BigInt(),
		data,
	)

	signedTx, err := ethtypes.SignTx(tx, ethtypes.NewEIP155Signer(chainID), privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	encoded, err := signedTx.MarshalBinary()
	if err != nil {
		return "", fmt.Errorf("failed to encode signed transaction: %w", err)
	}

	return types.SignedTransaction(hexutil.Encode(encoded)), nil
}

// BroadcastParams implements Adapter
func (a *AccountAdapter) BroadcastParams(req BroadcastRequest) any {
	return broadcastParams{
		Name:       "Rootstock",
		Hash:       string(req.Signed),
		Type:       req.NetType,
		Memo:       req.Memo,
		Coinswitch: req.Order,
	}
}

// TxHash implements Adapter. The broadcaster answers either with the bare
// hash or with an object carrying it in "hash".
func (a *AccountAdapter) TxHash(result types.BroadcastResult) (string, error) {
	var hash string
	if err := json.Unmarshal(result, &hash); err == nil && hash != "" {
		return hash, nil
	}

	var body struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return "", fmt.Errorf("failed to decode broadcast result: %w", err)
	}
	if body.Hash == "" {
		return "", fmt.Errorf("broadcast result has no hash")
	}
	return body.Hash, nil
}

func rskChainID(netType string) (*big.Int, error) {
	switch netType {
	case types.Mainnet:
		return big.NewInt(rskMainnetChainID), nil
	case types.Testnet:
		return big.NewInt(rskTestnetChainID), nil
	default:
		return nil, fmt.Errorf("unknown network type %q", netType)
	}
}
