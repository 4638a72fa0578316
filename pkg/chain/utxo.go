package chain

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/grinry/rwallet/pkg/types"
)

// UTXOAdapter handles Bitcoin transfers
type UTXOAdapter struct{}

// utxoRawParams is the createRawTransaction payload for BTC
type utxoRawParams struct {
	Symbol   string `json:"symbol"`
	Type     string `json:"type"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Value    string `json:"value"`
	Fees     string `json:"fees"`
	Memo     string `json:"memo,omitempty"`
}

// utxoRawTransaction is the builder's answer: the unsigned transaction and
// the script of the output each input spends, in input order.
type utxoRawTransaction struct {
	Tx     string      `json:"tx"`
	Inputs []utxoInput `json:"inputs"`
}

type utxoInput struct {
	PkScript string `json:"pkScript"`
}

// Family implements Adapter
func (a *UTXOAdapter) Family() types.Family {
	return types.FamilyUTXO
}

// RawTransactionParams implements Adapter
func (a *UTXOAdapter) RawTransactionParams(req RawRequest) (any, error) {
	params, err := networkParams(req.NetType)
	if err != nil {
		return nil, err
	}
	if _, err := btcutil.DecodeAddress(req.Receiver, params); err != nil {
		return nil, fmt.Errorf("invalid receiver address %s: %w", req.Receiver, err)
	}

	return utxoRawParams{
		Symbol:   strings.ToUpper(req.Symbol),
		Type:     req.NetType,
		Sender:   req.Sender,
		Receiver: req.Receiver,
		Value:    req.Value,
		Fees:     req.Fee.Fees,
		Memo:     req.Memo,
	}, nil
}

// Sign implements Adapter. Every input is signed SIGHASH_ALL with the
// sender's WIF key.
func (a *UTXOAdapter) Sign(ctx context.Context, req SignRequest) (types.SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params, err := networkParams(req.NetType)
	if err != nil {
		return "", err
	}

	var raw utxoRawTransaction
	if err := json.Unmarshal(req.Raw, &raw); err != nil {
		return "", fmt.Errorf("failed to decode raw transaction: %w", err)
	}

	txBytes, err := hex.DecodeString(raw.Tx)
	if err != nil {
		return "", fmt.Errorf("failed to decode transaction hex: %w", err)
	}

	msgTx := wire.NewMsgTx(wire.TxVersion)
	if err := msgTx.Deserialize(bytes.NewReader(txBytes)); err != nil {
		return "", fmt.Errorf("failed to deserialize transaction: %w", err)
	}

	if len(raw.Inputs) != len(msgTx.TxIn) {
		return "", fmt.Errorf("raw transaction has %d inputs but %d scripts", len(msgTx.TxIn), len(raw.Inputs))
	}

	wif, err := btcutil.DecodeWIF(req.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("invalid private key: %w", err)
	}
	if !wif.IsForNet(params) {
		return "", fmt.Errorf("private key is not for %s", params.Name)
	}

	for i, input := range raw.Inputs {
		pkScript, err := hex.DecodeString(input.PkScript)
		if err != nil {
			return "", fmt.Errorf("failed to decode script of input %d: %w", i, err)
		}

		sigScript, err := txscript.SignatureScript(msgTx, i, pkScript, txscript.SigHashAll, wif.PrivKey, wif.CompressPubKey)
		if err != nil {
			return "", fmt.Errorf("failed to sign input %d: %w", i, err)
		}
		msgTx.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	buf.Grow(msgTx.SerializeSize())
	if err := msgTx.Serialize(&buf); err != nil {
		return "", fmt.Errorf("failed to serialize signed transaction: %w", err)
	}

	return types.SignedTransaction(hex.EncodeToString(buf.Bytes())), nil
}

// BroadcastParams implements Adapter
func (a *UTXOAdapter) BroadcastParams(req BroadcastRequest) any {
	return broadcastParams{
		Name:       "Bitcoin",
		Hash:       string(req.Signed),
		Type:       req.NetType,
		Memo:       req.Memo,
		Coinswitch: req.Order,
	}
}

// TxHash implements Adapter. The broadcaster reports the id in "txid".
func (a *UTXOAdapter) TxHash(result types.BroadcastResult) (string, error) {
	var body struct {
		TxID string `json:"txid"`
	}
	if err := json.Unmarshal(result, &body); err != nil {
		return "", fmt.Errorf("failed to decode broadcast result: %w", err)
	}
	if body.TxID == "" {
		return "", fmt.Errorf("broadcast result has no txid")
	}
	return body.TxID, nil
}

func networkParams(netType string) (*chaincfg.Params, error) {
	switch netType {
	case types.Mainnet:
		return &chaincfg.MainNetParams, nil
	case types.Testnet:
		return &chaincfg.TestNet3Params, nil
	default:
		return nil, fmt.Errorf("unknown network type %q", netType)
	}
}
