package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
)

type recordedCall struct {
	path    string
	appID   string
	restKey string
	body    map[string]any
}

func newCloudServer(t *testing.T, reply string, status int) (*CloudClient, *[]recordedCall) {
	t.Helper()

	var calls []recordedCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		calls = append(calls, recordedCall{
			path:    r.URL.Path,
			appID:   r.Header.Get("X-Parse-Application-Id"),
			restKey: r.Header.Get("X-Parse-REST-API-Key"),
			body:    body,
		})

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	c := NewCloudClient(server.URL+"/parse/", "app-id", "rest-key", 5*time.Second).WithMetrics(monitor.New())
	return c, &calls
}

func TestCloudRunSendsHeaders(t *testing.T) {
	c, calls := newCloudServer(t, `{"result":{"txid":"abc"}}`, http.StatusOK)

	result, err := c.SendSignedTransaction(context.Background(), map[string]string{"name": "Bitcoin"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"txid":"abc"}`, string(result))

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "/parse/functions/sendSignedTransaction", call.path)
	assert.Equal(t, "app-id", call.appID)
	assert.Equal(t, "rest-key", call.restKey)
	assert.Equal(t, "Bitcoin", call.body["name"])
}

func TestCloudServiceError(t *testing.T) {
	c, _ := newCloudServer(t, `{"code":141,"error":"err.customized|Order expired"}`, http.StatusBadRequest)

	_, err := c.PlaceOrder(context.Background(), types.OrderRequest{DepositCoin: "btc", DestinationCoin: "rbtc"})
	require.Error(t, err)

	var serviceErr *ServiceError
	require.True(t, errors.As(err, &serviceErr))
	assert.Equal(t, 141, serviceErr.ErrorCode())
	assert.Equal(t, "err.customized", serviceErr.Key())
	assert.Equal(t, "Order expired", serviceErr.Detail())
	assert.False(t, errors.Is(err, types.ErrRemoteService))
}

func TestCloudTransportError(t *testing.T) {
	c, _ := newCloudServer(t, `<html>bad gateway</html>`, http.StatusBadGateway)

	_, err := c.CreateRawTransaction(context.Background(), map[string]string{})
	assert.ErrorIs(t, err, types.ErrRemoteService)
}

func TestCloudGetTransactionFees(t *testing.T) {
	c, calls := newCloudServer(t, `{"result":{"gas":"0x5208","gasPrice":{"low":"59240000","medium":"60000000","high":"65000000"}}}`, http.StatusOK)

	quote, err := c.GetTransactionFees(context.Background(), fee.Request{
		Symbol: "RBTC",
		Type:   types.Testnet,
		From:   "0xa",
		To:     "0xb",
		Amount: "0x1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(21000), quote.Gas.BigInt().Int64())
	assert.Equal(t, int64(60000000), quote.GasPrice.Medium.BigInt().Int64())

	body := (*calls)[0].body
	assert.Equal(t, "RBTC", body["symbol"])
	assert.Equal(t, "0xa", body["sender"])
	assert.Equal(t, "0xb", body["receiver"])
	assert.Equal(t, "0x1", body["value"])
}

func TestCloudGetRate(t *testing.T) {
	c, calls := newCloudServer(t, `{"result":{"rate":"35.2","limitMinDepositCoin":0.002,"limitMaxDepositCoin":"2"}}`, http.StatusOK)

	quote, err := c.GetRate(context.Background(), "btc", "rbtc")
	require.NoError(t, err)
	assert.Equal(t, "35.2", quote.Rate.String())
	assert.Equal(t, "0.002", quote.LimitMinDepositCoin.String())

	assert.Equal(t, "/parse/functions/coinswitchGetRate", (*calls)[0].path)
	assert.Equal(t, "btc", (*calls)[0].body["depositCoin"])
	assert.Equal(t, "rbtc", (*calls)[0].body["destinationCoin"])
}

func TestCloudPlaceOrder(t *testing.T) {
	c, calls := newCloudServer(t, `{"result":{"orderId":"o-1","exchangeAddress":{"address":"2N1","tag":"7"}}}`, http.StatusOK)

	order, err := c.PlaceOrder(context.Background(), types.OrderRequest{
		DepositCoin:        "btc",
		DestinationCoin:    "rbtc",
		DepositCoinAmount:  decimal.RequireFromString("0.01"),
		DestinationAddress: types.SwapAddress{Address: "0xdest"},
		RefundAddress:      types.SwapAddress{Address: "mrefund"},
	})
	require.NoError(t, err)
	assert.Equal(t, "o-1", order.OrderID)
	assert.Equal(t, "7", order.ExchangeAddress.Tag)

	body := (*calls)[0].body
	assert.Equal(t, "0.01", body["depositCoinAmount"])
	assert.Equal(t, map[string]any{"address": "0xdest"}, body["destinationAddress"])
	assert.Equal(t, map[string]any{"address": "mrefund"}, body["refundAddress"])
}

func TestCloudGetBalance(t *testing.T) {
	c, calls := newCloudServer(t, `{"result":"0x2386f26fc10000"}`, http.StatusOK)

	balance, err := c.GetBalance(context.Background(), "rbtc", types.Mainnet, "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", balance.BigInt().String())
	assert.Equal(t, "RBTC", (*calls)[0].body["symbol"])
}

func TestCloudRecordsLatency(t *testing.T) {
	c, _ := newCloudServer(t, `{"result":null}`, http.StatusOK)
	m := monitor.New()
	c.WithMetrics(m)

	require.NoError(t, c.Run(context.Background(), "ping", nil, nil))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RemoteCallSeconds))
}
