package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/fee"
	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
)

// ServiceError is a coded failure returned by a cloud function
type ServiceError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("cloud error (code %d): %s", e.Code, e.Message)
}

// ErrorCode returns the numeric error code
func (e *ServiceError) ErrorCode() int { return e.Code }

// ErrorMessage returns the raw, pipe-delimited message
func (e *ServiceError) ErrorMessage() string { return e.Message }

// Key is the part of the message before the first "|"
func (e *ServiceError) Key() string {
	key, _, _ := strings.Cut(e.Message, "|")
	return key
}

// Detail is the part of the message after the first "|", if any
func (e *ServiceError) Detail() string {
	_, detail, _ := strings.Cut(e.Message, "|")
	return detail
}

// CloudClient calls the wallet backend's cloud functions
type CloudClient struct {
	baseURL string
	appID   string
	restKey string
	client  *http.Client
	metrics *monitor.Metrics
}

// NewCloudClient creates a client for the server at baseURL
func NewCloudClient(baseURL, appID, restKey string, timeout time.Duration) *CloudClient {
	return &CloudClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		restKey: restKey,
		client:  &http.Client{Timeout: timeout},
		metrics: monitor.Default,
	}
}

// WithMetrics records call latencies on m
func (c *CloudClient) WithMetrics(m *monitor.Metrics) *CloudClient {
	c.metrics = m
	return c
}

type cloudResponse struct {
	Result json.RawMessage `json:"result"`
	Code   int             `json:"code"`
	Error  string          `json:"error"`
}

// Run calls the cloud function fn with params and decodes its result into out.
// out may be nil when the result is not needed.
func (c *CloudClient) Run(ctx context.Context, fn string, params any, out any) error {
	result, err := c.call(ctx, fn, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", fn, err)
	}
	return nil
}

func (c *CloudClient) call(ctx context.Context, fn string, params any) (json.RawMessage, error) {
	start := time.Now()
	defer func() {
		c.metrics.ObserveRemoteCall(fn, time.Since(start).Seconds())
	}()

	if params == nil {
		params = struct{}{}
	}
	reqBody, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s params: %w", fn, err)
	}

	url := fmt.Sprintf("%s/functions/%s", c.baseURL, fn)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Parse-Application-Id", c.appID)
	if c.restKey != "" {
		req.Header.Set("X-Parse-REST-API-Key", c.restKey)
	}

	logger.Debug("cloud call", zap.String("function", fn))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s: %w", types.ErrRemoteService, fn, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s response: %w", types.ErrRemoteService, fn, err)
	}

	var cloudResp cloudResponse
	if err := json.Unmarshal(body, &cloudResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("%w: %s returned status %d: %s", types.ErrRemoteService, fn, resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("%w: failed to parse %s response: %w", types.ErrRemoteService, fn, err)
	}

	if cloudResp.Error != "" || cloudResp.Code != 0 {
		serviceErr := &ServiceError{Code: cloudResp.Code, Message: cloudResp.Error}
		logger.Warn("cloud function failed",
			zap.String("function", fn),
			zap.Int("code", serviceErr.Code),
			zap.String("key", serviceErr.Key()))
		return nil, serviceErr
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", types.ErrRemoteService, fn, resp.StatusCode)
	}

	return cloudResp.Result, nil
}

// CreateRawTransaction implements transaction.Service
func (c *CloudClient) CreateRawTransaction(ctx context.Context, params any) (types.RawTransaction, error) {
	var raw json.RawMessage
	if err := c.Run(ctx, "createRawTransaction", params, &raw); err != nil {
		return nil, err
	}
	return types.RawTransaction(raw), nil
}

// SendSignedTransaction implements transaction.Service
func (c *CloudClient) SendSignedTransaction(ctx context.Context, params any) (types.BroadcastResult, error) {
	var result json.RawMessage
	if err := c.Run(ctx, "sendSignedTransaction", params, &result); err != nil {
		return nil, err
	}
	return types.BroadcastResult(result), nil
}

// GetTransactionFees implements fee.QuoteService
func (c *CloudClient) GetTransactionFees(ctx context.Context, req fee.Request) (*types.FeeQuote, error) {
	var quote types.FeeQuote
	if err := c.Run(ctx, "getTransactionFees", req, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

type balanceParams struct {
	Symbol  string `json:"symbol"`
	Type    string `json:"type"`
	Address string `json:"address"`
}

// GetBalance returns the balance of an address in base units
func (c *CloudClient) GetBalance(ctx context.Context, symbol, netType, address string) (types.Quantity, error) {
	var balance types.Quantity
	err := c.Run(ctx, "getBalance", balanceParams{
		Symbol:  strings.ToUpper(symbol),
		Type:    netType,
		Address: address,
	}, &balance)
	return balance, err
}

type rateParams struct {
	DepositCoin     string `json:"depositCoin"`
	DestinationCoin string `json:"destinationCoin"`
}

// GetRate implements swap.QuoteService using the coinswitch cloud functions
func (c *CloudClient) GetRate(ctx context.Context, depositCoin, destinationCoin string) (*types.SwapQuote, error) {
	var quote types.SwapQuote
	if err := c.Run(ctx, "coinswitchGetRate", rateParams{
		DepositCoin:     depositCoin,
		DestinationCoin: destinationCoin,
	}, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

type orderParams struct {
	DepositCoin        string            `json:"depositCoin"`
	DestinationCoin    string            `json:"destinationCoin"`
	DepositCoinAmount  decimal.Decimal   `json:"depositCoinAmount"`
	DestinationAddress types.SwapAddress `json:"destinationAddress"`
	RefundAddress      types.SwapAddress `json:"refundAddress"`
}

// PlaceOrder implements swap.QuoteService
func (c *CloudClient) PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error) {
	var order types.SwapOrder
	if err := c.Run(ctx, "coinswitchPlaceOrder", orderParams{
		DepositCoin:        req.DepositCoin,
		DestinationCoin:    req.DestinationCoin,
		DepositCoinAmount:  req.DepositCoinAmount,
		DestinationAddress: req.DestinationAddress,
		RefundAddress:      req.RefundAddress,
	}, &order); err != nil {
		return nil, err
	}
	if order.OrderID == "" {
		return nil, errors.New("coinswitchPlaceOrder returned no order id")
	}
	return &order, nil
}
