package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/grinry/rwallet/pkg/logger"
	"github.com/grinry/rwallet/pkg/monitor"
	"github.com/grinry/rwallet/pkg/types"
)

// OneClickClient wraps the 1Click SDK. Besides the raw API it serves as a
// swap quote service: rates come from dry quotes of a sample amount and orders
// from real quotes, whose deposit address becomes the exchange address.
type OneClickClient struct {
	client     *oneclick.APIClient
	token      string
	sample     decimal.Decimal
	minDeposit decimal.Decimal
	addresses  map[string]string
	metrics    *monitor.Metrics
}

// NewOneClickClient creates a new 1Click API client
func NewOneClickClient(jwtToken, baseURL string) *OneClickClient {
	config := oneclick.NewConfiguration()
	if baseURL != "" {
		config.Servers = oneclick.ServerConfigurations{{URL: baseURL}}
	}

	return &OneClickClient{
		client:  oneclick.NewAPIClient(config),
		token:   jwtToken,
		sample:  decimal.RequireFromString("0.01"),
		metrics: monitor.Default,
	}
}

// WithDepositLimits sets the sample amount used for rate quotes and the
// minimum deposit reported with every rate
func (c *OneClickClient) WithDepositLimits(sample, minDeposit decimal.Decimal) *OneClickClient {
	if sample.IsPositive() {
		c.sample = sample
	}
	c.minDeposit = minDeposit
	return c
}

// WithAddresses sets the wallet address per coin id. Dry quotes need a
// recipient and a refund address even though nothing is deposited.
func (c *OneClickClient) WithAddresses(addresses map[string]string) *OneClickClient {
	c.addresses = addresses
	return c
}

func (c *OneClickClient) authed(ctx context.Context) context.Context {
	return context.WithValue(ctx, oneclick.ContextAccessToken, c.token)
}

// GetSupportedTokens retrieves all supported tokens
func (c *OneClickClient) GetSupportedTokens(ctx context.Context) ([]oneclick.TokenResponse, error) {
	start := time.Now()
	resp, httpResp, err := c.client.OneClickAPI.GetTokens(c.authed(ctx)).Execute()
	c.metrics.ObserveRemoteCall("oneclick.tokens", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tokens: %w", types.ErrRemoteService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status code %d", types.ErrRemoteService, httpResp.StatusCode)
	}

	return resp, nil
}

// FindToken searches for a token by symbol across all chains
func (c *OneClickClient) FindToken(ctx context.Context, symbol string) (*oneclick.TokenResponse, error) {
	tokens, err := c.GetSupportedTokens(ctx)
	if err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)

	// Try exact match first
	for _, token := range tokens {
		if strings.ToUpper(token.GetSymbol()) == symbol {
			return &token, nil
		}
	}

	// Try partial match
	for _, token := range tokens {
		if strings.Contains(strings.ToUpper(token.GetSymbol()), symbol) {
			return &token, nil
		}
	}

	return nil, fmt.Errorf("%w: token '%s' not found", types.ErrUnsupportedCurrency, symbol)
}

type quoteParams struct {
	dry       bool
	source    string
	dest      string
	amount    decimal.Decimal
	recipient string
	refundTo  string
}

// quote runs a 1Click quote for an exact input amount
func (c *OneClickClient) quote(ctx context.Context, p quoteParams) (*oneclick.QuoteResponse, error) {
	sourceToken, err := c.FindToken(ctx, p.source)
	if err != nil {
		return nil, fmt.Errorf("source token error: %w", err)
	}
	destToken, err := c.FindToken(ctx, p.dest)
	if err != nil {
		return nil, fmt.Errorf("destination token error: %w", err)
	}

	if p.recipient == "" {
		return nil, fmt.Errorf("%w: no %s address to receive the swap", types.ErrPreconditionViolation, p.dest)
	}
	if p.refundTo == "" {
		p.refundTo = p.recipient
	}

	// Amount in the token's smallest unit
	amount := p.amount.Shift(int32(sourceToken.GetDecimals())).Truncate(0).String()

	quoteReq := oneclick.NewQuoteRequest(
		p.dry,                    // dry quotes carry no deposit address
		"EXACT_INPUT",            // swapType
		100,                      // slippageTolerance (1%)
		sourceToken.GetAssetId(), // originAsset
		"ORIGIN_CHAIN",           // depositType
		destToken.GetAssetId(),   // destinationAsset
		amount,                   // amount in smallest unit
		p.refundTo,               // refundTo
		"ORIGIN_CHAIN",           // refundType
		p.recipient,              // recipient
		"DESTINATION_CHAIN",      // recipientType
		time.Now().Add(24*time.Hour),
	)

	start := time.Now()
	resp, httpResp, err := c.client.OneClickAPI.GetQuote(c.authed(ctx)).QuoteRequest(*quoteReq).Execute()
	c.metrics.ObserveRemoteCall("oneclick.quote", time.Since(start).Seconds())
	if err != nil {
		if httpResp != nil {
			defer httpResp.Body.Close()
			return nil, apiError(httpResp, err)
		}
		return nil, fmt.Errorf("%w: failed to get quote from API: %w", types.ErrRemoteService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: API returned status code %d", types.ErrRemoteService, httpResp.StatusCode)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: empty quote response", types.ErrRemoteService)
	}

	return resp, nil
}

// apiError extracts the message from a failed API response body
func apiError(httpResp *http.Response, err error) error {
	bodyBytes, readErr := io.ReadAll(httpResp.Body)
	if readErr != nil || len(bodyBytes) == 0 {
		return fmt.Errorf("%w: failed to get quote from API (status: %d): %w", types.ErrRemoteService, httpResp.StatusCode, err)
	}

	var errorResp map[string]any
	if jsonErr := json.Unmarshal(bodyBytes, &errorResp); jsonErr == nil {
		if message, ok := errorResp["message"].(string); ok {
			return fmt.Errorf("%w: API error (status %d): %s", types.ErrRemoteService, httpResp.StatusCode, message)
		}
		if errors, ok := errorResp["errors"]; ok {
			return fmt.Errorf("%w: API error (status %d): %v", types.ErrRemoteService, httpResp.StatusCode, errors)
		}
	}
	return fmt.Errorf("%w: API error (status %d): %s", types.ErrRemoteService, httpResp.StatusCode, string(bodyBytes))
}

// GetRate implements swap.QuoteService
func (c *OneClickClient) GetRate(ctx context.Context, depositCoin, destinationCoin string) (*types.SwapQuote, error) {
	resp, err := c.quote(ctx, quoteParams{
		dry:       true,
		source:    depositCoin,
		dest:      destinationCoin,
		amount:    c.sample,
		recipient: c.addresses[destinationCoin],
		refundTo:  c.addresses[depositCoin],
	})
	if err != nil {
		return nil, err
	}

	details := resp.GetQuote()
	amountIn, err := decimal.NewFromString(details.GetAmountInFormatted())
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount in: %w", err)
	}
	amountOut, err := decimal.NewFromString(details.GetAmountOutFormatted())
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount out: %w", err)
	}
	if !amountIn.IsPositive() {
		return nil, fmt.Errorf("invalid amount in: %s", amountIn)
	}

	// Price: how many dest tokens for 1 source token
	rate := amountOut.DivRound(amountIn, 18)

	logger.Debug("oneclick rate",
		zap.String("deposit_coin", depositCoin),
		zap.String("destination_coin", destinationCoin),
		zap.String("rate", rate.String()))

	return &types.SwapQuote{
		Rate:                rate,
		LimitMinDepositCoin: c.minDeposit,
	}, nil
}

// PlaceOrder implements swap.QuoteService. 1Click has no separate order id;
// the deposit address identifies the swap.
func (c *OneClickClient) PlaceOrder(ctx context.Context, req types.OrderRequest) (*types.SwapOrder, error) {
	resp, err := c.quote(ctx, quoteParams{
		source:    req.DepositCoin,
		dest:      req.DestinationCoin,
		amount:    req.DepositCoinAmount,
		recipient: req.DestinationAddress.Address,
		refundTo:  req.RefundAddress.Address,
	})
	if err != nil {
		return nil, err
	}

	details := resp.GetQuote()
	return &types.SwapOrder{
		OrderID:           details.GetDepositAddress(),
		DepositCoin:       req.DepositCoin,
		DestinationCoin:   req.DestinationCoin,
		DepositCoinAmount: details.GetAmountInFormatted(),
		ExchangeAddress: types.SwapAddress{
			Address: details.GetDepositAddress(),
			Tag:     details.GetDepositMemo(),
		},
		DestinationAddress: req.DestinationAddress,
		RefundAddress:      req.RefundAddress,
	}, nil
}

// GetSwapStatus checks the execution status of the swap behind a deposit address
func (c *OneClickClient) GetSwapStatus(ctx context.Context, depositAddress string) (*types.SwapProgress, error) {
	start := time.Now()
	resp, httpResp, err := c.client.OneClickAPI.GetExecutionStatus(c.authed(ctx)).DepositAddress(depositAddress).Execute()
	c.metrics.ObserveRemoteCall("oneclick.status", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get status: %w", types.ErrRemoteService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: API returned status code %d", types.ErrRemoteService, httpResp.StatusCode)
	}

	details := resp.GetSwapDetails()
	progress := &types.SwapProgress{
		OrderID:   depositAddress,
		Status:    progressStatus(resp.GetStatus()),
		UpdatedAt: resp.GetUpdatedAt(),
		AmountIn:  details.GetAmountInFormatted(),
		AmountOut: details.GetAmountOutFormatted(),
	}
	for _, tx := range details.GetOriginChainTxHashes() {
		if hash := tx.GetHash(); hash != "" {
			progress.DepositHashes = append(progress.DepositHashes, hash)
		}
	}
	for _, tx := range details.GetDestinationChainTxHashes() {
		if hash := tx.GetHash(); hash != "" {
			progress.PayoutHashes = append(progress.PayoutHashes, hash)
		}
	}

	return progress, nil
}

// progressStatus folds 1Click execution states into swap progress states
func progressStatus(status string) string {
	switch strings.ToUpper(status) {
	case "SUCCESS", "COMPLETED":
		return types.SwapSucceeded
	case "FAILED":
		return types.SwapFailed
	case "REFUNDED":
		return types.SwapRefunded
	default:
		return types.SwapPending
	}
}

// SubmitDepositTx tells 1Click the hash of the deposit so it can start the
// swap without waiting for its own chain scan
func (c *OneClickClient) SubmitDepositTx(ctx context.Context, depositAddress, txHash string) error {
	req := oneclick.NewSubmitDepositTxRequest(depositAddress, txHash)

	_, httpResp, err := c.client.OneClickAPI.SubmitDepositTx(c.authed(ctx)).SubmitDepositTxRequest(*req).Execute()
	if err != nil {
		return fmt.Errorf("%w: failed to submit deposit: %w", types.ErrRemoteService, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK && httpResp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: API returned status code %d", types.ErrRemoteService, httpResp.StatusCode)
	}

	return nil
}
