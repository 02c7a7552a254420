package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

func (c *Client) api(path string, query url.Values) string {
	u := c.endpoints.APIBase + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func ownerHeader(ownerID string) map[string]string {
	return map[string]string{"O2-Owner-Id": ownerID}
}

// GetMarkets fetches the market registry and chain metadata.
func (c *Client) GetMarkets(ctx context.Context) (*types.MarketsResponse, error) {
	var out types.MarketsResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/markets", nil), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetMarketTicker fetches real-time ticker data for one market.
func (c *Client) GetMarketTicker(ctx context.Context, marketID types.MarketID) (*types.MarketTicker, error) {
	q := url.Values{"market_id": {string(marketID)}}
	var out types.MarketTicker
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/markets/ticker", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetDepth fetches an order book snapshot. The gateway wraps the snapshot
// in an "orders" or "view" envelope depending on version; both are handled.
func (c *Client) GetDepth(ctx context.Context, marketID types.MarketID, precision uint64) (*types.DepthSnapshot, error) {
	q := url.Values{
		"market_id": {string(marketID)},
		"precision": {strconv.FormatUint(precision, 10)},
	}
	var envelope struct {
		Orders *types.DepthSnapshot `json:"orders"`
		View   *types.DepthSnapshot `json:"view"`
		types.DepthSnapshot
	}
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/depth", q), nil, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Orders != nil {
		return envelope.Orders, nil
	}
	if envelope.View != nil {
		return envelope.View, nil
	}
	return &envelope.DepthSnapshot, nil
}

// GetTrades fetches recent trades for a market.
func (c *Client) GetTrades(ctx context.Context, marketID types.MarketID, direction string, count uint32) (*types.TradesResponse, error) {
	q := url.Values{
		"market_id": {string(marketID)},
		"direction": {direction},
		"count":     {strconv.FormatUint(uint64(count), 10)},
	}
	var out types.TradesResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/trades", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBars fetches OHLCV candles for a market over [from, to].
func (c *Client) GetBars(ctx context.Context, marketID types.MarketID, from, to uint64, resolution string) ([]types.Bar, error) {
	q := url.Values{
		"market_id":  {string(marketID)},
		"from":       {strconv.FormatUint(from, 10)},
		"to":         {strconv.FormatUint(to, 10)},
		"resolution": {resolution},
	}
	var out []types.Bar
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/bars", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetOrders fetches order history for an account on one market.
func (c *Client) GetOrders(ctx context.Context, marketID types.MarketID, contract types.TradeAccountID, direction string, count uint32) (*types.OrdersResponse, error) {
	q := url.Values{
		"market_id": {string(marketID)},
		"contract":  {string(contract)},
		"direction": {direction},
		"count":     {strconv.FormatUint(uint64(count), 10)},
	}
	var out types.OrdersResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/orders", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder fetches one order, unwrapping the {"order": ...} envelope.
func (c *Client) GetOrder(ctx context.Context, marketID types.MarketID, orderID types.OrderID) (*types.Order, error) {
	q := url.Values{
		"market_id": {string(marketID)},
		"order_id":  {string(orderID)},
	}
	var envelope types.OrderResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/order", q), nil, nil, &envelope); err != nil {
		return nil, err
	}
	if envelope.Order == nil {
		return nil, apierr.New(apierr.CodeOrderNotFound, "order %s not found", orderID)
	}
	return envelope.Order, nil
}

// CreateAccount registers a trading account for the owner identity.
func (c *Client) CreateAccount(ctx context.Context, owner types.Identity) (*types.CreateAccountResponse, error) {
	body := map[string]types.Identity{"identity": owner}
	var out types.CreateAccountResponse
	if err := c.doJSON(ctx, http.MethodPost, c.api("/v1/accounts", nil), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountByOwner looks up the trading account owned by an address.
func (c *Client) GetAccountByOwner(ctx context.Context, owner string) (*types.AccountResponse, error) {
	q := url.Values{"owner": {owner}}
	var out types.AccountResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/accounts", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccountByID looks up a trading account by its contract id.
func (c *Client) GetAccountByID(ctx context.Context, id types.TradeAccountID) (*types.AccountResponse, error) {
	q := url.Values{"trade_account_id": {string(id)}}
	var out types.AccountResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/accounts", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBalance fetches one asset's balance for a trading account (contract)
// or a wallet (address). Pass empty strings to omit either filter.
func (c *Client) GetBalance(ctx context.Context, assetID types.AssetID, contract types.TradeAccountID, address string) (*types.BalanceResponse, error) {
	q := url.Values{"asset_id": {string(assetID)}}
	if contract != "" {
		q.Set("contract", string(contract))
	}
	if address != "" {
		q.Set("address", address)
	}
	var out types.BalanceResponse
	if err := c.doJSON(ctx, http.MethodGet, c.api("/v1/balance", q), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateSession registers a session key. The owner id goes in the
// O2-Owner-Id header as well as the signed request body.
func (c *Client) CreateSession(ctx context.Context, ownerID string, req *types.SessionRequest) (*types.SessionResponse, error) {
	var out types.SessionResponse
	if err := c.doJSON(ctx, http.MethodPut, c.api("/v1/session", nil), req, ownerHeader(ownerID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitActions posts a signed action batch. The gateway answers 200 for
// all three outcomes, so the body is classified here: tx_id means success,
// a code means pre-flight rejection, a bare message means on-chain revert.
func (c *Client) SubmitActions(ctx context.Context, ownerID string, req *types.SessionActionsRequest) (*types.SessionActionsResponse, error) {
	var out types.SessionActionsResponse
	if err := c.doJSON(ctx, http.MethodPost, c.api("/v1/session/actions", nil), req, ownerHeader(ownerID), &out); err != nil {
		return nil, err
	}
	switch {
	case out.IsSuccess():
		return &out, nil
	case out.IsPreflightError():
		msg := ""
		if out.Message != nil {
			msg = *out.Message
		}
		return nil, apierr.FromCode(*out.Code, msg)
	case out.IsRevert():
		reason := ""
		if out.Reason != nil {
			reason = *out.Reason
		}
		return nil, &apierr.RevertError{Message: *out.Message, Reason: reason, Receipts: out.Receipts}
	default:
		// ambiguous body; hand it to the caller as-is
		return &out, nil
	}
}

// Withdraw posts an owner-signed withdrawal.
func (c *Client) Withdraw(ctx context.Context, ownerID string, req *types.WithdrawRequest) (*types.WithdrawResponse, error) {
	var out types.WithdrawResponse
	if err := c.doJSON(ctx, http.MethodPost, c.api("/v1/accounts/withdraw", nil), req, ownerHeader(ownerID), &out); err != nil {
		return nil, err
	}
	if out.Code != nil {
		msg := ""
		if out.Message != nil {
			msg = *out.Message
		}
		return nil, apierr.FromCode(*out.Code, msg)
	}
	return &out, nil
}

// WhitelistAccount submits a trading account to the testnet whitelist.
func (c *Client) WhitelistAccount(ctx context.Context, tradeAccountID types.TradeAccountID) (*types.WhitelistResponse, error) {
	body := types.WhitelistRequest{TradeAccount: string(tradeAccountID)}
	var out types.WhitelistResponse
	if err := c.doJSON(ctx, http.MethodPost, c.api("/analytics/v1/whitelist", nil), body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MintToContract asks the faucet to fund a trading account directly.
func (c *Client) MintToContract(ctx context.Context, contractID types.TradeAccountID) (*types.FaucetResponse, error) {
	return c.mint(ctx, map[string]string{"contract": string(contractID)})
}

// MintToAddress asks the faucet to fund a wallet address.
func (c *Client) MintToAddress(ctx context.Context, address string) (*types.FaucetResponse, error) {
	return c.mint(ctx, map[string]string{"address": address})
}

func (c *Client) mint(ctx context.Context, body map[string]string) (*types.FaucetResponse, error) {
	if c.endpoints.FaucetURL == "" {
		return nil, fmt.Errorf("faucet not available on this network")
	}
	var out types.FaucetResponse
	if err := c.doJSON(ctx, http.MethodPost, c.endpoints.FaucetURL, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
