package client

import (
	"context"

	"github.com/o2-exchange/sdk-go/pkg/types"
)

// Depth returns the aggregated order book for a market at a price
// precision.
func (c *Client) Depth(ctx context.Context, symbol types.MarketSymbol, precision uint64) (*types.DepthSnapshot, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetDepth(ctx, market.MarketID, precision)
}

// Trades returns recent trades for a market, newest first.
func (c *Client) Trades(ctx context.Context, symbol types.MarketSymbol, count uint32) (*types.TradesResponse, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetTrades(ctx, market.MarketID, "desc", count)
}

// Bars returns OHLCV candles for a market over [from, to] at the given
// resolution.
func (c *Client) Bars(ctx context.Context, symbol types.MarketSymbol, from, to uint64, resolution string) ([]types.Bar, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetBars(ctx, market.MarketID, from, to, resolution)
}

// Ticker returns the latest ticker for a market.
func (c *Client) Ticker(ctx context.Context, symbol types.MarketSymbol) (*types.MarketTicker, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetMarketTicker(ctx, market.MarketID)
}

// Orders returns a trading account's orders on a market, newest first.
func (c *Client) Orders(ctx context.Context, symbol types.MarketSymbol, accountID types.TradeAccountID, count uint32) (*types.OrdersResponse, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetOrders(ctx, market.MarketID, accountID, "desc", count)
}

// Order returns a single order by id.
func (c *Client) Order(ctx context.Context, symbol types.MarketSymbol, orderID types.OrderID) (*types.Order, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.rest.GetOrder(ctx, market.MarketID, orderID)
}
