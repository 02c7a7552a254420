package client

import (
	"context"

	"github.com/o2-exchange/sdk-go/pkg/stream"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// ensureWS returns the shared WebSocket connection, dialing on first use
// and replacing a terminated one.
func (c *Client) ensureWS(ctx context.Context) (*stream.Conn, error) {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws != nil && c.ws.State() == stream.Terminated {
		c.ws = nil
	}
	if c.ws == nil {
		conn, err := stream.Dial(ctx, stream.Options{
			URL:    c.cfg.Endpoints.WSURL,
			Stream: c.cfg.Stream,
			Log:    c.log,
		})
		if err != nil {
			return nil, err
		}
		c.ws = conn
	}
	return c.ws, nil
}

// StreamDepth subscribes to depth snapshots over the shared connection.
func (c *Client) StreamDepth(ctx context.Context, symbol types.MarketSymbol, precision uint64) (<-chan types.DepthUpdate, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.SubscribeDepth(market.MarketID, precision)
}

// StreamOrders subscribes to order updates for the identities.
func (c *Client) StreamOrders(ctx context.Context, identities []types.Identity) (<-chan types.OrderUpdate, error) {
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.SubscribeOrders(identities)
}

// StreamTrades subscribes to the trade feed for a market.
func (c *Client) StreamTrades(ctx context.Context, symbol types.MarketSymbol) (<-chan types.TradeUpdate, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.SubscribeTrades(market.MarketID)
}

// StreamBalances subscribes to balance updates for the identities.
func (c *Client) StreamBalances(ctx context.Context, identities []types.Identity) (<-chan types.BalanceUpdate, error) {
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.SubscribeBalances(identities)
}

// StreamNonce subscribes to account nonce updates for the identities.
func (c *Client) StreamNonce(ctx context.Context, identities []types.Identity) (<-chan types.NonceUpdate, error) {
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.SubscribeNonce(identities)
}

// Lifecycle returns the shared connection's lifecycle channel, dialing
// if needed.
func (c *Client) Lifecycle(ctx context.Context) (<-chan stream.LifecycleEvent, error) {
	ws, err := c.ensureWS(ctx)
	if err != nil {
		return nil, err
	}
	return ws.Lifecycle(), nil
}

// DisconnectWS closes the shared WebSocket connection if one is open.
func (c *Client) DisconnectWS() error {
	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Disconnect()
	c.ws = nil
	return err
}
