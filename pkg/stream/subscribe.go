package stream

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// SubscribeDepth subscribes to order book depth snapshots for a market
// at the given price precision. The subscription survives reconnects;
// the returned channel is closed on terminal connection loss.
func (c *Conn) SubscribeDepth(marketID types.MarketID, precision uint64) (<-chan types.DepthUpdate, error) {
	ch := make(chan types.DepthUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_depth", map[string]any{
		"market_id": marketID,
		"precision": strconv.FormatUint(precision, 10),
	}, "subscribe_depth|"+string(marketID))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.depth = append(c.depth, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribeDepthUpdates subscribes to incremental depth deltas instead
// of full snapshots.
func (c *Conn) SubscribeDepthUpdates(marketID types.MarketID, precision uint64) (<-chan types.DepthUpdate, error) {
	ch := make(chan types.DepthUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_depth_update", map[string]any{
		"market_id": marketID,
		"precision": strconv.FormatUint(precision, 10),
	}, "subscribe_depth_update|"+string(marketID))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.depth = append(c.depth, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribeOrders subscribes to order updates for the given identities.
func (c *Conn) SubscribeOrders(identities []types.Identity) (<-chan types.OrderUpdate, error) {
	ch := make(chan types.OrderUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_orders", map[string]any{
		"identities": identities,
	}, "subscribe_orders|"+identityKey(identities))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.orders = append(c.orders, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribeTrades subscribes to the trade feed for a market.
func (c *Conn) SubscribeTrades(marketID types.MarketID) (<-chan types.TradeUpdate, error) {
	ch := make(chan types.TradeUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_trades", map[string]any{
		"market_id": marketID,
	}, "subscribe_trades|"+string(marketID))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.trades = append(c.trades, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribeBalances subscribes to balance updates for the identities.
func (c *Conn) SubscribeBalances(identities []types.Identity) (<-chan types.BalanceUpdate, error) {
	ch := make(chan types.BalanceUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_balances", map[string]any{
		"identities": identities,
	}, "subscribe_balances|"+identityKey(identities))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.balances = append(c.balances, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// SubscribeNonce subscribes to account nonce updates for the identities.
func (c *Conn) SubscribeNonce(identities []types.Identity) (<-chan types.NonceUpdate, error) {
	ch := make(chan types.NonceUpdate, subscriberBuffer)
	sub, err := makeSub("subscribe_nonce", map[string]any{
		"identities": identities,
	}, "subscribe_nonce|"+identityKey(identities))
	if err != nil {
		return nil, err
	}
	if err := c.register(sub, func() { c.nonces = append(c.nonces, ch) }); err != nil {
		return nil, err
	}
	return ch, nil
}

// UnsubscribeDepth stops depth snapshots for a market.
func (c *Conn) UnsubscribeDepth(marketID types.MarketID) error {
	return c.unsubscribe("unsubscribe_depth", map[string]any{
		"market_id": marketID,
	}, "subscribe_depth|"+string(marketID))
}

// UnsubscribeOrders stops all order updates. The server treats this as
// connection-global, so every tracked orders subscription is dropped.
func (c *Conn) UnsubscribeOrders() error {
	if err := c.unsubscribe("unsubscribe_orders", nil, ""); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.subs[:0]
	for _, s := range c.subs {
		if s.action != "subscribe_orders" {
			kept = append(kept, s)
		}
	}
	c.subs = kept
	return nil
}

// UnsubscribeTrades stops the trade feed for a market.
func (c *Conn) UnsubscribeTrades(marketID types.MarketID) error {
	return c.unsubscribe("unsubscribe_trades", map[string]any{
		"market_id": marketID,
	}, "subscribe_trades|"+string(marketID))
}

// UnsubscribeBalances stops balance updates for the identities.
func (c *Conn) UnsubscribeBalances(identities []types.Identity) error {
	return c.unsubscribe("unsubscribe_balances", map[string]any{
		"identities": identities,
	}, "subscribe_balances|"+identityKey(identities))
}

// UnsubscribeNonce stops nonce updates for the identities.
func (c *Conn) UnsubscribeNonce(identities []types.Identity) error {
	return c.unsubscribe("unsubscribe_nonce", map[string]any{
		"identities": identities,
	}, "subscribe_nonce|"+identityKey(identities))
}

func makeSub(action string, fields map[string]any, key string) (subscription, error) {
	body := map[string]any{"action": action}
	for k, v := range fields {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return subscription{}, fmt.Errorf("encode %s: %w", action, err)
	}
	return subscription{action: action, key: key, payload: payload}, nil
}

// register tracks the subscription for replay, attaches the channel, and
// sends the subscribe frame. Duplicate keys are not re-tracked but the
// frame is still sent.
func (c *Conn) register(sub subscription, attach func()) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return &apierr.DisconnectedError{Reason: "connection terminated"}
	}
	attach()
	tracked := false
	for _, s := range c.subs {
		if s.key == sub.key {
			tracked = true
			break
		}
	}
	if !tracked {
		c.subs = append(c.subs, sub)
	}
	ws := c.ws
	c.mu.Unlock()

	return c.send(ws, sub.payload)
}

func (c *Conn) unsubscribe(action string, fields map[string]any, dropKey string) error {
	sub, err := makeSub(action, fields, "")
	if err != nil {
		return err
	}
	c.mu.Lock()
	if dropKey != "" {
		kept := c.subs[:0]
		for _, s := range c.subs {
			if s.key != dropKey {
				kept = append(kept, s)
			}
		}
		c.subs = kept
	}
	ws := c.ws
	c.mu.Unlock()

	return c.send(ws, sub.payload)
}

func (c *Conn) send(ws *websocket.Conn, payload []byte) error {
	if ws == nil {
		return &apierr.DisconnectedError{Reason: "not connected"}
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return ws.WriteMessage(websocket.TextMessage, payload)
}

// identityKey derives a stable dedupe key from an identity list.
func identityKey(identities []types.Identity) string {
	parts := make([]string, 0, len(identities))
	for _, id := range identities {
		parts = append(parts, strconv.Itoa(int(id.Kind))+":"+id.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
