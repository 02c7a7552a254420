package client

import (
	"context"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/session"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// ActionsBuilder accumulates actions against a single market. Builder
// calls never fail; the first recorded problem surfaces from Build.
type ActionsBuilder struct {
	market  *types.Market
	actions []types.Action
	err     error
}

// ActionsFor starts a builder bound to a market symbol.
func (c *Client) ActionsFor(ctx context.Context, symbol types.MarketSymbol) (*ActionsBuilder, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &ActionsBuilder{market: market}, nil
}

func (b *ActionsBuilder) recordErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// SettleBalance appends a settle action for the trading account.
func (b *ActionsBuilder) SettleBalance() *ActionsBuilder {
	b.actions = append(b.actions, types.SettleBalance{})
	return b
}

// CancelOrder appends a cancel for the given order id.
func (b *ActionsBuilder) CancelOrder(orderID types.OrderID) *ActionsBuilder {
	if orderID == "" {
		b.recordErr(apierr.New(apierr.CodeInvalidRequest, "empty order id"))
		return b
	}
	b.actions = append(b.actions, types.CancelOrder{OrderID: orderID})
	return b
}

// CreateOrder appends an order creation.
func (b *ActionsBuilder) CreateOrder(side types.Side, price, quantity types.Num, orderType types.OrderType) *ActionsBuilder {
	b.actions = append(b.actions, types.CreateOrder{
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Type:     orderType,
	})
	return b
}

// Build returns the accumulated group, or the first recorded error.
func (b *ActionsBuilder) Build() (session.MarketGroup, error) {
	if b.err != nil {
		return session.MarketGroup{}, b.err
	}
	if len(b.actions) == 0 {
		return session.MarketGroup{}, apierr.New(apierr.CodeNoActionsProvided, "no actions provided")
	}
	return session.MarketGroup{Market: b.market, Actions: b.actions}, nil
}
