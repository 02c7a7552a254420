package client

import (
	"context"
	"strconv"
	"time"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/encoding"
	"github.com/o2-exchange/sdk-go/pkg/session"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// CreateSession registers a session key valid for ttl from now, scoped
// to the given market symbols.
func (c *Client) CreateSession(ctx context.Context, owner crypto.Wallet, symbols []types.MarketSymbol, ttl time.Duration) (*session.Session, error) {
	expiry := uint64(time.Now().Add(ttl).Unix())
	return c.CreateSessionUntil(ctx, owner, symbols, expiry)
}

// CreateSessionUntil registers a session key valid until the given unix
// timestamp.
func (c *Client) CreateSessionUntil(ctx context.Context, owner crypto.Wallet, symbols []types.MarketSymbol, expiry uint64) (*session.Session, error) {
	markets := make([]*types.Market, 0, len(symbols))
	for _, symbol := range symbols {
		market, err := c.Market(ctx, symbol)
		if err != nil {
			return nil, err
		}
		markets = append(markets, market)
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	return session.NewManager(c.rest, c.log).Create(ctx, owner, markets, chainID, expiry)
}

func (c *Client) submitter(ctx context.Context) (*session.Submitter, error) {
	registry, err := c.accountsRegistryID(ctx)
	if err != nil {
		return nil, err
	}
	return session.NewSubmitter(c.rest, registry, c.log), nil
}

// BatchActions submits a batch of actions against a single market.
func (c *Client) BatchActions(ctx context.Context, sess *session.Session, symbol types.MarketSymbol, actions []types.Action, collectOrders bool) (*types.SessionActionsResponse, error) {
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.BatchActionsMulti(ctx, sess, []session.MarketGroup{{Market: market, Actions: actions}}, collectOrders)
}

// BatchActionsMulti submits one signed batch spanning several markets.
func (c *Client) BatchActionsMulti(ctx context.Context, sess *session.Session, groups []session.MarketGroup, collectOrders bool) (*types.SessionActionsResponse, error) {
	sub, err := c.submitter(ctx)
	if err != nil {
		return nil, err
	}
	return sub.Submit(ctx, sess, groups, collectOrders)
}

// CreateOrder places one order. With settleFirst a SettleBalance action
// is prepended so freshly deposited funds are spendable in the same
// batch.
func (c *Client) CreateOrder(ctx context.Context, sess *session.Session, symbol types.MarketSymbol, side types.Side, price, quantity types.Num, orderType types.OrderType, settleFirst, collectOrders bool) (*types.SessionActionsResponse, error) {
	var actions []types.Action
	if settleFirst {
		actions = append(actions, types.SettleBalance{})
	}
	actions = append(actions, types.CreateOrder{
		Side:     side,
		Price:    price,
		Quantity: quantity,
		Type:     orderType,
	})
	return c.BatchActions(ctx, sess, symbol, actions, collectOrders)
}

// CancelOrder cancels a single order.
func (c *Client) CancelOrder(ctx context.Context, sess *session.Session, symbol types.MarketSymbol, orderID types.OrderID) (*types.SessionActionsResponse, error) {
	return c.BatchActions(ctx, sess, symbol, []types.Action{types.CancelOrder{OrderID: orderID}}, false)
}

// CancelAllOrders cancels every open order on a market, batching at the
// per-submission action limit.
func (c *Client) CancelAllOrders(ctx context.Context, sess *session.Session, symbol types.MarketSymbol) ([]*types.SessionActionsResponse, error) {
	if err := sess.Expired(); err != nil {
		return nil, err
	}
	market, err := c.Market(ctx, symbol)
	if err != nil {
		return nil, err
	}
	open, err := c.rest.GetOrders(ctx, market.MarketID, sess.TradeAccountID(), "desc", 100)
	if err != nil {
		return nil, err
	}

	var results []*types.SessionActionsResponse
	orders := open.Orders
	for len(orders) > 0 {
		n := len(orders)
		if n > session.MaxBatchActions {
			n = session.MaxBatchActions
		}
		actions := make([]types.Action, 0, n)
		for _, order := range orders[:n] {
			actions = append(actions, types.CancelOrder{OrderID: order.OrderID})
		}
		orders = orders[n:]

		resp, err := c.BatchActions(ctx, sess, symbol, actions, false)
		if err != nil {
			return results, err
		}
		results = append(results, resp)
	}
	return results, nil
}

// SettleBalance settles the trading account's balance on a market.
func (c *Client) SettleBalance(ctx context.Context, sess *session.Session, symbol types.MarketSymbol) (*types.SessionActionsResponse, error) {
	return c.BatchActions(ctx, sess, symbol, []types.Action{types.SettleBalance{}}, false)
}

// Nonce fetches the authoritative account nonce.
func (c *Client) Nonce(ctx context.Context, accountID types.TradeAccountID) (uint64, error) {
	account, err := c.rest.GetAccountByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	if account.TradeAccount == nil {
		return 0, apierr.New(apierr.CodeAccountNotFound, "no trade account %s", accountID)
	}
	return uint64(account.TradeAccount.Nonce), nil
}

// RefreshNonce overwrites the session's local nonce mirror with the
// authoritative value.
func (c *Client) RefreshNonce(ctx context.Context, sess *session.Session) (uint64, error) {
	nonce, err := c.Nonce(ctx, sess.TradeAccountID())
	if err != nil {
		return 0, err
	}
	sess.SetNonce(nonce)
	return nonce, nil
}

// Withdraw moves assets from the trading account back to a wallet. The
// request is signed by the owner wallet, not the session key, and
// consumes the account nonce like any batch. An empty to address
// defaults to the owner.
func (c *Client) Withdraw(ctx context.Context, owner crypto.Wallet, sess *session.Session, assetID types.AssetID, amount uint64, to string) (*types.WithdrawResponse, error) {
	ownerID := crypto.HexB256(owner.B256())
	if to == "" {
		to = ownerID
	}
	toBytes, err := crypto.ParseB256(to)
	if err != nil {
		return nil, err
	}
	assetBytes, err := crypto.ParseB256(string(assetID))
	if err != nil {
		return nil, err
	}

	nonce, err := c.Nonce(ctx, sess.TradeAccountID())
	if err != nil {
		return nil, err
	}
	chainID, err := c.ChainID(ctx)
	if err != nil {
		return nil, err
	}

	payload := encoding.WithdrawSigningBytes(nonce, chainID, encoding.DiscriminantAddress, toBytes, assetBytes, amount)
	sig, err := owner.PersonalSign(payload)
	if err != nil {
		return nil, err
	}

	req := &types.WithdrawRequest{
		TradeAccountID: sess.TradeAccountID(),
		Signature:      types.Signature{Secp256k1: crypto.HexSignature(sig)},
		Nonce:          strconv.FormatUint(nonce, 10),
		To:             types.AddressIdentity(to),
		AssetID:        assetID,
		Amount:         strconv.FormatUint(amount, 10),
	}
	return c.rest.Withdraw(ctx, ownerID, req)
}
