package types

import (
	json "github.com/goccy/go-json"
)

// MarketsResponse is the top-level reply from GET /v1/markets. ChainID is a
// decimal or 0x-hex string; 0 is a valid chain id on test deployments.
type MarketsResponse struct {
	BooksRegistryID                 ContractID  `json:"books_registry_id"`
	BooksWhitelistID                *ContractID `json:"books_whitelist_id"`
	BooksBlacklistID                *ContractID `json:"books_blacklist_id"`
	AccountsRegistryID              ContractID  `json:"accounts_registry_id"`
	TradeAccountOracleID            ContractID  `json:"trade_account_oracle_id"`
	FastBridgeAssetRegistryContract *ContractID `json:"fast_bridge_asset_registry_contract_id"`
	ChainID                         string      `json:"chain_id"`
	BaseAssetID                     AssetID     `json:"base_asset_id"`
	Markets                         []Market    `json:"markets"`
}

// ParseChainID decodes the chain id string.
func (r *MarketsResponse) ParseChainID() (uint64, error) {
	return ParseFlexUint64(r.ChainID)
}

// MarketTicker is one entry from GET /v1/markets/ticker.
type MarketTicker struct {
	MarketID      MarketID     `json:"market_id"`
	High          *FlexUint64  `json:"high"`
	Low           *FlexUint64  `json:"low"`
	Bid           *FlexUint64  `json:"bid"`
	BidVolume     *FlexUint64  `json:"bid_volume"`
	Ask           *FlexUint64  `json:"ask"`
	AskVolume     *FlexUint64  `json:"ask_volume"`
	Open          *FlexUint64  `json:"open"`
	Close         *FlexUint64  `json:"close"`
	Last          *FlexUint64  `json:"last"`
	PreviousClose *FlexUint64  `json:"previous_close"`
	Change        *FlexFloat64 `json:"change"`
	Percentage    *FlexFloat64 `json:"percentage"`
	Average       *FlexFloat64 `json:"average"`
	BaseVolume    BigAmount    `json:"base_volume"`
	QuoteVolume   BigAmount    `json:"quote_volume"`
	Timestamp     BigAmount    `json:"timestamp"`
}

// TradeAccount is the on-chain trading account state.
type TradeAccount struct {
	LastModification uint64          `json:"last_modification"`
	Nonce            FlexUint64      `json:"nonce"`
	Owner            Identity        `json:"owner"`
	SyncedWithNet    *bool           `json:"synced_with_network"`
	SyncState        json.RawMessage `json:"sync_state"`
}

// AccountResponse is the reply from GET /v1/accounts. All fields are absent
// when no account exists for the queried owner.
type AccountResponse struct {
	TradeAccountID *TradeAccountID `json:"trade_account_id"`
	TradeAccount   *TradeAccount   `json:"trade_account"`
	Session        *SessionInfo    `json:"session"`
}

// SessionInfo is the registered session within an account response.
type SessionInfo struct {
	SessionID   Identity     `json:"session_id"`
	Expiry      FlexUint64   `json:"expiry"`
	ContractIDs []ContractID `json:"contract_ids"`
}

// CreateAccountResponse is the reply from POST /v1/accounts.
type CreateAccountResponse struct {
	TradeAccountID TradeAccountID `json:"trade_account_id"`
	Nonce          FlexUint64     `json:"nonce"`
}

// SessionRequest is the body for PUT /v1/session. Nonce and expiry go on
// the wire as decimal strings.
type SessionRequest struct {
	ContractID  TradeAccountID `json:"contract_id"`
	SessionID   Identity       `json:"session_id"`
	Signature   Signature      `json:"signature"`
	ContractIDs []ContractID   `json:"contract_ids"`
	Nonce       string         `json:"nonce"`
	Expiry      string         `json:"expiry"`
}

// SessionResponse is the reply from PUT /v1/session.
type SessionResponse struct {
	TxID           TxID           `json:"tx_id"`
	TradeAccountID TradeAccountID `json:"trade_account_id"`
	ContractIDs    []ContractID   `json:"contract_ids"`
	SessionID      Identity       `json:"session_id"`
	SessionExpiry  FlexUint64     `json:"session_expiry"`
}

// Order as returned by the REST and streaming APIs. OrderTypeRaw keeps the
// variant payload unparsed; its shape differs per variant.
type Order struct {
	OrderID         OrderID         `json:"order_id"`
	Side            Side            `json:"side"`
	OrderTypeRaw    json.RawMessage `json:"order_type"`
	Quantity        FlexUint64      `json:"quantity"`
	QuantityFill    *FlexUint64     `json:"quantity_fill"`
	Price           FlexUint64      `json:"price"`
	PriceFill       *FlexUint64     `json:"price_fill"`
	Timestamp       json.RawMessage `json:"timestamp"`
	Close           bool            `json:"close"`
	PartiallyFilled bool            `json:"partially_filled"`
	Cancel          bool            `json:"cancel"`
	DesiredQuantity json.RawMessage `json:"desired_quantity"`
	BaseDecimals    *uint32         `json:"base_decimals"`
	Account         *Identity       `json:"account"`
	MarketID        *MarketID       `json:"market_id"`
	Owner           *Identity       `json:"owner"`
	Fills           json.RawMessage `json:"fills"`
}

// OrdersResponse is the reply from GET /v1/orders.
type OrdersResponse struct {
	Identity Identity `json:"identity"`
	MarketID MarketID `json:"market_id"`
	Orders   []Order  `json:"orders"`
}

// OrderResponse is the reply from GET /v1/order, unwrapped from its
// {"order": ...} envelope by the REST layer.
type OrderResponse struct {
	Order *Order `json:"order"`
}

// Trade as returned by the REST and streaming APIs.
type Trade struct {
	TradeID   TradeID    `json:"trade_id"`
	Side      Side       `json:"side"`
	Total     BigAmount  `json:"total"`
	Quantity  FlexUint64 `json:"quantity"`
	Price     FlexUint64 `json:"price"`
	Timestamp BigAmount  `json:"timestamp"`
	Maker     *Identity  `json:"maker"`
	Taker     *Identity  `json:"taker"`
}

// TradesResponse is the reply from GET /v1/trades.
type TradesResponse struct {
	Trades   []Trade  `json:"trades"`
	MarketID MarketID `json:"market_id"`
}

// OrderBookBalance is one book's share of an account balance.
type OrderBookBalance struct {
	Locked   BigAmount `json:"locked"`
	Unlocked BigAmount `json:"unlocked"`
	Fee      BigAmount `json:"fee"`
}

// BalanceResponse is the reply from GET /v1/balance for one asset.
type BalanceResponse struct {
	OrderBooks            map[string]OrderBookBalance `json:"order_books"`
	TotalLocked           BigAmount                   `json:"total_locked"`
	TotalUnlocked         BigAmount                   `json:"total_unlocked"`
	TradingAccountBalance BigAmount                   `json:"trading_account_balance"`
}

// Total returns locked + unlocked + trading account balance.
func (b *BalanceResponse) Total() BigAmount {
	var total BigAmount
	total.Int().Add(b.TotalLocked.Int(), b.TotalUnlocked.Int())
	total.Int().Add(total.Int(), b.TradingAccountBalance.Int())
	return total
}

// DepthLevel is a single price level.
type DepthLevel struct {
	Price    FlexUint64 `json:"price"`
	Quantity FlexUint64 `json:"quantity"`
}

// DepthSnapshot is a full book view from GET /v1/depth or the depth stream.
type DepthSnapshot struct {
	Buys  []DepthLevel `json:"buys"`
	Sells []DepthLevel `json:"sells"`
}

// DepthUpdate is a frame from the depth streams. Snapshot frames carry View;
// delta frames carry Changes. After a reconnect the first frame restarts the
// snapshot cycle and prior delta state must be discarded.
type DepthUpdate struct {
	Action           string         `json:"action"`
	Changes          *DepthSnapshot `json:"changes"`
	View             *DepthSnapshot `json:"view"`
	MarketID         MarketID       `json:"market_id"`
	OnchainTimestamp *string        `json:"onchain_timestamp"`
	SeenTimestamp    *string        `json:"seen_timestamp"`
}

// Bar is one OHLCV candle from GET /v1/bars.
type Bar struct {
	Open       FlexUint64 `json:"open"`
	High       FlexUint64 `json:"high"`
	Low        FlexUint64 `json:"low"`
	Close      FlexUint64 `json:"close"`
	BuyVolume  BigAmount  `json:"buy_volume"`
	SellVolume BigAmount  `json:"sell_volume"`
	Timestamp  BigAmount  `json:"timestamp"`
}

// MarketActions groups JSON action payloads under one market for the
// session-actions request.
type MarketActions struct {
	MarketID MarketID          `json:"market_id"`
	Actions  []json.RawMessage `json:"actions"`
}

// SessionActionsRequest is the body for POST /v1/session/actions.
type SessionActionsRequest struct {
	Actions         []MarketActions `json:"actions"`
	Signature       Signature       `json:"signature"`
	Nonce           string          `json:"nonce"`
	TradeAccountID  TradeAccountID  `json:"trade_account_id"`
	SessionID       Identity        `json:"session_id"`
	CollectOrders   *bool           `json:"collect_orders,omitempty"`
	VariableOutputs *uint32         `json:"variable_outputs,omitempty"`
}

// SessionActionsResponse is the reply from POST /v1/session/actions. The
// gateway returns 200 for all three outcomes; the fields discriminate:
// TxID set means accepted, Code set means pre-flight rejection, Message
// without Code means an on-chain revert.
type SessionActionsResponse struct {
	TxID     *TxID           `json:"tx_id"`
	Orders   []Order         `json:"orders"`
	Code     *uint32         `json:"code"`
	Message  *string         `json:"message"`
	Reason   *string         `json:"reason"`
	Receipts json.RawMessage `json:"receipts"`
}

func (r *SessionActionsResponse) IsSuccess() bool {
	return r.TxID != nil
}

func (r *SessionActionsResponse) IsPreflightError() bool {
	return r.Code != nil && r.TxID == nil
}

func (r *SessionActionsResponse) IsRevert() bool {
	return r.Message != nil && r.Code == nil && r.TxID == nil
}

// WithdrawRequest is the body for POST /v1/accounts/withdraw.
type WithdrawRequest struct {
	TradeAccountID TradeAccountID `json:"trade_account_id"`
	Signature      Signature      `json:"signature"`
	Nonce          string         `json:"nonce"`
	To             Identity       `json:"to"`
	AssetID        AssetID        `json:"asset_id"`
	Amount         string         `json:"amount"`
}

// WithdrawResponse is the reply from POST /v1/accounts/withdraw.
type WithdrawResponse struct {
	TxID    *TxID   `json:"tx_id"`
	Code    *uint32 `json:"code"`
	Message *string `json:"message"`
}

// WhitelistRequest is the body for POST /analytics/v1/whitelist.
type WhitelistRequest struct {
	TradeAccount string `json:"tradeAccount"`
}

// WhitelistResponse is the reply from POST /analytics/v1/whitelist.
type WhitelistResponse struct {
	Success            *bool   `json:"success"`
	TradeAccount       *string `json:"tradeAccount"`
	AlreadyWhitelisted *bool   `json:"alreadyWhitelisted"`
}

// FaucetResponse is the reply from the faucet mint endpoint.
type FaucetResponse struct {
	Message *string `json:"message"`
	Error   *string `json:"error"`
}

// OrderUpdate is a frame from the orders stream.
type OrderUpdate struct {
	Action           string  `json:"action"`
	Orders           []Order `json:"orders"`
	OnchainTimestamp *string `json:"onchain_timestamp"`
	SeenTimestamp    string  `json:"seen_timestamp"`
}

// TradeUpdate is a frame from the trades stream.
type TradeUpdate struct {
	Action           string   `json:"action"`
	Trades           []Trade  `json:"trades"`
	MarketID         MarketID `json:"market_id"`
	OnchainTimestamp *string  `json:"onchain_timestamp"`
	SeenTimestamp    string   `json:"seen_timestamp"`
}

// BalanceEntry is one account's balance within a balance-stream frame.
type BalanceEntry struct {
	Identity              Identity                    `json:"identity"`
	AssetID               AssetID                     `json:"asset_id"`
	TotalLocked           BigAmount                   `json:"total_locked"`
	TotalUnlocked         BigAmount                   `json:"total_unlocked"`
	TradingAccountBalance BigAmount                   `json:"trading_account_balance"`
	OrderBooks            map[string]OrderBookBalance `json:"order_books"`
}

// BalanceUpdate is a frame from the balances stream.
type BalanceUpdate struct {
	Action           string         `json:"action"`
	Balance          []BalanceEntry `json:"balance"`
	OnchainTimestamp *string        `json:"onchain_timestamp"`
	SeenTimestamp    string         `json:"seen_timestamp"`
}

// NonceUpdate is a frame from the nonce stream.
type NonceUpdate struct {
	Action           string         `json:"action"`
	ContractID       TradeAccountID `json:"contract_id"`
	Nonce            FlexUint64     `json:"nonce"`
	OnchainTimestamp *string        `json:"onchain_timestamp"`
	SeenTimestamp    string         `json:"seen_timestamp"`
}

// TxResult is the outcome of a simple submission (cancel, settle).
type TxResult struct {
	TxID   TxID
	Orders []Order
}
