package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/session"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

func hex32(b byte) string {
	return "0x" + strings.Repeat(string([]byte{hexDigit(b >> 4), hexDigit(b & 0xF)}), 32)
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'a' + n - 10
}

var clientAccountID = types.TradeAccountID(hex32(0xAA))

func marketsBody() string {
	return `{
		"books_registry_id": "` + hex32(0x01) + `",
		"accounts_registry_id": "` + hex32(0x02) + `",
		"trade_account_oracle_id": "` + hex32(0x03) + `",
		"chain_id": "0x0",
		"base_asset_id": "` + hex32(0x04) + `",
		"markets": [{
			"contract_id": "` + hex32(0xC0) + `",
			"market_id": "` + hex32(0xB0) + `",
			"maker_fee": "0",
			"taker_fee": "0",
			"min_order": "1",
			"dust": "0",
			"price_window": "0",
			"base": {"symbol": "FUEL", "asset": "` + hex32(0x0B) + `", "decimals": 9, "max_precision": 6},
			"quote": {"symbol": "USDC", "asset": "` + hex32(0x0C) + `", "decimals": 9, "max_precision": 6}
		}]
	}`
}

func accountBody(nonce uint64) string {
	return `{
		"trade_account_id": "` + string(clientAccountID) + `",
		"trade_account": {
			"last_modification": 0,
			"nonce": "` + strconv.FormatUint(nonce, 10) + `",
			"owner": {"Address": "` + hex32(0xDD) + `"}
		}
	}`
}

func testClient(t *testing.T, handler http.Handler, whitelist bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := params.Config{
		Endpoints: params.Endpoints{
			APIBase:           srv.URL,
			FaucetURL:         srv.URL + "/faucet",
			WhitelistRequired: whitelist,
		},
		MetadataTTL: 45 * time.Second,
	}
	c := New(cfg, nil)
	c.whitelistDelays = []time.Duration{0}
	c.faucetAttempts = 2
	c.faucetRetryDelay = time.Millisecond
	c.faucetCooldown = time.Millisecond
	return c
}

func testSession(t *testing.T, nonce uint64) *session.Session {
	t.Helper()
	key, err := crypto.GenerateWallet()
	require.NoError(t, err)
	sess, err := session.Restore("0x"+strings.Repeat("dd", 32), clientAccountID, key.PrivateKeyHex(),
		[]types.ContractID{types.ContractID(hex32(0xC0))}, 0, nonce)
	require.NoError(t, err)
	return sess
}

func TestMetadataCache(t *testing.T) {
	var fetches atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/markets", r.URL.Path)
		fetches.Add(1)
		w.Write([]byte(marketsBody()))
	}), false)

	ctx := context.Background()
	market, err := c.Market(ctx, "FUEL/USDC")
	require.NoError(t, err)
	assert.Equal(t, types.MarketID(hex32(0xB0)), market.MarketID)

	// cached: symbol lookup is case-insensitive and needs no refetch
	_, err = c.Market(ctx, "fuel/usdc")
	require.NoError(t, err)
	chainID, err := c.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), chainID)
	assert.Equal(t, int32(1), fetches.Load())

	_, err = c.Market(ctx, "ETH/USDC")
	assert.ErrorIs(t, err, apierr.ErrMarketNotFound)

	c.SetMetadataPolicy(MetadataPolicy{StrictFresh: true})
	_, err = c.Market(ctx, "FUEL/USDC")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())
}

func TestSetupAccountSkipsFaucetWhenFunded(t *testing.T) {
	var faucetCalls, whitelistCalls, createCalls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets":
			w.Write([]byte(marketsBody()))
		case "/v1/accounts":
			if r.Method == http.MethodPost {
				createCalls.Add(1)
			}
			w.Write([]byte(accountBody(3)))
		case "/v1/balance":
			w.Write([]byte(`{"order_books": {}, "total_locked": "0", "total_unlocked": "100", "trading_account_balance": "0"}`))
		case "/faucet":
			faucetCalls.Add(1)
			w.Write([]byte(`{}`))
		case "/analytics/v1/whitelist":
			whitelistCalls.Add(1)
			w.Write([]byte(`{"success": true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), true)

	owner, err := crypto.GenerateWallet()
	require.NoError(t, err)
	account, err := c.SetupAccount(context.Background(), owner)
	require.NoError(t, err)
	require.NotNil(t, account.TradeAccountID)

	assert.Equal(t, int32(0), createCalls.Load())
	assert.Equal(t, int32(0), faucetCalls.Load())
	assert.Equal(t, int32(1), whitelistCalls.Load())
}

func TestSetupAccountCreatesAndFunds(t *testing.T) {
	var faucetCalls, createCalls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets":
			w.Write([]byte(marketsBody()))
		case "/v1/accounts":
			if r.Method == http.MethodPost {
				createCalls.Add(1)
				w.Write([]byte(`{"trade_account_id": "` + string(clientAccountID) + `", "nonce": "0"}`))
				return
			}
			if r.URL.Query().Get("trade_account_id") != "" {
				w.Write([]byte(accountBody(0)))
				return
			}
			// no account for this owner yet
			w.Write([]byte(`{}`))
		case "/v1/balance":
			w.Write([]byte(`{"order_books": {}, "total_locked": "0", "total_unlocked": "0", "trading_account_balance": "0"}`))
		case "/faucet":
			faucetCalls.Add(1)
			w.Write([]byte(`{}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), false)

	owner, err := crypto.GenerateWallet()
	require.NoError(t, err)
	_, err = c.SetupAccount(context.Background(), owner)
	require.NoError(t, err)

	assert.Equal(t, int32(1), createCalls.Load())
	assert.Equal(t, int32(1), faucetCalls.Load())
}

func TestCancelAllOrdersChunks(t *testing.T) {
	orderIDs := make([]string, 7)
	for i := range orderIDs {
		orderIDs[i] = hex32(byte(0x10 + i))
	}
	var batchSizes []int
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets":
			w.Write([]byte(marketsBody()))
		case "/v1/orders":
			var orders []string
			for _, id := range orderIDs {
				orders = append(orders, `{"order_id": "`+id+`", "side": "Buy"}`)
			}
			w.Write([]byte(`{"orders": [` + strings.Join(orders, ",") + `]}`))
		case "/v1/session/actions":
			var req types.SessionActionsRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			n := 0
			for _, group := range req.Actions {
				n += len(group.Actions)
			}
			batchSizes = append(batchSizes, n)
			w.Write([]byte(`{"tx_id": "0x01"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), false)

	sess := testSession(t, 10)
	results, err := c.CancelAllOrders(context.Background(), sess, "FUEL/USDC")
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []int{5, 2}, batchSizes)
	assert.Equal(t, uint64(12), sess.Nonce())
}

func TestWithdrawSignsWithOwner(t *testing.T) {
	var req types.WithdrawRequest
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/markets":
			w.Write([]byte(marketsBody()))
		case "/v1/accounts":
			w.Write([]byte(accountBody(4)))
		case "/v1/accounts/withdraw":
			assert.NotEmpty(t, r.Header.Get("O2-Owner-Id"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(`{"tx_id": "0x02"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}), false)

	owner, err := crypto.GenerateWallet()
	require.NoError(t, err)
	sess := testSession(t, 4)

	resp, err := c.Withdraw(context.Background(), owner, sess, types.AssetID(hex32(0x0B)), 5000, "")
	require.NoError(t, err)
	require.NotNil(t, resp.TxID)

	assert.Equal(t, clientAccountID, req.TradeAccountID)
	assert.Equal(t, "4", req.Nonce)
	assert.Equal(t, "5000", req.Amount)
	assert.Equal(t, crypto.HexB256(owner.B256()), req.To.Value)
	assert.Len(t, req.Signature.Secp256k1, 2+128)
}

func TestActionsBuilder(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(marketsBody()))
	}), false)

	b, err := c.ActionsFor(context.Background(), "FUEL/USDC")
	require.NoError(t, err)

	group, err := b.
		SettleBalance().
		CreateOrder(types.Buy, types.D("0.02"), types.D("100"), types.Spot{}).
		CancelOrder(types.OrderID(hex32(0x0F))).
		Build()
	require.NoError(t, err)
	assert.Len(t, group.Actions, 3)
	assert.Equal(t, types.MarketID(hex32(0xB0)), group.Market.MarketID)

	b2, err := c.ActionsFor(context.Background(), "FUEL/USDC")
	require.NoError(t, err)
	_, err = b2.CancelOrder("").SettleBalance().Build()
	assert.ErrorIs(t, err, apierr.ErrInvalidRequest)

	b3, err := c.ActionsFor(context.Background(), "FUEL/USDC")
	require.NoError(t, err)
	_, err = b3.Build()
	assert.ErrorIs(t, err, apierr.ErrNoActionsProvided)
}
