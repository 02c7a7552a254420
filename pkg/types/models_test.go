package types

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexUint64Forms(t *testing.T) {
	var v struct {
		N FlexUint64 `json:"n"`
	}
	for raw, want := range map[string]uint64{
		`{"n": 42}`:       42,
		`{"n": "42"}`:     42,
		`{"n": "0x2a"}`:   42,
		`{"n": "0X2A"}`:   42,
		`{"n": null}`:     0,
	} {
		require.NoError(t, json.Unmarshal([]byte(raw), &v), raw)
		assert.Equal(t, want, v.N.Uint64(), raw)
	}

	out, err := json.Marshal(FlexUint64(42))
	require.NoError(t, err)
	assert.Equal(t, `"42"`, string(out))
}

func TestBigAmount(t *testing.T) {
	var a BigAmount
	require.NoError(t, json.Unmarshal([]byte(`"340282366920938463463374607431768211455"`), &a))
	assert.Equal(t, "340282366920938463463374607431768211455", a.String())
	assert.False(t, a.IsUint64())

	require.NoError(t, json.Unmarshal([]byte(`1000`), &a))
	assert.Equal(t, uint64(1000), a.Uint64())

	require.Error(t, json.Unmarshal([]byte(`"-5"`), &a))
}

func TestIdentityJSON(t *testing.T) {
	addr := AddressIdentity("0xabc")
	out, err := json.Marshal(addr)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Address": "0xabc"}`, string(out))

	var back Identity
	require.NoError(t, json.Unmarshal([]byte(`{"ContractId": "0xdef"}`), &back))
	assert.Equal(t, ContractIdentity("0xdef"), back)

	require.Error(t, json.Unmarshal([]byte(`{"Other": "0x1"}`), &back))
}

func TestTxIDNormalization(t *testing.T) {
	var tx TxID
	require.NoError(t, json.Unmarshal([]byte(`"deadbeef"`), &tx))
	assert.Equal(t, TxID("0xdeadbeef"), tx)

	require.NoError(t, json.Unmarshal([]byte(`"0xdeadbeef"`), &tx))
	assert.Equal(t, TxID("0xdeadbeef"), tx)
}

func TestSideJSON(t *testing.T) {
	var s Side
	require.NoError(t, json.Unmarshal([]byte(`"buy"`), &s))
	assert.Equal(t, Buy, s)
	require.NoError(t, json.Unmarshal([]byte(`"Sell"`), &s))
	assert.Equal(t, Sell, s)
	require.Error(t, json.Unmarshal([]byte(`"hold"`), &s))

	out, err := json.Marshal(Buy)
	require.NoError(t, err)
	assert.Equal(t, `"Buy"`, string(out))
}

func TestSessionActionsResponseOutcomes(t *testing.T) {
	var ok SessionActionsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"tx_id": "0x01"}`), &ok))
	assert.True(t, ok.IsSuccess())
	assert.False(t, ok.IsPreflightError())
	assert.False(t, ok.IsRevert())

	var preflight SessionActionsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"code": 3002, "message": "invalid order params"}`), &preflight))
	assert.False(t, preflight.IsSuccess())
	assert.True(t, preflight.IsPreflightError())
	assert.False(t, preflight.IsRevert())

	var revert SessionActionsResponse
	require.NoError(t, json.Unmarshal([]byte(`{"message": "transaction reverted", "reason": "NotEnoughBalance"}`), &revert))
	assert.False(t, revert.IsSuccess())
	assert.False(t, revert.IsPreflightError())
	assert.True(t, revert.IsRevert())
}

func TestMarketsResponseChainID(t *testing.T) {
	for raw, want := range map[string]uint64{
		`"0"`:    0,
		`"0x0"`:  0,
		`"9889"`: 9889,
	} {
		var r MarketsResponse
		require.NoError(t, json.Unmarshal([]byte(`{"chain_id": `+raw+`, "markets": []}`), &r))
		got, err := r.ParseChainID()
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDepthUpdateSnapshotVsDelta(t *testing.T) {
	snapshot := `{
		"action": "subscribe_depth",
		"market_id": "0x01",
		"view": {"buys": [{"price": "100", "quantity": "5"}], "sells": []}
	}`
	var snap DepthUpdate
	require.NoError(t, json.Unmarshal([]byte(snapshot), &snap))
	require.NotNil(t, snap.View)
	assert.Nil(t, snap.Changes)
	assert.Equal(t, uint64(100), snap.View.Buys[0].Price.Uint64())

	delta := `{
		"action": "depth_update",
		"market_id": "0x01",
		"changes": {"buys": [], "sells": [{"price": 200, "quantity": 1}]}
	}`
	var upd DepthUpdate
	require.NoError(t, json.Unmarshal([]byte(delta), &upd))
	require.NotNil(t, upd.Changes)
	assert.Nil(t, upd.View)
}

func TestBalanceTotal(t *testing.T) {
	raw := `{
		"order_books": {},
		"total_locked": "10",
		"total_unlocked": "20",
		"trading_account_balance": "30"
	}`
	var b BalanceResponse
	require.NoError(t, json.Unmarshal([]byte(raw), &b))
	assert.Equal(t, "60", b.Total().String())
}
