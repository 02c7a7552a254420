package encoding

import (
	"bytes"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/o2-exchange/sdk-go/pkg/crypto"
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

func encodingMarket() *types.Market {
	return &types.Market{
		ContractID: types.ContractID(hex32(0xC0)),
		MarketID:   types.MarketID(hex32(0xB0)),
		MinOrder:   1,
		Base: types.MarketAsset{
			Symbol:       "FUEL",
			Asset:        types.AssetID(hex32(0x0B)),
			Decimals:     9,
			MaxPrecision: 6,
		},
		Quote: types.MarketAsset{
			Symbol:       "USDC",
			Asset:        types.AssetID(hex32(0x0C)),
			Decimals:     9,
			MaxPrecision: 6,
		},
	}
}

const testAccountID = "0x00000000000000000000000000000000000000000000000000000000000000aa"

func TestActionToCallBuyOrder(t *testing.T) {
	m := encodingMarket()
	action := types.CreateOrder{
		Side:     types.Buy,
		Price:    types.D("0.02"),
		Quantity: types.D("100"),
		Type:     types.Spot{},
	}
	call, payload, err := ActionToCall(action, m, testAccountID, nil)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}

	// buyer pays quote: 20000000 * 100000000000 / 10^9 = 2000000000
	if call.Amount != 2000000000 {
		t.Errorf("amount = %d, want 2000000000", call.Amount)
	}
	quoteAsset, _ := crypto.ParseB256(string(m.Quote.Asset))
	if call.AssetID != quoteAsset {
		t.Errorf("asset = %x, want quote asset", call.AssetID)
	}
	if call.Gas != GasMax {
		t.Errorf("gas = %d, want max", call.Gas)
	}
	if !bytes.Equal(call.Selector, FunctionSelector("create_order")) {
		t.Errorf("selector = %x", call.Selector)
	}

	wantData := EncodeOrderArgs(20000000, 100000000000, U64(1))
	if !bytes.Equal(call.CallData, wantData) {
		t.Errorf("call data = %x, want %x", call.CallData, wantData)
	}

	var body map[string]map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	co := body["CreateOrder"]
	if co["side"] != "Buy" || co["price"] != "20000000" || co["quantity"] != "100000000000" {
		t.Errorf("payload fields wrong: %v", co)
	}
	if co["order_type"] != "Spot" {
		t.Errorf("order_type = %v", co["order_type"])
	}
}

func TestActionToCallSellOrder(t *testing.T) {
	m := encodingMarket()
	action := types.CreateOrder{
		Side:     types.Sell,
		Price:    types.Raw(20000000),
		Quantity: types.Raw(100000000000),
		Type:     types.PostOnly{},
	}
	call, _, err := ActionToCall(action, m, testAccountID, nil)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}

	// seller locks base: amount is the quantity itself
	if call.Amount != 100000000000 {
		t.Errorf("amount = %d, want quantity", call.Amount)
	}
	baseAsset, _ := crypto.ParseB256(string(m.Base.Asset))
	if call.AssetID != baseAsset {
		t.Errorf("asset = %x, want base asset", call.AssetID)
	}
}

func TestActionToCallLimitOrder(t *testing.T) {
	m := encodingMarket()
	action := types.CreateOrder{
		Side:     types.Buy,
		Price:    types.D("0.02"),
		Quantity: types.D("100"),
		Type:     types.Limit{Price: types.D("0.02"), Timestamp: 1700000000},
	}
	call, payload, err := ActionToCall(action, m, testAccountID, nil)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}

	variant := append(U64(0), U64(20000000)...)
	variant = append(variant, U64(1700000000)...)
	wantData := EncodeOrderArgs(20000000, 100000000000, variant)
	if !bytes.Equal(call.CallData, wantData) {
		t.Errorf("call data = %x, want %x", call.CallData, wantData)
	}

	var body map[string]map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatal(err)
	}
	ot, ok := body["CreateOrder"]["order_type"].(map[string]any)
	if !ok {
		t.Fatalf("order_type = %v", body["CreateOrder"]["order_type"])
	}
	limit, ok := ot["Limit"].([]any)
	if !ok || len(limit) != 2 {
		t.Fatalf("Limit payload = %v", ot["Limit"])
	}
	if limit[0] != "20000000" || limit[1] != "1700000000" {
		t.Errorf("Limit values = %v", limit)
	}
}

func TestActionToCallCancelOrder(t *testing.T) {
	m := encodingMarket()
	orderID := hex32(0xD0)
	call, payload, err := ActionToCall(types.CancelOrder{OrderID: types.OrderID(orderID)}, m, testAccountID, nil)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}

	idBytes, _ := crypto.ParseB256(orderID)
	if !bytes.Equal(call.CallData, idBytes[:]) {
		t.Errorf("cancel call data must be the raw order id, got %x", call.CallData)
	}
	if call.Amount != 0 {
		t.Errorf("amount = %d, want 0", call.Amount)
	}

	var body map[string]map[string]string
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatal(err)
	}
	if body["CancelOrder"]["order_id"] != orderID {
		t.Errorf("payload order id = %q", body["CancelOrder"]["order_id"])
	}
}

func TestActionToCallSettleDefaultsToAccount(t *testing.T) {
	m := encodingMarket()
	call, payload, err := ActionToCall(types.SettleBalance{}, m, testAccountID, nil)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}

	acct, _ := crypto.ParseB256(string(testAccountID))
	want := EncodeIdentity(DiscriminantContract, acct)
	if !bytes.Equal(call.CallData, want) {
		t.Errorf("settle call data = %x, want %x", call.CallData, want)
	}

	var body map[string]map[string]types.Identity
	if err := json.Unmarshal(payload, &body); err != nil {
		t.Fatal(err)
	}
	if got := body["SettleBalance"]["to"]; got != types.ContractIdentity(string(testAccountID)) {
		t.Errorf("payload to = %v", got)
	}
}

func TestActionToCallRegisterReferer(t *testing.T) {
	m := encodingMarket()
	to := types.AddressIdentity(hex32(0xE0))

	if _, _, err := ActionToCall(types.RegisterReferer{To: to}, m, testAccountID, nil); err == nil {
		t.Fatal("expected error without registry id")
	}

	var registry [32]byte
	registry[0] = 0xF0
	call, _, err := ActionToCall(types.RegisterReferer{To: to}, m, testAccountID, &registry)
	if err != nil {
		t.Fatalf("ActionToCall: %v", err)
	}
	// referer registration targets the accounts registry, not the market
	if call.ContractID != registry {
		t.Errorf("contract = %x, want registry", call.ContractID)
	}
	addr, _ := crypto.ParseB256(to.Value)
	if !bytes.Equal(call.CallData, EncodeIdentity(DiscriminantAddress, addr)) {
		t.Errorf("call data = %x", call.CallData)
	}
}

func TestActionToCallRejectsWithdraw(t *testing.T) {
	m := encodingMarket()
	w := types.Withdraw{
		To:      types.AddressIdentity(hex32(0xE0)),
		AssetID: m.Base.Asset,
		Amount:  100,
	}
	if _, _, err := ActionToCall(w, m, testAccountID, nil); err == nil {
		t.Fatal("expected withdraw to be rejected from batches")
	}
}
