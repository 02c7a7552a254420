package encoding

import (
	"fmt"
	"math/big"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// EncodeOrderArgs serializes the OrderArgs struct for create_order
// call_data: u64(price) + u64(quantity) + tightly packed order-type
// variant. Variants have disjoint widths; there is no padding.
func EncodeOrderArgs(price, quantity uint64, orderType []byte) []byte {
	out := make([]byte, 0, 16+len(orderType))
	out = append(out, U64(price)...)
	out = append(out, U64(quantity)...)
	return append(out, orderType...)
}

// encodeOrderType scales any embedded prices and returns the packed variant
// bytes plus the JSON form the gateway expects.
func encodeOrderType(ot types.OrderType, market *types.Market) ([]byte, any, error) {
	switch v := ot.(type) {
	case types.Limit:
		price, err := market.ScalePrice(v.Price)
		if err != nil {
			return nil, nil, err
		}
		out := append(U64(0), U64(price)...)
		out = append(out, U64(v.Timestamp)...)
		payload := map[string][]string{
			"Limit": {strconv.FormatUint(price, 10), strconv.FormatUint(v.Timestamp, 10)},
		}
		return out, payload, nil
	case types.Spot:
		return U64(1), "Spot", nil
	case types.FillOrKill:
		return U64(2), "FillOrKill", nil
	case types.PostOnly:
		return U64(3), "PostOnly", nil
	case types.MarketOrder:
		return U64(4), "Market", nil
	case types.BoundedMarket:
		maxPrice, err := market.ScalePrice(v.MaxPrice)
		if err != nil {
			return nil, nil, err
		}
		minPrice, err := market.ScalePrice(v.MinPrice)
		if err != nil {
			return nil, nil, err
		}
		out := append(U64(5), U64(maxPrice)...)
		out = append(out, U64(minPrice)...)
		payload := map[string]map[string]string{
			"BoundedMarket": {
				"max_price": strconv.FormatUint(maxPrice, 10),
				"min_price": strconv.FormatUint(minPrice, 10),
			},
		}
		return out, payload, nil
	default:
		return nil, nil, fmt.Errorf("unknown order type %T", ot)
	}
}

// ActionToCall translates one high-level action into the low-level call
// for signing plus the JSON payload for the request body. CreateOrder
// prices and quantities are scaled, adjusted and validated here, so the
// signed bytes and the JSON always agree.
//
// Withdrawals do not go through the session-actions batch; they have their
// own owner-signed flow and are rejected here.
func ActionToCall(action types.Action, market *types.Market, tradeAccountID types.TradeAccountID, accountsRegistryID *[32]byte) (Call, json.RawMessage, error) {
	contractID, err := crypto.ParseB256(string(market.ContractID))
	if err != nil {
		return Call{}, nil, fmt.Errorf("market contract id: %w", err)
	}

	switch a := action.(type) {
	case types.CreateOrder:
		return createOrderToCall(a, market, contractID)

	case types.CancelOrder:
		orderID, err := crypto.ParseB256(string(a.OrderID))
		if err != nil {
			return Call{}, nil, fmt.Errorf("order id: %w", err)
		}
		call := Call{
			ContractID: contractID,
			Selector:   FunctionSelector("cancel_order"),
			Gas:        GasMax,
			// cancel_order call_data is the raw order id, not an
			// identity or option wrapper
			CallData: orderID[:],
		}
		payload, err := marshalPayload(map[string]map[string]string{
			"CancelOrder": {"order_id": string(a.OrderID)},
		})
		return call, payload, err

	case types.SettleBalance:
		to := a.To
		if to.Value == "" {
			// default destination is the trading account itself
			to = types.ContractIdentity(string(tradeAccountID))
		}
		disc, addr, err := identityParts(to)
		if err != nil {
			return Call{}, nil, err
		}
		call := Call{
			ContractID: contractID,
			Selector:   FunctionSelector("settle_balance"),
			Gas:        GasMax,
			CallData:   EncodeIdentity(disc, addr),
		}
		payload, err := marshalPayload(map[string]map[string]types.Identity{
			"SettleBalance": {"to": to},
		})
		return call, payload, err

	case types.RegisterReferer:
		if accountsRegistryID == nil {
			return Call{}, nil, fmt.Errorf("accounts registry id required for RegisterReferer")
		}
		disc, addr, err := identityParts(a.To)
		if err != nil {
			return Call{}, nil, err
		}
		call := Call{
			ContractID: *accountsRegistryID,
			Selector:   FunctionSelector("register_referer"),
			Gas:        GasMax,
			CallData:   EncodeIdentity(disc, addr),
		}
		payload, err := marshalPayload(map[string]map[string]types.Identity{
			"RegisterReferer": {"to": a.To},
		})
		return call, payload, err

	case types.Withdraw:
		return Call{}, nil, fmt.Errorf("withdraw cannot be batched; use the owner-signed withdraw flow")

	default:
		return Call{}, nil, fmt.Errorf("unknown action %T", action)
	}
}

func createOrderToCall(a types.CreateOrder, market *types.Market, contractID [32]byte) (Call, json.RawMessage, error) {
	baseAsset, err := crypto.ParseB256(string(market.Base.Asset))
	if err != nil {
		return Call{}, nil, fmt.Errorf("base asset id: %w", err)
	}
	quoteAsset, err := crypto.ParseB256(string(market.Quote.Asset))
	if err != nil {
		return Call{}, nil, fmt.Errorf("quote asset id: %w", err)
	}

	price, err := market.ScalePrice(a.Price)
	if err != nil {
		return Call{}, nil, err
	}
	quantity, err := market.ScaleQuantity(a.Quantity)
	if err != nil {
		return Call{}, nil, err
	}
	quantity, err = market.AdjustQuantity(price, quantity)
	if err != nil {
		return Call{}, nil, err
	}
	if err := market.ValidateOrder(price, quantity); err != nil {
		return Call{}, nil, err
	}

	otBytes, otJSON, err := encodeOrderType(a.Type, market)
	if err != nil {
		return Call{}, nil, err
	}

	var amount uint64
	var assetID [32]byte
	if a.Side == types.Buy {
		// buyer pays quote: amount = price*quantity / 10^baseDecimals,
		// computed in 128 bits to avoid overflow
		product := new(big.Int).Mul(
			new(big.Int).SetUint64(price),
			new(big.Int).SetUint64(quantity),
		)
		product.Quo(product, pow10Big(market.Base.Decimals))
		if !product.IsUint64() {
			return Call{}, nil, fmt.Errorf("order value exceeds uint64 range")
		}
		amount = product.Uint64()
		assetID = quoteAsset
	} else {
		amount = quantity
		assetID = baseAsset
	}

	call := Call{
		ContractID: contractID,
		Selector:   FunctionSelector("create_order"),
		Amount:     amount,
		AssetID:    assetID,
		Gas:        GasMax,
		CallData:   EncodeOrderArgs(price, quantity, otBytes),
	}
	payload, err := marshalPayload(map[string]map[string]any{
		"CreateOrder": {
			"side":       a.Side.String(),
			"price":      strconv.FormatUint(price, 10),
			"quantity":   strconv.FormatUint(quantity, 10),
			"order_type": otJSON,
		},
	})
	return call, payload, err
}

func identityParts(id types.Identity) (uint64, [32]byte, error) {
	addr, err := crypto.ParseB256(id.Value)
	if err != nil {
		return 0, [32]byte{}, fmt.Errorf("identity address: %w", err)
	}
	disc := DiscriminantAddress
	if id.Kind == types.IdentityContract {
		disc = DiscriminantContract
	}
	return disc, addr, nil
}

func marshalPayload(v any) (json.RawMessage, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal action payload: %w", err)
	}
	return out, nil
}

func pow10Big(exp uint32) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
}
