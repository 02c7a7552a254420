package types

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Side of an order.
type Side uint8

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "Buy"
	}
	return "Sell"
}

func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw {
	case "Buy", "buy":
		*s = Buy
	case "Sell", "sell":
		*s = Sell
	default:
		return fmt.Errorf("invalid side %q", raw)
	}
	return nil
}

// Num is a price or quantity input. Callers supply either a human-readable
// decimal string, which is scaled against the market's decimals, or an
// already chain-scaled integer, which passes through untouched.
type Num struct {
	dec decimal.Decimal
	raw uint64
	// prescaled marks the raw form
	prescaled bool
}

// D parses a human-readable decimal like "0.02". Panics on malformed input;
// use ParseNum for untrusted strings.
func D(s string) Num {
	n, err := ParseNum(s)
	if err != nil {
		panic(err)
	}
	return n
}

// ParseNum parses a human-readable unsigned decimal string.
func ParseNum(s string) (Num, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Num{}, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	if d.IsNegative() {
		return Num{}, fmt.Errorf("decimal %q is negative", s)
	}
	return Num{dec: d}, nil
}

// Raw wraps an already chain-scaled integer.
func Raw(v uint64) Num {
	return Num{raw: v, prescaled: true}
}

func (n Num) String() string {
	if n.prescaled {
		return fmt.Sprintf("raw(%d)", n.raw)
	}
	return n.dec.String()
}

// OrderType is the tagged order-type variant attached to a CreateOrder.
type OrderType interface {
	isOrderType()
}

type (
	// Spot rests on the book at the order price.
	Spot struct{}
	// MarketOrder executes immediately at the best available price.
	MarketOrder struct{}
	// FillOrKill executes completely or not at all.
	FillOrKill struct{}
	// PostOnly rests on the book or is rejected; never takes.
	PostOnly struct{}
	// Limit rests at Price until Timestamp (unix ms).
	Limit struct {
		Price     Num
		Timestamp uint64
	}
	// BoundedMarket executes immediately within [MinPrice, MaxPrice].
	BoundedMarket struct {
		MaxPrice Num
		MinPrice Num
	}
)

func (Spot) isOrderType()          {}
func (MarketOrder) isOrderType()   {}
func (FillOrKill) isOrderType()    {}
func (PostOnly) isOrderType()      {}
func (Limit) isOrderType()         {}
func (BoundedMarket) isOrderType() {}

// Action is one trading instruction within a batch.
type Action interface {
	isAction()
}

type (
	CreateOrder struct {
		Side     Side
		Price    Num
		Quantity Num
		Type     OrderType
	}
	CancelOrder struct {
		OrderID OrderID
	}
	SettleBalance struct {
		To Identity
	}
	RegisterReferer struct {
		To Identity
	}
	// Withdraw moves funds out of the trading account. It is signed by the
	// owner wallet, not the session key, and cannot appear in an action
	// batch.
	Withdraw struct {
		To      Identity
		AssetID AssetID
		Amount  uint64
	}
)

func (CreateOrder) isAction()     {}
func (CancelOrder) isAction()     {}
func (SettleBalance) isAction()   {}
func (RegisterReferer) isAction() {}
func (Withdraw) isAction()        {}
