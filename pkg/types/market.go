package types

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
)

// MarketAsset describes one leg of a trading pair.
type MarketAsset struct {
	Symbol       string  `json:"symbol"`
	Asset        AssetID `json:"asset"`
	Decimals     uint32  `json:"decimals"`
	MaxPrecision uint32  `json:"max_precision"`
}

// Market is immutable per-pair reference data. Prices scale by the quote
// asset's decimals, quantities by the base asset's.
type Market struct {
	ContractID  ContractID  `json:"contract_id"`
	MarketID    MarketID    `json:"market_id"`
	WhitelistID *ContractID `json:"whitelist_id"`
	BlacklistID *ContractID `json:"blacklist_id"`
	MakerFee    FlexUint64  `json:"maker_fee"`
	TakerFee    FlexUint64  `json:"taker_fee"`
	MinOrder    FlexUint64  `json:"min_order"`
	Dust        FlexUint64  `json:"dust"`
	PriceWindow FlexUint64  `json:"price_window"`
	Base        MarketAsset `json:"base"`
	Quote       MarketAsset `json:"quote"`
}

// Symbol returns the pair symbol, e.g. "FUEL/USDC".
func (m *Market) Symbol() MarketSymbol {
	return MarketSymbol(m.Base.Symbol + "/" + m.Quote.Symbol)
}

func pow10u64(exp uint32, field string) (uint64, error) {
	if exp > 19 {
		return 0, fmt.Errorf("invalid %s: 10^%d overflows uint64", field, exp)
	}
	v := uint64(1)
	for i := uint32(0); i < exp; i++ {
		v *= 10
	}
	return v, nil
}

func precisionFactor(decimals, maxPrecision uint32, field string) (uint64, error) {
	if maxPrecision > decimals {
		return 0, fmt.Errorf("invalid %s: max_precision (%d) exceeds decimals (%d)", field, maxPrecision, decimals)
	}
	return pow10u64(decimals-maxPrecision, field)
}

// ScalePrice converts a price to its chain-scaled integer. Human-readable
// input is multiplied by 10^quote.decimals and truncated down to a multiple
// of 10^(decimals-max_precision). Pre-scaled input passes through untouched.
func (m *Market) ScalePrice(n Num) (uint64, error) {
	if n.prescaled {
		return n.raw, nil
	}
	scaled, err := scaleToUint64(n.dec, m.Quote.Decimals, "price", false)
	if err != nil {
		return 0, err
	}
	step, err := precisionFactor(m.Quote.Decimals, m.Quote.MaxPrecision, "quote precision")
	if err != nil {
		return 0, err
	}
	return (scaled / step) * step, nil
}

// ScaleQuantity converts a quantity to its chain-scaled integer. Unlike
// prices, quantities round UP to the precision multiple, so the amount
// placed is never silently less than requested. Pre-scaled input passes
// through untouched.
func (m *Market) ScaleQuantity(n Num) (uint64, error) {
	if n.prescaled {
		return n.raw, nil
	}
	scaled, err := scaleToUint64(n.dec, m.Base.Decimals, "quantity", true)
	if err != nil {
		return 0, err
	}
	step, err := precisionFactor(m.Base.Decimals, m.Base.MaxPrecision, "base precision")
	if err != nil {
		return 0, err
	}
	if rem := scaled % step; rem != 0 {
		if scaled > ^uint64(0)-(step-rem) {
			return 0, fmt.Errorf("quantity %s overflows uint64 after rounding", n.dec)
		}
		scaled += step - rem
	}
	return scaled, nil
}

func scaleToUint64(d decimal.Decimal, decimals uint32, field string, roundUp bool) (uint64, error) {
	factor, err := pow10u64(decimals, field)
	if err != nil {
		return 0, err
	}
	scaled := d.Mul(decimal.NewFromUint64(factor))
	if roundUp {
		scaled = scaled.Ceil()
	} else {
		scaled = scaled.Floor()
	}
	bi := scaled.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("%s %s does not fit in uint64 after scaling", field, d)
	}
	return bi.Uint64(), nil
}

// FormatPrice converts a chain-scaled price back to human-readable form.
func (m *Market) FormatPrice(chainValue uint64) decimal.Decimal {
	return decimal.NewFromUint64(chainValue).Shift(-int32(m.Quote.Decimals))
}

// FormatQuantity converts a chain-scaled quantity back to human-readable form.
func (m *Market) FormatQuantity(chainValue uint64) decimal.Decimal {
	return decimal.NewFromUint64(chainValue).Shift(-int32(m.Base.Decimals))
}

// AdjustQuantity reduces quantity to the largest value not exceeding the
// input for which (price * quantity) is divisible by 10^base.decimals.
// Returns the input unchanged when it already satisfies the constraint.
// The quantity is never increased: a larger fill could exceed the caller's
// balance intent.
func (m *Market) AdjustQuantity(price, quantity uint64) (uint64, error) {
	if price == 0 {
		return 0, apierr.New(apierr.CodeInvalidOrderParams, "price cannot be zero when adjusting quantity")
	}
	baseFactor, err := pow10u64(m.Base.Decimals, "base.decimals")
	if err != nil {
		return 0, err
	}
	// price*q divides 10^d exactly when q is a multiple of
	// 10^d / gcd(price, 10^d); round q down to that step
	step := baseFactor / gcd64(price, baseFactor)
	return quantity - quantity%step, nil
}

func gcd64(a, b uint64) uint64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// ValidateOrder checks the minimum order value and the fractional-price
// divisibility constraint on chain-scaled values.
func (m *Market) ValidateOrder(price, quantity uint64) error {
	baseFactor, err := pow10u64(m.Base.Decimals, "base.decimals")
	if err != nil {
		return err
	}
	product := new(big.Int).Mul(
		new(big.Int).SetUint64(price),
		new(big.Int).SetUint64(quantity),
	)
	factor := new(big.Int).SetUint64(baseFactor)
	quoteValue, rem := new(big.Int).DivMod(product, factor, new(big.Int))
	if quoteValue.Cmp(new(big.Int).SetUint64(m.MinOrder.Uint64())) < 0 {
		return apierr.New(apierr.CodeInvalidOrderParams,
			"quote value %s below min_order %d", quoteValue, m.MinOrder.Uint64())
	}
	if rem.Sign() != 0 {
		return apierr.New(apierr.CodeInvalidOrderParams,
			"(price * quantity) %% 10^base_decimals != 0")
	}
	return nil
}
