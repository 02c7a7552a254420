package types

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Identifier kinds used across the API. All are 0x-prefixed hex on the wire
// except MarketSymbol, which is a pair like "FUEL/USDC".
type (
	MarketSymbol   string
	ContractID     string
	MarketID       string
	OrderID        string
	TradeID        string
	TradeAccountID string
	AssetID        string
)

// TxID is a transaction id. The gateway sometimes returns them without the
// 0x prefix; NormalizeTxID makes the representation uniform.
type TxID string

func NormalizeTxID(s string) TxID {
	if s == "" || strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return TxID(s)
	}
	return TxID("0x" + s)
}

func (t *TxID) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = NormalizeTxID(raw)
	return nil
}
