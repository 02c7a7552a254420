package types

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// FlexUint64 is a uint64 that the gateway serializes inconsistently: as a
// JSON number, a decimal string, or a 0x-hex string. It always marshals
// back as a decimal string, which every endpoint accepts.
type FlexUint64 uint64

func (f FlexUint64) Uint64() uint64 { return uint64(f) }

func (f FlexUint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(f), 10))
}

func (f *FlexUint64) UnmarshalJSON(data []byte) error {
	v, err := parseFlexUint64(data)
	if err != nil {
		return err
	}
	*f = FlexUint64(v)
	return nil
}

func parseFlexUint64(data []byte) (uint64, error) {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return 0, nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return 0, err
		}
		s = raw
	}
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	if hex, ok := strings.CutPrefix(s, "0X"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// ParseFlexUint64 parses a decimal or 0x-hex string into uint64. Used for
// fields like chain_id that arrive as bare strings rather than JSON values.
func ParseFlexUint64(s string) (uint64, error) {
	if hex, ok := strings.CutPrefix(s, "0x"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	if hex, ok := strings.CutPrefix(s, "0X"); ok {
		return strconv.ParseUint(hex, 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}

// FlexFloat64 accepts a JSON number or a string containing one.
type FlexFloat64 float64

func (f *FlexFloat64) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s = raw
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = FlexFloat64(v)
	return nil
}

func (f FlexFloat64) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(f))
}

// BigAmount holds 128-bit balance and volume fields that do not fit uint64.
// Wire form is a decimal string or a JSON number.
type BigAmount struct {
	v big.Int
}

func NewBigAmount(v uint64) BigAmount {
	var a BigAmount
	a.v.SetUint64(v)
	return a
}

func (a *BigAmount) Int() *big.Int { return &a.v }
func (a BigAmount) String() string { return a.v.String() }
func (a BigAmount) IsZero() bool   { return a.v.Sign() == 0 }
func (a BigAmount) Uint64() uint64 { return a.v.Uint64() }
func (a BigAmount) IsUint64() bool { return a.v.IsUint64() }

func (a BigAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.String())
}

func (a *BigAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		s = raw
	}
	if _, ok := a.v.SetString(s, 10); !ok {
		return fmt.Errorf("invalid big amount %q", s)
	}
	if a.v.Sign() < 0 {
		return fmt.Errorf("big amount %q is negative", s)
	}
	return nil
}
