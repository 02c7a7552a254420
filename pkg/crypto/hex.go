package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

func stripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// ParseB256 decodes a 32-byte hex string, with or without a 0x prefix.
func ParseB256(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(stripHexPrefix(s))
	if err != nil {
		return out, fmt.Errorf("invalid b256 %q: %w", s, err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("invalid b256 %q: got %d bytes, want 32", s, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// HexB256 renders a 32-byte value as lowercase 0x-prefixed hex.
func HexB256(b [32]byte) string {
	return "0x" + hex.EncodeToString(b[:])
}

// HexSignature renders a 64-byte compact signature as 0x-prefixed hex.
func HexSignature(sig [64]byte) string {
	return "0x" + hex.EncodeToString(sig[:])
}
