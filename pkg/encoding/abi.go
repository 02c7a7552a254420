// Package encoding implements the Fuel ABI byte layouts the on-chain
// verifier checks signatures against. Every layout here must match the
// contract exactly; a single byte of drift produces signatures the chain
// rejects with no local symptom.
package encoding

import (
	"encoding/binary"
	"math"
)

// GasMax is the gas sentinel meaning "no explicit limit". The gateway
// substitutes its own estimate.
const GasMax uint64 = math.MaxUint64

// Identity discriminants.
const (
	DiscriminantAddress  uint64 = 0
	DiscriminantContract uint64 = 1
)

// U64 encodes a value as 8 bytes big-endian.
func U64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

// FunctionSelector encodes a Fuel function selector:
// u64(len(name)) + raw UTF-8 name. Selectors are length-prefixed names,
// not hashes; hashing the name would be silently wrong until the chain
// rejects the call.
func FunctionSelector(name string) []byte {
	out := make([]byte, 0, 8+len(name))
	out = append(out, U64(uint64(len(name)))...)
	return append(out, name...)
}

// EncodeIdentity encodes a Fuel Identity enum: u64(discriminant) followed
// by the 32-byte address. 0 = Address, 1 = ContractId.
func EncodeIdentity(discriminant uint64, addr [32]byte) []byte {
	out := make([]byte, 0, 40)
	out = append(out, U64(discriminant)...)
	return append(out, addr[:]...)
}

// OptionNone encodes Option::None as u64(0).
func OptionNone() []byte {
	return U64(0)
}

// OptionSome encodes Option::Some(data) as u64(1) + data.
func OptionSome(data []byte) []byte {
	out := make([]byte, 0, 8+len(data))
	out = append(out, U64(1)...)
	return append(out, data...)
}

// OptionCallData encodes the call_data option inside action signing bytes.
// nil encodes as u64(0); otherwise u64(1) + u64(len) + data.
func OptionCallData(data []byte) []byte {
	if data == nil {
		return U64(0)
	}
	out := make([]byte, 0, 16+len(data))
	out = append(out, U64(1)...)
	out = append(out, U64(uint64(len(data)))...)
	return append(out, data...)
}

// Call is one low-level contract call within an action batch.
type Call struct {
	ContractID [32]byte
	Selector   []byte
	Amount     uint64
	AssetID    [32]byte
	Gas        uint64
	// CallData nil means Option::None
	CallData []byte
}

// SessionSigningBytes builds the payload the owner wallet personal-signs
// to register a session key.
//
// Layout: u64(nonce) + u64(chain_id) + selector("set_session")
// + u64(1) [Some] + u64(0) [Address] + session_address(32)
// + u64(expiry) + u64(len(contract_ids)) + contract_ids(32 each).
func SessionSigningBytes(nonce, chainID uint64, sessionAddr [32]byte, contractIDs [][32]byte, expiry uint64) []byte {
	out := make([]byte, 0, 128+len(contractIDs)*32)
	out = append(out, U64(nonce)...)
	out = append(out, U64(chainID)...)
	out = append(out, FunctionSelector("set_session")...)
	out = append(out, U64(1)...)
	out = append(out, U64(DiscriminantAddress)...)
	out = append(out, sessionAddr[:]...)
	out = append(out, U64(expiry)...)
	out = append(out, U64(uint64(len(contractIDs)))...)
	for _, cid := range contractIDs {
		out = append(out, cid[:]...)
	}
	return out
}

// ActionsSigningBytes builds the payload the session key raw-signs for a
// batch submission.
//
// Layout: u64(nonce) + u64(len(calls)) + per call: contract_id(32)
// + u64(len(selector)) + selector + u64(amount) + asset_id(32)
// + u64(gas) + OptionCallData(call_data).
func ActionsSigningBytes(nonce uint64, calls []Call) []byte {
	out := make([]byte, 0, 256)
	out = append(out, U64(nonce)...)
	out = append(out, U64(uint64(len(calls)))...)
	for _, c := range calls {
		out = append(out, c.ContractID[:]...)
		out = append(out, U64(uint64(len(c.Selector)))...)
		out = append(out, c.Selector...)
		out = append(out, U64(c.Amount)...)
		out = append(out, c.AssetID[:]...)
		out = append(out, U64(c.Gas)...)
		out = append(out, OptionCallData(c.CallData)...)
	}
	return out
}

// WithdrawSigningBytes builds the payload the owner wallet personal-signs
// for a withdrawal.
//
// Layout: u64(nonce) + u64(chain_id) + selector("withdraw")
// + u64(to_discriminant) + to_address(32) + asset_id(32) + u64(amount).
func WithdrawSigningBytes(nonce, chainID, toDiscriminant uint64, toAddr, assetID [32]byte, amount uint64) []byte {
	out := make([]byte, 0, 128)
	out = append(out, U64(nonce)...)
	out = append(out, U64(chainID)...)
	out = append(out, FunctionSelector("withdraw")...)
	out = append(out, U64(toDiscriminant)...)
	out = append(out, toAddr[:]...)
	out = append(out, assetID[:]...)
	out = append(out, U64(amount)...)
	return out
}
