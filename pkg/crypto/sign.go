package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Signed-message prefixes. Scheme selection follows the identity kind:
// Fuel wallets hash with SHA-256, EVM wallets with Keccak-256.
const (
	fuelMessagePrefix = "\x19Fuel Signed Message:\n"
	evmMessagePrefix  = "\x19Ethereum Signed Message:\n"
)

// FuelDigest computes sha256(prefix + decimal-ASCII length + message).
func FuelDigest(message []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(fuelMessagePrefix))
	h.Write([]byte(strconv.Itoa(len(message))))
	h.Write(message)
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// EVMDigest computes keccak256(prefix + decimal-ASCII length + message).
func EVMDigest(message []byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(evmMessagePrefix))
	h.Write([]byte(strconv.Itoa(len(message))))
	h.Write(message)
	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// RawDigest computes sha256(message) with no prefix.
func RawDigest(message []byte) [32]byte {
	return sha256.Sum256(message)
}

// CompactSign signs a 32-byte digest and returns the 64-byte compact form
// r followed by s' where s' carries the recovery id in the MSB of its first byte:
// s'[0] = (recoveryID << 7) | (s[0] & 0x7F).
//
// The signing backend produces low-s signatures, which the packing relies
// on. Callers packing externally produced signatures via PackCompact must
// normalize s and flip the recovery id themselves first.
func CompactSign(priv *ecdsa.PrivateKey, digest [32]byte) ([64]byte, error) {
	var compact [64]byte
	if priv == nil {
		return compact, fmt.Errorf("signing failed: nil private key")
	}
	// 65 bytes: R || S || V, V in {0, 1}, S already low-s normalized.
	sig, err := crypto.Sign(digest[:], priv)
	if err != nil {
		return compact, fmt.Errorf("signing failed: %w", err)
	}
	var r, s [32]byte
	copy(r[:], sig[0:32])
	copy(s[:], sig[32:64])
	return PackCompact(r, s, sig[64]), nil
}

// PackCompact embeds the recovery id into the MSB of s[0].
// Precondition: s is low-s normalized (s <= curveOrder/2).
func PackCompact(r, s [32]byte, recoveryID byte) [64]byte {
	var compact [64]byte
	copy(compact[0:32], r[:])
	copy(compact[32:64], s[:])
	compact[32] = (recoveryID << 7) | (compact[32] & 0x7F)
	return compact
}

// UnpackCompact recovers (r, s, recoveryID) from a compact signature.
func UnpackCompact(compact [64]byte) (r, s [32]byte, recoveryID byte) {
	copy(r[:], compact[0:32])
	copy(s[:], compact[32:64])
	recoveryID = s[0] >> 7
	s[0] &= 0x7F
	return r, s, recoveryID
}

// PersonalSign signs using the Fuel prefixed scheme. Used for session
// creation and withdrawals by Fuel-native owners.
func PersonalSign(priv *ecdsa.PrivateKey, message []byte) ([64]byte, error) {
	return CompactSign(priv, FuelDigest(message))
}

// EVMPersonalSign signs using the Ethereum prefixed scheme. Used for
// session creation and withdrawals by EVM owners.
func EVMPersonalSign(priv *ecdsa.PrivateKey, message []byte) ([64]byte, error) {
	return CompactSign(priv, EVMDigest(message))
}

// RawSign signs sha256(message) with no prefix. Only session-authorized
// trading actions use this scheme.
func RawSign(priv *ecdsa.PrivateKey, message []byte) ([64]byte, error) {
	return CompactSign(priv, RawDigest(message))
}
