package crypto

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Wallet is an owner identity capable of authorizing sessions and
// withdrawals. Implemented by FuelWallet (SHA-256 prefix scheme) and
// EVMWallet (Ethereum prefix scheme).
type Wallet interface {
	// B256 returns the 32-byte on-chain identity.
	B256() [32]byte
	// PersonalSign signs a message using the wallet's prefixed scheme.
	PersonalSign(message []byte) ([64]byte, error)
}

// FuelWallet is a native secp256k1 wallet.
// Address = SHA-256(uncompressed_pubkey[1:65]).
type FuelWallet struct {
	priv *ecdsa.PrivateKey
	b256 [32]byte
}

// EVMWallet is an EVM-compatible secp256k1 wallet.
// EVM address = last 20 bytes of Keccak-256(uncompressed_pubkey[1:65]);
// the native identity is the 20 bytes zero-left-padded to 32.
type EVMWallet struct {
	priv *ecdsa.PrivateKey
	evm  [20]byte
	b256 [32]byte
}

// GenerateWallet creates a new random Fuel-native wallet.
func GenerateWallet() (*FuelWallet, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newFuelWallet(priv), nil
}

// LoadWallet creates a Fuel-native wallet from a hex private key
// ("0x1234..." or "1234...", 64 hex chars).
func LoadWallet(hexKey string) (*FuelWallet, error) {
	priv, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return newFuelWallet(priv), nil
}

func newFuelWallet(priv *ecdsa.PrivateKey) *FuelWallet {
	pub := crypto.FromECDSAPub(&priv.PublicKey)
	return &FuelWallet{priv: priv, b256: sha256.Sum256(pub[1:65])}
}

// B256 returns the Fuel address.
func (w *FuelWallet) B256() [32]byte { return w.b256 }

// PrivateKeyHex returns the private key as hex WITHOUT 0x prefix.
// Keep this secret; never log it.
func (w *FuelWallet) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(w.priv))
}

// PersonalSign signs with the Fuel prefixed scheme.
func (w *FuelWallet) PersonalSign(message []byte) ([64]byte, error) {
	return PersonalSign(w.priv, message)
}

// GenerateEVMWallet creates a new random EVM-compatible wallet.
func GenerateEVMWallet() (*EVMWallet, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newEVMWallet(priv), nil
}

// LoadEVMWallet creates an EVM wallet from a hex private key.
func LoadEVMWallet(hexKey string) (*EVMWallet, error) {
	priv, err := crypto.HexToECDSA(stripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return newEVMWallet(priv), nil
}

func newEVMWallet(priv *ecdsa.PrivateKey) *EVMWallet {
	pub := crypto.FromECDSAPub(&priv.PublicKey)
	hash := crypto.Keccak256(pub[1:65])

	w := &EVMWallet{priv: priv}
	copy(w.evm[:], hash[12:32])
	copy(w.b256[12:], w.evm[:])
	return w
}

// B256 returns the zero-padded native identity.
func (w *EVMWallet) B256() [32]byte { return w.b256 }

// EVMAddress returns the 20-byte EVM address.
func (w *EVMWallet) EVMAddress() [20]byte { return w.evm }

// PrivateKeyHex returns the private key as hex WITHOUT 0x prefix.
func (w *EVMWallet) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(w.priv))
}

// PersonalSign signs with the Ethereum prefixed scheme.
func (w *EVMWallet) PersonalSign(message []byte) ([64]byte, error) {
	return EVMPersonalSign(w.priv, message)
}

// RawSign signs sha256(message) with no prefix. Session keys use this for
// routine trading actions; owner flows must use PersonalSign instead.
func (w *FuelWallet) RawSign(message []byte) ([64]byte, error) {
	return RawSign(w.priv, message)
}
