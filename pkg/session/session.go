// Package session manages delegated trading sessions: the owner-signed
// handshake that registers a session key with the gateway, and the local
// nonce mirror that every subsequent batch submission consumes.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// Session is an active delegated-trading session. The session key signs
// action batches on behalf of the owner wallet; the nonce mirror tracks
// the on-chain account nonce locally so batches can be signed without a
// round trip. All nonce access goes through the mutex.
type Session struct {
	ownerID        string
	tradeAccountID types.TradeAccountID
	contractIDs    []types.ContractID
	expiry         uint64
	key            *crypto.FuelWallet

	mu    sync.Mutex
	nonce uint64
}

// OwnerID returns the hex b256 address of the owner wallet, as sent in
// the O2-Owner-Id header.
func (s *Session) OwnerID() string { return s.ownerID }

// TradeAccountID returns the trading account contract this session is
// bound to.
func (s *Session) TradeAccountID() types.TradeAccountID { return s.tradeAccountID }

// ContractIDs returns the market contracts the session may act on.
func (s *Session) ContractIDs() []types.ContractID { return s.contractIDs }

// Expiry returns the unix-seconds expiry the session was registered with.
func (s *Session) Expiry() uint64 { return s.expiry }

// SessionID returns the session key address as an Identity, the form the
// gateway expects in session and actions requests.
func (s *Session) SessionID() types.Identity {
	return types.AddressIdentity(crypto.HexB256(s.key.B256()))
}

// Nonce returns the current local nonce mirror.
func (s *Session) Nonce() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce
}

// SetNonce overwrites the local nonce mirror with an authoritative value.
func (s *Session) SetNonce(nonce uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonce = nonce
}

// Expired reports whether the session is past its expiry. The check is
// purely local; it never touches the network.
func (s *Session) Expired() error {
	if s.expiry > 0 && uint64(time.Now().Unix()) >= s.expiry {
		return fmt.Errorf("%w: expired at %d, create a new session before submitting actions",
			apierr.ErrSessionExpired, s.expiry)
	}
	return nil
}

// SignActions signs an actions payload with the session key. Session
// actions use the raw SHA-256 digest, not the Fuel personal-sign prefix.
func (s *Session) SignActions(message []byte) ([64]byte, error) {
	return s.key.RawSign(message)
}

// Restore rebuilds a Session from persisted parts, for callers that keep
// session keys across process restarts. The nonce should be the last
// known account nonce; Submitter refreshes it on the first failure.
func Restore(ownerID string, tradeAccountID types.TradeAccountID, sessionKeyHex string, contractIDs []types.ContractID, expiry, nonce uint64) (*Session, error) {
	key, err := crypto.LoadWallet(sessionKeyHex)
	if err != nil {
		return nil, fmt.Errorf("load session key: %w", err)
	}
	return &Session{
		ownerID:        ownerID,
		tradeAccountID: tradeAccountID,
		contractIDs:    contractIDs,
		expiry:         expiry,
		key:            key,
		nonce:          nonce,
	}, nil
}

// KeyHex returns the session private key for persistence.
func (s *Session) KeyHex() string { return s.key.PrivateKeyHex() }
