package session

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/encoding"
	"github.com/o2-exchange/sdk-go/pkg/rest"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// Manager performs the session handshake against the gateway.
type Manager struct {
	rest *rest.Client
	log  *zap.Logger
}

func NewManager(restClient *rest.Client, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{rest: restClient, log: log}
}

// Create registers a fresh session key for the owner wallet, scoped to
// the given markets and valid until expiry (unix seconds). The payload
// is signed by the owner with its personal-sign scheme, so both Fuel and
// EVM wallets work. On success the returned Session carries a local
// nonce mirror of remoteNonce+1, matching the account state after the
// set_session transaction lands.
func (m *Manager) Create(ctx context.Context, owner crypto.Wallet, markets []*types.Market, chainID, expiry uint64) (*Session, error) {
	ownerID := crypto.HexB256(owner.B256())

	contractIDs := make([]types.ContractID, 0, len(markets))
	contractBytes := make([][32]byte, 0, len(markets))
	for _, market := range markets {
		raw, err := crypto.ParseB256(string(market.ContractID))
		if err != nil {
			return nil, fmt.Errorf("market %s contract id: %w", market.Symbol(), err)
		}
		contractIDs = append(contractIDs, market.ContractID)
		contractBytes = append(contractBytes, raw)
	}

	account, err := m.rest.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if account.TradeAccountID == nil || account.TradeAccount == nil {
		return nil, apierr.New(apierr.CodeAccountNotFound, "no trade account for owner %s", ownerID)
	}
	nonce := uint64(account.TradeAccount.Nonce)

	key, err := crypto.GenerateWallet()
	if err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}

	payload := encoding.SessionSigningBytes(nonce, chainID, key.B256(), contractBytes, expiry)
	sig, err := owner.PersonalSign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign session payload: %w", err)
	}

	req := &types.SessionRequest{
		ContractID:  *account.TradeAccountID,
		SessionID:   types.AddressIdentity(crypto.HexB256(key.B256())),
		Signature:   types.Signature{Secp256k1: crypto.HexSignature(sig)},
		ContractIDs: contractIDs,
		Nonce:       strconv.FormatUint(nonce, 10),
		Expiry:      strconv.FormatUint(expiry, 10),
	}

	resp, err := m.rest.CreateSession(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	m.log.Debug("session created",
		zap.String("trade_account_id", string(resp.TradeAccountID)),
		zap.String("tx_id", string(resp.TxID)),
		zap.Uint64("nonce", nonce),
		zap.Uint64("expiry", expiry))

	return &Session{
		ownerID:        ownerID,
		tradeAccountID: *account.TradeAccountID,
		contractIDs:    contractIDs,
		expiry:         expiry,
		key:            key,
		nonce:          nonce + 1,
	}, nil
}
