package session

import (
	"context"
	"strconv"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/encoding"
	"github.com/o2-exchange/sdk-go/pkg/rest"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// MaxBatchActions is the most actions one signed batch may carry.
const MaxBatchActions = 5

// MarketGroup pairs a market with the actions to run against it. A
// single batch may span several markets; the action count limit applies
// to the total across all groups.
type MarketGroup struct {
	Market  *types.Market
	Actions []types.Action
}

// Submitter signs and posts action batches for a session, advancing the
// session's nonce mirror the way the chain does: every submission that
// reaches the sequencer consumes the nonce, whether or not it succeeds.
type Submitter struct {
	rest     *rest.Client
	registry *[32]byte
	log      *zap.Logger
}

// NewSubmitter builds a Submitter. registry is the accounts registry
// contract, needed only for RegisterReferer actions; nil is fine when no
// batch will carry one.
func NewSubmitter(restClient *rest.Client, registry *[32]byte, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{rest: restClient, registry: registry, log: log}
}

// Submit encodes, signs and posts one batch. Size and expiry checks run
// before any network call. The session's nonce mirror is held locked for
// the duration, so concurrent Submit calls on one session serialize.
//
// Nonce reconciliation: success advances the mirror by one. Any failure
// also advances it by one (the submission may still have consumed the
// nonce), then re-fetches the authoritative value and overwrites; if the
// re-fetch itself fails the speculative value stands.
func (s *Submitter) Submit(ctx context.Context, sess *Session, groups []MarketGroup, collectOrders bool) (*types.SessionActionsResponse, error) {
	total := 0
	for _, g := range groups {
		total += len(g.Actions)
	}
	if total == 0 {
		return nil, apierr.New(apierr.CodeNoActionsProvided, "no actions provided")
	}
	if total > MaxBatchActions {
		return nil, apierr.New(apierr.CodeTooManyActions, "batch has %d actions, limit is %d", total, MaxBatchActions)
	}
	if err := sess.Expired(); err != nil {
		return nil, err
	}

	calls := make([]encoding.Call, 0, total)
	marketActions := make([]types.MarketActions, 0, len(groups))
	for _, g := range groups {
		payloads := make([]json.RawMessage, 0, len(g.Actions))
		for _, action := range g.Actions {
			call, payload, err := encoding.ActionToCall(action, g.Market, sess.TradeAccountID(), s.registry)
			if err != nil {
				return nil, err
			}
			calls = append(calls, call)
			payloads = append(payloads, payload)
		}
		marketActions = append(marketActions, types.MarketActions{
			MarketID: g.Market.MarketID,
			Actions:  payloads,
		})
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	nonce := sess.nonce

	signingBytes := encoding.ActionsSigningBytes(nonce, calls)
	sig, err := sess.key.RawSign(signingBytes)
	if err != nil {
		return nil, err
	}

	req := &types.SessionActionsRequest{
		Actions:        marketActions,
		Signature:      types.Signature{Secp256k1: crypto.HexSignature(sig)},
		Nonce:          strconv.FormatUint(nonce, 10),
		TradeAccountID: sess.TradeAccountID(),
		SessionID:      sess.SessionID(),
		CollectOrders:  &collectOrders,
	}

	resp, err := s.rest.SubmitActions(ctx, sess.OwnerID(), req)
	if err != nil {
		sess.nonce = nonce + 1
		s.refreshNonceLocked(ctx, sess)
		return nil, err
	}

	sess.nonce = nonce + 1
	s.log.Debug("batch submitted",
		zap.Int("actions", total),
		zap.Uint64("nonce", nonce))
	return resp, nil
}

// RefreshNonce fetches the authoritative account nonce and overwrites
// the session mirror.
func (s *Submitter) RefreshNonce(ctx context.Context, sess *Session) (uint64, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	account, err := s.rest.GetAccountByID(ctx, sess.TradeAccountID())
	if err != nil {
		return 0, err
	}
	if account.TradeAccount == nil {
		return 0, apierr.New(apierr.CodeAccountNotFound, "no trade account %s", sess.TradeAccountID())
	}
	sess.nonce = uint64(account.TradeAccount.Nonce)
	return sess.nonce, nil
}

// refreshNonceLocked is the best-effort variant used after a failed
// submission; the caller already holds the session mutex.
func (s *Submitter) refreshNonceLocked(ctx context.Context, sess *Session) {
	account, err := s.rest.GetAccountByID(ctx, sess.TradeAccountID())
	if err != nil || account.TradeAccount == nil {
		s.log.Debug("nonce refresh failed, keeping speculative value",
			zap.Uint64("nonce", sess.nonce), zap.Error(err))
		return
	}
	sess.nonce = uint64(account.TradeAccount.Nonce)
}
