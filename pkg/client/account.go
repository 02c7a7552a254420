package client

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// SetupAccount is the idempotent account bootstrap: create the trading
// account if missing, fund it via the faucet when it holds no balance at
// all, and whitelist it on networks that require it. Faucet and
// whitelist failures are logged but never fatal; safe to run on every
// startup.
func (c *Client) SetupAccount(ctx context.Context, wallet crypto.Wallet) (*types.AccountResponse, error) {
	ownerID := crypto.HexB256(wallet.B256())

	existing, err := c.rest.GetAccountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var accountID types.TradeAccountID
	if existing.TradeAccountID != nil {
		accountID = *existing.TradeAccountID
	} else {
		created, err := c.rest.CreateAccount(ctx, types.AddressIdentity(ownerID))
		if err != nil {
			return nil, err
		}
		accountID = created.TradeAccountID
		c.log.Info("trade account created", zap.String("trade_account_id", string(accountID)))
	}

	if c.shouldFaucet(ctx, accountID) {
		c.retryMint(ctx, accountID)
	}
	c.retryWhitelist(ctx, accountID)

	return c.rest.GetAccountByID(ctx, accountID)
}

// shouldFaucet reports whether every known asset balance on the account
// is zero. Errors count as "fund it": a fresh account often has no
// balance rows yet.
func (c *Client) shouldFaucet(ctx context.Context, accountID types.TradeAccountID) bool {
	balances, err := c.Balances(ctx, accountID)
	if err != nil {
		c.log.Debug("balance check failed, assuming empty account", zap.Error(err))
		return true
	}
	for _, bal := range balances {
		if !bal.TradingAccountBalance.IsZero() || !bal.TotalLocked.IsZero() || !bal.TotalUnlocked.IsZero() {
			return false
		}
	}
	return true
}

// retryMint calls the faucet with cooldown-aware waits. Faucet cooldown
// errors back off a full cooldown window; other failures retry sooner.
func (c *Client) retryMint(ctx context.Context, accountID types.TradeAccountID) bool {
	if c.cfg.Endpoints.FaucetURL == "" {
		return true
	}

	lastErr := ""
	for attempt := 0; attempt < c.faucetAttempts; attempt++ {
		if attempt > 0 {
			wait := c.faucetRetryDelay
			lower := strings.ToLower(lastErr)
			if strings.Contains(lower, "cooldown") || strings.Contains(lower, "rate limit") || strings.Contains(lower, "too many") {
				wait = c.faucetCooldown
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return false
			}
		}

		resp, err := c.rest.MintToContract(ctx, accountID)
		switch {
		case err != nil:
			lastErr = err.Error()
		case resp.Error != nil:
			lastErr = *resp.Error
		default:
			c.log.Debug("faucet mint succeeded",
				zap.String("trade_account_id", string(accountID)),
				zap.Int("attempt", attempt+1))
			return true
		}
		c.log.Debug("faucet mint failed",
			zap.String("trade_account_id", string(accountID)),
			zap.Int("attempt", attempt+1),
			zap.String("error", lastErr))
	}
	c.log.Warn("faucet mint gave up",
		zap.String("trade_account_id", string(accountID)),
		zap.String("error", lastErr))
	return false
}

// retryWhitelist whitelists the account on networks that gate trading.
func (c *Client) retryWhitelist(ctx context.Context, accountID types.TradeAccountID) bool {
	if !c.cfg.Endpoints.WhitelistRequired {
		return true
	}

	lastErr := ""
	for i, delay := range c.whitelistDelays {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return false
			}
		}
		_, err := c.rest.WhitelistAccount(ctx, accountID)
		if err == nil {
			c.log.Debug("account whitelisted",
				zap.String("trade_account_id", string(accountID)),
				zap.Int("attempt", i+1))
			return true
		}
		lastErr = err.Error()
	}
	c.log.Warn("whitelist gave up",
		zap.String("trade_account_id", string(accountID)),
		zap.String("error", lastErr))
	return false
}

// Balances fetches the balance of every asset that appears in any
// market, keyed by asset symbol.
func (c *Client) Balances(ctx context.Context, accountID types.TradeAccountID) (map[string]*types.BalanceResponse, error) {
	markets, err := c.Markets(ctx)
	if err != nil {
		return nil, err
	}

	balances := make(map[string]*types.BalanceResponse)
	seen := make(map[types.AssetID]bool)
	for i := range markets {
		for _, leg := range []types.MarketAsset{markets[i].Base, markets[i].Quote} {
			if seen[leg.Asset] {
				continue
			}
			seen[leg.Asset] = true
			bal, err := c.rest.GetBalance(ctx, leg.Asset, accountID, "")
			if err != nil {
				return nil, err
			}
			balances[leg.Symbol] = bal
		}
	}
	return balances, nil
}
