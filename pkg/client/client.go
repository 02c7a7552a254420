// Package client is the high-level SDK entry point. It ties together the
// REST gateway, session management, action encoding and the WebSocket
// feeds behind one type, with a TTL cache for market metadata.
package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/apierr"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/rest"
	"github.com/o2-exchange/sdk-go/pkg/stream"
	"github.com/o2-exchange/sdk-go/pkg/types"
)

// MetadataPolicy controls when cached market metadata is refreshed.
type MetadataPolicy struct {
	// StrictFresh refetches before every metadata-dependent read.
	StrictFresh bool
	// TTL is the cache lifetime under the optimistic policy.
	TTL time.Duration
}

// Client is the high-level exchange client.
type Client struct {
	cfg  params.Config
	rest *rest.Client
	log  *zap.Logger

	policy MetadataPolicy

	metaMu      sync.Mutex
	meta        *types.MarketsResponse
	metaFetched time.Time

	wsMu sync.Mutex
	ws   *stream.Conn

	// testable retry knobs, defaults match production behavior
	whitelistDelays  []time.Duration
	faucetAttempts   int
	faucetRetryDelay time.Duration
	faucetCooldown   time.Duration
}

// New builds a Client from a configuration. A nil logger disables logging.
func New(cfg params.Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	ttl := cfg.MetadataTTL
	if ttl == 0 {
		ttl = 45 * time.Second
	}
	return &Client{
		cfg:              cfg,
		rest:             rest.New(cfg.Endpoints, log),
		log:              log,
		policy:           MetadataPolicy{TTL: ttl},
		whitelistDelays:  []time.Duration{0, 2 * time.Second, 5 * time.Second},
		faucetAttempts:   4,
		faucetRetryDelay: 5 * time.Second,
		faucetCooldown:   65 * time.Second,
	}
}

// SetMetadataPolicy replaces the metadata refresh policy.
func (c *Client) SetMetadataPolicy(p MetadataPolicy) {
	c.metaMu.Lock()
	c.policy = p
	c.metaMu.Unlock()
}

// Rest exposes the underlying REST client for endpoints without a
// high-level wrapper.
func (c *Client) Rest() *rest.Client { return c.rest }

// FetchMarkets refreshes the metadata cache unconditionally.
func (c *Client) FetchMarkets(ctx context.Context) (*types.MarketsResponse, error) {
	resp, err := c.rest.GetMarkets(ctx)
	if err != nil {
		return nil, err
	}
	c.metaMu.Lock()
	c.meta = resp
	c.metaFetched = time.Now()
	c.metaMu.Unlock()
	return resp, nil
}

func (c *Client) ensureMarkets(ctx context.Context) (*types.MarketsResponse, error) {
	c.metaMu.Lock()
	meta := c.meta
	stale := meta == nil || c.policy.StrictFresh || time.Since(c.metaFetched) >= c.policy.TTL
	c.metaMu.Unlock()
	if !stale {
		return meta, nil
	}
	return c.FetchMarkets(ctx)
}

// Markets returns all listed markets, from cache when fresh.
func (c *Client) Markets(ctx context.Context) ([]types.Market, error) {
	meta, err := c.ensureMarkets(ctx)
	if err != nil {
		return nil, err
	}
	return meta.Markets, nil
}

// Market resolves a symbol pair like "FUEL/USDC" to its market.
func (c *Client) Market(ctx context.Context, symbol types.MarketSymbol) (*types.Market, error) {
	meta, err := c.ensureMarkets(ctx)
	if err != nil {
		return nil, err
	}
	want := types.MarketSymbol(strings.ToUpper(string(symbol)))
	for i := range meta.Markets {
		if meta.Markets[i].Symbol() == want {
			return &meta.Markets[i], nil
		}
	}
	return nil, apierr.New(apierr.CodeMarketNotFound, "no market for pair %s", symbol)
}

// MarketByID resolves a hex market id to its market.
func (c *Client) MarketByID(ctx context.Context, marketID types.MarketID) (*types.Market, error) {
	meta, err := c.ensureMarkets(ctx)
	if err != nil {
		return nil, err
	}
	for i := range meta.Markets {
		if meta.Markets[i].MarketID == marketID {
			return &meta.Markets[i], nil
		}
	}
	return nil, apierr.New(apierr.CodeMarketNotFound, "no market for id %s", marketID)
}

// ChainID returns the chain id from market metadata.
func (c *Client) ChainID(ctx context.Context) (uint64, error) {
	meta, err := c.ensureMarkets(ctx)
	if err != nil {
		return 0, err
	}
	return meta.ParseChainID()
}

// accountsRegistryID returns the accounts registry contract from metadata.
func (c *Client) accountsRegistryID(ctx context.Context) (*[32]byte, error) {
	meta, err := c.ensureMarkets(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := crypto.ParseB256(string(meta.AccountsRegistryID))
	if err != nil {
		return nil, err
	}
	return &raw, nil
}
