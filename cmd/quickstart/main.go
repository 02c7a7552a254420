// Quickstart: minimal end-to-end flow against the exchange. Loads config
// from .env, sets up an account, creates a session, places a far-off buy
// order, cancels it, and tails the depth stream for a few updates.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/o2-exchange/sdk-go/params"
	"github.com/o2-exchange/sdk-go/pkg/client"
	"github.com/o2-exchange/sdk-go/pkg/crypto"
	"github.com/o2-exchange/sdk-go/pkg/types"
	"github.com/o2-exchange/sdk-go/pkg/util"
)

func main() {
	cfg, err := params.LoadFromEnv("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := util.NewLogger(os.Getenv("O2_LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("quickstart failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg params.Config, logger *zap.Logger) error {
	c := client.New(cfg, logger)
	defer c.DisconnectWS()

	var owner *crypto.FuelWallet
	var err error
	if cfg.PrivateKey != "" {
		owner, err = crypto.LoadWallet(cfg.PrivateKey)
	} else {
		owner, err = crypto.GenerateWallet()
	}
	if err != nil {
		return err
	}
	fmt.Printf("Owner address: %s\n", crypto.HexB256(owner.B256()))

	fmt.Println("Setting up account...")
	account, err := c.SetupAccount(ctx, owner)
	if err != nil {
		return err
	}
	accountID := *account.TradeAccountID
	fmt.Printf("Trade account: %s\n", accountID)

	markets, err := c.Markets(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Available markets:")
	for _, m := range markets {
		fmt.Printf("  %s (%s)\n", m.Symbol(), m.MarketID)
	}
	market := markets[0]
	symbol := market.Symbol()
	fmt.Printf("\nTrading on: %s\n", symbol)

	fmt.Println("Creating session...")
	sess, err := c.CreateSession(ctx, owner, []types.MarketSymbol{symbol}, 30*24*time.Hour)
	if err != nil {
		return err
	}
	fmt.Printf("Session created, expiry: %d\n", sess.Expiry())

	// far below market so it rests instead of filling
	fmt.Println("Placing buy order...")
	resp, err := c.CreateOrder(ctx, sess, symbol, types.Buy,
		types.D("0.001"), types.D("100"), types.Spot{}, true, true)
	if err != nil {
		fmt.Printf("Order error: %v\n", err)
		fmt.Println("(expected when the account has insufficient balance)")
	} else if resp.IsSuccess() {
		fmt.Printf("Order placed, tx_id: %s\n", *resp.TxID)
		for _, order := range resp.Orders {
			fmt.Printf("  Order ID: %s\n", order.OrderID)
			fmt.Printf("\nCancelling order %s...\n", order.OrderID)
			if _, err := c.CancelOrder(ctx, sess, symbol, order.OrderID); err != nil {
				fmt.Printf("Cancel failed: %v\n", err)
			} else {
				fmt.Println("Order cancelled.")
			}
		}
	}

	fmt.Println("\nChecking balances...")
	balances, err := c.Balances(ctx, accountID)
	if err != nil {
		return err
	}
	for sym, bal := range balances {
		fmt.Printf("  %s: available=%s, locked=%s, unlocked=%s\n",
			sym, bal.TradingAccountBalance.String(), bal.TotalLocked.String(), bal.TotalUnlocked.String())
	}

	fmt.Println("\nStreaming depth (5 updates)...")
	depth, err := c.StreamDepth(ctx, symbol, 4)
	if err != nil {
		return err
	}
	for i := 0; i < 5; i++ {
		select {
		case update, ok := <-depth:
			if !ok {
				return fmt.Errorf("depth stream closed")
			}
			view := update.View
			if view == nil {
				view = update.Changes
			}
			if view != nil {
				fmt.Printf("  depth: %d buys / %d sells\n", len(view.Buys), len(view.Sells))
			}
		case <-ctx.Done():
			return nil
		}
	}

	fmt.Println("\nQuickstart complete.")
	return nil
}
