package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Network selects a deployment environment.
type Network string

const (
	Testnet Network = "testnet"
	Devnet  Network = "devnet"
	Mainnet Network = "mainnet"
)

// Endpoints holds the gateway URLs for one network.
type Endpoints struct {
	APIBase string
	WSURL   string
	FuelRPC string
	// FaucetURL is empty on networks without a faucet.
	FaucetURL string
	// WhitelistRequired gates account bootstrap behind the analytics
	// whitelist endpoint.
	WhitelistRequired bool
}

// Stream holds websocket tuning knobs.
type Stream struct {
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	// MaxReconnectAttempts of 0 means retry forever.
	MaxReconnectAttempts int
	PingInterval         time.Duration
	PongTimeout          time.Duration
}

// DefaultStream returns the stream tuning used when nothing overrides it.
func DefaultStream() Stream {
	return Stream{
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 60 * time.Second,
		PingInterval:      30 * time.Second,
		PongTimeout:       60 * time.Second,
	}
}

// Config is the full SDK configuration.
type Config struct {
	Network   Network
	Endpoints Endpoints
	Stream    Stream
	// PrivateKey is the owner wallet key, hex with or without 0x prefix.
	// Loaded only from the environment, never from presets.
	PrivateKey string
	// MetadataTTL bounds how long cached market metadata stays fresh.
	MetadataTTL time.Duration
}

// Default returns the configuration for a network.
func Default(network Network) (Config, error) {
	cfg := Config{
		Network:     network,
		Stream:      DefaultStream(),
		MetadataTTL: 45 * time.Second,
	}
	switch network {
	case Testnet:
		cfg.Endpoints = Endpoints{
			APIBase:           "https://api.testnet.o2.app",
			WSURL:             "wss://api.testnet.o2.app/v1/ws",
			FuelRPC:           "https://testnet.fuel.network/v1/graphql",
			FaucetURL:         "https://fuel-o2-faucet.vercel.app/api/testnet/mint-v2",
			WhitelistRequired: true,
		}
	case Devnet:
		cfg.Endpoints = Endpoints{
			APIBase:   "https://api.devnet.o2.app",
			WSURL:     "wss://api.devnet.o2.app/v1/ws",
			FuelRPC:   "https://devnet.fuel.network/v1/graphql",
			FaucetURL: "https://fuel-o2-faucet.vercel.app/api/devnet/mint-v2",
		}
	case Mainnet:
		cfg.Endpoints = Endpoints{
			APIBase: "https://api.o2.app",
			WSURL:   "wss://api.o2.app/v1/ws",
			FuelRPC: "https://mainnet.fuel.network/v1/graphql",
		}
	default:
		return Config{}, fmt.Errorf("unknown network %q", network)
	}
	return cfg, nil
}

// LoadFromEnv loads configuration from a .env file (if present) and
// environment variables. Priority: ENV > .env file > network defaults.
func LoadFromEnv(envPath string) (Config, error) {
	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	network := Network(getEnv("O2_NETWORK", string(Testnet)))
	cfg, err := Default(network)
	if err != nil {
		return Config{}, err
	}

	cfg.PrivateKey = os.Getenv("O2_PRIVATE_KEY")

	if v := os.Getenv("O2_API_BASE"); v != "" {
		cfg.Endpoints.APIBase = v
	}
	if v := os.Getenv("O2_WS_URL"); v != "" {
		cfg.Endpoints.WSURL = v
	}
	if v := os.Getenv("O2_FAUCET_URL"); v != "" {
		cfg.Endpoints.FaucetURL = v
	}
	if v := os.Getenv("O2_METADATA_TTL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.MetadataTTL = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("O2_WS_PING_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			cfg.Stream.PingInterval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("O2_WS_MAX_RECONNECT_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Stream.MaxReconnectAttempts = n
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
