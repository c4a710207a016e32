package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "CloakedDevnet"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultRPCURL        = "https://api.devnet.solana.com"
	defaultShutdownDelay = 10 * time.Second

	defaultIdempotencyTTL = 24 * time.Hour
	defaultChallengeTTL   = 5 * time.Minute
	defaultAccessTokenTTL = 12 * time.Hour

	// Simulated latency defaults mirror the dashboard UX timings.
	defaultSignatureDelay   = 1500 * time.Millisecond
	defaultInitializeDelay  = 2 * time.Second
	defaultTransactionDelay = 2 * time.Second
	defaultRefreshDelay     = 800 * time.Millisecond
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName string
	AppEnv  string
	Port    string

	LogLevel    string
	DatabaseURL string
	RedisURL    string

	RPCURL           string
	WalletPrivateKey string

	JWTSecret      string
	AccessTokenTTL time.Duration
	ChallengeTTL   time.Duration

	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Simulated latency applied by the privacy-cash ledger. Tests set these to zero.
	SignatureDelay   time.Duration
	InitializeDelay  time.Duration
	TransactionDelay time.Duration
	RefreshDelay     time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:          getEnv("APP_NAME", defaultAppName),
		AppEnv:           getEnv("APP_ENV", defaultAppEnv),
		Port:             getEnv("PORT", defaultPort),
		LogLevel:         strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		RPCURL:           getEnv("RPC_URL", defaultRPCURL),
		WalletPrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		AccessTokenTTL:   defaultAccessTokenTTL,
		ChallengeTTL:     defaultChallengeTTL,
		ShutdownPeriod:   defaultShutdownDelay,
		IdempotencyTTL:   defaultIdempotencyTTL,
		SignatureDelay:   defaultSignatureDelay,
		InitializeDelay:  defaultInitializeDelay,
		TransactionDelay: defaultTransactionDelay,
		RefreshDelay:     defaultRefreshDelay,
	}

	durations := []struct {
		envVar string
		dst    *time.Duration
	}{
		{"ACCESS_TOKEN_TTL", &cfg.AccessTokenTTL},
		{"CHALLENGE_TTL", &cfg.ChallengeTTL},
		{"IDEMPOTENCY_TTL", &cfg.IdempotencyTTL},
		{"SIM_SIGNATURE_DELAY", &cfg.SignatureDelay},
		{"SIM_INITIALIZE_DELAY", &cfg.InitializeDelay},
		{"SIM_TRANSACTION_DELAY", &cfg.TransactionDelay},
		{"SIM_REFRESH_DELAY", &cfg.RefreshDelay},
	}
	for _, d := range durations {
		if v := os.Getenv(d.envVar); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", d.envVar, err)
			}
			*d.dst = parsed
		}
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownPeriod = d
	}

	if cfg.JWTSecret == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.JWTSecret = "devnet-insecure-secret"
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the app runs in a development-like environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
