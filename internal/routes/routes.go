package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cloakedagent/cloaked-backend/internal/agent"
	"github.com/cloakedagent/cloaked-backend/internal/auth"
	"github.com/cloakedagent/cloaked-backend/internal/chain"
	"github.com/cloakedagent/cloaked-backend/internal/config"
	"github.com/cloakedagent/cloaked-backend/internal/middleware"
	"github.com/cloakedagent/cloaked-backend/internal/notify"
	"github.com/cloakedagent/cloaked-backend/internal/privacycash"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	RPC    *rpc.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. Outside of dev
// environments the durable backends are mandatory; in dev, missing backends
// fall back to in-memory implementations.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.RPC == nil {
			return fmt.Errorf("rpc client is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	wallet, err := sessionWallet(d)
	if err != nil {
		return err
	}

	var conn chain.Connection
	if d.RPC != nil {
		conn = chain.NewRPCConnection(d.RPC)
	}

	delays := privacycash.Delays{
		Signature:   d.Cfg.SignatureDelay,
		Initialize:  d.Cfg.InitializeDelay,
		Transaction: d.Cfg.TransactionDelay,
		Refresh:     d.Cfg.RefreshDelay,
	}
	registry := privacycash.NewRegistry(func(owner string) *privacycash.Service {
		var store privacycash.Store
		if d.Cache != nil {
			store = privacycash.NewRedisStore(d.Cache, privacycash.BalanceKeyFor(owner))
		} else {
			store = privacycash.NewMemoryStore()
		}
		return privacycash.NewService(store, wallet, conn, delays, d.Logger)
	})
	privacyHandler := privacycash.NewHandler(registry)

	var agentRepo agent.Repository
	if d.DB != nil {
		agentRepo = agent.NewPostgresRepository(d.DB)
	} else {
		agentRepo = agent.NewMemoryRepository()
	}
	notifier := notify.NewLoggerNotifier(d.Logger)
	agentSvc := agent.NewService(agentRepo, notifier, nil)
	agentHandler := agent.NewHandler(agentSvc)

	var challenges auth.ChallengeStore
	if d.Cache != nil {
		challenges = auth.NewRedisChallengeStore(d.Cache)
	} else {
		challenges = auth.NewMemoryChallengeStore()
	}
	authSvc := auth.NewService(d.Cfg, challenges)
	authHandler := auth.NewHandler(authSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDKey).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, authHandler, middleware.ChallengeRateLimit(d.Cache, 5))

	protected := api.Group("", middleware.WalletSession(d.Cfg))
	RegisterPrivacyRoutes(protected, privacyHandler)
	RegisterAgentRoutes(protected, agentHandler)

	return nil
}

// sessionWallet builds the devnet payer wallet. Dev environments without a
// configured key get an ephemeral one so the demo flows work out of the box.
func sessionWallet(d Deps) (chain.Wallet, error) {
	if d.Cfg.WalletPrivateKey != "" {
		return chain.NewKeypairWallet(d.Cfg.WalletPrivateKey)
	}
	if !d.Cfg.IsDev() {
		return nil, fmt.Errorf("WALLET_PRIVATE_KEY is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate ephemeral wallet: %w", err)
	}
	d.Logger.Warn("using ephemeral devnet wallet", "pubkey", key.PublicKey().String())
	return chain.NewKeypairWallet(key.String())
}
