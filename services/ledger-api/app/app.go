package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/auth"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/cache"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/database"
	middleware "github.com/nimeshabuddhika/copytrade-ledger/pkg/middlewares"
	"github.com/nimeshabuddhika/copytrade-ledger/pkg/repositories"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/configs"
	_ "github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/docs"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/handlers"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/ledger"
	"github.com/nimeshabuddhika/copytrade-ledger/services/ledger-api/internal/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Dependencies are the wired services the router is built from.
type Dependencies struct {
	DB       database.Store
	Pinger   handlers.Pinger
	Gate     middleware.PrincipalResolver
	Limiter  middleware.Limiter
	Accounts services.AccountService
	Intake   services.IntakeService
	Approval services.ApprovalService
	Wallets  services.WalletService
	Stats    services.StatsService
	Catalog  services.CatalogService
}

// NewApp wires dependencies, builds the Gin engine, and returns an *http.Server and a cleanup func.
// It reads configuration from environment variables via configs.Load.
func NewApp(ctx context.Context, logger *zap.Logger) (*http.Server, func(), error) {
	// Load config
	cfg, err := configs.Load(logger)
	if err != nil {
		return nil, nil, err
	}
	limits, err := ledger.NewLimits(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Initialize postgres db
	dbConfig := database.Config{
		PrimaryDSN:  cfg.PrimaryDbAddr,
		ReplicaDSNs: []string{cfg.ReplicaDbAddr},
		MaxConns:    cfg.MaxDbCons,
		MinConns:    cfg.MinDbCons,
	}
	db, disconnect, err := database.New(ctx, logger, dbConfig)
	if err != nil {
		return nil, nil, err
	}

	// Run migrations on primary
	if err := database.RunMigrations(logger, cfg.PrimaryDbAddr); err != nil {
		disconnect()
		return nil, nil, err
	}

	redisClient, redisCloser, err := cache.New(ctx, logger, cache.Config{Addr: cfg.RedisAddr})
	if err != nil {
		disconnect()
		return nil, nil, err
	}

	publisher, err := services.NewEventPublisher(ctx, logger, cfg)
	if err != nil {
		redisCloser()
		disconnect()
		return nil, nil, err
	}

	// Setup dependencies
	tokens := auth.NewTokenManager(cfg.JwtSecret, cfg.JwtTTL)
	accountRepo := repositories.NewAccountRepository()
	txnRepo := repositories.NewTransactionRepository()
	walletRepo := repositories.NewWalletRepository()
	traderRepo := repositories.NewTraderRepository()
	planRepo := repositories.NewPlanRepository()
	copyTradeRepo := repositories.NewCopyTradeRepository()

	accountService := services.NewAccountService(logger, db, accountRepo, tokens, publisher, cfg.CaseInsensitiveEmails())
	if cfg.AdminEmail != "" {
		if _, err := accountService.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			publisher.Close()
			redisCloser()
			disconnect()
			return nil, nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
	}

	deps := Dependencies{
		DB:       db,
		Pinger:   db,
		Gate:     services.NewAuthGate(logger, db, tokens, accountRepo),
		Limiter:  pkg.NewDistributedLimiter(redisClient, "ledger:intake", cfg.IntakeRatePerSec, cfg.IntakeBurst, time.Second, logger),
		Accounts: accountService,
		Intake:   services.NewIntakeService(logger, limits, db, txnRepo, accountRepo, publisher),
		Approval: services.NewApprovalService(logger, db, txnRepo, accountRepo, publisher),
		Wallets:  services.NewWalletService(logger, db, walletRepo),
		Stats: services.NewStatsService(logger, db, services.StatsRepositories{
			Accounts:     accountRepo,
			Transactions: txnRepo,
			Traders:      traderRepo,
			Plans:        planRepo,
			CopyTrades:   copyTradeRepo,
		}),
		Catalog: services.NewCatalogService(logger, db, traderRepo, planRepo, copyTradeRepo, accountRepo),
	}

	r := NewRouter(logger, cfg.AllowedOrigins(), deps)
	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}

	cleanup := func() {
		// flush pending events before the pools go away
		publisher.Close()
		redisCloser()
		disconnect()
	}

	return srv, cleanup, nil
}

// NewRouter builds the Gin engine from already wired services.
func NewRouter(logger *zap.Logger, allowedOrigins []string, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if gin.Mode() != gin.TestMode {
		r.Use(gin.Logger())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, pkg.HeaderAuthorization, pkg.HeaderTraceId, pkg.HeaderIdempotencyKey)
	corsConfig.ExposeHeaders = []string{pkg.HeaderTraceId}
	r.Use(cors.New(corsConfig))

	guards := handlers.Guards{
		Authenticated: middleware.Authenticate(logger, deps.Gate),
		Admin:         middleware.RequireAdmin(logger),
		IntakeLimit:   middleware.RateLimit(logger, deps.Limiter),
	}

	api := r.Group("/api/v1")
	api.Use(middleware.TraceID(logger))
	api.Use(middleware.Metrics())

	handlers.NewAuthHandler(logger, deps.Accounts).RegisterRoutes(api, guards)
	handlers.NewUserHandler(logger, deps.Accounts).RegisterRoutes(api, guards)
	handlers.NewTransactionHandler(logger, deps.Intake, deps.Approval).RegisterRoutes(api, guards)
	handlers.NewWalletHandler(logger, deps.Wallets).RegisterRoutes(api, guards)
	handlers.NewStatsHandler(logger, deps.Stats).RegisterRoutes(api, guards)
	handlers.NewCatalogHandler(logger, deps.Catalog).RegisterRoutes(api, guards)

	handlers.NewBaseHandler(logger, deps.Pinger).RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	return r
}
