package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"donation-chain/marketplace-ledger/ledger-backend/internal/audit"
	"donation-chain/marketplace-ledger/ledger-backend/internal/bridge"
	"donation-chain/marketplace-ledger/ledger-backend/internal/config"
	"donation-chain/marketplace-ledger/ledger-backend/internal/donation"
	"donation-chain/marketplace-ledger/ledger-backend/internal/governance"
	"donation-chain/marketplace-ledger/ledger-backend/internal/identity"
	"donation-chain/marketplace-ledger/ledger-backend/internal/ledger"
	"donation-chain/marketplace-ledger/ledger-backend/internal/marketplace"
	"donation-chain/marketplace-ledger/ledger-backend/internal/participants"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Load .env if present, then configuration
	if err := godotenv.Load(); err != nil {
		logger.Debug("No .env file found")
	}
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to the audit database. The ledger itself is in-memory; a
	// missing database only disables the event trail.
	var recorder audit.Recorder = audit.NopRecorder{}
	var auditStore *audit.PostgresRecorder
	db, err := sqlx.Connect("postgres", cfg.Database.GetDatabaseURL())
	if err != nil {
		logger.Warn("Audit database unavailable, events will not be recorded", zap.Error(err))
	} else {
		defer db.Close()
		if err := audit.EnsureSchema(db); err != nil {
			logger.Fatal("Failed to ensure audit schema", zap.Error(err))
		}
		auditStore = audit.NewPostgresRecorder(db)
		recorder = auditStore
	}

	// Core ledger state
	store := ledger.NewStore(ledger.NewAmount(cfg.Chain.ExistentialDeposit))

	// Governance and identity
	council := governance.NewCouncil(
		ledger.AccountID(cfg.Chain.RootAccount),
		councilAccounts(cfg.Chain.CouncilAccounts),
	)
	registrar := identity.NewRegistrar()

	// Registry module
	participantsService := participants.NewService(store, registrar, council, recorder, participants.Config{
		NgoStakingAmount:       ledger.NewAmount(cfg.Chain.NgoStakingAmount),
		SellerStakingAmount:    ledger.NewAmount(cfg.Chain.SellerStakingAmount),
		IdentityJudgementLevel: cfg.Chain.IdentityJudgementLevel,
	}, logger)
	participantsHandler := participants.NewHandler(participantsService, logger)

	// Donation module
	donationService := donation.NewService(store, participantsService, cfg.Chain.EscrowProgramID, recorder, logger)
	if err := donationService.CreateCategoryAssets(context.Background()); err != nil {
		logger.Fatal("Failed to create category assets", zap.Error(err))
	}
	donationHandler := donation.NewHandler(donationService, logger)

	// Marketplace module
	marketplaceService := marketplace.NewService(store, participantsService, donationService, recorder, logger)
	marketplaceHandler := marketplace.NewHandler(marketplaceService, logger)

	// Bridge module
	bridgeService := bridge.NewService(store, bridge.KeyConverter{}, council, cfg.Chain.ParachainID, recorder, logger)
	bridgeHandler := bridge.NewHandler(bridgeService, logger)

	// Escrow reconciliation on a schedule
	reconciler := donation.NewReconciler(donationService, logger)
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Chain.ReconcileSchedule, func() {
		if err := reconciler.Check(context.Background()); err != nil {
			logger.Error("Escrow reconciliation failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("Failed to schedule reconciliation", zap.Error(err))
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	// CORS Middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Register Routes
	governanceGate := governance.Middleware([]byte(cfg.Security.JWTSecret))
	api := router.Group("/api/v1")
	{
		participantsHandler.RegisterRoutes(api, governanceGate)
		donationHandler.RegisterRoutes(api)
		marketplaceHandler.RegisterRoutes(api)
		bridgeHandler.RegisterRoutes(api, governanceGate)
		if auditStore != nil {
			audit.NewHandler(auditStore, logger).RegisterRoutes(api)
		}
	}

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	// Start Server
	srv := &http.Server{
		Addr:         cfg.Server.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", cfg.Server.GetServerAddr()))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exiting")
}

func councilAccounts(raw []string) []ledger.AccountID {
	out := make([]ledger.AccountID, 0, len(raw))
	for _, account := range raw {
		out = append(out, ledger.AccountID(account))
	}
	return out
}
