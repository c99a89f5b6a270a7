package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/propertyhub/backend/internal/application/reporting"
	"github.com/propertyhub/backend/internal/domain/ledger"
	"github.com/propertyhub/backend/internal/domain/statement"
	"github.com/propertyhub/backend/internal/infrastructure/cache"
	"github.com/propertyhub/backend/internal/infrastructure/config"
	"github.com/propertyhub/backend/internal/infrastructure/logger"
	"github.com/propertyhub/backend/internal/infrastructure/persistence"
	"github.com/propertyhub/backend/internal/interfaces/http/handler"
	"github.com/propertyhub/backend/internal/interfaces/http/middleware"
	"github.com/propertyhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting PropertyHub Reporting API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	entryRepo := persistence.NewGormEntryRepository(db.DB)
	accountRepo := persistence.NewGormAccountRepository(db.DB)

	// Ledger policies from configuration
	resolver := ledger.NewMonthResolver(
		ledger.WithLegacyTextParsing(cfg.Reporting.LegacyTextParsing),
	)
	classifier := ledger.NewActivityClassifier(ledger.ClassifierBands{
		CashMin:              cfg.Reporting.CashAccountMin,
		CashMax:              cfg.Reporting.CashAccountMax,
		LongTermMin:          cfg.Reporting.LongTermAssetMin,
		LongTermMax:          cfg.Reporting.LongTermAssetMax,
		LiabilityMin:         cfg.Reporting.LiabilityMin,
		LiabilityMax:         cfg.Reporting.LiabilityMax,
		DepositLiabilityCode: cfg.Reporting.DepositLiabilityCode,
	})
	hierOpt := ledger.WithCodePrefixMatching(cfg.Reporting.CodePrefixMatching)

	// Statement generators
	incomeSvc := statement.NewIncomeStatementService(entryRepo, resolver, classifier)
	balanceSvc := statement.NewBalanceSheetService(entryRepo, accountRepo, resolver, hierOpt)
	cashFlowSvc := statement.NewCashFlowService(entryRepo, resolver, classifier)
	trialSvc := statement.NewTrialBalanceService(entryRepo, accountRepo)

	// Reporting application service
	reportingOpts := []reporting.ReportingServiceOption{
		reporting.WithLogger(log),
		reporting.WithDefaultBasis(ledger.Basis(cfg.Reporting.DefaultBasis)),
	}
	if cfg.Reporting.CacheEnabled {
		reportCache, err := cache.NewReportCacheFactory(cfg.Redis, cache.WithLogger(log)).CreateCache()
		if err != nil {
			log.Fatal("Failed to create report cache", zap.Error(err))
		}
		reportingOpts = append(reportingOpts, reporting.WithCache(reportCache, cfg.Reporting.CacheTTL))
	}
	reportingSvc := reporting.NewReportingService(
		incomeSvc, balanceSvc, cashFlowSvc, trialSvc, reportingOpts...)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(handler.NewReportHandler(reportingSvc)).
		Register(handler.NewSystemHandler(db)).
		Setup()

	// HTTP server
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown on SIGINT or SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
