package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appinventory "github.com/werkbank-erp/backend/internal/application/inventory"
	appshop "github.com/werkbank-erp/backend/internal/application/shop"
	"github.com/werkbank-erp/backend/internal/domain/shared"
	"github.com/werkbank-erp/backend/internal/infrastructure/cache"
	"github.com/werkbank-erp/backend/internal/infrastructure/config"
	"github.com/werkbank-erp/backend/internal/infrastructure/logger"
	"github.com/werkbank-erp/backend/internal/infrastructure/persistence"
	"github.com/werkbank-erp/backend/internal/interfaces/http/handler"
	"github.com/werkbank-erp/backend/internal/interfaces/http/middleware"
	"github.com/werkbank-erp/backend/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync(log)

	log.Info("Starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Repositories shared outside the transaction scope
	variantMappingRepo := persistence.NewGormVariantMappingRepository(db.DB)
	propertyMappingRepo := persistence.NewGormPropertyMappingRepository(db.DB)
	identityEdgeRepo := persistence.NewGormVariantIdentityEdgeRepository(db.DB)
	webhookEventRepo := persistence.NewGormWebhookEventRepository(db.DB)
	stockLevelRepo := persistence.NewGormStockLevelRepository(db.DB)
	stockMovementRepo := persistence.NewGormStockMovementRepository(db.DB)
	variantRepo := persistence.NewGormProductVariantRepository(db.DB)
	bomRepo := persistence.NewGormBOMComponentRepository(db.DB)

	scope := persistence.NewGormTransactionScope(db.DB)

	// Delivery-ID dedup store. Redis when configured, otherwise in-process.
	var idempotencyStore shared.IdempotencyStore
	if cfg.Redis.Enabled {
		store, err := cache.NewRedisIdempotencyStore(cache.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		idempotencyStore = store
		log.Info("Using Redis idempotency store",
			zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
	} else {
		idempotencyStore = cache.NewInMemoryIdempotencyStore()
		log.Info("Using in-memory idempotency store")
	}
	defer idempotencyStore.Close()

	// Services
	ledgerService := appinventory.NewLedgerService()
	orderProcessor := appshop.NewOrderProcessorService(scope, webhookEventRepo, ledgerService)
	webhookIntake := appshop.NewWebhookIntakeService(
		webhookEventRepo,
		orderProcessor,
		idempotencyStore,
		shared.IdempotencyConfig{
			TTL:     cfg.Webhook.DedupTTL,
			Enabled: cfg.Webhook.DedupEnabled,
		},
	)
	variantResolver := appshop.NewVariantResolverService(
		identityEdgeRepo, variantMappingRepo, propertyMappingRepo, scope)
	auditService := appshop.NewMappingAuditService(
		variantMappingRepo, propertyMappingRepo, bomRepo, variantRepo)

	// HTTP surface
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxy configuration", zap.Error(err))
		}
	}

	middleware.SetupValidator()

	engine.Use(logger.Recovery(log))
	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig()))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	limiter := middleware.NewRateLimiter(120, time.Minute)
	engine.Use(middleware.RateLimit(limiter))

	systemHandler := handler.NewSystemHandler(db)
	engine.GET("/healthz", systemHandler.Healthz)

	router.NewRouter(engine).
		Register(handler.NewWebhookHandler(webhookIntake)).
		Register(handler.NewVariantIdentityHandler(variantResolver)).
		Register(handler.NewMappingAuditHandler(auditService)).
		Register(handler.NewStockHandler(stockLevelRepo, stockMovementRepo, ledgerService, scope)).
		Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

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
