package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	financeapp "github.com/trainhub/backend/internal/application/finance"
	trainingapp "github.com/trainhub/backend/internal/application/training"
	"github.com/trainhub/backend/internal/domain/finance"
	"github.com/trainhub/backend/internal/infrastructure/auth"
	"github.com/trainhub/backend/internal/infrastructure/cache"
	"github.com/trainhub/backend/internal/infrastructure/config"
	"github.com/trainhub/backend/internal/infrastructure/event"
	"github.com/trainhub/backend/internal/infrastructure/logger"
	"github.com/trainhub/backend/internal/infrastructure/messaging"
	"github.com/trainhub/backend/internal/infrastructure/persistence"
	"github.com/trainhub/backend/internal/infrastructure/telemetry"
	"github.com/trainhub/backend/internal/interfaces/http/handler"
	"github.com/trainhub/backend/internal/interfaces/http/middleware"
	"github.com/trainhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/trainhub/backend/docs"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

var errEventBusStopped = errors.New("event bus is not running")

//	@title			TrainHub Finance API
//	@version		1.0
//	@description	Invoicing, payments, session costing and payables for corporate training sessions

//	@contact.name	TrainHub Engineering
//	@contact.url	https://github.com/trainhub/backend

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Telemetry providers are no-ops for disabled signals
	tel, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:       cfg.Telemetry.ServiceName,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		Tracing:           cfg.Telemetry.Enabled,
		Metrics:           cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		Logs:              cfg.Telemetry.LogsEnabled,
		Profiling:         cfg.Telemetry.ProfilingEnabled,
		PyroscopeAddress:  cfg.Telemetry.PyroscopeAddress,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	log = tel.BridgeLogger(log, logger.ParseLevel(cfg.Log.Level))

	log.Info("Starting TrainHub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	loc, err := cfg.Finance.Location()
	if err != nil {
		log.Fatal("Invalid finance timezone", zap.String("timezone", cfg.Finance.Timezone), zap.Error(err))
	}

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log).Register(db.DB); err != nil {
		log.Warn("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	auditIDs, err := persistence.NewAuditIDNode(cfg.Finance.NodeID)
	if err != nil {
		log.Fatal("Invalid finance node id", zap.Int64("node_id", cfg.Finance.NodeID), zap.Error(err))
	}

	// Idempotency keys for payments and event deduplication share one store
	idempotencyStore, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Initialize repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	trainerIncomeRepo := persistence.NewGormTrainerIncomeRepository(db.DB)
	coordinatorFeeRepo := persistence.NewGormCoordinatorFeeRepository(db.DB)
	commissionRepo := persistence.NewGormMarketingCommissionRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB, auditIDs)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	companyRepo := persistence.NewGormCompanyRepository(db.DB)
	programmeRepo := persistence.NewGormProgrammeRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	scope := persistence.NewGormFinanceTransactionScope(db.DB, auditIDs)

	numbers := finance.NewInvoiceNumberGenerator(
		persistence.NewGormInvoiceCounterRepository(db.DB), cfg.Finance.InvoicePrefix, loc)

	// Initialize application services
	invoiceService := financeapp.NewInvoiceService(scope, invoiceRepo, sessionRepo, companyRepo, programmeRepo, numbers, log)
	paymentService := financeapp.NewPaymentService(scope, paymentRepo, idempotencyStore, log)
	payableService := financeapp.NewPayableService(scope, loc, log)
	costingService := financeapp.NewCostingService(scope, companyRepo, log)
	incomeService := financeapp.NewIncomeService(trainerIncomeRepo, coordinatorFeeRepo, commissionRepo, sessionRepo, companyRepo, log)
	dashboardService := financeapp.NewDashboardService(invoiceRepo, trainerIncomeRepo, coordinatorFeeRepo, commissionRepo)
	auditService := financeapp.NewAuditService(auditRepo, userRepo)
	marketingUserService := financeapp.NewMarketingUserService(userRepo)
	sessionService := trainingapp.NewSessionService(sessionRepo, companyRepo, programmeRepo, log)

	// Event bus: session creation drafts the invoice, every event is relayed
	// to RabbitMQ when messaging is enabled
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewIdempotentHandler(
		financeapp.NewSessionCreatedHandler(invoiceService, log), idempotencyStore, log))

	if cfg.Messaging.Enabled {
		relay := messaging.NewRabbitMQPublisher(cfg.Messaging, messaging.DialAMQP, log)
		eventBus.Subscribe(relay)
		defer func() {
			if err := relay.Close(); err != nil {
				log.Error("Error closing RabbitMQ publisher", zap.Error(err))
			}
		}()
		log.Info("Event relay enabled", zap.String("exchange", cfg.Messaging.Exchange))
	}

	invoiceService.SetEventPublisher(eventBus)
	paymentService.SetEventPublisher(eventBus)
	payableService.SetEventPublisher(eventBus)
	sessionService.SetEventPublisher(eventBus)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	meter := tel.Meter.Meter(telemetry.TracerName)
	financeMetrics, err := telemetry.NewFinanceMetrics(telemetry.FinanceMetricsConfig{
		Meter:            meter,
		Logger:           log,
		SnapshotProvider: dashboardService,
	})
	if err != nil {
		log.Warn("Finance metrics disabled", zap.Error(err))
	} else {
		invoiceService.SetFinanceMetrics(financeMetrics)
		paymentService.SetFinanceMetrics(financeMetrics)
		payableService.SetFinanceMetrics(financeMetrics)
		financeMetrics.StartPeriodicCollection(ctx, cfg.Telemetry.MetricsInterval)
		defer financeMetrics.Stop()
	}

	// Initialize handlers
	handlers := router.Handlers{
		Invoice:  handler.NewInvoiceHandler(invoiceService),
		Payment:  handler.NewPaymentHandler(paymentService),
		Costing:  handler.NewCostingHandler(costingService),
		Income:   handler.NewIncomeHandler(incomeService, payableService),
		Overview: handler.NewOverviewHandler(dashboardService, auditService, marketingUserService),
		Session:  handler.NewSessionHandler(sessionService),
		System: handler.NewSystemHandler(cfg.App.Name, version, map[string]handler.HealthCheck{
			"database": func(context.Context) error { return db.Ping() },
			"event_bus": func(context.Context) error {
				if !eventBus.Running() {
					return errEventBusStopped
				}
				return nil
			},
		}),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID, then the server span so logs carry trace ids
	// 2. Logger and Recovery
	// 3. Security headers and CORS
	// 4. BodyLimit and request metrics
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.HTTPMetrics(meter, log))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", handlers.System.Health)

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(cfg.Swagger),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtConfig := middleware.DefaultJWTConfig(auth.NewJWTService(cfg.JWT))
	jwtConfig.Logger = log
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TracingAttributeInjector())
	profiling := middleware.DefaultProfilingConfig()
	profiling.Enabled = cfg.Telemetry.ProfilingEnabled
	r.Use(middleware.ProfilingWithConfig(profiling))

	perm := middleware.PermissionConfig{Logger: log}
	r.Register(router.FinanceRoutes(handlers, perm)).
		Register(router.TrainingRoutes(handlers, perm)).
		Register(router.SystemRoutes(handlers)).
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
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stop()

	log.Info("Server exited gracefully")
}
