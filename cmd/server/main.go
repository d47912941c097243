package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"github.com/sterling9879/Sage-IA/internal/auth"
	"github.com/sterling9879/Sage-IA/internal/capabilities"
	"github.com/sterling9879/Sage-IA/internal/config"
	llmSvc "github.com/sterling9879/Sage-IA/internal/domain/services/llm"
	"github.com/sterling9879/Sage-IA/internal/handler"
	"github.com/sterling9879/Sage-IA/internal/jobs"
	"github.com/sterling9879/Sage-IA/internal/middleware"
	"github.com/sterling9879/Sage-IA/internal/repository/postgres"
	postgresLLM "github.com/sterling9879/Sage-IA/internal/repository/postgres/llm"
	"github.com/sterling9879/Sage-IA/internal/service"
	serviceAuth "github.com/sterling9879/Sage-IA/internal/service/auth"
	"github.com/sterling9879/Sage-IA/internal/service/catalog"
	serviceLLM "github.com/sterling9879/Sage-IA/internal/service/llm"
	"github.com/sterling9879/Sage-IA/internal/service/llm/locking"
	"github.com/sterling9879/Sage-IA/internal/service/quota"
	"github.com/sterling9879/Sage-IA/internal/service/usage"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"provider", cfg.InferenceProvider,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	// Repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	userRepo := postgres.NewUserRepository(repoConfig)
	modelRepo := postgres.NewModelConfigRepository(repoConfig)
	usageLogRepo := postgres.NewUsageLogRepository(repoConfig)
	analyticsRepo := postgres.NewAnalyticsRepository(repoConfig)
	convRepo := postgresLLM.NewConversationRepository(repoConfig)
	msgRepo := postgresLLM.NewMessageRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Capability registry: context windows and pricing
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	logger.Info("capability registry initialized", "models", len(capabilityRegistry.AllModels()))

	modelCatalog := catalog.NewService(modelRepo, capabilityRegistry, cfg.DefaultModel, logger.With("service", "catalog"))
	guard := quota.NewGuard(quota.DefaultLimits(cfg.FreeMessagesLimit, cfg.ProMessagesLimit))
	costs := usage.NewCostEstimator(capabilityRegistry)
	authorizer := serviceAuth.NewOwnerBasedAuthorizer(convRepo)

	// Per-conversation locks. Redis is required once more than one instance runs.
	checks := map[string]handler.Pinger{
		"postgres": handler.PingFunc(pool.Ping),
	}
	var locker llmSvc.Locker
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse REDIS_URL: %v", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()

		locker = locking.NewRedisLocker(redisClient, cfg.LockWait)
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		logger.Info("using redis conversation locks")
	} else {
		locker = locking.NewMemoryLocker(cfg.LockWait)
		logger.Warn("REDIS_URL not set, using in-process conversation locks")
	}

	provider, err := serviceLLM.SetupProvider(cfg, logger)
	if err != nil {
		log.Fatalf("Failed to setup inference provider: %v", err)
	}

	llmServices := serviceLLM.SetupServices(serviceLLM.Repositories{
		Conversations: convRepo,
		Messages:      msgRepo,
		Users:         userRepo,
		UsageLogs:     usageLogRepo,
		TxManager:     txManager,
	}, provider, locker, modelCatalog, authorizer, guard, costs, cfg, logger)

	userService := service.NewUserService(userRepo, modelCatalog, guard, logger.With("service", "user"))
	adminService := service.NewAdminService(userRepo, modelRepo, analyticsRepo, guard, logger.With("service", "admin"))

	logger.Info("services initialized")

	// Authentication
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

	router := handler.NewRouter(handler.Handlers{
		Health:       handler.NewHealthHandler(checks, logger),
		Chat:         handler.NewChatHandler(llmServices.Chat, logger),
		Conversation: handler.NewConversationHandler(llmServices.Conversation, logger),
		Models:       handler.NewModelsHandler(modelCatalog, logger),
		User:         handler.NewUserHandler(userService, logger),
		Admin:        handler.NewAdminHandler(adminService, logger),
	}, middleware.Auth(jwtVerifier, userService, logger), logger)

	// CORS - outermost so OPTIONS pre-flight requests never reach auth
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})

	// Background jobs
	var scheduler *jobs.Manager
	if cfg.QuotaResetEnabled {
		scheduler = jobs.NewManager(userRepo, logger)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	}

	// Inference calls can take up to InferenceTimeout, so writes get headroom
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.InferenceTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.InferenceTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
	logger.Info("server stopped")
}
