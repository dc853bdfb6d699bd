// Package container provides dependency injection using Uber FX
package container

import (
	"context"
	"fmt"
	"path/filepath"

	assistantapp "github.com/alchemorsel/kitchen/internal/application/assistant"
	"github.com/alchemorsel/kitchen/internal/application/chat"
	"github.com/alchemorsel/kitchen/internal/application/payment"
	"github.com/alchemorsel/kitchen/internal/domain/assistant"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/kitchen/internal/infrastructure/config"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/kitchen/internal/infrastructure/http/server"
	"github.com/alchemorsel/kitchen/internal/infrastructure/knowledge"
	"github.com/alchemorsel/kitchen/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/kitchen/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/kitchen/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/kitchen/internal/infrastructure/payment/stripe"
	"github.com/alchemorsel/kitchen/internal/ports/inbound"
	"github.com/alchemorsel/kitchen/internal/ports/outbound"
	"github.com/alchemorsel/kitchen/pkg/healthcheck"
	"github.com/alchemorsel/kitchen/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// Module provides all dependency injection modules
var Module = fx.Options(
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,
	RepositoryModule,
	GatewayModule,
	ServiceModule,
	HealthModule,
	HTTPModule,
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func() (*config.Config, error) {
		return config.Load("")
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
		})
	},
)

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	monitoring.NewMetricsCollector,
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*monitoring.TracingProvider, error) {
		tp, err := monitoring.NewTracingProvider(context.Background(), monitoring.TracingConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Endpoint:       cfg.Monitoring.OTLPEndpoint,
			Insecure:       cfg.Monitoring.OTLPInsecure,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			Enabled:        cfg.Monitoring.EnableTracing,
		}, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: tp.Shutdown})
		return tp, nil
	},
)

// DatabaseModule provides the database connection for the configured driver
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		logLevel := gormLogger.Silent
		if cfg.App.Debug {
			logLevel = gormLogger.Info
		}

		var (
			db  *gorm.DB
			err error
		)
		switch cfg.Database.Driver {
		case "postgres":
			db, err = postgres.Connect(context.Background(), cfg, logLevel, log)
		default:
			dbPath := sqlitePath(cfg.Database.Database)
			db, err = sqlite.SetupDatabase(dbPath, logLevel)
			if err == nil {
				log.Info("Connected to SQLite database",
					zap.String("path", dbPath),
					zap.Bool("in_memory", dbPath == ":memory:"),
				)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("failed to setup %s database: %w", cfg.Database.Driver, err)
		}

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		})
		return db, nil
	},
)

// sqlitePath turns database.database into a file name; an empty name
// keeps the database in memory
func sqlitePath(name string) string {
	if name == "" || name == ":memory:" {
		return ":memory:"
	}
	if filepath.Ext(name) == "" {
		return name + ".db"
	}
	return name
}

type cacheResult struct {
	fx.Out

	Cache outbound.CacheRepository
	Redis *redis.Client
}

// CacheModule provides the chat reply cache. Redis is used when enabled,
// otherwise an in-process cache. The Redis client is nil in the latter case.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (cacheResult, error) {
		if !cfg.Redis.Enabled {
			log.Info("Using in-memory cache")
			cache := memory.NewCacheRepository(memory.DefaultCleanupInterval)
			lc.Append(fx.Hook{OnStop: func(context.Context) error { return cache.Close() }})
			return cacheResult{Cache: cache}, nil
		}

		client, err := redisRepo.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			return cacheResult{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info("Using Redis cache", zap.String("addr", cfg.Redis.Addr()))
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})

		return cacheResult{
			Cache: redisRepo.NewCacheRepository(client, cfg.Redis.KeyPrefix, log),
			Redis: client,
		}, nil
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	gormRepo.NewPaymentRepository,
)

// GatewayModule provides the external provider adapters. Each returns a
// nil interface when its provider is not configured.
var GatewayModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (outbound.ChatCompletionClient, *ai.GuardedClient) {
		if !cfg.AI.Enabled {
			log.Info("Language model disabled, chat is answered by the assistant")
			return nil, nil
		}

		client := openai.NewClient(openai.Config{
			APIKey:      cfg.AI.APIKey,
			BaseURL:     cfg.AI.BaseURL,
			Model:       cfg.AI.Model,
			MaxTokens:   cfg.AI.MaxTokens,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		}, log)

		breaker := healthcheck.DefaultCircuitBreakerConfig()
		breaker.FailureThreshold = cfg.AI.BreakerFailures
		breaker.Timeout = cfg.AI.BreakerTimeout

		guarded := ai.NewGuardedClient(client, breaker, log)
		return guarded, guarded
	},
	func(cfg *config.Config, log *zap.Logger) outbound.PaymentGateway {
		if !cfg.Payments.Enabled() {
			log.Info("Payments disabled, no secret key configured")
			return nil
		}
		return stripe.NewGateway(stripe.Config{
			SecretKey:     cfg.Payments.SecretKey,
			WebhookSecret: cfg.Payments.WebhookSecret,
		}, log)
	},
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) (*assistant.Resolver, error) {
		if cfg.Assistant.KnowledgeFile == "" {
			log.Info("Using built-in knowledge base")
			return assistant.NewResolver(nil), nil
		}

		kb, err := knowledge.LoadFile(cfg.Assistant.KnowledgeFile)
		if err != nil {
			return nil, err
		}
		log.Info("Loaded knowledge base", zap.String("path", cfg.Assistant.KnowledgeFile))
		return assistant.NewResolver(kb), nil
	},
	func(resolver *assistant.Resolver, metrics *monitoring.MetricsCollector, cfg *config.Config, log *zap.Logger) *assistantapp.Service {
		return assistantapp.NewService(resolver, metrics, cfg.Assistant.MaxMessageLength, log)
	},
	func(svc *assistantapp.Service) inbound.AssistantService { return svc },
	func(
		client outbound.ChatCompletionClient,
		responder *assistantapp.Service,
		cache outbound.CacheRepository,
		metrics *monitoring.MetricsCollector,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.ChatService {
		return chat.NewService(client, responder, cache, metrics, chat.Config{
			SystemPrompt:        cfg.AI.SystemPrompt,
			MaxHistory:          cfg.AI.MaxHistory,
			MaxMessageLength:    cfg.AI.MaxMessageLength,
			EnableCache:         cfg.AI.EnableCache,
			CacheTTL:            cfg.AI.CacheTTL,
			FallbackToAssistant: cfg.AI.FallbackToAssistant,
		}, log)
	},
	func(
		gateway outbound.PaymentGateway,
		repo outbound.PaymentRepository,
		metrics *monitoring.MetricsCollector,
		cfg *config.Config,
		log *zap.Logger,
	) inbound.PaymentService {
		return payment.NewService(gateway, repo, metrics, payment.Config{
			Currency:            cfg.Payments.Currency,
			SubscriptionPriceID: cfg.Payments.SubscriptionPriceID,
			SuccessURL:          cfg.Payments.SuccessURL,
			CancelURL:           cfg.Payments.CancelURL,
		}, log)
	},
)

// HealthModule provides the health checker with every dependency registered
var HealthModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		db *gorm.DB,
		redisClient *redis.Client,
		resolver *assistant.Resolver,
		guarded *ai.GuardedClient,
	) (*healthcheck.HealthCheck, error) {
		hc := healthcheck.New(cfg.App.Version, log)

		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database handle: %w", err)
		}
		hc.Register("database", healthcheck.NewDatabaseChecker(sqlDB))

		if redisClient != nil {
			hc.Register("redis", healthcheck.NewRedisChecker(redisClient))
		}

		hc.Register("knowledge", healthcheck.NewCustomChecker("knowledge", func(ctx context.Context) (healthcheck.Status, string, interface{}) {
			size := resolver.KnowledgeBase().Size()
			if size[assistant.SectionIssues]+size[assistant.SectionTechniques]+size[assistant.SectionSubstitutions] == 0 {
				return healthcheck.StatusDegraded, "knowledge base is empty", size
			}
			return healthcheck.StatusHealthy, "", size
		}))

		if guarded != nil {
			hc.Register("language_model", healthcheck.NewCircuitBreakerChecker(guarded.Breaker()))
		}

		return hc, nil
	},
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	func(
		cfg *config.Config,
		log *zap.Logger,
		assistantSvc inbound.AssistantService,
		chatSvc inbound.ChatService,
		paymentSvc inbound.PaymentService,
	) server.Handlers {
		limit := cfg.Server.MaxBodyBytes
		return server.Handlers{
			Assistant: handlers.NewAssistantHandlers(assistantSvc, limit, log),
			Chat:      handlers.NewChatHandlers(chatSvc, limit, log),
			Payments:  handlers.NewPaymentHandlers(paymentSvc, limit, log),
		}
	},
	func(cfg *config.Config, metrics *monitoring.MetricsCollector, log *zap.Logger) *middleware.RateLimiter {
		if !cfg.RateLimit.Enable {
			return nil
		}
		return middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		}, metrics, log)
	},
	func(
		cfg *config.Config,
		log *zap.Logger,
		h server.Handlers,
		metrics *monitoring.MetricsCollector,
		health *healthcheck.HealthCheck,
		limiter *middleware.RateLimiter,
	) *server.Server {
		return server.NewServer(cfg, log, h, metrics, health, limiter)
	},
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks starts the HTTP server with the application and
// stops it first on shutdown. A server that fails to listen shuts the
// application down.
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	srv *server.Server,
	_ *monitoring.TracingProvider,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting Alchemorsel Kitchen",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
				zap.Bool("ai_enabled", cfg.AI.Enabled),
				zap.Bool("payments_enabled", cfg.Payments.Enabled()),
			)

			go func() {
				if err := srv.Start(); err != nil {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down Alchemorsel Kitchen")

			if timeout := cfg.Server.ShutdownTimeout; timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			if err := srv.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}
