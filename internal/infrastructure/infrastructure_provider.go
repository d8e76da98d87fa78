package infrastructure

import (
	"context"
	"fmt"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"multichat/internal/config"
	"multichat/internal/domain/chat"
	"multichat/internal/infrastructure/cache"
	"multichat/internal/infrastructure/database"
	"multichat/internal/infrastructure/database/repository"
	"multichat/internal/infrastructure/database/transaction"
	"multichat/internal/infrastructure/inference"
	"multichat/internal/infrastructure/logger"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	if cfg := config.GetGlobal(); cfg != nil {
		return cfg, nil
	}
	return config.Load()
}

// ProvideLogger configures the process logger from LOG_LEVEL and LOG_FORMAT.
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat)
}

// ProvideDatabase provides a database connection
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	gormLevel := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		gormLevel = gormlogger.Info
	}

	db, dialect, err := database.Connect(database.Config{
		DatabaseURL:    cfg.DatabaseURL,
		ReadReplicaDSN: cfg.DBReadReplicaDSN,
		MaxIdle:        cfg.DBMaxIdleConns,
		MaxOpen:        cfg.DBMaxOpenConns,
		MaxLifetime:    cfg.DBConnMaxLifetime,
		LogLevel:       gormLevel,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	if cfg.AutoMigrate {
		log.Info().Str("dialect", string(dialect)).Msg("Running database migrations...")
		if err := database.AutoMigrate(db, dialect); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			cleanup()
			return nil, nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, cleanup, nil
}

// ProvideTransactionDatabase provides a transaction database wrapper
func ProvideTransactionDatabase(db *gorm.DB) *transaction.Database {
	return transaction.NewDatabase(db)
}

// ProvideMessageCache selects the message list cache named by CACHE_BACKEND.
func ProvideMessageCache(cfg *config.Config, log zerolog.Logger) (chat.MessageCache, func(), error) {
	switch cfg.CacheBackend {
	case config.CacheBackendMemory:
		c, err := cache.NewMemoryMessageCache(cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Int("size", cfg.CacheSize).Dur("ttl", cfg.CacheTTL).Msg("message cache: memory")
		return c, func() {}, nil
	case config.CacheBackendRedis:
		client, err := cache.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		c := cache.NewRedisMessageCache(client, cfg.CacheTTL, log)
		log.Info().Dur("ttl", cfg.CacheTTL).Msg("message cache: redis")
		return c, func() { _ = c.Close() }, nil
	case config.CacheBackendNone, "":
		return chat.NoopMessageCache(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// Infrastructure holds all infrastructure dependencies
type Infrastructure struct {
	DB     *gorm.DB
	Cache  chat.MessageCache
	Logger zerolog.Logger
}

// NewInfrastructure creates a new infrastructure instance
func NewInfrastructure(db *gorm.DB, messageCache chat.MessageCache, logger zerolog.Logger) *Infrastructure {
	return &Infrastructure{
		DB:     db,
		Cache:  messageCache,
		Logger: logger,
	}
}

// Ready checks the database and, for shared caches, the cache backend.
func (i *Infrastructure) Ready(ctx context.Context) error {
	sqlDB, err := i.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if checker, ok := i.Cache.(interface{ HealthCheck(context.Context) error }); ok {
		if err := checker.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache: %w", err)
		}
	}
	return nil
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config
	ProvideConfig,

	// Logger
	ProvideLogger,

	// Database
	ProvideDatabase,
	ProvideTransactionDatabase,

	// Repositories
	repository.RepositoryProvider,

	// Message cache
	ProvideMessageCache,

	// Provider adapters and gateway
	inference.InferenceProviderSet,

	// Infrastructure struct
	NewInfrastructure,
)
