package database

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"multichat/internal/infrastructure/logger"
)

var SchemaRegistry []any

func RegisterSchemaForAutoMigrate(models ...any) {
	SchemaRegistry = append(SchemaRegistry, models...)
}

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Config holds database configuration
type Config struct {
	DatabaseURL    string
	ReadReplicaDSN string
	MaxIdle        int
	MaxOpen        int
	MaxLifetime    time.Duration
	LogLevel       gormlogger.LogLevel
}

// ParseURL splits a DATABASE_URL into its dialect and driver DSN.
// sqlite://<path> opens a sqlite file with foreign keys enforced.
func ParseURL(raw string) (Dialect, string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"):
		return DialectPostgres, raw, nil
	case strings.HasPrefix(raw, "sqlite://"):
		dsn := strings.TrimPrefix(raw, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("sqlite url %q has no path", raw)
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return DialectSQLite, dsn + sep + "_foreign_keys=on", nil
	default:
		return "", "", fmt.Errorf("unsupported database url %q: expected postgres:// or sqlite://", raw)
	}
}

// Connect creates a new database connection with the given configuration
func Connect(cfg Config) (*gorm.DB, Dialect, error) {
	log := logger.GetLogger()

	dialect, dsn, err := ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, "", err
	}

	var dialector gorm.Dialector
	switch dialect {
	case DialectPostgres:
		dialector = postgres.Open(dsn)
	case DialectSQLite:
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  gormlogger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		log.Error().
			Str("error_code", "5c16fb53-d98c-4fc6-8bb4-9abd3c0b9e88").
			Str("dialect", string(dialect)).
			Err(err).
			Msg("unable to connect to database")
		return nil, "", err
	}

	if cfg.ReadReplicaDSN != "" {
		if dialect != DialectPostgres {
			return nil, "", fmt.Errorf("read replica requires postgres, got %s", dialect)
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: []gorm.Dialector{postgres.Open(cfg.ReadReplicaDSN)},
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(cfg.MaxIdle).
			SetMaxOpenConns(cfg.MaxOpen).
			SetConnMaxLifetime(cfg.MaxLifetime)
		if err := db.Use(resolver); err != nil {
			return nil, "", fmt.Errorf("register read replica: %w", err)
		}
		log.Info().Msg("read replica registered")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, "", err
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	if cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.MaxLifetime)
	}

	log.Info().Str("dialect", string(dialect)).Msg("Successfully connected to database")
	return db, dialect, nil
}

// Migration creates every registered schema with gorm's AutoMigrate.
// Used for sqlite, where the embedded SQL migrations do not apply.
func Migration(db *gorm.DB) error {
	for _, model := range SchemaRegistry {
		if err := db.AutoMigrate(model); err != nil {
			log := logger.GetLogger()
			log.Error().
				Str("error_code", "75333e43-8157-4f0a-8e34-aa34e6e7c285").
				Err(err).
				Msgf("failed to auto migrate schema: %T", model)
			return err
		}
	}
	return nil
}
