// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and PostgreSQL (pgx), pool tuning, tracing and
// schema migrations.
package repo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-quotes-api/internal/config"
	"github.com/tbourn/go-quotes-api/internal/domain"
)

// Pool defaults applied by OpenSQLite and by Open when the config leaves a
// limit or lifetime at zero. MaxIdleConns is taken as configured.
const (
	defaultMaxOpenConns    = 10
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 5 * time.Minute
	defaultConnMaxLifetime = 30 * time.Minute
)

var defaultPool = config.DatabaseConfig{MaxIdleConns: defaultMaxIdleConns}

// tracingPlugin builds the GORM OpenTelemetry plugin registered by Open.
var tracingPlugin = func() gorm.Plugin { return tracing.NewPlugin(tracing.WithoutMetrics()) }

func gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:         newGormLogger(logger.Warn, slowQueryThreshold),
		TranslateError: true,
	}
}

// Open connects to the backend selected by cfg.Driver, tunes the pool and
// optionally registers the GORM OpenTelemetry plugin. The pool is closed
// when any step after connecting fails.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "postgres":
		db, err = OpenPostgres(cfg.PostgresDSN())
	case "sqlite", "":
		db, err = OpenSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := configurePool(db, cfg); err != nil {
		_ = Close(db)
		return nil, err
	}

	if cfg.Tracing {
		if err := db.Use(tracingPlugin()); err != nil {
			_ = Close(db)
			return nil, fmt.Errorf("register gorm tracing: %w", err)
		}
	}
	return db, nil
}

// OpenSQLite opens (or creates) a SQLite database and applies PRAGMAs.
func OpenSQLite(path string) (*gorm.DB, error) {
	// Fail early if parent directory does not exist (instead of sqlite "out of memory (14)" on Windows).
	if dir := filepath.Dir(path); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, err
	}

	// PRAGMAs
	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("PRAGMA foreign_keys=ON;")
	db.Exec("PRAGMA busy_timeout=5000;")

	if err := configurePool(db, defaultPool); err != nil {
		_ = Close(db)
		return nil, err
	}
	return db, nil
}

// OpenPostgres connects through the pgx-backed GORM driver. dsn may be a URL
// or a keyword/value string.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), gormConfig())
}

func configurePool(db *gorm.DB, cfg config.DatabaseConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(orInt(cfg.MaxOpenConns, defaultMaxOpenConns))
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxIdleTime(orDur(cfg.ConnMaxIdleTime, defaultConnMaxIdleTime))
	sqlDB.SetConnMaxLifetime(orDur(cfg.ConnMaxLifetime, defaultConnMaxLifetime))
	return nil
}

// AutoMigrate creates or updates the quotes and idempotency tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Quote{},
		&domain.Idempotency{},
	)
}

// Ping verifies the database answers within ctx.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RegisterPoolMetrics exposes database/sql pool statistics under dbName.
func RegisterPoolMetrics(db *gorm.DB, reg prometheus.Registerer, dbName string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return reg.Register(collectors.NewDBStatsCollector(sqlDB, dbName))
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDur(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}
