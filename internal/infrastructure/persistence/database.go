package persistence

import (
	"fmt"
	"time"

	"github.com/restoreops/backend/internal/infrastructure/config"
	"github.com/restoreops/backend/internal/infrastructure/logger"
	"github.com/restoreops/backend/internal/infrastructure/persistence/models"
	"github.com/restoreops/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// DatabaseOption configures NewDatabase
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	gormLevel     string
	slowThreshold time.Duration
	tracing       telemetry.DBTracingConfig
	autoMigrate   bool
}

// WithGormLogLevel sets the SQL log level (silent, error, warn, info)
func WithGormLogLevel(level string) DatabaseOption {
	return func(o *databaseOptions) { o.gormLevel = level }
}

// WithSlowQueryThreshold sets the duration above which queries are logged as slow
func WithSlowQueryThreshold(d time.Duration) DatabaseOption {
	return func(o *databaseOptions) { o.slowThreshold = d }
}

// WithTracing installs the otelgorm plugin
func WithTracing(cfg telemetry.DBTracingConfig) DatabaseOption {
	return func(o *databaseOptions) { o.tracing = cfg }
}

// WithAutoMigrate creates missing tables from the gorm models. Used for
// sqlite and tests; postgres deployments run the SQL migrations instead.
func WithAutoMigrate() DatabaseOption {
	return func(o *databaseOptions) { o.autoMigrate = true }
}

// NewDatabase creates a new database connection with the given configuration
func NewDatabase(cfg *config.DatabaseConfig, zapLogger *zap.Logger, opts ...DatabaseOption) (*Database, error) {
	o := databaseOptions{gormLevel: "warn", slowThreshold: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "postgres":
		dialector = postgres.Open(cfg.DSN())
	case "sqlite":
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(o.gormLevel),
			logger.WithSlowThreshold(o.slowThreshold),
			logger.WithIgnoreRecordNotFoundError(true),
		),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// sqlite serializes writers; a single connection avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := telemetry.RegisterGormTracing(db, o.tracing, zapLogger); err != nil {
		return nil, err
	}

	if o.autoMigrate {
		if err := db.AutoMigrate(models.All()...); err != nil {
			return nil, fmt.Errorf("failed to migrate models: %w", err)
		}
	}

	return &Database{DB: db}, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// Stats returns database connection pool statistics and an error if unable to retrieve
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	stats := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
	}, nil
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Scope returns a transaction scope over this connection
func (d *Database) Scope() *GormTransactionScope {
	return NewGormTransactionScope(d.DB)
}

// Repositories returns repositories bound to the root connection
func (d *Database) Repositories() *GormRepositories {
	return NewGormRepositories(d.DB)
}
