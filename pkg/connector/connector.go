// pkg/connector/connector.go
package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/David-Botos/gazetteer/pkg/config"
)

const pingTimeout = 10 * time.Second

// DatabaseConnector defines the interface for database connectors
type DatabaseConnector interface {
	// DB returns the underlying database connection
	DB() *sqlx.DB

	// Dialect returns the SQL dialect spoken by the connection
	Dialect() string

	// Validate verifies the connection and reports the server version
	Validate(ctx context.Context) error

	// Close closes the connection and releases resources
	Close() error

	// ExecWithTimeout executes a statement with a timeout
	ExecWithTimeout(ctx context.Context, query string, timeout time.Duration, args ...interface{}) (sql.Result, error)
}

// dialect captures what differs between the supported drivers
type dialect struct {
	name         string
	versionQuery string
	// sessionSetup returns statements run once after connecting
	sessionSetup func(cfg *config.SinkConfig) []string
}

var dialects = map[string]dialect{}

func registerDialect(d dialect) {
	dialects[d.name] = d
}

// SQLConnector implements DatabaseConnector for every registered dialect
type SQLConnector struct {
	db      *sqlx.DB
	dialect dialect
	logger  *zap.Logger
	cfg     *config.SinkConfig
}

// NewSQLConnector opens, configures and pings the sink described by cfg
func NewSQLConnector(ctx context.Context, cfg *config.SinkConfig, logger *zap.Logger) (*SQLConnector, error) {
	d, ok := dialects[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("unsupported sink driver %q", cfg.Driver)
	}
	logger = logger.Named(cfg.Driver + "-connector")

	logger.Info("Connecting to sink", zap.String("target", cfg.Redacted()))

	dsn, err := cfg.ConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build %s DSN: %w", cfg.Driver, err)
	}

	db, err := sqlx.Open(cfg.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize %s connection: %w", cfg.Driver, err)
	}

	configurePool(db.DB, cfg)

	if err := ping(ctx, db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if d.sessionSetup != nil {
		for _, stmt := range d.sessionSetup(cfg) {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				logger.Warn("Failed to apply session setting",
					zap.String("statement", stmt),
					zap.Error(err))
			}
		}
	}

	c := &SQLConnector{
		db:      db,
		dialect: d,
		logger:  logger,
		cfg:     cfg,
	}

	logPoolStats(logger, db.DB)
	return c, nil
}

// DB returns the underlying database connection
func (c *SQLConnector) DB() *sqlx.DB {
	return c.db
}

// Dialect returns the SQL dialect of the connection
func (c *SQLConnector) Dialect() string {
	return c.dialect.name
}

// Validate queries the server version
func (c *SQLConnector) Validate(ctx context.Context) error {
	var version string
	if err := c.db.QueryRowxContext(ctx, c.dialect.versionQuery).Scan(&version); err != nil {
		return fmt.Errorf("failed to query %s version: %w", c.dialect.name, err)
	}
	c.logger.Info("Connected to sink",
		zap.String("dialect", c.dialect.name),
		zap.String("version", version))
	return nil
}

// Close closes the database connection
func (c *SQLConnector) Close() error {
	c.logger.Info("Closing sink connection")
	logPoolStats(c.logger, c.db.DB)
	return c.db.Close()
}

// ExecWithTimeout executes a statement with a timeout
func (c *SQLConnector) ExecWithTimeout(
	ctx context.Context,
	query string,
	timeout time.Duration,
	args ...interface{},
) (sql.Result, error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.ExecContext(queryCtx, query, args...)
}

// poolStats renders sql.DBStats as a zap object
type poolStats sql.DBStats

func (s poolStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt("open", s.OpenConnections)
	enc.AddInt("in_use", s.InUse)
	enc.AddInt("idle", s.Idle)
	enc.AddInt("max_open", s.MaxOpenConnections)
	enc.AddInt64("wait_count", s.WaitCount)
	enc.AddDuration("wait", s.WaitDuration)
	return nil
}

func logPoolStats(logger *zap.Logger, db *sql.DB) {
	logger.Debug("Connection pool stats", zap.Object("pool", poolStats(db.Stats())))
}

// ping fails after pingTimeout even when the driver would keep waiting
func ping(ctx context.Context, db *sql.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if pingCtx.Err() != nil {
			return fmt.Errorf("ping timed out after %v: %w", pingTimeout, err)
		}
		return err
	}
	return nil
}

// configurePool applies the non-zero pool limits of cfg
func configurePool(db *sql.DB, cfg *config.SinkConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
