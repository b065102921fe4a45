// pkg/config/database.go
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/snowflakedb/gosnowflake"
)

// Supported sink drivers
const (
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite3"
	DriverSnowflake = "snowflake"
)

// SinkConfig holds connection parameters for the relational sink
type SinkConfig struct {
	Driver string

	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// URL is an optional postgres:// URL that overrides the discrete fields
	URL string

	// SQLite file path
	Path string

	// Snowflake specifics
	Account       string
	Warehouse     string
	Schema        string
	Role          string
	Authenticator gosnowflake.AuthType

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	// Statement timeout
	StatementTimeout time.Duration
}

// LoadSinkConfig loads sink configuration from environment variables. The
// DATABASE_* names match the ones the legacy loader read from .env.
func LoadSinkConfig() (*SinkConfig, error) {
	driver := strings.ToLower(getEnv("SINK_DRIVER", DriverMySQL))

	cfg := &SinkConfig{
		Driver:   driver,
		Host:     getEnv("DATABASE_HOST", "localhost"),
		Port:     getEnvAsInt("DATABASE_PORT", defaultPort(driver)),
		User:     os.Getenv("DATABASE_USER"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		Database: os.Getenv("DATABASE_NAME"),
		SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		URL:      os.Getenv("DATABASE_URL"),
		Path:     getEnv("SQLITE_PATH", "gazetteer.db"),

		Account:       os.Getenv("SNOWFLAKE_ACCOUNT"),
		Warehouse:     os.Getenv("SNOWFLAKE_WAREHOUSE"),
		Schema:        getEnv("SNOWFLAKE_SCHEMA", "PUBLIC"),
		Role:          os.Getenv("SNOWFLAKE_ROLE"),
		Authenticator: parseAuthenticator(getEnv("SNOWFLAKE_AUTHENTICATOR", "snowflake")),

		// Ingestion runs on a single connection
		MaxOpenConns:     getEnvAsInt("DATABASE_MAX_OPEN_CONNS", 1),
		MaxIdleConns:     getEnvAsInt("DATABASE_MAX_IDLE_CONNS", 1),
		ConnMaxLifetime:  getEnvAsSeconds("DATABASE_CONN_MAX_LIFETIME_SECONDS", 1800),
		ConnMaxIdleTime:  getEnvAsSeconds("DATABASE_CONN_MAX_IDLE_TIME_SECONDS", 600),
		StatementTimeout: getEnvAsSeconds("DATABASE_STATEMENT_TIMEOUT_SECONDS", 300),
	}

	return cfg, nil
}

// Validate checks that the fields required by the selected driver are set
func (c *SinkConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("SQLITE_PATH is required for the sqlite3 sink")
		}
		return nil
	case DriverPostgres:
		if c.URL != "" {
			return nil
		}
	case DriverMySQL:
	case DriverSnowflake:
		if c.Account == "" {
			return errors.New("SNOWFLAKE_ACCOUNT environment variable is required")
		}
		if c.Warehouse == "" {
			return errors.New("SNOWFLAKE_WAREHOUSE environment variable is required")
		}
	default:
		return fmt.Errorf("unsupported sink driver %q", c.Driver)
	}

	if c.User == "" {
		return errors.New("DATABASE_USER environment variable is required")
	}
	if c.Database == "" {
		return errors.New("DATABASE_NAME environment variable is required")
	}
	return nil
}

// DriverName returns the database/sql driver name registered for the sink
func (c *SinkConfig) DriverName() string {
	if c.Driver == DriverPostgres {
		// registered by github.com/jackc/pgx/v4/stdlib
		return "pgx"
	}
	return c.Driver
}

// ConnectionString returns the driver-specific DSN
func (c *SinkConfig) ConnectionString() (string, error) {
	switch c.Driver {
	case DriverPostgres:
		if c.URL != "" {
			conninfo, err := pq.ParseURL(c.URL)
			if err != nil {
				return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
			}
			return conninfo, nil
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host,
			c.Port,
			c.User,
			c.Password,
			c.Database,
			c.SSLMode,
		), nil

	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = c.User
		mc.Passwd = c.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
		mc.DBName = c.Database
		mc.ParseTime = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil

	case DriverSQLite:
		return c.Path, nil

	case DriverSnowflake:
		return gosnowflake.DSN(&gosnowflake.Config{
			Account:       c.Account,
			User:          c.User,
			Password:      c.Password,
			Database:      c.Database,
			Schema:        c.Schema,
			Warehouse:     c.Warehouse,
			Role:          c.Role,
			Authenticator: c.Authenticator,
		})
	}

	return "", fmt.Errorf("unsupported sink driver %q", c.Driver)
}

// Redacted returns a description of the target that is safe to log
func (c *SinkConfig) Redacted() string {
	switch c.Driver {
	case DriverSQLite:
		return "sqlite3:" + c.Path
	case DriverSnowflake:
		return fmt.Sprintf("snowflake:%s/%s/%s", c.Account, c.Database, c.Schema)
	case DriverPostgres:
		if c.URL != "" {
			return "postgres:(url)"
		}
	}
	return fmt.Sprintf("%s:%s@%s:%d/%s", c.Driver, c.User, c.Host, c.Port, c.Database)
}

func defaultPort(driver string) int {
	switch driver {
	case DriverPostgres:
		return 5432
	case DriverMySQL:
		return 3306
	default:
		return 0
	}
}

func parseAuthenticator(name string) gosnowflake.AuthType {
	switch strings.ToLower(name) {
	case "oauth":
		return gosnowflake.AuthTypeOAuth
	case "externalbrowser":
		return gosnowflake.AuthTypeExternalBrowser
	case "username_password_mfa":
		return gosnowflake.AuthTypeUsernamePasswordMFA
	case "jwt":
		return gosnowflake.AuthTypeJwt
	case "okta":
		return gosnowflake.AuthTypeOkta
	default:
		return gosnowflake.AuthTypeSnowflake
	}
}
