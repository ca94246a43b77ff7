// Package orm provides dialect connection configs, a pooled connection
// manager, context-threaded transactions and a generic repository over
// database/sql.
package orm

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fizzify/fizzify/config"
	"github.com/fizzify/fizzify/orm/statement"
)

var ErrMissingField = errors.New("orm: missing required connection field")

// Config renders the connection settings of one dialect.
type Config interface {
	// DSN returns the data source name for sql.Open.
	DSN() (string, error)
	// DriverName returns the registered driver to open the DSN with.
	DriverName() string
	// Dialect identifies the SQL flavor statements are rendered for.
	Dialect() statement.Dialect
}

// EngineConfig tunes the connection pool and transaction defaults.
type EngineConfig struct {
	MaxOpenConns    int             `json:"max_open_conns,omitempty"`
	MaxIdleConns    int             `json:"max_idle_conns,omitempty"`
	ConnMaxIdleTime config.Duration `json:"conn_max_idle_time,omitempty"`
	ConnMaxLifetime config.Duration `json:"conn_max_lifetime,omitempty"`
	PingTimeout     config.Duration `json:"ping_timeout,omitempty"`
	PingRetries     uint            `json:"ping_retries,omitempty"`
	IsolationLevel  string          `json:"isolation_level,omitempty"`
	// Echo logs every generated statement at debug level.
	Echo bool `json:"echo,omitempty"`
}

// DefaultEngineConfig mirrors the pool defaults of the original toolkit:
// a small pool, hourly recycling and a serializable default isolation.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    10,
		ConnMaxIdleTime: config.Duration{Duration: 30 * time.Second},
		ConnMaxLifetime: config.Duration{Duration: time.Hour},
		PingTimeout:     config.Duration{Duration: 5 * time.Second},
		PingRetries:     3,
		IsolationLevel:  "serializable",
	}
}

func (c EngineConfig) isolation() (sql.IsolationLevel, error) {
	switch strings.ToLower(c.IsolationLevel) {
	case "", "default":
		return sql.LevelDefault, nil
	case "read uncommitted":
		return sql.LevelReadUncommitted, nil
	case "read committed":
		return sql.LevelReadCommitted, nil
	case "repeatable read":
		return sql.LevelRepeatableRead, nil
	case "snapshot":
		return sql.LevelSnapshot, nil
	case "serializable":
		return sql.LevelSerializable, nil
	default:
		return sql.LevelDefault, fmt.Errorf("orm: unknown isolation level %q", c.IsolationLevel)
	}
}

// PostgresConfig connects to a PostgreSQL server through the pgx stdlib
// driver.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode,omitempty"`
}

// PostgresConfigFromEnv builds a PostgresConfig from the DB_* environment
// variables.
func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		Host:     config.Env("DB_HOST", "localhost"),
		Port:     envInt("DB_PORT", 5432),
		User:     config.Env("DB_USER", ""),
		Password: config.Env("DB_PASS", ""),
		Database: config.Env("DB_NAME", ""),
		SSLMode:  config.Env("DB_SSLMODE", "disable"),
	}
}

func (c PostgresConfig) DSN() (string, error) {
	if err := requireFields(map[string]string{
		"host":     c.Host,
		"user":     c.User,
		"database": c.Database,
	}); err != nil {
		return "", err
	}

	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode), nil
}

func (c PostgresConfig) DriverName() string         { return "pgx" }
func (c PostgresConfig) Dialect() statement.Dialect { return statement.Postgres }

// SQLServerConfig connects to a SQL Server instance through go-mssqldb,
// the Go counterpart of the original ODBC drivers.
type SQLServerConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	Schema   string `json:"schema,omitempty"`
}

// SQLServerConfigFromEnv builds a SQLServerConfig from the MSSQL_*
// environment variables.
func SQLServerConfigFromEnv() SQLServerConfig {
	return SQLServerConfig{
		Host:     config.Env("MSSQL_HOST", "localhost"),
		Port:     envInt("MSSQL_PORT", 1433),
		User:     config.Env("MSSQL_USER", ""),
		Password: config.Env("MSSQL_PASS", ""),
		Database: config.Env("MSSQL_NAME", ""),
		Schema:   config.Env("MSSQL_SCHEMA", ""),
	}
}

func (c SQLServerConfig) DSN() (string, error) {
	if err := requireFields(map[string]string{
		"host":     c.Host,
		"user":     c.User,
		"database": c.Database,
	}); err != nil {
		return "", err
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
		c.User, c.Password, c.Host, c.Port, c.Database), nil
}

func (c SQLServerConfig) DriverName() string         { return "sqlserver" }
func (c SQLServerConfig) Dialect() statement.Dialect { return statement.SQLServer }

// SQLiteConfig connects to a SQLite database. A Database of ":memory:"
// opens an in-memory database; any other value is treated as a file path
// and gets the ".db" suffix appended.
type SQLiteConfig struct {
	Database string `json:"database"`
}

// SQLiteConfigFromEnv builds a SQLiteConfig from the SQLITE_NAME
// environment variable, defaulting to an in-memory database.
func SQLiteConfigFromEnv() SQLiteConfig {
	return SQLiteConfig{
		Database: config.Env("SQLITE_NAME", ":memory:"),
	}
}

func (c SQLiteConfig) DSN() (string, error) {
	if c.Database == "" {
		return "", fmt.Errorf("%w: database", ErrMissingField)
	}

	if strings.HasPrefix(c.Database, ":memory:") {
		return ":memory:", nil
	}
	return "file:" + c.Database + ".db", nil
}

func (c SQLiteConfig) DriverName() string         { return "sqlite" }
func (c SQLiteConfig) Dialect() statement.Dialect { return statement.SQLite }

// MemoryConfig opens a named ramsql in-memory engine. Distinct names are
// isolated from each other, which makes it the test dialect.
type MemoryConfig struct {
	Database string `json:"database"`
}

// MemoryConfigFromEnv builds a MemoryConfig from the MEMORY_NAME
// environment variable.
func MemoryConfigFromEnv() MemoryConfig {
	return MemoryConfig{
		Database: config.Env("MEMORY_NAME", "default"),
	}
}

func (c MemoryConfig) DSN() (string, error) {
	if c.Database == "" {
		return "", fmt.Errorf("%w: database", ErrMissingField)
	}
	return c.Database, nil
}

func (c MemoryConfig) DriverName() string         { return "ramsql" }
func (c MemoryConfig) Dialect() statement.Dialect { return statement.Memory }

func envInt(key string, fallback int) int {
	v := config.Env(key, "")
	if v == "" {
		return fallback
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return nil
}
