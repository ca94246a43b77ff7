package orm

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/avast/retry-go/v4"

	"github.com/fizzify/fizzify/orm/statement"
)

// Manager owns a pooled database connection for one dialect. It is safe
// for concurrent use.
type Manager struct {
	db        *sql.DB
	dialect   statement.Dialect
	isolation sql.IsolationLevel
	echo      bool
}

// Open creates and validates a database connection from the dialect and
// engine configs. The connection is pinged with retries before it is
// handed out.
func Open(ctx context.Context, cfg Config, engineCfg EngineConfig) (*Manager, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	isolation, err := engineCfg.isolation()
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(cfg.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	conn.SetMaxOpenConns(engineCfg.MaxOpenConns)
	conn.SetMaxIdleConns(engineCfg.MaxIdleConns)
	conn.SetConnMaxIdleTime(engineCfg.ConnMaxIdleTime.Duration)
	conn.SetConnMaxLifetime(engineCfg.ConnMaxLifetime.Duration)

	attempts := engineCfg.PingRetries
	if attempts == 0 {
		attempts = 1
	}

	err = retry.Do(
		func() error {
			pingCtx := ctx
			if timeout := engineCfg.PingTimeout.Duration; timeout > 0 {
				var cancel context.CancelFunc
				pingCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return conn.PingContext(pingCtx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			slog.Error("failed to close database connection", "reason", closeErr)
		}
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Manager{
		db:        conn,
		dialect:   cfg.Dialect(),
		isolation: isolation,
		echo:      engineCfg.Echo,
	}, nil
}

// DB exposes the underlying connection pool.
func (m *Manager) DB() *sql.DB {
	return m.db
}

// Dialect returns the SQL flavor the manager was opened with.
func (m *Manager) Dialect() statement.Dialect {
	return m.dialect
}

func (m *Manager) Close() error {
	return m.db.Close()
}

func (m *Manager) echoStatement(query string, args []any) {
	if m.echo {
		slog.Debug("Executing statement", "sql", query, "args", args)
	}
}
