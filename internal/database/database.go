package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"github.com/userbook/userbook/internal/config"
)

const (
	defaultMaxOpenConnections = 10
	defaultConnectTimeout     = 10 * time.Second
)

// Open creates the shared connection pool for cfg and verifies it with a ping.
// The pool is safe for concurrent use by all request handlers.
func Open(ctx context.Context, cfg config.ConnConfig, logger *zap.Logger) (*bun.DB, error) {
	if cfg.Host == "" || cfg.Database == "" || cfg.User == "" {
		return nil, fmt.Errorf("database host, name and user are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	maxConnections := cfg.MaxOpenConnections
	if maxConnections <= 0 {
		maxConnections = defaultMaxOpenConnections
	}

	timeout := defaultConnectTimeout
	if cfg.ConnectTimeout > 0 {
		timeout = time.Duration(cfg.ConnectTimeout) * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(cfg.DSN()),
		pgdriver.WithDialTimeout(timeout),
	))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	db := bun.NewDB(sqldb, pgdialect.New())

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}

	logger.Info("Connected to database",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
		zap.Int("max_connections", maxConnections))

	return db, nil
}
