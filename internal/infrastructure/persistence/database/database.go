// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/matchdaymedia/leaguedesk-go/internal/infrastructure/observability/logging"
	"github.com/matchdaymedia/leaguedesk-go/pkg/config"

	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
	logger *logging.ChanneledLogger
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	if logger != nil {
		logger.Database().Debug("Creating new database connection", "driverName", driverName)
	}

	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		if logger != nil {
			logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		}
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)

	if err = db.Ping(); err != nil {
		if logger != nil {
			logger.Database().Error("Database ping failed", "error", err.Error(), "driverName", driverName)
		}
		return nil, err
	}

	if logger != nil {
		logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))
	}

	return &DB{DB: db, logger: logger}, nil
}

// SlowQueryThreshold returns the configured slow query threshold
func SlowQueryThreshold() time.Duration {
	return time.Duration(config.SlowQueryThresholdMs) * time.Millisecond
}

// QueryTimed runs a query and logs it on the slow-query channel when it
// exceeds the configured threshold.
func (db *DB) QueryTimed(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	start := time.Now()
	rows, err := db.QueryContext(ctx, query, args...)
	if elapsed := time.Since(start); elapsed > SlowQueryThreshold() && db.logger != nil {
		db.logger.LogSlowQuery(query, elapsed)
	}
	return rows, err
}

// PingLatency measures a round trip to the data store.
func (db *DB) PingLatency(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := db.PingContext(ctx)
	return time.Since(start), err
}
