// Package database provides the PostgreSQL connection pool.
package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/alphalab/internal/config"
	"github.com/yourusername/alphalab/internal/models"
)

// Postgres wraps a pgx connection pool.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewPostgres creates a connection pool and verifies connectivity.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to parse database config")
	}
	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to create connection pool")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, models.WrapError(models.KindExperimentStore, err, "failed to ping database")
	}

	logger.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Name,
	}).Info("Database connection established")

	return &Postgres{pool: pool, logger: logger}, nil
}

// Pool returns the underlying connection pool.
func (db *Postgres) Pool() *pgxpool.Pool {
	return db.pool
}

// Close releases all pool connections.
func (db *Postgres) Close() {
	db.pool.Close()
	db.logger.Info("Database connection closed")
}
