// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"workshop/pkg/logger"
)

// PoolConfig holds connection pool configuration.
type PoolConfig struct {
	DSN               string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	// ApplicationName is reported in pg_stat_activity
	ApplicationName string
	// ConnectAttempts is how many times the first ping is tried; the server
	// and worker may start before the database accepts connections.
	ConnectAttempts int
}

func DefaultPoolConfig(dsn string) PoolConfig {
	return PoolConfig{
		DSN:               dsn,
		MaxConns:          25,
		MinConns:          5,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ApplicationName:   "workshop",
		ConnectAttempts:   5,
	}
}

// Pool is the process-wide connection pool.
type Pool struct {
	*pgxpool.Pool
}

func (p *Pool) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

// NewPool connects and pings the database.
func NewPool(ctx context.Context, cfg PoolConfig) (*Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod
	if cfg.ApplicationName != "" {
		poolConfig.ConnConfig.RuntimeParams["application_name"] = cfg.ApplicationName
	}
	// Sessions run in UTC so invoice dates and QR timestamps agree.
	poolConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET TIME ZONE 'UTC'")
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pingWithRetry(ctx, pool, cfg.ConnectAttempts); err != nil {
		pool.Close()
		return nil, err
	}
	return &Pool{Pool: pool}, nil
}

func pingWithRetry(ctx context.Context, pool *pgxpool.Pool, attempts int) error {
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for i := 1; i <= attempts; i++ {
		if err = pool.Ping(ctx); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		wait := time.Duration(i) * time.Second
		logger.Warn(ctx, "database not ready", "attempt", i, "retry_in", wait, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("ping database: %w", err)
}

// PoolStats is the pool snapshot shown by /health/info.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	IdleConns       int32  `json:"idle_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
	// Exhausted is true while every connection is checked out
	Exhausted bool `json:"exhausted"`
}

func (p *Pool) Stats() PoolStats {
	stat := p.Stat()
	s := PoolStats{
		TotalConns:      stat.TotalConns(),
		AcquiredConns:   stat.AcquiredConns(),
		IdleConns:       stat.IdleConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
	s.Exhausted = s.MaxConns > 0 && s.AcquiredConns >= s.MaxConns
	return s
}

// LogStats writes the pool snapshot, as a warning when it is exhausted.
func (p *Pool) LogStats(ctx context.Context) {
	s := p.Stats()
	kv := []any{"total", s.TotalConns, "acquired", s.AcquiredConns, "idle", s.IdleConns, "max", s.MaxConns}
	if s.Exhausted {
		logger.Warn(ctx, "database pool exhausted", append(kv, "acquire_duration", s.AcquireDuration)...)
		return
	}
	logger.Info(ctx, "database pool stats", kv...)
}
