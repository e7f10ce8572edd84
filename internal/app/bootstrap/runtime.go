// Package bootstrap builds the shared infrastructure clients that the API
// server and the reminder worker both need.
package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/fixloop/fixloop-platform/internal/config"
	"github.com/fixloop/fixloop-platform/internal/schedule"
	"github.com/fixloop/fixloop-platform/pkg/logging"
)

// BuildPool opens the pgx connection pool and verifies connectivity.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// BuildAuditDB opens a database/sql handle for the audit trail. The audit
// service rides on database/sql rather than the pool so it can run its own
// encryption-aware scans.
func BuildAuditDB(cfg *appconfig.Config) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		return nil
	}
	return client
}

// BuildScheduleCache returns the Redis-backed schedule cache when Redis is
// available.
func BuildScheduleCache(redisClient *redis.Client, cfg *appconfig.Config) *schedule.Cache {
	if redisClient == nil {
		return nil
	}
	return schedule.NewCache(redisClient, cfg.ScheduleTTL)
}
