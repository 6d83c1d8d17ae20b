// Package cache keeps assembled reports in Redis between builds
package cache

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"unilib/internal/report"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const keyPrefix = "unilib:reports:"

// NewRedisClient connects to Redis, returning nil when the server can't be
// reached so callers run without a cache
func NewRedisClient(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil
	}
	return client
}

// ReportCache implements report.Cache on top of Redis.
// A nil client disables it: every Get misses and Set does nothing.
type ReportCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewReportCache creates a cache whose entries expire after ttl
func NewReportCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Enabled reports whether a Redis client is configured
func (c *ReportCache) Enabled() bool {
	return c != nil && c.rdb != nil
}

func key(asOf time.Time) string {
	return keyPrefix + asOf.UTC().Format(time.RFC3339)
}

// Get returns the reports cached for asOf
func (c *ReportCache) Get(ctx context.Context, asOf time.Time) (*report.Reports, bool) {
	if !c.Enabled() {
		return nil, false
	}

	raw, err := c.rdb.Get(ctx, key(asOf)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read cached reports", zap.Error(err))
		}
		return nil, false
	}

	var r report.Reports
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.Warn("Discarding undecodable cached reports", zap.Error(err))
		return nil, false
	}
	return &r, true
}

// Set stores r under its as-of instant
func (c *ReportCache) Set(ctx context.Context, r *report.Reports) {
	if !c.Enabled() {
		return
	}

	raw, err := json.Marshal(r)
	if err != nil {
		c.logger.Error("Failed to encode reports for cache", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, key(r.AsOf), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache reports", zap.Error(err), zap.String("build_id", r.BuildID))
	}
}

// Close closes the Redis client
func (c *ReportCache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
