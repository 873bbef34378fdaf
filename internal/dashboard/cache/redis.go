// Package cache provides the redis-backed dashboard result cache. Caching
// sits outside the engine: a cold or unavailable cache only costs a
// recomputation, never correctness.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/partnerpulse/creditscope/internal/config"
	"github.com/partnerpulse/creditscope/internal/dashboard/domain"
)

const keyPrefix = "creditscope:dashboard:"

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type redisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// New builds the dashboard cache. An empty REDIS_ADDR disables caching:
// every lookup misses and writes are dropped.
func New(p Params) domain.Cache {
	log := p.Log.Named("dashboard.cache")
	if p.Cfg.RedisAddr == "" {
		log.Info("redis not configured, dashboard cache disabled")
		return &redisCache{log: log}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     p.Cfg.RedisAddr,
		Password: p.Cfg.RedisPassword,
		DB:       p.Cfg.RedisDB,
	})
	log.Info("dashboard cache enabled", zap.String("addr", p.Cfg.RedisAddr))
	return &redisCache{client: client, log: log}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil || c.client == nil {
		return false, nil
	}

	payload, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		// Treat a flaky cache as a miss; the caller recomputes.
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, nil
	}

	if err := json.Unmarshal(payload, dest); err != nil {
		c.log.Warn("cache payload corrupt", zap.String("key", key), zap.Error(err))
		return false, nil
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil || c.client == nil || ttl <= 0 {
		return nil
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, keyPrefix+key, payload, ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// Key builds a deterministic cache key from request parameters. Parts are
// lowercased and empty parts dropped so equivalent requests share an entry.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		values = append(values, strings.ToLower(trimmed))
	}
	return strings.Join(values, "|")
}
