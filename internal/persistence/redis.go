package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/portyard/port-ticket-service/internal/config"
)

var errRedisNotConfigured = errors.New("redis client not configured")

// Redis holds the notification store client.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client and checks it once. An unreachable server is
// logged, not fatal: notifications degrade while tickets keep working, and
// the readiness probe reports the outage.
func NewRedis(ctx context.Context, cfg config.RedisConfig, appName string, logger *zap.Logger) *Redis {
	client := redis.NewClient(redisOptions(cfg, appName))

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable; notifications unavailable", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client}
}

func redisOptions(cfg config.RedisConfig, appName string) *redis.Options {
	return &redis.Options{
		Addr:       cfg.Addr,
		Password:   cfg.Password,
		DB:         cfg.DB,
		ClientName: appName,
	}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// ClientHandle returns the underlying client, nil when not configured.
func (r *Redis) ClientHandle() *redis.Client {
	if r == nil {
		return nil
	}
	return r.Client
}

// Ping backs the readiness probe.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errRedisNotConfigured
	}
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", r.Client.Options().Addr, err)
	}
	return nil
}
