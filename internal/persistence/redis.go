package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ticketledger/ticket-ledger/internal/config"
)

// Redis holds the cache client and the namespace its keys live under.
type Redis struct {
	Client    *redis.Client
	KeyPrefix string
}

// NewRedis builds a client for cfg. An unreachable server is logged, not
// fatal: cached reads fall back to the store.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, cache reads will miss", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}

	return &Redis{Client: client, KeyPrefix: strings.TrimSuffix(cfg.KeyPrefix, ":")}
}

// Namespace returns the key prefix for one kind of cached record, e.g.
// "ticket-ledger:ticket:".
func (r *Redis) Namespace(kind string) string {
	if r == nil || r.KeyPrefix == "" {
		return kind + ":"
	}
	return r.KeyPrefix + ":" + kind + ":"
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping reports whether the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}
