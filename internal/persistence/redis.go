package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/startline/auth-server/internal/config"
	"github.com/startline/auth-server/internal/repository"
)

// Redis holds refresh tokens when AUTH_REFRESH_STORE=redis.
type Redis struct {
	client *redis.Client
}

// OpenRedis connects and pings the server. An unreachable server is fatal
// because every issued refresh token would be lost.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout(),
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout()+time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}

	logger.Info("connected to redis", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	return &Redis{client: client}, nil
}

// RefreshTokens returns the refresh token store backed by this client.
func (r *Redis) RefreshTokens() (repository.RefreshTokenRepository, error) {
	if r == nil {
		return nil, errors.New("redis client not configured")
	}
	return repository.NewRedisRefreshTokenRepository(r.client)
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.client != nil {
		_ = r.client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.client == nil {
		return errors.New("redis client not configured")
	}
	return r.client.Ping(ctx).Err()
}
