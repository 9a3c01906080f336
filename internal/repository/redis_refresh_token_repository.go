package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/startline/auth-server/internal/domain"
)

const refreshTokenPrefix = "refresh_token:"

type redisRefreshTokenRepository struct {
	client *redis.Client
}

// NewRedisRefreshTokenRepository stores refresh tokens as Redis hashes that
// expire together with the token.
func NewRedisRefreshTokenRepository(client *redis.Client) (RefreshTokenRepository, error) {
	if client == nil {
		return nil, errors.New("redis client cannot be nil")
	}
	return &redisRefreshTokenRepository{client: client}, nil
}

func refreshTokenKey(owner, token string) string {
	sum := sha256.Sum256([]byte(token))
	return refreshTokenPrefix + owner + ":" + hex.EncodeToString(sum[:])
}

func (r *redisRefreshTokenRepository) Save(ctx context.Context, token *domain.RefreshToken) error {
	if token.Token == "" || token.Username == "" {
		return errors.New("refresh token and owner are required")
	}
	token.CreatedAt = time.Now()
	key := refreshTokenKey(token.Username, token.Token)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"id", token.ID,
			"username", token.Username,
			"expires_at", token.ExpiresAt.UnixMilli(),
			"created_at", token.CreatedAt.UnixMilli(),
		)
		pipe.ExpireAt(ctx, key, token.ExpiresAt)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store refresh token: %w", err)
	}
	return nil
}

func (r *redisRefreshTokenRepository) FindValid(ctx context.Context, token, owner string, now time.Time) (*domain.RefreshToken, error) {
	fields, err := r.client.HGetAll(ctx, refreshTokenKey(owner, token)).Result()
	if err != nil {
		return nil, fmt.Errorf("load refresh token: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	expiresMillis, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse refresh token expiry: %w", err)
	}
	createdMillis, _ := strconv.ParseInt(fields["created_at"], 10, 64)

	record := &domain.RefreshToken{
		ID:        fields["id"],
		Token:     token,
		Username:  fields["username"],
		ExpiresAt: time.UnixMilli(expiresMillis),
		CreatedAt: time.UnixMilli(createdMillis),
	}
	if record.Username != owner || record.Expired(now) {
		return nil, nil
	}
	return record, nil
}
