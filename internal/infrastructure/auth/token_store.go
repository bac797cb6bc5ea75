package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lllypuk/taskboard/internal/domain/id"
)

// Token store errors.
var (
	ErrTokenNotFound = errors.New("token not found")
)

// TokenStore tracks active refresh tokens in Redis.
// A refresh token is usable only while its id is stored.
type TokenStore struct {
	client    *redis.Client
	keyPrefix string
}

// TokenStoreConfig contains configuration for TokenStore.
type TokenStoreConfig struct {
	Client    *redis.Client
	KeyPrefix string
}

const (
	defaultKeyPrefix = "auth:refresh_token:"
)

// NewTokenStore creates a new Redis-based token store.
func NewTokenStore(cfg TokenStoreConfig) *TokenStore {
	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &TokenStore{
		client:    cfg.Client,
		keyPrefix: keyPrefix,
	}
}

func (s *TokenStore) tokenKey(userID id.ID, tokenID string) string {
	return fmt.Sprintf("%s%s:%s", s.keyPrefix, userID.String(), tokenID)
}

func validateTokenArgs(userID id.ID, tokenID string) error {
	if userID.IsZero() {
		return errors.New("userID is required")
	}
	if tokenID == "" {
		return errors.New("tokenID is required")
	}
	return nil
}

// StoreRefreshToken marks a refresh token id as active for ttl.
func (s *TokenStore) StoreRefreshToken(ctx context.Context, userID id.ID, tokenID string, ttl time.Duration) error {
	if err := validateTokenArgs(userID, tokenID); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.tokenKey(userID, tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// CheckRefreshToken returns ErrTokenNotFound when the token id is not active.
func (s *TokenStore) CheckRefreshToken(ctx context.Context, userID id.ID, tokenID string) error {
	if err := validateTokenArgs(userID, tokenID); err != nil {
		return err
	}

	exists, err := s.client.Exists(ctx, s.tokenKey(userID, tokenID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check refresh token: %w", err)
	}
	if exists == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteRefreshToken revokes one refresh token. Returns ErrTokenNotFound if
// it was not active.
func (s *TokenStore) DeleteRefreshToken(ctx context.Context, userID id.ID, tokenID string) error {
	if err := validateTokenArgs(userID, tokenID); err != nil {
		return err
	}

	deleted, err := s.client.Del(ctx, s.tokenKey(userID, tokenID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	if deleted == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// DeleteAllForUser revokes every refresh token of a user.
func (s *TokenStore) DeleteAllForUser(ctx context.Context, userID id.ID) (int64, error) {
	if userID.IsZero() {
		return 0, errors.New("userID is required")
	}

	var (
		cursor  uint64
		removed int64
	)
	pattern := fmt.Sprintf("%s%s:*", s.keyPrefix, userID.String())
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("failed to scan refresh tokens: %w", err)
		}
		if len(keys) > 0 {
			n, delErr := s.client.Del(ctx, keys...).Result()
			if delErr != nil {
				return removed, fmt.Errorf("failed to delete refresh tokens: %w", delErr)
			}
			removed += n
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
