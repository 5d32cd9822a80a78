package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCodeNotFound is returned when a verification code is unknown or expired.
var ErrCodeNotFound = errors.New("verification code not found")

// ErrNoStore is returned when Redis is not configured.
var ErrNoStore = errors.New("redis client is nil")

// VerificationStore keeps pending registrations under verify:<code> until they expire.
type VerificationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewVerificationStore(rdb *redis.Client, ttl time.Duration) *VerificationStore {
	return &VerificationStore{rdb: rdb, ttl: ttl}
}

// Put stores payload under code. It reports false when the code is already taken.
func (s *VerificationStore) Put(ctx context.Context, code string, payload []byte) (bool, error) {
	if s.rdb == nil {
		return false, ErrNoStore
	}
	return s.rdb.SetNX(ctx, VerifyKey(code), payload, s.ttl).Result()
}

// Take returns and deletes the payload stored under code.
func (s *VerificationStore) Take(ctx context.Context, code string) ([]byte, error) {
	if s.rdb == nil {
		return nil, ErrNoStore
	}
	raw, err := s.rdb.GetDel(ctx, VerifyKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCodeNotFound
	}
	return raw, err
}

// TokenBlacklist records revoked JWT IDs until the token would have expired anyway.
type TokenBlacklist struct {
	rdb *redis.Client
}

func NewTokenBlacklist(rdb *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{rdb: rdb}
}

// Revoke blacklists jti for ttl. Without Redis revocation is a no-op.
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if b.rdb == nil || jti == "" {
		return nil
	}
	if ttl <= 0 {
		return nil
	}
	return b.rdb.Set(ctx, BlacklistKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether jti has been blacklisted.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if b.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := b.rdb.Exists(ctx, BlacklistKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
