package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"picfeed/internal/observability"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ProfileKeyPrefix   = "profile:%s"
	VerifyKeyPrefix    = "verify:%s"
	BlacklistKeyPrefix = "blacklist:%s"
)

const (
	ProfileTTL = 2 * time.Minute
)

// ProfileKey is the cache key of a public profile. Usernames are case-sensitive.
func ProfileKey(username string) string {
	return fmt.Sprintf(ProfileKeyPrefix, username)
}

func VerifyKey(code string) string {
	return fmt.Sprintf(VerifyKeyPrefix, code)
}

func BlacklistKey(jti string) string {
	return fmt.Sprintf(BlacklistKeyPrefix, jti)
}

// Aside implements cache-aside for JSON-serializable values: on a hit dest is
// filled from Redis, otherwise fetch fills dest and the result is stored.
// Without a client it simply calls fetch.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	ctx, span := observability.TraceRedisOperation(ctx, "aside")
	defer span.End()

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return nil
		}
	} else if !errors.Is(err, redis.Nil) {
		// Redis trouble degrades to a direct read.
		observability.RecordErrorInContext(ctx, err)
		return fetch()
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	if err := fetch(); err != nil {
		return err
	}

	if payload, err := json.Marshal(dest); err == nil {
		client.Set(ctx, key, payload, ttl)
	}
	return nil
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateProfiles drops the cached public profiles of the given usernames.
func InvalidateProfiles(ctx context.Context, usernames ...string) {
	for _, u := range usernames {
		if strings.TrimSpace(u) == "" {
			continue
		}
		Invalidate(ctx, ProfileKey(u))
	}
}
