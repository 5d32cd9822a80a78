// Package cache provides the Redis-backed stores of the application: profile
// cache-aside, verification codes, the token blacklist and websocket tickets.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"picfeed/internal/config"
	"picfeed/internal/middleware"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var client *redis.Client

// Options configures the shared client.
type Options struct {
	// URL is either redis://... or a bare host:port.
	URL         string
	PoolSize    int
	DialTimeout time.Duration
	// OpTimeout bounds reads and writes of a single command.
	OpTimeout time.Duration
}

// OptionsFromConfig reads the REDIS_* keys.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:         cfg.RedisURL,
		PoolSize:    cfg.RedisPoolSize,
		DialTimeout: cfg.RedisDialTimeout,
		OpTimeout:   cfg.RedisOpTimeout,
	}
}

func (o Options) redisOptions() (*redis.Options, error) {
	var opts *redis.Options
	if strings.Contains(o.URL, "://") {
		parsed, err := redis.ParseURL(o.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: o.URL}
	}
	if o.PoolSize > 0 {
		opts.PoolSize = o.PoolSize
	}
	if o.DialTimeout > 0 {
		opts.DialTimeout = o.DialTimeout
	}
	if o.OpTimeout > 0 {
		opts.ReadTimeout = o.OpTimeout
		opts.WriteTimeout = o.OpTimeout
	}
	return opts, nil
}

// commandHook counts failed commands and marks each command on the active
// request span, so slow feeds and profile reads show their redis traffic.
type commandHook struct{}

func (commandHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (commandHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		observe(ctx, cmd.Name(), err)
		return err
	}
}

func (commandHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		observe(ctx, "pipeline", err)
		return err
	}
}

func observe(ctx context.Context, name string, err error) {
	failed := err != nil && !errors.Is(err, redis.Nil)
	if failed {
		middleware.RedisErrors.WithLabelValues(name).Inc()
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("redis."+name, trace.WithAttributes(attribute.Bool("redis.failed", failed)))
	}
}

// NewClient builds an instrumented client without contacting the server.
func NewClient(o Options) (*redis.Client, error) {
	opts, err := o.redisOptions()
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	c.AddHook(commandHook{})
	return c, nil
}

// InitRedis connects the shared client. The client stays nil when Redis is
// unreachable or misconfigured; the stores then degrade as documented on each.
func InitRedis(ctx context.Context, o Options) *redis.Client {
	client = nil
	c, err := NewClient(o)
	if err != nil {
		middleware.Logger.Warn("redis disabled", "error", err)
		return nil
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		middleware.Logger.Warn("redis unreachable, continuing without cache", "error", err)
		_ = c.Close()
		return nil
	}

	middleware.Logger.Info("redis connected", "pool_size", c.Options().PoolSize)
	client = c
	return c
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}

// SetClient replaces the package client. Used by tests.
func SetClient(c *redis.Client) {
	if c != nil {
		c.AddHook(commandHook{})
	}
	client = c
}
