package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"multichat/internal/domain/chat"
	"multichat/internal/infrastructure/metrics"
)

const CacheVersion = "v1"

const lockExpiry = 5 * time.Second

// RedisMessageCache shares message lists between replicas through redis.
// Loads and invalidations of one chat are serialised with a redsync mutex.
// A chat whose invalidation could not reach redis is served from the loader by this
// process until a later delete of its key succeeds.
type RedisMessageCache struct {
	client    redis.UniversalClient
	rs        *redsync.Redsync
	keyPrefix string
	ttl       time.Duration
	log       zerolog.Logger
	pending   sync.Map
}

var _ chat.MessageCache = (*RedisMessageCache)(nil)

// NewRedisClient parses a comma separated list of redis URLs or host:port pairs
// and pings the resulting client.
func NewRedisClient(ctx context.Context, redisURL string) (redis.UniversalClient, error) {
	opts, err := buildUniversalOptions(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	if len(opts.Addrs) > 1 {
		opts.DB = 0
	}

	client := redis.NewUniversalClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func NewRedisMessageCache(client redis.UniversalClient, ttl time.Duration, log zerolog.Logger) *RedisMessageCache {
	return &RedisMessageCache{
		client:    client,
		rs:        redsync.New(goredis.NewPool(client)),
		keyPrefix: "multichat:" + CacheVersion + ":",
		ttl:       ttl,
		log:       log,
	}
}

func (c *RedisMessageCache) dataKey(chatID string) string {
	return c.keyPrefix + "messages:" + chatID
}

func (c *RedisMessageCache) lockKey(chatID string) string {
	return c.keyPrefix + "lock:messages:" + chatID
}

// GetOrLoad implements chat.MessageCache. Redis failures degrade to a direct load.
func (c *RedisMessageCache) GetOrLoad(ctx context.Context, chatID string, load func(ctx context.Context) ([]*chat.Message, error)) ([]*chat.Message, error) {
	if !c.retryPendingInvalidation(ctx, chatID) {
		metrics.RecordCacheLookup(BackendRedis, "bypass")
		return load(ctx)
	}

	var (
		messages []*chat.Message
		loadErr  error
	)
	lockErr := c.withLock(ctx, chatID, func() error {
		raw, err := c.client.Get(ctx, c.dataKey(chatID)).Bytes()
		switch {
		case err == nil:
			if jsonErr := json.Unmarshal(raw, &messages); jsonErr == nil {
				metrics.RecordCacheLookup(BackendRedis, "hit")
				return nil
			}
			c.log.Warn().Str("chat_id", chatID).Msg("discarding undecodable message cache entry")
		case errors.Is(err, redis.Nil):
		default:
			metrics.RecordCacheLookup(BackendRedis, "error")
			c.log.Warn().Err(err).Str("chat_id", chatID).Msg("message cache read failed")
		}
		metrics.RecordCacheLookup(BackendRedis, "miss")

		messages, loadErr = load(ctx)
		if loadErr != nil {
			return nil
		}
		payload, err := json.Marshal(messages)
		if err != nil {
			return nil
		}
		if err := c.client.Set(ctx, c.dataKey(chatID), payload, c.ttl).Err(); err != nil {
			c.log.Warn().Err(err).Str("chat_id", chatID).Msg("message cache write failed")
		}
		return nil
	})
	if lockErr != nil {
		c.log.Warn().Err(lockErr).Str("chat_id", chatID).Msg("message cache lock unavailable, loading directly")
		return load(ctx)
	}
	if loadErr != nil {
		return nil, loadErr
	}
	return messages, nil
}

// Invalidate implements chat.MessageCache.
func (c *RedisMessageCache) Invalidate(ctx context.Context, chatID string) {
	del := func() error {
		return c.client.Del(ctx, c.dataKey(chatID)).Err()
	}
	if err := c.withLock(ctx, chatID, del); err != nil {
		c.log.Warn().Err(err).Str("chat_id", chatID).Msg("message cache invalidation without lock")
		if err := del(); err != nil {
			c.pending.Store(chatID, struct{}{})
			c.log.Error().Err(err).Str("chat_id", chatID).Msg("message cache invalidation failed")
			return
		}
	}
	c.pending.Delete(chatID)
}

// retryPendingInvalidation reports whether the cached entry for chatID may be used.
func (c *RedisMessageCache) retryPendingInvalidation(ctx context.Context, chatID string) bool {
	if _, ok := c.pending.Load(chatID); !ok {
		return true
	}
	if err := c.client.Del(ctx, c.dataKey(chatID)).Err(); err != nil {
		return false
	}
	c.pending.Delete(chatID)
	return true
}

func (c *RedisMessageCache) withLock(ctx context.Context, chatID string, fn func() error) error {
	mutex := c.rs.NewMutex(c.lockKey(chatID),
		redsync.WithExpiry(lockExpiry),
		redsync.WithTries(40),
		redsync.WithRetryDelay(25*time.Millisecond),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			c.log.Error().Err(err).Msg("Failed to unlock mutex")
		}
	}()
	return fn()
}

// HealthCheck pings redis.
func (c *RedisMessageCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisMessageCache) Close() error {
	return c.client.Close()
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no Redis addresses provided")
	}
	return opts, nil
}
