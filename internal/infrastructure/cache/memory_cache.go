package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"multichat/internal/domain/chat"
	"multichat/internal/infrastructure/metrics"
)

type memoryEntry struct {
	messages  []*chat.Message
	expiresAt time.Time
}

// MemoryMessageCache keeps message lists in a process-local LRU.
type MemoryMessageCache struct {
	entries *lru.Cache
	ttl     time.Duration
	locks   keyedLocks
	now     func() time.Time
}

var _ chat.MessageCache = (*MemoryMessageCache)(nil)

func NewMemoryMessageCache(size int, ttl time.Duration) (*MemoryMessageCache, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache: %w", err)
	}
	return &MemoryMessageCache{entries: entries, ttl: ttl, now: time.Now}, nil
}

// GetOrLoad implements chat.MessageCache.
func (c *MemoryMessageCache) GetOrLoad(ctx context.Context, chatID string, load func(ctx context.Context) ([]*chat.Message, error)) ([]*chat.Message, error) {
	unlock := c.locks.lock(chatID)
	defer unlock()

	if raw, ok := c.entries.Get(chatID); ok {
		entry := raw.(memoryEntry)
		if c.ttl <= 0 || c.now().Before(entry.expiresAt) {
			metrics.RecordCacheLookup(BackendMemory, "hit")
			return cloneMessages(entry.messages), nil
		}
		c.entries.Remove(chatID)
	}
	metrics.RecordCacheLookup(BackendMemory, "miss")

	messages, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries.Add(chatID, memoryEntry{
		messages:  cloneMessages(messages),
		expiresAt: c.now().Add(c.ttl),
	})
	return messages, nil
}

// Invalidate implements chat.MessageCache.
func (c *MemoryMessageCache) Invalidate(_ context.Context, chatID string) {
	unlock := c.locks.lock(chatID)
	defer unlock()
	c.entries.Remove(chatID)
}

// Len reports the number of cached chats.
func (c *MemoryMessageCache) Len() int {
	return c.entries.Len()
}
