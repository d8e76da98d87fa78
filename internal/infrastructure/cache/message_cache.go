package cache

import (
	"hash/fnv"
	"sync"

	"multichat/internal/domain/chat"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// keyedLocks serialises loads and invalidations of the same chat. A writer
// invalidates only after its transaction commits, so holding the lock across
// "read rows, store entry" keeps a reader from caching rows older than the
// invalidation it raced with.
type keyedLocks struct {
	stripes [64]sync.Mutex
}

func (k *keyedLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}

func cloneMessages(in []*chat.Message) []*chat.Message {
	out := make([]*chat.Message, len(in))
	for i, m := range in {
		cp := *m
		out[i] = &cp
	}
	return out
}
