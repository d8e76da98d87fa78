package idgen

import (
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
	}{
		{name: "chat ID", prefix: PrefixChat},
		{name: "message ID", prefix: PrefixMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.prefix)

			assert.True(t, strings.HasPrefix(got, tt.prefix+"_"))
			assert.Len(t, got, len(tt.prefix)+1+26)
			assert.Equal(t, strings.ToLower(got), got)
			assert.True(t, IsValid(tt.prefix, got))
		})
	}
}

func TestNew_SortsByCreation(t *testing.T) {
	ids := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, New(PrefixMessage))
	}

	assert.True(t, sort.StringsAreSorted(ids))
}

func TestNew_ConcurrentUnique(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = map[string]struct{}{}
		wg   sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				id := New(PrefixChat)
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 400)
}

func TestParse(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	id := NewAt(PrefixChat, at)

	parsed, err := Parse(PrefixChat, id)
	require.NoError(t, err)
	assert.Equal(t, uint64(at.UnixMilli()), parsed.Time())

	_, err = Parse(PrefixMessage, id)
	assert.Error(t, err)
	assert.False(t, IsValid(PrefixChat, "chat_not-a-ulid"))
}
