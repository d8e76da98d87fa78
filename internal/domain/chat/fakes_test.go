package chat

import (
	"context"
	"sort"
	"sync"

	"multichat/internal/utils/platformerrors"
)

// memStore is an in-memory ChatRepository and MessageRepository.
type memStore struct {
	mu       sync.Mutex
	chats    map[string]*Chat
	messages []*Message
	listHits int
}

func newMemStore() *memStore {
	return &memStore{chats: map[string]*Chat{}}
}

func notFound(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound, err.Error(), err, "")
}

func (m *memStore) Create(_ context.Context, c *Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.chats[c.ID] = &cp
	return nil
}

func (m *memStore) FindByID(ctx context.Context, id string) (*Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil, notFound(ctx, ErrChatNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) FindAll(context.Context) ([]*Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Chat, 0, len(m.chats))
	for _, c := range m.chats {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (m *memStore) Update(ctx context.Context, c *Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[c.ID]; !ok {
		return notFound(ctx, ErrChatNotFound)
	}
	cp := *c
	m.chats[c.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[id]; !ok {
		return false, nil
	}
	delete(m.chats, id)
	kept := m.messages[:0]
	for _, msg := range m.messages {
		if msg.ChatID != id {
			kept = append(kept, msg)
		}
	}
	m.messages = kept
	return true, nil
}

type memMessages struct{ *memStore }

func (m memMessages) Append(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[msg.ChatID]
	if !ok {
		return notFound(ctx, ErrChatNotFound)
	}
	cp := *msg
	m.messages = append(m.messages, &cp)
	c.UpdatedAt = msg.CreatedAt
	return nil
}

func (m memMessages) FindByChatID(_ context.Context, chatID string) ([]*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listHits++
	out := []*Message{}
	for _, msg := range m.messages {
		if msg.ChatID == chatID {
			cp := *msg
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m memMessages) FindByID(ctx context.Context, id string) (*Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ID == id {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, notFound(ctx, ErrMessageNotFound)
}

func (m memMessages) Update(ctx context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.messages {
		if existing.ID == msg.ID {
			cp := *msg
			m.messages[i] = &cp
			return nil
		}
	}
	return notFound(ctx, ErrMessageNotFound)
}

func (m memMessages) Delete(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, msg := range m.messages {
		if msg.ID == id {
			m.messages = append(m.messages[:i], m.messages[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// mapCache is a MessageCache that records invalidations.
type mapCache struct {
	mu          sync.Mutex
	entries     map[string][]*Message
	invalidated []string
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string][]*Message{}}
}

func (c *mapCache) GetOrLoad(ctx context.Context, chatID string, load func(ctx context.Context) ([]*Message, error)) ([]*Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[chatID]; ok {
		return cached, nil
	}
	loaded, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.entries[chatID] = loaded
	return loaded, nil
}

func (c *mapCache) Invalidate(_ context.Context, chatID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, chatID)
	c.invalidated = append(c.invalidated, chatID)
}
