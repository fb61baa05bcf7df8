package captcha

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store keeps issued answers until they are taken or expire.
type Store interface {
	Save(ctx context.Context, id, answer string, ttl time.Duration) error
	// Take returns and deletes the answer; ok is false when it is unknown or expired.
	Take(ctx context.Context, id string) (answer string, ok bool, err error)
}

// RedisStore keeps answers in Redis with a TTL.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

// NewRedisStore constructs a RedisStore.
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, prefix: "fitcoach:captcha:"}
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, id, answer string, ttl time.Duration) error {
	return s.client.Set(ctx, s.prefix+id, answer, ttl).Err()
}

// Take implements Store.
func (s *RedisStore) Take(ctx context.Context, id string) (string, bool, error) {
	answer, err := s.client.GetDel(ctx, s.prefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

type memoryEntry struct {
	answer  string
	expires time.Time
}

// MemoryStore keeps answers in process memory. Expired entries are swept on Save.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, id, answer string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, key)
		}
	}
	s.entries[id] = memoryEntry{answer: answer, expires: now.Add(ttl)}
	return nil
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, id string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[id]
	if !ok {
		return "", false, nil
	}
	delete(s.entries, id)
	if !s.now().Before(entry.expires) {
		return "", false, nil
	}
	return entry.answer, true, nil
}
