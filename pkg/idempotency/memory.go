package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore is the single-process fallback used when Redis is unavailable.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{cache: cache.New(ttl, 10*time.Minute)}
}

func (s *MemoryStore) Reserve(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if x, found := s.cache.Get(key); found {
		val := x.(string)
		if val == pendingMarker {
			return "", false, ErrInProgress
		}
		return val, false, nil
	}
	s.cache.Set(key, pendingMarker, cache.DefaultExpiration)
	return "", true, nil
}

func (s *MemoryStore) Commit(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.DefaultExpiration)
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}
