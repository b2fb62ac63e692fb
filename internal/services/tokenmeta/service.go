package tokenmeta

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/clawnad/backend/internal/infrastructure/nadfun"
	"github.com/clawnad/backend/internal/infrastructure/redis"
	"github.com/rs/zerolog/log"
)

const cacheTTL = 5 * time.Minute

// Store caches token metadata lookups. Staleness within the TTL is
// tolerated; strict linearizability is not required.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
}

type redisStore struct {
	redisService *redis.Service
}

func (rs *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := rs.redisService.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	return []byte(data), true
}

func (rs *redisStore) Set(ctx context.Context, key string, value []byte) {
	_ = rs.redisService.Set(ctx, key, string(value), cacheTTL)
}

type memoryEntry struct {
	data []byte
	ts   time.Time
}

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (ms *memoryStore) Get(_ context.Context, key string) ([]byte, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	entry, ok := ms.entries[key]
	if !ok || ms.now().Sub(entry.ts) >= cacheTTL {
		return nil, false
	}
	return entry.data, true
}

func (ms *memoryStore) Set(_ context.Context, key string, value []byte) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.entries[key] = memoryEntry{data: value, ts: ms.now()}
}

// Service serves token metadata through a TTL cache backed by Redis when
// available, in-process memory otherwise.
type Service struct {
	store Store
	nad   *nadfun.Service
}

func NewService(redisService *redis.Service, nad *nadfun.Service) *Service {
	var store Store
	if redisService != nil && redisService.Ping(context.Background()) == nil {
		store = &redisStore{redisService: redisService}
	} else {
		store = newMemoryStore()
	}
	return &Service{store: store, nad: nad}
}

func NewServiceWith(store Store, nad *nadfun.Service) *Service {
	return &Service{store: store, nad: nad}
}

// Lookup returns cached metadata for a token, fetching from nad.fun on a
// miss. A token nad.fun does not know yields (nil, nil) and is not
// cached, so it is retried on the next request.
func (s *Service) Lookup(ctx context.Context, tokenAddress string) (*nadfun.TokenInfo, error) {
	key := "tokenmeta:" + strings.ToLower(tokenAddress)

	if data, ok := s.store.Get(ctx, key); ok {
		var info nadfun.TokenInfo
		if err := json.Unmarshal(data, &info); err == nil {
			return &info, nil
		}
		log.Warn().Str("key", key).Msg("Discarding corrupt cache entry")
	}

	info, err := s.nad.TokenMetadata(ctx, strings.ToLower(tokenAddress))
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, nil
	}

	if data, err := json.Marshal(info); err == nil {
		s.store.Set(ctx, key, data)
	}
	return info, nil
}
