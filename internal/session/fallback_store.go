// session/fallback_store.go
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// FallbackStore layers a local in-memory cache under the Redis store so a
// Redis outage degrades to single-process sessions instead of logging
// everyone out.
type FallbackStore struct {
	redisStore  *RedisStore
	localCache  map[string]*State
	cacheMutex  sync.RWMutex
	healthCheck func() bool
	logger      *zap.Logger
}

// NewFallbackStore creates a session store with Redis and local fallback.
func NewFallbackStore(client redis.UniversalClient, prefix string, healthCheck func() bool, logger *zap.Logger) *FallbackStore {
	return &FallbackStore{
		redisStore:  NewRedisStore(client, prefix),
		localCache:  make(map[string]*State),
		healthCheck: healthCheck,
		logger:      logger,
	}
}

// Save writes to the local cache and, when Redis is healthy, to Redis too.
func (s *FallbackStore) Save(ctx context.Context, sessionID string, state *State) error {
	copied := *state
	s.cacheMutex.Lock()
	s.localCache[sessionID] = &copied
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.Save(ctx, sessionID, state); err != nil {
			s.logger.Warn("failed to save session state to redis", zap.Error(err))
		}
	}
	return nil
}

// Get tries Redis first when healthy, then the local cache.
func (s *FallbackStore) Get(ctx context.Context, sessionID string) (*State, error) {
	if s.healthCheck() {
		state, err := s.redisStore.Get(ctx, sessionID)
		if err == nil {
			copied := *state
			s.cacheMutex.Lock()
			s.localCache[sessionID] = &copied
			s.cacheMutex.Unlock()
			return state, nil
		}
		if err != ErrNotFound {
			s.logger.Warn("failed to get session state from redis", zap.Error(err))
		}
	}

	s.cacheMutex.RLock()
	state, exists := s.localCache[sessionID]
	s.cacheMutex.RUnlock()
	if exists {
		copied := *state
		return &copied, nil
	}
	return nil, ErrNotFound
}

// Delete removes the session from both stores.
func (s *FallbackStore) Delete(ctx context.Context, sessionID string) error {
	s.cacheMutex.Lock()
	delete(s.localCache, sessionID)
	s.cacheMutex.Unlock()

	if s.healthCheck() {
		if err := s.redisStore.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("failed to delete session state from redis", zap.Error(err))
		}
	}
	return nil
}

// StartReplicationRoutine begins background sync of the local cache to Redis
// so sessions written during an outage catch up once Redis recovers.
func (s *FallbackStore) StartReplicationRoutine(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.healthCheck() {
					continue
				}

				s.cacheMutex.RLock()
				toReplicate := make(map[string]*State, len(s.localCache))
				for id, state := range s.localCache {
					toReplicate[id] = state
				}
				s.cacheMutex.RUnlock()

				for id, state := range toReplicate {
					if err := s.redisStore.Save(ctx, id, state); err != nil {
						s.logger.Warn("session replication failed",
							zap.String("session_id", id), zap.Error(err))
					}
				}
			}
		}
	}()
}
