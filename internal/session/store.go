package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/quiz-access-service/internal/accessrules"
	"github.com/SAP-F-2025/quiz-access-service/internal/cache"
)

// Key identifies one login session of an authenticated user.
// The session id comes from the client, so state is always scoped to the user as well.
type Key struct {
	UserID    string
	SessionID string
}

func (k Key) storeKey(quizID uint) string {
	return fmt.Sprintf("%q:%q:%d", k.UserID, k.SessionID, quizID)
}

// Store keeps the preflight checks a login session already passed, per quiz
type Store interface {
	// Load returns the saved state, or an empty state when nothing was saved
	Load(ctx context.Context, key Key, quizID uint) (accessrules.PreflightState, error)
	Save(ctx context.Context, key Key, state accessrules.PreflightState) error
}

// RedisStore keeps the state in redis so it survives restarts and is shared between replicas
type RedisStore struct {
	cache *cache.CacheHelper
	ttl   time.Duration
}

func NewRedisStore(helper *cache.CacheHelper, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = cache.SessionCacheConfig.TTL
	}
	return &RedisStore{cache: helper, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, key Key, quizID uint) (accessrules.PreflightState, error) {
	state := accessrules.NewPreflightState(quizID)
	err := s.cache.Get(ctx, key.storeKey(quizID), &state)
	switch {
	case err == nil:
		if state.Checked == nil {
			state.Checked = map[accessrules.Kind]bool{}
		}
		state.QuizID = quizID
		return state, nil
	case errors.Is(err, cache.ErrCacheNotFound):
		return accessrules.NewPreflightState(quizID), nil
	default:
		return accessrules.PreflightState{}, fmt.Errorf("failed to load preflight state: %w", err)
	}
}

// Save stores the state, or drops the key once nothing is checked any more
func (s *RedisStore) Save(ctx context.Context, key Key, state accessrules.PreflightState) error {
	k := key.storeKey(state.QuizID)
	if len(state.Kinds()) == 0 {
		return s.cache.Delete(ctx, k)
	}
	if err := s.cache.Set(ctx, k, state, s.ttl); err != nil {
		return fmt.Errorf("failed to save preflight state: %w", err)
	}
	return nil
}

// MemoryStore is the single-process fallback used when redis is not configured
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]accessrules.PreflightState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]accessrules.PreflightState)}
}

func (s *MemoryStore) Load(_ context.Context, key Key, quizID uint) (accessrules.PreflightState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[key.storeKey(quizID)]
	if !ok {
		return accessrules.NewPreflightState(quizID), nil
	}
	// copy so callers never share the stored map
	return state.Apply(), nil
}

func (s *MemoryStore) Save(_ context.Context, key Key, state accessrules.PreflightState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.storeKey(state.QuizID)
	if len(state.Kinds()) == 0 {
		delete(s.states, k)
		return nil
	}
	s.states[k] = state.Apply()
	return nil
}
