package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const flashKeyPrefix = "authweb:flash:"

// FlashStore keeps notifications for a session until they are read or expire.
type FlashStore interface {
	Put(ctx context.Context, sessionID string, n Notification) error
	Pop(ctx context.Context, sessionID string) ([]Notification, error)
}

// RedisFlashStore stores flashes in a per-session redis list that expires with its newest entry.
type RedisFlashStore struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRedisFlashStore creates a redis backed flash store.
func NewRedisFlashStore(rdb *redis.Client) *RedisFlashStore {
	return &RedisFlashStore{rdb: rdb, now: time.Now}
}

func (s *RedisFlashStore) Put(ctx context.Context, sessionID string, n Notification) error {
	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = s.now().Add(n.Duration)
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("flash encode: %w", err)
	}

	key := flashKeyPrefix + sessionID
	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.PExpire(ctx, key, n.Duration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flash put: %w", err)
	}
	return nil
}

func (s *RedisFlashStore) Pop(ctx context.Context, sessionID string) ([]Notification, error) {
	key := flashKeyPrefix + sessionID
	pipe := s.rdb.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}

	now := s.now()
	var out []Notification
	for _, raw := range items.Val() {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// MemoryFlashStore is the single-instance fallback used when redis is not configured.
type MemoryFlashStore struct {
	mu      sync.Mutex
	entries map[string][]Notification
	now     func() time.Time
}

// NewMemoryFlashStore creates an in-process flash store.
func NewMemoryFlashStore() *MemoryFlashStore {
	return &MemoryFlashStore{
		entries: make(map[string][]Notification),
		now:     time.Now,
	}
}

func (s *MemoryFlashStore) Put(_ context.Context, sessionID string, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ExpiresAt.IsZero() {
		n.ExpiresAt = s.now().Add(n.Duration)
	}
	s.entries[sessionID] = append(s.live(s.entries[sessionID]), n)
	return nil
}

func (s *MemoryFlashStore) Pop(_ context.Context, sessionID string) ([]Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.live(s.entries[sessionID])
	delete(s.entries, sessionID)
	return out, nil
}

// Sweep drops expired flashes of sessions that never came back.
func (s *MemoryFlashStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sid, list := range s.entries {
		if live := s.live(list); len(live) > 0 {
			s.entries[sid] = live
		} else {
			delete(s.entries, sid)
		}
	}
}

func (s *MemoryFlashStore) live(list []Notification) []Notification {
	now := s.now()
	out := list[:0:0]
	for _, n := range list {
		if now.After(n.ExpiresAt) {
			continue
		}
		out = append(out, n)
	}
	return out
}
