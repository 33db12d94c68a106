package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// CooldownStore enforces a minimum interval between accepted chat messages
// per (user, room) pair. CheckAndMark is atomic check-then-set: of two
// near-simultaneous calls for the same key, exactly one is allowed. On
// denial it reports how long until the key frees up.
type CooldownStore interface {
	CheckAndMark(ctx context.Context, userID, roomID int64, cooldown time.Duration) (allowed bool, remaining time.Duration, err error)
}

func cooldownKey(userID, roomID int64) string {
	return fmt.Sprintf("chat_cooldown:%d:%d", userID, roomID)
}

// MemoryCooldownStore keeps expiry instants in a plain map. Entries are
// evicted lazily on the next check for the same key; the key space is
// bounded by concurrently active chatters, so no sweeper is needed.
type MemoryCooldownStore struct {
	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryCooldownStore() *MemoryCooldownStore {
	return &MemoryCooldownStore{
		expires: make(map[string]time.Time),
	}
}

func (s *MemoryCooldownStore) CheckAndMark(ctx context.Context, userID, roomID int64, cooldown time.Duration) (bool, time.Duration, error) {
	key := cooldownKey(userID, roomID)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if exp, ok := s.expires[key]; ok {
		if now.Before(exp) {
			return false, exp.Sub(now), nil
		}
		delete(s.expires, key)
	}
	s.expires[key] = now.Add(cooldown)
	return true, 0, nil
}

// Len reports how many unexpired-or-stale entries are held. Test hook.
func (s *MemoryCooldownStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expires)
}
