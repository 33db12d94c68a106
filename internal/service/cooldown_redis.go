package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCooldownStore backs the chat cooldown with Redis so the window
// survives restarts. SET NX with TTL gives the atomic check-then-set.
type RedisCooldownStore struct {
	client *redis.Client
}

func NewRedisCooldownStore(client *redis.Client) *RedisCooldownStore {
	return &RedisCooldownStore{client: client}
}

func (s *RedisCooldownStore) CheckAndMark(ctx context.Context, userID, roomID int64, cooldown time.Duration) (bool, time.Duration, error) {
	key := cooldownKey(userID, roomID)

	set, err := s.client.SetNX(ctx, key, 1, cooldown).Result()
	if err != nil {
		return false, 0, err
	}
	if set {
		return true, 0, nil
	}

	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return false, ttl, nil
}
