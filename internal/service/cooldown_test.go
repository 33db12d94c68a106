package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAndMarkAllowsThenDenies(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	allowed, _, err := s.CheckAndMark(ctx, 1, 7, time.Second)
	require.NoError(t, err)
	assert.True(t, allowed, "first message must be allowed")

	allowed, remaining, err := s.CheckAndMark(ctx, 1, 7, time.Second)
	require.NoError(t, err)
	assert.False(t, allowed, "second message inside the window must be denied")
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, time.Second)
}

func TestCheckAndMarkAllowsAfterExpiry(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	allowed, _, err := s.CheckAndMark(ctx, 1, 7, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, allowed)

	time.Sleep(80 * time.Millisecond)

	allowed, _, err = s.CheckAndMark(ctx, 1, 7, 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, allowed, "message after the window must be allowed")
}

func TestCheckAndMarkExactlyOneWinner(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	const attempts = 20
	var allowedCount int64
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed, _, err := s.CheckAndMark(ctx, 5, 5, time.Second)
			assert.NoError(t, err)
			if allowed {
				atomic.AddInt64(&allowedCount, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), allowedCount, "rapid-fire duplicates must yield exactly one accepted message")
}

func TestCooldownKeysAreIndependent(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	allowed, _, _ := s.CheckAndMark(ctx, 1, 7, time.Second)
	require.True(t, allowed)

	// Same user, different room
	allowed, _, _ = s.CheckAndMark(ctx, 1, 8, time.Second)
	assert.True(t, allowed)

	// Different user, same room
	allowed, _, _ = s.CheckAndMark(ctx, 2, 7, time.Second)
	assert.True(t, allowed)
}

func TestExpiredEntryIsEvictedOnCheck(t *testing.T) {
	s := NewMemoryCooldownStore()
	ctx := context.Background()

	_, _, err := s.CheckAndMark(ctx, 1, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	time.Sleep(30 * time.Millisecond)

	// Re-check replaces the stale entry instead of accumulating
	_, _, err = s.CheckAndMark(ctx, 1, 1, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}
