package service

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID int64, roomID int64) *ChatClient {
	return &ChatClient{
		UserID:   userID,
		Username: fmt.Sprintf("user%d", userID),
		RoomID:   roomID,
		Send:     make(chan []byte, 8),
	}
}

func recvFrame(t *testing.T, client *ChatClient) []byte {
	t.Helper()
	select {
	case msg, ok := <-client.Send:
		require.True(t, ok, "send channel closed unexpectedly")
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestConcurrentJoinCounts(t *testing.T) {
	r := NewChatRegistry()
	const n = 50

	clients := make([]*ChatClient, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		clients[i] = newTestClient(int64(i+1), 7)
		wg.Add(1)
		go func(c *ChatClient) {
			defer wg.Done()
			r.Join(7, c)
		}(clients[i])
	}
	wg.Wait()

	assert.Equal(t, n, r.RoomCount(7))
	assert.Equal(t, n, r.OnlineCount())

	// Concurrent leaves drain the room completely
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(c *ChatClient) {
			defer wg.Done()
			r.Leave(7, c)
		}(clients[i])
	}
	wg.Wait()

	assert.Equal(t, 0, r.RoomCount(7))
	assert.Equal(t, 0, r.OnlineCount())
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewChatRegistry()
	c := newTestClient(1, 3)

	r.Join(3, c)
	r.Leave(3, c)

	// Error path and final cleanup may both call Leave
	r.Leave(3, c)
	r.Leave(3, c)

	assert.Equal(t, 0, r.RoomCount(3))

	// Leaving a client that never joined is a no-op too
	r.Leave(3, newTestClient(2, 3))
	r.Leave(99, newTestClient(2, 99))
}

func TestLeaveClosesSendChannel(t *testing.T) {
	r := NewChatRegistry()
	c := newTestClient(1, 5)

	r.Join(5, c)
	r.Leave(5, c)

	_, ok := <-c.Send
	assert.False(t, ok, "send channel should be closed after leave")
}

func TestBroadcastReachesOnlyCurrentMembers(t *testing.T) {
	r := NewChatRegistry()
	a := newTestClient(1, 9)
	b := newTestClient(2, 9)
	c := newTestClient(3, 9)

	r.Join(9, a)
	r.Join(9, b)
	r.Join(9, c)
	r.Leave(9, c)

	r.Broadcast(9, map[string]string{"content": "hello"})

	for _, cl := range []*ChatClient{a, b} {
		var payload map[string]string
		require.NoError(t, json.Unmarshal(recvFrame(t, cl), &payload))
		assert.Equal(t, "hello", payload["content"])
	}

	// The departed client got nothing; its channel is closed and empty
	_, ok := <-c.Send
	assert.False(t, ok)
}

func TestBroadcastIsScopedToRoom(t *testing.T) {
	r := NewChatRegistry()
	inRoom := newTestClient(1, 1)
	elsewhere := newTestClient(2, 2)

	r.Join(1, inRoom)
	r.Join(2, elsewhere)

	r.Broadcast(1, map[string]string{"content": "scoped"})

	recvFrame(t, inRoom)
	select {
	case msg := <-elsewhere.Send:
		t.Fatalf("client in another room received frame: %s", msg)
	default:
	}
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	r := NewChatRegistry()
	stuck := &ChatClient{UserID: 1, Username: "stuck", RoomID: 4, Send: make(chan []byte, 1)}
	healthy := newTestClient(2, 4)

	r.Join(4, stuck)
	r.Join(4, healthy)

	stuck.Send <- []byte("junk") // fill the buffer

	done := make(chan struct{})
	go func() {
		r.Broadcast(4, map[string]string{"content": "x"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full send buffer")
	}

	recvFrame(t, healthy)
}

func TestEmptyRoomEntryIsEvicted(t *testing.T) {
	r := NewChatRegistry()
	c := newTestClient(1, 42)

	r.Join(42, c)
	r.Leave(42, c)

	r.mu.Lock()
	_, exists := r.rooms[42]
	r.mu.Unlock()
	assert.False(t, exists, "empty room should be removed from the map")
}

func TestShutdownClosesAllClients(t *testing.T) {
	r := NewChatRegistry()
	a := newTestClient(1, 1)
	b := newTestClient(2, 2)
	r.Join(1, a)
	r.Join(2, b)

	r.Shutdown()

	for _, cl := range []*ChatClient{a, b} {
		_, ok := <-cl.Send
		assert.False(t, ok)
	}
	assert.Equal(t, 0, r.OnlineCount())
}
