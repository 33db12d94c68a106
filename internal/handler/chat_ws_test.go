package handler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	tokens map[string]model.UserSummary
}

func (v *fakeVerifier) ValidateAccessToken(token string) (int64, string, error) {
	u, ok := v.tokens[token]
	if !ok {
		return 0, "", errors.New("invalid token")
	}
	return u.ID, u.Username, nil
}

type fakeMembers struct {
	members map[[2]int64]bool // (userID, roomID)
	err     error
}

func (m *fakeMembers) IsMember(_ context.Context, userID, roomID int64) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.members[[2]int64{userID, roomID}], nil
}

type insertedMessage struct {
	RoomID  int64
	UserID  int64
	Content string
}

type fakeAppender struct {
	mu       sync.Mutex
	nextID   int64
	inserted []insertedMessage
	err      error
}

func (a *fakeAppender) Insert(_ context.Context, roomID, userID int64, content string) (*model.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return nil, a.err
	}
	a.nextID++
	a.inserted = append(a.inserted, insertedMessage{RoomID: roomID, UserID: userID, Content: content})
	return &model.ChatMessage{
		ID:        a.nextID,
		RoomID:    roomID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

func (a *fakeAppender) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.inserted)
}

func newTestHandler(window time.Duration, store *fakeAppender) (*ChatWSHandler, *service.ChatRegistry) {
	registry := service.NewChatRegistry()
	verifier := &fakeVerifier{tokens: map[string]model.UserSummary{
		"alice-token": {ID: 1, Username: "alice"},
		"bob-token":   {ID: 2, Username: "bob"},
	}}
	members := &fakeMembers{members: map[[2]int64]bool{
		{1, 7}: true, // alice is in room 7, bob is not
	}}
	h := NewChatWSHandler(registry, service.NewMemoryCooldownStore(), verifier, members, store, window)
	return h, registry
}

func joinClient(registry *service.ChatRegistry, userID int64, username string, roomID int64) *service.ChatClient {
	client := &service.ChatClient{
		UserID:   userID,
		Username: username,
		RoomID:   roomID,
		Send:     make(chan []byte, 8),
	}
	registry.Join(roomID, client)
	return client
}

func recvBroadcast(t *testing.T, client *service.ChatClient) model.ChatBroadcast {
	t.Helper()
	select {
	case raw, ok := <-client.Send:
		require.True(t, ok, "send channel closed unexpectedly")
		var b model.ChatBroadcast
		require.NoError(t, json.Unmarshal(raw, &b))
		return b
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
		return model.ChatBroadcast{}
	}
}

func assertNoBroadcast(t *testing.T, client *service.ChatClient) {
	t.Helper()
	select {
	case raw := <-client.Send:
		t.Fatalf("unexpected broadcast: %s", raw)
	default:
	}
}

func TestExtractContent(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"plain text", "hello", "hello"},
		{"structured", `{"content":"hi there"}`, "hi there"},
		{"structured with extras", `{"content":"hi","type":"chat"}`, "hi"},
		{"other json shape", `{"body":"nope"}`, `{"body":"nope"}`},
		{"json string literal", `"quoted"`, `"quoted"`},
		{"json array", `[1,2,3]`, `[1,2,3]`},
		{"empty content field", `{"content":""}`, ""},
		{"null content field", `{"content":null}`, `{"content":null}`},
		{"empty frame", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractContent([]byte(tt.frame)))
		})
	}
}

func TestAuthorize(t *testing.T) {
	h, _ := newTestHandler(time.Second, &fakeAppender{})

	t.Run("valid member", func(t *testing.T) {
		userID, username, reason := h.authorize("alice-token", 7)
		assert.Empty(t, reason)
		assert.Equal(t, int64(1), userID)
		assert.Equal(t, "alice", username)
	})

	t.Run("bad token", func(t *testing.T) {
		_, _, reason := h.authorize("forged", 7)
		assert.Equal(t, "invalid or missing token", reason)
	})

	t.Run("missing token", func(t *testing.T) {
		_, _, reason := h.authorize("", 7)
		assert.Equal(t, "invalid or missing token", reason)
	})

	t.Run("not a member", func(t *testing.T) {
		_, _, reason := h.authorize("bob-token", 7)
		assert.Equal(t, "not a member", reason)
	})

	t.Run("membership lookup error", func(t *testing.T) {
		store := &fakeAppender{}
		h2, _ := newTestHandler(time.Second, store)
		h2.members = &fakeMembers{err: errors.New("db down")}
		_, _, reason := h2.authorize("alice-token", 7)
		assert.Equal(t, "membership check failed", reason)
	})
}

func TestMessageCycleBroadcastsToRoom(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(time.Second, store)

	alice := joinClient(registry, 1, "alice", 7)
	carol := joinClient(registry, 3, "carol", 7)

	h.handleFrame(alice, []byte("hello"))

	for _, client := range []*service.ChatClient{alice, carol} {
		b := recvBroadcast(t, client)
		assert.Equal(t, "hello", b.Content)
		assert.Equal(t, int64(1), b.UserID)
		assert.Equal(t, int64(1), b.Owner.ID)
		assert.Equal(t, "alice", b.Owner.Username)
		assert.Equal(t, int64(1), b.ID)

		created, err := time.Parse(time.RFC3339, b.CreatedAt)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), created, time.Minute)
	}

	require.Equal(t, 1, store.count())
	assert.Equal(t, insertedMessage{RoomID: 7, UserID: 1, Content: "hello"}, store.inserted[0])
}

func TestStructuredFrameIsUnwrapped(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(time.Second, store)
	alice := joinClient(registry, 1, "alice", 7)

	h.handleFrame(alice, []byte(`{"content":"  spaced out  "}`))

	b := recvBroadcast(t, alice)
	assert.Equal(t, "spaced out", b.Content)
}

func TestEmptyFramesAreIgnored(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(time.Second, store)
	alice := joinClient(registry, 1, "alice", 7)

	for _, frame := range []string{"", "   ", "\n\t", `{"content":""}`, `{"content":"   "}`} {
		h.handleFrame(alice, []byte(frame))
	}

	assert.Equal(t, 0, store.count(), "empty frames must not be persisted")
	assertNoBroadcast(t, alice)
}

func TestRateLimitedFrameIsDropped(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(150*time.Millisecond, store)
	alice := joinClient(registry, 1, "alice", 7)

	h.handleFrame(alice, []byte("first"))
	h.handleFrame(alice, []byte("second")) // inside the cooldown window

	b := recvBroadcast(t, alice)
	assert.Equal(t, "first", b.Content)
	assertNoBroadcast(t, alice)
	assert.Equal(t, 1, store.count(), "rate-limited frame must not be persisted")

	// After the window the next message goes through
	time.Sleep(200 * time.Millisecond)
	h.handleFrame(alice, []byte("third"))

	b = recvBroadcast(t, alice)
	assert.Equal(t, "third", b.Content)
	assert.Equal(t, 2, store.count())
}

func TestCooldownIsPerUser(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(time.Second, store)
	alice := joinClient(registry, 1, "alice", 7)
	carol := joinClient(registry, 3, "carol", 7)

	h.handleFrame(alice, []byte("from alice"))
	h.handleFrame(carol, []byte("from carol"))

	assert.Equal(t, 2, store.count(), "different users share no cooldown")
	assert.Equal(t, "from alice", recvBroadcast(t, alice).Content)
	assert.Equal(t, "from carol", recvBroadcast(t, alice).Content)
}

func TestPersistFailureKeepsSessionAlive(t *testing.T) {
	store := &fakeAppender{err: errors.New("db down")}
	h, registry := newTestHandler(10*time.Millisecond, store)
	alice := joinClient(registry, 1, "alice", 7)

	h.handleFrame(alice, []byte("lost"))
	assertNoBroadcast(t, alice)

	// Store recovers; the session keeps working
	store.mu.Lock()
	store.err = nil
	store.mu.Unlock()
	time.Sleep(30 * time.Millisecond)

	h.handleFrame(alice, []byte("back"))
	assert.Equal(t, "back", recvBroadcast(t, alice).Content)
}

func TestBroadcastAfterLeaveNeverReachesClient(t *testing.T) {
	store := &fakeAppender{}
	h, registry := newTestHandler(time.Second, store)
	alice := joinClient(registry, 1, "alice", 7)
	gone := joinClient(registry, 4, "dave", 7)

	registry.Leave(7, gone)
	h.handleFrame(alice, []byte("hello?"))

	recvBroadcast(t, alice)
	_, ok := <-gone.Send
	assert.False(t, ok, "departed client must not receive anything")
}
