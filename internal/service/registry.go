package service

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// ChatClient is one live websocket connection, bound to exactly one room.
// The registry owns the client for its registered lifetime: Leave closes
// the Send channel and nothing may touch it afterwards.
type ChatClient struct {
	Conn     *websocket.Conn
	UserID   int64
	Username string
	RoomID   int64
	Send     chan []byte
}

// ChatRegistry is the single source of truth for which connections are
// currently listening to which room. One mutex over the whole map is fine
// at the room/connection counts this serves.
type ChatRegistry struct {
	mu    sync.Mutex
	rooms map[int64]map[*ChatClient]bool
}

func NewChatRegistry() *ChatRegistry {
	return &ChatRegistry{
		rooms: make(map[int64]map[*ChatClient]bool),
	}
}

func (r *ChatRegistry) Join(roomID int64, client *ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[roomID]
	if !ok {
		clients = make(map[*ChatClient]bool)
		r.rooms[roomID] = clients
	}
	clients[client] = true
	log.Printf("[WS] %s joined room %d (live: %d)", client.Username, roomID, len(clients))
}

// Leave removes the client from its room and closes its send channel.
// Calling it again for the same client is a no-op, so error paths and
// final cleanup may both call it. Empty rooms are evicted from the map.
func (r *ChatRegistry) Leave(roomID int64, client *ChatClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	clients, ok := r.rooms[roomID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(r.rooms, roomID)
	}
	log.Printf("[WS] %s left room %d (live: %d)", client.Username, roomID, len(clients))
}

// Broadcast fans payload out to every live connection in the room. A full
// send buffer means a dead or hopelessly slow consumer; the frame is
// dropped for that one client and delivery to the rest continues.
func (r *ChatRegistry) Broadcast(roomID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[WS] broadcast marshal failed for room %d: %v", roomID, err)
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.rooms[roomID] {
		select {
		case client.Send <- data:
		default:
			log.Printf("[WS] dropped frame for %s in room %d (send buffer full)", client.Username, roomID)
		}
	}
}

// RoomCount reports how many connections are live in a room.
func (r *ChatRegistry) RoomCount(roomID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[roomID])
}

// OnlineCount reports live connections across all rooms.
func (r *ChatRegistry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, clients := range r.rooms {
		total += len(clients)
	}
	return total
}

// Shutdown closes every registered client's send channel, which stops
// their writer goroutines. Used on server shutdown only.
func (r *ChatRegistry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for roomID, clients := range r.rooms {
		for client := range clients {
			close(client.Send)
		}
		delete(r.rooms, roomID)
	}
}
