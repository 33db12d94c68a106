package handler

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Collaborators the chat session loop depends on. Narrow interfaces keep
// the loop testable without a database or a signing key.
type TokenVerifier interface {
	ValidateAccessToken(token string) (int64, string, error)
}

type MembershipChecker interface {
	IsMember(ctx context.Context, userID, roomID int64) (bool, error)
}

type MessageAppender interface {
	Insert(ctx context.Context, roomID, userID int64, content string) (*model.ChatMessage, error)
}

type ChatWSHandler struct {
	registry *service.ChatRegistry
	cooldown service.CooldownStore
	verifier TokenVerifier
	members  MembershipChecker
	store    MessageAppender
	window   time.Duration
}

func NewChatWSHandler(registry *service.ChatRegistry, cooldown service.CooldownStore,
	verifier TokenVerifier, members MembershipChecker, store MessageAppender,
	window time.Duration) *ChatWSHandler {
	return &ChatWSHandler{
		registry: registry,
		cooldown: cooldown,
		verifier: verifier,
		members:  members,
		store:    store,
		window:   window,
	}
}

// Upgrade handles GET /rooms/:id/ws?token=...
// The token rides in the query string because browsers cannot attach
// headers to a websocket handshake. Auth runs after the upgrade so the
// client sees a proper close code instead of a failed handshake.
func (h *ChatWSHandler) Upgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	roomID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || roomID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	c.Locals("room_id", roomID)
	c.Locals("token", c.Query("token"))
	return websocket.New(h.handleConnection)(c)
}

func (h *ChatWSHandler) handleConnection(c *websocket.Conn) {
	roomID, _ := c.Locals("room_id").(int64)
	token, _ := c.Locals("token").(string)

	userID, username, reason := h.authorize(token, roomID)
	if reason != "" {
		closePolicy(c, reason)
		return
	}

	client := &service.ChatClient{
		Conn:     c,
		UserID:   userID,
		Username: username,
		RoomID:   roomID,
		Send:     make(chan []byte, 64),
	}

	h.registry.Join(roomID, client)
	defer h.registry.Leave(roomID, client)

	// Writer goroutine: drains the send channel so broadcast fan-out is
	// never blocked by this connection's socket. Exits when Leave closes
	// the channel or the first write fails.
	go func() {
		defer c.Close()
		for msg := range client.Send {
			if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
				break
			}
		}
	}()

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[Chat] read error for %s in room %d: %v", username, roomID, err)
			}
			return
		}
		h.handleFrame(client, raw)
	}
}

// authorize resolves the bearer token and checks room membership. A
// non-empty reason means the connection must be closed with a policy
// violation before any frame is processed.
func (h *ChatWSHandler) authorize(token string, roomID int64) (int64, string, string) {
	userID, username, err := h.verifier.ValidateAccessToken(token)
	if err != nil {
		return 0, "", "invalid or missing token"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	member, err := h.members.IsMember(ctx, userID, roomID)
	if err != nil {
		log.Printf("[Chat] membership check failed for user %d room %d: %v", userID, roomID, err)
		return 0, "", "membership check failed"
	}
	if !member {
		return 0, "", "not a member"
	}

	return userID, username, ""
}

// handleFrame runs one message cycle: decode, trim, rate limit, persist,
// broadcast. Empty frames and rate-limited frames are dropped without a
// reply; a persistence failure drops the frame but keeps the loop alive.
func (h *ChatWSHandler) handleFrame(client *service.ChatClient, raw []byte) {
	content := strings.TrimSpace(extractContent(raw))
	if content == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	allowed, remaining, err := h.cooldown.CheckAndMark(ctx, client.UserID, client.RoomID, h.window)
	if err != nil {
		// Cooldown store unreachable: let the message through rather
		// than silently muting the whole room.
		log.Printf("[Chat] cooldown check failed for user %d: %v", client.UserID, err)
		allowed = true
	}
	if !allowed {
		log.Printf("[Chat] rate limited user %d in room %d (%ds left)",
			client.UserID, client.RoomID, int(remaining.Round(time.Second).Seconds()))
		return
	}

	msg, err := h.store.Insert(ctx, client.RoomID, client.UserID, content)
	if err != nil {
		log.Printf("[Chat] persist failed for room %d: %v", client.RoomID, err)
		return
	}

	h.registry.Broadcast(client.RoomID, buildBroadcast(msg, client.Username))
}

// extractContent decodes an inbound frame. Frames are either a JSON object
// carrying a "content" field or plain text; anything else degrades to
// treating the whole frame as raw content. A present "content" field always
// wins, even when its value is empty, so the caller's trim-and-skip sees ""
// rather than the frame's raw bytes.
func extractContent(raw []byte) string {
	var frame struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(raw, &frame); err == nil && frame.Content != nil {
		return *frame.Content
	}
	return string(raw)
}

func buildBroadcast(msg *model.ChatMessage, username string) model.ChatBroadcast {
	return model.ChatBroadcast{
		ID:        msg.ID,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt.UTC().Format(time.RFC3339),
		UserID:    msg.UserID,
		Owner:     model.UserSummary{Username: username, ID: msg.UserID},
	}
}

func closePolicy(c *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = c.Close()
}
