package handler

import (
	"log"
	"strconv"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type ChatHandler struct {
	chatRepo *repository.ChatRepository
	roomRepo *repository.RoomRepository
}

func NewChatHandler(chatRepo *repository.ChatRepository, roomRepo *repository.RoomRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, roomRepo: roomRepo}
}

// GetHistory returns recent chat messages for a room, oldest first.
// GET /api/v1/rooms/:id/messages?limit=50
func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	roomID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || roomID <= 0 {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	userID, _ := c.Locals("user_id").(int64)
	member, err := h.roomRepo.IsMember(c.Context(), userID, roomID)
	if err != nil {
		log.Printf("[Chat] membership check failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to get history"})
	}
	if !member {
		return c.Status(403).JSON(fiber.Map{"error": "not a member of this room"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))

	msgs, err := h.chatRepo.History(c.Context(), roomID, limit)
	if err != nil {
		log.Printf("[Chat] history query failed for room %d: %v", roomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to get history"})
	}

	if msgs == nil {
		msgs = []model.ChatBroadcast{}
	}

	return c.JSON(msgs)
}
