package handler

import (
	"log"
	"strconv"
	"strings"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type RoomHandler struct {
	roomRepo *repository.RoomRepository
}

func NewRoomHandler(roomRepo *repository.RoomRepository) *RoomHandler {
	return &RoomHandler{roomRepo: roomRepo}
}

// List returns rooms. GET /api/v1/rooms?limit=100&offset=0
func (h *RoomHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	rooms, err := h.roomRepo.List(c.Context(), limit, offset)
	if err != nil {
		log.Printf("[Room] list failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list rooms"})
	}
	if rooms == nil {
		rooms = []model.Room{}
	}
	return c.JSON(rooms)
}

// Get returns one room. GET /api/v1/rooms/:id
func (h *RoomHandler) Get(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	room, err := h.roomRepo.GetByID(c.Context(), roomID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "room not found"})
	}

	if count, err := h.roomRepo.MemberCount(c.Context(), roomID); err != nil {
		log.Printf("[Room] member count failed for room %d: %v", roomID, err)
	} else {
		room.MemberCount = count
	}
	return c.JSON(room)
}

// Create makes a new room; the creator becomes its first member.
// POST /api/v1/rooms
func (h *RoomHandler) Create(c *fiber.Ctx) error {
	var req model.RoomCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || len(req.Name) > 64 {
		return c.Status(400).JSON(fiber.Map{"error": "room name must be 1-64 characters"})
	}

	room, err := h.roomRepo.Create(c.Context(), req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return c.Status(409).JSON(fiber.Map{"error": "room already exists"})
		}
		log.Printf("[Room] create failed: %v", err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create room"})
	}

	userID, _ := c.Locals("user_id").(int64)
	if err := h.roomRepo.AddMember(c.Context(), room.ID, userID); err != nil {
		log.Printf("[Room] creator join failed for room %d: %v", room.ID, err)
	}

	return c.Status(201).JSON(room)
}

// Join adds the caller to a room. POST /api/v1/rooms/:id/join
func (h *RoomHandler) Join(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	if _, err := h.roomRepo.GetByID(c.Context(), roomID); err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "room not found"})
	}

	userID, _ := c.Locals("user_id").(int64)
	if err := h.roomRepo.AddMember(c.Context(), roomID, userID); err != nil {
		log.Printf("[Room] join failed for room %d: %v", roomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to join room"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// Leave removes the caller from a room. POST /api/v1/rooms/:id/leave
func (h *RoomHandler) Leave(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	userID, _ := c.Locals("user_id").(int64)
	if err := h.roomRepo.RemoveMember(c.Context(), roomID, userID); err != nil {
		log.Printf("[Room] leave failed for room %d: %v", roomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to leave room"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

func parseID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fiber.ErrBadRequest
	}
	return id, nil
}
