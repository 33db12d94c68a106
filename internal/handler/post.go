package handler

import (
	"log"
	"strconv"
	"strings"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type PostHandler struct {
	postRepo *repository.PostRepository
	likeRepo *repository.LikeRepository
}

func NewPostHandler(postRepo *repository.PostRepository, likeRepo *repository.LikeRepository) *PostHandler {
	return &PostHandler{postRepo: postRepo, likeRepo: likeRepo}
}

// ListByRoom returns a room's posts, newest first.
// GET /api/v1/rooms/:id/posts?limit=50&offset=0
func (h *PostHandler) ListByRoom(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	posts, err := h.postRepo.ListByRoom(c.Context(), roomID, limit, offset)
	if err != nil {
		log.Printf("[Post] list failed for room %d: %v", roomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list posts"})
	}
	if posts == nil {
		posts = []model.Post{}
	}
	return c.JSON(posts)
}

// Create adds a post to a room. POST /api/v1/rooms/:id/posts
func (h *PostHandler) Create(c *fiber.Ctx) error {
	roomID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid room id"})
	}

	var req model.PostCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	if req.Title == "" || req.Content == "" {
		return c.Status(400).JSON(fiber.Map{"error": "title and content are required"})
	}

	userID, _ := c.Locals("user_id").(int64)
	username, _ := c.Locals("username").(string)

	post, err := h.postRepo.Create(c.Context(), roomID, userID, req.Title, req.Content)
	if err != nil {
		log.Printf("[Post] create failed in room %d: %v", roomID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create post"})
	}
	post.Owner.Username = username

	return c.Status(201).JSON(post)
}

// Get returns one post. GET /api/v1/posts/:id
func (h *PostHandler) Get(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid post id"})
	}

	post, err := h.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "post not found"})
	}
	return c.JSON(post)
}

// Delete removes the caller's own post. DELETE /api/v1/posts/:id
func (h *PostHandler) Delete(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid post id"})
	}

	userID, _ := c.Locals("user_id").(int64)
	deleted, err := h.postRepo.Delete(c.Context(), postID, userID)
	if err != nil {
		log.Printf("[Post] delete failed for post %d: %v", postID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete post"})
	}
	if deleted == 0 {
		return c.Status(404).JSON(fiber.Map{"error": "post not found or not yours"})
	}

	return c.JSON(fiber.Map{"ok": true})
}

// ToggleLike flips the caller's like on a post. POST /api/v1/posts/:id/like
func (h *PostHandler) ToggleLike(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid post id"})
	}

	userID, _ := c.Locals("user_id").(int64)
	liked, count, err := h.likeRepo.Toggle(c.Context(), postID, userID)
	if err != nil {
		log.Printf("[Post] like toggle failed for post %d: %v", postID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to toggle like"})
	}

	return c.JSON(fiber.Map{"liked": liked, "like_count": count})
}
