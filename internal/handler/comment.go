package handler

import (
	"log"
	"strconv"
	"strings"

	"github.com/Nischal-exe/Synapse/internal/model"
	"github.com/Nischal-exe/Synapse/internal/repository"

	"github.com/gofiber/fiber/v2"
)

type CommentHandler struct {
	commentRepo *repository.CommentRepository
}

func NewCommentHandler(commentRepo *repository.CommentRepository) *CommentHandler {
	return &CommentHandler{commentRepo: commentRepo}
}

// ListByPost returns a post's comments, oldest first.
// GET /api/v1/posts/:id/comments?limit=100
func (h *CommentHandler) ListByPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid post id"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", "100"))

	comments, err := h.commentRepo.ListByPost(c.Context(), postID, limit)
	if err != nil {
		log.Printf("[Comment] list failed for post %d: %v", postID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to list comments"})
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return c.JSON(comments)
}

// Create adds a comment to a post. POST /api/v1/posts/:id/comments
func (h *CommentHandler) Create(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid post id"})
	}

	var req model.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return c.Status(400).JSON(fiber.Map{"error": "content is required"})
	}

	userID, _ := c.Locals("user_id").(int64)
	username, _ := c.Locals("username").(string)

	comment, err := h.commentRepo.Create(c.Context(), postID, userID, req.Content)
	if err != nil {
		log.Printf("[Comment] create failed for post %d: %v", postID, err)
		return c.Status(500).JSON(fiber.Map{"error": "failed to create comment"})
	}
	comment.Owner.Username = username

	return c.Status(201).JSON(comment)
}
