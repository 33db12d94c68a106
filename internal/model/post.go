package model

import "time"

type Post struct {
	ID        int64       `json:"id"`
	RoomID    int64       `json:"room_id"`
	UserID    int64       `json:"user_id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	LikeCount int64       `json:"like_count"`
	CreatedAt time.Time   `json:"created_at"`
	Owner     UserSummary `json:"owner"`
}

type PostCreateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type Comment struct {
	ID        int64       `json:"id"`
	PostID    int64       `json:"post_id"`
	UserID    int64       `json:"user_id"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Owner     UserSummary `json:"owner"`
}

type CommentCreateRequest struct {
	Content string `json:"content"`
}
