package model

import "time"

// ChatMessage is a stored chat message row. Messages are append-only;
// moderation deletes happen out of band and never touch in-flight frames.
type ChatMessage struct {
	ID        int64     `json:"id"`
	RoomID    int64     `json:"room_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatBroadcast is the frame fanned out to every live connection in a room,
// and the shape returned by the REST history endpoint. Timestamps go out as
// ISO-8601 strings.
type ChatBroadcast struct {
	ID        int64       `json:"id"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
	UserID    int64       `json:"user_id"`
	Owner     UserSummary `json:"owner"`
}
