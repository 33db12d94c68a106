package model

import "time"

type Room struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	// Populated on single-room reads only; zero in listings.
	MemberCount int64 `json:"member_count,omitempty"`
}

type RoomCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
