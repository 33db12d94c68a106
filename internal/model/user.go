package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserSummary is the compact author shape embedded in posts, comments and
// chat broadcast frames.
type UserSummary struct {
	Username string `json:"username"`
	ID       int64  `json:"id"`
}
