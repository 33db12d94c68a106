package repository

import (
	"context"
	"time"

	"github.com/Nischal-exe/Synapse/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// Insert appends a chat message to its room. The database assigns the id
// and the server-side timestamp that end up in the broadcast frame.
func (r *ChatRepository) Insert(ctx context.Context, roomID, userID int64, content string) (*model.ChatMessage, error) {
	m := &model.ChatMessage{RoomID: roomID, UserID: userID, Content: content}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO messages (room_id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, roomID, userID, content).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// History returns the newest messages for a room in chronological order,
// shaped like the websocket broadcast frame so clients render both the same.
func (r *ChatRepository) History(ctx context.Context, roomID int64, limit int) ([]model.ChatBroadcast, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	// Select newest N rows DESC, then reverse for chronological order
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.content, m.created_at, m.user_id, u.username
		FROM messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.room_id = $1
		ORDER BY m.created_at DESC
		LIMIT $2
	`, roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.ChatBroadcast
	for rows.Next() {
		var b model.ChatBroadcast
		var createdAt time.Time
		if err := rows.Scan(&b.ID, &b.Content, &createdAt, &b.UserID, &b.Owner.Username); err != nil {
			return nil, err
		}
		b.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		b.Owner.ID = b.UserID
		msgs = append(msgs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}

	return msgs, nil
}

// DeleteOlderThan removes messages older than the given number of days.
// Returns the number of deleted rows.
func (r *ChatRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM messages WHERE created_at < NOW() - make_interval(days => $1)
	`, days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
