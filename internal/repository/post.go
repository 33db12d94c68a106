package repository

import (
	"context"

	"github.com/Nischal-exe/Synapse/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PostRepository struct {
	pool *pgxpool.Pool
}

func NewPostRepository(pool *pgxpool.Pool) *PostRepository {
	return &PostRepository{pool: pool}
}

func (r *PostRepository) ListByRoom(ctx context.Context, roomID int64, limit, offset int) ([]model.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.room_id, p.user_id, p.title, p.content, p.created_at,
		       u.username,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.room_id = $1
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`, roomID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.RoomID, &p.UserID, &p.Title, &p.Content, &p.CreatedAt,
			&p.Owner.Username, &p.LikeCount); err != nil {
			return nil, err
		}
		p.Owner.ID = p.UserID
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*model.Post, error) {
	p := &model.Post{}
	err := r.pool.QueryRow(ctx, `
		SELECT p.id, p.room_id, p.user_id, p.title, p.content, p.created_at,
		       u.username,
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count
		FROM posts p
		JOIN users u ON u.id = p.user_id
		WHERE p.id = $1
	`, id).Scan(&p.ID, &p.RoomID, &p.UserID, &p.Title, &p.Content, &p.CreatedAt,
		&p.Owner.Username, &p.LikeCount)
	if err != nil {
		return nil, err
	}
	p.Owner.ID = p.UserID
	return p, nil
}

func (r *PostRepository) Create(ctx context.Context, roomID, userID int64, title, content string) (*model.Post, error) {
	p := &model.Post{RoomID: roomID, UserID: userID, Title: title, Content: content}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO posts (room_id, user_id, title, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, roomID, userID, title, content).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Owner.ID = userID
	return p, nil
}

// Delete removes a post if it belongs to userID. Returns the number of
// rows removed so the handler can distinguish "not yours" from "gone".
func (r *PostRepository) Delete(ctx context.Context, id, userID int64) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM posts WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
