package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LikeRepository struct {
	pool *pgxpool.Pool
}

func NewLikeRepository(pool *pgxpool.Pool) *LikeRepository {
	return &LikeRepository{pool: pool}
}

// Toggle likes the post for userID if not yet liked, otherwise removes the
// like. Returns the resulting liked state and the new like count.
func (r *LikeRepository) Toggle(ctx context.Context, postID, userID int64) (bool, int64, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO likes (post_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, postID, userID)
	if err != nil {
		return false, 0, err
	}

	liked := tag.RowsAffected() > 0
	if !liked {
		if _, err := r.pool.Exec(ctx, `
			DELETE FROM likes WHERE post_id = $1 AND user_id = $2
		`, postID, userID); err != nil {
			return false, 0, err
		}
	}

	count, err := r.Count(ctx, postID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (r *LikeRepository) Count(ctx context.Context, postID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM likes WHERE post_id = $1
	`, postID).Scan(&count)
	return count, err
}
