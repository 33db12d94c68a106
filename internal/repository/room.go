package repository

import (
	"context"
	"fmt"

	"github.com/Nischal-exe/Synapse/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RoomRepository struct {
	pool *pgxpool.Pool
}

func NewRoomRepository(pool *pgxpool.Pool) *RoomRepository {
	return &RoomRepository{pool: pool}
}

func (r *RoomRepository) List(ctx context.Context, limit, offset int) ([]model.Room, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM rooms
		ORDER BY name
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rooms []model.Room
	for rows.Next() {
		var room model.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Description, &room.CreatedAt); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*model.Room, error) {
	room := &model.Room{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at FROM rooms WHERE id = $1
	`, id).Scan(&room.ID, &room.Name, &room.Description, &room.CreatedAt)
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (r *RoomRepository) Create(ctx context.Context, name, description string) (*model.Room, error) {
	room := &model.Room{}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (name, description)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
		RETURNING id, name, description, created_at
	`, name, description).Scan(&room.ID, &room.Name, &room.Description, &room.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("duplicate key")
		}
		return nil, err
	}
	return room, nil
}

func (r *RoomRepository) AddMember(ctx context.Context, roomID, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO room_members (room_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, roomID, userID)
	return err
}

func (r *RoomRepository) RemoveMember(ctx context.Context, roomID, userID int64) error {
	_, err := r.pool.Exec(ctx, `
		DELETE FROM room_members WHERE room_id = $1 AND user_id = $2
	`, roomID, userID)
	return err
}

// IsMember answers the membership question the chat session handler asks
// before letting a connection into a room.
func (r *RoomRepository) IsMember(ctx context.Context, userID, roomID int64) (bool, error) {
	var member bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM room_members WHERE room_id = $1 AND user_id = $2
		)
	`, roomID, userID).Scan(&member)
	return member, err
}

func (r *RoomRepository) MemberCount(ctx context.Context, roomID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM room_members WHERE room_id = $1
	`, roomID).Scan(&count)
	return count, err
}
