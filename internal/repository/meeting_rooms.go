package repository

import (
	"context"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
)

func (r *Repository) CreateMeetingRoom(room *domain.MeetingRoom) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO meeting_rooms (name, capacity, location, equipment, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_booked, created_at, updated_at
	`

	args := []any{room.Name, room.Capacity, room.Location, room.Equipment, room.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&room.ID, &room.IsBooked, &room.CreatedAt, &room.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetMeetingRoomByID(id int64) (*domain.MeetingRoom, error) {
	query := `
		SELECT name, capacity, location, equipment, description, is_booked, created_at, updated_at
		FROM meeting_rooms WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	room := &domain.MeetingRoom{
		ID: id,
	}

	dst := []any{&room.Name, &room.Capacity, &room.Location, &room.Equipment, &room.Description, &room.IsBooked, &room.CreatedAt, &room.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return room, nil
}

func (r *Repository) CheckMeetingRoomNameIfExists(name string) (bool, error) {
	isExists := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM meeting_rooms WHERE name = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, name).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

func (r *Repository) UpdateMeetingRoom(room *domain.MeetingRoom) error {
	query := `
		UPDATE meeting_rooms
		SET
			name = $1,
			capacity = $2,
			location = $3,
			equipment = $4,
			description = $5,
			updated_at = now()
		WHERE id = $6
		RETURNING is_booked, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{room.Name, room.Capacity, room.Location, room.Equipment, room.Description, room.ID}
	dst := []any{&room.IsBooked, &room.CreatedAt, &room.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteMeetingRoom(id int64) error {
	query := `
		DELETE FROM meeting_rooms WHERE id = $1 RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var deletedID int64
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&deletedID); err != nil {
		return err
	}

	return nil
}

// ListMeetingRooms 按名称和位置模糊匹配并分页
func (r *Repository) ListMeetingRooms(name string, location string, page int, pageSize int) ([]*domain.MeetingRoom, int64, error) {
	query := `
		SELECT
			id, name, capacity, location, equipment, description, is_booked, created_at, updated_at,
			count(*) OVER() AS total
		FROM meeting_rooms
		WHERE ($1 = '' OR name LIKE '%' || $1 || '%')
			AND ($2 = '' OR location LIKE '%' || $2 || '%')
		ORDER BY id
		LIMIT $3 OFFSET $4
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, name, location, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	rooms := make([]*domain.MeetingRoom, 0)
	var total int64

	for rows.Next() {
		room := &domain.MeetingRoom{}
		dst := []any{&room.ID, &room.Name, &room.Capacity, &room.Location, &room.Equipment, &room.Description, &room.IsBooked, &room.CreatedAt, &room.UpdatedAt, &total}
		if err := rows.Scan(dst...); err != nil {
			return nil, 0, err
		}
		rooms = append(rooms, room)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return rooms, total, nil
}
