package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
)

// CreateBookingIfFree 在一个事务中完成冲突检查和插入。
// 先用行锁锁住会议室，保证同一会议室的并发预定会被串行化，
// 避免两个重叠的预定同时通过检查后都插入成功。
func (r *Repository) CreateBookingIfFree(ctx context.Context, booking *domain.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 锁住会议室所在行
	var roomID int64
	query := `
		SELECT id FROM meeting_rooms WHERE id = $1 FOR UPDATE
	`
	if err := tx.QueryRowContext(ctx, query, booking.RoomID).Scan(&roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrMeetingRoomNotFound
		}
		return err
	}

	// 令牌可能对应已经不存在的用户，提前检查避免外键错误
	var userID int64
	query = `
		SELECT id FROM users WHERE id = $1
	`
	if err := tx.QueryRowContext(ctx, query, booking.UserID).Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return err
	}

	// 检查时间段是否与已有预定重叠，已驳回和已解除的预定不参与冲突判断。
	// 区间按左闭右开处理，首尾相接的预定不算冲突
	var conflict bool
	query = `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE room_id = $1
				AND status NOT IN ($2, $3)
				AND start_time < $5
				AND end_time > $4
		)
	`
	args := []any{booking.RoomID, domain.BookingStatusRejected, domain.BookingStatusReleased, booking.StartTime, booking.EndTime}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&conflict); err != nil {
		return err
	}

	if conflict {
		return domain.ErrBookingConflict
	}

	query = `
		INSERT INTO bookings (start_time, end_time, status, note, user_id, room_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	args = []any{booking.StartTime, booking.EndTime, booking.Status, booking.Note, booking.UserID, booking.RoomID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *Repository) UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	query := `
		UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2 RETURNING id
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var updatedID int64
	if err := r.dbpool.QueryRowContext(ctx, query, status, id).Scan(&updatedID); err != nil {
		return err
	}

	return nil
}

// BookingFilter 预定列表的查询条件，时间范围只作用于会议开始时间
type BookingFilter struct {
	Username  string
	RoomName  string
	Location  string
	StartTime time.Time
	EndTime   time.Time
	Page      int
	PageSize  int
}

func (r *Repository) ListBookings(filter BookingFilter) ([]*domain.Booking, int64, error) {
	query := `
		SELECT
			b.id, b.start_time, b.end_time, b.status, b.note, b.created_at, b.updated_at,
			u.id, u.username, u.nick_name, u.email,
			m.id, m.name, m.capacity, m.location, m.equipment,
			count(*) OVER() AS total
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		JOIN meeting_rooms m ON b.room_id = m.id
		WHERE ($1 = '' OR u.username LIKE '%' || $1 || '%')
			AND ($2 = '' OR m.name LIKE '%' || $2 || '%')
			AND ($3 = '' OR m.location LIKE '%' || $3 || '%')
			AND ($4::timestamptz IS NULL OR b.start_time BETWEEN $4 AND $5)
		ORDER BY b.id
		LIMIT $6 OFFSET $7
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var rangeStart, rangeEnd any
	if !filter.StartTime.IsZero() {
		rangeStart = filter.StartTime
		rangeEnd = filter.EndTime
	}

	args := []any{filter.Username, filter.RoomName, filter.Location, rangeStart, rangeEnd, filter.PageSize, (filter.Page - 1) * filter.PageSize}
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	bookings := make([]*domain.Booking, 0)
	var total int64

	for rows.Next() {
		booking := &domain.Booking{
			User: &domain.User{},
			Room: &domain.MeetingRoom{},
		}
		dst := []any{
			&booking.ID, &booking.StartTime, &booking.EndTime, &booking.Status, &booking.Note, &booking.CreatedAt, &booking.UpdatedAt,
			&booking.User.ID, &booking.User.Username, &booking.User.NickName, &booking.User.Email,
			&booking.Room.ID, &booking.Room.Name, &booking.Room.Capacity, &booking.Room.Location, &booking.Room.Equipment,
			&total,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, 0, err
		}
		booking.UserID = booking.User.ID
		booking.RoomID = booking.Room.ID
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return bookings, total, nil
}
