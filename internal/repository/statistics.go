package repository

import (
	"context"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
)

// UserBookingCount 统计一段时间内每个用户的预定次数
func (r *Repository) UserBookingCount(startTime time.Time, endTime time.Time) ([]*domain.UserBookingCount, error) {
	query := `
		SELECT u.id, u.username, count(1)
		FROM bookings b
		JOIN users u ON b.user_id = u.id
		WHERE b.start_time BETWEEN $1 AND $2
		GROUP BY u.id, u.username
		ORDER BY u.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, startTime, endTime)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make([]*domain.UserBookingCount, 0)
	for rows.Next() {
		count := &domain.UserBookingCount{}
		if err := rows.Scan(&count.UserID, &count.Username, &count.BookingCount); err != nil {
			return nil, err
		}
		counts = append(counts, count)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}
