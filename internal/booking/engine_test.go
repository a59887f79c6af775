package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/meeting-room-booking/backend/internal/cache"
	"github.com/meeting-room-booking/backend/internal/domain"
)

// fakeStore 在内存中模拟存储层，冲突判断逻辑和 SQL 中的保持一致
type fakeStore struct {
	rooms        map[int64]bool
	users        map[int64]bool
	bookings     []*domain.Booking
	statuses     map[int64]domain.BookingStatus
	adminEmail   string
	adminQueries int
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:      map[int64]bool{1: true},
		users:      map[int64]bool{10: true, 11: true},
		statuses:   make(map[int64]domain.BookingStatus),
		adminEmail: "admin@example.com",
	}
}

func (s *fakeStore) CreateBookingIfFree(ctx context.Context, booking *domain.Booking) error {
	if !s.rooms[booking.RoomID] {
		return domain.ErrMeetingRoomNotFound
	}
	if !s.users[booking.UserID] {
		return domain.ErrUserNotFound
	}

	for _, existing := range s.bookings {
		if existing.RoomID != booking.RoomID {
			continue
		}
		if existing.Status == domain.BookingStatusRejected || existing.Status == domain.BookingStatusReleased {
			continue
		}
		if existing.StartTime.Before(booking.EndTime) && existing.EndTime.After(booking.StartTime) {
			return domain.ErrBookingConflict
		}
	}

	s.nextID++
	booking.ID = s.nextID
	s.bookings = append(s.bookings, booking)
	return nil
}

func (s *fakeStore) UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	s.statuses[id] = status
	return nil
}

func (s *fakeStore) GetAdminEmail(ctx context.Context) (string, error) {
	s.adminQueries++
	return s.adminEmail, nil
}

type fakeMailQueue struct {
	messages []domain.MailMessage
	fail     bool
}

func (q *fakeMailQueue) Publish(ctx context.Context, message domain.MailMessage) error {
	if q.fail {
		return errors.New("连接已断开")
	}
	q.messages = append(q.messages, message)
	return nil
}

func newTestEngine() (*Engine, *fakeStore, *fakeMailQueue) {
	store := newFakeStore()
	mailQueue := &fakeMailQueue{}
	engine := NewEngine(store, cache.NewMemoryStore(), mailQueue, 30*time.Minute)
	return engine, store, mailQueue
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 9, 1, hour, minute, 0, 0, time.UTC)
}

func TestCreateBooking(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	booking, err := engine.CreateBooking(ctx, 1, 10, at(10, 0), at(11, 0), "周会")
	if err != nil {
		t.Fatalf("创建预定失败: %v", err)
	}
	if booking.Status != domain.BookingStatusApplying {
		t.Errorf("新预定的状态应该是申请中, got %s", booking.Status)
	}
	if len(store.bookings) != 1 {
		t.Fatalf("预定数量不对: got %d, want 1", len(store.bookings))
	}
}

func TestCreateBookingConflicts(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	if _, err := engine.CreateBooking(ctx, 1, 10, at(10, 0), at(11, 0), ""); err != nil {
		t.Fatalf("创建预定失败: %v", err)
	}

	cases := []struct {
		name      string
		startTime time.Time
		endTime   time.Time
		wantErr   error
	}{
		{"部分重叠（后半段）", at(10, 30), at(11, 30), domain.ErrBookingConflict},
		{"部分重叠（前半段）", at(9, 30), at(10, 30), domain.ErrBookingConflict},
		{"完全覆盖已有预定", at(9, 0), at(12, 0), domain.ErrBookingConflict},
		{"被已有预定覆盖", at(10, 15), at(10, 45), domain.ErrBookingConflict},
		{"首尾相接不算冲突", at(11, 0), at(12, 0), nil},
		{"完全不相交", at(13, 0), at(14, 0), nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.CreateBooking(ctx, 1, 10, tc.startTime, tc.endTime, "")
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCreateBookingRejectedNotCounted(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	booking, err := engine.CreateBooking(ctx, 1, 10, at(10, 0), at(11, 0), "")
	if err != nil {
		t.Fatalf("创建预定失败: %v", err)
	}

	// 已驳回的预定不再占用时间段
	booking.Status = domain.BookingStatusRejected

	if _, err := engine.CreateBooking(ctx, 1, 11, at(10, 0), at(11, 0), ""); err != nil {
		t.Errorf("已驳回预定占用的时间段应该可以重新预定, got %v", err)
	}
}

func TestCreateBookingRoomNotFound(t *testing.T) {
	engine, _, _ := newTestEngine()

	_, err := engine.CreateBooking(context.Background(), 99, 10, at(10, 0), at(11, 0), "")
	if !errors.Is(err, domain.ErrMeetingRoomNotFound) {
		t.Errorf("got %v, want ErrMeetingRoomNotFound", err)
	}
}

func TestCreateBookingUserNotFound(t *testing.T) {
	engine, _, _ := newTestEngine()

	// 令牌有效但用户已被删除时，预定会被拒绝而不是触发外键错误
	_, err := engine.CreateBooking(context.Background(), 1, 99, at(10, 0), at(11, 0), "")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("got %v, want ErrUserNotFound", err)
	}
}

func TestCreateBookingInvalidTimeRange(t *testing.T) {
	engine, _, _ := newTestEngine()
	ctx := context.Background()

	if _, err := engine.CreateBooking(ctx, 1, 10, at(11, 0), at(10, 0), ""); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("开始时间晚于结束时间应该返回 ErrInvalidTimeRange, got %v", err)
	}
	if _, err := engine.CreateBooking(ctx, 1, 10, at(10, 0), at(10, 0), ""); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("开始时间等于结束时间应该返回 ErrInvalidTimeRange, got %v", err)
	}
}

func TestSetStatus(t *testing.T) {
	engine, store, _ := newTestEngine()
	ctx := context.Background()

	if err := engine.SetStatus(ctx, 5, domain.BookingStatusApproved); err != nil {
		t.Fatalf("更新状态失败: %v", err)
	}
	if store.statuses[5] != domain.BookingStatusApproved {
		t.Errorf("状态没有更新: got %s", store.statuses[5])
	}

	if err := engine.SetStatus(ctx, 5, domain.BookingStatus("无效状态")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("无效状态应该返回 ErrInvalidStatus, got %v", err)
	}
}

func TestUrgeCooldown(t *testing.T) {
	engine, _, mailQueue := newTestEngine()
	ctx := context.Background()

	if err := engine.Urge(ctx, 5); err != nil {
		t.Fatalf("第一次催促失败: %v", err)
	}
	if len(mailQueue.messages) != 1 {
		t.Fatalf("应该投递一封催促邮件, got %d", len(mailQueue.messages))
	}
	if mailQueue.messages[0].To != "admin@example.com" {
		t.Errorf("催促邮件应该发给管理员, got %s", mailQueue.messages[0].To)
	}

	// 冷却期内再次催促只会得到提示，不会再投递邮件
	if err := engine.Urge(ctx, 5); !errors.Is(err, ErrUrgeTooFrequent) {
		t.Errorf("冷却期内催促应该返回 ErrUrgeTooFrequent, got %v", err)
	}
	if len(mailQueue.messages) != 1 {
		t.Errorf("冷却期内不应该再投递邮件, got %d", len(mailQueue.messages))
	}
}

func TestUrgeAdminEmailCached(t *testing.T) {
	engine, store, mailQueue := newTestEngine()
	ctx := context.Background()

	// 两条不同的预定各催促一次，管理员邮箱只应该查询一次数据库
	if err := engine.Urge(ctx, 5); err != nil {
		t.Fatalf("催促失败: %v", err)
	}
	if err := engine.Urge(ctx, 6); err != nil {
		t.Fatalf("催促失败: %v", err)
	}

	if store.adminQueries != 1 {
		t.Errorf("管理员邮箱应该只查询一次, got %d", store.adminQueries)
	}
	if len(mailQueue.messages) != 2 {
		t.Errorf("应该投递两封催促邮件, got %d", len(mailQueue.messages))
	}
}

func TestUrgePublishFailureLeavesNoCooldown(t *testing.T) {
	engine, _, mailQueue := newTestEngine()
	ctx := context.Background()

	mailQueue.fail = true
	if err := engine.Urge(ctx, 5); err == nil {
		t.Fatal("邮件投递失败时催促应该返回错误")
	}

	// 投递失败不应该写入冷却标记，恢复后可以立即重试
	mailQueue.fail = false
	if err := engine.Urge(ctx, 5); err != nil {
		t.Errorf("投递恢复后催促应该成功, got %v", err)
	}
	if len(mailQueue.messages) != 1 {
		t.Errorf("应该投递一封催促邮件, got %d", len(mailQueue.messages))
	}
}
