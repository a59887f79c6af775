// Package booking 实现会议室预定的核心规则：
// 同一会议室在任何时刻不允许存在两个时间段重叠的有效预定，
// 以及带冷却时间的催促审批通知。
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/meeting-room-booking/backend/internal/cache"
	"github.com/meeting-room-booking/backend/internal/domain"
)

var (
	ErrInvalidTimeRange = errors.New("会议开始时间必须早于结束时间")
	ErrInvalidStatus    = errors.New("无效的预定状态")
	ErrUrgeTooFrequent  = errors.New("半小时内只能催促一次，请耐心等待")
)

// Store 是引擎依赖的持久化操作
type Store interface {
	CreateBookingIfFree(ctx context.Context, booking *domain.Booking) error
	UpdateBookingStatus(ctx context.Context, id int64, status domain.BookingStatus) error
	GetAdminEmail(ctx context.Context) (string, error)
}

// MailQueue 是引擎依赖的邮件投递操作
type MailQueue interface {
	Publish(ctx context.Context, message domain.MailMessage) error
}

type Engine struct {
	store        Store
	cache        cache.Store
	mail         MailQueue
	urgeCooldown time.Duration
}

func NewEngine(store Store, cacheStore cache.Store, mail MailQueue, urgeCooldown time.Duration) *Engine {
	return &Engine{
		store:        store,
		cache:        cacheStore,
		mail:         mail,
		urgeCooldown: urgeCooldown,
	}
}

// CreateBooking 创建一条状态为申请中的预定。
// 冲突检查和插入在存储层的同一个事务中完成，
// 这里只负责校验时间范围并组装预定记录。
func (e *Engine) CreateBooking(ctx context.Context, roomID int64, userID int64, startTime time.Time, endTime time.Time, note string) (*domain.Booking, error) {
	if !startTime.Before(endTime) {
		return nil, ErrInvalidTimeRange
	}

	booking := &domain.Booking{
		StartTime: startTime,
		EndTime:   endTime,
		Status:    domain.BookingStatusApplying,
		Note:      note,
		UserID:    userID,
		RoomID:    roomID,
	}

	if err := e.store.CreateBookingIfFree(ctx, booking); err != nil {
		return nil, err
	}

	return booking, nil
}

// SetStatus 更新预定状态，审批通过、审批驳回和解除预定都走这里
func (e *Engine) SetStatus(ctx context.Context, id int64, status domain.BookingStatus) error {
	if !slices.Contains(domain.ValidBookingStatuses, status) {
		return ErrInvalidStatus
	}

	return e.store.UpdateBookingStatus(ctx, id, status)
}

// Urge 给管理员发一封催促审批的邮件。
// 每条预定 30 分钟内只允许催促一次；管理员邮箱第一次从数据库查出后会一直缓存。
// 冷却标记在邮件投递成功后才写入，投递失败时下次仍可催促。
func (e *Engine) Urge(ctx context.Context, bookingID int64) error {
	_, found, err := e.cache.Get(ctx, cache.UrgeKey(bookingID))
	if err != nil {
		return err
	}
	if found {
		return ErrUrgeTooFrequent
	}

	email, found, err := e.cache.Get(ctx, cache.AdminEmailKey)
	if err != nil {
		return err
	}
	if !found {
		email, err = e.store.GetAdminEmail(ctx)
		if err != nil {
			return err
		}
		if err := e.cache.Set(ctx, cache.AdminEmailKey, email, 0); err != nil {
			return err
		}
	}

	message := domain.MailMessage{
		Type: "urge_booking",
		To:   email,
		Data: domain.UrgeMailData{
			BookingID: bookingID,
		},
	}
	if err := e.mail.Publish(ctx, message); err != nil {
		return fmt.Errorf("投递催促邮件失败: %w", err)
	}

	if err := e.cache.Set(ctx, cache.UrgeKey(bookingID), "1", e.urgeCooldown); err != nil {
		// 邮件已经发出去了，冷却标记写失败只会导致可以提前再催促一次
		slog.Error("无法写入催促冷却标记", "bookingID", bookingID, "error", err)
	}

	return nil
}
