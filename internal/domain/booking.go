package domain

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusApplying BookingStatus = "申请中"
	BookingStatusApproved BookingStatus = "审批通过"
	BookingStatusRejected BookingStatus = "审批驳回"
	BookingStatusReleased BookingStatus = "已解除"
)

// ValidBookingStatuses 会议室预定允许的所有状态
var ValidBookingStatuses = []BookingStatus{
	BookingStatusApplying,
	BookingStatusApproved,
	BookingStatusRejected,
	BookingStatusReleased,
}

type Booking struct {
	ID        int64         `json:"id"`
	StartTime time.Time     `json:"startTime"`
	EndTime   time.Time     `json:"endTime"`
	Status    BookingStatus `json:"status"`
	Note      string        `json:"note"`
	UserID    int64         `json:"userId"`
	RoomID    int64         `json:"roomId"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`

	// 列表查询时会带出关联的用户和会议室
	User *User        `json:"user,omitempty"`
	Room *MeetingRoom `json:"room,omitempty"`
}
