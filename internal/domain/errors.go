package domain

import "errors"

var (
	ErrUserNotFound        = errors.New("用户不存在")
	ErrMeetingRoomNotFound = errors.New("会议室不存在")
	ErrBookingConflict     = errors.New("该时间段已被预约")
)
