package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meeting-room-booking/backend/internal/booking"
	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/repository"
)

func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.parsePageParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	filter := repository.BookingFilter{
		Username: r.URL.Query().Get("username"),
		RoomName: r.URL.Query().Get("meetingRoomName"),
		Location: r.URL.Query().Get("meetingRoomPosition"),
		Page:     page,
		PageSize: pageSize,
	}

	if startParam := r.URL.Query().Get("bookingTimeRangeStart"); startParam != "" {
		startTime, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			h.errorResponse(w, r, "预定时间范围的开始时间格式错误")
			return
		}
		filter.StartTime = startTime

		// 只传开始时间时，默认查询之后一个小时内的预定
		filter.EndTime = startTime.Add(time.Hour)
		if endParam := r.URL.Query().Get("bookingTimeRangeEnd"); endParam != "" {
			endTime, err := time.Parse(time.RFC3339, endParam)
			if err != nil {
				h.errorResponse(w, r, "预定时间范围的结束时间格式错误")
				return
			}
			filter.EndTime = endTime
		}
	}

	bookings, total, err := h.repository.ListBookings(filter)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取预定列表成功", map[string]any{
		"list":  bookings,
		"total": total,
	})
}

func (h *Handler) AddBooking(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)

	var req struct {
		MeetingRoomID int64  `json:"meetingRoomId" validate:"required"`
		StartTime     string `json:"startTime" validate:"required"`
		EndTime       string `json:"endTime" validate:"required"`
		Note          string `json:"note"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		h.errorResponse(w, r, "会议开始时间格式错误")
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		h.errorResponse(w, r, "会议结束时间格式错误")
		return
	}

	newBooking, err := h.engine.CreateBooking(r.Context(), req.MeetingRoomID, identity.UserID, startTime, endTime, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidTimeRange),
			errors.Is(err, domain.ErrUserNotFound),
			errors.Is(err, domain.ErrMeetingRoomNotFound),
			errors.Is(err, domain.ErrBookingConflict):
			h.errorResponse(w, r, err.Error())
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "预定申请提交成功", newBooking)
}

// ApplyBooking 更新预定状态，审批通过、审批驳回和解除预定都通过 status 参数区分
func (h *Handler) ApplyBooking(w http.ResponseWriter, r *http.Request) {
	idParam := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "预定 ID 无效")
		return
	}

	status := domain.BookingStatus(r.URL.Query().Get("status"))

	if err := h.engine.SetStatus(r.Context(), id, status); err != nil {
		switch {
		case errors.Is(err, booking.ErrInvalidStatus):
			h.errorResponse(w, r, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "预定不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "操作成功", nil)
}

func (h *Handler) UrgeBooking(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "预定 ID 无效")
		return
	}

	if err := h.engine.Urge(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, booking.ErrUrgeTooFrequent):
			h.errorResponse(w, r, err.Error())
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "管理员不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "已通知管理员尽快审批", nil)
}
