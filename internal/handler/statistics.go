package handler

import (
	"net/http"
	"time"
)

// UserBookingCount 统计一段时间内每个用户的预定次数
func (h *Handler) UserBookingCount(w http.ResponseWriter, r *http.Request) {
	startParam := r.URL.Query().Get("startTime")
	endParam := r.URL.Query().Get("endTime")

	startTime, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		h.errorResponse(w, r, "统计开始时间格式错误")
		return
	}
	endTime, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		h.errorResponse(w, r, "统计结束时间格式错误")
		return
	}

	counts, err := h.repository.UserBookingCount(startTime, endTime)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取预定统计成功", counts)
}
