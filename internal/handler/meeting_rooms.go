package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/meeting-room-booking/backend/internal/domain"
)

func (h *Handler) ListMeetingRooms(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.parsePageParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	name := r.URL.Query().Get("name")
	location := r.URL.Query().Get("location")

	rooms, total, err := h.repository.ListMeetingRooms(name, location, page, pageSize)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取会议室列表成功", map[string]any{
		"list":  rooms,
		"total": total,
	})
}

func (h *Handler) CreateMeetingRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name" validate:"required"`
		Capacity    int32  `json:"capacity" validate:"required,min=1"`
		Location    string `json:"location" validate:"required"`
		Equipment   string `json:"equipment"`
		Description string `json:"description"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 会议室名称不允许重复
	isExists, err := h.repository.CheckMeetingRoomNameIfExists(req.Name)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if isExists {
		h.errorResponse(w, r, "该会议室已存在")
		return
	}

	room := &domain.MeetingRoom{
		Name:        req.Name,
		Capacity:    req.Capacity,
		Location:    req.Location,
		Equipment:   req.Equipment,
		Description: req.Description,
	}
	if err := h.repository.CreateMeetingRoom(room); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建会议室成功", room)
}

func (h *Handler) UpdateMeetingRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID          int64  `json:"id" validate:"required"`
		Name        string `json:"name" validate:"required"`
		Capacity    int32  `json:"capacity" validate:"required,min=1"`
		Location    string `json:"location" validate:"required"`
		Equipment   string `json:"equipment"`
		Description string `json:"description"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	room, err := h.repository.GetMeetingRoomByID(req.ID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "会议室不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	room.Name = req.Name
	room.Capacity = req.Capacity
	room.Location = req.Location
	if req.Equipment != "" {
		room.Equipment = req.Equipment
	}
	if req.Description != "" {
		room.Description = req.Description
	}

	if err := h.repository.UpdateMeetingRoom(room); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更新会议室成功", room)
}

func (h *Handler) GetMeetingRoom(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "会议室 ID 无效")
		return
	}

	room, err := h.repository.GetMeetingRoomByID(id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "会议室不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取会议室成功", room)
}

func (h *Handler) DeleteMeetingRoom(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "会议室 ID 无效")
		return
	}

	if err := h.repository.DeleteMeetingRoom(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "该会议室不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除会议室成功", nil)
}
