package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/meeting-room-booking/backend/internal/cache"
	"github.com/meeting-room-booking/backend/internal/token"
)

// identity 取出 auth 中间件附在 context 中的身份信息
func (h *Handler) identity(r *http.Request) *token.AccessClaims {
	return r.Context().Value(IdentityCtxKey).(*token.AccessClaims)
}

// parsePageParams 解析分页参数，page 和 pageSize 缺省为 1 和 10
func (h *Handler) parsePageParams(r *http.Request) (int, int, error) {
	page := 1
	pageSize := 10

	if pageParam := r.URL.Query().Get("page"); pageParam != "" {
		parsed, err := strconv.Atoi(pageParam)
		if err != nil {
			return 0, 0, errors.New("page 必须是数字")
		}
		page = parsed
	}
	if pageSizeParam := r.URL.Query().Get("pageSize"); pageSizeParam != "" {
		parsed, err := strconv.Atoi(pageSizeParam)
		if err != nil {
			return 0, 0, errors.New("pageSize 必须是数字")
		}
		pageSize = parsed
	}

	if page < 1 {
		return 0, 0, errors.New("page 页码不能小于 1")
	}
	if pageSize < 1 {
		return 0, 0, errors.New("pageSize 不能小于 1")
	}

	return page, pageSize, nil
}

func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)

	user, err := h.repository.GetUserWithRolesByID(identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取个人信息成功", buildUserInfo(user))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)

	var req struct {
		NickName string `json:"nickName"`
		HeadPic  string `json:"headPic"`
		Captcha  string `json:"captcha" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.GetUserByID(identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	captcha, found, err := h.cache.Get(r.Context(), cache.UpdateUserCaptchaKey(user.Email))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !found {
		h.errorResponse(w, r, "验证码已失效")
		return
	}
	if captcha != req.Captcha {
		h.errorResponse(w, r, "验证码不正确")
		return
	}

	if req.NickName != "" {
		user.NickName = req.NickName
	}
	if req.HeadPic != "" {
		user.HeadPic = req.HeadPic
	}

	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.cache.Del(r.Context(), cache.UpdateUserCaptchaKey(user.Email)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "用户信息修改成功", nil)
}

// UpdateCaptcha 给当前登录用户的邮箱发送修改个人信息的验证码
func (h *Handler) UpdateCaptcha(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)

	user, err := h.repository.GetUserByID(identity.UserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := h.sendCaptcha(r.Context(), "update_user_captcha", cache.UpdateUserCaptchaKey(user.Email), user.Email, h.config.Captcha.UpdateUserExpiration); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "更改用户信息验证码已通过邮件发送", nil)
}

func (h *Handler) Freeze(w http.ResponseWriter, r *http.Request) {
	idParam := r.URL.Query().Get("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		h.errorResponse(w, r, "用户 ID 无效")
		return
	}

	if err := h.repository.FreezeUser(id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "冻结用户成功", nil)
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, pageSize, err := h.parsePageParams(r)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	username := r.URL.Query().Get("username")
	nickName := r.URL.Query().Get("nickName")
	email := r.URL.Query().Get("email")

	users, total, err := h.repository.ListUsers(username, nickName, email, page, pageSize)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取用户列表成功", map[string]any{
		"list":  users,
		"total": total,
	})
}

// Aaa 测试接口，不需要登录
func (h *Handler) Aaa(w http.ResponseWriter, r *http.Request) {
	h.successResponse(w, r, "aaa", nil)
}

// Bbb 测试接口，需要登录且需要 ddd 权限
func (h *Handler) Bbb(w http.ResponseWriter, r *http.Request) {
	identity := h.identity(r)
	h.successResponse(w, r, "bbb", identity.Username)
}
