package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meeting-room-booking/backend/internal/cache"
	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/utils"
)

// UserInfo 是登录和个人信息接口返回的用户视图，角色展开为名字，权限取各角色的并集
type UserInfo struct {
	ID          int64               `json:"id"`
	Username    string              `json:"username"`
	NickName    string              `json:"nickName"`
	Email       string              `json:"email"`
	HeadPic     string              `json:"headPic"`
	PhoneNumber string              `json:"phoneNumber"`
	IsFrozen    bool                `json:"isFrozen"`
	IsAdmin     bool                `json:"isAdmin"`
	CreatedAt   time.Time           `json:"createdAt"`
	Roles       []string            `json:"roles"`
	Permissions []domain.Permission `json:"permissions"`
}

func buildUserInfo(user *domain.User) *UserInfo {
	return &UserInfo{
		ID:          user.ID,
		Username:    user.Username,
		NickName:    user.NickName,
		Email:       user.Email,
		HeadPic:     user.HeadPic,
		PhoneNumber: user.PhoneNumber,
		IsFrozen:    user.IsFrozen,
		IsAdmin:     user.IsAdmin,
		CreatedAt:   user.CreatedAt,
		Roles:       user.RoleNames(),
		Permissions: user.PermissionSet(),
	}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		NickName string `json:"nickName" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
		Email    string `json:"email" validate:"required,email"`
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

	// 校验验证码
	captcha, found, err := h.cache.Get(r.Context(), cache.RegisterCaptchaKey(req.Email))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !found {
		h.errorResponse(w, r, "验证码已失效")
		return
	}
	if captcha != req.Captcha {
		h.errorResponse(w, r, "验证码错误")
		return
	}

	// 检查用户名是否已被占用
	if _, err := h.repository.GetUserByUsername(req.Username); err == nil {
		h.errorResponse(w, r, "用户名已存在")
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		h.internalServerError(w, r, err)
		return
	}

	// 检查邮箱是否已被注册
	isExists, err := h.repository.CheckEmailIfExists(req.Email)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if isExists {
		h.errorResponse(w, r, "该邮箱已被注册")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user := &domain.User{
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		NickName:     req.NickName,
		Email:        req.Email,
	}
	if err := h.repository.CreateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.cache.Del(r.Context(), cache.RegisterCaptchaKey(req.Email)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "注册成功", user)
}

// sendCaptcha 生成验证码，写入缓存后投递验证码邮件
func (h *Handler) sendCaptcha(ctx context.Context, mailType string, cacheKey string, email string, expiration int) error {
	captcha := utils.GenerateRandomCaptcha()

	if err := h.cache.Set(ctx, cacheKey, captcha, time.Duration(expiration)*time.Second); err != nil {
		return err
	}

	publishCtx, cancel := context.WithTimeout(ctx, time.Duration(h.config.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return h.mailQueue.Publish(publishCtx, domain.MailMessage{
		Type: mailType,
		To:   email,
		Data: domain.CaptchaMailData{
			Captcha:    captcha,
			Expiration: expiration / 60, // 邮件中显示的过期时间以分钟为单位
		},
	})
}

func (h *Handler) RegisterCaptcha(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.errorResponse(w, r, "邮箱地址不能为空")
		return
	}

	if err := h.sendCaptcha(r.Context(), "register_captcha", cache.RegisterCaptchaKey(email), email, h.config.Captcha.Expiration); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "注册验证码已通过邮件发送", nil)
}

// login 校验用户名和密码，requireAdmin 为 true 时只允许管理员登录
func (h *Handler) login(w http.ResponseWriter, r *http.Request, requireAdmin bool) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	user, err := h.repository.GetUserByUsername(req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		switch {
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			h.errorResponse(w, r, "密码错误")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if requireAdmin && !user.IsAdmin {
		h.errorResponse(w, r, "用户不存在")
		return
	}

	// 登录时需要完整的角色和权限信息来签发访问令牌
	user, err = h.repository.GetUserWithRolesByID(user.ID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 登录签发的令牌使用长有效期
	accessToken, err := h.codec.SignAccessToken(user, time.Duration(h.config.JWT.AccessLoginExpiration)*time.Second)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	refreshToken, err := h.codec.SignRefreshToken(user.ID, time.Duration(h.config.JWT.RefreshLoginExpiration)*time.Second)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "登录成功", map[string]any{
		"userInfo":     buildUserInfo(user),
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, false)
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, true)
}

// RefreshToken 用有效的刷新令牌重新签发一对令牌，重新签发的令牌使用短有效期
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken := r.URL.Query().Get("refreshToken")

	claims, err := h.codec.VerifyRefreshToken(refreshToken)
	if err != nil {
		h.unauthorizedResponse(w, r, "refresh token 无效，请重新登录")
		return
	}

	user, err := h.repository.GetUserWithRolesByID(claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.unauthorizedResponse(w, r, "refresh token 无效，请重新登录")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	newAccessToken, err := h.codec.SignAccessToken(user, time.Duration(h.config.JWT.AccessExpiration)*time.Second)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	newRefreshToken, err := h.codec.SignRefreshToken(user.ID, time.Duration(h.config.JWT.RefreshExpiration)*time.Second)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "刷新成功", map[string]any{
		"accessToken":  newAccessToken,
		"refreshToken": newRefreshToken,
	})
}

func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
		Captcha  string `json:"captcha" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	captcha, found, err := h.cache.Get(r.Context(), cache.UpdatePasswordCaptchaKey(req.Email))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !found {
		h.errorResponse(w, r, "验证码已失效")
		return
	}
	if captcha != req.Captcha {
		h.errorResponse(w, r, "验证码错误")
		return
	}

	user, err := h.repository.GetUserByUsername(req.Username)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "用户不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	user.PasswordHash = string(hashedPassword)
	if err := h.repository.UpdateUser(user); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if err := h.cache.Del(r.Context(), cache.UpdatePasswordCaptchaKey(req.Email)); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码成功", nil)
}

func (h *Handler) UpdatePasswordCaptcha(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.errorResponse(w, r, "邮箱地址不能为空")
		return
	}

	if err := h.sendCaptcha(r.Context(), "update_password_captcha", cache.UpdatePasswordCaptchaKey(email), email, h.config.Captcha.Expiration); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "修改密码验证码已通过邮件发送", nil)
}
