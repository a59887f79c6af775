package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/meeting-room-booking/backend/internal/token"
)

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		duration := time.Since(start)
		slog.Info("已处理请求", "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// auth 校验请求头中的访问令牌，并把身份信息附在 context 中。
// 没有套这个中间件的路由不要求登录，请求中也不会有身份信息。
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := r.Header.Get("Authorization")
		if authorization == "" {
			h.unauthorizedResponse(w, r, "用户未登录")
			return
		}

		tokenString := strings.TrimPrefix(authorization, "Bearer ")

		// 令牌无效和过期对客户端来说是同一种情况，都需要重新登录
		claims, err := h.codec.VerifyAccessToken(tokenString)
		if err != nil {
			h.unauthorizedResponse(w, r, "token 失效，请重新登录")
			return
		}

		ctx := context.WithValue(r.Context(), IdentityCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission 要求身份信息中包含所有给定的权限 code。
// 缺任何一个都会被拒绝；没有身份信息（路由不要求登录）时直接放行。
func (h *Handler) RequirePermission(codes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := r.Context().Value(IdentityCtxKey).(*token.AccessClaims)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			for _, code := range codes {
				found := false
				for _, permission := range identity.Permissions {
					if permission.Code == code {
						found = true
						break
					}
				}
				if !found {
					h.forbiddenResponse(w, r, "您没有权限访问")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}
