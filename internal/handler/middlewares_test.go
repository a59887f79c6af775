package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/token"
)

func newTestHandler() *Handler {
	return &Handler{
		codec: token.NewCodec("test-secret"),
	}
}

// signTestToken 签发一个带指定权限的访问令牌
func signTestToken(t *testing.T, h *Handler, permissionCodes ...string) string {
	t.Helper()

	permissions := make([]domain.Permission, 0, len(permissionCodes))
	for i, code := range permissionCodes {
		permissions = append(permissions, domain.Permission{ID: int64(i + 1), Code: code})
	}

	user := &domain.User{
		ID:       1,
		Username: "baimin",
		Roles: []domain.Role{
			{ID: 1, Name: "普通用户", Permissions: permissions},
		},
	}

	tokenString, err := h.codec.SignAccessToken(user, time.Hour)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}
	return tokenString
}

func okHandler(called *bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}
}

func TestAuthWithoutHeader(t *testing.T) {
	h := newTestHandler()

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
	rec := httptest.NewRecorder()

	h.auth(okHandler(&called)).ServeHTTP(rec, req)

	if called {
		t.Error("没有携带令牌的请求不应该到达 handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthWithInvalidToken(t *testing.T) {
	h := newTestHandler()

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()

	h.auth(okHandler(&called)).ServeHTTP(rec, req)

	if called {
		t.Error("携带无效令牌的请求不应该到达 handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthWithExpiredToken(t *testing.T) {
	h := newTestHandler()

	user := &domain.User{ID: 1, Username: "baimin"}
	tokenString, err := h.codec.SignAccessToken(user, -2*time.Minute)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	h.auth(okHandler(&called)).ServeHTTP(rec, req)

	// 过期和无效对客户端是同一种拒绝
	if called {
		t.Error("携带过期令牌的请求不应该到达 handler")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthWithValidToken(t *testing.T) {
	h := newTestHandler()

	tokenString := signTestToken(t, h, "ccc")

	var identity *token.AccessClaims
	req := httptest.NewRequest(http.MethodGet, "/user/info", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity = r.Context().Value(IdentityCtxKey).(*token.AccessClaims)
		w.WriteHeader(http.StatusOK)
	})
	h.auth(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want %d", rec.Code, http.StatusOK)
	}
	if identity == nil {
		t.Fatal("身份信息没有附在 context 中")
	}
	if identity.UserID != 1 || identity.Username != "baimin" {
		t.Errorf("身份信息不正确: %+v", identity)
	}
}

func TestRequirePermissionMissing(t *testing.T) {
	h := newTestHandler()

	// 用户只有 ccc 权限，访问需要 ddd 权限的接口
	tokenString := signTestToken(t, h, "ccc")

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/bbb", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	h.auth(h.RequirePermission("ddd")(okHandler(&called))).ServeHTTP(rec, req)

	if called {
		t.Error("权限不足的请求不应该到达 handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequirePermissionPartialMatch(t *testing.T) {
	h := newTestHandler()

	// 多个要求的权限缺一不可
	tokenString := signTestToken(t, h, "ccc")

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/bbb", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	h.auth(h.RequirePermission("ccc", "ddd")(okHandler(&called))).ServeHTTP(rec, req)

	if called {
		t.Error("只满足部分权限的请求不应该到达 handler")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("got %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequirePermissionSatisfied(t *testing.T) {
	h := newTestHandler()

	tokenString := signTestToken(t, h, "ccc", "ddd")

	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/bbb", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rec := httptest.NewRecorder()

	h.auth(h.RequirePermission("ddd")(okHandler(&called))).ServeHTTP(rec, req)

	if !called {
		t.Error("权限满足的请求应该到达 handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequirePermissionWithoutIdentity(t *testing.T) {
	h := newTestHandler()

	// 路由没有要求登录时，权限检查直接放行
	called := false
	req := httptest.NewRequest(http.MethodGet, "/user/aaa", nil)
	rec := httptest.NewRecorder()

	h.RequirePermission("ddd")(okHandler(&called)).ServeHTTP(rec, req)

	if !called {
		t.Error("没有身份信息时权限检查应该放行")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("got %d, want %d", rec.Code, http.StatusOK)
	}
}
