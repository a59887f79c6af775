package token

import (
	"errors"
	"testing"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{
		ID:       1,
		Username: "baimin",
		Roles: []domain.Role{
			{
				ID:   1,
				Name: "管理员",
				Permissions: []domain.Permission{
					{ID: 1, Code: "ccc", Description: "访问 ccc 接口"},
					{ID: 2, Code: "ddd", Description: "访问 ddd 接口"},
				},
			},
		},
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")
	user := testUser()

	tokenString, err := codec.SignAccessToken(user, time.Hour)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}

	claims, err := codec.VerifyAccessToken(tokenString)
	if err != nil {
		t.Fatalf("校验访问令牌失败: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("UserID 不一致: got %d, want %d", claims.UserID, user.ID)
	}
	if claims.Username != user.Username {
		t.Errorf("Username 不一致: got %s, want %s", claims.Username, user.Username)
	}
	if len(claims.Roles) != 1 || claims.Roles[0] != "管理员" {
		t.Errorf("Roles 不一致: got %v", claims.Roles)
	}
	if len(claims.Permissions) != 2 {
		t.Fatalf("Permissions 数量不一致: got %d, want 2", len(claims.Permissions))
	}
	if claims.Permissions[0].Code != "ccc" || claims.Permissions[1].Code != "ddd" {
		t.Errorf("Permissions 不一致: got %v", claims.Permissions)
	}
}

func TestAccessTokenExpired(t *testing.T) {
	codec := NewCodec("test-secret")

	// 过期时间要超出 60 秒的时钟偏移容忍
	tokenString, err := codec.SignAccessToken(testUser(), -2*time.Minute)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}

	_, err = codec.VerifyAccessToken(tokenString)
	if !errors.Is(err, ErrTokenExpired) {
		t.Errorf("过期令牌应该返回 ErrTokenExpired, got %v", err)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	codec := NewCodec("test-secret")

	tokenString, err := codec.SignAccessToken(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}

	otherCodec := NewCodec("other-secret")
	if _, err := otherCodec.VerifyAccessToken(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("错误密钥签发的令牌应该返回 ErrInvalidToken, got %v", err)
	}
}

func TestAccessTokenMalformed(t *testing.T) {
	codec := NewCodec("test-secret")

	if _, err := codec.VerifyAccessToken("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("格式错误的令牌应该返回 ErrInvalidToken, got %v", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := NewCodec("test-secret")

	tokenString, err := codec.SignRefreshToken(42, time.Hour)
	if err != nil {
		t.Fatalf("签发刷新令牌失败: %v", err)
	}

	claims, err := codec.VerifyRefreshToken(tokenString)
	if err != nil {
		t.Fatalf("校验刷新令牌失败: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID 不一致: got %d, want 42", claims.UserID)
	}
}

func TestTokenTypeMismatch(t *testing.T) {
	codec := NewCodec("test-secret")

	refreshToken, err := codec.SignRefreshToken(1, time.Hour)
	if err != nil {
		t.Fatalf("签发刷新令牌失败: %v", err)
	}
	accessToken, err := codec.SignAccessToken(testUser(), time.Hour)
	if err != nil {
		t.Fatalf("签发访问令牌失败: %v", err)
	}

	// 刷新令牌不能当作访问令牌使用，反之亦然
	if _, err := codec.VerifyAccessToken(refreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("刷新令牌冒充访问令牌应该返回 ErrInvalidToken, got %v", err)
	}
	if _, err := codec.VerifyRefreshToken(accessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("访问令牌冒充刷新令牌应该返回 ErrInvalidToken, got %v", err)
	}
}
