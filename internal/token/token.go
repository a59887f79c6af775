// Package token 负责访问令牌和刷新令牌的签发与校验
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/meeting-room-booking/backend/internal/domain"
)

var (
	ErrInvalidToken = errors.New("无效的令牌")
	ErrTokenExpired = errors.New("令牌已过期")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// AccessClaims 是访问令牌的载荷，携带完整的身份信息
type AccessClaims struct {
	UserID      int64               `json:"userId"`
	Username    string              `json:"username"`
	Roles       []string            `json:"roles"`
	Permissions []domain.Permission `json:"permissions"`
	Type        string              `json:"type"`
	jwt.RegisteredClaims
}

// RefreshClaims 是刷新令牌的载荷，只携带用户 ID
type RefreshClaims struct {
	UserID int64  `json:"userId"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
	}
}

func (c *Codec) SignAccessToken(user *domain.User, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:      user.ID,
		Username:    user.Username,
		Roles:       user.RoleNames(),
		Permissions: user.PermissionSet(),
		Type:        typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

func (c *Codec) SignRefreshToken(userID int64, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		UserID: userID,
		Type:   typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// VerifyAccessToken 校验访问令牌，拒绝刷新令牌冒充访问令牌
func (c *Codec) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Type != typeAccess {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := c.verify(tokenString, claims); err != nil {
		return nil, err
	}

	if claims.Type != typeRefresh {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

func (c *Codec) verify(tokenString string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(60*time.Second), // 允许 60 秒的时钟偏移
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		default:
			return ErrInvalidToken
		}
	}

	return nil
}
