package domain

import (
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	NickName     string    `json:"nickName"`
	Email        string    `json:"email"`
	HeadPic      string    `json:"headPic"`
	PhoneNumber  string    `json:"phoneNumber"`
	IsFrozen     bool      `json:"isFrozen"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	Roles        []Role    `json:"roles,omitempty"`
}

type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions,omitempty"`
}

type Permission struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

// RoleNames 返回用户所有角色的名字
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		names = append(names, role.Name)
	}
	return names
}

// PermissionSet 返回用户所有角色的权限并集，按 code 去重
func (u *User) PermissionSet() []Permission {
	seen := make(map[string]bool)
	permissions := make([]Permission, 0)

	for _, role := range u.Roles {
		for _, permission := range role.Permissions {
			if seen[permission.Code] {
				continue
			}
			seen[permission.Code] = true
			permissions = append(permissions, permission)
		}
	}

	return permissions
}
