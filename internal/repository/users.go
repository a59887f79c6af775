package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/meeting-room-booking/backend/internal/domain"
)

func (r *Repository) CreateUser(user *domain.User) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO users (username, password_hash, nick_name, email, head_pic, phone_number, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_frozen, created_at, updated_at
	`

	args := []any{user.Username, user.PasswordHash, user.NickName, user.Email, user.HeadPic, user.PhoneNumber, user.IsAdmin}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&user.ID, &user.IsFrozen, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT username, password_hash, nick_name, email, head_pic, phone_number, is_frozen, is_admin, created_at, updated_at
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Username, &user.PasswordHash, &user.NickName, &user.Email, &user.HeadPic, &user.PhoneNumber, &user.IsFrozen, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	query := `
		SELECT id, password_hash, nick_name, email, head_pic, phone_number, is_frozen, is_admin, created_at, updated_at
		FROM users WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		Username: username,
	}

	dst := []any{&user.ID, &user.PasswordHash, &user.NickName, &user.Email, &user.HeadPic, &user.PhoneNumber, &user.IsFrozen, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// GetUserWithRolesByID 查询用户及其角色和权限，用于登录和刷新令牌时组装身份信息
func (r *Repository) GetUserWithRolesByID(id int64) (*domain.User, error) {
	user, err := r.GetUserByID(id)
	if err != nil {
		return nil, err
	}

	query := `
		SELECT
			ro.id,
			ro.name,
			p.id,
			p.code,
			p.description
		FROM user_roles ur
		JOIN roles ro ON ur.role_id = ro.id
		LEFT JOIN role_permissions rp ON ro.id = rp.role_id
		LEFT JOIN permissions p ON rp.permission_id = p.id
		WHERE ur.user_id = $1
		ORDER BY ro.id, p.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rolesMap := make(map[int64]*domain.Role)
	roleIDs := make([]int64, 0)

	for rows.Next() {
		var row struct {
			RoleID                int64
			RoleName              string
			PermissionID          sql.NullInt64
			PermissionCode        sql.NullString
			PermissionDescription sql.NullString
		}

		dst := []any{&row.RoleID, &row.RoleName, &row.PermissionID, &row.PermissionCode, &row.PermissionDescription}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		if _, exists := rolesMap[row.RoleID]; !exists {
			rolesMap[row.RoleID] = &domain.Role{
				ID:          row.RoleID,
				Name:        row.RoleName,
				Permissions: make([]domain.Permission, 0),
			}
			roleIDs = append(roleIDs, row.RoleID)
		}

		// 角色可能没有任何权限，此时权限列为 NULL
		if row.PermissionID.Valid {
			rolesMap[row.RoleID].Permissions = append(rolesMap[row.RoleID].Permissions, domain.Permission{
				ID:          row.PermissionID.Int64,
				Code:        row.PermissionCode.String,
				Description: row.PermissionDescription.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	user.Roles = make([]domain.Role, 0, len(roleIDs))
	for _, roleID := range roleIDs {
		user.Roles = append(user.Roles, *rolesMap[roleID])
	}

	return user, nil
}

func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users
		SET
			password_hash = $1,
			nick_name = $2,
			email = $3,
			head_pic = $4,
			phone_number = $5,
			is_frozen = $6,
			updated_at = now()
		WHERE id = $7
		RETURNING username, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{user.PasswordHash, user.NickName, user.Email, user.HeadPic, user.PhoneNumber, user.IsFrozen, user.ID}
	dst := []any{&user.Username, &user.CreatedAt, &user.UpdatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) FreezeUser(id int64) error {
	query := `
		UPDATE users SET is_frozen = true, updated_at = now() WHERE id = $1 RETURNING id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var updatedID int64
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&updatedID); err != nil {
		return err
	}

	return nil
}

// ListUsers 按用户名、昵称和邮箱模糊匹配并分页，total 是过滤后的总条数
func (r *Repository) ListUsers(username string, nickName string, email string, page int, pageSize int) ([]*domain.User, int64, error) {
	query := `
		SELECT
			id, username, nick_name, email, head_pic, phone_number, is_frozen, is_admin, created_at, updated_at,
			count(*) OVER() AS total
		FROM users
		WHERE ($1 = '' OR username LIKE '%' || $1 || '%')
			AND ($2 = '' OR nick_name LIKE '%' || $2 || '%')
			AND ($3 = '' OR email LIKE '%' || $3 || '%')
		ORDER BY id
		LIMIT $4 OFFSET $5
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, username, nickName, email, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]*domain.User, 0)
	var total int64

	for rows.Next() {
		user := &domain.User{}
		dst := []any{&user.ID, &user.Username, &user.NickName, &user.Email, &user.HeadPic, &user.PhoneNumber, &user.IsFrozen, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt, &total}
		if err := rows.Scan(dst...); err != nil {
			return nil, 0, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *Repository) CheckEmailIfExists(email string) (bool, error) {
	isExists := false

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`
	if err := r.dbpool.QueryRowContext(ctx, query, email).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

// GetAdminEmail 返回第一个管理员的邮箱
func (r *Repository) GetAdminEmail(ctx context.Context) (string, error) {
	query := `
		SELECT email FROM users WHERE is_admin = true ORDER BY id LIMIT 1
	`

	ctx, cancel := context.WithTimeout(ctx, time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	var email string
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&email); err != nil {
		return "", err
	}

	return email, nil
}
