// Package seed 向数据库插入演示数据，方便本地开发和联调
package seed

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meeting-room-booking/backend/internal/config"
	"github.com/meeting-room-booking/backend/internal/domain"
	"github.com/meeting-room-booking/backend/internal/repository"
	"github.com/meeting-room-booking/backend/internal/utils"
)

// InsertDemoData 插入演示用的权限、角色、用户、会议室和预定。
// 所有插入都带 ON CONFLICT DO NOTHING，重复执行不会报错。
func InsertDemoData(ctx context.Context, dbpool *sql.DB, cfg *config.Config) error {
	tx, err := dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 权限
	query := `
		INSERT INTO permissions (code, description) VALUES
			('ccc', '访问 ccc 接口'),
			('ddd', '访问 ddd 接口')
		ON CONFLICT (code) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	// 角色：管理员拥有全部权限，普通用户只有 ccc
	query = `
		INSERT INTO roles (name) VALUES ('管理员'), ('普通用户')
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	query = `
		INSERT INTO role_permissions (role_id, permission_id)
		SELECT r.id, p.id FROM roles r, permissions p
		WHERE (r.name = '管理员' AND p.code IN ('ccc', 'ddd'))
			OR (r.name = '普通用户' AND p.code = 'ccc')
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	// 用户
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	query = `
		INSERT INTO users (username, password_hash, nick_name, email, phone_number, is_admin) VALUES
			('baimin', $1, '小白', 'baimin_job@163.com', '13233323333', true),
			('liyun', $1, '小云', 'liyun@yy.com', '', false)
		ON CONFLICT (username) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, string(passwordHash)); err != nil {
		return err
	}

	query = `
		INSERT INTO user_roles (user_id, role_id)
		SELECT u.id, r.id FROM users u, roles r
		WHERE (u.username = 'baimin' AND r.name = '管理员')
			OR (u.username = 'liyun' AND r.name = '普通用户')
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	// 会议室
	query = `
		INSERT INTO meeting_rooms (name, capacity, location, equipment) VALUES
			('木星', 10, '一层西', '白板'),
			('金星', 5, '二层东', ''),
			('天王星', 30, '三层东', '白板，电视')
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return err
	}

	// 预定：木星会议室今天下午的一场会议
	startTime := time.Now().Truncate(time.Hour).Add(2 * time.Hour)
	query = `
		INSERT INTO bookings (start_time, end_time, status, note, user_id, room_id)
		SELECT $1, $2, $3, '演示数据', u.id, m.id
		FROM users u, meeting_rooms m
		WHERE u.username = 'liyun' AND m.name = '木星'
		ON CONFLICT DO NOTHING
	`
	if _, err := tx.ExecContext(ctx, query, startTime, startTime.Add(time.Hour), domain.BookingStatusApplying); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertRandomUsers 插入 n 个随机的普通用户
func InsertRandomUsers(repo *repository.Repository, n int, password string, emailDomainName string) error {
	for i := 0; i < n; i++ {
		user, err := utils.GenerateRandomUser(password, emailDomainName)
		if err != nil {
			return err
		}
		if err := repo.CreateUser(user); err != nil {
			return err
		}
		slog.Info("已插入随机用户", "username", user.Username, "nickName", user.NickName)
	}

	return nil
}
