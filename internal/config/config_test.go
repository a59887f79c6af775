package config

import (
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()

	t.Setenv("DATABASE_DSN", "postgres://localhost:5432/booking")
	t.Setenv("INITIAL_ADMIN_PASSWORD", "admin-password")
	t.Setenv("INITIAL_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("EMAIL_SMTP_USERNAME", "noreply@example.com")
	t.Setenv("EMAIL_SMTP_PASSWORD", "smtp-password")
	t.Setenv("EMAIL_SMTP_HOST", "smtp.example.com")
	t.Setenv("RABBITMQ_DSN", "amqp://localhost:5672")
	t.Setenv("REDIS_PASSWORD", "redis-password")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}

	if cfg.Server.Port != "3000" {
		t.Errorf("Server.Port 默认值不对: got %s", cfg.Server.Port)
	}
	if cfg.JWT.AccessExpiration != 1800 {
		t.Errorf("JWT.AccessExpiration 默认值不对: got %d", cfg.JWT.AccessExpiration)
	}
	if cfg.Captcha.Expiration != 300 {
		t.Errorf("Captcha.Expiration 默认值不对: got %d", cfg.Captcha.Expiration)
	}
	if cfg.Booking.UrgeCooldown != 1800 {
		t.Errorf("Booking.UrgeCooldown 默认值不对: got %d", cfg.Booking.UrgeCooldown)
	}
	if cfg.Database.DSN != "postgres://localhost:5432/booking" {
		t.Errorf("Database.DSN 没有读取到: got %s", cfg.Database.DSN)
	}
}

func TestLoadConfigMissingRequired(t *testing.T) {
	// 必填项缺失时必须报错，而不是返回一个不完整的配置
	if _, err := LoadConfig(); err == nil {
		t.Fatal("缺少必填环境变量时应该返回错误")
	}
}
