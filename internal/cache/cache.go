// Package cache 提供键值缓存的抽象，验证码、催促冷却标记和管理员邮箱都存在这里
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store 是缓存的操作接口，ttl 为 0 表示不过期
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}

	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// MemoryStore 是测试用的内存实现
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
}

type memoryItem struct {
	value     string
	expiresAt time.Time // 零值表示不过期
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryItem),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[key]
	if !ok {
		return "", false, nil
	}

	if !item.expiresAt.IsZero() && time.Now().After(item.expiresAt) {
		delete(s.items, key)
		return "", false, nil
	}

	return item.value, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiresAt = time.Now().Add(ttl)
	}
	s.items[key] = item

	return nil
}

func (s *MemoryStore) Del(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)

	return nil
}

// 缓存键的约定
func RegisterCaptchaKey(email string) string {
	return fmt.Sprintf("captcha_register_%s", email)
}

func UpdatePasswordCaptchaKey(email string) string {
	return fmt.Sprintf("captcha_update_password_%s", email)
}

func UpdateUserCaptchaKey(email string) string {
	return fmt.Sprintf("captcha_update_user_%s", email)
}

func UrgeKey(bookingID int64) string {
	return fmt.Sprintf("urge_%d", bookingID)
}

const AdminEmailKey = "admin_email"
