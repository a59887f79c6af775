package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreSetGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "captcha_register_a@b.com", "123456", 5*time.Minute); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	value, found, err := store.Get(ctx, "captcha_register_a@b.com")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if !found {
		t.Fatal("刚写入的键应该存在")
	}
	if value != "123456" {
		t.Errorf("got %s, want 123456", value)
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	store := NewMemoryStore()

	_, found, err := store.Get(context.Background(), "no-such-key")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if found {
		t.Error("不存在的键不应该被找到")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "urge_1", "1", 10*time.Millisecond); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	_, found, err := store.Get(ctx, "urge_1")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if found {
		t.Error("过期的键不应该被找到")
	}
}

func TestMemoryStoreNoExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// ttl 为 0 表示永不过期
	if err := store.Set(ctx, "admin_email", "admin@example.com", 0); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	value, found, err := store.Get(ctx, "admin_email")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if !found || value != "admin@example.com" {
		t.Errorf("永不过期的键应该一直存在, got found=%v value=%s", found, value)
	}
}

func TestMemoryStoreDel(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Set(ctx, "captcha_register_a@b.com", "123456", time.Minute); err != nil {
		t.Fatalf("写入缓存失败: %v", err)
	}
	if err := store.Del(ctx, "captcha_register_a@b.com"); err != nil {
		t.Fatalf("删除缓存失败: %v", err)
	}

	_, found, err := store.Get(ctx, "captcha_register_a@b.com")
	if err != nil {
		t.Fatalf("读取缓存失败: %v", err)
	}
	if found {
		t.Error("删除后的键不应该被找到")
	}
}
