package cache

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"tunebox/config"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis 初始化Redis连接并测试连通性
func ConnectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// CheckReadWrite 测试Redis基本读写操作
func CheckReadWrite(ctx context.Context, client *redis.Client) error {
	const key, want = "tunebox:healthcheck", "ok"

	if err := client.Set(ctx, key, want, time.Minute).Err(); err != nil {
		return fmt.Errorf("failed to set Redis key: %w", err)
	}
	got, err := client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get Redis key: %w", err)
	}
	if got != want {
		return fmt.Errorf("unexpected value from Redis: got %s", got)
	}
	if err := client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete Redis key: %w", err)
	}
	return nil
}

// URLCache 缓存对象的预签名播放地址，避免每次列表都重新签名
type URLCache struct {
	client *redis.Client
}

// NewURLCache wraps a connected client.
func NewURLCache(client *redis.Client) *URLCache {
	return &URLCache{client: client}
}

// SignedURLKey 根据对象键生成Redis键
func SignedURLKey(objectKey string) string {
	return "signed_url:" + objectKey
}

// Get reports ok=false on a miss.
func (c *URLCache) Get(ctx context.Context, objectKey string) (string, bool, error) {
	val, err := c.client.Get(ctx, SignedURLKey(objectKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cached url: %w", err)
	}
	return val, true, nil
}

func (c *URLCache) Set(ctx context.Context, objectKey, url string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.client.Set(ctx, SignedURLKey(objectKey), url, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache url: %w", err)
	}
	return nil
}

func (c *URLCache) Delete(ctx context.Context, objectKeys ...string) error {
	if len(objectKeys) == 0 {
		return nil
	}
	keys := make([]string, len(objectKeys))
	for i, k := range objectKeys {
		keys[i] = SignedURLKey(k)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to evict cached urls: %w", err)
	}
	return nil
}
