// internal/service/inventory/infrastructure/redis_cache.go
package infrastructure

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"paddock/internal/pkg/redis"
)

// RedisStockCache 是库存读路径的旁路缓存。
// key 与 store 侧的 Redis 库存后端一致 (stock:{id})，
// 两边在 redis 后端模式下共享同一份余量。
type RedisStockCache struct {
	rdb *goredis.Client
}

func NewRedisStockCache(client *redis.Client) *RedisStockCache {
	return &RedisStockCache{rdb: client.GetClient()}
}

func stockKey(productID string) string {
	return fmt.Sprintf("stock:{%s}", productID)
}

func (c *RedisStockCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	val, err := c.rdb.Get(ctx, stockKey(productID)).Int()
	if err == goredis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read stock cache: %w", err)
	}
	return val, true, nil
}

func (c *RedisStockCache) SetStock(ctx context.Context, productID string, quantity int) error {
	// 不设过期: 余量是权威数据的镜像，由写路径主动刷新
	return c.rdb.Set(ctx, stockKey(productID), quantity, 0).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context, productID string) error {
	return c.rdb.Del(ctx, stockKey(productID)).Err()
}
