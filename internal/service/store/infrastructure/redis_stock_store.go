// internal/service/store/infrastructure/redis_stock_store.go
package infrastructure

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"paddock/internal/pkg/redis"
	"paddock/internal/service/store/domain"
)

const (
	decrementScriptName = "stock_decrement"
	restoreScriptName   = "stock_restore"

	// Lua 脚本的哨兵返回值
	codeNotFound     = -2
	codeInsufficient = -1
)

// RedisStockStore 是 domain.StockStore 的 Redis 实现。
// 条件扣减通过 Lua 脚本完成，整段脚本在 Redis 内单线程执行，
// "检查余量 + 扣减"之间不存在并发窗口。
type RedisStockStore struct {
	client scriptRunner
	rdb    *goredis.Client
}

// scriptRunner 抽出脚本执行能力，便于测试替换。
type scriptRunner interface {
	RunScript(ctx context.Context, name string, keys []string, args ...interface{}) (interface{}, error)
}

// NewRedisStockStore 创建 Redis 库存存储，在创建时注册所需脚本。
func NewRedisStockStore(client *redis.Client) (*RedisStockStore, error) {
	if err := client.LoadScriptFromContent(decrementScriptName, decrementScript); err != nil {
		return nil, fmt.Errorf("failed to load stock decrement script: %w", err)
	}
	if err := client.LoadScriptFromContent(restoreScriptName, restoreScript); err != nil {
		return nil, fmt.Errorf("failed to load stock restore script: %w", err)
	}
	return &RedisStockStore{client: client, rdb: client.GetClient()}, nil
}

func stockKey(productID string) string {
	return fmt.Sprintf("stock:{%s}", productID)
}

// GetStock 读取商品当前余量。
func (s *RedisStockStore) GetStock(ctx context.Context, productID string) (int, error) {
	val, err := s.rdb.Get(ctx, stockKey(productID)).Int()
	if err == goredis.Nil {
		return 0, domain.ErrProductNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read stock for %s: %w", productID, err)
	}
	return val, nil
}

// DecrementIfAvailable 原子扣减。
func (s *RedisStockStore) DecrementIfAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	result, err := s.client.RunScript(ctx, decrementScriptName, []string{stockKey(productID)}, quantity)
	if err != nil {
		return false, fmt.Errorf("stock decrement script failed: %w", err)
	}
	code, ok := result.(int64)
	if !ok {
		return false, fmt.Errorf("unexpected result type from stock decrement script: %T", result)
	}
	switch {
	case code == codeNotFound:
		return false, domain.ErrProductNotFound
	case code == codeInsufficient:
		return false, nil
	default:
		return true, nil // 返回值为扣减后的余量
	}
}

// Restore 补偿回加，只对存在的商品生效。
func (s *RedisStockStore) Restore(ctx context.Context, productID string, quantity int) error {
	result, err := s.client.RunScript(ctx, restoreScriptName, []string{stockKey(productID)}, quantity)
	if err != nil {
		return fmt.Errorf("stock restore script failed: %w", err)
	}
	if code, ok := result.(int64); ok && code == codeNotFound {
		return domain.ErrProductNotFound
	}
	return nil
}

var decrementScript = `
-- KEYS[1]: 库存 Key, 例如 stock:{product-123}
-- ARGV[1]: 要扣减的数量

local stock = redis.call('get', KEYS[1])
if not stock then
    return -2 -- 商品不存在
end

stock = tonumber(stock)
local need = tonumber(ARGV[1])
if stock < need then
    return -1 -- 余量不足, 不做任何改动
end

return redis.call('decrby', KEYS[1], need)
`

var restoreScript = `
-- KEYS[1]: 库存 Key
-- ARGV[1]: 要回加的数量

if redis.call('exists', KEYS[1]) == 0 then
    return -2 -- 商品不存在
end

return redis.call('incrby', KEYS[1], tonumber(ARGV[1]))
`
