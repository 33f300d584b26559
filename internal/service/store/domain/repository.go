// internal/service/store/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，由基础设施层实现。
type OrderRepository interface {
	// Save 保存一个订单聚合。
	Save(ctx context.Context, order *Order) error

	// FindByID 根据 ID 查找一个订单聚合。
	FindByID(ctx context.Context, id string) (*Order, error)
}

// StockStore 是商品库存的存储接口。
// 扣减必须是按商品原子的"条件扣减": 只有余量足够时才生效，
// 这从根上消除了"先查后写"两阶段之间的并发超卖窗口。
type StockStore interface {
	// GetStock 返回一个商品的当前余量，商品不存在时返回 ErrProductNotFound。
	GetStock(ctx context.Context, productID string) (int, error)

	// DecrementIfAvailable 原子地扣减库存。
	// 余量不足时返回 false 且不做任何改动；商品不存在时返回 ErrProductNotFound。
	DecrementIfAvailable(ctx context.Context, productID string, quantity int) (bool, error)

	// Restore 把数量加回库存，是 DecrementIfAvailable 的补偿操作。
	Restore(ctx context.Context, productID string, quantity int) error
}
