// internal/service/store/domain/port/inventory.go
package port

import "context"

// InventoryReader 是库存查询服务的出站端口。
// 它只读，没有副作用；结账的校验阶段通过它逐行确认余量。
type InventoryReader interface {
	// GetStock 返回一个商品的当前余量。
	// 商品不存在时返回 domain.ErrProductNotFound，调用方视为该行的硬失败。
	GetStock(ctx context.Context, productID string) (int, error)
}
