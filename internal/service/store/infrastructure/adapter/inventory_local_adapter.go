// internal/service/store/infrastructure/adapter/inventory_local_adapter.go
package adapter

import (
	"context"

	"paddock/internal/service/store/domain"
)

// InventoryLocalAdapter 直接用库存存储实现 port.InventoryReader。
// store 与库存共享同一套存储时走这条路径，省掉一跳网络。
type InventoryLocalAdapter struct {
	stock domain.StockStore
}

func NewInventoryLocalAdapter(stock domain.StockStore) *InventoryLocalAdapter {
	return &InventoryLocalAdapter{stock: stock}
}

func (a *InventoryLocalAdapter) GetStock(ctx context.Context, productID string) (int, error) {
	return a.stock.GetStock(ctx, productID)
}
