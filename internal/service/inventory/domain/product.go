// internal/service/inventory/domain/product.go
package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be a positive number")
	ErrInvalidProduct  = errors.New("product requires a name and a non-negative price")
	ErrNegativeStock   = errors.New("available quantity cannot be negative")
)

// Product 是商品目录的聚合根。
// AvailableQty 只允许两处变更: 这里的补货入口，和结账提交的条件扣减。
type Product struct {
	ID           string
	Name         string
	Description  string
	PriceCents   int64 // 价格对结账只是展示信息，不参与校验
	AvailableQty int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewProduct 创建一个新商品。
func NewProduct(id, name, description string, priceCents int64, initialStock int) (*Product, error) {
	if id == "" || name == "" || priceCents < 0 {
		return nil, ErrInvalidProduct
	}
	if initialStock < 0 {
		return nil, ErrNegativeStock
	}
	now := time.Now()
	return &Product{
		ID:           id,
		Name:         name,
		Description:  description,
		PriceCents:   priceCents,
		AvailableQty: initialStock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ProductRepository 定义了商品的持久化接口。
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	// AddStock 原子地增加库存并返回新的余量。
	AddStock(ctx context.Context, id string, quantity int) (int, error)
}

// StockCache 是库存读路径的旁路缓存。
type StockCache interface {
	// GetStock 返回 (余量, 是否命中, 错误)。
	GetStock(ctx context.Context, productID string) (int, bool, error)
	SetStock(ctx context.Context, productID string, quantity int) error
	Invalidate(ctx context.Context, productID string) error
}

// Locker 串行化跨副本的临界区。
// 补货要同时更新 MySQL 和缓存，两次写之间必须互斥。
type Locker interface {
	WithLock(ctx context.Context, resourceID string, fn func() error) error
}
