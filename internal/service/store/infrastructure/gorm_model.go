// internal/service/store/infrastructure/gorm_model.go
package infrastructure

import (
	"time"

	"paddock/internal/service/store/domain"
)

// OrderModel 对应数据库中的 store_order 表
type OrderModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:64;index"`
	State     string `gorm:"size:32"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Lines []OrderLineModel `gorm:"foreignKey:OrderID"`
}

// TableName 指定 GORM 应该使用的表名
func (OrderModel) TableName() string {
	return "store_order"
}

// OrderLineModel 对应数据库中的 store_order_line 表
type OrderLineModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	OrderID   string `gorm:"size:36;index"`
	ProductID string `gorm:"size:36"`
	Quantity  int
}

func (OrderLineModel) TableName() string {
	return "store_order_line"
}

// productStockModel 映射 inventory 服务拥有的 product 表，
// store 这边只关心条件扣减所需的库存列。
type productStockModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	AvailableQty int
}

func (productStockModel) TableName() string {
	return "product"
}

func toOrderModel(order *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:        order.ID,
		UserID:    order.UserID,
		State:     string(order.State),
		CreatedAt: order.CreatedAt,
		UpdatedAt: order.UpdatedAt,
	}
	for _, line := range order.Lines {
		model.Lines = append(model.Lines, OrderLineModel{
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return model
}

func toDomainOrder(model *OrderModel) *domain.Order {
	order := &domain.Order{
		ID:        model.ID,
		UserID:    model.UserID,
		State:     domain.State(model.State),
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	for _, line := range model.Lines {
		order.Lines = append(order.Lines, domain.CartLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
		})
	}
	return order
}
