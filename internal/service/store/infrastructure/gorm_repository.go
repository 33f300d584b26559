// internal/service/store/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"paddock/internal/service/store/domain"
)

// GormOrderRepository 是 domain.OrderRepository 的 GORM 实现。
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository 创建一个新的 GORM 订单仓储实例。
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Save 落库订单及其行，放在一个事务里。
func (r *GormOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Create(toOrderModel(order)).Error
}

// FindByID 查找订单，预加载订单行。
func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Preload("Lines").Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return toDomainOrder(&model), nil
}
