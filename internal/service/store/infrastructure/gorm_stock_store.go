// internal/service/store/infrastructure/gorm_stock_store.go
package infrastructure

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"paddock/internal/service/store/domain"
)

// GormStockStore 是 domain.StockStore 的 MySQL 实现。
// 条件扣减由单条带谓词的 UPDATE 完成，MySQL 的行锁保证其原子性:
//
//	UPDATE product SET available_qty = available_qty - ?
//	WHERE id = ? AND available_qty >= ?
type GormStockStore struct {
	db *gorm.DB
}

// NewGormStockStore 创建一个新的 MySQL 库存存储实例。
func NewGormStockStore(db *gorm.DB) *GormStockStore {
	return &GormStockStore{db: db}
}

// GetStock 读取商品当前余量。
func (s *GormStockStore) GetStock(ctx context.Context, productID string) (int, error) {
	var model productStockModel
	err := s.db.WithContext(ctx).Select("id", "available_qty").Where("id = ?", productID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, domain.ErrProductNotFound
		}
		return 0, err
	}
	return model.AvailableQty, nil
}

// DecrementIfAvailable 原子地执行"余量足够才扣减"。
// RowsAffected 为 0 有两种含义，需要补一次存在性检查来区分:
// 商品不存在，或余量不足。
func (s *GormStockStore) DecrementIfAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&productStockModel{}).
		Where("id = ? AND available_qty >= ?", productID, quantity).
		UpdateColumn("available_qty", gorm.Expr("available_qty - ?", quantity))
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return true, nil
	}

	if _, err := s.GetStock(ctx, productID); err != nil {
		return false, err // ErrProductNotFound 或存储错误
	}
	return false, nil
}

// Restore 把数量加回库存，用于提交失败后的补偿。
func (s *GormStockStore) Restore(ctx context.Context, productID string, quantity int) error {
	result := s.db.WithContext(ctx).
		Model(&productStockModel{}).
		Where("id = ?", productID).
		UpdateColumn("available_qty", gorm.Expr("available_qty + ?", quantity))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
