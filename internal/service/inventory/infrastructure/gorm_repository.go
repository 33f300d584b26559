// internal/service/inventory/infrastructure/gorm_repository.go
package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"paddock/internal/service/inventory/domain"
)

// ProductModel 对应数据库中的 product 表
type ProductModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string `gorm:"size:255"`
	Description  string `gorm:"type:text"`
	PriceCents   int64
	AvailableQty int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName 指定 GORM 应该使用的表名
func (ProductModel) TableName() string {
	return "product"
}

// GormProductRepository 是 domain.ProductRepository 的 GORM 实现。
type GormProductRepository struct {
	db *gorm.DB
}

func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func (r *GormProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return r.db.WithContext(ctx).Create(toModel(product)).Error
}

func (r *GormProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return toDomain(&model), nil
}

// AddStock 用一条自增 UPDATE 完成补货，然后读回新余量。
func (r *GormProductRepository) AddStock(ctx context.Context, id string, quantity int) (int, error) {
	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", id).
		UpdateColumn("available_qty", gorm.Expr("available_qty + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.ErrProductNotFound
	}

	var model ProductModel
	if err := r.db.WithContext(ctx).Select("available_qty").Where("id = ?", id).First(&model).Error; err != nil {
		return 0, err
	}
	return model.AvailableQty, nil
}

func toModel(p *domain.Product) *ProductModel {
	return &ProductModel{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		PriceCents:   p.PriceCents,
		AvailableQty: p.AvailableQty,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func toDomain(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:           m.ID,
		Name:         m.Name,
		Description:  m.Description,
		PriceCents:   m.PriceCents,
		AvailableQty: m.AvailableQty,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
