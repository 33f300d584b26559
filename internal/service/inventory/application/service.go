// internal/service/inventory/application/service.go
package application

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"paddock/internal/pkg/logger"
	"paddock/internal/service/inventory/domain"
)

// InventoryService 暴露库存查询与商品目录的管理入口。
// 查询是纯读操作；写路径只有建档与补货，扣减属于 store 的结账提交。
type InventoryService struct {
	repo   domain.ProductRepository
	cache  domain.StockCache
	locker domain.Locker
	tracer trace.Tracer
}

func NewInventoryService(repo domain.ProductRepository, cache domain.StockCache, locker domain.Locker, tracer trace.Tracer) *InventoryService {
	return &InventoryService{repo: repo, cache: cache, locker: locker, tracer: tracer}
}

// GetStock 返回商品当前余量，优先走缓存。
// 商品不存在时返回 domain.ErrProductNotFound。
func (s *InventoryService) GetStock(ctx context.Context, productID string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetStock")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if s.cache != nil {
		quantity, hit, err := s.cache.GetStock(ctx, productID)
		if err != nil {
			// 缓存故障降级到数据库，只记录不失败
			logger.Ctx(ctx).Warn().Err(err).Msg("stock cache read failed, falling back to repository")
		} else if hit {
			span.AddEvent("stock served from cache")
			return quantity, nil
		}
	}

	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetStock(ctx, productID, product.AvailableQty); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to refresh stock cache")
		}
	}
	return product.AvailableQty, nil
}

// GetProduct 返回完整的商品档案。
func (s *InventoryService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.GetProduct")
	defer span.End()
	return s.repo.FindByID(ctx, productID)
}

// CreateProduct 建档一个新商品。
func (s *InventoryService) CreateProduct(ctx context.Context, name, description string, priceCents int64, initialStock int) (*domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.CreateProduct")
	defer span.End()

	product, err := domain.NewProduct(uuid.New().String(), name, description, priceCents, initialStock)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		span.RecordError(err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetStock(ctx, product.ID, product.AvailableQty); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("failed to seed stock cache for new product")
		}
	}
	span.SetAttributes(attribute.String("product.id", product.ID))
	return product, nil
}

// Restock 为商品补货。
// 数据库自增和缓存刷新是两次写，用分布式锁把同一商品的补货串行化，
// 防止并发补货之间互相覆盖缓存里的余量。
func (s *InventoryService) Restock(ctx context.Context, productID string, quantity int) (int, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.Restock")
	defer span.End()
	span.SetAttributes(
		attribute.String("product.id", productID),
		attribute.Int("restock.quantity", quantity),
	)

	if quantity <= 0 {
		return 0, domain.ErrInvalidQuantity
	}

	var newQuantity int
	err := s.locker.WithLock(ctx, "product-"+productID, func() error {
		updated, err := s.repo.AddStock(ctx, productID, quantity)
		if err != nil {
			return err
		}
		newQuantity = updated
		if s.cache != nil {
			if err := s.cache.SetStock(ctx, productID, updated); err != nil {
				logger.Ctx(ctx).Warn().Err(err).Msg("failed to refresh stock cache after restock")
			}
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "restock failed")
		return 0, err
	}

	span.AddEvent("stock replenished")
	return newQuantity, nil
}
