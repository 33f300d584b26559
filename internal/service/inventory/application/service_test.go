// internal/service/inventory/application/service_test.go
package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"paddock/internal/service/inventory/domain"
)

type fakeProductRepo struct {
	products  map[string]*domain.Product
	findCalls int
}

func (f *fakeProductRepo) Create(ctx context.Context, product *domain.Product) error {
	f.products[product.ID] = product
	return nil
}

func (f *fakeProductRepo) FindByID(ctx context.Context, productID string) (*domain.Product, error) {
	f.findCalls++
	product, ok := f.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return product, nil
}

func (f *fakeProductRepo) AddStock(ctx context.Context, productID string, quantity int) (int, error) {
	product, ok := f.products[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	product.AvailableQty += quantity
	return product.AvailableQty, nil
}

type fakeStockCache struct {
	entries map[string]int
	getErr  error
	sets    int
}

func (f *fakeStockCache) GetStock(ctx context.Context, productID string) (int, bool, error) {
	if f.getErr != nil {
		return 0, false, f.getErr
	}
	quantity, ok := f.entries[productID]
	return quantity, ok, nil
}

func (f *fakeStockCache) SetStock(ctx context.Context, productID string, quantity int) error {
	f.entries[productID] = quantity
	f.sets++
	return nil
}

func (f *fakeStockCache) Invalidate(ctx context.Context, productID string) error {
	delete(f.entries, productID)
	return nil
}

type recordingLocker struct {
	resources []string
}

func (l *recordingLocker) WithLock(ctx context.Context, resourceID string, fn func() error) error {
	l.resources = append(l.resources, resourceID)
	return fn()
}

func newInventoryFixture(products map[string]int) (*InventoryService, *fakeProductRepo, *fakeStockCache, *recordingLocker) {
	repo := &fakeProductRepo{products: map[string]*domain.Product{}}
	for id, qty := range products {
		product, _ := domain.NewProduct(id, "商品-"+id, "", 1000, qty)
		repo.products[id] = product
	}
	cache := &fakeStockCache{entries: map[string]int{}}
	locker := &recordingLocker{}
	service := NewInventoryService(repo, cache, locker, otel.Tracer("test"))
	return service, repo, cache, locker
}

func TestGetStock_CacheMissFallsBackAndRefreshes(t *testing.T) {
	service, repo, cache, _ := newInventoryFixture(map[string]int{"A": 7})

	quantity, err := service.GetStock(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
	assert.Equal(t, 1, repo.findCalls)
	// 回填缓存，下一次读不再打数据库
	assert.Equal(t, 7, cache.entries["A"])

	quantity, err = service.GetStock(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
	assert.Equal(t, 1, repo.findCalls)
}

func TestGetStock_CacheFailureDegradesToRepository(t *testing.T) {
	service, repo, cache, _ := newInventoryFixture(map[string]int{"A": 7})
	cache.getErr = errors.New("redis timeout")

	quantity, err := service.GetStock(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
	assert.Equal(t, 1, repo.findCalls)
}

func TestGetStock_UnknownProduct(t *testing.T) {
	service, _, _, _ := newInventoryFixture(nil)

	_, err := service.GetStock(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCreateProduct(t *testing.T) {
	service, repo, cache, _ := newInventoryFixture(nil)

	product, err := service.CreateProduct(context.Background(), "刹车片", "高温配方", 28900, 40)
	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, 40, product.AvailableQty)
	assert.Contains(t, repo.products, product.ID)
	// 建档时预热缓存
	assert.Equal(t, 40, cache.entries[product.ID])

	_, err = service.CreateProduct(context.Background(), "", "", 100, 1)
	require.Error(t, err)
}

func TestRestock(t *testing.T) {
	service, _, cache, locker := newInventoryFixture(map[string]int{"A": 5})

	newQuantity, err := service.Restock(context.Background(), "A", 10)
	require.NoError(t, err)
	assert.Equal(t, 15, newQuantity)
	assert.Equal(t, 15, cache.entries["A"])
	// 同一商品的补货在分布式锁内串行执行
	assert.Equal(t, []string{"product-A"}, locker.resources)
}

func TestRestock_Guards(t *testing.T) {
	service, _, _, _ := newInventoryFixture(map[string]int{"A": 5})

	_, err := service.Restock(context.Background(), "A", 0)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = service.Restock(context.Background(), "missing", 3)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}
