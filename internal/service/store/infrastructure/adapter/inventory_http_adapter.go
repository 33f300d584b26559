// internal/service/store/infrastructure/adapter/inventory_http_adapter.go
package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"paddock/internal/pkg/constants"
	"paddock/internal/pkg/httpclient"
	"paddock/internal/service/store/domain"
)

// InventoryHTTPAdapter 通过 inventory-service 的 HTTP 接口实现 port.InventoryReader。
// 用于 store 与 inventory 分开部署的拓扑。
type InventoryHTTPAdapter struct {
	client *httpclient.Client
}

// NewInventoryHTTPAdapter 创建一个新的库存查询适配器。
func NewInventoryHTTPAdapter(client *httpclient.Client) *InventoryHTTPAdapter {
	return &InventoryHTTPAdapter{client: client}
}

type stockResponse struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GetStock 查询商品余量，404 映射为领域的 ErrProductNotFound。
func (a *InventoryHTTPAdapter) GetStock(ctx context.Context, productID string) (int, error) {
	params := url.Values{}
	params.Set("productId", productID)

	var resp stockResponse
	status, err := a.client.GetJSON(ctx, constants.InventoryService, constants.InventoryStockPath, params, &resp)
	if err != nil {
		return 0, err
	}
	switch status {
	case http.StatusOK:
		return resp.Quantity, nil
	case http.StatusNotFound:
		return 0, domain.ErrProductNotFound
	default:
		return 0, fmt.Errorf("inventory service returned unexpected status %d", status)
	}
}
