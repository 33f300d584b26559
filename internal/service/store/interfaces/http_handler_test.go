// internal/service/store/interfaces/http_handler_test.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"paddock/internal/service/store/application"
	"paddock/internal/service/store/domain"
)

type stubInventory struct {
	stocks map[string]int
	err    error
}

func (s *stubInventory) GetStock(ctx context.Context, productID string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	stock, ok := s.stocks[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return stock, nil
}

type stubStockStore struct {
	stocks map[string]int
}

func (s *stubStockStore) GetStock(ctx context.Context, productID string) (int, error) {
	stock, ok := s.stocks[productID]
	if !ok {
		return 0, domain.ErrProductNotFound
	}
	return stock, nil
}

func (s *stubStockStore) DecrementIfAvailable(ctx context.Context, productID string, quantity int) (bool, error) {
	stock, ok := s.stocks[productID]
	if !ok {
		return false, domain.ErrProductNotFound
	}
	if stock < quantity {
		return false, nil
	}
	s.stocks[productID] = stock - quantity
	return true, nil
}

func (s *stubStockStore) Restore(ctx context.Context, productID string, quantity int) error {
	s.stocks[productID] += quantity
	return nil
}

type stubOrderRepo struct{ saved []*domain.Order }

func (s *stubOrderRepo) Save(ctx context.Context, order *domain.Order) error {
	s.saved = append(s.saved, order)
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	for _, o := range s.saved {
		if o.ID == orderID {
			return o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

type stubIDGen struct{}

func (stubIDGen) NewID() string { return "order-test" }

type permitAll struct{}

func (permitAll) Authorize(ctx context.Context, lines []domain.CartLine) error { return nil }

func newTestMux(t *testing.T, stocks map[string]int, inventoryErr error) (*http.ServeMux, *stubStockStore) {
	t.Helper()
	inventoryStocks := make(map[string]int, len(stocks))
	storeStocks := make(map[string]int, len(stocks))
	for id, qty := range stocks {
		inventoryStocks[id] = qty
		storeStocks[id] = qty
	}
	stock := &stubStockStore{stocks: storeStocks}
	service := application.NewCheckoutService(
		&stubInventory{stocks: inventoryStocks, err: inventoryErr},
		stock,
		&stubOrderRepo{},
		stubIDGen{}, permitAll{}, nil,
		otel.Tracer("test"), nil, 0,
	)
	mux := http.NewServeMux()
	NewStoreHandler(service).RegisterRoutes(mux)
	return mux, stock
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	return recorder
}

func TestHandleCheckout_Committed(t *testing.T) {
	mux, stock := newTestMux(t, map[string]int{"A": 10, "B": 5}, nil)

	recorder := postJSON(t, mux, "/checkout", `{"userId":"u1","items":[{"productId":"A","qty":2},{"productId":"B","qty":1}]}`)

	require.Equal(t, http.StatusOK, recorder.Code)
	var resp struct {
		OK      bool   `json:"ok"`
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.True(t, resp.OK)
	assert.Equal(t, "order-test", resp.OrderID)
	assert.Equal(t, 8, stock.stocks["A"])
	assert.Equal(t, 4, stock.stocks["B"])
}

func TestHandleCheckout_RejectionListsFailures(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 10, "B": 0}, nil)

	recorder := postJSON(t, mux, "/checkout",
		`{"items":[{"productId":"A","qty":10},{"productId":"B","qty":1},{"productId":"Z","qty":1}]}`)

	// 业务拒绝不是传输错误: 200 + ok:false
	require.Equal(t, http.StatusOK, recorder.Code)

	var resp struct {
		OK       bool `json:"ok"`
		Failures []struct {
			ProductID string `json:"productId"`
			Reason    string `json:"reason"`
			Available *int   `json:"available"`
			Needed    *int   `json:"needed"`
		} `json:"failures"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
	assert.False(t, resp.OK)
	require.Len(t, resp.Failures, 2)

	byProduct := map[string]int{}
	for i, f := range resp.Failures {
		byProduct[f.ProductID] = i
	}
	b := resp.Failures[byProduct["B"]]
	assert.Equal(t, "OUT_OF_STOCK", b.Reason)
	require.NotNil(t, b.Available)
	assert.Equal(t, 0, *b.Available)
	require.NotNil(t, b.Needed)
	assert.Equal(t, 1, *b.Needed)
	// 余量为 0 也要出现在响应体里，而不是被 omitempty 吞掉
	assert.Contains(t, recorder.Body.String(), `"available":0`)

	z := resp.Failures[byProduct["Z"]]
	assert.Equal(t, "NOT_FOUND", z.Reason)
	assert.Nil(t, z.Available)
}

func TestHandleCheckout_EmptyCartIsBadRequest(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 10}, nil)

	recorder := postJSON(t, mux, "/checkout", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleCheckout_MalformedBodyIsBadRequest(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 10}, nil)

	recorder := postJSON(t, mux, "/checkout", `{not json`)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestHandleCheckout_InfraErrorIsServiceUnavailable(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 10}, errors.New("backend down"))

	recorder := postJSON(t, mux, "/checkout", `{"items":[{"productId":"A","qty":1}]}`)
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHandleValidateAdd(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 5}, nil)

	t.Run("可满足", func(t *testing.T) {
		recorder := postJSON(t, mux, "/validate_add", `{"productId":"A","qty":3}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		var resp struct {
			OK    bool `json:"ok"`
			Stock *int `json:"stock"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.True(t, resp.OK)
		require.NotNil(t, resp.Stock)
		assert.Equal(t, 5, *resp.Stock)
	})

	t.Run("库存不足", func(t *testing.T) {
		recorder := postJSON(t, mux, "/validate_add", `{"productId":"A","qty":6}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		var resp struct {
			OK     bool   `json:"ok"`
			Reason string `json:"reason"`
			Stock  *int   `json:"stock"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Equal(t, "OUT_OF_STOCK", resp.Reason)
		require.NotNil(t, resp.Stock)
		assert.Equal(t, 5, *resp.Stock)
	})

	t.Run("商品不存在时不返回余量", func(t *testing.T) {
		recorder := postJSON(t, mux, "/validate_add", `{"productId":"missing","qty":1}`)
		require.Equal(t, http.StatusOK, recorder.Code)
		var resp struct {
			OK     bool   `json:"ok"`
			Reason string `json:"reason"`
			Stock  *int   `json:"stock"`
		}
		require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &resp))
		assert.False(t, resp.OK)
		assert.Equal(t, "NOT_FOUND", resp.Reason)
		assert.Nil(t, resp.Stock)
	})

	t.Run("非法数量", func(t *testing.T) {
		recorder := postJSON(t, mux, "/validate_add", `{"productId":"A","qty":0}`)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestHandleGetOrder(t *testing.T) {
	mux, _ := newTestMux(t, map[string]int{"A": 5}, nil)

	// 先成立一笔订单
	recorder := postJSON(t, mux, "/checkout", `{"userId":"u1","items":[{"productId":"A","qty":1}]}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	req := httptest.NewRequest(http.MethodGet, "/get_order?id=order-test", nil)
	getRecorder := httptest.NewRecorder()
	mux.ServeHTTP(getRecorder, req)
	require.Equal(t, http.StatusOK, getRecorder.Code)
	var resp struct {
		OrderID string `json:"orderId"`
		State   string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(getRecorder.Body.Bytes(), &resp))
	assert.Equal(t, "order-test", resp.OrderID)
	assert.Equal(t, string(domain.StateCommitted), resp.State)

	req = httptest.NewRequest(http.MethodGet, "/get_order?id=missing", nil)
	notFound := httptest.NewRecorder()
	mux.ServeHTTP(notFound, req)
	assert.Equal(t, http.StatusNotFound, notFound.Code)
}
