// internal/service/store/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/metrics"
	"paddock/internal/service/store/application"
	"paddock/internal/service/store/domain"
)

const serviceName = "store-service"

// StoreHandler 封装了 store 服务的 HTTP 处理器。
type StoreHandler struct {
	service *application.CheckoutService
}

// NewStoreHandler 创建一个新的 HTTP 处理器实例。
func NewStoreHandler(service *application.CheckoutService) *StoreHandler {
	return &StoreHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *StoreHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/checkout", h.handleCheckout)
	mux.HandleFunc("/validate_add", h.handleValidateAdd)
	mux.HandleFunc("/get_order", h.handleGetOrder)
}

// checkoutResponse 是 /checkout 的响应体。
// 业务拒绝与基础设施错误走不同通道: 拒绝返回 200 + ok:false + failures，
// "无法处理"返回 5xx，调用方据此决定是改购物车还是稍后重试。
type checkoutResponse struct {
	OK       bool              `json:"ok"`
	OrderID  string            `json:"orderId,omitempty"`
	Failures []lineFailureBody `json:"failures,omitempty"`
}

type lineFailureBody struct {
	ProductID string `json:"productId"`
	Reason    string `json:"reason"`
	Available *int   `json:"available,omitempty"`
	Needed    *int   `json:"needed,omitempty"`
}

type validateAddResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
	Stock  *int   `json:"stock,omitempty"`
}

func (h *StoreHandler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "store-service.Checkout")
	defer span.End()

	var req application.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.service.Checkout(ctx, &req)
	if err != nil {
		if domain.IsInvalidRequest(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// 存储/传输类失败: 订单没有被拒绝，而是没能被处理
		logger.Ctx(ctx).Error().Err(err).Msg("checkout could not be processed")
		http.Error(w, "unable to process checkout", http.StatusServiceUnavailable)
		return
	}

	resp := checkoutResponse{OK: outcome.Committed, OrderID: outcome.OrderID}
	for _, f := range outcome.Failures {
		body := lineFailureBody{ProductID: f.ProductID, Reason: string(f.Reason)}
		if f.Reason == domain.ReasonOutOfStock {
			available, needed := f.Available, f.Needed
			body.Available = &available
			body.Needed = &needed
		}
		resp.Failures = append(resp.Failures, body)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *StoreHandler) handleValidateAdd(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "store-service.ValidateAdd")
	defer span.End()

	var req struct {
		ProductID string `json:"productId"`
		Qty       int    `json:"qty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.service.ValidateAdd(ctx, req.ProductID, req.Qty)
	if err != nil {
		if domain.IsInvalidRequest(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Ctx(ctx).Error().Err(err).Msg("validate_add could not be processed")
		http.Error(w, "unable to validate item", http.StatusServiceUnavailable)
		return
	}

	resp := validateAddResponse{OK: result.OK, Reason: string(result.Reason)}
	if result.Known {
		stock := result.Stock
		resp.Stock = &stock
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *StoreHandler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	orderID := r.URL.Query().Get("id")
	if orderID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	order, err := h.service.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	lastUpdated := order.UpdatedAt.Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"orderId":   order.ID,
		"userId":    order.UserID,
		"state":     order.State,
		"updatedAt": lastUpdated,
	})
}
