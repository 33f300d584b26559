// internal/service/inventory/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"

	"paddock/internal/service/inventory/application"
	"paddock/internal/service/inventory/domain"
)

const serviceName = "inventory-service"

// InventoryHandler 封装了 inventory 服务的 HTTP 处理器。
type InventoryHandler struct {
	service *application.InventoryService
}

func NewInventoryHandler(service *application.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *InventoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stock", h.handleGetStock)
	mux.HandleFunc("/restock", h.handleRestock)
	mux.HandleFunc("/create_product", h.handleCreateProduct)
	mux.HandleFunc("/get_product", h.handleGetProduct)
}

// handleGetStock 是库存查询服务的唯一读接口: 无副作用，404 表示商品不存在。
func (h *InventoryHandler) handleGetStock(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "inventory-service.GetStock")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	if productID == "" {
		http.Error(w, "productId is required", http.StatusBadRequest)
		return
	}
	span.SetAttributes(attribute.String("product.id", productID))

	quantity, err := h.service.GetStock(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		span.RecordError(err)
		http.Error(w, "unable to read stock", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"productId": productID,
		"quantity":  quantity,
	})
}

func (h *InventoryHandler) handleRestock(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "inventory-service.Restock")
	defer span.End()

	productID := r.URL.Query().Get("productId")
	quantity, err := strconv.Atoi(r.URL.Query().Get("quantity"))
	if err != nil {
		http.Error(w, "quantity must be an integer", http.StatusBadRequest)
		return
	}

	newQuantity, err := h.service.Restock(ctx, productID, quantity)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidQuantity):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			span.RecordError(err)
			http.Error(w, "unable to restock", http.StatusServiceUnavailable)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"productId": productID,
		"quantity":  newQuantity,
	})
}

func (h *InventoryHandler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	tracer := otel.Tracer(serviceName)
	ctx, span := tracer.Start(ctx, "inventory-service.CreateProduct")
	defer span.End()

	var req struct {
		Name         string `json:"name"`
		Description  string `json:"description"`
		PriceCents   int64  `json:"priceCents"`
		InitialStock int    `json:"initialStock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.service.CreateProduct(ctx, req.Name, req.Description, req.PriceCents, req.InitialStock)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidProduct), errors.Is(err, domain.ErrNegativeStock):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			span.RecordError(err)
			http.Error(w, "unable to create product", http.StatusServiceUnavailable)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{"id": product.ID})
}

func (h *InventoryHandler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	productID := r.URL.Query().Get("id")
	if productID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	product, err := h.service.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, "unable to read product", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":           product.ID,
		"name":         product.Name,
		"description":  product.Description,
		"priceCents":   product.PriceCents,
		"availableQty": product.AvailableQty,
	})
}
