// internal/pkg/constants/constants.go
package constants

// 服务注册名，store-service 通过 Nacos 按名字发现下游
const (
	StoreService     = "store-service"
	InventoryService = "inventory-service"
	LiveGateway      = "live-gateway"
)

// inventory-service 的 HTTP 路径
const (
	InventoryStockPath = "/stock"
)

// Kafka Topics
const (
	OrderPlacedTopic = "order-placed-topic"
	LapTimesTopic    = "lap-times-topic"
)
