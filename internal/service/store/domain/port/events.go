// internal/service/store/domain/port/events.go
package port

import (
	"context"

	"paddock/internal/service/store/domain"
)

// OrderEventProducer 把订单事件发布到消息队列。
// 发布失败不应使已提交的结账失败，由调用方决定记录与补偿策略。
type OrderEventProducer interface {
	ProduceOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error
}
