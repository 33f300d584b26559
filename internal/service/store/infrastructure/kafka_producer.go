// internal/service/store/infrastructure/kafka_producer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/mq"
	"paddock/internal/service/store/domain"
)

// OrderProducerAdapter 把 OrderPlaced 事件写入 Kafka。
type OrderProducerAdapter struct {
	writer *kafka.Writer
}

func NewOrderProducerAdapter(writer *kafka.Writer) *OrderProducerAdapter {
	return &OrderProducerAdapter{writer: writer}
}

func (p *OrderProducerAdapter) ProduceOrderPlaced(ctx context.Context, event *domain.OrderPlaced) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to marshal order placed event")
		return err
	}

	// 以订单号为 key，同一订单的消息落在同一分区
	if err := mq.ProduceMessage(ctx, p.writer, []byte(event.OrderID), eventBytes); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("failed to produce order placed event to kafka")
		return err
	}
	return nil
}
