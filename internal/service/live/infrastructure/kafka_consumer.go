// internal/service/live/infrastructure/kafka_consumer.go
package infrastructure

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/mq"
	"paddock/internal/service/live/application"
	"paddock/internal/service/live/domain"
)

// LapConsumer 消费计时系统发布的圈速消息并交给应用层处理。
type LapConsumer struct {
	reader  *kafka.Reader
	service *application.LiveService
}

func NewLapConsumer(reader *kafka.Reader, service *application.LiveService) *LapConsumer {
	return &LapConsumer{reader: reader, service: service}
}

// Run 阻塞地消费消息，直到 ctx 被取消。
// 单条消息的失败只记录，不中断消费循环。
func (c *LapConsumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		msgCtx := mq.ExtractTraceContext(ctx, &msg)

		var update domain.LapUpdate
		if err := json.Unmarshal(msg.Value, &update); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Msg("dropping malformed lap update")
		} else if err := c.service.HandleLapUpdate(msgCtx, &update); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).
				Str("session_id", update.SessionID).
				Msg("failed to apply lap update")
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(msgCtx).Error().Err(err).Msg("failed to commit lap update offset")
		}
	}
}

func (c *LapConsumer) Close() error {
	return c.reader.Close()
}
