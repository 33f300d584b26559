// internal/pkg/mq/mq.go
package mq

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// NewWriter 创建一个指向单个 topic 的 Kafka Writer。
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{}, // 按 key 分区，保证同一聚合的消息有序
	}
}

// NewReader 创建一个消费组 Reader。
func NewReader(brokers []string, groupID, topic string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
}

// ProduceMessage 发送一条消息，并把当前的追踪上下文注入到消息头。
func ProduceMessage(ctx context.Context, writer *kafka.Writer, key, value []byte) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
	}
	carrier := newMessageCarrier(&msg)
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return writer.WriteMessages(ctx, msg)
}

// ExtractTraceContext 从消费到的消息头中恢复追踪上下文。
func ExtractTraceContext(ctx context.Context, msg *kafka.Message) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, newMessageCarrier(msg))
}

// messageCarrier 让 kafka.Message 的 Headers 满足 otel 的 TextMapCarrier。
type messageCarrier struct {
	msg *kafka.Message
}

var _ propagation.TextMapCarrier = messageCarrier{}

func newMessageCarrier(msg *kafka.Message) messageCarrier {
	return messageCarrier{msg: msg}
}

func (c messageCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c messageCarrier) Set(key, value string) {
	// 覆盖同名 header，而不是追加
	for i, h := range c.msg.Headers {
		if h.Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c messageCarrier) Keys() []string {
	keys := make([]string, 0, len(c.msg.Headers))
	for _, h := range c.msg.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}
