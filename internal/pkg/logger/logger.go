// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的 zerolog 实例，由 Init 初始化。
var Logger zerolog.Logger

// Init 初始化全局日志器，为所有日志附加 service 字段。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个关联了追踪信息的日志器。
// 如果 ctx 中存在有效的 Span，日志会自动带上 trace_id 和 span_id，
// 方便在 Jaeger 和日志系统之间互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", spanCtx.TraceID().String()).
		Str("span_id", spanCtx.SpanID().String()).
		Logger()
	return &l
}
