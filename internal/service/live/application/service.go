// internal/service/live/application/service.go
package application

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"paddock/internal/pkg/logger"
	"paddock/internal/service/live/domain"
)

// Broadcaster 把一条消息推送给某个场次的全部订阅者。
// WebSocket Hub 实现这个接口；应用层不关心连接管理。
type Broadcaster interface {
	Broadcast(sessionID string, payload []byte)
}

// LiveService 实现榜单的"更新即广播"契约:
// 每条被存储接受的圈速都会让该场次的订阅者收到一份新快照。
type LiveService struct {
	store       domain.LeaderboardStore
	broadcaster Broadcaster
	tracer      trace.Tracer
}

func NewLiveService(store domain.LeaderboardStore, broadcaster Broadcaster, tracer trace.Tracer) *LiveService {
	return &LiveService{store: store, broadcaster: broadcaster, tracer: tracer}
}

// HandleLapUpdate 合并一条圈速并广播更新后的榜单。
func (s *LiveService) HandleLapUpdate(ctx context.Context, update *domain.LapUpdate) error {
	ctx, span := s.tracer.Start(ctx, "live.HandleLapUpdate", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", update.SessionID),
		attribute.String("driver.id", update.DriverID),
	)

	snapshot, err := s.store.Apply(ctx, update)
	if err != nil {
		span.RecordError(err)
		return err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		span.RecordError(err)
		return err
	}
	s.broadcaster.Broadcast(update.SessionID, payload)

	logger.Ctx(ctx).Debug().
		Str("session_id", update.SessionID).
		Int("entries", len(snapshot.Entries)).
		Msg("leaderboard updated and broadcast")
	return nil
}

// Snapshot 返回一个场次的当前榜单，用于新连接的初始推送。
func (s *LiveService) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return s.store.Snapshot(ctx, sessionID)
}
