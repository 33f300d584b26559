// cmd/live-gateway/main.go
package main

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"paddock/internal/pkg/bootstrap"
	"paddock/internal/pkg/constants"
	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/mq"
	"paddock/internal/pkg/redis"
	"paddock/internal/service/live/application"
	"paddock/internal/service/live/infrastructure"
	"paddock/internal/service/live/interfaces"
)

const (
	servicePort      = 8082
	lapConsumerGroup = "live-gateway-group"
)

// main 是 live-gateway 的组装根。
// 它消费圈速消息流，维护内存榜单，并通过 WebSocket 把快照推给订阅者。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	// 每个网关实例有唯一的节点 ID，会话路由靠它定位用户所在实例
	nodeID := constants.LiveGateway + "-" + uuid.New().String()[:8]

	var (
		redisClient *redis.Client
		consumer    *infrastructure.LapConsumer
		consumerCtx context.Context
		stopConsume context.CancelFunc
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.LiveGateway,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.LiveGateway)

			hub := interfaces.NewHub()
			go hub.Run()

			store := infrastructure.NewMemoryLeaderboardStore()
			service := application.NewLiveService(store, hub, tracer)

			// 圈速消息消费
			reader := mq.NewReader(cfg.Infra.Kafka.Brokers, lapConsumerGroup, constants.LapTimesTopic)
			consumer = infrastructure.NewLapConsumer(reader, service)
			consumerCtx, stopConsume = context.WithCancel(context.Background())
			go func() {
				if err := consumer.Run(consumerCtx); err != nil && consumerCtx.Err() == nil {
					logger.Logger.Fatal().Err(err).Msg("lap consumer stopped unexpectedly")
				}
			}()

			redisClient = redis.NewClient(cfg.Infra.Redis.Addr)
			sessionMgr := infrastructure.NewSessionManager(redisClient)

			interfaces.NewLiveHandler(hub, service, sessionMgr, nodeID).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if stopConsume != nil {
				stopConsume()
			}
			if consumer != nil {
				if err := consumer.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing lap consumer")
				}
			}
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing redis client")
				}
			}
		},
	})
}
