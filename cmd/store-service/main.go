// cmd/store-service/main.go
package main

import (
	"context"
	"time"

	gosqlmysql "github.com/go-sql-driver/mysql"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"paddock/internal/pkg/bootstrap"
	"paddock/internal/pkg/constants"
	"paddock/internal/pkg/httpclient"
	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/metrics"
	"paddock/internal/pkg/mq"
	"paddock/internal/pkg/redis"
	"paddock/internal/service/store/application"
	"paddock/internal/service/store/domain"
	"paddock/internal/service/store/domain/port"
	"paddock/internal/service/store/infrastructure"
	"paddock/internal/service/store/infrastructure/adapter"
	"paddock/internal/service/store/interfaces"
)

const servicePort = 8080

// main 是 store-service 的组装根：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	// 在 RegisterHandlers 里创建、在 OnShutdown 里释放的资源
	var (
		kafkaWriter *kafka.Writer
		redisClient *redis.Client
		db          *gorm.DB
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.StoreService,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.StoreService)

			// 1. MySQL (订单持久化，可选的库存后端)
			var err error
			db, err = gorm.Open(mysql.Open(buildDSN(cfg)), &gorm.Config{})
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			orderRepo := infrastructure.NewGormOrderRepository(db)

			// 2. Redis
			redisClient = redis.NewClient(cfg.Infra.Redis.Addr)

			// 3. 库存后端: 提交阶段的条件扣减走哪里
			var stockStore domain.StockStore
			switch cfg.App.StockBackend {
			case "redis":
				stockStore, err = infrastructure.NewRedisStockStore(redisClient)
				if err != nil {
					logger.Logger.Fatal().Err(err).Msg("failed to initialize redis stock store")
				}
			default:
				stockStore = infrastructure.NewGormStockStore(db)
			}

			// 4. 库存读取: local 直连库存后端，http 经 Nacos 发现 inventory-service
			var inventory port.InventoryReader
			if cfg.App.InventoryMode == "http" {
				inventory = adapter.NewInventoryHTTPAdapter(httpclient.NewClient(tracer, appCtx.Nacos))
			} else {
				inventory = adapter.NewInventoryLocalAdapter(stockStore)
			}

			// 5. Kafka: 订单成功事件
			kafkaWriter = mq.NewWriter(cfg.Infra.Kafka.Brokers, constants.OrderPlacedTopic)
			producer := infrastructure.NewOrderProducerAdapter(kafkaWriter)

			// 6. 购买策略 (CEL 规则)
			policy, err := infrastructure.NewCELPurchasePolicy(cfg.App.PurchasePolicies)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("invalid purchase policy expression")
			}

			checkoutService := application.NewCheckoutService(
				inventory,
				stockStore,
				orderRepo,
				infrastructure.NewUUIDGenerator(),
				policy,
				producer,
				tracer,
				metrics.NewCheckoutMetrics(),
				time.Duration(cfg.App.ProcessingTimeoutMs)*time.Millisecond,
			)

			interfaces.NewStoreHandler(checkoutService).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if kafkaWriter != nil {
				if err := kafkaWriter.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing kafka writer")
				}
			}
			if redisClient != nil {
				if err := redisClient.Close(); err != nil {
					logger.Logger.Error().Err(err).Msg("error closing redis client")
				}
			}
			if db != nil {
				if sqlDB, err := db.DB(); err == nil {
					sqlDB.Close()
				}
			}
		},
	})
}

// buildDSN 用官方 driver 的 Config 拼 DSN，避免手写转义问题。
func buildDSN(cfg *bootstrap.Config) string {
	dsnCfg := gosqlmysql.NewConfig()
	dsnCfg.Net = "tcp"
	dsnCfg.Addr = cfg.Infra.Mysql.Addr
	dsnCfg.User = cfg.Infra.Mysql.User
	dsnCfg.Passwd = cfg.Infra.Mysql.Password
	dsnCfg.DBName = cfg.Infra.Mysql.Database
	dsnCfg.ParseTime = true
	dsnCfg.Loc = time.Local
	return dsnCfg.FormatDSN()
}
