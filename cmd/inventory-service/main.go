// cmd/inventory-service/main.go
package main

import (
	"context"
	"time"

	gosqlmysql "github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"paddock/internal/pkg/bootstrap"
	"paddock/internal/pkg/constants"
	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/redis"
	"paddock/internal/pkg/zookeeper"
	"paddock/internal/service/inventory/application"
	"paddock/internal/service/inventory/infrastructure"
	"paddock/internal/service/inventory/interfaces"
)

const servicePort = 8081

// main 是 inventory-service 的组装根。
func main() {
	bootstrap.Init()
	cfg := bootstrap.GetCurrentConfig()

	var (
		redisClient *redis.Client
		zkConn      *zookeeper.Conn
		db          *gorm.DB
	)

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: constants.InventoryService,
		Port:        servicePort,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			tracer := otel.Tracer(constants.InventoryService)

			// 1. MySQL: 商品与库存的事实来源
			var err error
			db, err = gorm.Open(mysql.Open(buildDSN(cfg)), &gorm.Config{})
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to connect to mysql")
			}
			repo := infrastructure.NewGormProductRepository(db)

			// 2. Redis: 库存读缓存
			redisClient = redis.NewClient(cfg.Infra.Redis.Addr)
			cache := infrastructure.NewRedisStockCache(redisClient)

			// 3. Zookeeper: 补货时的分布式锁，防止并发补货互相覆盖
			zkConn, err = zookeeper.Connect(cfg.Infra.Zookeeper.Servers, 5*time.Second)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("failed to connect to zookeeper")
			}
			locker := infrastructure.NewZookeeperLocker(zkConn)

			service := application.NewInventoryService(repo, cache, locker, tracer)
			interfaces.NewInventoryHandler(service).RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: func(ctx context.Context) {
			if zkConn != nil {
				zkConn.Close()
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
