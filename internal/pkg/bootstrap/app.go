// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"paddock/internal/pkg/logger"
	"paddock/internal/pkg/nacos"
	"paddock/internal/pkg/tracing"
	"paddock/internal/pkg/utils"
)

// AppCtx 传递给各服务的路由注册函数。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo 包含了启动一个微服务所需的所有特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx) // 每个服务注册自己独特的 HTTP 路由
	// OnShutdown 在 HTTP 服务器关闭前执行，用于释放服务自己持有的资源
	OnShutdown func(ctx context.Context)
}

// StartService 封装了所有微服务的通用启动和优雅关停逻辑。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := GetCurrentConfig()

	// 1. Tracer
	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	// 2. Nacos 命名客户端
	namingClient, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	// 3. 获取本机 IP 并注册服务
	ip, err := utils.GetOutboundIP()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to get outbound IP address")
	}
	if err := namingClient.RegisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger.Fatal().Err(err).Msg("failed to register service with nacos")
	}

	// 4. 创建并启动 HTTP Server
	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: namingClient})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		logger.Logger.Info().Int("port", info.Port).Msg("service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Str("addr", server.Addr).Msg("could not listen")
		}
	}()

	// 5. 阻塞等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msg("shutting down service")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 6. 按后进先出的顺序清理
	// a. 从 Nacos 注销
	if err := namingClient.DeregisterServiceInstance(info.ServiceName, ip, info.Port); err != nil {
		logger.Logger.Error().Err(err).Msg("error deregistering from nacos")
	}

	// b. 服务自身的资源 (kafka writer、db 连接等)
	if info.OnShutdown != nil {
		info.OnShutdown(ctx)
	}

	// c. 关闭 Tracer Provider，确保缓冲的 trace 都被发送出去
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down tracer provider")
	}

	// d. 关闭 HTTP 服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("error shutting down http server")
	}

	logger.Logger.Info().Msg("service gracefully shut down")
}
