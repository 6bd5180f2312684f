package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"guild-ledger/backend/internal/api/handler"
	"guild-ledger/backend/internal/api/router"
	"guild-ledger/backend/internal/service"
	"guild-ledger/backend/pkg/events"
	"guild-ledger/backend/pkg/jwt"
	"guild-ledger/backend/pkg/kafka"
	"guild-ledger/backend/pkg/metrics"
	"guild-ledger/backend/pkg/realtime"
	"guild-ledger/backend/pkg/redis"
	"guild-ledger/backend/pkg/tracing"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve()
		},
	}
}

func serve() error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	cfg, logger := a.cfg, a.logger
	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 链路追踪
	shutdownTracing, err := tracing.Setup(ctx, &cfg.Trace, logger)
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}

	// 2. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var blacklist service.TokenBlacklist
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
		rdb = nil
	} else {
		blacklist = rdb
	}

	// 3. 事件投递：WebSocket 广播 + 可选 Kafka
	hub := realtime.NewHub(logger, cfg.Server.CORS.AllowOrigins)
	go hub.Run(ctx)

	publishers := events.Multi{hub}
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(&cfg.Kafka, logger)
		publishers = append(publishers, producer)
		logger.Info("Kafka 事件投递已启用", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var m *metrics.Manager
	if cfg.Metrics.Enabled {
		m = metrics.NewManager()
	}

	// 4. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      a.repo,
		JWT:       jwtMgr,
		Blacklist: blacklist,
		Publisher: publishers,
		Metrics:   m,
		Logger:    logger,
	})
	h := handler.NewHandler(svc)

	// 5. 初始化路由
	engine := router.Setup(router.Deps{
		Config:   cfg,
		Handler:  h,
		JWT:      jwtMgr,
		Redis:    rdb,
		Metrics:  m,
		Realtime: hub,
		Ping:     a.repo.Ping,
		Logger:   logger,
	})

	// 6. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      otelhttp.NewHandler(engine, cfg.Trace.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 7. 等待系统信号或服务器异常
	select {
	case <-ctx.Done():
		logger.Info("收到关闭信号，开始优雅关闭...")
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP 服务器异常", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	stop()

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Warn("关闭 Kafka 生产者失败", zap.Error(err))
		}
	}
	if rdb != nil {
		rdb.Close()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("关闭链路追踪失败", zap.Error(err))
	}

	logger.Info("服务器已关闭", zap.String("program", programName), zap.Int("pid", os.Getpid()))
	return nil
}
