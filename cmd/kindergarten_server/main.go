package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"kindergarten_server/internal/config"
	dao "kindergarten_server/internal/dao/mysql"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/internal/gateway/websocket"
	"kindergarten_server/internal/handler"
	"kindergarten_server/internal/https_server"
	"kindergarten_server/internal/infrastructure/email"
	"kindergarten_server/internal/infrastructure/logger"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/infrastructure/sms"
	"kindergarten_server/internal/service"
	"kindergarten_server/pkg/util/jwt"
	"kindergarten_server/pkg/util/snowflake"

	"go.uber.org/zap"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	// 3. 初始化数据库
	repos, err := dao.Init(conf)
	if err != nil {
		zap.L().Fatal("数据库初始化失败", zap.Error(err))
	}
	zap.L().Info("数据库初始化成功")

	// 4. 初始化 Redis
	cache, err := myredis.Init(&conf.RedisConfig)
	if err != nil {
		zap.L().Fatal("Redis 初始化失败", zap.Error(err))
	}
	zap.L().Info("Redis 初始化成功")

	// 5. JWT 与订单号生成器
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry, conf.JWTConfig.RefreshTokenExpiry)
	if err := snowflake.Init(conf.SnowflakeConfig.MachineID); err != nil {
		zap.L().Fatal("Snowflake 初始化失败", zap.Error(err))
	}

	// 6. 短信与邮件通道
	smsSvc, err := sms.Init(conf.AuthCodeConfig, cache)
	if err != nil {
		zap.L().Fatal("SMS Service 初始化失败", zap.Error(err))
	}
	emailSvc := email.NewEmailService(conf.EmailConfig)

	// 7. 推送网关与营销事件总线
	hub := websocket.NewHub()
	bus := mq.NewEventBus(conf.KafkaConfig)
	zap.L().Info("事件总线初始化成功", zap.String("mode", conf.MessageMode))

	// 8. Service 层 (依赖注入)，消费者注册需在总线启动前完成
	svc, err := service.NewServices(service.Deps{
		Repos:  repos,
		Cache:  cache,
		Bus:    bus,
		Sms:    smsSvc,
		Email:  emailSvc,
		Pusher: hub,
		Conf:   conf,
	})
	if err != nil {
		zap.L().Fatal("Service 层初始化失败", zap.Error(err))
	}

	// 9. 初始化 HTTP 服务器
	engine := https_server.Init(handler.NewHandlers(svc, hub), conf)
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 10. 启动后台循环
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	background := []func(context.Context){hub.Start, bus.Start, svc.Jobs().Start}
	for _, run := range background {
		run := run
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(ctx)
		}()
	}

	go func() {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("server running fault", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zap.L().Info("关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP 服务关闭失败", zap.Error(err))
	}
	hub.Close()
	if err := bus.Close(); err != nil {
		zap.L().Warn("事件总线关闭失败", zap.Error(err))
	}
	wg.Wait()

	if err := cache.Close(); err != nil {
		zap.L().Warn("Redis 关闭失败", zap.Error(err))
	}
	if db, err := repos.DB().DB(); err == nil {
		_ = db.Close()
	}
	zap.L().Info("服务器已关闭")
}
