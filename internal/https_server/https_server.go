// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"kindergarten_server/internal/config"
	"kindergarten_server/internal/handler"
	"kindergarten_server/internal/infrastructure/logger"
	"kindergarten_server/internal/infrastructure/metrics"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/router"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Init 创建 Gin 引擎并注册中间件与路由
// 中间件顺序：日志 -> panic 恢复 -> 指标 -> CORS -> (可选) HTTPS 重定向
func Init(handlers *handler.Handlers, conf *config.Config) *gin.Engine {
	if conf.MainConfig.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()

	// 只采信可信代理写入的 X-Forwarded-For，ClientIP 用于助力的 IP 限额
	if err := engine.SetTrustedProxies(conf.TrustedProxies); err != nil {
		zap.L().Error("trustedProxies 配置无效，改为不信任任何代理", zap.Strings("trustedProxies", conf.TrustedProxies), zap.Error(err))
		_ = engine.SetTrustedProxies(nil)
	}

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))
	engine.Use(metrics.GinMetrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 生产环境应指定具体域名
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 TLS 时保持 enableTLS=false
	if conf.EnableTLS {
		engine.Use(middleware.TlsHandler(conf.MainConfig.Host, conf.MainConfig.Port, conf.MainConfig.Mode == "dev"))
	}

	router.NewRouter(handlers, conf.CallbackSecret).RegisterRoutes(engine)
	return engine
}
