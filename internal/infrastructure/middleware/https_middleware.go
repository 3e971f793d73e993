// Package middleware 提供 Gin 中间件：JWT 认证、角色校验、HTTPS 重定向
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// TlsHandler HTTP -> HTTPS 重定向并附加安全响应头
// 由 mainConfig.enableTLS 开启；由 Nginx 终止 TLS 时保持关闭
func TlsHandler(host string, port int, isDev bool) gin.HandlerFunc {
	secureMiddleware := secure.New(secure.Options{
		SSLRedirect:          true,
		SSLHost:              host + ":" + strconv.Itoa(port),
		SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
		FrameDeny:            true,
		ContentTypeNosniff:   true,
		BrowserXssFilter:     true,
		IsDevelopment:        isDev,
		STSSeconds:           31536000,
		STSIncludeSubdomains: true,
	})

	return func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			// 重定向时 Process 已写出响应
			zap.L().Warn("secure middleware rejected request", zap.Error(err))
			c.Abort()
			return
		}
		// 重定向响应已写出
		if status := c.Writer.Status(); status > 300 && status < 399 {
			c.Abort()
			return
		}
		c.Next()
	}
}
