package https_server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/handler"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestInit_CorsAndAuth(t *testing.T) {
	conf := &config.Config{}
	conf.ApplyDefaults()
	engine := Init(handler.NewHandlers(&service.Services{}, nil), conf)

	req := httptest.NewRequest(http.MethodOptions, "/api/students", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/students", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInit_TLSRedirect(t *testing.T) {
	conf := &config.Config{}
	conf.ApplyDefaults()
	conf.EnableTLS = true
	conf.MainConfig.Mode = "release"
	conf.MainConfig.Host = "example.com"
	conf.MainConfig.Port = 8443
	engine := Init(handler.NewHandlers(&service.Services{}, nil), conf)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "http://example.com/metrics", nil))
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "https://example.com:8443/metrics", w.Header().Get("Location"))
}

func TestInit_ClientIPOnlyFromTrustedProxies(t *testing.T) {
	clientIP := func(proxies []string) string {
		conf := &config.Config{}
		conf.ApplyDefaults()
		conf.TrustedProxies = proxies
		engine := Init(handler.NewHandlers(&service.Services{}, nil), conf)
		engine.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.ClientIP()) })

		req := httptest.NewRequest(http.MethodGet, "/ip", nil)
		req.RemoteAddr = "192.0.2.10:40000"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Body.String()
	}

	// 未配置代理时伪造的 X-Forwarded-For 不生效
	assert.Equal(t, "192.0.2.10", clientIP(nil))
	assert.Equal(t, "203.0.113.7", clientIP([]string{"192.0.2.0/24"}))
	assert.Equal(t, "192.0.2.10", clientIP([]string{"not-an-ip"}))
}
