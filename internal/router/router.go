// Package router 提供 HTTP 路由注册
// 本文件是路由注册的入口，聚合所有子模块的路由
package router

import (
	"kindergarten_server/internal/handler"
	"kindergarten_server/internal/infrastructure/metrics"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/model"

	"github.com/gin-gonic/gin"
)

// Router 持有 Handler 聚合对象，按模块注册路由
type Router struct {
	handlers      *handler.Handlers
	paymentSecret string // 支付回调验签密钥
}

// NewRouter 创建路由管理器
func NewRouter(handlers *handler.Handlers, paymentSecret string) *Router {
	return &Router{handlers: handlers, paymentSecret: paymentSecret}
}

// staffOnly 管理员与园长可访问
func staffOnly() gin.HandlerFunc {
	return middleware.RequireRoles(model.RoleAdmin, model.RolePrincipal)
}

// staffAndTeachers 教职工可访问
func staffAndTeachers() gin.HandlerFunc {
	return middleware.RequireRoles(model.RoleAdmin, model.RolePrincipal, model.RoleTeacher)
}

// RegisterRoutes 注册所有路由
// 公开接口挂在 /api 下，其余接口统一经过 JWTAuth
func (rt *Router) RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", metrics.Handler())

	public := r.Group("/api")
	authed := r.Group("/api")
	authed.Use(middleware.JWTAuth())

	rt.RegisterAuthRoutes(public, authed)
	rt.RegisterKindergartenRoutes(authed)
	rt.RegisterStudentRoutes(authed)
	rt.RegisterEnrollmentRoutes(authed)
	rt.RegisterActivityRoutes(authed)
	rt.RegisterOrderRoutes(public, authed)
	rt.RegisterMarketingRoutes(public, authed)
	rt.RegisterNotificationRoutes(authed)
	rt.RegisterAnalyticsRoutes(authed)

	ws := r.Group("")
	ws.Use(middleware.JWTAuth())
	rt.RegisterWebSocketRoutes(ws)
}
