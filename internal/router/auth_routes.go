// Package router 提供 HTTP 路由注册
// 本文件定义认证相关的路由
package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes 注册认证相关路由
func (rt *Router) RegisterAuthRoutes(public, authed *gin.RouterGroup) {
	h := rt.handlers.Auth

	authGroup := public.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		// 使用 Refresh Token 换取新的 Token 对
		authGroup.POST("/refresh", h.Refresh)
		authGroup.POST("/sms/send", h.SendSmsCode)
		authGroup.POST("/sms/login", h.SmsLogin)
	}

	meGroup := authed.Group("/auth")
	{
		meGroup.GET("/me", h.Me)
		meGroup.POST("/logout", h.Logout)
	}
}
