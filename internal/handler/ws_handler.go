// Package handler 提供 HTTP 请求处理器
// 本文件处理 WebSocket 连接相关的 API 请求
package handler

import (
	"kindergarten_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// WsServer 升级连接并登记到推送网关
type WsServer interface {
	ServeWS(c *gin.Context, userID uint)
}

// WsHandler 站内通知推送连接
type WsHandler struct {
	hub WsServer
}

// NewWsHandler 创建 WebSocket 处理器
func NewWsHandler(hub WsServer) *WsHandler {
	return &WsHandler{hub: hub}
}

// Connect 升级为 WebSocket 连接
// GET /ws?token=xxx
// 浏览器无法为 WebSocket 设置请求头，Token 通过 query 传递，由 JWT 中间件解析
func (h *WsHandler) Connect(c *gin.Context) {
	h.hub.ServeWS(c, middleware.CurrentUserID(c))
}
