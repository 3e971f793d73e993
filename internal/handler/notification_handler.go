package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 站内信
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建站内信处理器
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var req request.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.notificationSvc.List(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UnreadCount GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.notificationSvc.UnreadCount(middleware.CurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.UnreadCountRespond{Count: n})
}

// MarkRead POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationSvc.MarkRead(middleware.CurrentUserID(c), id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// MarkAllRead POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.notificationSvc.MarkAllRead(middleware.CurrentUserID(c))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"updated": n})
}

// Broadcast POST /api/notifications/broadcast
// 发给某园所（或某班级）全部家长
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req request.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	n, err := h.notificationSvc.Broadcast(c.Request.Context(), middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, respond.BroadcastRespond{Recipients: n})
}
