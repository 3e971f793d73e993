package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes 站内信
func (rt *Router) RegisterNotificationRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Notification

	notification := rg.Group("/notifications")
	{
		notification.GET("", h.List)
		notification.GET("/unread-count", h.UnreadCount)
		notification.POST("/read-all", h.MarkAllRead)
		notification.POST("/:id/read", h.MarkRead)
		notification.POST("/broadcast", staffOnly(), h.Broadcast)
	}
}

// RegisterAnalyticsRoutes 数据看板，仅管理员与园长
func (rt *Router) RegisterAnalyticsRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Analytics

	analytics := rg.Group("/analytics")
	analytics.Use(staffOnly())
	{
		analytics.GET("/overview", h.Overview)
		analytics.GET("/enrollment-trend", h.EnrollmentTrend)
		analytics.GET("/marketing", h.Marketing)
		analytics.GET("/classes", h.ClassOccupancy)
	}
}
