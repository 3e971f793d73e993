package router

import (
	"kindergarten_server/internal/infrastructure/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterActivityRoutes 活动与报名
func (rt *Router) RegisterActivityRoutes(rg *gin.RouterGroup) {
	h := rt.handlers.Activity

	activity := rg.Group("/activities")
	{
		activity.GET("", h.List)
		activity.GET("/:id", h.Get)
		activity.POST("/:id/register", h.Register)
		activity.POST("/registrations/:rid/cancel", h.CancelRegistration)

		activity.POST("", staffOnly(), h.Create)
		activity.PUT("/:id", staffOnly(), h.Update)
		activity.DELETE("/:id", staffOnly(), h.Delete)
		activity.POST("/:id/publish", staffOnly(), h.Publish)
		activity.POST("/:id/cancel", staffOnly(), h.Cancel)
		activity.GET("/:id/registrations", staffAndTeachers(), h.ListRegistrations)
	}
}

// RegisterOrderRoutes 订单与支付回调
// 支付回调由支付网关调用，不经过 JWT，改为校验请求体签名
func (rt *Router) RegisterOrderRoutes(public, authed *gin.RouterGroup) {
	h := rt.handlers.Order

	public.POST("/payments/callback", middleware.PaymentSignature(rt.paymentSecret), h.PaymentCallback)

	order := authed.Group("/orders")
	{
		order.GET("", h.List)
		order.GET("/:orderNo", h.Get)
		order.POST("/:orderNo/confirm-offline", staffOnly(), h.ConfirmOffline)
		order.POST("/:orderNo/refund", staffOnly(), h.Refund)
	}
}
