package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderHandler 订单与支付回调
type OrderHandler struct {
	orderSvc service.OrderService
}

// NewOrderHandler 创建订单处理器
func NewOrderHandler(orderSvc service.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// List GET /api/orders
// 家长只能看到自己的订单，管理员看到全部
func (h *OrderHandler) List(c *gin.Context) {
	var req request.OrderListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.orderSvc.List(middleware.CurrentUserID(c), middleware.CurrentRole(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Get GET /api/orders/:orderNo
func (h *OrderHandler) Get(c *gin.Context) {
	data, err := h.orderSvc.Get(middleware.CurrentUserID(c), middleware.CurrentRole(c), c.Param("orderNo"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ConfirmOffline POST /api/orders/:orderNo/confirm-offline
func (h *OrderHandler) ConfirmOffline(c *gin.Context) {
	var req request.OrderRemarkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
	}
	data, err := h.orderSvc.ConfirmOffline(c.Request.Context(), middleware.CurrentUserID(c), c.Param("orderNo"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Refund POST /api/orders/:orderNo/refund
func (h *OrderHandler) Refund(c *gin.Context) {
	var req request.OrderRemarkRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
	}
	data, err := h.orderSvc.Refund(c.Request.Context(), middleware.CurrentUserID(c), c.Param("orderNo"), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// PaymentCallback POST /api/payments/callback
// 同一流水号重复回调返回成功，不产生副作用
func (h *OrderHandler) PaymentCallback(c *gin.Context) {
	var req request.PaymentCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.orderSvc.PaymentCallback(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
