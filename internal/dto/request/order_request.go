package request

import "github.com/shopspring/decimal"

// OrderListRequest 订单列表，家长只能看到自己的订单
type OrderListRequest struct {
	ActivityID uint   `form:"activity_id"`
	Status     string `form:"status"`
	PageRequest
}

// OrderRemarkRequest 线下确认收款、退款时的备注
type OrderRemarkRequest struct {
	Remark string `json:"remark" binding:"max=255"`
}

// PaymentCallbackRequest 支付网关回调
type PaymentCallbackRequest struct {
	OrderNo       string          `json:"order_no" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required,max=64"`
	Status        string          `json:"status" binding:"required,oneof=success fail"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method" binding:"omitempty,oneof=wechat alipay"`
}
