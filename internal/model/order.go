package model

import (
	"database/sql"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 订单状态
const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderFailed    = "failed"
	OrderRefunded  = "refunded"
	OrderCancelled = "cancelled"
)

// 订单来源
const (
	OrderSourceRegistration = "registration"
	OrderSourceGroupBuy     = "group_buy"
)

// 支付方式
const (
	PayOffline = "offline"
	PayWechat  = "wechat"
	PayAlipay  = "alipay"
)

// Order 订单
// 状态迁移一律使用 WHERE status = <from> 的条件更新
type Order struct {
	gorm.Model
	Audit
	OrderNo        string          `gorm:"column:order_no;uniqueIndex;type:varchar(32);not null;comment:订单号" json:"orderNo"`
	UserID         uint            `gorm:"column:user_id;index;not null;comment:下单用户" json:"userId"`
	ActivityID     uint            `gorm:"column:activity_id;index;comment:活动" json:"activityId"`
	RegistrationID uint            `gorm:"column:registration_id;index;comment:报名记录" json:"registrationId"`
	GroupBuyID     uint            `gorm:"column:group_buy_id;index;comment:拼团" json:"groupBuyId"`
	Source         string          `gorm:"column:source;type:varchar(16);not null;comment:来源" json:"source"`
	Amount         decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null;comment:金额" json:"amount"`
	Status         string          `gorm:"column:status;type:varchar(16);index;not null;default:pending;comment:状态" json:"status"`
	PaymentMethod  string          `gorm:"column:payment_method;type:varchar(16);comment:支付方式" json:"paymentMethod"`
	TransactionID  string          `gorm:"column:transaction_id;type:varchar(64);index;comment:支付流水号" json:"transactionId"`
	PaidAt         sql.NullTime    `gorm:"column:paid_at;comment:支付时间" json:"-"`
	Remark         string          `gorm:"column:remark;type:varchar(255);comment:备注" json:"remark"`
}

func (Order) TableName() string {
	return "order_info"
}
