package request

import (
	"time"

	"github.com/shopspring/decimal"
)

// ActivityRequest 创建/修改活动，时间为 RFC3339
type ActivityRequest struct {
	KindergartenID       uint            `json:"kindergarten_id" binding:"required"`
	Title                string          `json:"title" binding:"required,max=128"`
	Description          string          `json:"description"`
	Type                 string          `json:"type" binding:"max=32"`
	Location             string          `json:"location" binding:"max=255"`
	StartTime            time.Time       `json:"start_time" binding:"required"`
	EndTime              time.Time       `json:"end_time" binding:"required"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Capacity             int             `json:"capacity" binding:"required,min=1"`
	Price                decimal.Decimal `json:"price"`
}

// ActivityListRequest 活动列表
type ActivityListRequest struct {
	KindergartenID uint   `form:"kindergarten_id"`
	Status         string `form:"status"`
	PageRequest
}

// RegisterActivityRequest 活动报名
type RegisterActivityRequest struct {
	StudentID        uint   `json:"student_id"`
	ContactName      string `json:"contact_name" binding:"max=32"`
	ContactTelephone string `json:"contact_telephone" binding:"max=20"`
	ReferrerID       uint   `json:"referrer_id"`
}
