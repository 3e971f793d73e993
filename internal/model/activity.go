package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 活动状态
const (
	ActivityStatusDraft     = "draft"
	ActivityStatusPublished = "published"
	ActivityStatusOngoing   = "ongoing"
	ActivityStatusFinished  = "finished"
	ActivityStatusCancelled = "cancelled"
)

// Activity 园所活动（开放日、亲子活动、兴趣课等）
type Activity struct {
	gorm.Model
	Audit
	KindergartenID       uint            `gorm:"column:kindergarten_id;index;not null;comment:幼儿园" json:"kindergartenId"`
	Title                string          `gorm:"column:title;type:varchar(128);not null;comment:标题" json:"title"`
	Description          string          `gorm:"column:description;type:text;comment:描述" json:"description"`
	Type                 string          `gorm:"column:type;type:varchar(32);comment:活动类型" json:"type"`
	Location             string          `gorm:"column:location;type:varchar(255);comment:地点" json:"location"`
	StartTime            time.Time       `gorm:"column:start_time;comment:开始时间" json:"startTime"`
	EndTime              time.Time       `gorm:"column:end_time;comment:结束时间" json:"endTime"`
	RegistrationDeadline time.Time       `gorm:"column:registration_deadline;comment:报名截止" json:"registrationDeadline"`
	Capacity             int             `gorm:"column:capacity;not null;comment:名额" json:"capacity"`
	RegisteredCount      int             `gorm:"column:registered_count;not null;default:0;comment:已报名" json:"registeredCount"`
	Price                decimal.Decimal `gorm:"column:price;type:decimal(10,2);not null;default:0;comment:价格" json:"price"`
	Status               string          `gorm:"column:status;type:varchar(16);index;not null;default:draft;comment:状态" json:"status"`
}

func (Activity) TableName() string {
	return "activity"
}

// Registrable 活动是否处于可报名状态
func (a *Activity) Registrable(now time.Time) bool {
	if a.Status != ActivityStatusPublished && a.Status != ActivityStatusOngoing {
		return false
	}
	return a.RegistrationDeadline.IsZero() || now.Before(a.RegistrationDeadline)
}

// 报名状态
const (
	RegistrationPending   = "pending"
	RegistrationConfirmed = "confirmed"
	RegistrationCancelled = "cancelled"
)

// ActivityRegistration 活动报名记录
type ActivityRegistration struct {
	gorm.Model
	Audit
	ActivityID       uint   `gorm:"column:activity_id;index:idx_reg_activity_user;not null;comment:活动" json:"activityId"`
	UserID           uint   `gorm:"column:user_id;index:idx_reg_activity_user;not null;comment:报名账号" json:"userId"`
	StudentID        uint   `gorm:"column:student_id;comment:报名学生" json:"studentId"`
	ContactName      string `gorm:"column:contact_name;type:varchar(32);comment:联系人" json:"contactName"`
	ContactTelephone string `gorm:"column:contact_telephone;type:varchar(20);comment:联系电话" json:"contactTelephone"`
	ReferrerID       uint   `gorm:"column:referrer_id;index;comment:推荐人" json:"referrerId"`
	Status           string `gorm:"column:status;type:varchar(16);index;not null;default:pending;comment:状态" json:"status"`
	OrderID          uint   `gorm:"column:order_id;comment:关联订单" json:"orderId"`
}

func (ActivityRegistration) TableName() string {
	return "activity_registration"
}
