package model

import (
	"database/sql"

	"gorm.io/gorm"
)

// 通知渠道
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// ValidChannel 渠道是否合法
func ValidChannel(c string) bool {
	switch c {
	case ChannelInApp, ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// 投递状态
const (
	NotifyPending = "pending"
	NotifySent    = "sent"
	NotifyFailed  = "failed"
)

// Notification 通知，每个渠道一条记录
type Notification struct {
	gorm.Model
	UserID    uint         `gorm:"column:user_id;index;not null;comment:接收人" json:"userId"`
	Title     string       `gorm:"column:title;type:varchar(128);not null;comment:标题" json:"title"`
	Content   string       `gorm:"column:content;type:text;comment:内容" json:"content"`
	Type      string       `gorm:"column:type;type:varchar(32);comment:通知类型" json:"type"`
	Channel   string       `gorm:"column:channel;type:varchar(16);index;not null;comment:渠道" json:"channel"`
	Status    string       `gorm:"column:status;type:varchar(16);index;not null;default:pending;comment:投递状态" json:"status"`
	Attempts  int          `gorm:"column:attempts;not null;default:0;comment:投递次数" json:"attempts"`
	LastError string       `gorm:"column:last_error;type:varchar(512);comment:最近一次失败原因" json:"-"`
	ReadAt    sql.NullTime `gorm:"column:read_at;comment:已读时间" json:"-"`
	BizType   string       `gorm:"column:biz_type;type:varchar(32);comment:业务类型" json:"bizType"`
	BizID     uint         `gorm:"column:biz_id;comment:业务ID" json:"bizId"`
}

func (Notification) TableName() string {
	return "notification"
}
