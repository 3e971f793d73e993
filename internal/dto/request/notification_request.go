package request

// NotificationListRequest 站内信列表
type NotificationListRequest struct {
	UnreadOnly bool `form:"unread_only"`
	PageRequest
}

// BroadcastRequest 向园所或班级的全部家长群发通知
type BroadcastRequest struct {
	KindergartenID uint     `json:"kindergarten_id" binding:"required"`
	ClassID        uint     `json:"class_id"`
	Title          string   `json:"title" binding:"required,max=128"`
	Content        string   `json:"content" binding:"required"`
	Channels       []string `json:"channels" binding:"omitempty,dive,oneof=in_app email sms push"`
}
