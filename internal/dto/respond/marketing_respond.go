package respond

import "kindergarten_server/internal/model"

// RegistrationRespond 活动报名结果，免费活动 order 为空
type RegistrationRespond struct {
	Registration *model.ActivityRegistration `json:"registration"`
	Order        *model.Order                `json:"order,omitempty"`
}

// JoinGroupBuyRespond 参团结果
type JoinGroupBuyRespond struct {
	GroupBuy *model.GroupBuy `json:"group_buy"`
	Order    *model.Order    `json:"order"`
	// Succeeded 本次参团使拼团达到成团人数
	Succeeded bool `json:"succeeded"`
}

// HelpRespond 助力结果
type HelpRespond struct {
	CollectCode  string `json:"collect_code"`
	CurrentCount int    `json:"current_count"`
	TargetCount  int    `json:"target_count"`
	Status       string `json:"status"`
	// Completed 本次助力使活动达标
	Completed bool `json:"completed"`
}

// CheckRewardRespond 奖励检查结果
type CheckRewardRespond struct {
	ActivityID  uint                       `json:"activity_id"`
	Type        string                     `json:"type"`
	UserID      uint                       `json:"user_id"`
	MetricValue int64                      `json:"metric_value"`
	Awarded     []model.TieredRewardRecord `json:"awarded"`
}

// UnreadCountRespond 未读数
type UnreadCountRespond struct {
	Count int64 `json:"count"`
}

// BroadcastRespond 群发结果
type BroadcastRespond struct {
	Recipients int `json:"recipients"`
}
