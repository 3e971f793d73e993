package request

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// CreateGroupBuyRequest 发起拼团
type CreateGroupBuyRequest struct {
	ActivityID      uint            `json:"activity_id" binding:"required"`
	Title           string          `json:"title" binding:"max=128"`
	OriginalPrice   decimal.Decimal `json:"original_price"`
	GroupPrice      decimal.Decimal `json:"group_price"`
	MinParticipants int             `json:"min_participants" binding:"required,min=2"`
	MaxParticipants int             `json:"max_participants" binding:"required,min=2"`
	Deadline        time.Time       `json:"deadline" binding:"required"`
}

// GroupBuyListRequest 拼团列表
type GroupBuyListRequest struct {
	ActivityID uint   `form:"activity_id"`
	Status     string `form:"status" binding:"omitempty,oneof=active success failed expired"`
	PageRequest
}

// CreateCollectRequest 发起助力，max_count 为 0 时等于 target_count
type CreateCollectRequest struct {
	ActivityID  uint            `json:"activity_id" binding:"required"`
	Title       string          `json:"title" binding:"max=128"`
	TargetCount int             `json:"target_count" binding:"required,min=1"`
	MaxCount    int             `json:"max_count" binding:"min=0"`
	RewardType  string          `json:"reward_type" binding:"omitempty,oneof=coupon points gift discount"`
	RewardValue decimal.Decimal `json:"reward_value"`
	Deadline    time.Time       `json:"deadline" binding:"required"`
}

// TieredRewardRequest 创建/修改奖励档位
type TieredRewardRequest struct {
	ActivityID    uint            `json:"activity_id" binding:"required"`
	Type          string          `json:"type" binding:"required,oneof=referral collect group_buy registration"`
	Tier          int             `json:"tier" binding:"required,min=1"`
	TargetValue   int             `json:"target_value" binding:"required,min=1"`
	RewardType    string          `json:"reward_type" binding:"required,oneof=coupon points gift discount"`
	RewardValue   decimal.Decimal `json:"reward_value"`
	RewardPayload datatypes.JSON  `json:"reward_payload"`
	Condition     string          `json:"condition" binding:"max=512"`
	Status        *int8           `json:"status" binding:"omitempty,oneof=0 1"`
}

// TieredRewardListRequest 查询某活动的档位
type TieredRewardListRequest struct {
	ActivityID uint   `form:"activity_id" binding:"required"`
	Type       string `form:"type" binding:"omitempty,oneof=referral collect group_buy registration"`
}

// CheckRewardRequest 手动触发奖励检查，user_id 只有管理员可以指定
type CheckRewardRequest struct {
	ActivityID uint   `json:"activity_id" binding:"required"`
	Type       string `json:"type" binding:"required,oneof=referral collect group_buy registration"`
	UserID     uint   `json:"user_id"`
}

// RewardRecordListRequest 奖励记录
type RewardRecordListRequest struct {
	ActivityID uint   `form:"activity_id"`
	Status     string `form:"status" binding:"omitempty,oneof=issued claimed revoked"`
	PageRequest
}
