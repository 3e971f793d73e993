package model

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 拼团 ====================

// 拼团状态
// active -> success（成团）；active -> expired（截止未成团）；active -> failed（管理员取消）
const (
	GroupBuyActive  = "active"
	GroupBuySuccess = "success"
	GroupBuyFailed  = "failed"
	GroupBuyExpired = "expired"
)

// GroupBuy 拼团
type GroupBuy struct {
	gorm.Model
	Audit
	ActivityID          uint                  `gorm:"column:activity_id;index;not null;comment:活动" json:"activityId"`
	InitiatorID         uint                  `gorm:"column:initiator_id;index;not null;comment:团长" json:"initiatorId"`
	Title               string                `gorm:"column:title;type:varchar(128);comment:标题" json:"title"`
	OriginalPrice       decimal.Decimal       `gorm:"column:original_price;type:decimal(10,2);not null;comment:原价" json:"originalPrice"`
	GroupPrice          decimal.Decimal       `gorm:"column:group_price;type:decimal(10,2);not null;comment:拼团价" json:"groupPrice"`
	MinParticipants     int                   `gorm:"column:min_participants;not null;comment:成团人数" json:"minParticipants"`
	MaxParticipants     int                   `gorm:"column:max_participants;not null;comment:人数上限" json:"maxParticipants"`
	CurrentParticipants int                   `gorm:"column:current_participants;not null;default:0;comment:当前人数" json:"currentParticipants"`
	Deadline            time.Time             `gorm:"column:deadline;index;not null;comment:截止时间" json:"deadline"`
	Status              string                `gorm:"column:status;type:varchar(16);index;not null;default:active;comment:状态" json:"status"`
	SucceededAt         sql.NullTime          `gorm:"column:succeeded_at;comment:成团时间" json:"-"`
	Participants        []GroupBuyParticipant `gorm:"foreignKey:GroupBuyID" json:"participants,omitempty"`
}

func (GroupBuy) TableName() string {
	return "group_buy"
}

// GroupBuyParticipant 拼团参与者，(group_buy_id, user_id) 唯一
type GroupBuyParticipant struct {
	gorm.Model
	GroupBuyID uint `gorm:"column:group_buy_id;uniqueIndex:uk_group_buy_user;not null;comment:拼团" json:"groupBuyId"`
	UserID     uint `gorm:"column:user_id;uniqueIndex:uk_group_buy_user;not null;comment:参与用户" json:"userId"`
	OrderID    uint `gorm:"column:order_id;comment:订单" json:"orderId"`
}

func (GroupBuyParticipant) TableName() string {
	return "group_buy_participant"
}

// ==================== 助力（集赞） ====================

// 助力活动状态
const (
	CollectActive    = "active"
	CollectCompleted = "completed"
	CollectExpired   = "expired"
)

// CollectActivity 助力活动，用户分享助力码邀请好友助力
type CollectActivity struct {
	gorm.Model
	Audit
	ActivityID   uint            `gorm:"column:activity_id;index;not null;comment:活动" json:"activityId"`
	OwnerID      uint            `gorm:"column:owner_id;index;not null;comment:发起人" json:"ownerId"`
	CollectCode  string          `gorm:"column:collect_code;uniqueIndex;type:varchar(16);not null;comment:助力码" json:"collectCode"`
	Title        string          `gorm:"column:title;type:varchar(128);comment:标题" json:"title"`
	TargetCount  int             `gorm:"column:target_count;not null;comment:目标人数" json:"targetCount"`
	MaxCount     int             `gorm:"column:max_count;not null;comment:人数上限" json:"maxCount"`
	CurrentCount int             `gorm:"column:current_count;not null;default:0;comment:当前助力数" json:"currentCount"`
	RewardType   string          `gorm:"column:reward_type;type:varchar(16);comment:奖励类型" json:"rewardType"`
	RewardValue  decimal.Decimal `gorm:"column:reward_value;type:decimal(10,2);comment:奖励值" json:"rewardValue"`
	Deadline     time.Time       `gorm:"column:deadline;index;not null;comment:截止时间" json:"deadline"`
	Status       string          `gorm:"column:status;type:varchar(16);index;not null;default:active;comment:状态" json:"status"`
	CompletedAt  sql.NullTime    `gorm:"column:completed_at;comment:达成时间" json:"-"`
}

func (CollectActivity) TableName() string {
	return "collect_activity"
}

// CollectRecord 助力记录，(collect_activity_id, helper_id) 唯一
type CollectRecord struct {
	gorm.Model
	CollectActivityID uint   `gorm:"column:collect_activity_id;uniqueIndex:uk_collect_helper;not null;comment:助力活动" json:"collectActivityId"`
	HelperID          uint   `gorm:"column:helper_id;uniqueIndex:uk_collect_helper;not null;comment:助力人" json:"helperId"`
	ClientIP          string `gorm:"column:client_ip;type:varchar(64);comment:来源 IP" json:"-"`
}

func (CollectRecord) TableName() string {
	return "collect_record"
}

// ==================== 阶梯奖励 ====================

// 阶梯奖励指标类型
const (
	RewardMetricReferral     = "referral"
	RewardMetricCollect      = "collect"
	RewardMetricGroupBuy     = "group_buy"
	RewardMetricRegistration = "registration"
)

// ValidRewardMetric 指标类型是否合法
func ValidRewardMetric(t string) bool {
	switch t {
	case RewardMetricReferral, RewardMetricCollect, RewardMetricGroupBuy, RewardMetricRegistration:
		return true
	}
	return false
}

// 奖励形式
const (
	RewardCoupon   = "coupon"
	RewardPoints   = "points"
	RewardGift     = "gift"
	RewardDiscount = "discount"
)

// ValidRewardType 奖励形式是否合法
func ValidRewardType(t string) bool {
	switch t {
	case RewardCoupon, RewardPoints, RewardGift, RewardDiscount:
		return true
	}
	return false
}

// TieredReward 阶梯奖励定义，(activity_id, type, tier) 唯一
type TieredReward struct {
	gorm.Model
	Audit
	ActivityID    uint            `gorm:"column:activity_id;uniqueIndex:uk_tier;not null;comment:活动" json:"activityId"`
	Type          string          `gorm:"column:type;uniqueIndex:uk_tier;type:varchar(16);not null;comment:指标类型" json:"type"`
	Tier          int             `gorm:"column:tier;uniqueIndex:uk_tier;not null;comment:档位" json:"tier"`
	TargetValue   int             `gorm:"column:target_value;not null;comment:达标值" json:"targetValue"`
	RewardType    string          `gorm:"column:reward_type;type:varchar(16);not null;comment:奖励形式" json:"rewardType"`
	RewardValue   decimal.Decimal `gorm:"column:reward_value;type:decimal(10,2);comment:奖励值" json:"rewardValue"`
	RewardPayload datatypes.JSON  `gorm:"column:reward_payload;comment:奖励扩展信息" json:"rewardPayload,omitempty"`
	Condition     string          `gorm:"column:rule_expr;type:varchar(512);comment:附加条件（CEL 表达式）" json:"condition,omitempty"`
	Status        int8            `gorm:"column:status;not null;default:1;comment:1.启用 0.停用" json:"status"`
}

func (TieredReward) TableName() string {
	return "tiered_reward"
}

// 奖励记录状态
const (
	RewardRecordIssued  = "issued"
	RewardRecordClaimed = "claimed"
	RewardRecordRevoked = "revoked"
)

// TieredRewardRecord 奖励发放记录，(tiered_reward_id, user_id) 唯一保证至多发放一次
// (user_id, activity_id, type, tier) 同样唯一，档位删除重建后不会再次发放
type TieredRewardRecord struct {
	gorm.Model
	TieredRewardID uint            `gorm:"column:tiered_reward_id;uniqueIndex:uk_reward_user;not null;comment:奖励档位" json:"tieredRewardId"`
	UserID         uint            `gorm:"column:user_id;uniqueIndex:uk_reward_user;uniqueIndex:uk_reward_tier_user;index;not null;comment:获奖用户" json:"userId"`
	ActivityID     uint            `gorm:"column:activity_id;uniqueIndex:uk_reward_tier_user;index;not null;comment:活动" json:"activityId"`
	Type           string          `gorm:"column:type;uniqueIndex:uk_reward_tier_user;type:varchar(16);not null;comment:指标类型" json:"type"`
	Tier           int             `gorm:"column:tier;uniqueIndex:uk_reward_tier_user;not null;comment:档位" json:"tier"`
	MetricValue    int             `gorm:"column:metric_value;not null;comment:达标时指标值" json:"metricValue"`
	RewardType     string          `gorm:"column:reward_type;type:varchar(16);comment:奖励形式快照" json:"rewardType"`
	RewardValue    decimal.Decimal `gorm:"column:reward_value;type:decimal(10,2);comment:奖励值快照" json:"rewardValue"`
	RewardPayload  datatypes.JSON  `gorm:"column:reward_payload;comment:奖励扩展信息快照" json:"rewardPayload,omitempty"`
	Status         string          `gorm:"column:status;type:varchar(16);index;not null;default:issued;comment:状态" json:"status"`
	ClaimedAt      sql.NullTime    `gorm:"column:claimed_at;comment:领取时间" json:"-"`
}

func (TieredRewardRecord) TableName() string {
	return "tiered_reward_record"
}
