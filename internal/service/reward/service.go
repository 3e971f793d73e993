// Package reward 阶梯奖励：档位配置、达标检查与发放
// 同一档位对同一用户至多发放一次，由 (tiered_reward_id, user_id) 与 (user_id, activity_id, type, tier) 唯一索引保证
// 档位删除后重建不会重复发放
package reward

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/metrics"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/pkg/errorx"
)

type rewardService struct {
	repos    *repository.Repositories
	bus      mq.Publisher
	notifier notification.Notifier
	rules    *conditionEngine
}

// NewRewardService 创建奖励服务
func NewRewardService(repos *repository.Repositories, bus mq.Publisher, notifier notification.Notifier) (*rewardService, error) {
	rules, err := newConditionEngine()
	if err != nil {
		return nil, fmt.Errorf("init condition engine: %w", err)
	}
	return &rewardService{repos: repos, bus: bus, notifier: notifier, rules: rules}, nil
}

// ==================== 档位配置 ====================

// CreateTier 新增档位
func (s *rewardService) CreateTier(operatorID uint, req request.TieredRewardRequest) (*model.TieredReward, error) {
	tier := &model.TieredReward{Status: model.StatusEnabled}
	tier.CreatorID = operatorID
	if err := s.applyTier(tier, operatorID, req); err != nil {
		return nil, err
	}
	if err := s.repos.TieredReward.Create(tier); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.Conflict("档位 %d 已存在", req.Tier)
		}
		return nil, errorx.ServerError(err, "创建奖励档位失败")
	}
	return tier, nil
}

// UpdateTier 修改档位，活动与指标类型不可改
func (s *rewardService) UpdateTier(operatorID, id uint, req request.TieredRewardRequest) (*model.TieredReward, error) {
	tier, err := s.findTier(id)
	if err != nil {
		return nil, err
	}
	if tier.ActivityID != req.ActivityID || tier.Type != req.Type {
		return nil, errorx.BadRequest("不能修改档位所属活动或指标类型")
	}
	if err := s.applyTier(tier, operatorID, req); err != nil {
		return nil, err
	}
	if err := s.repos.TieredReward.Update(tier); err != nil {
		if errorx.GetCode(err) == errorx.CodeConflict {
			return nil, errorx.Conflict("档位 %d 已存在", req.Tier)
		}
		return nil, errorx.ServerError(err, "更新奖励档位失败")
	}
	return tier, nil
}

// DeleteTier 删除档位，已发放的记录保留
func (s *rewardService) DeleteTier(id uint) error {
	if _, err := s.findTier(id); err != nil {
		return err
	}
	if err := s.repos.TieredReward.Delete(id); err != nil {
		return errorx.ServerError(err, "删除奖励档位失败")
	}
	return nil
}

// ListTiers 活动的档位，按指标类型、档位升序
func (s *rewardService) ListTiers(req request.TieredRewardListRequest) ([]model.TieredReward, error) {
	list, err := s.repos.TieredReward.ListByActivity(req.ActivityID, req.Type, false)
	if err != nil {
		return nil, errorx.ServerError(err, "查询奖励档位失败")
	}
	if list == nil {
		list = []model.TieredReward{}
	}
	return list, nil
}

func (s *rewardService) findTier(id uint) (*model.TieredReward, error) {
	tier, err := s.repos.TieredReward.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("奖励档位不存在")
		}
		return nil, errorx.ServerError(err, "查询奖励档位失败")
	}
	return tier, nil
}

// applyTier 校验请求并写入 tier
func (s *rewardService) applyTier(tier *model.TieredReward, operatorID uint, req request.TieredRewardRequest) error {
	if !model.ValidRewardMetric(req.Type) {
		return errorx.BadRequest("不支持的指标类型 %s", req.Type)
	}
	if !model.ValidRewardType(req.RewardType) {
		return errorx.BadRequest("不支持的奖励形式 %s", req.RewardType)
	}
	if req.Tier <= 0 || req.TargetValue <= 0 {
		return errorx.BadRequest("档位和达标值必须大于 0")
	}
	if req.RewardValue.IsNegative() {
		return errorx.BadRequest("奖励值不能为负数")
	}
	if req.Condition != "" {
		if _, err := s.rules.Compile(req.Condition); err != nil {
			return errorx.BadRequest("附加条件无效: %v", err)
		}
	}
	if _, err := s.repos.Activity.FindByID(req.ActivityID); err != nil {
		if errorx.IsNotFound(err) {
			return errorx.NotFound("活动不存在")
		}
		return errorx.ServerError(err, "查询活动失败")
	}

	existing, err := s.repos.TieredReward.ListByActivity(req.ActivityID, req.Type, false)
	if err != nil {
		return errorx.ServerError(err, "查询奖励档位失败")
	}
	ladder := make([]model.TieredReward, 0, len(existing)+1)
	for _, t := range existing {
		if t.ID != tier.ID {
			ladder = append(ladder, t)
		}
	}
	ladder = append(ladder, model.TieredReward{Tier: req.Tier, TargetValue: req.TargetValue})
	if err := validateLadder(ladder); err != nil {
		return err
	}

	tier.ActivityID = req.ActivityID
	tier.Type = req.Type
	tier.Tier = req.Tier
	tier.TargetValue = req.TargetValue
	tier.RewardType = req.RewardType
	tier.RewardValue = req.RewardValue
	tier.RewardPayload = req.RewardPayload
	tier.Condition = req.Condition
	if req.Status != nil {
		tier.Status = *req.Status
	}
	tier.UpdaterID = operatorID
	return nil
}

// validateLadder 档位号不重复，达标值随档位严格递增
func validateLadder(tiers []model.TieredReward) error {
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Tier < tiers[j].Tier })
	for i := 1; i < len(tiers); i++ {
		prev, cur := tiers[i-1], tiers[i]
		if prev.Tier == cur.Tier {
			return errorx.Conflict("档位 %d 已存在", cur.Tier)
		}
		if cur.TargetValue <= prev.TargetValue {
			return errorx.BadRequest("档位 %d 的达标值 %d 必须大于档位 %d 的 %d",
				cur.Tier, cur.TargetValue, prev.Tier, prev.TargetValue)
		}
	}
	return nil
}

// ==================== 达标检查 ====================

// metric 重新查询用户当前指标，不信任调用方传入的值
func (s *rewardService) metric(activityID uint, metricType string, userID uint) (int64, error) {
	switch metricType {
	case model.RewardMetricReferral:
		return s.repos.Registration.CountReferrals(activityID, userID)
	case model.RewardMetricCollect:
		return s.repos.Collect.MaxCountByOwner(activityID, userID)
	case model.RewardMetricGroupBuy:
		return s.repos.GroupBuy.SumParticipantsByInitiator(activityID, userID)
	case model.RewardMetricRegistration:
		return s.repos.Registration.CountConfirmed(activityID, userID)
	}
	return 0, errorx.BadRequest("不支持的指标类型 %s", metricType)
}

// CheckAndAward 检查用户在某指标下达到的全部档位并发放新达成的奖励
// 并发调用安全：重复发放被唯一索引拦截，只有真正插入的记录会返回
func (s *rewardService) CheckAndAward(ctx context.Context, activityID uint, metricType string, userID uint) (*respond.CheckRewardRespond, error) {
	if !model.ValidRewardMetric(metricType) {
		return nil, errorx.BadRequest("不支持的指标类型 %s", metricType)
	}
	if userID == 0 {
		return nil, errorx.BadRequest("缺少用户")
	}
	value, err := s.metric(activityID, metricType, userID)
	if err != nil {
		return nil, errorx.ServerError(err, "查询奖励指标失败")
	}
	tiers, err := s.repos.TieredReward.ListByActivity(activityID, metricType, true)
	if err != nil {
		return nil, errorx.ServerError(err, "查询奖励档位失败")
	}

	result := &respond.CheckRewardRespond{
		ActivityID:  activityID,
		Type:        metricType,
		UserID:      userID,
		MetricValue: value,
		Awarded:     []model.TieredRewardRecord{},
	}
	for _, tier := range tiers {
		if value < int64(tier.TargetValue) {
			continue
		}
		ok, err := s.rules.Eval(tier.Condition, value, tier.Tier, tier.TargetValue, userID)
		if err != nil {
			zap.L().Warn("奖励附加条件求值失败",
				zap.Uint("tier", tier.ID), zap.String("condition", tier.Condition), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		rec := &model.TieredRewardRecord{
			TieredRewardID: tier.ID,
			UserID:         userID,
			ActivityID:     activityID,
			Type:           metricType,
			Tier:           tier.Tier,
			MetricValue:    int(value),
			RewardType:     tier.RewardType,
			RewardValue:    tier.RewardValue,
			RewardPayload:  tier.RewardPayload,
			Status:         model.RewardRecordIssued,
		}
		inserted, err := s.repos.RewardRecord.InsertIgnore(rec)
		if err != nil {
			return nil, errorx.ServerError(err, "发放奖励失败")
		}
		if inserted {
			result.Awarded = append(result.Awarded, *rec)
		}
	}

	for i := range result.Awarded {
		s.afterAward(ctx, &result.Awarded[i])
	}
	return result, nil
}

func (s *rewardService) afterAward(ctx context.Context, rec *model.TieredRewardRecord) {
	metrics.RewardsAwarded.WithLabelValues(rec.Type).Inc()
	zap.L().Info("发放阶梯奖励",
		zap.Uint("user", rec.UserID),
		zap.Uint("activity", rec.ActivityID),
		zap.String("type", rec.Type),
		zap.Int("tier", rec.Tier))

	e := mq.NewEvent(mq.EventRewardAwarded, rec.UserID, rec.ActivityID, rec.ID).
		With("type", rec.Type).
		With("tier", rec.Tier)
	if err := s.bus.Publish(ctx, e); err != nil {
		zap.L().Warn("发布奖励事件失败", zap.Uint("record", rec.ID), zap.Error(err))
	}
	err := s.notifier.Notify(ctx, notification.Message{
		UserIDs: []uint{rec.UserID},
		Title:   "恭喜获得奖励",
		Content: fmt.Sprintf("您已达成第 %d 档奖励（%s %s），请在奖励中心领取", rec.Tier, rec.RewardType, rec.RewardValue.String()),
		Type:    notification.TypeMarketing,
		BizType: "tiered_reward_record",
		BizID:   rec.ID,
	})
	if err != nil {
		zap.L().Warn("奖励通知失败", zap.Uint("record", rec.ID), zap.Error(err))
	}
}

// ==================== 奖励记录 ====================

// ListRecords 管理员可按活动查看全部，其他角色只能看自己的
func (s *rewardService) ListRecords(userID uint, role string, req request.RewardRecordListRequest) (*respond.PageResult[model.TieredRewardRecord], error) {
	p := req.Pager()
	filter := repository.RewardRecordFilter{ActivityID: req.ActivityID, Status: req.Status, Pager: p}
	if !model.IsStaff(role) {
		filter.UserID = userID
	}
	list, total, err := s.repos.RewardRecord.List(filter)
	if err != nil {
		return nil, errorx.ServerError(err, "查询奖励记录失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Claim 领取奖励，只能领取自己的
func (s *rewardService) Claim(userID, id uint) (*model.TieredRewardRecord, error) {
	rec, err := s.findRecord(id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, errorx.Forbidden("只能领取自己的奖励")
	}
	n, err := s.repos.RewardRecord.Transition(id, model.RewardRecordIssued, model.RewardRecordClaimed,
		map[string]any{"claimed_at": time.Now()})
	if err != nil {
		return nil, errorx.ServerError(err, "领取奖励失败")
	}
	if n == 0 {
		return nil, errorx.Conflict("奖励已领取或已作废")
	}
	return s.findRecord(id)
}

// Revoke 作废未领取的奖励
func (s *rewardService) Revoke(operatorID, id uint) (*model.TieredRewardRecord, error) {
	if _, err := s.findRecord(id); err != nil {
		return nil, err
	}
	n, err := s.repos.RewardRecord.Transition(id, model.RewardRecordIssued, model.RewardRecordRevoked, nil)
	if err != nil {
		return nil, errorx.ServerError(err, "作废奖励失败")
	}
	if n == 0 {
		return nil, errorx.Conflict("只能作废未领取的奖励")
	}
	zap.L().Info("作废奖励", zap.Uint("record", id), zap.Uint("operator", operatorID))
	return s.findRecord(id)
}

func (s *rewardService) findRecord(id uint) (*model.TieredRewardRecord, error) {
	rec, err := s.repos.RewardRecord.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("奖励记录不存在")
		}
		return nil, errorx.ServerError(err, "查询奖励记录失败")
	}
	return rec, nil
}
