// Package marketing 营销事件消费者
// 订阅事件总线，把支付、参团、助力等事件转成阶梯奖励检查、通知与看板缓存清理
package marketing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
)

// RewardChecker 奖励引擎
type RewardChecker interface {
	CheckAndAward(ctx context.Context, activityID uint, metricType string, userID uint) (*respond.CheckRewardRespond, error)
}

// CacheInvalidator 看板缓存
type CacheInvalidator interface {
	Invalidate(ctx context.Context, activityID uint) error
}

// Consumer 营销事件消费者
type Consumer struct {
	repos    *repository.Repositories
	rewards  RewardChecker
	notifier notification.Notifier
	stats    CacheInvalidator
}

// NewConsumer 创建消费者
func NewConsumer(repos *repository.Repositories, rewards RewardChecker, notifier notification.Notifier, stats CacheInvalidator) *Consumer {
	return &Consumer{repos: repos, rewards: rewards, notifier: notifier, stats: stats}
}

// Register 在总线 Start 之前注册全部处理函数
func (c *Consumer) Register(bus mq.EventBus) {
	bus.Subscribe(mq.EventOrderPaid, c.onOrderPaid)
	bus.Subscribe(mq.EventRegistrationConfirmed, c.onRegistrationConfirmed)
	bus.Subscribe(mq.EventGroupBuyJoined, c.onGroupBuyJoined)
	bus.Subscribe(mq.EventGroupBuySucceeded, c.invalidate)
	bus.Subscribe(mq.EventCollectHelped, c.onCollectHelped)
	bus.Subscribe(mq.EventCollectCompleted, c.invalidate)
	bus.Subscribe(mq.EventRewardAwarded, c.invalidate)
}

func (c *Consumer) onOrderPaid(ctx context.Context, e mq.Event) error {
	orderNo, _ := e.Payload["orderNo"].(string)
	err := c.notifier.Notify(ctx, notification.Message{
		UserIDs: []uint{e.UserID},
		Title:   "支付成功",
		Content: fmt.Sprintf("订单 %s 已支付成功", orderNo),
		Type:    notification.TypeOrder,
		BizType: "order",
		BizID:   e.BizID,
	})
	if err != nil {
		zap.L().Warn("支付通知失败", zap.String("orderNo", orderNo), zap.Error(err))
	}
	if err := c.invalidate(ctx, e); err != nil {
		zap.L().Warn("清理看板缓存失败", zap.Error(err))
	}

	regID := e.PayloadUint("registrationId")
	if regID == 0 {
		return nil
	}
	return c.checkRegistration(ctx, regID)
}

func (c *Consumer) onRegistrationConfirmed(ctx context.Context, e mq.Event) error {
	return c.checkRegistration(ctx, e.BizID)
}

// checkRegistration 报名确认后检查报名人与推荐人的奖励
func (c *Consumer) checkRegistration(ctx context.Context, regID uint) error {
	reg, err := c.repos.Registration.FindByID(regID)
	if err != nil {
		return fmt.Errorf("load registration %d: %w", regID, err)
	}
	if reg.Status != model.RegistrationConfirmed {
		return nil
	}
	if err := c.check(ctx, reg.ActivityID, model.RewardMetricRegistration, reg.UserID); err != nil {
		return err
	}
	if reg.ReferrerID == 0 {
		return nil
	}
	return c.check(ctx, reg.ActivityID, model.RewardMetricReferral, reg.ReferrerID)
}

func (c *Consumer) onGroupBuyJoined(ctx context.Context, e mq.Event) error {
	initiator := e.PayloadUint("initiatorId")
	if initiator == 0 {
		g, err := c.repos.GroupBuy.FindByID(e.BizID)
		if err != nil {
			return fmt.Errorf("load group buy %d: %w", e.BizID, err)
		}
		initiator = g.InitiatorID
	}
	return c.check(ctx, e.ActivityID, model.RewardMetricGroupBuy, initiator)
}

func (c *Consumer) onCollectHelped(ctx context.Context, e mq.Event) error {
	return c.check(ctx, e.ActivityID, model.RewardMetricCollect, e.UserID)
}

func (c *Consumer) check(ctx context.Context, activityID uint, metricType string, userID uint) error {
	rsp, err := c.rewards.CheckAndAward(ctx, activityID, metricType, userID)
	if err != nil {
		return fmt.Errorf("check %s reward for user %d: %w", metricType, userID, err)
	}
	if len(rsp.Awarded) > 0 {
		zap.L().Debug("事件触发奖励发放",
			zap.Uint("activity", activityID),
			zap.String("type", metricType),
			zap.Uint("user", userID),
			zap.Int("awarded", len(rsp.Awarded)))
	}
	return nil
}

func (c *Consumer) invalidate(ctx context.Context, e mq.Event) error {
	return c.stats.Invalidate(ctx, e.ActivityID)
}
