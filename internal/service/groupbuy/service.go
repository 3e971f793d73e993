// Package groupbuy 拼团：发起、参团、取消与过期处理
package groupbuy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
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
	"kindergarten_server/pkg/util/snowflake"
)

const (
	orderNoPrefix = "GB"
	sweepBatch    = 100
)

type groupBuyService struct {
	repos    *repository.Repositories
	bus      mq.Publisher
	notifier notification.Notifier
	now      func() time.Time
}

// NewGroupBuyService 创建拼团服务
func NewGroupBuyService(repos *repository.Repositories, bus mq.Publisher, notifier notification.Notifier) *groupBuyService {
	return &groupBuyService{repos: repos, bus: bus, notifier: notifier, now: time.Now}
}

// Create 发起拼团，发起人不自动参团
func (s *groupBuyService) Create(userID uint, req request.CreateGroupBuyRequest) (*model.GroupBuy, error) {
	if req.MinParticipants > req.MaxParticipants {
		return nil, errorx.BadRequest("成团人数不能大于人数上限")
	}
	if req.GroupPrice.IsNegative() || req.OriginalPrice.IsNegative() {
		return nil, errorx.BadRequest("价格不能为负数")
	}
	if req.GroupPrice.GreaterThan(req.OriginalPrice) {
		return nil, errorx.BadRequest("拼团价不能高于原价")
	}
	if !req.Deadline.After(s.now()) {
		return nil, errorx.BadRequest("截止时间必须晚于当前时间")
	}
	activity, err := s.repos.Activity.FindByID(req.ActivityID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("活动不存在")
		}
		return nil, errorx.ServerError(err, "查询活动失败")
	}
	if activity.Status == model.ActivityStatusCancelled || activity.Status == model.ActivityStatusFinished {
		return nil, errorx.Conflict("活动已结束，不能发起拼团")
	}

	title := req.Title
	if title == "" {
		title = activity.Title + " 拼团"
	}
	g := &model.GroupBuy{
		ActivityID:      req.ActivityID,
		InitiatorID:     userID,
		Title:           title,
		OriginalPrice:   req.OriginalPrice,
		GroupPrice:      req.GroupPrice,
		MinParticipants: req.MinParticipants,
		MaxParticipants: req.MaxParticipants,
		Deadline:        req.Deadline,
		Status:          model.GroupBuyActive,
	}
	g.CreatorID = userID
	g.UpdaterID = userID
	if err := s.repos.GroupBuy.Create(g); err != nil {
		return nil, errorx.ServerError(err, "创建拼团失败")
	}
	zap.L().Info("发起拼团", zap.Uint("groupBuy", g.ID), zap.Uint("initiator", userID))
	return g, nil
}

// Get 拼团详情（含参与者）
func (s *groupBuyService) Get(id uint) (*model.GroupBuy, error) {
	g, err := s.repos.GroupBuy.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("拼团不存在")
		}
		return nil, errorx.ServerError(err, "查询拼团失败")
	}
	return g, nil
}

// List 拼团列表
func (s *groupBuyService) List(req request.GroupBuyListRequest) (*respond.PageResult[model.GroupBuy], error) {
	p := req.Pager()
	list, total, err := s.repos.GroupBuy.List(repository.GroupBuyFilter{ActivityID: req.ActivityID, Status: req.Status, Pager: p})
	if err != nil {
		return nil, errorx.ServerError(err, "查询拼团列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Join 参团
// 在同一事务内锁定拼团行，校验状态、截止时间、人数与重复参团，写参与者和待支付订单
// 人数达到成团人数时置为 success；成团后仍可继续参团直到人数上限
func (s *groupBuyService) Join(ctx context.Context, userID, id uint) (*respond.JoinGroupBuyRespond, error) {
	var (
		g         *model.GroupBuy
		order     *model.Order
		succeeded bool
	)
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		var err error
		g, err = tx.GroupBuy.FindByIDForUpdate(id)
		if err != nil {
			if errorx.IsNotFound(err) {
				return errorx.NotFound("拼团不存在")
			}
			return errorx.ServerError(err, "查询拼团失败")
		}
		now := s.now()
		switch {
		case g.Status != model.GroupBuyActive && g.Status != model.GroupBuySuccess:
			return errorx.Conflict("拼团已结束")
		case !now.Before(g.Deadline):
			return errorx.Conflict("拼团已过截止时间")
		case g.CurrentParticipants >= g.MaxParticipants:
			return errorx.Conflict("拼团人数已满")
		}
		exists, err := tx.GroupBuy.ParticipantExists(id, userID)
		if err != nil {
			return errorx.ServerError(err, "查询参团记录失败")
		}
		if exists {
			return errorx.Conflict("您已参加该拼团")
		}

		order = &model.Order{
			OrderNo:    snowflake.GenerateOrderNo(orderNoPrefix),
			UserID:     userID,
			ActivityID: g.ActivityID,
			GroupBuyID: g.ID,
			Source:     model.OrderSourceGroupBuy,
			Amount:     g.GroupPrice,
			Status:     model.OrderPending,
		}
		order.CreatorID = userID
		if err := tx.Order.Create(order); err != nil {
			return errorx.ServerError(err, "创建订单失败")
		}
		if err := tx.GroupBuy.AddParticipant(&model.GroupBuyParticipant{GroupBuyID: id, UserID: userID, OrderID: order.ID}); err != nil {
			if errorx.GetCode(err) == errorx.CodeConflict {
				return errorx.Conflict("您已参加该拼团")
			}
			return errorx.ServerError(err, "参团失败")
		}

		g.CurrentParticipants++
		if g.Status == model.GroupBuyActive && g.CurrentParticipants >= g.MinParticipants {
			g.Status = model.GroupBuySuccess
			g.SucceededAt = sql.NullTime{Time: now, Valid: true}
			succeeded = true
		}
		g.UpdaterID = userID
		if err := tx.GroupBuy.Save(g); err != nil {
			return errorx.ServerError(err, "更新拼团失败")
		}
		return nil
	})
	if err != nil {
		metrics.GroupBuyJoins.WithLabelValues(joinFailureLabel(err)).Inc()
		return nil, err
	}

	metrics.GroupBuyJoins.WithLabelValues("joined").Inc()
	zap.L().Info("参团成功",
		zap.Uint("groupBuy", id),
		zap.Uint("user", userID),
		zap.Int("current", g.CurrentParticipants),
		zap.Bool("succeeded", succeeded))

	joined := mq.NewEvent(mq.EventGroupBuyJoined, userID, g.ActivityID, g.ID).
		With("initiatorId", g.InitiatorID).
		With("orderNo", order.OrderNo)
	s.publish(ctx, joined)
	if succeeded {
		metrics.GroupBuyJoins.WithLabelValues("success").Inc()
		s.publish(ctx, mq.NewEvent(mq.EventGroupBuySucceeded, g.InitiatorID, g.ActivityID, g.ID))
		s.notifyParticipants(ctx, g, "拼团成功", fmt.Sprintf("您参加的「%s」已成团，请尽快完成支付", g.Title))
	}

	return &respond.JoinGroupBuyRespond{GroupBuy: g, Order: order, Succeeded: succeeded}, nil
}

func joinFailureLabel(err error) string {
	switch errorx.GetCode(err) {
	case errorx.CodeConflict:
		return "rejected"
	case errorx.CodeNotFound:
		return "not_found"
	}
	return "error"
}

// Cancel 管理员取消进行中的拼团，待支付订单一并取消
func (s *groupBuyService) Cancel(ctx context.Context, operatorID, id uint) (*model.GroupBuy, error) {
	g, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var cancelledOrders int64
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.GroupBuy.Transition(id, model.GroupBuyActive, model.GroupBuyFailed)
		if err != nil {
			return errorx.ServerError(err, "取消拼团失败")
		}
		if n == 0 {
			return errorx.Conflict("只能取消进行中的拼团")
		}
		cancelledOrders, err = tx.Order.CancelPendingByGroupBuy(id)
		if err != nil {
			return errorx.ServerError(err, "取消拼团订单失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	g.Status = model.GroupBuyFailed
	zap.L().Info("取消拼团",
		zap.Uint("groupBuy", id),
		zap.Uint("operator", operatorID),
		zap.Int64("orders", cancelledOrders))
	s.notifyParticipants(ctx, g, "拼团已取消", fmt.Sprintf("您参加的「%s」已被取消，未支付订单已关闭", g.Title))
	return g, nil
}

// SweepExpired 截止时间已过仍未成团的拼团置为 expired，返回处理数量
func (s *groupBuyService) SweepExpired(ctx context.Context) (int, error) {
	list, err := s.repos.GroupBuy.FindExpired(s.now(), sweepBatch)
	if err != nil {
		return 0, errorx.ServerError(err, "查询过期拼团失败")
	}
	expired := 0
	for i := range list {
		if ctx.Err() != nil {
			return expired, ctx.Err()
		}
		g := &list[i]
		ok, err := s.expire(g.ID)
		if err != nil {
			zap.L().Error("拼团过期处理失败", zap.Uint("groupBuy", g.ID), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		expired++
		g.Status = model.GroupBuyExpired
		s.notifyParticipants(ctx, g, "拼团未成团", fmt.Sprintf("很遗憾，「%s」在截止时间前未达到成团人数，订单已关闭", g.Title))
	}
	if expired > 0 {
		zap.L().Info("拼团过期扫描", zap.Int("expired", expired))
	}
	return expired, nil
}

func (s *groupBuyService) expire(id uint) (bool, error) {
	var ok bool
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.GroupBuy.Transition(id, model.GroupBuyActive, model.GroupBuyExpired)
		if err != nil {
			return err
		}
		// 已被并发成团或取消
		if n == 0 {
			return nil
		}
		ok = true
		_, err = tx.Order.CancelPendingByGroupBuy(id)
		return err
	})
	return ok, err
}

func (s *groupBuyService) notifyParticipants(ctx context.Context, g *model.GroupBuy, title, content string) {
	userIDs, err := s.repos.GroupBuy.ParticipantUserIDs(g.ID)
	if err != nil {
		zap.L().Error("查询拼团参与者失败", zap.Uint("groupBuy", g.ID), zap.Error(err))
		return
	}
	err = s.notifier.Notify(ctx, notification.Message{
		UserIDs: userIDs,
		Title:   title,
		Content: content,
		Type:    notification.TypeMarketing,
		BizType: "group_buy",
		BizID:   g.ID,
	})
	if err != nil {
		zap.L().Warn("拼团通知失败", zap.Uint("groupBuy", g.ID), zap.Error(err))
	}
}

func (s *groupBuyService) publish(ctx context.Context, e mq.Event) {
	if err := s.bus.Publish(ctx, e); err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Warn("发布拼团事件失败", zap.String("type", e.Type), zap.Uint("groupBuy", e.BizID), zap.Error(err))
	}
}
