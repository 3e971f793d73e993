// Package collect 助力活动：发起、好友助力与过期处理
package collect

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/metrics"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/random"
)

const (
	codeLength   = 8
	codeAttempts = 5
)

type collectService struct {
	repos    *repository.Repositories
	cache    myredis.CacheService
	bus      mq.Publisher
	notifier notification.Notifier
	ipLimit  int
	now      func() time.Time
}

// NewCollectService 创建助力服务
func NewCollectService(repos *repository.Repositories, cache myredis.CacheService, bus mq.Publisher,
	notifier notification.Notifier, conf config.MarketingConfig) *collectService {
	return &collectService{
		repos:    repos,
		cache:    cache,
		bus:      bus,
		notifier: notifier,
		ipLimit:  conf.CollectIPDailyLimit,
		now:      time.Now,
	}
}

// Create 为当前用户发起助力，生成唯一助力码
func (s *collectService) Create(ownerID uint, req request.CreateCollectRequest) (*model.CollectActivity, error) {
	maxCount := req.MaxCount
	if maxCount == 0 {
		maxCount = req.TargetCount
	}
	if maxCount < req.TargetCount {
		return nil, errorx.BadRequest("人数上限不能小于目标人数")
	}
	if req.RewardValue.IsNegative() {
		return nil, errorx.BadRequest("奖励值不能为负数")
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
		return nil, errorx.Conflict("活动已结束，不能发起助力")
	}

	title := req.Title
	if title == "" {
		title = activity.Title + " 助力"
	}
	c := &model.CollectActivity{
		ActivityID:  req.ActivityID,
		OwnerID:     ownerID,
		Title:       title,
		TargetCount: req.TargetCount,
		MaxCount:    maxCount,
		RewardType:  req.RewardType,
		RewardValue: req.RewardValue,
		Deadline:    req.Deadline,
		Status:      model.CollectActive,
	}
	c.CreatorID = ownerID
	c.UpdaterID = ownerID

	// 助力码冲突时重新生成
	for i := 0; i < codeAttempts; i++ {
		c.CollectCode = random.GetShareCode(codeLength)
		err = s.repos.Collect.Create(c)
		if err == nil {
			zap.L().Info("发起助力", zap.Uint("collect", c.ID), zap.String("code", c.CollectCode), zap.Uint("owner", ownerID))
			return c, nil
		}
		if errorx.GetCode(err) != errorx.CodeConflict {
			break
		}
		c.ID = 0
	}
	return nil, errorx.ServerError(err, "创建助力活动失败")
}

// GetByCode 助力详情
func (s *collectService) GetByCode(code string) (*model.CollectActivity, error) {
	c, err := s.repos.Collect.FindByCode(code)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("助力码不存在")
		}
		return nil, errorx.ServerError(err, "查询助力活动失败")
	}
	return c, nil
}

// ListMine 我发起的助力
func (s *collectService) ListMine(ownerID uint, req request.PageRequest) (*respond.PageResult[model.CollectActivity], error) {
	p := req.Pager()
	list, total, err := s.repos.Collect.ListByOwner(ownerID, p)
	if err != nil {
		return nil, errorx.ServerError(err, "查询助力活动失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// ListHelpers 助力记录
func (s *collectService) ListHelpers(code string, req request.PageRequest) (*respond.PageResult[model.CollectRecord], error) {
	c, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	p := req.Pager()
	list, total, err := s.repos.Collect.ListRecords(c.ID, p)
	if err != nil {
		return nil, errorx.ServerError(err, "查询助力记录失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Help 为助力码助力
// Redis 计数与 SETNX 只是快速拦截，最终以条件自增和 (collect_activity_id, helper_id) 唯一索引为准
func (s *collectService) Help(ctx context.Context, helperID uint, code, clientIP string) (*respond.HelpRespond, error) {
	c, err := s.GetByCode(code)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if c.OwnerID == helperID {
		metrics.CollectHelps.WithLabelValues("rejected").Inc()
		return nil, errorx.BadRequest("不能为自己助力")
	}
	if c.Status == model.CollectExpired || !now.Before(c.Deadline) {
		metrics.CollectHelps.WithLabelValues("rejected").Inc()
		return nil, errorx.Conflict("助力活动已结束")
	}
	if c.CurrentCount >= c.MaxCount {
		metrics.CollectHelps.WithLabelValues("rejected").Inc()
		return nil, errorx.Conflict("助力人数已满或活动已结束")
	}

	dedupKey := fmt.Sprintf("%s%s:%d", constants.CacheKeyCollectHelped, code, helperID)
	first, err := s.cache.SetNX(ctx, dedupKey, "1", constants.COLLECT_HELP_DEDUP_TTL)
	if err != nil {
		zap.L().Warn("助力去重缓存不可用，回退数据库唯一索引", zap.String("code", code), zap.Error(err))
		first = true
	}
	if !first {
		metrics.CollectHelps.WithLabelValues("duplicate").Inc()
		return nil, errorx.Conflict("您已为该好友助力")
	}
	// 去重通过后才计入 IP 配额
	if err := s.checkIPLimit(ctx, clientIP, now); err != nil {
		s.releaseDedup(ctx, dedupKey)
		metrics.CollectHelps.WithLabelValues("rejected").Inc()
		return nil, err
	}

	var completed, duplicate bool
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Collect.IncrementCount(c.ID, now)
		if err != nil {
			return errorx.ServerError(err, "助力失败")
		}
		if n == 0 {
			return errorx.Conflict("助力人数已满或活动已结束")
		}
		if err := tx.Collect.AddRecord(&model.CollectRecord{CollectActivityID: c.ID, HelperID: helperID, ClientIP: clientIP}); err != nil {
			if errorx.GetCode(err) == errorx.CodeConflict {
				duplicate = true
				return errorx.Conflict("您已为该好友助力")
			}
			return errorx.ServerError(err, "助力失败")
		}
		n, err = tx.Collect.MarkCompleted(c.ID, now)
		if err != nil {
			return errorx.ServerError(err, "助力失败")
		}
		completed = n == 1
		c, err = tx.Collect.FindByID(c.ID)
		if err != nil {
			return errorx.ServerError(err, "助力失败")
		}
		return nil
	})
	if err != nil {
		// 人数已满等情况需要释放去重 key，重复助力保留
		if !duplicate {
			s.releaseDedup(ctx, dedupKey)
			metrics.CollectHelps.WithLabelValues("rejected").Inc()
		} else {
			metrics.CollectHelps.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	metrics.CollectHelps.WithLabelValues("ok").Inc()
	zap.L().Info("助力成功",
		zap.String("code", code),
		zap.Uint("helper", helperID),
		zap.Int("current", c.CurrentCount),
		zap.Bool("completed", completed))

	s.publish(ctx, mq.NewEvent(mq.EventCollectHelped, c.OwnerID, c.ActivityID, c.ID).With("helperId", helperID))
	if completed {
		s.publish(ctx, mq.NewEvent(mq.EventCollectCompleted, c.OwnerID, c.ActivityID, c.ID))
		err := s.notifier.Notify(ctx, notification.Message{
			UserIDs: []uint{c.OwnerID},
			Title:   "助力达标",
			Content: fmt.Sprintf("「%s」已有 %d 位好友助力，达到目标人数", c.Title, c.CurrentCount),
			Type:    notification.TypeMarketing,
			BizType: "collect_activity",
			BizID:   c.ID,
		})
		if err != nil {
			zap.L().Warn("助力达标通知失败", zap.Uint("collect", c.ID), zap.Error(err))
		}
	}

	return &respond.HelpRespond{
		CollectCode:  c.CollectCode,
		CurrentCount: c.CurrentCount,
		TargetCount:  c.TargetCount,
		Status:       c.Status,
		Completed:    completed,
	}, nil
}

// checkIPLimit 同一 IP 每日助力次数上限，缓存故障时放行
func (s *collectService) releaseDedup(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		zap.L().Warn("释放助力去重 key 失败", zap.String("key", key), zap.Error(err))
	}
}

func (s *collectService) checkIPLimit(ctx context.Context, clientIP string, now time.Time) error {
	if s.ipLimit <= 0 || clientIP == "" {
		return nil
	}
	key := fmt.Sprintf("%s%s:%s", constants.CacheKeyCollectIPDaily, now.Format("20060102"), clientIP)
	n, err := s.cache.IncrWithTTL(ctx, key, 24*time.Hour)
	if err != nil {
		zap.L().Warn("助力 IP 计数失败", zap.String("ip", clientIP), zap.Error(err))
		return nil
	}
	if n > int64(s.ipLimit) {
		return errorx.New(errorx.CodeTooManyRequests, "今日助力次数已达上限")
	}
	return nil
}

// ExpireOverdue 过期未达标的助力活动置为 expired
func (s *collectService) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repos.Collect.ExpireOverdue(s.now())
	if err != nil {
		return 0, errorx.ServerError(err, "过期助力活动失败")
	}
	if n > 0 {
		zap.L().Info("助力过期扫描", zap.Int64("expired", n))
	}
	return n, nil
}

func (s *collectService) publish(ctx context.Context, e mq.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		zap.L().Warn("发布助力事件失败", zap.String("type", e.Type), zap.Uint("collect", e.BizID), zap.Error(err))
	}
}

