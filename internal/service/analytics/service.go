// Package analytics 看板统计
// 多个聚合查询用 errgroup 并发执行，结果按 key 缓存在 Redis
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
	"kindergarten_server/pkg/constants"
	"kindergarten_server/pkg/errorx"
)

const defaultTrendMonths = 12

type analyticsService struct {
	repos *repository.Repositories
	cache myredis.AsyncCacheService
	ttl   time.Duration
	now   func() time.Time
}

// NewAnalyticsService 创建看板服务
func NewAnalyticsService(repos *repository.Repositories, cache myredis.AsyncCacheService, conf config.MarketingConfig) *analyticsService {
	return &analyticsService{
		repos: repos,
		cache: cache,
		ttl:   time.Duration(conf.AnalyticsCacheTTL) * time.Second,
		now:   time.Now,
	}
}

func overviewKey(kindergartenID uint) string {
	return fmt.Sprintf("%soverview:%d", constants.CacheKeyAnalyticsPrefix, kindergartenID)
}

func marketingKey(activityID uint) string {
	return fmt.Sprintf("%smarketing:%d", constants.CacheKeyAnalyticsPrefix, activityID)
}

// loadCached 命中缓存返回 true；缓存异常按未命中处理
func (s *analyticsService) loadCached(ctx context.Context, key string, out any) bool {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		zap.L().Warn("读取看板缓存失败", zap.String("key", key), zap.Error(err))
		return false
	}
	if raw == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		zap.L().Warn("看板缓存格式错误", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// store 异步写缓存，不阻塞请求
func (s *analyticsService) store(key string, v any) {
	if s.ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("序列化看板数据失败", zap.Error(err))
		return
	}
	s.cache.SubmitTask(func() {
		if err := s.cache.Set(context.Background(), key, string(data), s.ttl); err != nil {
			zap.L().Warn("写入看板缓存失败", zap.String("key", key), zap.Error(err))
		}
	})
}

// Overview 园所概览，kindergartenID 为 0 时统计全部园所
func (s *analyticsService) Overview(ctx context.Context, req request.OverviewRequest) (*respond.OverviewRespond, error) {
	key := overviewKey(req.KindergartenID)
	if !req.Refresh {
		var cached respond.OverviewRespond
		if s.loadCached(ctx, key, &cached) {
			return &cached, nil
		}
	}

	rsp := &respond.OverviewRespond{KindergartenID: req.KindergartenID}
	kg := req.KindergartenID
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rsp.StudentsByStatus, err = s.repos.Analytics.StudentStatusCounts(kg)
		return
	})
	g.Go(func() (err error) {
		rsp.Classes, err = s.repos.Analytics.CountClasses(kg)
		return
	})
	g.Go(func() (err error) {
		rsp.ActiveTeachers, err = s.repos.Analytics.CountActiveTeachers(kg)
		return
	})
	g.Go(func() (err error) {
		rsp.ActivitiesByStatus, err = s.repos.Analytics.ActivityStatusCounts(kg)
		return
	})
	g.Go(func() (err error) {
		rsp.PendingEnrollments, err = s.repos.Analytics.CountPendingEnrollments(kg)
		return
	})
	g.Go(func() (err error) {
		rsp.PaidRevenue, err = s.repos.Analytics.PaidRevenue(kg, 0)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, sc := range rsp.StudentsByStatus {
		rsp.TotalStudents += sc.Count
	}
	rsp.GeneratedAt = s.now().Format(time.DateTime)

	s.store(key, rsp)
	return rsp, nil
}

// EnrollmentTrend 近 N 个月每月新入园人数，没有数据的月份补 0
func (s *analyticsService) EnrollmentTrend(req request.EnrollmentTrendRequest) ([]respond.TrendPoint, error) {
	months := req.Months
	if months <= 0 {
		months = defaultTrendMonths
	}
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -(months - 1), 0)

	dates, err := s.repos.Analytics.EnrollmentDates(req.KindergartenID, start)
	if err != nil {
		return nil, err
	}
	return bucketByMonth(dates, start, months), nil
}

func bucketByMonth(dates []time.Time, start time.Time, months int) []respond.TrendPoint {
	points := make([]respond.TrendPoint, months)
	index := make(map[string]int, months)
	for i := 0; i < months; i++ {
		m := start.AddDate(0, i, 0).Format("2006-01")
		points[i].Month = m
		index[m] = i
	}
	for _, d := range dates {
		if i, ok := index[d.Format("2006-01")]; ok {
			points[i].Count++
		}
	}
	return points
}

// MarketingStats 单个活动的营销看板
func (s *analyticsService) MarketingStats(ctx context.Context, req request.MarketingStatsRequest) (*respond.MarketingStatsRespond, error) {
	if _, err := s.repos.Activity.FindByID(req.ActivityID); err != nil {
		return nil, err
	}
	key := marketingKey(req.ActivityID)
	if !req.Refresh {
		var cached respond.MarketingStatsRespond
		if s.loadCached(ctx, key, &cached) {
			return &cached, nil
		}
	}

	aid := req.ActivityID
	rsp := &respond.MarketingStatsRespond{ActivityID: aid}
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rsp.GroupBuysByStatus, err = s.repos.Analytics.GroupBuyStatusCounts(aid)
		return
	})
	g.Go(func() (err error) {
		rsp.CollectsByStatus, err = s.repos.Analytics.CollectStatusCounts(aid)
		return
	})
	g.Go(func() (err error) {
		rsp.RewardTiers, err = s.repos.Analytics.RewardTierStats(aid)
		return
	})
	g.Go(func() (err error) {
		rsp.Registrations, err = s.repos.Analytics.CountRegistrations(aid)
		return
	})
	g.Go(func() (err error) {
		rsp.PaidRevenue, err = s.repos.Analytics.PaidRevenue(0, aid)
		return
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if rsp.RewardTiers == nil {
		rsp.RewardTiers = []repository.TierStat{}
	}
	rsp.GroupBuySuccessRate = ratio(rsp.GroupBuysByStatus, model.GroupBuySuccess)
	rsp.CollectCompletionRate = ratio(rsp.CollectsByStatus, model.CollectCompleted)
	rsp.GeneratedAt = s.now().Format(time.DateTime)

	s.store(key, rsp)
	return rsp, nil
}

// ratio 某状态占全部记录的比例，保留四位小数
func ratio(counts []repository.StatusCount, status string) float64 {
	var total, hit int64
	for _, c := range counts {
		total += c.Count
		if c.Status == status {
			hit = c.Count
		}
	}
	if total == 0 {
		return 0
	}
	return float64(hit*10000/total) / 10000
}

// ClassOccupancy 班级占用
func (s *analyticsService) ClassOccupancy(req request.ClassOccupancyRequest) ([]repository.ClassOccupancy, error) {
	rows, err := s.repos.Analytics.ClassOccupancy(req.KindergartenID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []repository.ClassOccupancy{}
	}
	return rows, nil
}

// Invalidate 营销数据变化后清理看板缓存
func (s *analyticsService) Invalidate(ctx context.Context, activityID uint) error {
	if activityID != 0 {
		if err := s.cache.Delete(ctx, marketingKey(activityID)); err != nil {
			return errorx.Wrap(err, errorx.CodeCacheError, "清理营销看板缓存")
		}
	}
	if err := s.cache.DeleteByPattern(ctx, constants.CacheKeyAnalyticsPrefix+"overview:*"); err != nil {
		return errorx.Wrap(err, errorx.CodeCacheError, "清理概览缓存")
	}
	return nil
}
