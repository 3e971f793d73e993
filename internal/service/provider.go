// Package service 提供业务逻辑层
// 本文件实现 Service 层的依赖注入和聚合
package service

import (
	"context"
	"fmt"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	myredis "kindergarten_server/internal/dao/redis"
	"kindergarten_server/internal/gateway/websocket"
	"kindergarten_server/internal/infrastructure/email"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/infrastructure/sms"
	"kindergarten_server/internal/service/activity"
	"kindergarten_server/internal/service/analytics"
	"kindergarten_server/internal/service/auth"
	"kindergarten_server/internal/service/collect"
	"kindergarten_server/internal/service/enrollment"
	"kindergarten_server/internal/service/groupbuy"
	"kindergarten_server/internal/service/jobs"
	"kindergarten_server/internal/service/kindergarten"
	"kindergarten_server/internal/service/marketing"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/internal/service/order"
	"kindergarten_server/internal/service/reward"
	"kindergarten_server/internal/service/student"
)

// Deps Service 层依赖的基础设施
type Deps struct {
	Repos  *repository.Repositories
	Cache  myredis.AsyncCacheService
	Bus    mq.EventBus
	Sms    sms.SmsService
	Email  email.EmailService
	Pusher websocket.Pusher
	Conf   *config.Config
}

// Services 聚合所有 Service 实例
// 作为依赖注入的入口，Handler 层通过此结构访问各个 Service
type Services struct {
	Auth         AuthService
	Kindergarten KindergartenService
	Class        ClassService
	Teacher      TeacherService
	Student      StudentService
	Enrollment   EnrollmentService
	Activity     ActivityService
	Order        OrderService
	GroupBuy     GroupBuyService
	Collect      CollectService
	Reward       RewardService
	Notification NotificationService
	Analytics    AnalyticsService

	conf *config.Config
}

// NewServices 创建并注入所有 Service 实例
// 依赖注入流程：
//  1. 先创建被其他 Service 依赖的通知服务
//  2. 创建各业务 Service，注入 Repository、事件总线与通知服务
//  3. 在总线上注册营销事件消费者，需在 Bus.Start 之前调用
func NewServices(d Deps) (*Services, error) {
	notifier := notification.NewNotificationService(d.Repos, d.Email, d.Sms, d.Pusher, d.Cache, d.Conf.NotifyConfig)
	rewardSvc, err := reward.NewRewardService(d.Repos, d.Bus, notifier)
	if err != nil {
		return nil, fmt.Errorf("reward service: %w", err)
	}
	analyticsSvc := analytics.NewAnalyticsService(d.Repos, d.Cache, d.Conf.MarketingConfig)

	marketing.NewConsumer(d.Repos, rewardSvc, notifier, analyticsSvc).Register(d.Bus)

	return &Services{
		Auth:         auth.NewAuthService(d.Repos, d.Cache, d.Sms),
		Kindergarten: kindergarten.NewKindergartenService(d.Repos),
		Class:        kindergarten.NewClassService(d.Repos),
		Teacher:      kindergarten.NewTeacherService(d.Repos),
		Student:      student.NewStudentService(d.Repos),
		Enrollment:   enrollment.NewEnrollmentService(d.Repos, notifier),
		Activity:     activity.NewActivityService(d.Repos, d.Bus, notifier),
		Order:        order.NewOrderService(d.Repos, d.Bus, notifier),
		GroupBuy:     groupbuy.NewGroupBuyService(d.Repos, d.Bus, notifier),
		Collect:      collect.NewCollectService(d.Repos, d.Cache, d.Bus, notifier, d.Conf.MarketingConfig),
		Reward:       rewardSvc,
		Notification: notifier,
		Analytics:    analyticsSvc,
		conf:         d.Conf,
	}, nil
}

// Jobs 后台任务：拼团、助力过期扫描与失败通知重试
func (s *Services) Jobs() *jobs.Runner {
	sweep := jobs.Seconds(s.conf.SweepInterval)
	return jobs.NewRunner(
		jobs.Job{Name: "groupbuy_sweep", Interval: sweep, Run: s.GroupBuy.SweepExpired},
		jobs.Job{Name: "collect_sweep", Interval: sweep, Run: func(ctx context.Context) (int, error) {
			n, err := s.Collect.ExpireOverdue(ctx)
			return int(n), err
		}},
		jobs.Job{Name: "notification_retry", Interval: jobs.Seconds(s.conf.RetryInterval), Run: s.Notification.RetryFailed},
	)
}
