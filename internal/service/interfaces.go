// Package service 定义业务层接口
// 本文件定义所有 Service 接口，供 Handler 层调用
package service

import (
	"context"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/model"
)

// AuthService 认证业务接口
type AuthService interface {
	// Login 账号密码登录
	Login(ctx context.Context, req request.LoginRequest) (*respond.LoginRespond, error)
	// SendSmsCode 发送登录验证码
	SendSmsCode(ctx context.Context, req request.SendSmsCodeRequest) error
	// SmsLogin 短信验证码登录
	SmsLogin(ctx context.Context, req request.SmsLoginRequest) (*respond.LoginRespond, error)
	// Register 家长自助注册
	Register(ctx context.Context, req request.RegisterRequest) (*respond.LoginRespond, error)
	// Refresh 刷新双 Token，同一用户只有最近一次签发的 Refresh Token 有效
	Refresh(ctx context.Context, req request.RefreshTokenRequest) (*respond.LoginRespond, error)
	// Logout 注销 Refresh Token
	Logout(ctx context.Context, userID uint) error
	// Me 当前用户信息
	Me(userID uint) (*respond.UserInfoRespond, error)
}

// KindergartenService 幼儿园业务接口
type KindergartenService interface {
	Create(operatorID uint, req request.KindergartenRequest) (*model.Kindergarten, error)
	Get(id uint) (*model.Kindergarten, error)
	List(req request.KindergartenListRequest) (*respond.PageResult[model.Kindergarten], error)
	Update(operatorID, id uint, req request.KindergartenRequest) (*model.Kindergarten, error)
	// Delete 仍有在读学生时拒绝
	Delete(id uint) error
}

// ClassService 班级业务接口
type ClassService interface {
	Create(operatorID uint, req request.ClassRequest) (*model.Class, error)
	Get(id uint) (*model.Class, error)
	List(req request.ClassListRequest) (*respond.PageResult[model.Class], error)
	Update(operatorID, id uint, req request.ClassRequest) (*model.Class, error)
	Delete(id uint) error
	// AssignHeadTeacher 指定班主任，teacher_id 为 0 时取消
	AssignHeadTeacher(operatorID, classID uint, req request.AssignHeadTeacherRequest) (*model.Class, error)
	ListStudents(classID uint) ([]model.Student, error)
}

// TeacherService 教师业务接口
type TeacherService interface {
	Create(operatorID uint, req request.TeacherRequest) (*model.Teacher, error)
	Get(id uint) (*model.Teacher, error)
	List(req request.TeacherListRequest) (*respond.PageResult[model.Teacher], error)
	Update(operatorID, id uint, req request.TeacherRequest) (*model.Teacher, error)
	UpdateStatus(operatorID, id uint, req request.TeacherStatusRequest) (*model.Teacher, error)
	Delete(id uint) error
}

// StudentService 学生业务接口
type StudentService interface {
	Create(operatorID uint, req request.CreateStudentRequest) (*model.Student, error)
	Get(id uint) (*model.Student, error)
	List(req request.StudentListRequest) (*respond.PageResult[model.Student], error)
	Update(operatorID, id uint, req request.UpdateStudentRequest) (*model.Student, error)
	Delete(operatorID, id uint) error
	// AssignClass 分班，受班级容量约束
	AssignClass(operatorID, id uint, req request.AssignClassRequest) (*model.Student, error)
	UpdateStatus(operatorID, id uint, req request.StudentStatusRequest) (*model.Student, error)
	BatchUpdateStatus(operatorID uint, req request.BatchStudentStatusRequest) (int64, error)
	AddGuardian(operatorID, studentID uint, req request.GuardianRequest) (*model.Guardian, error)
	RemoveGuardian(studentID, guardianID uint) error
}

// EnrollmentService 入园申请业务接口
type EnrollmentService interface {
	Submit(applicantID uint, req request.EnrollmentRequest) (*model.EnrollmentApplication, error)
	List(userID uint, role string, req request.EnrollmentListRequest) (*respond.PageResult[model.EnrollmentApplication], error)
	Get(userID uint, role string, id uint) (*model.EnrollmentApplication, error)
	// Approve 审核通过并建档，返回新学生
	Approve(ctx context.Context, operatorID, id uint, req request.ApproveEnrollmentRequest) (*model.Student, error)
	Reject(ctx context.Context, operatorID, id uint, req request.RejectEnrollmentRequest) (*model.EnrollmentApplication, error)
}

// ActivityService 活动与报名业务接口
type ActivityService interface {
	Create(operatorID uint, req request.ActivityRequest) (*model.Activity, error)
	Get(id uint) (*model.Activity, error)
	List(req request.ActivityListRequest) (*respond.PageResult[model.Activity], error)
	Update(operatorID, id uint, req request.ActivityRequest) (*model.Activity, error)
	Delete(id uint) error
	Publish(operatorID, id uint) (*model.Activity, error)
	Cancel(ctx context.Context, operatorID, id uint) (*model.Activity, error)
	// Register 报名，收费活动同时生成待支付订单
	Register(ctx context.Context, userID, activityID uint, req request.RegisterActivityRequest) (*respond.RegistrationRespond, error)
	ListRegistrations(activityID uint, req request.PageRequest) (*respond.PageResult[model.ActivityRegistration], error)
	CancelRegistration(userID uint, role string, registrationID uint) (*model.ActivityRegistration, error)
}

// OrderService 订单业务接口
type OrderService interface {
	List(userID uint, role string, req request.OrderListRequest) (*respond.PageResult[model.Order], error)
	Get(userID uint, role, orderNo string) (*model.Order, error)
	ConfirmOffline(ctx context.Context, operatorID uint, orderNo string, req request.OrderRemarkRequest) (*model.Order, error)
	// PaymentCallback 支付回调，按流水号幂等
	PaymentCallback(ctx context.Context, req request.PaymentCallbackRequest) (*model.Order, error)
	Refund(ctx context.Context, operatorID uint, orderNo string, req request.OrderRemarkRequest) (*model.Order, error)
}

// GroupBuyService 拼团业务接口
type GroupBuyService interface {
	Create(userID uint, req request.CreateGroupBuyRequest) (*model.GroupBuy, error)
	Get(id uint) (*model.GroupBuy, error)
	List(req request.GroupBuyListRequest) (*respond.PageResult[model.GroupBuy], error)
	Join(ctx context.Context, userID, id uint) (*respond.JoinGroupBuyRespond, error)
	Cancel(ctx context.Context, operatorID, id uint) (*model.GroupBuy, error)
	SweepExpired(ctx context.Context) (int, error)
}

// CollectService 助力业务接口
type CollectService interface {
	Create(ownerID uint, req request.CreateCollectRequest) (*model.CollectActivity, error)
	GetByCode(code string) (*model.CollectActivity, error)
	ListMine(ownerID uint, req request.PageRequest) (*respond.PageResult[model.CollectActivity], error)
	ListHelpers(code string, req request.PageRequest) (*respond.PageResult[model.CollectRecord], error)
	Help(ctx context.Context, helperID uint, code, clientIP string) (*respond.HelpRespond, error)
	ExpireOverdue(ctx context.Context) (int64, error)
}

// RewardService 阶梯奖励业务接口
type RewardService interface {
	CreateTier(operatorID uint, req request.TieredRewardRequest) (*model.TieredReward, error)
	UpdateTier(operatorID, id uint, req request.TieredRewardRequest) (*model.TieredReward, error)
	DeleteTier(id uint) error
	ListTiers(req request.TieredRewardListRequest) ([]model.TieredReward, error)
	CheckAndAward(ctx context.Context, activityID uint, metricType string, userID uint) (*respond.CheckRewardRespond, error)
	ListRecords(userID uint, role string, req request.RewardRecordListRequest) (*respond.PageResult[model.TieredRewardRecord], error)
	Claim(userID, id uint) (*model.TieredRewardRecord, error)
	Revoke(operatorID, id uint) (*model.TieredRewardRecord, error)
}

// NotificationService 站内信业务接口
type NotificationService interface {
	List(userID uint, req request.NotificationListRequest) (*respond.PageResult[model.Notification], error)
	UnreadCount(userID uint) (int64, error)
	MarkRead(userID, id uint) error
	MarkAllRead(userID uint) (int64, error)
	Broadcast(ctx context.Context, operatorID uint, req request.BroadcastRequest) (int, error)
	RetryFailed(ctx context.Context) (int, error)
}

// AnalyticsService 看板业务接口
type AnalyticsService interface {
	Overview(ctx context.Context, req request.OverviewRequest) (*respond.OverviewRespond, error)
	EnrollmentTrend(req request.EnrollmentTrendRequest) ([]respond.TrendPoint, error)
	MarketingStats(ctx context.Context, req request.MarketingStatsRequest) (*respond.MarketingStatsRespond, error)
	ClassOccupancy(req request.ClassOccupancyRequest) ([]repository.ClassOccupancy, error)
	Invalidate(ctx context.Context, activityID uint) error
}
