// Package handler 提供 HTTP 请求处理器
// 本文件定义 Handler 聚合结构和构造函数
// 通过构造函数注入 Service 依赖
package handler

import (
	"kindergarten_server/internal/service"
)

// Handlers 聚合所有 Handler 实例
// 作为依赖注入的入口，Router 层通过此结构访问各个 Handler
type Handlers struct {
	Auth         *AuthHandler
	Kindergarten *KindergartenHandler
	Student      *StudentHandler
	Enrollment   *EnrollmentHandler
	Activity     *ActivityHandler
	Order        *OrderHandler
	Marketing    *MarketingHandler
	Notification *NotificationHandler
	Analytics    *AnalyticsHandler
	Ws           *WsHandler
}

// NewHandlers 创建并注入所有 Handler 实例
// svc: Service 层聚合实例
// hub: WebSocket 推送网关
func NewHandlers(svc *service.Services, hub WsServer) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth),
		Kindergarten: NewKindergartenHandler(svc.Kindergarten, svc.Class, svc.Teacher),
		Student:      NewStudentHandler(svc.Student),
		Enrollment:   NewEnrollmentHandler(svc.Enrollment),
		Activity:     NewActivityHandler(svc.Activity),
		Order:        NewOrderHandler(svc.Order),
		Marketing:    NewMarketingHandler(svc.GroupBuy, svc.Collect, svc.Reward),
		Notification: NewNotificationHandler(svc.Notification),
		Analytics:    NewAnalyticsHandler(svc.Analytics),
		Ws:           NewWsHandler(hub),
	}
}
