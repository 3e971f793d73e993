// Package activity 园所活动与报名
package activity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/dto/respond"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/pkg/errorx"
	"kindergarten_server/pkg/util/snowflake"
)

const orderNoPrefix = "REG"

type activityService struct {
	repos    *repository.Repositories
	bus      mq.Publisher
	notifier notification.Notifier
	now      func() time.Time
}

// NewActivityService 创建活动服务
func NewActivityService(repos *repository.Repositories, bus mq.Publisher, notifier notification.Notifier) *activityService {
	return &activityService{repos: repos, bus: bus, notifier: notifier, now: time.Now}
}

// ==================== 活动 ====================

// Create 创建草稿活动
func (s *activityService) Create(operatorID uint, req request.ActivityRequest) (*model.Activity, error) {
	if err := validateActivity(req); err != nil {
		return nil, err
	}
	if _, err := s.repos.Kindergarten.FindByID(req.KindergartenID); err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("幼儿园不存在")
		}
		return nil, errorx.ServerError(err, "查询幼儿园失败")
	}
	a := &model.Activity{Status: model.ActivityStatusDraft}
	fillActivity(a, req)
	a.CreatorID = operatorID
	a.UpdaterID = operatorID
	if err := s.repos.Activity.Create(a); err != nil {
		return nil, errorx.ServerError(err, "创建活动失败")
	}
	zap.L().Info("创建活动", zap.Uint("activity", a.ID), zap.String("title", a.Title))
	return a, nil
}

func validateActivity(req request.ActivityRequest) error {
	if !req.EndTime.After(req.StartTime) {
		return errorx.BadRequest("结束时间必须晚于开始时间")
	}
	if !req.RegistrationDeadline.IsZero() && req.RegistrationDeadline.After(req.StartTime) {
		return errorx.BadRequest("报名截止时间不能晚于开始时间")
	}
	if req.Price.IsNegative() {
		return errorx.BadRequest("价格不能为负数")
	}
	return nil
}

func fillActivity(a *model.Activity, req request.ActivityRequest) {
	a.KindergartenID = req.KindergartenID
	a.Title = req.Title
	a.Description = req.Description
	a.Type = req.Type
	a.Location = req.Location
	a.StartTime = req.StartTime
	a.EndTime = req.EndTime
	a.RegistrationDeadline = req.RegistrationDeadline
	a.Capacity = req.Capacity
	a.Price = req.Price
}

// Get 活动详情
func (s *activityService) Get(id uint) (*model.Activity, error) {
	a, err := s.repos.Activity.FindByID(id)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("活动不存在")
		}
		return nil, errorx.ServerError(err, "查询活动失败")
	}
	return a, nil
}

// List 活动列表
func (s *activityService) List(req request.ActivityListRequest) (*respond.PageResult[model.Activity], error) {
	p := req.Pager()
	list, total, err := s.repos.Activity.List(repository.ActivityFilter{
		KindergartenID: req.KindergartenID,
		Status:         req.Status,
		Pager:          p,
	})
	if err != nil {
		return nil, errorx.ServerError(err, "查询活动列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Update 修改活动，已结束或已取消的活动不可修改
func (s *activityService) Update(operatorID, id uint, req request.ActivityRequest) (*model.Activity, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if a.Status == model.ActivityStatusCancelled || a.Status == model.ActivityStatusFinished {
		return nil, errorx.Conflict("活动已结束，不能修改")
	}
	if req.KindergartenID != a.KindergartenID {
		return nil, errorx.BadRequest("不能修改活动所属幼儿园")
	}
	if err := validateActivity(req); err != nil {
		return nil, err
	}
	if req.Capacity < a.RegisteredCount {
		return nil, errorx.BadRequest("名额不能少于已报名人数 %d", a.RegisteredCount)
	}
	fillActivity(a, req)
	a.UpdaterID = operatorID
	if err := s.repos.Activity.Update(a); err != nil {
		return nil, errorx.ServerError(err, "更新活动失败")
	}
	return a, nil
}

// Delete 只能删除草稿或已取消的活动
func (s *activityService) Delete(id uint) error {
	a, err := s.Get(id)
	if err != nil {
		return err
	}
	if a.Status != model.ActivityStatusDraft && a.Status != model.ActivityStatusCancelled {
		return errorx.Conflict("已发布的活动请先取消再删除")
	}
	if err := s.repos.Activity.Delete(id); err != nil {
		return errorx.ServerError(err, "删除活动失败")
	}
	return nil
}

// Publish draft -> published
func (s *activityService) Publish(operatorID, id uint) (*model.Activity, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	n, err := s.repos.Activity.Transition(id, []string{model.ActivityStatusDraft}, model.ActivityStatusPublished)
	if err != nil {
		return nil, errorx.ServerError(err, "发布活动失败")
	}
	if n == 0 {
		return nil, errorx.Conflict("只能发布草稿状态的活动")
	}
	zap.L().Info("发布活动", zap.Uint("activity", id), zap.Uint("operator", operatorID))
	return s.Get(id)
}

// Cancel 取消活动：有效报名取消、待支付订单关闭、通知报名用户
// 已支付订单保持 paid，由管理员逐笔退款
func (s *activityService) Cancel(ctx context.Context, operatorID, id uint) (*model.Activity, error) {
	a, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	var (
		userIDs []uint
		orders  int64
	)
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Activity.Transition(id, []string{
			model.ActivityStatusDraft, model.ActivityStatusPublished, model.ActivityStatusOngoing,
		}, model.ActivityStatusCancelled)
		if err != nil {
			return errorx.ServerError(err, "取消活动失败")
		}
		if n == 0 {
			return errorx.Conflict("活动已结束或已取消")
		}
		if userIDs, err = tx.Registration.CancelByActivity(id); err != nil {
			return errorx.ServerError(err, "取消活动报名失败")
		}
		if orders, err = tx.Order.CancelPendingByActivity(id); err != nil {
			return errorx.ServerError(err, "关闭活动订单失败")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("取消活动",
		zap.Uint("activity", id),
		zap.Uint("operator", operatorID),
		zap.Int("registrants", len(userIDs)),
		zap.Int64("orders", orders))

	if len(userIDs) > 0 {
		err = s.notifier.Notify(ctx, notification.Message{
			UserIDs: userIDs,
			Title:   "活动已取消",
			Content: fmt.Sprintf("您报名的「%s」已取消，未支付订单已关闭，已支付费用将原路退回", a.Title),
			Type:    notification.TypeActivity,
			BizType: "activity",
			BizID:   id,
		})
		if err != nil {
			zap.L().Warn("活动取消通知失败", zap.Uint("activity", id), zap.Error(err))
		}
	}
	return s.Get(id)
}

// ==================== 报名 ====================

// Register 报名活动
// 名额通过 registered_count < capacity 的条件自增占用；收费活动生成待支付订单，免费活动直接确认
func (s *activityService) Register(ctx context.Context, userID, activityID uint, req request.RegisterActivityRequest) (*respond.RegistrationRespond, error) {
	a, err := s.Get(activityID)
	if err != nil {
		return nil, err
	}
	if !a.Registrable(s.now()) {
		return nil, errorx.Conflict("活动未开放报名或已截止")
	}
	if req.StudentID != 0 {
		if _, err := s.repos.Student.FindByID(req.StudentID); err != nil {
			if errorx.IsNotFound(err) {
				return nil, errorx.NotFound("学生不存在")
			}
			return nil, errorx.ServerError(err, "查询学生失败")
		}
	}
	if req.ReferrerID != 0 {
		if req.ReferrerID == userID {
			return nil, errorx.BadRequest("推荐人不能是自己")
		}
		if _, err := s.repos.User.FindByID(req.ReferrerID); err != nil {
			if errorx.IsNotFound(err) {
				return nil, errorx.BadRequest("推荐人不存在")
			}
			return nil, errorx.ServerError(err, "查询推荐人失败")
		}
	}

	free := !a.Price.IsPositive()
	reg := &model.ActivityRegistration{
		ActivityID:       activityID,
		UserID:           userID,
		StudentID:        req.StudentID,
		ContactName:      req.ContactName,
		ContactTelephone: req.ContactTelephone,
		ReferrerID:       req.ReferrerID,
		Status:           model.RegistrationPending,
	}
	reg.CreatorID = userID
	if free {
		reg.Status = model.RegistrationConfirmed
	}
	var order *model.Order

	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		// 先锁活动行再查重：并发的同一报名在锁上排队，后者读到前者已提交的记录
		locked, err := tx.Activity.FindByIDForUpdate(activityID)
		if err != nil {
			return errorx.ServerError(err, "报名失败")
		}
		if !locked.Registrable(s.now()) {
			return errorx.Conflict("活动未开放报名或已截止")
		}
		exists, err := tx.Registration.ExistsActive(activityID, userID, req.StudentID)
		if err != nil {
			return errorx.ServerError(err, "查询报名记录失败")
		}
		if exists {
			return errorx.Conflict("已报名该活动")
		}
		n, err := tx.Activity.IncrementRegistered(activityID)
		if err != nil {
			return errorx.ServerError(err, "报名失败")
		}
		if n == 0 {
			return errorx.Conflict("活动名额已满")
		}
		if err := tx.Registration.Create(reg); err != nil {
			return errorx.ServerError(err, "报名失败")
		}
		if free {
			return nil
		}
		order = &model.Order{
			OrderNo:        snowflake.GenerateOrderNo(orderNoPrefix),
			UserID:         userID,
			ActivityID:     activityID,
			RegistrationID: reg.ID,
			Source:         model.OrderSourceRegistration,
			Amount:         a.Price,
			Status:         model.OrderPending,
		}
		order.CreatorID = userID
		if err := tx.Order.Create(order); err != nil {
			return errorx.ServerError(err, "创建订单失败")
		}
		if err := tx.Registration.SetOrder(reg.ID, order.ID); err != nil {
			return errorx.ServerError(err, "报名失败")
		}
		reg.OrderID = order.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("活动报名",
		zap.Uint("activity", activityID),
		zap.Uint("user", userID),
		zap.Uint("referrer", req.ReferrerID),
		zap.Bool("free", free))

	if free {
		e := mq.NewEvent(mq.EventRegistrationConfirmed, userID, activityID, reg.ID).
			With("registrationId", reg.ID)
		if err := s.bus.Publish(ctx, e); err != nil {
			zap.L().Warn("发布报名事件失败", zap.Uint("registration", reg.ID), zap.Error(err))
		}
	}
	return &respond.RegistrationRespond{Registration: reg, Order: order}, nil
}

// ListRegistrations 活动报名列表
func (s *activityService) ListRegistrations(activityID uint, req request.PageRequest) (*respond.PageResult[model.ActivityRegistration], error) {
	if _, err := s.Get(activityID); err != nil {
		return nil, err
	}
	p := req.Pager()
	list, total, err := s.repos.Registration.ListByActivity(activityID, p)
	if err != nil {
		return nil, errorx.ServerError(err, "查询报名列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// CancelRegistration 取消报名：释放名额并关闭待支付订单
// 已支付订单不自动退款
func (s *activityService) CancelRegistration(userID uint, role string, registrationID uint) (*model.ActivityRegistration, error) {
	reg, err := s.repos.Registration.FindByID(registrationID)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("报名记录不存在")
		}
		return nil, errorx.ServerError(err, "查询报名记录失败")
	}
	if reg.UserID != userID && !model.IsStaff(role) {
		return nil, errorx.Forbidden("只能取消自己的报名")
	}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Registration.Transition(registrationID,
			[]string{model.RegistrationPending, model.RegistrationConfirmed}, model.RegistrationCancelled)
		if err != nil {
			return errorx.ServerError(err, "取消报名失败")
		}
		if n == 0 {
			return errorx.Conflict("报名已取消")
		}
		if err := tx.Activity.DecrementRegistered(reg.ActivityID); err != nil {
			return errorx.ServerError(err, "释放活动名额失败")
		}
		if reg.OrderID != 0 {
			if _, err := tx.Order.CancelPendingByID(reg.OrderID); err != nil {
				return errorx.ServerError(err, "关闭订单失败")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reg.Status = model.RegistrationCancelled
	zap.L().Info("取消报名", zap.Uint("registration", registrationID), zap.Uint("operator", userID))
	return reg, nil
}
