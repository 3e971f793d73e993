// Package order 订单查询与支付状态机
// 所有状态迁移都是 WHERE status = <from> 的条件更新，受影响行数为 0 视为冲突
package order

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
)

type orderService struct {
	repos    *repository.Repositories
	bus      mq.Publisher
	notifier notification.Notifier
	now      func() time.Time
}

// NewOrderService 创建订单服务
func NewOrderService(repos *repository.Repositories, bus mq.Publisher, notifier notification.Notifier) *orderService {
	return &orderService{repos: repos, bus: bus, notifier: notifier, now: time.Now}
}

// List 家长只能查看自己的订单，管理端查看全部
func (s *orderService) List(userID uint, role string, req request.OrderListRequest) (*respond.PageResult[model.Order], error) {
	p := req.Pager()
	filter := repository.OrderFilter{ActivityID: req.ActivityID, Status: req.Status, Pager: p}
	if !model.IsStaff(role) {
		filter.UserID = userID
	}
	list, total, err := s.repos.Order.List(filter)
	if err != nil {
		return nil, errorx.ServerError(err, "查询订单列表失败")
	}
	return respond.NewPageResult(list, total, p.Page, p.PageSize), nil
}

// Get 订单详情
func (s *orderService) Get(userID uint, role, orderNo string) (*model.Order, error) {
	o, err := s.find(orderNo)
	if err != nil {
		return nil, err
	}
	if !model.IsStaff(role) && o.UserID != userID {
		return nil, errorx.Forbidden("无权查看该订单")
	}
	return o, nil
}

func (s *orderService) find(orderNo string) (*model.Order, error) {
	o, err := s.repos.Order.FindByOrderNo(orderNo)
	if err != nil {
		if errorx.IsNotFound(err) {
			return nil, errorx.NotFound("订单不存在")
		}
		return nil, errorx.ServerError(err, "查询订单失败")
	}
	return o, nil
}

// ConfirmOffline 管理员确认线下收款 pending -> paid
func (s *orderService) ConfirmOffline(ctx context.Context, operatorID uint, orderNo string, req request.OrderRemarkRequest) (*model.Order, error) {
	o, err := s.find(orderNo)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{
		"payment_method": model.PayOffline,
		"updater_id":     operatorID,
	}
	if req.Remark != "" {
		updates["remark"] = req.Remark
	}
	if err := s.markPaid(o, updates); err != nil {
		return nil, err
	}
	zap.L().Info("线下确认收款", zap.String("orderNo", orderNo), zap.Uint("operator", operatorID))
	s.afterPaid(ctx, o)
	return s.find(orderNo)
}

// PaymentCallback 支付网关回调
// 同一流水号重复回调幂等返回；不同流水号或非待支付状态返回冲突
func (s *orderService) PaymentCallback(ctx context.Context, req request.PaymentCallbackRequest) (*model.Order, error) {
	o, err := s.find(req.OrderNo)
	if err != nil {
		return nil, err
	}

	if req.Status == "fail" {
		return s.paymentFailed(o, req)
	}

	if o.Status == model.OrderPaid {
		if o.TransactionID == req.TransactionID {
			zap.L().Info("重复支付回调", zap.String("orderNo", o.OrderNo), zap.String("transactionId", req.TransactionID))
			return o, nil
		}
		return nil, errorx.Conflict("订单已由其他流水支付")
	}
	if o.Status != model.OrderPending {
		return nil, errorx.Conflict("订单状态为 %s，不能支付", o.Status)
	}
	if !req.Amount.Equal(o.Amount) {
		zap.L().Warn("支付金额不一致",
			zap.String("orderNo", o.OrderNo),
			zap.String("expect", o.Amount.StringFixed(2)),
			zap.String("actual", req.Amount.StringFixed(2)))
		return nil, errorx.BadRequest("支付金额与订单金额不一致")
	}

	method := req.PaymentMethod
	if method == "" {
		method = model.PayWechat
	}
	err = s.markPaid(o, map[string]any{
		"payment_method": method,
		"transaction_id": req.TransactionID,
	})
	if err != nil {
		// 并发回调：另一个请求已用同一流水号完成支付
		if errorx.GetCode(err) == errorx.CodeConflict {
			if cur, ferr := s.find(o.OrderNo); ferr == nil && cur.Status == model.OrderPaid && cur.TransactionID == req.TransactionID {
				return cur, nil
			}
		}
		return nil, err
	}
	zap.L().Info("支付成功", zap.String("orderNo", o.OrderNo), zap.String("transactionId", req.TransactionID))
	s.afterPaid(ctx, o)
	return s.find(o.OrderNo)
}

// markPaid pending -> paid，报名订单同时确认报名
func (s *orderService) markPaid(o *model.Order, updates map[string]any) error {
	updates["paid_at"] = s.now()
	return s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Order.Transition(o.OrderNo, model.OrderPending, model.OrderPaid, updates)
		if err != nil {
			return errorx.ServerError(err, "更新订单失败")
		}
		if n == 0 {
			return errorx.Conflict("订单不是待支付状态")
		}
		if o.RegistrationID != 0 {
			if _, err := tx.Registration.Transition(o.RegistrationID,
				[]string{model.RegistrationPending}, model.RegistrationConfirmed); err != nil {
				return errorx.ServerError(err, "确认报名失败")
			}
		}
		return nil
	})
}

func (s *orderService) afterPaid(ctx context.Context, o *model.Order) {
	e := mq.NewEvent(mq.EventOrderPaid, o.UserID, o.ActivityID, o.ID).
		With("orderNo", o.OrderNo).
		With("source", o.Source).
		With("registrationId", o.RegistrationID)
	if err := s.bus.Publish(ctx, e); err != nil {
		zap.L().Warn("发布支付事件失败", zap.String("orderNo", o.OrderNo), zap.Error(err))
	}
}

// paymentFailed pending -> failed，释放报名占用的名额
func (s *orderService) paymentFailed(o *model.Order, req request.PaymentCallbackRequest) (*model.Order, error) {
	if o.Status == model.OrderFailed && o.TransactionID == req.TransactionID {
		return o, nil
	}
	err := s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Order.Transition(o.OrderNo, model.OrderPending, model.OrderFailed,
			map[string]any{"transaction_id": req.TransactionID})
		if err != nil {
			return errorx.ServerError(err, "更新订单失败")
		}
		if n == 0 {
			return errorx.Conflict("订单不是待支付状态")
		}
		return releaseRegistration(tx, o)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("支付失败", zap.String("orderNo", o.OrderNo), zap.String("transactionId", req.TransactionID))
	return s.find(o.OrderNo)
}

// Refund 管理员退款 paid -> refunded，报名随之取消并释放名额
func (s *orderService) Refund(ctx context.Context, operatorID uint, orderNo string, req request.OrderRemarkRequest) (*model.Order, error) {
	o, err := s.find(orderNo)
	if err != nil {
		return nil, err
	}
	updates := map[string]any{"updater_id": operatorID}
	if req.Remark != "" {
		updates["remark"] = req.Remark
	}
	err = s.repos.Transaction(func(tx *repository.Repositories) error {
		n, err := tx.Order.Transition(orderNo, model.OrderPaid, model.OrderRefunded, updates)
		if err != nil {
			return errorx.ServerError(err, "退款失败")
		}
		if n == 0 {
			return errorx.Conflict("只能对已支付订单退款")
		}
		return releaseRegistration(tx, o)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("订单退款", zap.String("orderNo", orderNo), zap.Uint("operator", operatorID))

	err = s.notifier.Notify(ctx, notification.Message{
		UserIDs: []uint{o.UserID},
		Title:   "订单已退款",
		Content: fmt.Sprintf("订单 %s 已退款 %s 元", o.OrderNo, o.Amount.StringFixed(2)),
		Type:    notification.TypeOrder,
		BizType: "order",
		BizID:   o.ID,
	})
	if err != nil {
		zap.L().Warn("退款通知失败", zap.String("orderNo", orderNo), zap.Error(err))
	}
	return s.find(orderNo)
}

// releaseRegistration 取消订单关联的报名，确有取消时释放活动名额
func releaseRegistration(tx *repository.Repositories, o *model.Order) error {
	if o.RegistrationID == 0 {
		return nil
	}
	n, err := tx.Registration.Transition(o.RegistrationID,
		[]string{model.RegistrationPending, model.RegistrationConfirmed}, model.RegistrationCancelled)
	if err != nil {
		return errorx.ServerError(err, "取消报名失败")
	}
	if n == 1 && o.ActivityID != 0 {
		if err := tx.Activity.DecrementRegistered(o.ActivityID); err != nil {
			return errorx.ServerError(err, "释放活动名额失败")
		}
	}
	return nil
}
