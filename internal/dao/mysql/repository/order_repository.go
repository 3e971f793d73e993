package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单 Repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(o *model.Order) error {
	if err := r.db.Create(o).Error; err != nil {
		return wrapDBError(err, "创建订单")
	}
	return nil
}

func (r *orderRepository) FindByOrderNo(orderNo string) (*model.Order, error) {
	var o model.Order
	if err := r.db.First(&o, "order_no = ?", orderNo).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询订单 %s", orderNo)
	}
	return &o, nil
}

func (r *orderRepository) List(filter OrderFilter) ([]model.Order, int64, error) {
	q := r.db.Model(&model.Order{})
	if filter.UserID != 0 {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.ActivityID != 0 {
		q = q.Where("activity_id = ?", filter.ActivityID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var list []model.Order
	total, err := pageQuery(q, filter.Pager, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询订单列表")
	}
	return list, total, nil
}

// Transition 订单状态机的唯一写入口
// 受影响行数为 0 说明订单已被并发修改或状态不符
func (r *orderRepository) Transition(orderNo string, from, to string, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.Model(&model.Order{}).
		Where("order_no = ? AND status = ?", orderNo, from).
		Updates(values)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新订单状态 %s", orderNo)
	}
	return res.RowsAffected, nil
}

func (r *orderRepository) CancelPendingByActivity(activityID uint) (int64, error) {
	return r.cancelPending("activity_id = ?", activityID)
}

func (r *orderRepository) CancelPendingByGroupBuy(groupBuyID uint) (int64, error) {
	return r.cancelPending("group_buy_id = ?", groupBuyID)
}

func (r *orderRepository) CancelPendingByID(id uint) (int64, error) {
	return r.cancelPending("id = ?", id)
}

func (r *orderRepository) cancelPending(cond string, arg any) (int64, error) {
	res := r.db.Model(&model.Order{}).
		Where(cond, arg).
		Where("status = ?", model.OrderPending).
		Update("status", model.OrderCancelled)
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "取消待支付订单")
	}
	return res.RowsAffected, nil
}
