package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

// last_error 最大字节数
const maxLastErrorBytes = 500

type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知 Repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) CreateBatch(list []*model.Notification) error {
	if len(list) == 0 {
		return nil
	}
	if err := r.db.CreateInBatches(list, 200).Error; err != nil {
		return wrapDBError(err, "保存通知")
	}
	return nil
}

func (r *notificationRepository) FindByID(id uint) (*model.Notification, error) {
	var n model.Notification
	if err := r.db.First(&n, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询通知 id=%d", id)
	}
	return &n, nil
}

// ListByUser 站内信列表，只返回 in_app 渠道
func (r *notificationRepository) ListByUser(userID uint, unreadOnly bool, p Pager) ([]model.Notification, int64, error) {
	q := r.db.Model(&model.Notification{}).Where("user_id = ? AND channel = ?", userID, model.ChannelInApp)
	if unreadOnly {
		q = q.Where("read_at IS NULL")
	}
	var list []model.Notification
	total, err := pageQuery(q, p, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询通知列表")
	}
	return list, total, nil
}

func (r *notificationRepository) CountUnread(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND channel = ? AND read_at IS NULL", userID, model.ChannelInApp).
		Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计未读通知")
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(id, userID uint) (int64, error) {
	res := r.db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "标记已读 id=%d", id)
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.db.Model(&model.Notification{}).
		Where("user_id = ? AND channel = ? AND read_at IS NULL", userID, model.ChannelInApp).
		Update("read_at", time.Now())
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "全部标记已读")
	}
	return res.RowsAffected, nil
}

func (r *notificationRepository) MarkSent(id uint) error {
	err := r.db.Model(&model.Notification{}).Where("id = ?", id).Updates(map[string]any{
		"status":     model.NotifySent,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": "",
	}).Error
	if err != nil {
		return wrapDBErrorf(err, "更新通知状态 id=%d", id)
	}
	return nil
}

func (r *notificationRepository) MarkFailed(id uint, reason string) error {
	reason = truncateUTF8(reason, maxLastErrorBytes)
	err := r.db.Model(&model.Notification{}).Where("id = ?", id).Updates(map[string]any{
		"status":     model.NotifyFailed,
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": reason,
	}).Error
	if err != nil {
		return wrapDBErrorf(err, "更新通知状态 id=%d", id)
	}
	return nil
}

func (r *notificationRepository) ListRetryable(maxAttempts, limit int) ([]model.Notification, error) {
	var list []model.Notification
	err := r.db.Where("status = ? AND attempts < ?", model.NotifyFailed, maxAttempts).
		Order("id ASC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, wrapDBError(err, "查询待重试通知")
	}
	return list, nil
}
