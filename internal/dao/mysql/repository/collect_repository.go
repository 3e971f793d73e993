package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type collectRepository struct {
	db *gorm.DB
}

// NewCollectRepository 创建助力活动 Repository
func NewCollectRepository(db *gorm.DB) CollectRepository {
	return &collectRepository{db: db}
}

func (r *collectRepository) Create(c *model.CollectActivity) error {
	if err := r.db.Create(c).Error; err != nil {
		return wrapDBError(err, "创建助力活动")
	}
	return nil
}

func (r *collectRepository) FindByID(id uint) (*model.CollectActivity, error) {
	var c model.CollectActivity
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询助力活动 id=%d", id)
	}
	return &c, nil
}

func (r *collectRepository) FindByCode(code string) (*model.CollectActivity, error) {
	var c model.CollectActivity
	if err := r.db.First(&c, "collect_code = ?", code).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询助力码 %s", code)
	}
	return &c, nil
}

func (r *collectRepository) ListByOwner(ownerID uint, p Pager) ([]model.CollectActivity, int64, error) {
	q := r.db.Model(&model.CollectActivity{}).Where("owner_id = ?", ownerID)
	var list []model.CollectActivity
	total, err := pageQuery(q, p, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询我的助力活动")
	}
	return list, total, nil
}

// IncrementCount 条件自增：未达上限、未过期、状态为 active 或 completed
func (r *collectRepository) IncrementCount(id uint, now time.Time) (int64, error) {
	res := r.db.Model(&model.CollectActivity{}).
		Where("id = ? AND current_count < max_count AND deadline > ? AND status IN ?",
			id, now, []string{model.CollectActive, model.CollectCompleted}).
		UpdateColumn("current_count", gorm.Expr("current_count + 1"))
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "助力计数 id=%d", id)
	}
	return res.RowsAffected, nil
}

// MarkCompleted 只有第一次达标的请求能拿到受影响行数 1
func (r *collectRepository) MarkCompleted(id uint, now time.Time) (int64, error) {
	res := r.db.Model(&model.CollectActivity{}).
		Where("id = ? AND status = ? AND current_count >= target_count", id, model.CollectActive).
		Updates(map[string]any{"status": model.CollectCompleted, "completed_at": now})
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "助力达标 id=%d", id)
	}
	return res.RowsAffected, nil
}

func (r *collectRepository) AddRecord(rec *model.CollectRecord) error {
	if err := r.db.Create(rec).Error; err != nil {
		return wrapDBErrorf(err, "记录助力 collect=%d helper=%d", rec.CollectActivityID, rec.HelperID)
	}
	return nil
}

func (r *collectRepository) ListRecords(collectID uint, p Pager) ([]model.CollectRecord, int64, error) {
	q := r.db.Model(&model.CollectRecord{}).Where("collect_activity_id = ?", collectID)
	var list []model.CollectRecord
	total, err := pageQuery(q, p, "id ASC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询助力记录")
	}
	return list, total, nil
}

func (r *collectRepository) ExpireOverdue(now time.Time) (int64, error) {
	res := r.db.Model(&model.CollectActivity{}).
		Where("status = ? AND deadline < ?", model.CollectActive, now).
		Update("status", model.CollectExpired)
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "过期助力活动")
	}
	return res.RowsAffected, nil
}

func (r *collectRepository) MaxCountByOwner(activityID, ownerID uint) (int64, error) {
	var max int64
	err := r.db.Model(&model.CollectActivity{}).
		Where("activity_id = ? AND owner_id = ?", activityID, ownerID).
		Select("COALESCE(MAX(current_count), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, wrapDBError(err, "统计助力人数")
	}
	return max, nil
}
