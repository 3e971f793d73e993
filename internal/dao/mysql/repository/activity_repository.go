package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository 创建活动 Repository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(a *model.Activity) error {
	if err := r.db.Create(a).Error; err != nil {
		return wrapDBError(err, "创建活动")
	}
	return nil
}

func (r *activityRepository) FindByID(id uint) (*model.Activity, error) {
	var a model.Activity
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询活动 id=%d", id)
	}
	return &a, nil
}

// FindByIDForUpdate 加行锁读取活动，报名时串行化同一活动的写入
func (r *activityRepository) FindByIDForUpdate(id uint) (*model.Activity, error) {
	var a model.Activity
	if err := r.db.Scopes(forUpdate).First(&a, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "锁定活动 id=%d", id)
	}
	return &a, nil
}

// Update 写回基本信息；已报名人数与状态只走条件更新
func (r *activityRepository) Update(a *model.Activity) error {
	if err := r.db.Omit("registered_count", "status").Save(a).Error; err != nil {
		return wrapDBErrorf(err, "更新活动 id=%d", a.ID)
	}
	return nil
}

func (r *activityRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Activity{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除活动 id=%d", id)
	}
	return nil
}

func (r *activityRepository) List(filter ActivityFilter) ([]model.Activity, int64, error) {
	q := r.db.Model(&model.Activity{}).Scopes(byKindergarten(filter.KindergartenID))
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var list []model.Activity
	total, err := pageQuery(q, filter.Pager, "start_time DESC, id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询活动列表")
	}
	return list, total, nil
}

func (r *activityRepository) Transition(id uint, from []string, to string) (int64, error) {
	res := r.db.Model(&model.Activity{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新活动状态 id=%d", id)
	}
	return res.RowsAffected, nil
}

// IncrementRegistered 条件自增，名额已满时受影响行数为 0
func (r *activityRepository) IncrementRegistered(id uint) (int64, error) {
	res := r.db.Model(&model.Activity{}).
		Where("id = ? AND registered_count < capacity", id).
		UpdateColumn("registered_count", gorm.Expr("registered_count + 1"))
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "占用活动名额 id=%d", id)
	}
	return res.RowsAffected, nil
}

func (r *activityRepository) DecrementRegistered(id uint) error {
	err := r.db.Model(&model.Activity{}).
		Where("id = ? AND registered_count > 0", id).
		UpdateColumn("registered_count", gorm.Expr("registered_count - 1")).Error
	if err != nil {
		return wrapDBErrorf(err, "释放活动名额 id=%d", id)
	}
	return nil
}
