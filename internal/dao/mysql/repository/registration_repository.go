package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository 创建报名 Repository
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

func (r *registrationRepository) Create(reg *model.ActivityRegistration) error {
	if err := r.db.Create(reg).Error; err != nil {
		return wrapDBError(err, "创建报名")
	}
	return nil
}

func (r *registrationRepository) FindByID(id uint) (*model.ActivityRegistration, error) {
	var reg model.ActivityRegistration
	if err := r.db.First(&reg, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询报名 id=%d", id)
	}
	return &reg, nil
}

func (r *registrationRepository) ExistsActive(activityID, userID, studentID uint) (bool, error) {
	var n int64
	err := r.db.Model(&model.ActivityRegistration{}).
		Where("activity_id = ? AND user_id = ? AND student_id = ? AND status <> ?",
			activityID, userID, studentID, model.RegistrationCancelled).
		Count(&n).Error
	if err != nil {
		return false, wrapDBError(err, "查询重复报名")
	}
	return n > 0, nil
}

func (r *registrationRepository) ListByActivity(activityID uint, p Pager) ([]model.ActivityRegistration, int64, error) {
	q := r.db.Model(&model.ActivityRegistration{}).Where("activity_id = ?", activityID)
	var list []model.ActivityRegistration
	total, err := pageQuery(q, p, "id ASC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询报名列表")
	}
	return list, total, nil
}

func (r *registrationRepository) Transition(id uint, from []string, to string) (int64, error) {
	res := r.db.Model(&model.ActivityRegistration{}).
		Where("id = ? AND status IN ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新报名状态 id=%d", id)
	}
	return res.RowsAffected, nil
}

func (r *registrationRepository) SetOrder(id, orderID uint) error {
	if err := r.db.Model(&model.ActivityRegistration{}).Where("id = ?", id).Update("order_id", orderID).Error; err != nil {
		return wrapDBErrorf(err, "关联订单 registration=%d", id)
	}
	return nil
}

func (r *registrationRepository) CancelByActivity(activityID uint) ([]uint, error) {
	var userIDs []uint
	active := []string{model.RegistrationPending, model.RegistrationConfirmed}
	err := r.db.Model(&model.ActivityRegistration{}).
		Where("activity_id = ? AND status IN ?", activityID, active).
		Distinct().Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, wrapDBError(err, "查询活动报名用户")
	}
	err = r.db.Model(&model.ActivityRegistration{}).
		Where("activity_id = ? AND status IN ?", activityID, active).
		Update("status", model.RegistrationCancelled).Error
	if err != nil {
		return nil, wrapDBError(err, "取消活动报名")
	}
	return userIDs, nil
}

func (r *registrationRepository) CountReferrals(activityID, referrerID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.ActivityRegistration{}).
		Where("activity_id = ? AND referrer_id = ? AND status <> ?", activityID, referrerID, model.RegistrationCancelled).
		Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计推荐人数")
	}
	return n, nil
}

func (r *registrationRepository) CountConfirmed(activityID, userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.ActivityRegistration{}).
		Where("activity_id = ? AND user_id = ? AND status = ?", activityID, userID, model.RegistrationConfirmed).
		Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计已确认报名")
	}
	return n, nil
}
