package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// analyticsRepository 看板聚合查询
// 只使用 MySQL 与 SQLite 都支持的 SQL，按月分桶在 Service 层完成
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建统计 Repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) statusCounts(m any, scope func(*gorm.DB) *gorm.DB) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(m).Scopes(scope).
		Select("status, COUNT(*) AS count").
		Group("status").Order("status").
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepository) StudentStatusCounts(kindergartenID uint) ([]StatusCount, error) {
	rows, err := r.statusCounts(&model.Student{}, byKindergarten(kindergartenID))
	if err != nil {
		return nil, wrapDBError(err, "统计学生状态")
	}
	return rows, nil
}

func (r *analyticsRepository) CountClasses(kindergartenID uint) (int64, error) {
	var n int64
	if err := r.db.Model(&model.Class{}).Scopes(byKindergarten(kindergartenID)).Count(&n).Error; err != nil {
		return 0, wrapDBError(err, "统计班级数")
	}
	return n, nil
}

func (r *analyticsRepository) CountActiveTeachers(kindergartenID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.Teacher{}).Scopes(byKindergarten(kindergartenID)).
		Where("status = ?", model.TeacherStatusActive).Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计教师数")
	}
	return n, nil
}

func (r *analyticsRepository) ActivityStatusCounts(kindergartenID uint) ([]StatusCount, error) {
	rows, err := r.statusCounts(&model.Activity{}, byKindergarten(kindergartenID))
	if err != nil {
		return nil, wrapDBError(err, "统计活动状态")
	}
	return rows, nil
}

func (r *analyticsRepository) CountPendingEnrollments(kindergartenID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.EnrollmentApplication{}).Scopes(byKindergarten(kindergartenID)).
		Where("status = ?", model.EnrollmentPending).Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计待审核申请")
	}
	return n, nil
}

// PaidRevenue 已支付订单金额合计；两个 ID 都为 0 时统计全部
func (r *analyticsRepository) PaidRevenue(kindergartenID, activityID uint) (decimal.Decimal, error) {
	q := r.db.Model(&model.Order{}).Where("order_info.status = ?", model.OrderPaid)
	if activityID != 0 {
		q = q.Where("order_info.activity_id = ?", activityID)
	}
	if kindergartenID != 0 {
		q = q.Joins("JOIN activity ON activity.id = order_info.activity_id").
			Where("activity.kindergarten_id = ?", kindergartenID)
	}
	// decimal.Decimal 实现了 sql.Scanner，直接走 Row().Scan
	var sum decimal.Decimal
	if err := q.Select("COALESCE(SUM(order_info.amount), 0)").Row().Scan(&sum); err != nil {
		return decimal.Zero, wrapDBError(err, "统计收入")
	}
	return sum, nil
}

func (r *analyticsRepository) EnrollmentDates(kindergartenID uint, since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.Model(&model.Student{}).Unscoped().Scopes(byKindergarten(kindergartenID)).
		Where("enrollment_date >= ?", since).
		Pluck("enrollment_date", &dates).Error
	if err != nil {
		return nil, wrapDBError(err, "查询入园日期")
	}
	return dates, nil
}

func (r *analyticsRepository) GroupBuyStatusCounts(activityID uint) ([]StatusCount, error) {
	rows, err := r.statusCounts(&model.GroupBuy{}, byActivity(activityID))
	if err != nil {
		return nil, wrapDBError(err, "统计拼团状态")
	}
	return rows, nil
}

func (r *analyticsRepository) CollectStatusCounts(activityID uint) ([]StatusCount, error) {
	rows, err := r.statusCounts(&model.CollectActivity{}, byActivity(activityID))
	if err != nil {
		return nil, wrapDBError(err, "统计助力状态")
	}
	return rows, nil
}

func (r *analyticsRepository) RewardTierStats(activityID uint) ([]TierStat, error) {
	var rows []TierStat
	err := r.db.Model(&model.TieredRewardRecord{}).Scopes(byActivity(activityID)).
		Select(`type, tier,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS issued,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS claimed,
			SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS revoked`,
			model.RewardRecordIssued, model.RewardRecordClaimed, model.RewardRecordRevoked).
		Group("type, tier").Order("type, tier").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "统计奖励发放")
	}
	return rows, nil
}

func (r *analyticsRepository) CountRegistrations(activityID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.ActivityRegistration{}).Scopes(byActivity(activityID)).
		Where("status <> ?", model.RegistrationCancelled).Count(&n).Error
	if err != nil {
		return 0, wrapDBError(err, "统计报名数")
	}
	return n, nil
}

func (r *analyticsRepository) ClassOccupancy(kindergartenID uint) ([]ClassOccupancy, error) {
	var rows []ClassOccupancy
	err := r.db.Model(&model.Class{}).
		Select(`class.id AS class_id, class.kindergarten_id, class.name, class.grade, class.capacity,
			COUNT(student.id) AS assigned`).
		Joins(`LEFT JOIN student ON student.class_id = class.id AND student.deleted_at IS NULL AND student.status IN ?`,
			[]string{model.StudentStatusActive, model.StudentStatusSuspended}).
		Scopes(func(db *gorm.DB) *gorm.DB {
			if kindergartenID == 0 {
				return db
			}
			return db.Where("class.kindergarten_id = ?", kindergartenID)
		}).
		Group("class.id, class.kindergarten_id, class.name, class.grade, class.capacity").
		Order("class.id").
		Scan(&rows).Error
	if err != nil {
		return nil, wrapDBError(err, "统计班级占用")
	}
	return rows, nil
}

// byActivity activityID 为 0 时不过滤
func byActivity(activityID uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if activityID == 0 {
			return db
		}
		return db.Where("activity_id = ?", activityID)
	}
}
