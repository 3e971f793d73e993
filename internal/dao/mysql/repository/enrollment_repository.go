package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository 创建入园申请 Repository
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(a *model.EnrollmentApplication) error {
	if err := r.db.Create(a).Error; err != nil {
		return wrapDBError(err, "提交入园申请")
	}
	return nil
}

func (r *enrollmentRepository) FindByID(id uint) (*model.EnrollmentApplication, error) {
	var a model.EnrollmentApplication
	if err := r.db.First(&a, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询入园申请 id=%d", id)
	}
	return &a, nil
}

func (r *enrollmentRepository) List(filter EnrollmentFilter) ([]model.EnrollmentApplication, int64, error) {
	q := r.db.Model(&model.EnrollmentApplication{}).Scopes(byKindergarten(filter.KindergartenID))
	if filter.ApplicantID != 0 {
		q = q.Where("applicant_id = ?", filter.ApplicantID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var list []model.EnrollmentApplication
	total, err := pageQuery(q, filter.Pager, "id DESC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询入园申请列表")
	}
	return list, total, nil
}

func (r *enrollmentRepository) Transition(id uint, from, to string, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	res := r.db.Model(&model.EnrollmentApplication{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if res.Error != nil {
		return 0, wrapDBErrorf(res.Error, "更新入园申请状态 id=%d", id)
	}
	return res.RowsAffected, nil
}
