package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type teacherRepository struct {
	db *gorm.DB
}

// NewTeacherRepository 创建教师 Repository
func NewTeacherRepository(db *gorm.DB) TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(t *model.Teacher) error {
	if err := r.db.Create(t).Error; err != nil {
		return wrapDBError(err, "创建教师")
	}
	return nil
}

func (r *teacherRepository) FindByID(id uint) (*model.Teacher, error) {
	var t model.Teacher
	if err := r.db.First(&t, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询教师 id=%d", id)
	}
	return &t, nil
}

func (r *teacherRepository) Update(t *model.Teacher) error {
	if err := r.db.Save(t).Error; err != nil {
		return wrapDBErrorf(err, "更新教师 id=%d", t.ID)
	}
	return nil
}

func (r *teacherRepository) UpdateStatus(id uint, status string) error {
	if err := r.db.Model(&model.Teacher{}).Where("id = ?", id).Update("status", status).Error; err != nil {
		return wrapDBErrorf(err, "更新教师状态 id=%d", id)
	}
	return nil
}

func (r *teacherRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Teacher{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除教师 id=%d", id)
	}
	return nil
}

func (r *teacherRepository) List(filter TeacherFilter) ([]model.Teacher, int64, error) {
	q := r.db.Model(&model.Teacher{}).Scopes(byKindergarten(filter.KindergartenID))
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		q = q.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}
	var list []model.Teacher
	total, err := pageQuery(q, filter.Pager, "id ASC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询教师列表")
	}
	return list, total, nil
}
