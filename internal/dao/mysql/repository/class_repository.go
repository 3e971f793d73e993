package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository 创建班级 Repository
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) Create(c *model.Class) error {
	if err := createWithStatus(r.db, c, &c.Status); err != nil {
		return wrapDBError(err, "创建班级")
	}
	return nil
}

func (r *classRepository) FindByID(id uint) (*model.Class, error) {
	var c model.Class
	if err := r.db.First(&c, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询班级 id=%d", id)
	}
	return &c, nil
}

func (r *classRepository) FindByIDForUpdate(id uint) (*model.Class, error) {
	var c model.Class
	if err := r.db.Scopes(forUpdate).First(&c, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "锁定班级 id=%d", id)
	}
	return &c, nil
}

func (r *classRepository) Update(c *model.Class) error {
	if err := r.db.Save(c).Error; err != nil {
		return wrapDBErrorf(err, "更新班级 id=%d", c.ID)
	}
	return nil
}

func (r *classRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Class{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除班级 id=%d", id)
	}
	return nil
}

func (r *classRepository) List(filter ClassFilter) ([]model.Class, int64, error) {
	q := r.db.Model(&model.Class{}).Scopes(byKindergarten(filter.KindergartenID))
	if filter.Grade != "" {
		q = q.Where("grade = ?", filter.Grade)
	}
	var list []model.Class
	total, err := pageQuery(q, filter.Pager, "id ASC", &list)
	if err != nil {
		return nil, 0, wrapDBError(err, "查询班级列表")
	}
	return list, total, nil
}

func (r *classRepository) SetHeadTeacher(classID uint, teacherID *uint) error {
	if err := r.db.Model(&model.Class{}).Where("id = ?", classID).Update("head_teacher_id", teacherID).Error; err != nil {
		return wrapDBErrorf(err, "设置班主任 class=%d", classID)
	}
	return nil
}

func (r *classRepository) CountByHeadTeacher(teacherID uint) (int64, error) {
	var n int64
	if err := r.db.Model(&model.Class{}).Where("head_teacher_id = ?", teacherID).Count(&n).Error; err != nil {
		return 0, wrapDBError(err, "统计班主任任职")
	}
	return n, nil
}
