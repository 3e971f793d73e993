package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

// studentRepository StudentRepository 接口的实现
type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository 创建学生 Repository
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(s *model.Student) error {
	if err := r.db.Create(s).Error; err != nil {
		return wrapDBError(err, "创建学生")
	}
	return nil
}

// FindByID 查询学生，同时加载监护人（主监护人在前）和班级
func (r *studentRepository) FindByID(id uint) (*model.Student, error) {
	var s model.Student
	err := r.db.
		Preload("Guardians", func(db *gorm.DB) *gorm.DB {
			return db.Order("is_primary DESC, id ASC")
		}).
		Preload("Class").
		First(&s, id).Error
	if err != nil {
		return nil, wrapDBErrorf(err, "查询学生 id=%d", id)
	}
	return &s, nil
}

func (r *studentRepository) FindByIDUnscoped(id uint) (*model.Student, error) {
	var s model.Student
	if err := r.db.Unscoped().First(&s, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询学生 id=%d", id)
	}
	return &s, nil
}

func (r *studentRepository) Update(s *model.Student) error {
	// Omit 关联，避免 Save 连带写回 Guardians/Class
	if err := r.db.Omit("Guardians", "Class").Save(s).Error; err != nil {
		return wrapDBErrorf(err, "更新学生 id=%d", s.ID)
	}
	return nil
}

func (r *studentRepository) List(filter StudentFilter) ([]model.Student, int64, error) {
	q := r.db.Model(&model.Student{}).Scopes(byKindergarten(filter.KindergartenID))
	if filter.ClassID != 0 {
		q = q.Where("class_id = ?", filter.ClassID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		q = q.Where("name LIKE ? OR student_no LIKE ?", like, like)
	}
	var list []model.Student
	total, err := pageQuery(q, filter.Pager, "id DESC", &list, "Class")
	if err != nil {
		return nil, 0, wrapDBError(err, "查询学生列表")
	}
	return list, total, nil
}

func (r *studentRepository) ListByClass(classID uint) ([]model.Student, error) {
	var list []model.Student
	if err := r.db.Where("class_id = ?", classID).Order("name ASC").Find(&list).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询班级学生 class=%d", classID)
	}
	return list, nil
}

// CountActiveInClass 只统计 active 和 suspended（休学仍保留学位）
func (r *studentRepository) CountActiveInClass(classID uint) (int64, error) {
	var n int64
	err := r.db.Model(&model.Student{}).
		Where("class_id = ? AND status IN ?", classID, []string{model.StudentStatusActive, model.StudentStatusSuspended}).
		Count(&n).Error
	if err != nil {
		return 0, wrapDBErrorf(err, "统计班级人数 class=%d", classID)
	}
	return n, nil
}

func (r *studentRepository) CountByKindergarten(kindergartenID uint) (int64, error) {
	var n int64
	if err := r.db.Model(&model.Student{}).Where("kindergarten_id = ?", kindergartenID).Count(&n).Error; err != nil {
		return 0, wrapDBError(err, "统计园所学生")
	}
	return n, nil
}

func (r *studentRepository) UpdateClass(id uint, classID *uint, operatorID uint) error {
	err := r.db.Model(&model.Student{}).Where("id = ?", id).
		Updates(map[string]any{"class_id": classID, "updater_id": operatorID}).Error
	if err != nil {
		return wrapDBErrorf(err, "调整班级 student=%d", id)
	}
	return nil
}

// UpdateStatus 批量更新状态；毕业、转出同时清空班级
func (r *studentRepository) UpdateStatus(ids []uint, status string, operatorID uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	updates := map[string]any{"status": status, "updater_id": operatorID}
	if model.LeavesClass(status) {
		updates["class_id"] = nil
	}
	res := r.db.Model(&model.Student{}).Where("id IN ?", ids).Updates(updates)
	if res.Error != nil {
		return 0, wrapDBError(res.Error, "更新学生状态")
	}
	return res.RowsAffected, nil
}

// SoftDelete 状态置为 transferred、清空班级后软删除
func (r *studentRepository) SoftDelete(id uint, operatorID uint) error {
	err := r.db.Model(&model.Student{}).Where("id = ?", id).Updates(map[string]any{
		"status":     model.StudentStatusTransferred,
		"class_id":   nil,
		"updater_id": operatorID,
	}).Error
	if err != nil {
		return wrapDBErrorf(err, "删除学生 id=%d", id)
	}
	if err := r.db.Delete(&model.Student{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除学生 id=%d", id)
	}
	return nil
}
