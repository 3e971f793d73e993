package repository

import (
	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type guardianRepository struct {
	db *gorm.DB
}

// NewGuardianRepository 创建监护人 Repository
func NewGuardianRepository(db *gorm.DB) GuardianRepository {
	return &guardianRepository{db: db}
}

func (r *guardianRepository) Create(g *model.Guardian) error {
	if err := r.db.Create(g).Error; err != nil {
		return wrapDBError(err, "添加监护人")
	}
	return nil
}

func (r *guardianRepository) FindByID(id uint) (*model.Guardian, error) {
	var g model.Guardian
	if err := r.db.First(&g, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询监护人 id=%d", id)
	}
	return &g, nil
}

func (r *guardianRepository) Delete(id uint) error {
	if err := r.db.Delete(&model.Guardian{}, id).Error; err != nil {
		return wrapDBErrorf(err, "删除监护人 id=%d", id)
	}
	return nil
}

func (r *guardianRepository) ClearPrimary(studentID uint) error {
	err := r.db.Model(&model.Guardian{}).
		Where("student_id = ? AND is_primary = ?", studentID, true).
		Update("is_primary", false).Error
	if err != nil {
		return wrapDBErrorf(err, "重置主监护人 student=%d", studentID)
	}
	return nil
}

func (r *guardianRepository) UserIDsByStudent(studentID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Guardian{}).
		Where("student_id = ? AND user_id > 0", studentID).
		Distinct().Pluck("user_id", &ids).Error
	if err != nil {
		return nil, wrapDBError(err, "查询监护人账号")
	}
	return ids, nil
}

func (r *guardianRepository) UserIDsByClass(classID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.Guardian{}).
		Joins("JOIN student ON student.id = guardian.student_id AND student.deleted_at IS NULL").
		Where("student.class_id = ? AND guardian.user_id > 0", classID).
		Distinct().Pluck("guardian.user_id", &ids).Error
	if err != nil {
		return nil, wrapDBError(err, "查询班级家长账号")
	}
	return ids, nil
}
