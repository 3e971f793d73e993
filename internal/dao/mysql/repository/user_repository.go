package repository

import (
	"time"

	"kindergarten_server/internal/model"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建用户 Repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID 按主键查找用户
func (r *userRepository) FindByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 id=%d", id)
	}
	return &user, nil
}

// FindByUsername 按登录名查找用户
func (r *userRepository) FindByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "username = ?", username).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 username=%s", username)
	}
	return &user, nil
}

// FindByTelephone 按电话查找用户
func (r *userRepository) FindByTelephone(telephone string) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, "telephone = ?", telephone).Error; err != nil {
		return nil, wrapDBErrorf(err, "查询用户 telephone=%s", telephone)
	}
	return &user, nil
}

// FindByIDs 按主键列表查找用户
func (r *userRepository) FindByIDs(ids []uint) ([]model.User, error) {
	var users []model.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, wrapDBError(err, "批量查询用户")
	}
	return users, nil
}

// FindIDsByKindergartenAndRole 查找某园所某角色的全部账号 ID
func (r *userRepository) FindIDsByKindergartenAndRole(kindergartenID uint, role string) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&model.User{}).
		Scopes(byKindergarten(kindergartenID)).
		Where("role = ? AND status = ?", role, model.UserStatusNormal).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, wrapDBError(err, "查询园所用户")
	}
	return ids, nil
}

// Create 创建用户
func (r *userRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return wrapDBError(err, "创建用户")
	}
	return nil
}

// UpdateLastLogin 记录登录时间
func (r *userRepository) UpdateLastLogin(id uint) error {
	if err := r.db.Model(&model.User{}).Where("id = ?", id).Update("last_login_at", time.Now()).Error; err != nil {
		return wrapDBError(err, "更新登录时间")
	}
	return nil
}
