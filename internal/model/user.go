package model

import (
	"database/sql"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 账号状态
const (
	UserStatusNormal   int8 = 0
	UserStatusDisabled int8 = 1
)

// User 系统账号（管理员、园长、教师、家长）
type User struct {
	gorm.Model
	Audit

	// Uuid 对外暴露的用户标识
	Uuid string `gorm:"column:uuid;uniqueIndex;type:char(20);comment:用户唯一id" json:"uuid"`

	Username  string `gorm:"column:username;uniqueIndex;type:varchar(32);not null;comment:登录名" json:"username"`
	Nickname  string `gorm:"column:nickname;type:varchar(32);comment:昵称" json:"nickname"`
	Telephone string `gorm:"column:telephone;index;type:char(11);comment:电话" json:"telephone"`
	Email     string `gorm:"column:email;type:varchar(64);comment:邮箱" json:"email"`

	// Password bcrypt 哈希，不存储明文
	Password string `gorm:"column:password;type:varchar(100);not null;comment:密码" json:"-"`

	Role           string `gorm:"column:role;type:varchar(16);index;not null;comment:角色" json:"role"`
	KindergartenID uint   `gorm:"column:kindergarten_id;index;comment:所属幼儿园" json:"kindergartenId"`
	Status         int8   `gorm:"column:status;not null;default:0;comment:状态，0.正常，1.禁用" json:"status"`

	LastLoginAt sql.NullTime `gorm:"column:last_login_at;comment:上次登录时间" json:"-"`

	// RawPassword 明文密码（不存入数据库），在 BeforeSave 中加密
	RawPassword string `gorm:"-" json:"-"`
}

func (User) TableName() string {
	return "sys_user"
}

// BeforeSave 有明文密码时自动哈希
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.RawPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.RawPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hash)
		u.RawPassword = ""
	}
	return nil
}

// CheckPassword 校验明文密码
func (u *User) CheckPassword(plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plaintext)) == nil
}
