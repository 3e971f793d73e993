package model

import "gorm.io/gorm"

// 通用启停状态
const (
	StatusEnabled  int8 = 1
	StatusDisabled int8 = 0
)

// Kindergarten 幼儿园（租户）
type Kindergarten struct {
	gorm.Model
	Audit
	Name      string `gorm:"column:name;type:varchar(64);not null;comment:园所名称" json:"name"`
	Address   string `gorm:"column:address;type:varchar(255);comment:地址" json:"address"`
	Telephone string `gorm:"column:telephone;type:varchar(20);comment:联系电话" json:"telephone"`
	Capacity  int    `gorm:"column:capacity;not null;default:0;comment:容纳人数" json:"capacity"`
	Status    int8   `gorm:"column:status;not null;default:1;comment:1.启用 0.停用" json:"status"`
}

func (Kindergarten) TableName() string {
	return "kindergarten"
}

// 年级
const (
	GradeSmall  = "small"
	GradeMiddle = "middle"
	GradeLarge  = "large"
	GradePre    = "pre" // 学前班
)

// ValidGrade 年级是否合法
func ValidGrade(grade string) bool {
	switch grade {
	case GradeSmall, GradeMiddle, GradeLarge, GradePre:
		return true
	}
	return false
}

// Class 班级
// 在读学生数不得超过 Capacity
type Class struct {
	gorm.Model
	Audit
	KindergartenID uint   `gorm:"column:kindergarten_id;index;not null;comment:幼儿园" json:"kindergartenId"`
	Name           string `gorm:"column:name;type:varchar(32);not null;comment:班级名称" json:"name"`
	Grade          string `gorm:"column:grade;type:varchar(16);not null;comment:年级" json:"grade"`
	Capacity       int    `gorm:"column:capacity;not null;comment:班级容量" json:"capacity"`
	HeadTeacherID  *uint  `gorm:"column:head_teacher_id;index;comment:班主任" json:"headTeacherId"`
	Status         int8   `gorm:"column:status;not null;default:1;comment:1.启用 0.停用" json:"status"`
}

func (Class) TableName() string {
	return "class"
}

// 教师状态
const (
	TeacherStatusActive   = "active"
	TeacherStatusOnLeave  = "on_leave"
	TeacherStatusResigned = "resigned"
)

// ValidTeacherStatus 教师状态是否合法
func ValidTeacherStatus(s string) bool {
	switch s {
	case TeacherStatusActive, TeacherStatusOnLeave, TeacherStatusResigned:
		return true
	}
	return false
}

// Teacher 教师档案
type Teacher struct {
	gorm.Model
	Audit
	KindergartenID uint   `gorm:"column:kindergarten_id;index;not null;comment:幼儿园" json:"kindergartenId"`
	UserID         uint   `gorm:"column:user_id;index;comment:关联账号" json:"userId"`
	Name           string `gorm:"column:name;type:varchar(32);not null;comment:姓名" json:"name"`
	Telephone      string `gorm:"column:telephone;type:varchar(20);comment:电话" json:"telephone"`
	Email          string `gorm:"column:email;type:varchar(64);comment:邮箱" json:"email"`
	Position       string `gorm:"column:position;type:varchar(32);comment:岗位" json:"position"`
	Status         string `gorm:"column:status;type:varchar(16);not null;default:active;comment:状态" json:"status"`
}

func (Teacher) TableName() string {
	return "teacher"
}
