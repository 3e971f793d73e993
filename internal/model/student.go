package model

import (
	"time"

	"gorm.io/gorm"
)

// 学生状态
const (
	StudentStatusActive      = "active"
	StudentStatusGraduated   = "graduated"
	StudentStatusTransferred = "transferred"
	StudentStatusSuspended   = "suspended"
)

// ValidStudentStatus 学生状态是否合法
func ValidStudentStatus(s string) bool {
	switch s {
	case StudentStatusActive, StudentStatusGraduated, StudentStatusTransferred, StudentStatusSuspended:
		return true
	}
	return false
}

// LeavesClass 毕业或转出后不再占用班级名额
func LeavesClass(status string) bool {
	return status == StudentStatusGraduated || status == StudentStatusTransferred
}

// Student 学生档案
type Student struct {
	gorm.Model
	Audit
	StudentNo      string     `gorm:"column:student_no;uniqueIndex;type:varchar(32);not null;comment:学号" json:"studentNo"`
	Name           string     `gorm:"column:name;type:varchar(32);not null;comment:姓名" json:"name"`
	Gender         int8       `gorm:"column:gender;comment:性别，0.男，1.女" json:"gender"`
	BirthDate      time.Time  `gorm:"column:birth_date;comment:出生日期" json:"birthDate"`
	KindergartenID uint       `gorm:"column:kindergarten_id;index;not null;comment:幼儿园" json:"kindergartenId"`
	ClassID        *uint      `gorm:"column:class_id;index;comment:班级" json:"classId"`
	EnrollmentDate time.Time  `gorm:"column:enrollment_date;comment:入园日期" json:"enrollmentDate"`
	Status         string     `gorm:"column:status;type:varchar(16);index;not null;default:active;comment:状态" json:"status"`
	Guardians      []Guardian `gorm:"foreignKey:StudentID" json:"guardians,omitempty"`
	Class          *Class     `gorm:"foreignKey:ClassID" json:"class,omitempty"`
}

func (Student) TableName() string {
	return "student"
}

// Guardian 监护人，每个学生至多一个主监护人
type Guardian struct {
	gorm.Model
	Audit
	StudentID uint   `gorm:"column:student_id;index;not null;comment:学生" json:"studentId"`
	Name      string `gorm:"column:name;type:varchar(32);not null;comment:姓名" json:"name"`
	Relation  string `gorm:"column:relation;type:varchar(16);comment:关系" json:"relation"`
	Telephone string `gorm:"column:telephone;type:varchar(20);comment:电话" json:"telephone"`
	UserID    uint   `gorm:"column:user_id;index;comment:家长账号" json:"userId"`
	IsPrimary bool   `gorm:"column:is_primary;not null;default:false;comment:主监护人" json:"isPrimary"`
}

func (Guardian) TableName() string {
	return "guardian"
}

// 报名申请状态
const (
	EnrollmentPending  = "pending"
	EnrollmentApproved = "approved"
	EnrollmentRejected = "rejected"
)

// EnrollmentApplication 入园申请
type EnrollmentApplication struct {
	gorm.Model
	Audit
	KindergartenID    uint      `gorm:"column:kindergarten_id;index;not null;comment:幼儿园" json:"kindergartenId"`
	ApplicantID       uint      `gorm:"column:applicant_id;index;comment:申请人账号" json:"applicantId"`
	ChildName         string    `gorm:"column:child_name;type:varchar(32);not null;comment:幼儿姓名" json:"childName"`
	Gender            int8      `gorm:"column:gender;comment:性别" json:"gender"`
	BirthDate         time.Time `gorm:"column:birth_date;comment:出生日期" json:"birthDate"`
	GuardianName      string    `gorm:"column:guardian_name;type:varchar(32);not null;comment:监护人" json:"guardianName"`
	GuardianTelephone string    `gorm:"column:guardian_telephone;type:varchar(20);not null;comment:监护人电话" json:"guardianTelephone"`
	GuardianRelation  string    `gorm:"column:guardian_relation;type:varchar(16);comment:关系" json:"guardianRelation"`
	DesiredGrade      string    `gorm:"column:desired_grade;type:varchar(16);comment:意向年级" json:"desiredGrade"`
	Status            string    `gorm:"column:status;type:varchar(16);index;not null;default:pending;comment:状态" json:"status"`
	ReviewRemark      string    `gorm:"column:review_remark;type:varchar(255);comment:审核意见" json:"reviewRemark"`
	StudentID         *uint     `gorm:"column:student_id;comment:通过后生成的学生" json:"studentId"`
}

func (EnrollmentApplication) TableName() string {
	return "enrollment_application"
}
