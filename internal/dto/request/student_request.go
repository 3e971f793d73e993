package request

// GuardianRequest 监护人
type GuardianRequest struct {
	Name      string `json:"name" binding:"required,max=32"`
	Relation  string `json:"relation" binding:"max=16"`
	Telephone string `json:"telephone" binding:"max=20"`
	UserID    uint   `json:"user_id"`
	IsPrimary bool   `json:"is_primary"`
}

// CreateStudentRequest 新建学生档案
// 日期格式 2006-01-02，student_no 为空时自动生成
type CreateStudentRequest struct {
	StudentNo      string            `json:"student_no" binding:"max=32"`
	Name           string            `json:"name" binding:"required,max=32"`
	Gender         int8              `json:"gender" binding:"oneof=0 1"`
	BirthDate      string            `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	KindergartenID uint              `json:"kindergarten_id" binding:"required"`
	ClassID        uint              `json:"class_id"`
	EnrollmentDate string            `json:"enrollment_date" binding:"omitempty,datetime=2006-01-02"`
	Guardians      []GuardianRequest `json:"guardians" binding:"dive"`
}

// UpdateStudentRequest 修改学生基本信息
type UpdateStudentRequest struct {
	Name           string `json:"name" binding:"required,max=32"`
	Gender         int8   `json:"gender" binding:"oneof=0 1"`
	BirthDate      string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	EnrollmentDate string `json:"enrollment_date" binding:"omitempty,datetime=2006-01-02"`
}

// StudentListRequest 学生列表
type StudentListRequest struct {
	KindergartenID uint   `form:"kindergarten_id"`
	ClassID        uint   `form:"class_id"`
	Status         string `form:"status"`
	Keyword        string `form:"keyword"`
	PageRequest
}

// AssignClassRequest 分班，class_id 为 0 表示移出班级
type AssignClassRequest struct {
	ClassID uint `json:"class_id"`
}

// StudentStatusRequest 学生状态变更
type StudentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active graduated transferred suspended"`
}

// BatchStudentStatusRequest 批量变更学生状态
type BatchStudentStatusRequest struct {
	IDs    []uint `json:"ids" binding:"required,min=1,max=500"`
	Status string `json:"status" binding:"required,oneof=active graduated transferred suspended"`
}
