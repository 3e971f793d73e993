package request

// KindergartenRequest 创建/修改幼儿园
type KindergartenRequest struct {
	Name      string `json:"name" binding:"required,max=64"`
	Address   string `json:"address" binding:"max=255"`
	Telephone string `json:"telephone" binding:"max=20"`
	Capacity  int    `json:"capacity" binding:"min=0"`
	Status    *int8  `json:"status" binding:"omitempty,oneof=0 1"`
}

// KindergartenListRequest 幼儿园列表
type KindergartenListRequest struct {
	Keyword string `form:"keyword"`
	PageRequest
}

// ClassRequest 创建/修改班级
type ClassRequest struct {
	KindergartenID uint   `json:"kindergarten_id" binding:"required"`
	Name           string `json:"name" binding:"required,max=32"`
	Grade          string `json:"grade" binding:"required,oneof=small middle large pre"`
	Capacity       int    `json:"capacity" binding:"required,min=1,max=200"`
	Status         *int8  `json:"status" binding:"omitempty,oneof=0 1"`
}

// ClassListRequest 班级列表
type ClassListRequest struct {
	KindergartenID uint   `form:"kindergarten_id"`
	Grade          string `form:"grade"`
	PageRequest
}

// AssignHeadTeacherRequest 指定班主任，teacher_id 为 0 表示取消
type AssignHeadTeacherRequest struct {
	TeacherID uint `json:"teacher_id"`
}

// TeacherRequest 创建/修改教师
type TeacherRequest struct {
	KindergartenID uint   `json:"kindergarten_id" binding:"required"`
	UserID         uint   `json:"user_id"`
	Name           string `json:"name" binding:"required,max=32"`
	Telephone      string `json:"telephone" binding:"max=20"`
	Email          string `json:"email" binding:"omitempty,email"`
	Position       string `json:"position" binding:"max=32"`
}

// TeacherListRequest 教师列表
type TeacherListRequest struct {
	KindergartenID uint   `form:"kindergarten_id"`
	Status         string `form:"status"`
	Keyword        string `form:"keyword"`
	PageRequest
}

// TeacherStatusRequest 教师在职状态
type TeacherStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active on_leave resigned"`
}
