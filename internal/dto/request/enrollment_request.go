package request

// EnrollmentRequest 入园申请
type EnrollmentRequest struct {
	KindergartenID    uint   `json:"kindergarten_id" binding:"required"`
	ChildName         string `json:"child_name" binding:"required,max=32"`
	Gender            int8   `json:"gender" binding:"oneof=0 1"`
	BirthDate         string `json:"birth_date" binding:"required,datetime=2006-01-02"`
	GuardianName      string `json:"guardian_name" binding:"required,max=32"`
	GuardianTelephone string `json:"guardian_telephone" binding:"required,max=20"`
	GuardianRelation  string `json:"guardian_relation" binding:"max=16"`
	DesiredGrade      string `json:"desired_grade" binding:"omitempty,oneof=small middle large pre"`
}

// EnrollmentListRequest 入园申请列表
type EnrollmentListRequest struct {
	KindergartenID uint   `form:"kindergarten_id"`
	Status         string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	PageRequest
}

// ApproveEnrollmentRequest 审核通过，可同时分班
type ApproveEnrollmentRequest struct {
	ClassID   uint   `json:"class_id"`
	StudentNo string `json:"student_no" binding:"max=32"`
	Remark    string `json:"remark" binding:"max=255"`
}

// RejectEnrollmentRequest 审核拒绝
type RejectEnrollmentRequest struct {
	Remark string `json:"remark" binding:"required,max=255"`
}
