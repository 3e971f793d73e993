package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// KindergartenHandler 园所、班级、教师管理
type KindergartenHandler struct {
	kgSvc      service.KindergartenService
	classSvc   service.ClassService
	teacherSvc service.TeacherService
}

// NewKindergartenHandler 创建园所处理器
func NewKindergartenHandler(kgSvc service.KindergartenService, classSvc service.ClassService, teacherSvc service.TeacherService) *KindergartenHandler {
	return &KindergartenHandler{kgSvc: kgSvc, classSvc: classSvc, teacherSvc: teacherSvc}
}

// ==================== 幼儿园 ====================

// CreateKindergarten POST /api/kindergartens
func (h *KindergartenHandler) CreateKindergarten(c *gin.Context) {
	var req request.KindergartenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.kgSvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListKindergartens GET /api/kindergartens
func (h *KindergartenHandler) ListKindergartens(c *gin.Context) {
	var req request.KindergartenListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.kgSvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetKindergarten GET /api/kindergartens/:id
func (h *KindergartenHandler) GetKindergarten(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.kgSvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateKindergarten PUT /api/kindergartens/:id
func (h *KindergartenHandler) UpdateKindergarten(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.KindergartenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.kgSvc.Update(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DeleteKindergarten DELETE /api/kindergartens/:id
func (h *KindergartenHandler) DeleteKindergarten(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.kgSvc.Delete(id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// ==================== 班级 ====================

// CreateClass POST /api/classes
func (h *KindergartenHandler) CreateClass(c *gin.Context) {
	var req request.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.classSvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListClasses GET /api/classes
func (h *KindergartenHandler) ListClasses(c *gin.Context) {
	var req request.ClassListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.classSvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetClass GET /api/classes/:id
func (h *KindergartenHandler) GetClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.classSvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateClass PUT /api/classes/:id
func (h *KindergartenHandler) UpdateClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.ClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.classSvc.Update(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DeleteClass DELETE /api/classes/:id
func (h *KindergartenHandler) DeleteClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.classSvc.Delete(id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AssignHeadTeacher POST /api/classes/:id/head-teacher
func (h *KindergartenHandler) AssignHeadTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.AssignHeadTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.classSvc.AssignHeadTeacher(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ListClassStudents GET /api/classes/:id/students
func (h *KindergartenHandler) ListClassStudents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.classSvc.ListStudents(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ==================== 教师 ====================

// CreateTeacher POST /api/teachers
func (h *KindergartenHandler) CreateTeacher(c *gin.Context) {
	var req request.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.teacherSvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListTeachers GET /api/teachers
func (h *KindergartenHandler) ListTeachers(c *gin.Context) {
	var req request.TeacherListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.teacherSvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetTeacher GET /api/teachers/:id
func (h *KindergartenHandler) GetTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.teacherSvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateTeacher PUT /api/teachers/:id
func (h *KindergartenHandler) UpdateTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.TeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.teacherSvc.Update(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateTeacherStatus PATCH /api/teachers/:id/status
func (h *KindergartenHandler) UpdateTeacherStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.TeacherStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.teacherSvc.UpdateStatus(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DeleteTeacher DELETE /api/teachers/:id
func (h *KindergartenHandler) DeleteTeacher(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.teacherSvc.Delete(id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
