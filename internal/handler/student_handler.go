package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// StudentHandler 学生档案
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建学生处理器
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// Create POST /api/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req request.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// List GET /api/students
func (h *StudentHandler) List(c *gin.Context) {
	var req request.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Get GET /api/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.studentSvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Update PUT /api/students/:id
func (h *StudentHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.Update(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Delete DELETE /api/students/:id
// 重复删除同样返回成功
func (h *StudentHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.studentSvc.Delete(middleware.CurrentUserID(c), id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// AssignClass POST /api/students/:id/class
func (h *StudentHandler) AssignClass(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.AssignClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.AssignClass(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateStatus PATCH /api/students/:id/status
func (h *StudentHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.StudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.UpdateStatus(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// BatchUpdateStatus POST /api/students/batch-status
func (h *StudentHandler) BatchUpdateStatus(c *gin.Context) {
	var req request.BatchStudentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	n, err := h.studentSvc.BatchUpdateStatus(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, gin.H{"updated": n})
}

// AddGuardian POST /api/students/:id/guardians
func (h *StudentHandler) AddGuardian(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.GuardianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.studentSvc.AddGuardian(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// RemoveGuardian DELETE /api/students/:id/guardians/:gid
func (h *StudentHandler) RemoveGuardian(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	gid, ok := pathID(c, "gid")
	if !ok {
		return
	}
	if err := h.studentSvc.RemoveGuardian(id, gid); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}
