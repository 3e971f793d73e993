package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// EnrollmentHandler 入园申请
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建入园申请处理器
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// Submit POST /api/enrollments
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	var req request.EnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.enrollmentSvc.Submit(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// List GET /api/enrollments
// 家长只能看到自己提交的申请
func (h *EnrollmentHandler) List(c *gin.Context) {
	var req request.EnrollmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.enrollmentSvc.List(middleware.CurrentUserID(c), middleware.CurrentRole(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Get GET /api/enrollments/:id
func (h *EnrollmentHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.enrollmentSvc.Get(middleware.CurrentUserID(c), middleware.CurrentRole(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Approve POST /api/enrollments/:id/approve
// 响应: 新建的学生档案
func (h *EnrollmentHandler) Approve(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.ApproveEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.enrollmentSvc.Approve(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Reject POST /api/enrollments/:id/reject
func (h *EnrollmentHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.RejectEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.enrollmentSvc.Reject(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
