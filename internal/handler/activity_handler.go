package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// ActivityHandler 活动与报名
type ActivityHandler struct {
	activitySvc service.ActivityService
}

// NewActivityHandler 创建活动处理器
func NewActivityHandler(activitySvc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activitySvc: activitySvc}
}

// Create POST /api/activities
func (h *ActivityHandler) Create(c *gin.Context) {
	var req request.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.activitySvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// List GET /api/activities
func (h *ActivityHandler) List(c *gin.Context) {
	var req request.ActivityListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.activitySvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Get GET /api/activities/:id
func (h *ActivityHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.activitySvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Update PUT /api/activities/:id
func (h *ActivityHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.activitySvc.Update(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Delete DELETE /api/activities/:id
func (h *ActivityHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.activitySvc.Delete(id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// Publish POST /api/activities/:id/publish
func (h *ActivityHandler) Publish(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.activitySvc.Publish(middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Cancel POST /api/activities/:id/cancel
// 级联取消报名与待支付订单，并通知报名人
func (h *ActivityHandler) Cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.activitySvc.Cancel(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Register POST /api/activities/:id/register
// 响应: respond.RegistrationRespond，收费活动附带待支付订单
func (h *ActivityHandler) Register(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.RegisterActivityRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleParamError(c, err)
			return
		}
	}
	data, err := h.activitySvc.Register(c.Request.Context(), middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListRegistrations GET /api/activities/:id/registrations
func (h *ActivityHandler) ListRegistrations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}
	data, err := h.activitySvc.ListRegistrations(id, page)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CancelRegistration POST /api/activities/registrations/:rid/cancel
func (h *ActivityHandler) CancelRegistration(c *gin.Context) {
	rid, ok := pathID(c, "rid")
	if !ok {
		return
	}
	data, err := h.activitySvc.CancelRegistration(middleware.CurrentUserID(c), middleware.CurrentRole(c), rid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
