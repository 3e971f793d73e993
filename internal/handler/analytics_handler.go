package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/service"

	"github.com/gin-gonic/gin"
)

// AnalyticsHandler 看板
type AnalyticsHandler struct {
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建看板处理器
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsSvc: analyticsSvc}
}

// Overview GET /api/analytics/overview
// refresh=true 跳过缓存重新统计
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	var req request.OverviewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.analyticsSvc.Overview(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// EnrollmentTrend GET /api/analytics/enrollment-trend
func (h *AnalyticsHandler) EnrollmentTrend(c *gin.Context) {
	var req request.EnrollmentTrendRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.analyticsSvc.EnrollmentTrend(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// Marketing GET /api/analytics/marketing
func (h *AnalyticsHandler) Marketing(c *gin.Context) {
	var req request.MarketingStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.analyticsSvc.MarketingStats(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ClassOccupancy GET /api/analytics/classes
func (h *AnalyticsHandler) ClassOccupancy(c *gin.Context) {
	var req request.ClassOccupancyRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.analyticsSvc.ClassOccupancy(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
