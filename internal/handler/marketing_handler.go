package handler

import (
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/middleware"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service"
	"kindergarten_server/pkg/errorx"

	"github.com/gin-gonic/gin"
)

// MarketingHandler 拼团、助力与阶梯奖励
type MarketingHandler struct {
	groupBuySvc service.GroupBuyService
	collectSvc  service.CollectService
	rewardSvc   service.RewardService
}

// NewMarketingHandler 创建营销处理器
func NewMarketingHandler(groupBuySvc service.GroupBuyService, collectSvc service.CollectService, rewardSvc service.RewardService) *MarketingHandler {
	return &MarketingHandler{groupBuySvc: groupBuySvc, collectSvc: collectSvc, rewardSvc: rewardSvc}
}

// ==================== 拼团 ====================

// CreateGroupBuy POST /api/marketing/group-buys
// 当前用户为团长
func (h *MarketingHandler) CreateGroupBuy(c *gin.Context) {
	var req request.CreateGroupBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.groupBuySvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListGroupBuys GET /api/marketing/group-buys
func (h *MarketingHandler) ListGroupBuys(c *gin.Context) {
	var req request.GroupBuyListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.groupBuySvc.List(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetGroupBuy GET /api/marketing/group-buys/:id
func (h *MarketingHandler) GetGroupBuy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.groupBuySvc.Get(id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// JoinGroupBuy POST /api/marketing/group-buys/:id/join
func (h *MarketingHandler) JoinGroupBuy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.groupBuySvc.Join(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// CancelGroupBuy POST /api/marketing/group-buys/:id/cancel
func (h *MarketingHandler) CancelGroupBuy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.groupBuySvc.Cancel(c.Request.Context(), middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ==================== 助力 ====================

// CreateCollect POST /api/marketing/collect-activities
func (h *MarketingHandler) CreateCollect(c *gin.Context) {
	var req request.CreateCollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.collectSvc.Create(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListMyCollects GET /api/marketing/collect-activities/mine
func (h *MarketingHandler) ListMyCollects(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	data, err := h.collectSvc.ListMine(middleware.CurrentUserID(c), page)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// GetCollect GET /api/marketing/collect-activities/:code
// 公开访问，用于分享页
func (h *MarketingHandler) GetCollect(c *gin.Context) {
	data, err := h.collectSvc.GetByCode(c.Param("code"))
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// HelpCollect POST /api/marketing/collect-activities/:code/help
func (h *MarketingHandler) HelpCollect(c *gin.Context) {
	data, err := h.collectSvc.Help(c.Request.Context(), middleware.CurrentUserID(c), c.Param("code"), c.ClientIP())
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ListCollectHelpers GET /api/marketing/collect-activities/:code/helpers
func (h *MarketingHandler) ListCollectHelpers(c *gin.Context) {
	page, ok := bindPage(c)
	if !ok {
		return
	}
	data, err := h.collectSvc.ListHelpers(c.Param("code"), page)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ==================== 阶梯奖励 ====================

// CreateTier POST /api/marketing/tiered-rewards
func (h *MarketingHandler) CreateTier(c *gin.Context) {
	var req request.TieredRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.rewardSvc.CreateTier(middleware.CurrentUserID(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleCreated(c, data)
}

// ListTiers GET /api/marketing/tiered-rewards
func (h *MarketingHandler) ListTiers(c *gin.Context) {
	var req request.TieredRewardListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.rewardSvc.ListTiers(req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// UpdateTier PUT /api/marketing/tiered-rewards/:id
func (h *MarketingHandler) UpdateTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.TieredRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.rewardSvc.UpdateTier(middleware.CurrentUserID(c), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// DeleteTier DELETE /api/marketing/tiered-rewards/:id
func (h *MarketingHandler) DeleteTier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.rewardSvc.DeleteTier(id); err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, nil)
}

// CheckReward POST /api/marketing/tiered-rewards/check
// 普通用户只能检查自己，管理员可以指定 user_id
func (h *MarketingHandler) CheckReward(c *gin.Context) {
	var req request.CheckRewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	uid := middleware.CurrentUserID(c)
	if req.UserID != 0 && req.UserID != uid {
		if !model.IsStaff(middleware.CurrentRole(c)) {
			HandleError(c, errorx.Forbidden("只能检查自己的奖励"))
			return
		}
		uid = req.UserID
	}
	data, err := h.rewardSvc.CheckAndAward(c.Request.Context(), req.ActivityID, req.Type, uid)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ListRewardRecords GET /api/marketing/tiered-rewards/records
func (h *MarketingHandler) ListRewardRecords(c *gin.Context) {
	var req request.RewardRecordListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		HandleParamError(c, err)
		return
	}
	data, err := h.rewardSvc.ListRecords(middleware.CurrentUserID(c), middleware.CurrentRole(c), req)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// ClaimReward POST /api/marketing/tiered-rewards/records/:id/claim
func (h *MarketingHandler) ClaimReward(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.rewardSvc.Claim(middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}

// RevokeReward POST /api/marketing/tiered-rewards/records/:id/revoke
func (h *MarketingHandler) RevokeReward(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	data, err := h.rewardSvc.Revoke(middleware.CurrentUserID(c), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	HandleSuccess(c, data)
}
