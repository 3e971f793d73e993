package router

import (
	"github.com/gin-gonic/gin"
)

// RegisterMarketingRoutes 拼团、集赞助力、阶梯奖励
func (rt *Router) RegisterMarketingRoutes(public, authed *gin.RouterGroup) {
	h := rt.handlers.Marketing

	// 分享页无需登录
	public.GET("/marketing/collect-activities/:code", h.GetCollect)

	marketing := authed.Group("/marketing")

	groupBuy := marketing.Group("/group-buys")
	{
		groupBuy.GET("", h.ListGroupBuys)
		groupBuy.GET("/:id", h.GetGroupBuy)
		groupBuy.POST("/:id/join", h.JoinGroupBuy)
		groupBuy.POST("", staffOnly(), h.CreateGroupBuy)
		groupBuy.POST("/:id/cancel", staffOnly(), h.CancelGroupBuy)
	}

	collect := marketing.Group("/collect-activities")
	{
		collect.POST("", h.CreateCollect)
		collect.GET("/mine", h.ListMyCollects)
		collect.POST("/:code/help", h.HelpCollect)
		collect.GET("/:code/helpers", h.ListCollectHelpers)
	}

	reward := marketing.Group("/tiered-rewards")
	{
		reward.GET("", h.ListTiers)
		reward.POST("/check", h.CheckReward)
		reward.GET("/records", h.ListRewardRecords)
		reward.POST("/records/:id/claim", h.ClaimReward)

		reward.POST("", staffOnly(), h.CreateTier)
		reward.PUT("/:id", staffOnly(), h.UpdateTier)
		reward.DELETE("/:id", staffOnly(), h.DeleteTier)
		reward.POST("/records/:id/revoke", staffOnly(), h.RevokeReward)
	}
}
