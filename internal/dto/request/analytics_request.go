package request

// OverviewRequest 园所概览
type OverviewRequest struct {
	KindergartenID uint `form:"kindergarten_id"`
	Refresh        bool `form:"refresh"`
}

// EnrollmentTrendRequest 入园趋势，months 默认 12
type EnrollmentTrendRequest struct {
	KindergartenID uint `form:"kindergarten_id"`
	Months         int  `form:"months" binding:"omitempty,min=1,max=36"`
}

// MarketingStatsRequest 营销活动统计
type MarketingStatsRequest struct {
	ActivityID uint `form:"activity_id" binding:"required"`
	Refresh    bool `form:"refresh"`
}

// ClassOccupancyRequest 班级占用
type ClassOccupancyRequest struct {
	KindergartenID uint `form:"kindergarten_id"`
}
