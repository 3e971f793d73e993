package respond

import (
	"kindergarten_server/internal/dao/mysql/repository"

	"github.com/shopspring/decimal"
)

// OverviewRespond 园所概览看板
type OverviewRespond struct {
	KindergartenID     uint                     `json:"kindergarten_id"`
	StudentsByStatus   []repository.StatusCount `json:"students_by_status"`
	TotalStudents      int64                    `json:"total_students"`
	Classes            int64                    `json:"classes"`
	ActiveTeachers     int64                    `json:"active_teachers"`
	ActivitiesByStatus []repository.StatusCount `json:"activities_by_status"`
	PendingEnrollments int64                    `json:"pending_enrollments"`
	PaidRevenue        decimal.Decimal          `json:"paid_revenue"`
	GeneratedAt        string                   `json:"generated_at"`
}

// TrendPoint 某月新入园人数，month 形如 2024-09
type TrendPoint struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// MarketingStatsRespond 营销活动看板
type MarketingStatsRespond struct {
	ActivityID            uint                     `json:"activity_id"`
	GroupBuysByStatus     []repository.StatusCount `json:"group_buys_by_status"`
	GroupBuySuccessRate   float64                  `json:"group_buy_success_rate"`
	CollectsByStatus      []repository.StatusCount `json:"collects_by_status"`
	CollectCompletionRate float64                  `json:"collect_completion_rate"`
	RewardTiers           []repository.TierStat    `json:"reward_tiers"`
	Registrations         int64                    `json:"registrations"`
	PaidRevenue           decimal.Decimal          `json:"paid_revenue"`
	GeneratedAt           string                   `json:"generated_at"`
}
