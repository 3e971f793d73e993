package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/errorx"
)

func newService(t *testing.T) (*analyticsService, *testutil.MemoryCache) {
	t.Helper()
	cache := testutil.NewMemoryCache()
	return NewAnalyticsService(testutil.NewRepos(t), cache, config.MarketingConfig{AnalyticsCacheTTL: 60}), cache
}

func TestOverview_CachedUntilRefresh(t *testing.T) {
	ctx := context.Background()
	svc, cache := newService(t)
	repos := svc.repos
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")
	other := testutil.CreateKindergarten(t, repos, "星星幼儿园")
	class := testutil.CreateClass(t, repos, kg.ID, "小一班", 20)
	testutil.CreateStudent(t, repos, kg.ID, class.ID, "小明")
	testutil.CreateStudent(t, repos, kg.ID, 0, "小红")
	testutil.CreateStudent(t, repos, other.ID, 0, "小刚")

	rsp, err := svc.Overview(ctx, request.OverviewRequest{KindergartenID: kg.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, rsp.TotalStudents)
	assert.EqualValues(t, 1, rsp.Classes)
	assert.True(t, rsp.PaidRevenue.IsZero())
	assert.Equal(t, 1, cache.Len())

	testutil.CreateStudent(t, repos, kg.ID, 0, "小华")
	cached, err := svc.Overview(ctx, request.OverviewRequest{KindergartenID: kg.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, cached.TotalStudents, "served from cache")

	fresh, err := svc.Overview(ctx, request.OverviewRequest{KindergartenID: kg.ID, Refresh: true})
	require.NoError(t, err)
	assert.EqualValues(t, 3, fresh.TotalStudents)

	all, err := svc.Overview(ctx, request.OverviewRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 4, all.TotalStudents)

	require.NoError(t, svc.Invalidate(ctx, 0))
	assert.Equal(t, 0, cache.Len())
}

func TestOverview_CacheDownStillServes(t *testing.T) {
	svc, cache := newService(t)
	cache.Err = errorx.New(errorx.CodeCacheError, "redis down")
	kg := testutil.CreateKindergarten(t, svc.repos, "阳光幼儿园")
	testutil.CreateStudent(t, svc.repos, kg.ID, 0, "小明")

	rsp, err := svc.Overview(context.Background(), request.OverviewRequest{KindergartenID: kg.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, rsp.TotalStudents)
}

func TestBucketByMonth(t *testing.T) {
	start := time.Date(2024, time.November, 1, 0, 0, 0, 0, time.UTC)
	dates := []time.Time{
		time.Date(2024, time.November, 3, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.January, 20, 9, 0, 0, 0, time.UTC),
		time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC), // 超出窗口
	}
	points := bucketByMonth(dates, start, 3)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-11", points[0].Month)
	assert.EqualValues(t, 1, points[0].Count)
	assert.Equal(t, "2024-12", points[1].Month)
	assert.EqualValues(t, 0, points[1].Count)
	assert.Equal(t, "2025-01", points[2].Month)
	assert.EqualValues(t, 2, points[2].Count)
}

func TestEnrollmentTrend(t *testing.T) {
	svc, _ := newService(t)
	kg := testutil.CreateKindergarten(t, svc.repos, "阳光幼儿园")
	testutil.CreateStudent(t, svc.repos, kg.ID, 0, "小明")
	testutil.CreateStudent(t, svc.repos, kg.ID, 0, "小红")

	points, err := svc.EnrollmentTrend(request.EnrollmentTrendRequest{KindergartenID: kg.ID})
	require.NoError(t, err)
	require.Len(t, points, defaultTrendMonths)
	last := points[len(points)-1]
	assert.Equal(t, time.Now().Format("2006-01"), last.Month)
	assert.EqualValues(t, 2, last.Count)

	points, err = svc.EnrollmentTrend(request.EnrollmentTrendRequest{KindergartenID: kg.ID, Months: 3})
	require.NoError(t, err)
	assert.Len(t, points, 3)
}

func TestMarketingStats(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	repos := svc.repos
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")
	act := testutil.CreateActivity(t, repos, kg.ID, 50, "100")
	u := testutil.CreateUser(t, repos, "parent", model.RoleParent, kg.ID)

	for _, status := range []string{model.GroupBuySuccess, model.GroupBuyActive, model.GroupBuyExpired, model.GroupBuySuccess} {
		g := &model.GroupBuy{
			ActivityID: act.ID, InitiatorID: u.ID, Title: "拼团",
			OriginalPrice: decimal.NewFromInt(100), GroupPrice: decimal.NewFromInt(80),
			MinParticipants: 2, MaxParticipants: 5, Deadline: time.Now().Add(time.Hour), Status: status,
		}
		require.NoError(t, repos.GroupBuy.Create(g))
	}
	for i, status := range []string{model.OrderPaid, model.OrderPaid, model.OrderPending} {
		require.NoError(t, repos.Order.Create(&model.Order{
			OrderNo: "T" + string(rune('A'+i)), UserID: u.ID, ActivityID: act.ID,
			Source: model.OrderSourceGroupBuy, Amount: decimal.RequireFromString("80.50"), Status: status,
		}))
	}

	rsp, err := svc.MarketingStats(ctx, request.MarketingStatsRequest{ActivityID: act.ID})
	require.NoError(t, err)
	assert.Equal(t, 0.5, rsp.GroupBuySuccessRate)
	assert.Equal(t, float64(0), rsp.CollectCompletionRate)
	assert.True(t, decimal.RequireFromString("161").Equal(rsp.PaidRevenue), rsp.PaidRevenue.String())
	assert.NotNil(t, rsp.RewardTiers)

	_, err = svc.MarketingStats(ctx, request.MarketingStatsRequest{ActivityID: 999})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}

func TestClassOccupancy(t *testing.T) {
	svc, _ := newService(t)
	repos := svc.repos
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")
	full := testutil.CreateClass(t, repos, kg.ID, "小一班", 2)
	empty := testutil.CreateClass(t, repos, kg.ID, "小二班", 10)
	testutil.CreateStudent(t, repos, kg.ID, full.ID, "小明")
	testutil.CreateStudent(t, repos, kg.ID, full.ID, "小红")

	rows, err := svc.ClassOccupancy(request.ClassOccupancyRequest{KindergartenID: kg.ID})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, full.ID, rows[0].ClassID)
	assert.EqualValues(t, 2, rows[0].Assigned)
	assert.Equal(t, empty.ID, rows[1].ClassID)
	assert.EqualValues(t, 0, rows[1].Assigned)
}
