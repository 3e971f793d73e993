package groupbuy

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/infrastructure/mq"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/service/notification"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/errorx"
)

type fixture struct {
	repos     *repository.Repositories
	bus       *testutil.SyncBus
	svc       *groupBuyService
	activity  *model.Activity
	initiator *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewRepos(t))
}

func newFixtureOn(t *testing.T, repos *repository.Repositories) *fixture {
	t.Helper()
	bus := testutil.NewSyncBus()
	notifier := notification.NewNotificationService(repos, &testutil.FakeEmail{}, testutil.NewFakeSms(),
		testutil.NewFakePusher(), testutil.NewMemoryCache(), config.NotifyConfig{})
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")
	return &fixture{
		repos:     repos,
		bus:       bus,
		svc:       NewGroupBuyService(repos, bus, notifier),
		activity:  testutil.CreateActivity(t, repos, kg.ID, 100, "199"),
		initiator: testutil.CreateUser(t, repos, "leader", model.RoleParent, kg.ID),
	}
}

func (f *fixture) create(t *testing.T, min, max int) *model.GroupBuy {
	t.Helper()
	g, err := f.svc.Create(f.initiator.ID, request.CreateGroupBuyRequest{
		ActivityID:      f.activity.ID,
		OriginalPrice:   decimal.NewFromInt(199),
		GroupPrice:      decimal.NewFromInt(99),
		MinParticipants: min,
		MaxParticipants: max,
		Deadline:        time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return g
}

func (f *fixture) users(t *testing.T, n int) []*model.User {
	t.Helper()
	out := make([]*model.User, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, testutil.CreateUser(t, f.repos, "member", model.RoleParent, f.activity.KindergartenID))
	}
	return out
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	base := request.CreateGroupBuyRequest{
		ActivityID:      f.activity.ID,
		OriginalPrice:   decimal.NewFromInt(199),
		GroupPrice:      decimal.NewFromInt(99),
		MinParticipants: 3,
		MaxParticipants: 5,
		Deadline:        time.Now().Add(time.Hour),
	}
	tests := []struct {
		name   string
		modify func(r *request.CreateGroupBuyRequest)
		code   int
	}{
		{"min above max", func(r *request.CreateGroupBuyRequest) { r.MinParticipants = 6 }, errorx.CodeInvalidParam},
		{"group price above original", func(r *request.CreateGroupBuyRequest) { r.GroupPrice = decimal.NewFromInt(200) }, errorx.CodeInvalidParam},
		{"deadline passed", func(r *request.CreateGroupBuyRequest) { r.Deadline = time.Now().Add(-time.Minute) }, errorx.CodeInvalidParam},
		{"unknown activity", func(r *request.CreateGroupBuyRequest) { r.ActivityID = 9999 }, errorx.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.modify(&req)
			_, err := f.svc.Create(f.initiator.ID, req)
			assert.Equal(t, tt.code, errorx.GetCode(err))
		})
	}

	g, err := f.svc.Create(f.initiator.ID, base)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuyActive, g.Status)
	assert.Zero(t, g.CurrentParticipants, "团长不自动参团")
	assert.Contains(t, g.Title, f.activity.Title)
}

func TestJoin_ReachesQuorumThenFills(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.create(t, 2, 3)
	members := f.users(t, 4)

	res, err := f.svc.Join(ctx, members[0].ID, g.ID)
	require.NoError(t, err)
	assert.False(t, res.Succeeded)
	assert.Equal(t, model.OrderPending, res.Order.Status)
	assert.True(t, decimal.NewFromInt(99).Equal(res.Order.Amount))
	assert.Equal(t, model.OrderSourceGroupBuy, res.Order.Source)

	_, err = f.svc.Join(ctx, members[0].ID, g.ID)
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err), "重复参团")

	res, err = f.svc.Join(ctx, members[1].ID, g.ID)
	require.NoError(t, err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, model.GroupBuySuccess, res.GroupBuy.Status)

	// 成团后仍可加入直到人数上限
	res, err = f.svc.Join(ctx, members[2].ID, g.ID)
	require.NoError(t, err)
	assert.False(t, res.Succeeded, "成团事件只触发一次")

	_, err = f.svc.Join(ctx, members[3].ID, g.ID)
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err), "人数已满")

	got, err := f.svc.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentParticipants)
	assert.Len(t, got.Participants, 3)
	assert.Equal(t, model.GroupBuySuccess, got.Status)

	assert.Equal(t, 3, f.bus.Count(mq.EventGroupBuyJoined))
	assert.Equal(t, 1, f.bus.Count(mq.EventGroupBuySucceeded))
	assert.EqualValues(t, f.initiator.ID, f.bus.Events[0].PayloadUint("initiatorId"))
	// 成团时已参团的两人收到通知
	assert.EqualValues(t, 1, testutil.CountNotifications(t, f.repos, members[0].ID, "group_buy"))
	assert.EqualValues(t, 0, testutil.CountNotifications(t, f.repos, members[2].ID, "group_buy"))
}

// SQLite 单连接，并发调用被串行执行，只验证名额检查；行锁由 integration 标签下的 MySQL 用例覆盖
func TestJoin_ParallelCallersStopAtMax(t *testing.T) {
	joinUntilFull(t, newFixture(t))
}

func joinUntilFull(t *testing.T, f *fixture) {
	t.Helper()
	g := f.create(t, 2, 3)
	members := f.users(t, 8)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		success int
	)
	for _, m := range members {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			res, err := f.svc.Join(context.Background(), userID, g.ID)
			if err != nil {
				return
			}
			mu.Lock()
			joined++
			if res.Succeeded {
				success++
			}
			mu.Unlock()
		}(m.ID)
	}
	wg.Wait()

	assert.Equal(t, 3, joined)
	assert.Equal(t, 1, success)
	got, err := f.svc.Get(g.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentParticipants)
}

func TestJoin_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := f.users(t, 1)[0]

	_, err := f.svc.Join(ctx, member.ID, 9999)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	g := f.create(t, 2, 3)
	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.svc.Join(ctx, member.ID, g.ID)
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err), "已过截止时间")
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g := f.create(t, 3, 5)
	member := f.users(t, 1)[0]
	res, err := f.svc.Join(ctx, member.ID, g.ID)
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, 1, g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuyFailed, cancelled.Status)

	order, err := f.repos.Order.FindByOrderNo(res.Order.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)
	assert.EqualValues(t, 1, testutil.CountNotifications(t, f.repos, member.ID, "group_buy"))

	_, err = f.svc.Cancel(ctx, 1, g.ID)
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
	_, err = f.svc.Join(ctx, f.users(t, 1)[0].ID, g.ID)
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
}

func TestSweepExpired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pending := f.create(t, 3, 5)
	done := f.create(t, 2, 5)
	members := f.users(t, 2)
	res, err := f.svc.Join(ctx, members[0].ID, pending.ID)
	require.NoError(t, err)
	for _, m := range members {
		_, err := f.svc.Join(ctx, m.ID, done.ID)
		require.NoError(t, err)
	}

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err := f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "已成团的不受影响")

	got, err := f.svc.Get(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuyExpired, got.Status)
	order, err := f.repos.Order.FindByOrderNo(res.Order.OrderNo)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, order.Status)

	got, err = f.svc.Get(done.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GroupBuySuccess, got.Status)

	n, err = f.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.create(t, 2, 3)
	g := f.create(t, 2, 3)
	_, err := f.svc.Cancel(context.Background(), 1, g.ID)
	require.NoError(t, err)

	page, err := f.svc.List(request.GroupBuyListRequest{ActivityID: f.activity.ID, Status: model.GroupBuyActive})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
	page, err = f.svc.List(request.GroupBuyListRequest{ActivityID: f.activity.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, g.ID, page.List[0].ID)
}
