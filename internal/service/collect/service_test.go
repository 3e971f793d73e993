package collect

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

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
	repos    *repository.Repositories
	cache    *testutil.MemoryCache
	bus      *testutil.SyncBus
	svc      *collectService
	activity *model.Activity
	owner    *model.User
}

func newFixture(t *testing.T, ipLimit int) *fixture {
	t.Helper()
	return newFixtureOn(t, testutil.NewRepos(t), ipLimit)
}

func newFixtureOn(t *testing.T, repos *repository.Repositories, ipLimit int) *fixture {
	t.Helper()
	cache := testutil.NewMemoryCache()
	bus := testutil.NewSyncBus()
	notifier := notification.NewNotificationService(repos, &testutil.FakeEmail{}, testutil.NewFakeSms(),
		testutil.NewFakePusher(), cache, config.NotifyConfig{})
	kg := testutil.CreateKindergarten(t, repos, "阳光幼儿园")
	return &fixture{
		repos:    repos,
		cache:    cache,
		bus:      bus,
		svc:      NewCollectService(repos, cache, bus, notifier, config.MarketingConfig{CollectIPDailyLimit: ipLimit}),
		activity: testutil.CreateActivity(t, repos, kg.ID, 100, "0"),
		owner:    testutil.CreateUser(t, repos, "owner", model.RoleParent, kg.ID),
	}
}

func (f *fixture) create(t *testing.T, target, max int) *model.CollectActivity {
	t.Helper()
	c, err := f.svc.Create(f.owner.ID, request.CreateCollectRequest{
		ActivityID:  f.activity.ID,
		TargetCount: target,
		MaxCount:    max,
		RewardType:  model.RewardCoupon,
		Deadline:    time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) helper(t *testing.T) *model.User {
	return testutil.CreateUser(t, f.repos, "helper", model.RoleParent, f.activity.KindergartenID)
}

func TestCreate(t *testing.T) {
	f := newFixture(t, 0)
	c := f.create(t, 3, 0)
	assert.Len(t, c.CollectCode, codeLength)
	assert.Equal(t, 3, c.MaxCount, "上限默认等于目标")
	assert.Equal(t, model.CollectActive, c.Status)

	_, err := f.svc.Create(f.owner.ID, request.CreateCollectRequest{
		ActivityID: f.activity.ID, TargetCount: 5, MaxCount: 3, Deadline: time.Now().Add(time.Hour),
	})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	_, err = f.svc.Create(f.owner.ID, request.CreateCollectRequest{
		ActivityID: 9999, TargetCount: 1, Deadline: time.Now().Add(time.Hour),
	})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	got, err := f.svc.GetByCode(c.CollectCode)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	_, err = f.svc.GetByCode("NOPE")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	page, err := f.svc.ListMine(f.owner.ID, request.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)
}

func TestHelp_CompletesOnceAndCapsAtMax(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	c := f.create(t, 2, 3)

	h1, h2, h3, h4 := f.helper(t), f.helper(t), f.helper(t), f.helper(t)

	res, err := f.svc.Help(ctx, h1.ID, c.CollectCode, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.CurrentCount)
	assert.False(t, res.Completed)

	res, err = f.svc.Help(ctx, h2.ID, c.CollectCode, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Completed)
	assert.Equal(t, model.CollectCompleted, res.Status)

	// 达标后仍可继续助力到上限
	res, err = f.svc.Help(ctx, h3.ID, c.CollectCode, "10.0.0.3")
	require.NoError(t, err)
	assert.False(t, res.Completed)
	assert.Equal(t, 3, res.CurrentCount)

	_, err = f.svc.Help(ctx, h4.ID, c.CollectCode, "10.0.0.4")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
	// 人数已满时释放去重 key
	_, err = f.svc.Help(ctx, h4.ID, c.CollectCode, "10.0.0.4")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	assert.Equal(t, 3, f.bus.Count(mq.EventCollectHelped))
	assert.Equal(t, 1, f.bus.Count(mq.EventCollectCompleted))
	assert.EqualValues(t, 1, testutil.CountNotifications(t, f.repos, f.owner.ID, "collect_activity"))

	helpers, err := f.svc.ListHelpers(c.CollectCode, request.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, helpers.Total)
	assert.Equal(t, h1.ID, helpers.List[0].HelperID)
}

func TestHelp_AntiFraud(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	c := f.create(t, 10, 10)

	_, err := f.svc.Help(ctx, f.owner.ID, c.CollectCode, "10.0.0.1")
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err), "不能为自己助力")

	h := f.helper(t)
	_, err = f.svc.Help(ctx, h.ID, c.CollectCode, "10.0.0.1")
	require.NoError(t, err)
	_, err = f.svc.Help(ctx, h.ID, c.CollectCode, "10.0.0.9")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err), "重复助力")

	_, err = f.svc.Help(ctx, f.helper(t).ID, c.CollectCode, "10.0.0.1")
	require.NoError(t, err)
	_, err = f.svc.Help(ctx, f.helper(t).ID, c.CollectCode, "10.0.0.1")
	assert.Equal(t, errorx.CodeTooManyRequests, errorx.GetCode(err), "同一 IP 超过每日上限")

	_, err = f.svc.Help(ctx, h.ID, "NOPE", "10.0.0.2")
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))

	got, err := f.svc.GetByCode(c.CollectCode)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentCount)
}

func TestHelp_RejectedAttemptsKeepIPQuota(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	c := f.create(t, 1, 1)
	const ip = "10.0.0.7"

	_, err := f.svc.Help(ctx, f.owner.ID, c.CollectCode, ip)
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	h := f.helper(t)
	_, err = f.svc.Help(ctx, h.ID, c.CollectCode, ip)
	require.NoError(t, err, "自助力失败不占用 IP 配额")

	// 重复助力和满员拒绝都不计数
	_, err = f.svc.Help(ctx, h.ID, c.CollectCode, "10.0.0.8")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
	_, err = f.svc.Help(ctx, f.helper(t).ID, c.CollectCode, "10.0.0.8")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	other := f.create(t, 2, 2)
	_, err = f.svc.Help(ctx, f.helper(t).ID, other.CollectCode, "10.0.0.8")
	require.NoError(t, err)

	// IP 超限时释放去重 key，换 IP 后可再次助力
	late := f.helper(t)
	_, err = f.svc.Help(ctx, late.ID, other.CollectCode, ip)
	assert.Equal(t, errorx.CodeTooManyRequests, errorx.GetCode(err))
	_, err = f.svc.Help(ctx, late.ID, other.CollectCode, "10.0.0.9")
	require.NoError(t, err)
}

func TestHelp_UniqueIndexBackstopsCacheOutage(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()
	c := f.create(t, 5, 5)
	h := f.helper(t)

	_, err := f.svc.Help(ctx, h.ID, c.CollectCode, "10.0.0.1")
	require.NoError(t, err)

	f.cache.Err = fmt.Errorf("redis down")
	_, err = f.svc.Help(ctx, h.ID, c.CollectCode, "10.0.0.1")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))
	f.cache.Err = nil

	got, err := f.svc.GetByCode(c.CollectCode)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentCount, "回滚后计数不变")
}

// SQLite 单连接，并发调用被串行执行；行锁由 integration 标签下的 MySQL 用例覆盖
func TestHelp_ParallelHelpersStopAtMax(t *testing.T) {
	helpUntilFull(t, newFixture(t, 0))
}

func helpUntilFull(t *testing.T, f *fixture) {
	t.Helper()
	c := f.create(t, 2, 4)
	helpers := make([]*model.User, 10)
	for i := range helpers {
		helpers[i] = f.helper(t)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		completed int
	)
	for _, h := range helpers {
		wg.Add(1)
		go func(id uint) {
			defer wg.Done()
			res, err := f.svc.Help(context.Background(), id, c.CollectCode, "")
			if err != nil {
				return
			}
			mu.Lock()
			ok++
			if res.Completed {
				completed++
			}
			mu.Unlock()
		}(h.ID)
	}
	wg.Wait()

	assert.Equal(t, 4, ok)
	assert.Equal(t, 1, completed)
}

func TestHelp_DeadlineAndSweep(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	c := f.create(t, 3, 3)
	done := f.create(t, 1, 1)
	_, err := f.svc.Help(ctx, f.helper(t).ID, done.CollectCode, "")
	require.NoError(t, err)

	f.svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = f.svc.Help(ctx, f.helper(t).ID, c.CollectCode, "")
	assert.Equal(t, errorx.CodeConflict, errorx.GetCode(err))

	n, err := f.svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n, "已达标的不过期")

	got, err := f.svc.GetByCode(c.CollectCode)
	require.NoError(t, err)
	assert.Equal(t, model.CollectExpired, got.Status)
	got, err = f.svc.GetByCode(done.CollectCode)
	require.NoError(t, err)
	assert.Equal(t, model.CollectCompleted, got.Status)
}
