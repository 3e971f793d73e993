package notification

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kindergarten_server/internal/config"
	"kindergarten_server/internal/dao/mysql/repository"
	"kindergarten_server/internal/dto/request"
	"kindergarten_server/internal/model"
	"kindergarten_server/internal/testutil"
	"kindergarten_server/pkg/errorx"
)

type fixture struct {
	repos  *repository.Repositories
	svc    *notificationService
	email  *testutil.FakeEmail
	sms    *testutil.FakeSms
	pusher *testutil.FakePusher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:  testutil.NewRepos(t),
		email:  &testutil.FakeEmail{},
		sms:    testutil.NewFakeSms(),
		pusher: testutil.NewFakePusher(),
	}
	f.svc = NewNotificationService(f.repos, f.email, f.sms, f.pusher, testutil.NewMemoryCache(),
		config.NotifyConfig{MaxAttempts: 2, RetryBatch: 10})
	return f
}

func (f *fixture) rows(t *testing.T, userID uint, channel string) []model.Notification {
	t.Helper()
	var list []model.Notification
	require.NoError(t, f.repos.DB().Where("user_id = ? AND channel = ?", userID, channel).Order("id").Find(&list).Error)
	return list
}

func TestNotify_InAppPushedWhenOnline(t *testing.T) {
	f := newFixture(t)
	online := testutil.CreateUser(t, f.repos, "online", model.RoleParent, 1)
	offline := testutil.CreateUser(t, f.repos, "offline", model.RoleParent, 1)
	f.pusher.SetOnline(online.ID, true)

	err := f.svc.Notify(context.Background(), Message{
		UserIDs: []uint{online.ID, offline.ID, online.ID, 0},
		Title:   "拼团成功",
		Content: "您参加的拼团已成团",
		BizType: "group_buy",
		BizID:   7,
	})
	require.NoError(t, err)

	for _, uid := range []uint{online.ID, offline.ID} {
		rows := f.rows(t, uid, model.ChannelInApp)
		require.Len(t, rows, 1, "重复的接收人只发一次")
		assert.Equal(t, model.NotifySent, rows[0].Status)
		assert.Equal(t, 1, rows[0].Attempts)
		assert.Equal(t, TypeSystem, rows[0].Type)
	}
	require.Equal(t, 1, f.pusher.Count(online.ID))
	assert.Equal(t, 0, f.pusher.Count(offline.ID))

	var msg struct {
		Type string             `json:"type"`
		Data model.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(f.pusher.Payloads[online.ID][0], &msg))
	assert.Equal(t, "notification", msg.Type)
	assert.Equal(t, "拼团成功", msg.Data.Title)
	assert.EqualValues(t, 7, msg.Data.BizID)
}

func TestNotify_RejectsUnknownChannel(t *testing.T) {
	f := newFixture(t)
	err := f.svc.Notify(context.Background(), Message{UserIDs: []uint{1}, Title: "x", Channels: []string{"fax"}})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))

	// 没有接收人时什么都不做
	require.NoError(t, f.svc.Notify(context.Background(), Message{Title: "x"}))
}

func TestNotify_PushRetriedUntilOnline(t *testing.T) {
	f := newFixture(t)
	u := testutil.CreateUser(t, f.repos, "parent", model.RoleParent, 1)

	require.NoError(t, f.svc.Notify(context.Background(), Message{
		UserIDs:  []uint{u.ID},
		Title:    "活动提醒",
		Channels: []string{model.ChannelPush},
	}))
	rows := f.rows(t, u.ID, model.ChannelPush)
	require.Len(t, rows, 1)
	assert.Equal(t, model.NotifyFailed, rows[0].Status)
	assert.Equal(t, "user offline", rows[0].LastError)

	f.pusher.SetOnline(u.ID, true)
	n, err := f.svc.RetryFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	rows = f.rows(t, u.ID, model.ChannelPush)
	assert.Equal(t, model.NotifySent, rows[0].Status)
	assert.Equal(t, 2, rows[0].Attempts)
	assert.Equal(t, 1, f.pusher.Count(u.ID))
}

func TestNotify_EmailAndSmsStopRetryingAtMaxAttempts(t *testing.T) {
	f := newFixture(t)
	u := testutil.CreateUser(t, f.repos, "mail", model.RoleParent, 1)
	f.email.SetFail(true)
	f.sms.SetFail(true)

	require.NoError(t, f.svc.Notify(context.Background(), Message{
		UserIDs:  []uint{u.ID},
		Title:    "缴费提醒",
		Content:  "请尽快完成缴费",
		Channels: []string{model.ChannelEmail, model.ChannelSMS},
	}))
	assert.Equal(t, model.NotifyFailed, f.rows(t, u.ID, model.ChannelEmail)[0].Status)
	assert.Equal(t, model.NotifyFailed, f.rows(t, u.ID, model.ChannelSMS)[0].Status)

	// 第二次仍失败，达到上限
	n, err := f.svc.RetryFailed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f.email.SetFail(false)
	f.sms.SetFail(false)
	n, err = f.svc.RetryFailed(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, f.email.Sent())

	row := f.rows(t, u.ID, model.ChannelEmail)[0]
	assert.Equal(t, model.NotifyFailed, row.Status)
	assert.Equal(t, 2, row.Attempts)
}

func TestNotify_EmailAndSmsDelivered(t *testing.T) {
	f := newFixture(t)
	u := testutil.CreateUser(t, f.repos, "both", model.RoleParent, 1)

	require.NoError(t, f.svc.Notify(context.Background(), Message{
		UserIDs:  []uint{u.ID},
		Title:    "入园通知",
		Content:  "审核已通过",
		Channels: []string{model.ChannelEmail, model.ChannelSMS},
	}))
	require.Equal(t, 1, f.email.Sent())
	assert.Equal(t, u.Email, f.email.Msgs[0].To[0].Address)
	assert.Equal(t, "入园通知", f.email.Msgs[0].Subject)
	require.Equal(t, 1, f.sms.Sent())
	assert.Equal(t, u.Telephone+"|入园通知：审核已通过", f.sms.Notifications[0])
}

func TestInbox(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, f.repos, "reader", model.RoleParent, 1)
	other := testutil.CreateUser(t, f.repos, "other", model.RoleParent, 1)

	for _, title := range []string{"a", "b", "c"} {
		require.NoError(t, f.svc.Notify(ctx, Message{UserIDs: []uint{u.ID}, Title: title}))
	}
	require.NoError(t, f.svc.Notify(ctx, Message{UserIDs: []uint{other.ID}, Title: "z"}))

	page, err := f.svc.List(u.ID, request.NotificationListRequest{})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.Total)
	assert.Equal(t, "c", page.List[0].Title, "按时间倒序")

	unread, err := f.svc.UnreadCount(u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, unread)

	require.NoError(t, f.svc.MarkRead(u.ID, page.List[0].ID))
	// 重复标记不报错
	require.NoError(t, f.svc.MarkRead(u.ID, page.List[0].ID))

	otherRows := f.rows(t, other.ID, model.ChannelInApp)
	err = f.svc.MarkRead(u.ID, otherRows[0].ID)
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(f.svc.MarkRead(u.ID, 9999)))

	page, err = f.svc.List(u.ID, request.NotificationListRequest{UnreadOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	n, err := f.svc.MarkAllRead(u.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	unread, err = f.svc.UnreadCount(u.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
}

func TestBroadcast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	kg := testutil.CreateKindergarten(t, f.repos, "阳光幼儿园")
	otherKg := testutil.CreateKindergarten(t, f.repos, "星星幼儿园")
	class := testutil.CreateClass(t, f.repos, kg.ID, "小一班", 20)

	p1 := testutil.CreateUser(t, f.repos, "p1", model.RoleParent, kg.ID)
	p2 := testutil.CreateUser(t, f.repos, "p2", model.RoleParent, kg.ID)
	testutil.CreateUser(t, f.repos, "t1", model.RoleTeacher, kg.ID)
	testutil.CreateUser(t, f.repos, "p3", model.RoleParent, otherKg.ID)

	s := testutil.CreateStudent(t, f.repos, kg.ID, class.ID, "小明")
	require.NoError(t, f.repos.Guardian.Create(&model.Guardian{StudentID: s.ID, Name: "爸爸", UserID: p1.ID, IsPrimary: true}))

	n, err := f.svc.Broadcast(ctx, 1, request.BroadcastRequest{KindergartenID: kg.ID, Title: "停课通知", Content: "明天停课"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.rows(t, p1.ID, model.ChannelInApp), 1)
	assert.Len(t, f.rows(t, p2.ID, model.ChannelInApp), 1)

	n, err = f.svc.Broadcast(ctx, 1, request.BroadcastRequest{KindergartenID: kg.ID, ClassID: class.ID, Title: "班级通知", Content: "带水杯"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	rows := f.rows(t, p1.ID, model.ChannelInApp)
	require.Len(t, rows, 2)
	assert.Equal(t, "class", rows[1].BizType)
	assert.Equal(t, TypeBroadcast, rows[1].Type)

	_, err = f.svc.Broadcast(ctx, 1, request.BroadcastRequest{KindergartenID: otherKg.ID, ClassID: class.ID, Title: "x", Content: "x"})
	assert.Equal(t, errorx.CodeInvalidParam, errorx.GetCode(err))
	_, err = f.svc.Broadcast(ctx, 1, request.BroadcastRequest{KindergartenID: 999, Title: "x", Content: "x"})
	assert.Equal(t, errorx.CodeNotFound, errorx.GetCode(err))
}
